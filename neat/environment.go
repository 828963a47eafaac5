package neat

import "image/color"

// Vec2 is a point or velocity in world coordinates.
type Vec2 struct {
	X, Y float64
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Scale returns v * s.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// BirthState is the reusable initial state of the agent a genome controls.
type BirthState struct {
	Position Vec2
	Velocity Vec2
	Color    color.RGBA
}

// AgentState is the live state of the agent during one generation.
type AgentState struct {
	Position Vec2
	Velocity Vec2
	Color    color.RGBA
	Ticks    int // Ticks survived in the current generation
}

// Reset restores the agent to its birth state.
func (a *AgentState) Reset(b BirthState) {
	*a = AgentState{
		Position: b.Position,
		Velocity: b.Velocity,
		Color:    b.Color,
	}
}

// Environment is the world the population is evaluated against.
//
// Per-agent methods only touch the agent they are given. Advance and Reset
// mutate the shared world and are called by the population exactly once per
// tick and once per generation respectively.
type Environment interface {
	// Integrate advances the agent's physics by one tick.
	Integrate(a *AgentState)
	// Sense returns the sensor vector for the agent, one value per input neuron.
	Sense(a *AgentState) []float64
	// Apply performs the decided action; act is true for "jump".
	Apply(a *AgentState, act bool)
	// Terminated reports whether the agent's episode has ended.
	Terminated(a *AgentState) bool
	// Fitness scores an agent whose episode just ended.
	Fitness(a *AgentState) float64
	// Advance moves obstacles and updates the score.
	Advance()
	// Reset restores the shared world for a new generation.
	Reset()
	// Spawn returns the birth state for the agent in the given population slot.
	Spawn(slot int) BirthState
}
