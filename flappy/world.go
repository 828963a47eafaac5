// Package flappy is a headless side-scrolling pipe world that agents steer
// through by jumping. It implements neat.Environment.
package flappy

import (
	"image/color"
	"math"
	"math/rand"

	"golang.org/x/image/colornames"

	"github.com/baldhumanity/neat-flappy/neat"
)

// SensorCount is the length of the vector returned by Sense.
const SensorCount = 6

// Crashed is the color an agent takes once it has collided.
var Crashed = colornames.Gray

// palette colors agents by population slot.
var palette = []color.RGBA{
	colornames.White,
	colornames.Gold,
	colornames.Tomato,
	colornames.Deepskyblue,
	colornames.Limegreen,
	colornames.Orchid,
	colornames.Orange,
	colornames.Turquoise,
	colornames.Salmon,
	colornames.Khaki,
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	Min, Max neat.Vec2
}

// Pipes is the single pair of pipes scrolling through the world.
// Position.X is the left edge, Position.Y the center of the gap.
type Pipes struct {
	Position neat.Vec2
	Width    float64
	Gap      float64
	height   float64
}

// Top returns the upper pipe.
func (p Pipes) Top() Rect {
	bottom := p.Position.Y + p.Gap/2
	return Rect{
		Min: neat.Vec2{X: p.Position.X, Y: bottom},
		Max: neat.Vec2{X: p.Position.X + p.Width, Y: bottom + p.height},
	}
}

// Bottom returns the lower pipe.
func (p Pipes) Bottom() Rect {
	top := p.Position.Y - p.Gap/2
	return Rect{
		Min: neat.Vec2{X: p.Position.X, Y: top - p.height},
		Max: neat.Vec2{X: p.Position.X + p.Width, Y: top},
	}
}

// World is the shared environment every agent of a generation plays in.
type World struct {
	Config Config
	Pipes  Pipes

	score   int
	counted bool // Current pipe pair already scored
	rng     *rand.Rand
}

// NewWorld creates a world with the pipes at the right edge. rng should be
// the run's shared random source.
func NewWorld(config Config, rng *rand.Rand) (*World, error) {
	config.fillDerived()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	w := &World{Config: config, rng: rng}
	w.Reset()
	return w, nil
}

// Score returns the number of pipe pairs cleared this generation.
func (w *World) Score() int {
	return w.score
}

// agentX is the fixed horizontal position of every agent.
func (w *World) agentX() float64 {
	return -w.Config.Width / 4
}

// Spawn implements neat.Environment.
func (w *World) Spawn(slot int) neat.BirthState {
	return neat.BirthState{
		Position: neat.Vec2{X: w.agentX(), Y: 0},
		Color:    palette[slot%len(palette)],
	}
}

// Integrate applies gravity and moves the agent, clamping its speed.
func (w *World) Integrate(a *neat.AgentState) {
	dt := w.Config.DeltaTime
	a.Velocity = a.Velocity.Add(neat.Vec2{Y: w.Config.Gravity}.Scale(dt))
	a.Position = a.Position.Add(a.Velocity.Scale(dt))

	if mag := math.Hypot(a.Velocity.X, a.Velocity.Y); mag > w.Config.MaxVelocity {
		a.Velocity = a.Velocity.Scale(w.Config.MaxVelocity / mag)
	}
}

// Sense returns the six sensor values, each scaled to roughly [-1, 1]:
// horizontal distance to the pipes, vertical distance to the lower edge of
// the top pipe, vertical distance to the upper edge of the bottom pipe,
// vertical velocity, vertical position and the distance to the nearer of
// ceiling or floor.
func (w *World) Sense(a *neat.AgentState) []float64 {
	halfH := w.Config.Height / 2
	top, bottom := w.Pipes.Top(), w.Pipes.Bottom()
	clearance := halfH - w.Config.AgentRadius - math.Abs(a.Position.Y)

	return []float64{
		(w.Pipes.Position.X - a.Position.X) / w.Config.Width,
		(top.Min.Y - a.Position.Y) / w.Config.Height,
		(a.Position.Y - bottom.Max.Y) / w.Config.Height,
		a.Velocity.Y / w.Config.MaxVelocity,
		a.Position.Y / halfH,
		clearance / halfH,
	}
}

// Apply makes the agent jump when act is true.
func (w *World) Apply(a *neat.AgentState, act bool) {
	if act {
		a.Velocity.Y = w.Config.JumpVelocity
	}
}

// Terminated reports a collision with the floor, the ceiling or a pipe.
// A crashed agent is grayed out and pushed back inside the world.
func (w *World) Terminated(a *neat.AgentState) bool {
	if !w.collides(a) {
		return false
	}
	halfH := w.Config.Height / 2
	r := w.Config.AgentRadius
	a.Color = Crashed
	a.Position.Y = clamp(a.Position.Y, -halfH+r, halfH-r)
	return true
}

func (w *World) collides(a *neat.AgentState) bool {
	halfH := w.Config.Height / 2
	r := w.Config.AgentRadius
	if a.Position.Y+r >= halfH || a.Position.Y-r <= -halfH {
		return true
	}
	return circleHitsRect(a.Position, r, w.Pipes.Top()) || circleHitsRect(a.Position, r, w.Pipes.Bottom())
}

// Fitness rewards survival time and cleared pipes, and penalizes ending far
// from the center of the gap.
func (w *World) Fitness(a *neat.AgentState) float64 {
	survived := float64(a.Ticks) * w.Config.DeltaTime
	offset := math.Abs(a.Position.Y-w.Pipes.Position.Y) / w.Config.Height
	return survived + w.Config.ScoreWeight*float64(w.score) - w.Config.ProximityWeight*offset
}

// Advance scrolls the pipes, scores a pair once it is behind the agents and
// recycles it at the right edge with a new gap height.
func (w *World) Advance() {
	w.Pipes.Position.X -= w.Config.PipeVelocity * w.Config.DeltaTime

	if !w.counted && w.Pipes.Position.X+w.Pipes.Width < w.agentX()-w.Config.AgentRadius {
		w.counted = true
		w.score++
	}
	if w.Pipes.Position.X+w.Pipes.Width < -w.Config.Width/2 {
		w.placePipes()
	}
}

// Reset puts fresh pipes at the right edge and clears the score.
func (w *World) Reset() {
	w.score = 0
	w.placePipes()
}

func (w *World) placePipes() {
	half := int(w.Config.PipeVariation / 2)
	y := 0
	if half > 0 {
		y = w.rng.Intn(2*half+1) - half
	}
	w.Pipes = Pipes{
		Position: neat.Vec2{X: w.Config.Width / 2, Y: float64(y)},
		Width:    w.Config.PipeWidth,
		Gap:      w.Config.PipeGap,
		height:   w.Config.Height,
	}
	w.counted = false
}

// circleHitsRect tests a circle against a rectangle via the closest point.
func circleHitsRect(center neat.Vec2, radius float64, r Rect) bool {
	closest := neat.Vec2{
		X: clamp(center.X, r.Min.X, r.Max.X),
		Y: clamp(center.Y, r.Min.Y, r.Max.Y),
	}
	dx, dy := center.X-closest.X, center.Y-closest.Y
	return dx*dx+dy*dy <= radius*radius
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

var (
	_ neat.Environment = (*World)(nil)
	_ neat.Scorer      = (*World)(nil)
)
