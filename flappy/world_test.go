package flappy

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/colornames"

	"github.com/baldhumanity/neat-flappy/neat"
)

func newTestWorld(t *testing.T, seed int64) *World {
	t.Helper()
	w, err := NewWorld(DefaultConfig(), rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return w
}

func spawned(w *World, slot int) *neat.AgentState {
	var a neat.AgentState
	a.Reset(w.Spawn(slot))
	return &a
}

func TestNewWorldDerivesSizes(t *testing.T) {
	w := newTestWorld(t, 1)

	assert.Equal(t, 360.0, w.Config.PipeGap)
	assert.Equal(t, 720.0, w.Config.PipeVariation)
	assert.InDelta(t, 51.2, w.Config.PipeWidth, 1e-9)
	assert.InDelta(t, 51.2, w.Config.AgentRadius, 1e-9)

	assert.Equal(t, 1280.0, w.Pipes.Position.X)
	assert.LessOrEqual(t, math.Abs(w.Pipes.Position.Y), 360.0)
	assert.Zero(t, w.Score())
}

func TestNewWorldRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PipeGap = 10
	_, err := NewWorld(cfg, rand.New(rand.NewSource(1)))
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.DeltaTime = 0
	_, err = NewWorld(cfg, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestPipePlacementIsSeeded(t *testing.T) {
	a, b := newTestWorld(t, 9), newTestWorld(t, 9)
	for i := 0; i < 5; i++ {
		assert.Equal(t, a.Pipes, b.Pipes)
		a.Reset()
		b.Reset()
	}
}

func TestSpawn(t *testing.T) {
	w := newTestWorld(t, 1)

	b := w.Spawn(0)
	assert.Equal(t, neat.Vec2{X: -640, Y: 0}, b.Position)
	assert.Equal(t, neat.Vec2{}, b.Velocity)
	assert.Equal(t, colornames.White, b.Color)

	assert.Equal(t, w.Spawn(1).Color, w.Spawn(1+len(palette)).Color)
}

func TestIntegrateAppliesGravity(t *testing.T) {
	w := newTestWorld(t, 1)
	a := spawned(w, 0)

	w.Integrate(a)

	dt := w.Config.DeltaTime
	assert.InDelta(t, -2000*dt, a.Velocity.Y, 1e-9)
	assert.InDelta(t, -2000*dt*dt, a.Position.Y, 1e-9)
	assert.Equal(t, -640.0, a.Position.X)
}

func TestIntegrateClampsSpeed(t *testing.T) {
	w := newTestWorld(t, 1)
	a := spawned(w, 0)
	a.Velocity.Y = -w.Config.MaxVelocity

	w.Integrate(a)

	assert.InDelta(t, w.Config.MaxVelocity, math.Hypot(a.Velocity.X, a.Velocity.Y), 1e-9)
	assert.Less(t, a.Velocity.Y, 0.0)
}

func TestApplyJump(t *testing.T) {
	w := newTestWorld(t, 1)
	a := spawned(w, 0)
	a.Velocity.Y = -300

	w.Apply(a, false)
	assert.Equal(t, -300.0, a.Velocity.Y)

	w.Apply(a, true)
	assert.Equal(t, w.Config.JumpVelocity, a.Velocity.Y)
}

func TestTerminated(t *testing.T) {
	w := newTestWorld(t, 1)
	r := w.Config.AgentRadius

	t.Run("free flight", func(t *testing.T) {
		a := spawned(w, 0)
		assert.False(t, w.Terminated(a))
		assert.Equal(t, colornames.White, a.Color)
	})

	t.Run("floor", func(t *testing.T) {
		a := spawned(w, 0)
		a.Position.Y = -710
		require.True(t, w.Terminated(a))
		assert.Equal(t, Crashed, a.Color)
		assert.InDelta(t, -720+r, a.Position.Y, 1e-9)
	})

	t.Run("ceiling", func(t *testing.T) {
		a := spawned(w, 0)
		a.Position.Y = 800
		require.True(t, w.Terminated(a))
		assert.InDelta(t, 720-r, a.Position.Y, 1e-9)
	})

	t.Run("pipes", func(t *testing.T) {
		w.Pipes.Position = neat.Vec2{X: w.agentX() - 10, Y: 0}

		inGap := spawned(w, 0)
		assert.False(t, w.Terminated(inGap))

		above := spawned(w, 0)
		above.Position.Y = 200
		assert.True(t, w.Terminated(above))

		below := spawned(w, 0)
		below.Position.Y = -200
		assert.True(t, w.Terminated(below))
	})
}

func TestAdvanceScoresOncePerPipe(t *testing.T) {
	w := newTestWorld(t, 1)
	step := w.Config.PipeVelocity * w.Config.DeltaTime

	x := w.Pipes.Position.X
	w.Advance()
	assert.InDelta(t, x-step, w.Pipes.Position.X, 1e-9)
	assert.Zero(t, w.Score())

	w.Pipes.Position.X = -800
	w.Advance()
	assert.Equal(t, 1, w.Score())
	w.Advance()
	assert.Equal(t, 1, w.Score())

	// Past the left edge the pipes are recycled and can score again.
	w.Pipes.Position.X = -1400
	w.Advance()
	assert.Equal(t, 1280.0, w.Pipes.Position.X)

	w.Pipes.Position.X = -800
	w.Advance()
	assert.Equal(t, 2, w.Score())

	w.Reset()
	assert.Zero(t, w.Score())
	assert.Equal(t, 1280.0, w.Pipes.Position.X)
}

func TestSense(t *testing.T) {
	w := newTestWorld(t, 1)
	w.Pipes.Position.Y = 0
	a := spawned(w, 0)

	s := w.Sense(a)
	require.Len(t, s, SensorCount)

	assert.InDelta(t, (1280.0+640)/2560, s[0], 1e-9)
	assert.InDelta(t, 180.0/1440, s[1], 1e-9)
	assert.InDelta(t, 180.0/1440, s[2], 1e-9)
	assert.Zero(t, s[3])
	assert.Zero(t, s[4])
	assert.InDelta(t, (720-w.Config.AgentRadius)/720, s[5], 1e-9)

	for _, v := range s {
		assert.LessOrEqual(t, math.Abs(v), 1.0)
	}
}

func TestFitness(t *testing.T) {
	w := newTestWorld(t, 1)
	w.Pipes.Position.Y = 0
	a := spawned(w, 0)
	a.Ticks = 120

	assert.InDelta(t, 2.0, w.Fitness(a), 1e-3)

	a.Position.Y = 144
	assert.InDelta(t, 2.0-0.1, w.Fitness(a), 1e-3)

	w.score = 3
	assert.InDelta(t, 2.0-0.1+30, w.Fitness(a), 1e-3)

	longer := *a
	longer.Ticks = 121
	assert.Greater(t, w.Fitness(&longer), w.Fitness(a))
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "configs", "flappy.ini"))
	require.NoError(t, err)

	assert.Equal(t, 2560.0, cfg.Width)
	assert.Equal(t, 1249.0, cfg.JumpVelocity)
	assert.Equal(t, 360.0, cfg.PipeGap)
	assert.InDelta(t, 51.2, cfg.AgentRadius, 1e-9)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.ini"))
	assert.Error(t, err)

	malformed := filepath.Join(t.TempDir(), "malformed.ini")
	require.NoError(t, os.WriteFile(malformed, []byte("[Environment]\ngravity = strong\n"), 0o644))
	_, err = LoadConfig(malformed)
	assert.Error(t, err)
}

// The world drives a real population through whole generations.
func TestWorldDrivesPopulation(t *testing.T) {
	cfg := neat.DefaultConfig()
	cfg.Neat.PopSize = 4
	cfg.Neat.MaxTicks = 600
	rng := rand.New(rand.NewSource(5))

	w, err := NewWorld(DefaultConfig(), rng)
	require.NoError(t, err)
	pop, err := neat.NewPopulation(cfg, w, jumpWhenLow{}, rng, nil)
	require.NoError(t, err)

	for gen := 0; gen < 3; gen++ {
		stats, err := pop.RunGeneration(t.Context(), w)
		require.NoError(t, err)
		assert.Equal(t, gen, stats.Generation)
		assert.LessOrEqual(t, stats.Ticks, 600)
		assert.Greater(t, stats.BestFitness, 0.0)
	}
	assert.Equal(t, 3, pop.Generation)
}

// jumpWhenLow jumps whenever the agent is in the lower half of the world.
type jumpWhenLow struct{}

func (jumpWhenLow) Act(_ *neat.Genome, inputs []float64) (bool, float64, error) {
	return inputs[4] < 0, 0, nil
}
