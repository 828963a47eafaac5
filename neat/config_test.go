package neat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigOverridesDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
[NEAT]
pop_size = 25
max_ticks = 600

[DefaultGenome]
num_inputs = 4
feed_forward = true
perturbation_power = 0.25
structural_mutation = false
`))
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Neat.PopSize)
	assert.Equal(t, 600, cfg.Neat.MaxTicks)
	assert.Equal(t, 4, cfg.Genome.NumInputs)
	assert.True(t, cfg.Genome.FeedForward)
	assert.Equal(t, 0.25, cfg.Genome.PerturbationPower)
	assert.False(t, cfg.Genome.StructuralMutation)

	// Absent keys keep their defaults.
	def := DefaultConfig()
	assert.Equal(t, def.Genome.WeightInitMin, cfg.Genome.WeightInitMin)
	assert.Equal(t, def.Genome.WeightInitMax, cfg.Genome.WeightInitMax)
	assert.Equal(t, def.Genome.NodeAddProb, cfg.Genome.NodeAddProb)
	assert.Equal(t, def.Genome.ConnAddProb, cfg.Genome.ConnAddProb)
	assert.Zero(t, cfg.Neat.Seed)
}

func TestParseConfigRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"zero population":      "[NEAT]\npop_size = 0\n",
		"negative max ticks":   "[NEAT]\nmax_ticks = -1\n",
		"no inputs":            "[DefaultGenome]\nnum_inputs = 0\n",
		"inverted weights":     "[DefaultGenome]\nweight_init_min = 1\nweight_init_max = -1\n",
		"negative power":       "[DefaultGenome]\nperturbation_power = -0.1\n",
		"probability above 1":  "[DefaultGenome]\nnode_add_prob = 1.5\n",
		"negative probability": "[DefaultGenome]\nconn_add_prob = -0.5\n",
		"not a number":         "[NEAT]\npop_size = many\n",
		"not a bool":           "[DefaultGenome]\nstructural_mutation = maybe\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.ini")
	require.NoError(t, os.WriteFile(path, []byte("[NEAT]\npop_size = 3\nseed = 42\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Neat.PopSize)
	assert.Equal(t, int64(42), cfg.Neat.Seed)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.ini"))
	assert.Error(t, err)
}

func TestLoadConfigShippedFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "configs", "flappy.ini"))
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Neat.PopSize)
	assert.Equal(t, 6, cfg.Genome.NumInputs)
}
