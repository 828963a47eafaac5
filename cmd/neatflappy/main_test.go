package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/neat-flappy/flappy"
	"github.com/baldhumanity/neat-flappy/neat"
	"github.com/baldhumanity/neat-flappy/neat/nn"
	"github.com/baldhumanity/neat-flappy/storage"
)

var discard = slog.New(slog.DiscardHandler)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "warn")
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "generation", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "WARN", entry["level"])
	assert.EqualValues(t, 3, entry["generation"])

	_, err = newLogger(&buf, "loud")
	assert.Error(t, err)
}

func TestLoadConfigs(t *testing.T) {
	config, envConfig, err := loadConfigs("")
	require.NoError(t, err)
	assert.Equal(t, neat.DefaultConfig(), config)
	assert.Equal(t, flappy.DefaultConfig(), envConfig)

	config, envConfig, err = loadConfigs(filepath.Join("..", "..", "configs", "flappy.ini"))
	require.NoError(t, err)
	assert.Equal(t, flappy.SensorCount, config.Genome.NumInputs)
	assert.Equal(t, 1249.0, envConfig.JumpVelocity)

	_, _, err = loadConfigs(filepath.Join(t.TempDir(), "missing.ini"))
	assert.Error(t, err)
}

func newTestRun(t *testing.T) (*neat.Population, *flappy.World) {
	t.Helper()
	config := neat.DefaultConfig()
	config.Neat.PopSize = 3
	config.Neat.MaxTicks = 300
	rng := rand.New(rand.NewSource(11))

	world, err := flappy.NewWorld(flappy.DefaultConfig(), rng)
	require.NoError(t, err)
	pop, err := neat.NewPopulation(config, world, nn.Controller{}, rng, discard)
	require.NoError(t, err)
	return pop, world
}

func TestEvolveStopsAtGenerationLimit(t *testing.T) {
	pop, world := newTestRun(t)

	require.NoError(t, evolve(context.Background(), pop, world, 2))
	assert.Equal(t, 2, pop.Generation)
	assert.NotNil(t, pop.Winner)
}

func TestEvolveTreatsCancelAsStop(t *testing.T) {
	pop, world := newTestRun(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, evolve(ctx, pop, world, 0))
	assert.Equal(t, 0, pop.Generation)
}

func TestSaveWinner(t *testing.T) {
	pop, world := newTestRun(t)
	dir := t.TempDir()

	// Nothing to save before the first generation ends.
	require.NoError(t, saveWinner(pop, dir, discard))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, evolve(context.Background(), pop, world, 1))
	require.NoError(t, saveWinner(pop, dir, discard))

	entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	name := entries[0].Name()
	assert.True(t, strings.HasPrefix(name, "genome_"))
	assert.Equal(t, neat.SnapshotExt, filepath.Ext(name))
}

func TestPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	records := []storage.GenerationRecord{
		{Generation: 0, BestFitness: 1.5, MeanFitness: 0.75, Ticks: 1200, Neurons: 7, Connections: 6, RecordedAt: time.Now()},
		{Generation: 1, BestFitness: 12.25, MeanFitness: 3, Score: 1, Ticks: 4500, Neurons: 8, Connections: 8, RecordedAt: time.Now()},
	}
	require.NoError(t, printHistory(&buf, records))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "GEN"))
	assert.Contains(t, lines[1], "1,200")
	assert.Contains(t, lines[2], "12.250")
	assert.Contains(t, lines[2], "4,500")
}

func TestHistoryCommand(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")
	store := storage.NewSQLiteStore(path)
	require.NoError(t, store.Init(ctx))
	require.NoError(t, store.SaveGeneration(ctx, storage.GenerationRecord{
		RunID: "run-1", Generation: 0, BestFitness: 2, RecordedAt: time.Now(),
	}))
	require.NoError(t, store.Close())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"history", "--db", path})
	require.NoError(t, rootCmd.ExecuteContext(ctx))
	assert.Equal(t, "run-1\n", out.String())

	out.Reset()
	rootCmd.SetArgs([]string{"history", "--db", path, "run-1"})
	require.NoError(t, rootCmd.ExecuteContext(ctx))
	assert.Contains(t, out.String(), "2.000")

	rootCmd.SetArgs([]string{"history", "--db", path, "run-2"})
	assert.Error(t, rootCmd.ExecuteContext(ctx))
}
