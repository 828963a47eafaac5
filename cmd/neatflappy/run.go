package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/baldhumanity/neat-flappy/flappy"
	"github.com/baldhumanity/neat-flappy/monitor"
	"github.com/baldhumanity/neat-flappy/neat"
	"github.com/baldhumanity/neat-flappy/neat/nn"
	"github.com/baldhumanity/neat-flappy/storage"
)

var (
	runConfigPath  string
	runSeed        int64
	runGenerations int
	runOutDir      string
	runStoreKind   string
	runStorePath   string
	runMetricsAddr string
)

// runCmd evolves a population until interrupted or until the generation
// limit is reached, then saves the latest winner as a snapshot.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run evolution in the headless pipe world",
	Long: `Runs the tick loop until every agent dies, selects the winner, rebirths
the population from it and repeats.

On interrupt the current tick finishes and the most recent winner is written
to a genome snapshot before exiting.

Examples:
  neatflappy run
  neatflappy run --config configs/flappy.ini --seed 42 --generations 200
  neatflappy run --store sqlite --db history.db --metrics-addr :9090`,
	RunE: runEvolution,
}

func init() {
	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "INI config file (defaults are used when empty)")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "random seed; overrides the config, 0 seeds from the clock")
	runCmd.Flags().IntVarP(&runGenerations, "generations", "g", 0, "stop after this many generations, 0 runs until interrupted")
	runCmd.Flags().StringVarP(&runOutDir, "out", "o", ".", "directory for the genome snapshot")
	runCmd.Flags().StringVar(&runStoreKind, "store", "memory", "history backend: memory or sqlite")
	runCmd.Flags().StringVar(&runStorePath, "db", "neatflappy.db", "sqlite history file")
	runCmd.Flags().StringVar(&runMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
}

func runEvolution(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := newLogger(os.Stderr, logLevel)
	if err != nil {
		return err
	}

	config, envConfig, err := loadConfigs(runConfigPath)
	if err != nil {
		return err
	}
	if config.Genome.NumInputs != flappy.SensorCount {
		return fmt.Errorf("config error: num_inputs is %d but the world provides %d sensors", config.Genome.NumInputs, flappy.SensorCount)
	}

	seed := config.Neat.Seed
	if cmd.Flags().Changed("seed") {
		seed = runSeed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	world, err := flappy.NewWorld(envConfig, rng)
	if err != nil {
		return err
	}
	pop, err := neat.NewPopulation(config, world, nn.Controller{}, rng, logger)
	if err != nil {
		return fmt.Errorf("failed to create population: %w", err)
	}

	store, err := storage.NewStore(runStoreKind, runStorePath)
	if err != nil {
		return err
	}
	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer func() {
		if err := storage.CloseIfSupported(store); err != nil {
			logger.Warn("failed to close history store", "error", err)
		}
	}()
	history := storage.NewHistoryReporter(store)

	reg := prometheus.NewRegistry()
	metrics, err := monitor.NewReporter(reg)
	if err != nil {
		return err
	}

	pop.Reporters.Add(neat.LogReporter{Logger: logger})
	pop.Reporters.Add(history)
	pop.Reporters.Add(metrics)

	logger.Info("starting evolution", "run", history.RunID, "seed", seed,
		"population", config.Neat.PopSize, "inputs", config.Genome.NumInputs)

	g, gctx := errgroup.WithContext(ctx)

	var srv *http.Server
	if runMetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", monitor.Handler(reg))
		srv = &http.Server{Addr: runMetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			logger.Info("serving metrics", "addr", runMetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		if srv != nil {
			defer shutdownServer(srv, logger)
		}
		evolveErr := evolve(gctx, pop, world, runGenerations)
		// The snapshot is written on every exit path, interrupt included.
		return errors.Join(evolveErr, saveWinner(pop, runOutDir, logger))
	})

	return g.Wait()
}

// evolve runs generations until the limit is reached or ctx is cancelled.
// Cancellation is a normal stop.
func evolve(ctx context.Context, pop *neat.Population, env neat.Environment, generations int) error {
	for generations <= 0 || pop.Generation < generations {
		if _, err := pop.RunGeneration(ctx, env); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
	return nil
}

// saveWinner writes the most recent winner, if any, to a snapshot file.
func saveWinner(pop *neat.Population, dir string, logger *slog.Logger) error {
	if pop.Winner == nil {
		logger.Info("no generation finished; nothing to save")
		return nil
	}
	path, err := neat.SaveSnapshot(dir, pop.Winner, time.Now())
	if err != nil {
		return err
	}
	logger.Info("saved winner snapshot", "path", path, "generation", pop.Generation-1, "fitness", pop.Winner.Fitness)
	return nil
}

func shutdownServer(srv *http.Server, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("metrics server shutdown failed", "error", err)
	}
}

// loadConfigs reads both the core and the world sections of the INI file.
func loadConfigs(path string) (*neat.Config, flappy.Config, error) {
	if path == "" {
		return neat.DefaultConfig(), flappy.DefaultConfig(), nil
	}
	config, err := neat.LoadConfig(path)
	if err != nil {
		return nil, flappy.Config{}, err
	}
	envConfig, err := flappy.LoadConfig(path)
	if err != nil {
		return nil, flappy.Config{}, err
	}
	return config, envConfig, nil
}
