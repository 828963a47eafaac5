package neat

import (
	"context"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
)

// GenerationStats summarizes one finished generation.
type GenerationStats struct {
	Generation       int
	Winner           *Genome // Frozen copy; safe to keep
	BestFitness      float64
	MeanFitness      float64
	MinFitness       float64
	Ticks            int // Ticks the generation lasted
	Score            int // Obstacles cleared, when the environment is a Scorer
	Neurons          int // Winner's neuron count
	Connections      int // Winner's enabled connection count
	InheritanceGaps  int
	NeuronsAdded     int
	ConnectionsAdded int
	Duration         time.Duration
}

// Reporter is notified at the end of every generation.
type Reporter interface {
	GenerationEnd(ctx context.Context, stats GenerationStats) error
}

// ReporterSet fans generation events out to every registered Reporter.
// Reporter failures are logged and never stop evolution.
type ReporterSet struct {
	reporters []Reporter
	logger    *slog.Logger
}

// NewReporterSet creates an empty set.
func NewReporterSet(logger *slog.Logger) *ReporterSet {
	return &ReporterSet{logger: logger}
}

// Add registers a reporter.
func (rs *ReporterSet) Add(r Reporter) {
	rs.reporters = append(rs.reporters, r)
}

// GenerationEnd notifies every reporter in registration order.
func (rs *ReporterSet) GenerationEnd(ctx context.Context, stats GenerationStats) {
	for _, r := range rs.reporters {
		if err := r.GenerationEnd(ctx, stats); err != nil {
			rs.logger.Warn("reporter failed", "generation", stats.Generation, "error", err)
		}
	}
}

// LogReporter writes one structured log line per generation.
type LogReporter struct {
	Logger *slog.Logger
}

// GenerationEnd implements Reporter.
func (r LogReporter) GenerationEnd(_ context.Context, s GenerationStats) error {
	r.Logger.Info("generation finished",
		"generation", s.Generation,
		"best_fitness", s.BestFitness,
		"mean_fitness", s.MeanFitness,
		"ticks", humanize.Comma(int64(s.Ticks)),
		"score", s.Score,
		"neurons", s.Neurons,
		"connections", s.Connections,
		"neurons_added", s.NeuronsAdded,
		"connections_added", s.ConnectionsAdded,
		"inheritance_gaps", s.InheritanceGaps,
		"duration", s.Duration.Round(time.Millisecond),
	)
	return nil
}
