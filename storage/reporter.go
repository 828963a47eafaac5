package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/baldhumanity/neat-flappy/neat"
)

// HistoryReporter records every finished generation in a Store.
type HistoryReporter struct {
	Store Store
	RunID string
	now   func() time.Time
}

// NewHistoryReporter creates a reporter for a new run with a random id.
func NewHistoryReporter(store Store) *HistoryReporter {
	return &HistoryReporter{Store: store, RunID: uuid.NewString(), now: time.Now}
}

// GenerationEnd implements neat.Reporter.
func (r *HistoryReporter) GenerationEnd(ctx context.Context, s neat.GenerationStats) error {
	var snapshot strings.Builder
	if s.Winner != nil {
		if err := neat.WriteSnapshot(&snapshot, s.Winner); err != nil {
			return fmt.Errorf("render winner of generation %d: %w", s.Generation, err)
		}
	}
	return r.Store.SaveGeneration(ctx, GenerationRecord{
		RunID:       r.RunID,
		Generation:  s.Generation,
		BestFitness: s.BestFitness,
		MeanFitness: s.MeanFitness,
		MinFitness:  s.MinFitness,
		Ticks:       s.Ticks,
		Score:       s.Score,
		Neurons:     s.Neurons,
		Connections: s.Connections,
		Snapshot:    snapshot.String(),
		RecordedAt:  r.now(),
	})
}

var _ neat.Reporter = (*HistoryReporter)(nil)
