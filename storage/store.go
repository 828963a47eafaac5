// Package storage keeps the per-generation history of evolution runs.
package storage

import (
	"context"
	"time"
)

// GenerationRecord is one finished generation of a run.
type GenerationRecord struct {
	RunID       string    `json:"run_id"`
	Generation  int       `json:"generation"`
	BestFitness float64   `json:"best_fitness"`
	MeanFitness float64   `json:"mean_fitness"`
	MinFitness  float64   `json:"min_fitness"`
	Ticks       int       `json:"ticks"`
	Score       int       `json:"score"`
	Neurons     int       `json:"neurons"`
	Connections int       `json:"connections"`
	Snapshot    string    `json:"snapshot"` // Winner genome in snapshot text form
	RecordedAt  time.Time `json:"recorded_at"`
}

// Store defines the history persistence operations.
type Store interface {
	Init(ctx context.Context) error
	SaveGeneration(ctx context.Context, record GenerationRecord) error
	Generations(ctx context.Context, runID string) ([]GenerationRecord, error)
	Runs(ctx context.Context) ([]string, error)
}
