package storage

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// MemoryStore keeps history for the lifetime of the process.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        []string
	generations map[string][]GenerationRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = nil
	s.generations = make(map[string][]GenerationRecord)
	return nil
}

func (s *MemoryStore) SaveGeneration(_ context.Context, record GenerationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	records, ok := s.generations[record.RunID]
	if !ok {
		s.runs = append(s.runs, record.RunID)
	}
	for i := range records {
		if records[i].Generation == record.Generation {
			records[i] = record
			return nil
		}
	}
	records = append(records, record)
	sort.Slice(records, func(i, j int) bool { return records[i].Generation < records[j].Generation })
	s.generations[record.RunID] = records
	return nil
}

func (s *MemoryStore) Generations(_ context.Context, runID string) ([]GenerationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]GenerationRecord(nil), s.generations[runID]...), nil
}

func (s *MemoryStore) Runs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]string(nil), s.runs...), nil
}
