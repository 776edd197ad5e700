package storage

import (
	"context"
	"sort"
	"sync"

	"hivsim/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.RunRecord
	snapshots   map[string][]model.IndicatorSnapshot
	batches     map[string]model.BatchRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.RunRecord)
	s.snapshots = make(map[string][]model.IndicatorSnapshot)
	s.batches = make(map[string]model.BatchRecord)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAtUTC == runs[j].CreatedAtUTC {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].CreatedAtUTC > runs[j].CreatedAtUTC
	})
	return runs, nil
}

func (s *MemoryStore) SaveSnapshots(_ context.Context, runID string, snapshots []model.IndicatorSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[runID] = append([]model.IndicatorSnapshot(nil), snapshots...)
	return nil
}

func (s *MemoryStore) GetSnapshots(_ context.Context, runID string) ([]model.IndicatorSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshots, ok := s.snapshots[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]model.IndicatorSnapshot(nil), snapshots...), true, nil
}

func (s *MemoryStore) SaveBatch(_ context.Context, batch model.BatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch.Summary = append([]model.BatchYearSummary(nil), batch.Summary...)
	s.batches[batch.ID] = batch
	return nil
}

func (s *MemoryStore) GetBatch(_ context.Context, id string) (model.BatchRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch, ok := s.batches[id]
	if !ok {
		return model.BatchRecord{}, false, nil
	}
	batch.Summary = append([]model.BatchYearSummary(nil), batch.Summary...)
	return batch, true, nil
}

func (s *MemoryStore) ListBatches(_ context.Context) ([]model.BatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batches := make([]model.BatchRecord, 0, len(s.batches))
	for _, batch := range s.batches {
		batch.Summary = append([]model.BatchYearSummary(nil), batch.Summary...)
		batches = append(batches, batch)
	}
	sort.Slice(batches, func(i, j int) bool {
		if batches[i].CreatedAtUTC == batches[j].CreatedAtUTC {
			return batches[i].ID < batches[j].ID
		}
		return batches[i].CreatedAtUTC > batches[j].CreatedAtUTC
	})
	return batches, nil
}
