package storage

import (
	"context"
	"reflect"
	"testing"

	"hivsim/internal/model"
)

func testRun(id, createdAt string) model.RunRecord {
	run := model.RunRecord{
		ID:             id,
		Scenario:       "baseline",
		Seed:           7,
		PopulationSize: 1000,
		StartYear:      1985,
		EndYear:        2025,
		TimeStep:       1,
		Mixing:         "binned",
		CreatedAtUTC:   createdAt,
	}
	Stamp(&run.VersionedRecord)
	return run
}

func testSnapshots() []model.IndicatorSnapshot {
	return []model.IndicatorSnapshot{
		{Year: 1985, TotalPopulation: 1000, HIVPositive: 8, Prevalence15to49: 0.008},
		{Year: 1986, TotalPopulation: 1020, HIVPositive: 11, Prevalence15to49: 0.010},
	}
}

func TestMemoryStoreRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	run := testRun("run-1", "2026-01-02T03:04:05Z")
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save run: %v", err)
	}

	got, ok, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if !ok {
		t.Fatal("run not found")
	}
	if !reflect.DeepEqual(got, run) {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, run)
	}

	if _, ok, _ := store.GetRun(ctx, "missing"); ok {
		t.Fatal("found a run that was never saved")
	}
}

func TestMemoryStoreListRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	for _, run := range []model.RunRecord{
		testRun("old", "2026-01-01T00:00:00Z"),
		testRun("new", "2026-03-01T00:00:00Z"),
		testRun("mid", "2026-02-01T00:00:00Z"),
	} {
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("save run: %v", err)
		}
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	wantOrder := []string{"new", "mid", "old"}
	if len(runs) != len(wantOrder) {
		t.Fatalf("got %d runs, want %d", len(runs), len(wantOrder))
	}
	for i, id := range wantOrder {
		if runs[i].ID != id {
			t.Fatalf("position %d: got %s, want %s", i, runs[i].ID, id)
		}
	}
}

func TestMemoryStoreSnapshotIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	original := testSnapshots()
	if err := store.SaveSnapshots(ctx, "run-1", original); err != nil {
		t.Fatalf("save snapshots: %v", err)
	}
	// Mutating the caller's slice must not reach the stored copy.
	original[0].TotalPopulation = -1

	got, ok, err := store.GetSnapshots(ctx, "run-1")
	if err != nil {
		t.Fatalf("get snapshots: %v", err)
	}
	if !ok {
		t.Fatal("snapshots not found")
	}
	if got[0].TotalPopulation != 1000 {
		t.Fatal("stored snapshots aliased the caller's slice")
	}

	// Mutating the returned slice must not reach the stored copy either.
	got[1].HIVPositive = -1
	again, _, _ := store.GetSnapshots(ctx, "run-1")
	if again[1].HIVPositive != 11 {
		t.Fatal("returned snapshots aliased the stored copy")
	}

	if _, ok, _ := store.GetSnapshots(ctx, "missing"); ok {
		t.Fatal("found snapshots that were never saved")
	}
}

func testBatch(id, createdAt string) model.BatchRecord {
	batch := model.BatchRecord{
		ID:             id,
		Scenario:       "scale-up",
		BaseSeed:       100,
		Runs:           20,
		PopulationSize: 5000,
		StartYear:      1985,
		EndYear:        2025,
		CreatedAtUTC:   createdAt,
		Summary: []model.BatchYearSummary{
			{Year: 1985, MeanPopulation: 5000, MeanPrevalence: 0.008},
			{Year: 1986, MeanPopulation: 5090, MeanPrevalence: 0.009},
		},
	}
	Stamp(&batch.VersionedRecord)
	return batch
}

func TestMemoryStoreBatchRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	batch := testBatch("batch-1", "2026-01-02T03:04:05Z")
	if err := store.SaveBatch(ctx, batch); err != nil {
		t.Fatalf("save batch: %v", err)
	}

	got, ok, err := store.GetBatch(ctx, "batch-1")
	if err != nil {
		t.Fatalf("get batch: %v", err)
	}
	if !ok {
		t.Fatal("batch not found")
	}
	if !reflect.DeepEqual(got, batch) {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, batch)
	}

	// Mutating the returned summary must not reach the stored copy.
	got.Summary[0].MeanPrevalence = -1
	again, _, _ := store.GetBatch(ctx, "batch-1")
	if again.Summary[0].MeanPrevalence != 0.008 {
		t.Fatal("returned summary aliased the stored copy")
	}

	if _, ok, _ := store.GetBatch(ctx, "missing"); ok {
		t.Fatal("found a batch that was never saved")
	}
}

func TestMemoryStoreListBatchesNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	for _, batch := range []model.BatchRecord{
		testBatch("old", "2026-01-01T00:00:00Z"),
		testBatch("new", "2026-03-01T00:00:00Z"),
	} {
		if err := store.SaveBatch(ctx, batch); err != nil {
			t.Fatalf("save batch: %v", err)
		}
	}

	batches, err := store.ListBatches(ctx)
	if err != nil {
		t.Fatalf("list batches: %v", err)
	}
	if len(batches) != 2 || batches[0].ID != "new" || batches[1].ID != "old" {
		t.Fatalf("unexpected batch order: %+v", batches)
	}
}

func TestNewStoreFactory(t *testing.T) {
	if _, err := NewStore("memory", ""); err != nil {
		t.Fatalf("memory store: %v", err)
	}
	if _, err := NewStore("", ""); err != nil {
		t.Fatalf("default store kind: %v", err)
	}
	if _, err := NewStore("bogus", ""); err == nil {
		t.Fatal("expected error for unknown store kind")
	}
}
