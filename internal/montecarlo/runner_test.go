package montecarlo

import (
	"context"
	"reflect"
	"testing"

	"hivsim/internal/engine"
)

func batchConfig(runs, workers int) Config {
	return Config{
		Runs:     runs,
		Workers:  workers,
		BaseSeed: 100,
		Years:    8,
		Engine: engine.Config{
			PopulationSize:    1500,
			InitialPrevalence: 0.02,
		},
	}
}

func TestRunValidatesConfig(t *testing.T) {
	if _, err := Run(context.Background(), Config{Runs: 0, Years: 5}); err == nil {
		t.Fatal("expected error for zero runs")
	}
	if _, err := Run(context.Background(), Config{Runs: 5, Years: 0}); err == nil {
		t.Fatal("expected error for zero years")
	}
}

func TestBatchDeterministicAcrossWorkerCounts(t *testing.T) {
	serial, err := Run(context.Background(), batchConfig(6, 1))
	if err != nil {
		t.Fatalf("serial batch: %v", err)
	}
	parallel, err := Run(context.Background(), batchConfig(6, 4))
	if err != nil {
		t.Fatalf("parallel batch: %v", err)
	}

	if !reflect.DeepEqual(serial.Trajectories, parallel.Trajectories) {
		t.Fatal("worker count changed batch results")
	}
	if !reflect.DeepEqual(serial.Summary, parallel.Summary) {
		t.Fatal("worker count changed batch summary")
	}
}

func TestTrajectoriesOrderedBySeed(t *testing.T) {
	result, err := Run(context.Background(), batchConfig(5, 3))
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	for i, trajectory := range result.Trajectories {
		if trajectory.RunIndex != i {
			t.Fatalf("trajectory %d has run index %d", i, trajectory.RunIndex)
		}
		if trajectory.Seed != 100+int64(i) {
			t.Fatalf("trajectory %d has seed %d, want %d", i, trajectory.Seed, 100+int64(i))
		}
		if len(trajectory.Snapshots) != 8 {
			t.Fatalf("trajectory %d has %d snapshots, want 8", i, len(trajectory.Snapshots))
		}
	}
}

func TestSummaryCoversEveryStep(t *testing.T) {
	result, err := Run(context.Background(), batchConfig(4, 2))
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(result.Summary) != 8 {
		t.Fatalf("summary has %d rows, want 8", len(result.Summary))
	}
	for i, row := range result.Summary {
		if row.Year != 1985+float64(i) {
			t.Fatalf("summary row %d year = %v", i, row.Year)
		}
		if row.MeanPopulation <= 0 {
			t.Fatalf("summary row %d has non-positive population", i)
		}
		if row.PrevalenceP10 > row.MeanPrevalence || row.MeanPrevalence > row.PrevalenceP90 {
			t.Fatalf("summary row %d quantiles not bracketing mean: p10=%v mean=%v p90=%v",
				i, row.PrevalenceP10, row.MeanPrevalence, row.PrevalenceP90)
		}
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Run(ctx, batchConfig(4, 2)); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
