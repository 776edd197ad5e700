package montecarlo

import (
	"context"
	"fmt"
	"sync"

	"hivsim/internal/engine"
	"hivsim/internal/model"
)

// Config describes a batch of independent simulation runs. Runs share no
// mutable state: each owns its engine and a seed derived from BaseSeed
// plus the run index.
type Config struct {
	Runs     int
	Workers  int
	BaseSeed int64
	Years    int
	Engine   engine.Config
}

// RunTrajectory is one run's full snapshot series.
type RunTrajectory struct {
	RunIndex  int                       `json:"run_index"`
	Seed      int64                     `json:"seed"`
	Extinct   bool                      `json:"extinct"`
	Snapshots []model.IndicatorSnapshot `json:"snapshots"`
}

// Result aggregates a Monte Carlo batch. Stochastic extinction is reported
// as a scenario outcome, never as an engine fault.
type Result struct {
	Trajectories []RunTrajectory          `json:"trajectories"`
	Summary      []model.BatchYearSummary `json:"summary"`
	ExtinctRuns  int                      `json:"extinct_runs"`
}

// Run fans the batch out over a worker pool and collects per-run
// trajectories in run order.
func Run(ctx context.Context, cfg Config) (Result, error) {
	if cfg.Runs <= 0 {
		return Result{}, fmt.Errorf("runs must be > 0: %d", cfg.Runs)
	}
	if cfg.Years <= 0 {
		return Result{}, fmt.Errorf("years must be > 0: %d", cfg.Years)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	type job struct {
		idx int
	}
	type result struct {
		idx        int
		trajectory RunTrajectory
		err        error
	}

	jobs := make(chan job)
	results := make(chan result, cfg.Runs)

	workerCount := cfg.Workers
	if workerCount > cfg.Runs {
		workerCount = cfg.Runs
	}

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for w := 0; w < workerCount; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := ctx.Err(); err != nil {
					results <- result{idx: j.idx, err: err}
					continue
				}
				trajectory, err := runOne(ctx, cfg, j.idx)
				results <- result{idx: j.idx, trajectory: trajectory, err: err}
			}
		}()
	}

	for i := 0; i < cfg.Runs; i++ {
		jobs <- job{idx: i}
	}
	close(jobs)

	wg.Wait()
	close(results)

	trajectories := make([]RunTrajectory, cfg.Runs)
	for res := range results {
		if res.err != nil {
			return Result{}, fmt.Errorf("run %d: %w", res.idx, res.err)
		}
		trajectories[res.idx] = res.trajectory
	}

	extinct := 0
	for _, t := range trajectories {
		if t.Extinct {
			extinct++
		}
	}

	return Result{
		Trajectories: trajectories,
		Summary:      summarize(trajectories),
		ExtinctRuns:  extinct,
	}, nil
}

func runOne(ctx context.Context, cfg Config, idx int) (RunTrajectory, error) {
	engineCfg := cfg.Engine
	engineCfg.Seed = cfg.BaseSeed + int64(idx)
	eng, err := engine.New(engineCfg)
	if err != nil {
		return RunTrajectory{}, err
	}
	defer eng.Finalize()

	dt := engineCfg.TimeStep
	if dt <= 0 {
		dt = 1.0
	}
	startYear := engineCfg.StartYear
	if startYear == 0 {
		startYear = 1985
	}
	steps := int(float64(cfg.Years)/dt + 0.5)

	trajectory := RunTrajectory{
		RunIndex:  idx,
		Seed:      engineCfg.Seed,
		Snapshots: make([]model.IndicatorSnapshot, 0, steps),
	}
	for s := 0; s < steps; s++ {
		// Cancellation granularity is between steps, never within one.
		if err := ctx.Err(); err != nil {
			return RunTrajectory{}, err
		}
		year := startYear + float64(s)*dt
		snapshot, err := eng.Step(year, dt)
		if err != nil {
			return RunTrajectory{}, err
		}
		if snapshot.HIVPositive == 0 {
			trajectory.Extinct = true
		}
		trajectory.Snapshots = append(trajectory.Snapshots, snapshot)
	}
	return trajectory, nil
}
