package storage

import (
	"context"

	"hivsim/internal/model"
)

// Store persists simulation runs, their per-step snapshot series, and
// Monte Carlo batch summaries.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveSnapshots(ctx context.Context, runID string, snapshots []model.IndicatorSnapshot) error
	GetSnapshots(ctx context.Context, runID string) ([]model.IndicatorSnapshot, bool, error)
	SaveBatch(ctx context.Context, batch model.BatchRecord) error
	GetBatch(ctx context.Context, id string) (model.BatchRecord, bool, error)
	ListBatches(ctx context.Context) ([]model.BatchRecord, error)
}
