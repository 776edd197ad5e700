package hivsim

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"hivsim/internal/engine"
	"hivsim/internal/export"
	"hivsim/internal/mixing"
	"hivsim/internal/model"
	"hivsim/internal/montecarlo"
	"hivsim/internal/params"
	"hivsim/internal/plot"
	"hivsim/internal/storage"
)

const (
	defaultOutDir = "out"
	defaultDBPath = "hivsim.db"
)

type Options struct {
	StoreKind string
	DBPath    string
	OutDir    string
}

type Client struct {
	store       storage.Store
	outDir      string
	initialized bool
}

type RunRequest struct {
	Scenario          string
	Population        int
	Years             int
	StartYear         float64
	TimeStep          float64
	Seed              int64
	Mixing            string
	Regions           int
	InitialPrevalence float64
}

type RunSummary struct {
	RunID           string
	Scenario        string
	Seed            int64
	Steps           int
	FinalYear       float64
	FinalSnapshot   model.IndicatorSnapshot
	FinalStratified model.StratifiedSnapshot
	PeakPrevalence  float64
	PeakYear        float64
}

type MonteCarloRequest struct {
	Run      RunRequest
	Runs     int
	Workers  int
	BaseSeed int64
}

type MonteCarloSummary struct {
	BatchID     string
	Runs        int
	ExtinctRuns int
	Summary     []model.BatchYearSummary
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID          string
	CreatedAtUTC   string
	Scenario       string
	Seed           int64
	PopulationSize int
	StartYear      float64
	EndYear        float64
	Mixing         string
}

type ExportRequest struct {
	RunID  string
	Latest bool
	Format string
	OutDir string
	// Stratified exports the run's end-of-run breakdown view (always JSON)
	// instead of the snapshot series.
	Stratified bool
}

type ExportSummary struct {
	RunID string
	Path  string
}

type ChartRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ChartSummary struct {
	RunID string
	Path  string
}

type BatchItem struct {
	BatchID        string
	CreatedAtUTC   string
	Scenario       string
	BaseSeed       int64
	Runs           int
	PopulationSize int
	StartYear      float64
	EndYear        float64
}

type BatchExportRequest struct {
	BatchID string
	Latest  bool
	Format  string
	OutDir  string
}

type BatchExportSummary struct {
	BatchID string
	Path    string
}

type ScenarioItem struct {
	Name        string
	Description string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	outDir := opts.OutDir
	if outDir == "" {
		outDir = defaultOutDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{store: store, outDir: outDir}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

// ensureStore lazily initializes the backing store so library callers can
// skip the explicit Init step. Init stays idempotent from the client's view.
func (c *Client) ensureStore(ctx context.Context) error {
	if c.initialized {
		return nil
	}
	return c.Init(ctx)
}

// Scenarios lists the built-in scenario library.
func (c *Client) Scenarios() []ScenarioItem {
	names := params.ScenarioNames()
	items := make([]ScenarioItem, 0, len(names))
	for _, name := range names {
		scenario, err := params.LookupScenario(name)
		if err != nil {
			continue
		}
		items = append(items, ScenarioItem{Name: scenario.Name, Description: scenario.Description})
	}
	return items
}

func fillRunDefaults(req RunRequest) RunRequest {
	if req.Population <= 0 {
		req.Population = 10000
	}
	if req.Years <= 0 {
		req.Years = 40
	}
	if req.StartYear == 0 {
		req.StartYear = 1985
	}
	if req.TimeStep <= 0 {
		req.TimeStep = 1.0
	}
	if req.Mixing == "" {
		req.Mixing = "binned"
	}
	if req.Regions <= 0 {
		req.Regions = 10
	}
	if req.InitialPrevalence <= 0 {
		req.InitialPrevalence = 0.008
	}
	return req
}

func engineConfig(req RunRequest) engine.Config {
	return engine.Config{
		PopulationSize:    req.Population,
		StartYear:         req.StartYear,
		TimeStep:          req.TimeStep,
		Seed:              req.Seed,
		Scenario:          req.Scenario,
		Mixing:            req.Mixing,
		MixingConfig:      mixing.DefaultConfig(),
		Regions:           req.Regions,
		InitialPrevalence: req.InitialPrevalence,
	}
}

// Run executes one simulation to completion and persists the run record
// together with its full snapshot series.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if err := c.ensureStore(ctx); err != nil {
		return RunSummary{}, err
	}

	req = fillRunDefaults(req)

	eng, err := engine.New(engineConfig(req))
	if err != nil {
		return RunSummary{}, err
	}
	defer eng.Finalize()

	steps := int(float64(req.Years)/req.TimeStep + 0.5)
	snapshots := make([]model.IndicatorSnapshot, 0, steps)
	for s := 0; s < steps; s++ {
		if err := ctx.Err(); err != nil {
			return RunSummary{}, err
		}
		year := req.StartYear + float64(s)*req.TimeStep
		snapshot, err := eng.Step(year, req.TimeStep)
		if err != nil {
			return RunSummary{}, err
		}
		snapshots = append(snapshots, snapshot)
	}

	stratified := eng.Stratified()

	runID := uuid.NewString()
	record := model.RunRecord{
		ID:              runID,
		Scenario:        scenarioOrBaseline(req.Scenario),
		Seed:            req.Seed,
		PopulationSize:  req.Population,
		StartYear:       req.StartYear,
		EndYear:         req.StartYear + float64(req.Years),
		TimeStep:        req.TimeStep,
		Mixing:          req.Mixing,
		CreatedAtUTC:    time.Now().UTC().Format(time.RFC3339),
		FinalStratified: &stratified,
	}
	storage.Stamp(&record.VersionedRecord)
	if err := c.store.SaveRun(ctx, record); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveSnapshots(ctx, runID, snapshots); err != nil {
		return RunSummary{}, err
	}

	summary := RunSummary{
		RunID:           runID,
		Scenario:        record.Scenario,
		Seed:            req.Seed,
		Steps:           len(snapshots),
		FinalStratified: stratified,
	}
	if len(snapshots) > 0 {
		last := snapshots[len(snapshots)-1]
		summary.FinalYear = last.Year
		summary.FinalSnapshot = last
		for _, snap := range snapshots {
			if snap.Prevalence15to49 > summary.PeakPrevalence {
				summary.PeakPrevalence = snap.Prevalence15to49
				summary.PeakYear = snap.Year
			}
		}
	}
	return summary, nil
}

// MonteCarlo executes a batch of independent runs and persists the
// cross-run summary as a batch record. Individual trajectories are kept
// in memory only.
func (c *Client) MonteCarlo(ctx context.Context, req MonteCarloRequest) (MonteCarloSummary, error) {
	if err := c.ensureStore(ctx); err != nil {
		return MonteCarloSummary{}, err
	}

	req.Run = fillRunDefaults(req.Run)
	if req.Runs <= 0 {
		req.Runs = 20
	}
	if req.Workers <= 0 {
		req.Workers = 4
	}

	result, err := montecarlo.Run(ctx, montecarlo.Config{
		Runs:     req.Runs,
		Workers:  req.Workers,
		BaseSeed: req.BaseSeed,
		Years:    req.Run.Years,
		Engine:   engineConfig(req.Run),
	})
	if err != nil {
		return MonteCarloSummary{}, err
	}

	batchID := uuid.NewString()
	record := model.BatchRecord{
		ID:             batchID,
		Scenario:       scenarioOrBaseline(req.Run.Scenario),
		BaseSeed:       req.BaseSeed,
		Runs:           req.Runs,
		PopulationSize: req.Run.Population,
		StartYear:      req.Run.StartYear,
		EndYear:        req.Run.StartYear + float64(req.Run.Years),
		CreatedAtUTC:   time.Now().UTC().Format(time.RFC3339),
		Summary:        result.Summary,
	}
	storage.Stamp(&record.VersionedRecord)
	if err := c.store.SaveBatch(ctx, record); err != nil {
		return MonteCarloSummary{}, err
	}

	return MonteCarloSummary{
		BatchID:     batchID,
		Runs:        req.Runs,
		ExtinctRuns: result.ExtinctRuns,
		Summary:     result.Summary,
	}, nil
}

// Runs lists persisted runs, newest first.
func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}

	records, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	if req.Limit > 0 && len(records) > req.Limit {
		records = records[:req.Limit]
	}
	items := make([]RunItem, 0, len(records))
	for _, record := range records {
		items = append(items, RunItem{
			RunID:          record.ID,
			CreatedAtUTC:   record.CreatedAtUTC,
			Scenario:       record.Scenario,
			Seed:           record.Seed,
			PopulationSize: record.PopulationSize,
			StartYear:      record.StartYear,
			EndYear:        record.EndYear,
			Mixing:         record.Mixing,
		})
	}
	return items, nil
}

// Batches lists persisted Monte Carlo batches, newest first.
func (c *Client) Batches(ctx context.Context, req RunsRequest) ([]BatchItem, error) {
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}

	records, err := c.store.ListBatches(ctx)
	if err != nil {
		return nil, err
	}
	if req.Limit > 0 && len(records) > req.Limit {
		records = records[:req.Limit]
	}
	items := make([]BatchItem, 0, len(records))
	for _, record := range records {
		items = append(items, BatchItem{
			BatchID:        record.ID,
			CreatedAtUTC:   record.CreatedAtUTC,
			Scenario:       record.Scenario,
			BaseSeed:       record.BaseSeed,
			Runs:           record.Runs,
			PopulationSize: record.PopulationSize,
			StartYear:      record.StartYear,
			EndYear:        record.EndYear,
		})
	}
	return items, nil
}

// ExportBatch writes one persisted batch's summary series to disk as CSV
// or JSON.
func (c *Client) ExportBatch(ctx context.Context, req BatchExportRequest) (BatchExportSummary, error) {
	if err := c.ensureStore(ctx); err != nil {
		return BatchExportSummary{}, err
	}

	batch, err := c.resolveBatch(ctx, req.BatchID, req.Latest)
	if err != nil {
		return BatchExportSummary{}, err
	}

	format := req.Format
	if format == "" {
		format = "csv"
	}
	outDir := req.OutDir
	if outDir == "" {
		outDir = c.outDir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return BatchExportSummary{}, err
	}

	path := filepath.Join(outDir, fmt.Sprintf("batch-%s.%s", batch.ID, format))
	f, err := os.Create(path)
	if err != nil {
		return BatchExportSummary{}, err
	}
	defer f.Close()

	switch format {
	case "csv":
		err = export.WriteSummaryCSV(f, batch.Summary)
	case "json":
		err = export.WriteSummaryJSON(f, batch.Summary)
	default:
		err = fmt.Errorf("unsupported export format: %s", format)
	}
	if err != nil {
		return BatchExportSummary{}, err
	}
	return BatchExportSummary{BatchID: batch.ID, Path: path}, nil
}

// ChartBatch renders one persisted batch's prevalence band to a PNG.
func (c *Client) ChartBatch(ctx context.Context, req BatchExportRequest) (BatchExportSummary, error) {
	if err := c.ensureStore(ctx); err != nil {
		return BatchExportSummary{}, err
	}

	batch, err := c.resolveBatch(ctx, req.BatchID, req.Latest)
	if err != nil {
		return BatchExportSummary{}, err
	}

	outDir := req.OutDir
	if outDir == "" {
		outDir = c.outDir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return BatchExportSummary{}, err
	}

	path := filepath.Join(outDir, fmt.Sprintf("batch-%s.png", batch.ID))
	f, err := os.Create(path)
	if err != nil {
		return BatchExportSummary{}, err
	}
	defer f.Close()

	if err := plot.RenderSummaryPNG(f, batch.Summary); err != nil {
		return BatchExportSummary{}, err
	}
	return BatchExportSummary{BatchID: batch.ID, Path: path}, nil
}

// Export writes one persisted run's snapshot series to disk as CSV or
// JSON, or its end-of-run stratified view when requested.
func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	if err := c.ensureStore(ctx); err != nil {
		return ExportSummary{}, err
	}

	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return ExportSummary{}, err
	}

	outDir := req.OutDir
	if outDir == "" {
		outDir = c.outDir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return ExportSummary{}, err
	}

	if req.Stratified {
		return c.exportStratified(ctx, runID, outDir)
	}

	snapshots, ok, err := c.store.GetSnapshots(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}
	if !ok {
		return ExportSummary{}, fmt.Errorf("no snapshots for run %s", runID)
	}

	format := req.Format
	if format == "" {
		format = "csv"
	}

	path := filepath.Join(outDir, fmt.Sprintf("run-%s.%s", runID, format))
	f, err := os.Create(path)
	if err != nil {
		return ExportSummary{}, err
	}
	defer f.Close()

	switch format {
	case "csv":
		err = export.WriteSnapshotsCSV(f, snapshots)
	case "json":
		err = export.WriteSnapshotsJSON(f, snapshots)
	default:
		err = fmt.Errorf("unsupported export format: %s", format)
	}
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Path: path}, nil
}

func (c *Client) exportStratified(ctx context.Context, runID, outDir string) (ExportSummary, error) {
	record, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}
	if !ok || record.FinalStratified == nil {
		return ExportSummary{}, fmt.Errorf("no stratified view for run %s", runID)
	}

	path := filepath.Join(outDir, fmt.Sprintf("run-%s-stratified.json", runID))
	f, err := os.Create(path)
	if err != nil {
		return ExportSummary{}, err
	}
	defer f.Close()

	if err := export.WriteStratifiedJSON(f, *record.FinalStratified); err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Path: path}, nil
}

// Chart renders one persisted run's trajectory to a PNG.
func (c *Client) Chart(ctx context.Context, req ChartRequest) (ChartSummary, error) {
	if err := c.ensureStore(ctx); err != nil {
		return ChartSummary{}, err
	}

	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return ChartSummary{}, err
	}
	snapshots, ok, err := c.store.GetSnapshots(ctx, runID)
	if err != nil {
		return ChartSummary{}, err
	}
	if !ok {
		return ChartSummary{}, fmt.Errorf("no snapshots for run %s", runID)
	}

	outDir := req.OutDir
	if outDir == "" {
		outDir = c.outDir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return ChartSummary{}, err
	}

	path := filepath.Join(outDir, fmt.Sprintf("run-%s.png", runID))
	f, err := os.Create(path)
	if err != nil {
		return ChartSummary{}, err
	}
	defer f.Close()

	if err := plot.RenderPrevalencePNG(f, snapshots); err != nil {
		return ChartSummary{}, err
	}
	return ChartSummary{RunID: runID, Path: path}, nil
}

func (c *Client) resolveRunID(ctx context.Context, runID string, latest bool) (string, error) {
	if runID != "" {
		return runID, nil
	}
	if !latest {
		return "", fmt.Errorf("run id required (or request the latest run)")
	}
	records, err := c.store.ListRuns(ctx)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", fmt.Errorf("no persisted runs")
	}
	return records[0].ID, nil
}

func (c *Client) resolveBatch(ctx context.Context, batchID string, latest bool) (model.BatchRecord, error) {
	if batchID != "" {
		batch, ok, err := c.store.GetBatch(ctx, batchID)
		if err != nil {
			return model.BatchRecord{}, err
		}
		if !ok {
			return model.BatchRecord{}, fmt.Errorf("no batch %s", batchID)
		}
		return batch, nil
	}
	if !latest {
		return model.BatchRecord{}, fmt.Errorf("batch id required (or request the latest batch)")
	}
	records, err := c.store.ListBatches(ctx)
	if err != nil {
		return model.BatchRecord{}, err
	}
	if len(records) == 0 {
		return model.BatchRecord{}, fmt.Errorf("no persisted batches")
	}
	return records[0], nil
}

func scenarioOrBaseline(name string) string {
	if name == "" {
		return "baseline"
	}
	return name
}
