package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"hivsim/internal/storage"
	simapi "hivsim/pkg/hivsim"
)

const outDir = "out"

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "reset":
		return runReset(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "montecarlo":
		return runMonteCarlo(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "batches":
		return runBatches(ctx, args[1:])
	case "scenarios":
		return runScenarios(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "chart":
		return runChart(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return errors.New(msg + `

usage: hivsimctl <command> [flags]

commands:
  init        initialize the store backend
  reset       drop all persisted runs, snapshots, and batches
  run         execute one simulation run and persist it
  montecarlo  execute a Monte Carlo batch and persist its summary
  runs        list persisted runs
  batches     list persisted Monte Carlo batches
  scenarios   list the built-in scenario library
  export      write a run's snapshots or a batch's summary to CSV or JSON
  chart       render a run's trajectory or a batch's band to PNG`)
}

func storeFlags(fs *flag.FlagSet) (storeKind, dbPath *string) {
	storeKind = fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath = fs.String("db-path", "hivsim.db", "sqlite database path")
	return storeKind, dbPath
}

func newClient(storeKind, dbPath string) (*simapi.Client, error) {
	return simapi.New(simapi.Options{StoreKind: storeKind, DBPath: dbPath, OutDir: outDir})
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}
	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *storeKind == "sqlite" {
		if err := os.Remove(*dbPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}
	fmt.Printf("reset store=%s\n", *storeKind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run config JSON path")
	scenario := fs.String("scenario", "baseline", "scenario name")
	population := fs.Int("pop", 10000, "initial population size")
	years := fs.Int("years", 40, "simulated years")
	startYear := fs.Float64("start-year", 1985, "simulation start year")
	timeStep := fs.Float64("dt", 1.0, "time step in years")
	seed := fs.Int64("seed", 1, "rng seed")
	mixingName := fs.String("mixing", "binned", "partner mixing strategy: binned|naive")
	regions := fs.Int("regions", 10, "region count")
	prevalence := fs.Float64("prevalence", 0.008, "initial adult HIV prevalence")
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	req, err := loadOrDefaultRunRequest(*configPath)
	if err != nil {
		return err
	}
	if *configPath == "" {
		req = simapi.RunRequest{
			Scenario:          *scenario,
			Population:        *population,
			Years:             *years,
			StartYear:         *startYear,
			TimeStep:          *timeStep,
			Seed:              *seed,
			Mixing:            *mixingName,
			Regions:           *regions,
			InitialPrevalence: *prevalence,
		}
	} else {
		overrideFromFlags(&req, setFlags, map[string]any{
			"scenario":   *scenario,
			"pop":        *population,
			"years":      *years,
			"start-year": *startYear,
			"dt":         *timeStep,
			"seed":       *seed,
			"mixing":     *mixingName,
			"regions":    *regions,
			"prevalence": *prevalence,
		})
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}

	final := summary.FinalSnapshot
	fmt.Printf("run %s scenario=%s seed=%d steps=%d\n", summary.RunID, summary.Scenario, summary.Seed, summary.Steps)
	fmt.Printf("final year=%.0f population=%d prevalence=%.2f%% art-coverage=%.1f%%\n",
		summary.FinalYear, final.TotalPopulation, final.Prevalence15to49*100, final.ARTCoverage*100)
	fmt.Printf("peak prevalence=%.2f%% in %.0f\n", summary.PeakPrevalence*100, summary.PeakYear)
	return nil
}

func runMonteCarlo(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("montecarlo", flag.ContinueOnError)
	scenario := fs.String("scenario", "baseline", "scenario name")
	population := fs.Int("pop", 10000, "initial population size")
	years := fs.Int("years", 40, "simulated years")
	runs := fs.Int("runs", 20, "number of independent runs")
	workers := fs.Int("workers", 4, "worker count")
	baseSeed := fs.Int64("seed", 1, "base rng seed; run i uses seed+i")
	mixingName := fs.String("mixing", "binned", "partner mixing strategy: binned|naive")
	prevalence := fs.Float64("prevalence", 0.008, "initial adult HIV prevalence")
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}

	summary, err := client.MonteCarlo(ctx, simapi.MonteCarloRequest{
		Run: simapi.RunRequest{
			Scenario:          *scenario,
			Population:        *population,
			Years:             *years,
			Mixing:            *mixingName,
			InitialPrevalence: *prevalence,
		},
		Runs:     *runs,
		Workers:  *workers,
		BaseSeed: *baseSeed,
	})
	if err != nil {
		return err
	}

	fmt.Printf("batch %s scenario=%s runs=%d extinct=%d\n", summary.BatchID, *scenario, summary.Runs, summary.ExtinctRuns)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "year\tprev(mean)\tprev(p10)\tprev(p90)\tincidence\tart")
	for _, row := range summary.Summary {
		fmt.Fprintf(w, "%.0f\t%.3f%%\t%.3f%%\t%.3f%%\t%.2f\t%.1f%%\n",
			row.Year, row.MeanPrevalence*100, row.PrevalenceP10*100, row.PrevalenceP90*100,
			row.MeanIncidence, row.MeanARTCoverage*100)
	}
	return w.Flush()
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "maximum runs to list")
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}

	items, err := client.Runs(ctx, simapi.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("no persisted runs")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "run\tcreated\tscenario\tseed\tpop\tyears\tmixing")
	for _, item := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.0f-%.0f\t%s\n",
			item.RunID, item.CreatedAtUTC, item.Scenario, item.Seed,
			item.PopulationSize, item.StartYear, item.EndYear, item.Mixing)
	}
	return w.Flush()
}

func runBatches(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("batches", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "maximum batches to list")
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}

	items, err := client.Batches(ctx, simapi.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("no persisted batches")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "batch\tcreated\tscenario\tseed\truns\tpop\tyears")
	for _, item := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%.0f-%.0f\n",
			item.BatchID, item.CreatedAtUTC, item.Scenario, item.BaseSeed,
			item.Runs, item.PopulationSize, item.StartYear, item.EndYear)
	}
	return w.Flush()
}

func runScenarios(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("scenarios", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient("memory", "")
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "name\tdescription")
	for _, item := range client.Scenarios() {
		fmt.Fprintf(w, "%s\t%s\n", item.Name, item.Description)
	}
	return w.Flush()
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id to export")
	batchID := fs.String("batch-id", "", "batch id to export instead of a run")
	latest := fs.Bool("latest", false, "export the most recent run (or batch)")
	format := fs.String("format", "csv", "output format: csv|json")
	stratified := fs.Bool("stratified", false, "export the run's final stratified view (JSON)")
	out := fs.String("out", outDir, "output directory")
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}

	if *batchID != "" {
		summary, err := client.ExportBatch(ctx, simapi.BatchExportRequest{
			BatchID: *batchID,
			Format:  *format,
			OutDir:  *out,
		})
		if err != nil {
			return err
		}
		fmt.Printf("exported batch %s to %s\n", summary.BatchID, summary.Path)
		return nil
	}

	summary, err := client.Export(ctx, simapi.ExportRequest{
		RunID:      *runID,
		Latest:     *latest,
		Format:     *format,
		OutDir:     *out,
		Stratified: *stratified,
	})
	if err != nil {
		return err
	}
	fmt.Printf("exported run %s to %s\n", summary.RunID, summary.Path)
	return nil
}

func runChart(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("chart", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id to chart")
	batchID := fs.String("batch-id", "", "batch id to chart instead of a run")
	latest := fs.Bool("latest", false, "chart the most recent run")
	out := fs.String("out", outDir, "output directory")
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}

	if *batchID != "" {
		summary, err := client.ChartBatch(ctx, simapi.BatchExportRequest{
			BatchID: *batchID,
			OutDir:  *out,
		})
		if err != nil {
			return err
		}
		fmt.Printf("charted batch %s to %s\n", summary.BatchID, summary.Path)
		return nil
	}

	summary, err := client.Chart(ctx, simapi.ChartRequest{
		RunID:  *runID,
		Latest: *latest,
		OutDir: *out,
	})
	if err != nil {
		return err
	}
	fmt.Printf("charted run %s to %s\n", summary.RunID, summary.Path)
	return nil
}
