package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"hivsim/internal/model"
)

var snapshotHeader = []string{
	"year",
	"total_population",
	"alive_adults",
	"hiv_positive",
	"diagnosed",
	"on_art",
	"suppressed",
	"births",
	"new_infections",
	"mtct_infections",
	"cumulative_infections",
	"hiv_deaths",
	"natural_deaths",
	"prevalence_15_49",
	"incidence_per_1000",
	"diagnosed_coverage",
	"art_coverage",
	"suppression_coverage",
}

// WriteSnapshotsCSV writes one row per step.
func WriteSnapshotsCSV(w io.Writer, snapshots []model.IndicatorSnapshot) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(snapshotHeader); err != nil {
		return fmt.Errorf("write snapshot csv header: %w", err)
	}
	for i, snap := range snapshots {
		row := []string{
			formatFloat(snap.Year),
			strconv.Itoa(snap.TotalPopulation),
			strconv.Itoa(snap.AliveAdults),
			strconv.Itoa(snap.HIVPositive),
			strconv.Itoa(snap.Diagnosed),
			strconv.Itoa(snap.OnART),
			strconv.Itoa(snap.Suppressed),
			strconv.Itoa(snap.Births),
			strconv.Itoa(snap.NewInfections),
			strconv.Itoa(snap.MTCTInfections),
			strconv.Itoa(snap.CumulativeInfections),
			strconv.Itoa(snap.HIVDeaths),
			strconv.Itoa(snap.NaturalDeaths),
			formatFloat(snap.Prevalence15to49),
			formatFloat(snap.IncidencePer1000),
			formatFloat(snap.DiagnosedCoverage),
			formatFloat(snap.ARTCoverage),
			formatFloat(snap.SuppressionCoverage),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write snapshot csv row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteSnapshotsJSON writes the full snapshot series as indented JSON.
func WriteSnapshotsJSON(w io.Writer, snapshots []model.IndicatorSnapshot) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(snapshots)
}

// WriteStratifiedJSON writes one stratified snapshot as indented JSON.
func WriteStratifiedJSON(w io.Writer, snapshot model.StratifiedSnapshot) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(snapshot)
}

var summaryHeader = []string{
	"year",
	"mean_population",
	"mean_prevalence",
	"prevalence_stddev",
	"prevalence_p10",
	"prevalence_p90",
	"mean_new_infections",
	"mean_incidence_per_1000",
	"mean_art_coverage",
	"mean_hiv_deaths",
	"runs_extinct_by_here",
}

// WriteSummaryCSV writes the cross-run Monte Carlo summary.
func WriteSummaryCSV(w io.Writer, summary []model.BatchYearSummary) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(summaryHeader); err != nil {
		return fmt.Errorf("write summary csv header: %w", err)
	}
	for i, row := range summary {
		record := []string{
			formatFloat(row.Year),
			formatFloat(row.MeanPopulation),
			formatFloat(row.MeanPrevalence),
			formatFloat(row.PrevalenceStdDev),
			formatFloat(row.PrevalenceP10),
			formatFloat(row.PrevalenceP90),
			formatFloat(row.MeanNewInfections),
			formatFloat(row.MeanIncidence),
			formatFloat(row.MeanARTCoverage),
			formatFloat(row.MeanHIVDeaths),
			strconv.Itoa(row.RunsExtinctByHere),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write summary csv row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteSummaryJSON writes the cross-run Monte Carlo summary as a JSON array.
func WriteSummaryJSON(w io.Writer, summary []model.BatchYearSummary) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(summary)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
