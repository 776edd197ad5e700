package plot

import (
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"

	"hivsim/internal/model"
)

// RenderPrevalencePNG draws the adult prevalence trajectory of one run.
func RenderPrevalencePNG(w io.Writer, snapshots []model.IndicatorSnapshot) error {
	if len(snapshots) == 0 {
		return fmt.Errorf("no snapshots to plot")
	}
	years := make([]float64, len(snapshots))
	prevalence := make([]float64, len(snapshots))
	incidence := make([]float64, len(snapshots))
	for i, snap := range snapshots {
		years[i] = snap.Year
		prevalence[i] = snap.Prevalence15to49 * 100
		incidence[i] = snap.IncidencePer1000
	}

	graph := chart.Chart{
		Title: "HIV epidemic trajectory",
		XAxis: chart.XAxis{Name: "Year"},
		YAxis: chart.YAxis{Name: "Prevalence 15-49 (%)"},
		YAxisSecondary: chart.YAxis{
			Name: "Incidence per 1,000",
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "prevalence 15-49 (%)",
				XValues: years,
				YValues: prevalence,
			},
			chart.ContinuousSeries{
				Name:    "incidence per 1,000",
				YAxis:   chart.YAxisSecondary,
				XValues: years,
				YValues: incidence,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return graph.Render(chart.PNG, w)
}

// RenderSummaryPNG draws the Monte Carlo mean prevalence with its
// empirical 10th-90th percentile band.
func RenderSummaryPNG(w io.Writer, summary []model.BatchYearSummary) error {
	if len(summary) == 0 {
		return fmt.Errorf("no summary to plot")
	}
	years := make([]float64, len(summary))
	mean := make([]float64, len(summary))
	p10 := make([]float64, len(summary))
	p90 := make([]float64, len(summary))
	for i, row := range summary {
		years[i] = row.Year
		mean[i] = row.MeanPrevalence * 100
		p10[i] = row.PrevalenceP10 * 100
		p90[i] = row.PrevalenceP90 * 100
	}

	graph := chart.Chart{
		Title: "Prevalence across Monte Carlo runs",
		XAxis: chart.XAxis{Name: "Year"},
		YAxis: chart.YAxis{Name: "Prevalence 15-49 (%)"},
		Series: []chart.Series{
			chart.ContinuousSeries{Name: "p90", XValues: years, YValues: p90},
			chart.ContinuousSeries{Name: "mean", XValues: years, YValues: mean},
			chart.ContinuousSeries{Name: "p10", XValues: years, YValues: p10},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return graph.Render(chart.PNG, w)
}
