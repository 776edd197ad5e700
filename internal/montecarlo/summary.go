package montecarlo

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"hivsim/internal/model"
)

func summarize(trajectories []RunTrajectory) []model.BatchYearSummary {
	if len(trajectories) == 0 || len(trajectories[0].Snapshots) == 0 {
		return nil
	}
	steps := len(trajectories[0].Snapshots)
	summaries := make([]model.BatchYearSummary, 0, steps)

	population := make([]float64, 0, len(trajectories))
	prevalence := make([]float64, 0, len(trajectories))
	newInfections := make([]float64, 0, len(trajectories))
	incidence := make([]float64, 0, len(trajectories))
	artCoverage := make([]float64, 0, len(trajectories))
	hivDeaths := make([]float64, 0, len(trajectories))

	for s := 0; s < steps; s++ {
		population = population[:0]
		prevalence = prevalence[:0]
		newInfections = newInfections[:0]
		incidence = incidence[:0]
		artCoverage = artCoverage[:0]
		hivDeaths = hivDeaths[:0]
		extinct := 0

		for _, t := range trajectories {
			if s >= len(t.Snapshots) {
				continue
			}
			snap := t.Snapshots[s]
			population = append(population, float64(snap.TotalPopulation))
			prevalence = append(prevalence, snap.Prevalence15to49)
			newInfections = append(newInfections, float64(snap.NewInfections))
			incidence = append(incidence, snap.IncidencePer1000)
			artCoverage = append(artCoverage, snap.ARTCoverage)
			hivDeaths = append(hivDeaths, float64(snap.HIVDeaths))
			if snap.HIVPositive == 0 {
				extinct++
			}
		}

		sorted := append([]float64(nil), prevalence...)
		sort.Float64s(sorted)

		stddev := 0.0
		if len(prevalence) > 1 {
			stddev = stat.StdDev(prevalence, nil)
		}

		summaries = append(summaries, model.BatchYearSummary{
			Year:              trajectories[0].Snapshots[s].Year,
			MeanPopulation:    stat.Mean(population, nil),
			MeanPrevalence:    stat.Mean(prevalence, nil),
			PrevalenceStdDev:  stddev,
			PrevalenceP10:     stat.Quantile(0.10, stat.Empirical, sorted, nil),
			PrevalenceP90:     stat.Quantile(0.90, stat.Empirical, sorted, nil),
			MeanNewInfections: stat.Mean(newInfections, nil),
			MeanIncidence:     stat.Mean(incidence, nil),
			MeanARTCoverage:   stat.Mean(artCoverage, nil),
			MeanHIVDeaths:     stat.Mean(hivDeaths, nil),
			RunsExtinctByHere: extinct,
		})
	}
	return summaries
}
