package engine

import (
	"fmt"

	"hivsim/internal/model"
)

func safeRatio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func (e *Engine) aggregate(year, dt float64, births, newInfections, mtctInfections, hivDeaths, naturalDeaths int) model.IndicatorSnapshot {
	var total, adults, hiv, diagnosed, onART, suppressed int
	var adults1549, hiv1549, susceptible1549 int
	for _, ind := range e.pop {
		if !ind.Alive {
			continue
		}
		total++
		if ind.Age >= 15 {
			adults++
		}
		inBand := ind.Age >= 15 && ind.Age < 50
		if inBand {
			adults1549++
		}
		if ind.Infected() {
			hiv++
			if inBand {
				hiv1549++
			}
			if ind.Cascade.Diagnosed {
				diagnosed++
			}
			if ind.Cascade.OnART {
				onART++
			}
			if ind.Cascade.Suppressed {
				suppressed++
			}
		} else if inBand {
			susceptible1549++
		}
	}

	incidence := 0.0
	if susceptible1549 > 0 && dt > 0 {
		incidence = float64(newInfections) / (float64(susceptible1549) * dt) * 1000
	}

	return model.IndicatorSnapshot{
		Year:                 year,
		TotalPopulation:      total,
		AliveAdults:          adults,
		HIVPositive:          hiv,
		Diagnosed:            diagnosed,
		OnART:                onART,
		Suppressed:           suppressed,
		Births:               births,
		NewInfections:        newInfections,
		MTCTInfections:       mtctInfections,
		CumulativeInfections: e.cumulativeInfections,
		HIVDeaths:            hivDeaths,
		NaturalDeaths:        naturalDeaths,
		Prevalence15to49:     safeRatio(hiv1549, adults1549),
		IncidencePer1000:     incidence,
		DiagnosedCoverage:    safeRatio(diagnosed, hiv),
		ARTCoverage:          safeRatio(onART, diagnosed),
		SuppressionCoverage:  safeRatio(suppressed, onART),
	}
}

// stratAgeBands are the fixed reporting age bands.
var stratAgeBands = []struct {
	key    string
	lo, hi float64
}{
	{"0-14", 0, 15},
	{"15-24", 15, 25},
	{"25-34", 25, 35},
	{"35-44", 35, 45},
	{"45-54", 45, 55},
	{"55+", 55, 200},
}

// Stratified returns the last step's snapshot extended with the fixed
// breakdown views, computed on demand from the authoritative population.
func (e *Engine) Stratified() model.StratifiedSnapshot {
	stepYear := e.lastSnapshot.Year

	byAge := make([]model.StratumMetrics, len(stratAgeBands))
	for i, band := range stratAgeBands {
		byAge[i].Key = band.key
	}
	bySex := []model.StratumMetrics{{Key: "male"}, {Key: "female"}}
	byRegion := make([]model.StratumMetrics, e.cfg.Regions)
	for i := range byRegion {
		byRegion[i].Key = fmt.Sprintf("region-%d", i)
	}

	accumulate := func(m *model.StratumMetrics, ind *model.Individual) {
		m.Population++
		if ind.Infected() {
			m.HIVPositive++
			if ind.Cascade.OnART {
				m.OnART++
			}
			if ind.InfectionYear == stepYear {
				m.NewInfections++
			}
		}
	}

	for _, ind := range e.pop {
		if !ind.Alive {
			continue
		}
		for i, band := range stratAgeBands {
			if ind.Age >= band.lo && ind.Age < band.hi {
				accumulate(&byAge[i], ind)
				break
			}
		}
		accumulate(&bySex[ind.Sex], ind)
		if ind.Region >= 0 && ind.Region < len(byRegion) {
			accumulate(&byRegion[ind.Region], ind)
		}
	}

	finish := func(metrics []model.StratumMetrics) {
		for i := range metrics {
			metrics[i].Prevalence = safeRatio(metrics[i].HIVPositive, metrics[i].Population)
		}
	}
	finish(byAge)
	finish(bySex)
	finish(byRegion)

	return model.StratifiedSnapshot{
		IndicatorSnapshot: e.lastSnapshot,
		ByAgeBand:         byAge,
		BySex:             bySex,
		ByRegion:          byRegion,
	}
}
