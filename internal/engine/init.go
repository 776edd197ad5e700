package engine

import (
	"hivsim/internal/agent"
	"hivsim/internal/model"
)

// agePyramid is the empirical initial age distribution: band weights sum
// to 1, ages drawn uniformly within the sampled band.
var agePyramid = []struct {
	minAge, maxAge, weight float64
}{
	{0, 5, 0.165},
	{5, 10, 0.140},
	{10, 15, 0.125},
	{15, 20, 0.105},
	{20, 25, 0.090},
	{25, 30, 0.080},
	{30, 35, 0.070},
	{35, 40, 0.060},
	{40, 45, 0.050},
	{45, 50, 0.040},
	{50, 55, 0.030},
	{55, 60, 0.020},
	{60, 70, 0.015},
	{70, 80, 0.007},
	{80, 90, 0.003},
}

var riskWeights = []float64{0.75, 0.20, 0.05}

// meanContactRate is the mean sexual contact rate (acts/year) by risk group.
var meanContactRate = [3]float64{25, 60, 150}

// regionPrevalenceProfile spreads the national seed prevalence unevenly
// across regions when no explicit regional override is configured.
var regionPrevalenceProfile = []float64{1.4, 1.2, 1.1, 1.0, 1.0, 0.9, 0.9, 0.8, 0.7, 0.6}

func (e *Engine) initPopulation() {
	e.pop = make([]*model.Individual, 0, e.cfg.PopulationSize*2)
	pyramidWeights := make([]float64, len(agePyramid))
	for i, band := range agePyramid {
		pyramidWeights[i] = band.weight
	}

	for i := 0; i < e.cfg.PopulationSize; i++ {
		ind := e.newIndividual()
		band := agePyramid[e.rng.Multinomial(pyramidWeights)]
		ind.Age = e.rng.UniformRange(band.minAge, band.maxAge)
		ind.Region = e.rng.IntN(e.cfg.Regions)

		if ind.Age >= 15 && ind.Age < 50 {
			prev := e.seedPrevalence(ind.Region)
			if e.rng.Bernoulli(prev) {
				e.seedInfection(ind)
			}
		}
		e.pop = append(e.pop, ind)
	}
}

// newIndividual creates an agent with demographic and behavioral draws
// shared by initialization and birth events. Age and region are set by the
// caller.
func (e *Engine) newIndividual() *model.Individual {
	ind := &model.Individual{
		ID:    e.nextID,
		Alive: true,
		Stage: model.StageSusceptible,
	}
	e.nextID++

	if e.rng.Bernoulli(0.5) {
		ind.Sex = model.SexFemale
	}
	if e.rng.Bernoulli(0.55) {
		ind.Settlement = model.SettlementRural
	}
	ind.Risk = model.RiskGroup(e.rng.Multinomial(riskWeights))

	base := meanContactRate[ind.Risk]
	ind.Behavior.ContactRate = e.rng.Gamma(4, base/4)
	ind.Behavior.CondomTendency = e.rng.NormalClamped(1.0, 0.25, 0.3, 1.7)
	if ind.Sex == model.SexMale {
		ind.Behavior.Circumcised = e.rng.Bernoulli(0.30)
	}

	ind.Coinfection.TB = e.rng.Bernoulli(0.02)
	ind.Coinfection.HepB = e.rng.Bernoulli(0.08)
	ind.Coinfection.HepC = e.rng.Bernoulli(0.01)

	ind.Cascade.Adherence = e.rng.NormalClamped(0.85, 0.07, 0.5, 0.98)
	if ind.Sex == model.SexFemale {
		ind.Repro.FertilityDesire = e.rng.NormalClamped(1.0, 0.2, 0.4, 1.6)
	}
	return ind
}

func (e *Engine) seedPrevalence(region int) float64 {
	if len(e.cfg.RegionalPrevalence) > 0 {
		return e.cfg.RegionalPrevalence[region]
	}
	profile := regionPrevalenceProfile[region%len(regionPrevalenceProfile)]
	p := e.cfg.InitialPrevalence * profile
	if p >= 1 {
		p = 0.99
	}
	return p
}

// seedInfection backdates a prevalent chronic infection at initialization.
func (e *Engine) seedInfection(ind *model.Individual) {
	ind.Stage = model.StageChronic
	ind.InfectionYear = e.cfg.StartYear - e.rng.UniformRange(0.5, 6)
	ind.Severity = e.rng.UniformRange(0, 0.4)
	ind.Source = model.InfectionSource{DonorID: -1, DonorStage: model.StageChronic}
	agent.ResampleViralLoad(ind, e.rng)
}
