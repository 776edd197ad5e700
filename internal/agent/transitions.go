package agent

import (
	"math"

	"hivsim/internal/model"
	"hivsim/internal/params"
	"hivsim/internal/randvar"
)

const (
	// AcuteDuration is the fixed length of acute infection in years.
	AcuteDuration = 0.25
	// chronicMeanYears is the mean untreated chronic duration before AIDS,
	// absent severity acceleration.
	chronicMeanYears = 9.5

	// AssayFloorLog10 is the viral-load assay floor (50 copies/mL).
	AssayFloorLog10 = 1.7
	viralLoadCap    = 8.0

	testSensitivity       = 0.98
	suppressionRampYears  = 0.5
	ltfuAnnualRate        = 0.03
	reengagementRate      = 0.25
	severityEscalationYrs = 12.0
	severityRecoveryYrs   = 8.0
)

// Aging advances the individual's age by dt. Pure advance, no failure mode.
func Aging(ind *model.Individual, dt float64) {
	ind.Age += dt
}

// Mortality draws the competing-hazard death outcome for one step. On
// death the individual is frozen: alive=false, cause and death year set.
// Cause of death is the larger component hazard; an HIV-positive agent with
// equal components is attributed to HIV.
func Mortality(ind *model.Individual, year, dt float64, rng *randvar.Stream) (bool, error) {
	natural := NaturalHazard(ind.Age, year)
	hiv := HIVHazard(ind)
	total := natural + hiv
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return false, &model.NumericalError{Year: year, IndividualID: ind.ID, Param: "mortality_hazard", Value: total}
	}
	if !rng.Bernoulli(1 - math.Exp(-total*dt)) {
		return false, nil
	}
	ind.Alive = false
	ind.DeathYear = year
	if ind.Infected() && hiv >= natural {
		ind.Cause = model.CauseHIV
	} else {
		ind.Cause = model.CauseNatural
	}
	return true, nil
}

// Progress advances disease stage and resamples viral load for one step.
// Stage transitions are monotonic forward: acute ends deterministically
// after its fixed duration; chronic to AIDS is a stochastic hazard,
// accelerated by severity and suspended while virally suppressed.
func Progress(ind *model.Individual, year, dt float64, rng *randvar.Stream) error {
	if !ind.Alive || !ind.Infected() {
		return nil
	}

	treated := ind.Cascade.OnART && ind.Cascade.Suppressed
	if treated {
		ind.Severity = math.Max(0, ind.Severity-dt/severityRecoveryYrs)
	} else {
		ind.Severity = math.Min(1, ind.Severity+dt/severityEscalationYrs)
	}

	switch ind.Stage {
	case model.StageAcute:
		if year-ind.InfectionYear >= AcuteDuration {
			ind.Stage = model.StageChronic
		}
	case model.StageChronic:
		if !treated {
			hazard := (1 / chronicMeanYears) * (1 + severityHazardMultiplier*ind.Severity)
			if math.IsNaN(hazard) || math.IsInf(hazard, 0) {
				return &model.NumericalError{Year: year, IndividualID: ind.ID, Param: "progression_hazard", Value: hazard}
			}
			if rng.Bernoulli(1 - math.Exp(-hazard*dt)) {
				ind.Stage = model.StageAIDS
			}
		}
	}

	ResampleViralLoad(ind, rng)
	return nil
}

// ResampleViralLoad draws the current log10 viral load from the stage- and
// treatment-specific distribution. Values below the assay floor are clamped,
// not treated as errors; that is expected distributional behavior.
func ResampleViralLoad(ind *model.Individual, rng *randvar.Stream) {
	var mu, sigma float64
	switch {
	case ind.Cascade.OnART && ind.Cascade.Suppressed:
		mu, sigma = 1.2, 0.3
	case ind.Stage == model.StageAcute:
		mu, sigma = 6.5, 0.4
	case ind.Stage == model.StageAIDS:
		mu, sigma = 5.8, 0.5
	default:
		mu, sigma = 4.5, 0.5
	}
	vl := rng.Normal(mu, sigma)
	if vl < AssayFloorLog10 {
		vl = AssayFloorLog10
	}
	if vl > viralLoadCap {
		vl = viralLoadCap
	}
	ind.ViralLoad = vl
}

// Test draws one step's testing outcome. Returns true when the individual
// was newly diagnosed HIV-positive this step.
func Test(ind *model.Individual, p *params.Provider, year, dt float64, rng *randvar.Stream) bool {
	if !ind.Alive || ind.Age < 15 {
		return false
	}
	rate := p.TestingRate(year) * p.RiskTestMultiplier(ind.Risk)
	if !rng.Bernoulli(1 - math.Exp(-rate*dt)) {
		return false
	}
	c := &ind.Cascade
	c.EverTested = true
	c.LastTestYear = year
	c.TestsThisYear++
	if ind.Infected() && !c.Diagnosed && rng.Bernoulli(testSensitivity) {
		c.Diagnosed = true
		c.DiagnosisYear = year
		c.SeverityAtDiagnosis = ind.Severity
		return true
	}
	return false
}

// CascadeStep advances treatment-cascade state for one step: ART
// initiation for the diagnosed and eligible, suppression outcomes after the
// ramp period, loss to follow-up, and re-engagement.
func CascadeStep(ind *model.Individual, p *params.Provider, year, dt float64, rng *randvar.Stream) {
	if !ind.Alive || !ind.Infected() || !ind.Cascade.Diagnosed {
		return
	}
	c := &ind.Cascade

	if !c.OnART {
		c.Suppressed = false
		if c.LostToFollowUp {
			if rng.Bernoulli(1 - math.Exp(-reengagementRate*dt)) {
				c.OnART = true
				c.LostToFollowUp = false
				c.Reengagements++
			}
			return
		}
		if !p.ARTEligible(year, ind.Severity) {
			return
		}
		if rng.Bernoulli(1 - math.Exp(-p.ARTInitiation(year)*dt)) {
			c.OnART = true
			c.ARTStartYear = year
		}
		return
	}

	if rng.Bernoulli(1 - math.Exp(-ltfuAnnualRate*dt)) {
		c.OnART = false
		c.Suppressed = false
		c.LostToFollowUp = true
		return
	}
	if year-c.ARTStartYear >= suppressionRampYears {
		c.Suppressed = rng.Bernoulli(c.Adherence)
	} else {
		c.Suppressed = false
	}
}

// PrEPStep resamples PrEP status for susceptible adults so observed
// coverage tracks the time-varying program target. Low-risk individuals
// are deprioritized relative to the headline coverage.
func PrEPStep(ind *model.Individual, p *params.Provider, year float64, rng *randvar.Stream) {
	if !ind.Alive {
		return
	}
	if ind.Infected() || ind.Age < 15 || ind.Age >= 50 {
		ind.Behavior.OnPrEP = false
		return
	}
	coverage := p.PrEPCoverage(year)
	if ind.Risk == model.RiskLow {
		coverage *= 0.3
	}
	ind.Behavior.OnPrEP = rng.Bernoulli(coverage)
}

// asfr is the age-specific fertility rate (births per woman-year).
var asfr = []struct {
	minAge float64
	rate   float64
}{
	{15, 0.080},
	{20, 0.200},
	{25, 0.210},
	{30, 0.170},
	{35, 0.110},
	{40, 0.050},
	{45, 0.015},
	{50, 0},
}

func fertilityRateAt(age float64) float64 {
	if age < 15 || age >= 50 {
		return 0
	}
	rate := 0.0
	for _, row := range asfr {
		if age >= row.minAge {
			rate = row.rate
		}
	}
	return rate
}

// hivFertilityFactor reduces fertility for HIV-positive women depending on
// disease severity and treatment.
func hivFertilityFactor(ind *model.Individual) float64 {
	if !ind.Infected() {
		return 1
	}
	if ind.Cascade.OnART {
		return 0.90
	}
	if ind.Stage == model.StageAIDS {
		return 0.50
	}
	return 0.75
}

// BirthDraw decides whether a female of reproductive age gives birth this
// step.
func BirthDraw(ind *model.Individual, p *params.Provider, year, dt float64, rng *randvar.Stream) bool {
	if !ind.Alive || ind.Sex != model.SexFemale {
		return false
	}
	rate := fertilityRateAt(ind.Age)
	if rate == 0 {
		return false
	}
	rate *= p.FertilityScale(year) * ind.Repro.FertilityDesire * hivFertilityFactor(ind)
	return rng.Bernoulli(1 - math.Exp(-rate*dt))
}
