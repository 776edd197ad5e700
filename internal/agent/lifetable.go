package agent

import (
	"math"

	"hivsim/internal/model"
)

// mortalityBaseYear anchors the secular mortality improvement trend.
const (
	mortalityBaseYear = 1985
	improvementRate   = 0.01
)

// lifeTable holds the age-specific annual natural mortality hazard.
// Monotonically non-decreasing with age after childhood.
var lifeTable = []struct {
	minAge float64
	hazard float64
}{
	{0, 0.080},
	{1, 0.010},
	{5, 0.0020},
	{15, 0.0040},
	{35, 0.0080},
	{50, 0.015},
	{60, 0.035},
	{70, 0.080},
	{80, 0.18},
}

// NaturalHazard is the annual background mortality hazard for the given age
// and calendar year, improving exponentially by ~1%/year after the base year.
func NaturalHazard(age, year float64) float64 {
	hazard := lifeTable[0].hazard
	for _, row := range lifeTable {
		if age >= row.minAge {
			hazard = row.hazard
		}
	}
	elapsed := year - mortalityBaseYear
	if elapsed > 0 {
		hazard *= math.Exp(-improvementRate * elapsed)
	}
	return hazard
}

// Stage-specific annual HIV mortality hazards for untreated disease.
const (
	acuteMortality   = 0.005
	chronicMortality = 0.040
	aidsMortality    = 0.35

	// Hazard multipliers for treatment state: viral suppression removes
	// ~95.5% of HIV mortality risk, unsuppressed ART ~30%.
	suppressedHazardFactor   = 0.045
	unsuppressedARTFactor    = 0.70
	severityHazardMultiplier = 2.0
)

// HIVHazard is the annual HIV-specific mortality hazard given stage,
// treatment state, and the CD4-proxy severity.
func HIVHazard(ind *model.Individual) float64 {
	if !ind.Infected() {
		return 0
	}
	var base float64
	switch ind.Stage {
	case model.StageAcute:
		base = acuteMortality
	case model.StageChronic:
		base = chronicMortality
	case model.StageAIDS:
		base = aidsMortality
	}
	hazard := base * (1 + severityHazardMultiplier*ind.Severity)
	if ind.Cascade.OnART {
		if ind.Cascade.Suppressed {
			hazard *= suppressedHazardFactor
		} else {
			hazard *= unsuppressedARTFactor
		}
	}
	return hazard
}
