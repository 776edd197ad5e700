package params

import (
	"errors"
	"fmt"
	"sort"
)

var ErrUnknownScenario = errors.New("unknown scenario")

// Scenario is a post-switch policy overlay. Empty target curves leave the
// historical trajectory in place (flat beyond its last anchor).
type Scenario struct {
	Name                   string
	Description            string
	TestingTarget          Curve
	ARTTarget              Curve
	CondomTarget           Curve
	PrEPTarget             Curve
	TransmissionMultiplier float64
}

var scenarios = map[string]Scenario{
	"baseline": {
		Name:        "baseline",
		Description: "continue current program coverage unchanged",
	},
	"scaleup": {
		Name:          "scaleup",
		Description:   "accelerated testing and treatment scale-up",
		TestingTarget: Linear(Anchor{2024, 0.35}, Anchor{2030, 0.50}, Anchor{2050, 0.55}),
		ARTTarget:     Linear(Anchor{2024, 0.85}, Anchor{2030, 0.95}),
		PrEPTarget:    Linear(Anchor{2024, 0.05}, Anchor{2035, 0.20}),
	},
	"funding-cut": {
		Name:                   "funding-cut",
		Description:            "donor funding crisis: coverage erosion and higher residual transmission",
		TestingTarget:          Linear(Anchor{2024, 0.35}, Anchor{2030, 0.15}),
		ARTTarget:              Linear(Anchor{2024, 0.85}, Anchor{2030, 0.55}),
		CondomTarget:           Linear(Anchor{2024, 0.55}, Anchor{2030, 0.40}),
		TransmissionMultiplier: 1.15,
	},
	"aspirational-95": {
		Name:          "aspirational-95",
		Description:   "95-95-95 targets reached by 2030 and sustained",
		TestingTarget: Linear(Anchor{2024, 0.35}, Anchor{2030, 0.60}),
		ARTTarget:     Linear(Anchor{2024, 0.85}, Anchor{2030, 0.95}, Anchor{2040, 0.97}),
		CondomTarget:  Linear(Anchor{2024, 0.55}, Anchor{2030, 0.65}),
		PrEPTarget:    Linear(Anchor{2024, 0.05}, Anchor{2030, 0.25}),
	},
}

// LookupScenario resolves a scenario by name. The empty name maps to
// baseline so a zero config is runnable.
func LookupScenario(name string) (Scenario, error) {
	if name == "" {
		name = "baseline"
	}
	s, ok := scenarios[name]
	if !ok {
		return Scenario{}, fmt.Errorf("%w: %s", ErrUnknownScenario, name)
	}
	return s, nil
}

// ScenarioNames lists the built-in scenarios in stable order.
func ScenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// applyHistoricalDefaults fills empty config fields with the calibrated
// historical trajectories. Anchor years follow the program eras: free-ART
// rollout from 2004, treat-all guidance from 2010, index testing from 2018.
func applyHistoricalDefaults(cfg *Config) {
	if cfg.SwitchYear == 0 {
		cfg.SwitchYear = 2024
	}
	if cfg.TransitionYears == 0 {
		cfg.TransitionYears = 3
	}
	if cfg.BaseTransmissionRate == 0 {
		cfg.BaseTransmissionRate = 0.0035
	}
	if cfg.Phases == (PhaseSchedule{}) {
		cfg.Phases = PhaseSchedule{
			EmergenceUntil: 1992,
			GrowthUntil:    2005,
			Emergence:      2.0,
			Growth:         2.4,
			Decline:        1.0,
		}
	}
	if cfg.TestingRate.Empty() {
		cfg.TestingRate = Step(
			Anchor{1985, 0.002},
			Anchor{1990, 0.005},
			Anchor{2000, 0.02},
			Anchor{2004, 0.06},
			Anchor{2010, 0.15},
			Anchor{2018, 0.30},
			Anchor{2024, 0.35},
		)
	}
	if cfg.CondomUse.Empty() {
		cfg.CondomUse = Linear(
			Anchor{1985, 0.02},
			Anchor{1995, 0.10},
			Anchor{2005, 0.30},
			Anchor{2015, 0.48},
			Anchor{2024, 0.55},
		)
	}
	if cfg.ARTInitiation.Empty() {
		cfg.ARTInitiation = Step(
			Anchor{1985, 0.0},
			Anchor{1998, 0.01},
			Anchor{2004, 0.15},
			Anchor{2010, 0.45},
			Anchor{2016, 0.70},
			Anchor{2024, 0.85},
		)
	}
	if cfg.FertilityScale.Empty() {
		cfg.FertilityScale = Linear(
			Anchor{1985, 1.0},
			Anchor{2000, 0.88},
			Anchor{2025, 0.70},
			Anchor{2060, 0.55},
			Anchor{2100, 0.48},
		)
	}
	if cfg.PrEPCoverage.Empty() {
		cfg.PrEPCoverage = Linear(
			Anchor{2017, 0.0},
			Anchor{2020, 0.02},
			Anchor{2024, 0.05},
		)
	}
	if len(cfg.MTCT) == 0 {
		cfg.MTCT = []MTCTEra{
			{From: 1985, Suppressed: 0.25, Unsuppressed: 0.25},
			{From: 2004, Suppressed: 0.02, Unsuppressed: 0.15},
			{From: 2010, Suppressed: 0.01, Unsuppressed: 0.12},
			{From: 2016, Suppressed: 0.005, Unsuppressed: 0.10},
		}
	}
	if cfg.UniversalARTFrom == 0 {
		cfg.UniversalARTFrom = 2016
	}
	if cfg.EligibilitySeverity == 0 {
		cfg.EligibilitySeverity = 0.35
	}
}
