package params

import (
	"fmt"

	"hivsim/internal/model"
)

// ConfigError marks an invalid construction-time parameter.
type ConfigError struct {
	Param  string
	Detail string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Param, e.Detail)
}

// PhaseSchedule multiplies the base transmission rate by a calendar-phase
// factor. This is what lets the model produce a rise-peak-decline epidemic
// trajectory from a single calibrated base rate.
type PhaseSchedule struct {
	EmergenceUntil float64 `json:"emergence_until"`
	GrowthUntil    float64 `json:"growth_until"`
	Emergence      float64 `json:"emergence"`
	Growth         float64 `json:"growth"`
	Decline        float64 `json:"decline"`
}

// Multiplier returns the phase factor for the given calendar year.
func (p PhaseSchedule) Multiplier(year float64) float64 {
	switch {
	case year < p.EmergenceUntil:
		return p.Emergence
	case year < p.GrowthUntil:
		return p.Growth
	default:
		return p.Decline
	}
}

// MTCTEra is one row of the era- and treatment-dependent mother-to-child
// transmission table. Suppressed applies when the mother is on ART and
// virally suppressed; Unsuppressed covers every other HIV-positive mother.
type MTCTEra struct {
	From         float64 `json:"from"`
	Suppressed   float64 `json:"suppressed"`
	Unsuppressed float64 `json:"unsuppressed"`
}

// Config carries every calibrated curve and constant the provider serves.
// Zero-valued fields are filled from historical defaults so callers only
// override what a scenario or experiment needs.
type Config struct {
	ScenarioName string

	// SwitchYear separates the calibrated historical segment from the
	// scenario segment. TransitionYears is the ramp used to blend from the
	// last historical value into the scenario target.
	SwitchYear      float64
	TransitionYears float64

	BaseTransmissionRate float64
	Phases               PhaseSchedule

	TestingRate    Curve
	CondomUse      Curve
	ARTInitiation  Curve
	FertilityScale Curve
	PrEPCoverage   Curve

	MTCT []MTCTEra

	// UniversalARTFrom is the year treatment eligibility becomes universal.
	// Before it, eligibility requires the severity proxy to exceed
	// EligibilitySeverity.
	UniversalARTFrom    float64
	EligibilitySeverity float64
}

// Provider resolves every time-varying rate the engine needs as a pure
// function of (calendar year, active scenario). It owns clamping: every
// probability it returns lies in [0,1].
type Provider struct {
	cfg      Config
	scenario Scenario
}

// NewProvider validates cfg, resolves the named scenario, and fills
// historical defaults for any curve left empty.
func NewProvider(cfg Config) (*Provider, error) {
	scenario, err := LookupScenario(cfg.ScenarioName)
	if err != nil {
		return nil, err
	}
	applyHistoricalDefaults(&cfg)

	if cfg.BaseTransmissionRate <= 0 {
		return nil, &ConfigError{Param: "base_transmission_rate", Detail: "must be > 0"}
	}
	if cfg.Phases.Emergence <= 0 || cfg.Phases.Growth <= 0 || cfg.Phases.Decline <= 0 {
		return nil, &ConfigError{Param: "phases", Detail: "phase multipliers must be > 0"}
	}
	if cfg.Phases.GrowthUntil < cfg.Phases.EmergenceUntil {
		return nil, &ConfigError{Param: "phases", Detail: "growth boundary precedes emergence boundary"}
	}
	if cfg.TransitionYears <= 0 {
		return nil, &ConfigError{Param: "transition_years", Detail: "must be > 0"}
	}
	for name, curve := range map[string]Curve{
		"testing_rate":    cfg.TestingRate,
		"condom_use":      cfg.CondomUse,
		"art_initiation":  cfg.ARTInitiation,
		"fertility_scale": cfg.FertilityScale,
		"prep_coverage":   cfg.PrEPCoverage,
	} {
		if err := curve.validate(name, 0, 1); err != nil {
			return nil, err
		}
	}
	for i, era := range cfg.MTCT {
		if era.Suppressed < 0 || era.Suppressed > 1 || era.Unsuppressed < 0 || era.Unsuppressed > 1 {
			return nil, &ConfigError{Param: "mtct", Detail: fmt.Sprintf("era %d probability outside [0,1]", i)}
		}
		if i > 0 && era.From < cfg.MTCT[i-1].From {
			return nil, &ConfigError{Param: "mtct", Detail: "eras out of year order"}
		}
	}

	return &Provider{cfg: cfg, scenario: scenario}, nil
}

func (p *Provider) ScenarioName() string {
	return p.scenario.Name
}

// resolve blends the historical curve into the scenario target after the
// switch year. Within the transition window the value ramps linearly from
// the last historical value toward the target so there is no discontinuity
// at the switch.
func (p *Provider) resolve(hist, target Curve, year float64) float64 {
	if year <= p.cfg.SwitchYear || target.Empty() {
		return hist.At(year)
	}
	base := hist.At(p.cfg.SwitchYear)
	goal := target.At(year)
	frac := (year - p.cfg.SwitchYear) / p.cfg.TransitionYears
	if frac >= 1 {
		return goal
	}
	return base + (goal-base)*frac
}

func clampProb(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// TestingRate is the annual probability that an individual seeks an HIV
// test, before risk-group adjustment.
func (p *Provider) TestingRate(year float64) float64 {
	return clampProb(p.resolve(p.cfg.TestingRate, p.scenario.TestingTarget, year))
}

// RiskTestMultiplier scales the testing rate by behavioral risk group.
func (p *Provider) RiskTestMultiplier(risk model.RiskGroup) float64 {
	switch risk {
	case model.RiskHigh:
		return 1.5
	case model.RiskMedium:
		return 1.2
	default:
		return 1.0
	}
}

// CondomUse is the probability a given act is condom-protected.
func (p *Provider) CondomUse(year float64) float64 {
	return clampProb(p.resolve(p.cfg.CondomUse, p.scenario.CondomTarget, year))
}

// ARTInitiation is the annual probability that a diagnosed, eligible
// individual starts treatment.
func (p *Provider) ARTInitiation(year float64) float64 {
	return clampProb(p.resolve(p.cfg.ARTInitiation, p.scenario.ARTTarget, year))
}

// ARTEligible reports treatment eligibility; universal from the configured
// year, severity-gated before it.
func (p *Provider) ARTEligible(year, severity float64) bool {
	if year >= p.cfg.UniversalARTFrom {
		return true
	}
	return severity >= p.cfg.EligibilitySeverity
}

// TransmissionRate is the phase-adjusted per-act base probability. Callers
// always receive the already-phase-adjusted value.
func (p *Provider) TransmissionRate(year float64) float64 {
	rate := p.cfg.BaseTransmissionRate * p.cfg.Phases.Multiplier(year)
	if year > p.cfg.SwitchYear && p.scenario.TransmissionMultiplier > 0 {
		frac := (year - p.cfg.SwitchYear) / p.cfg.TransitionYears
		if frac > 1 {
			frac = 1
		}
		rate *= 1 + (p.scenario.TransmissionMultiplier-1)*frac
	}
	if rate < 0 {
		return 0
	}
	return rate
}

// FertilityScale is the calendar-time multiplier on age-specific fertility,
// declining over the horizon to represent demographic transition.
func (p *Provider) FertilityScale(year float64) float64 {
	return clampProb(p.resolve(p.cfg.FertilityScale, Curve{}, year))
}

// PrEPCoverage is the fraction of eligible susceptibles on PrEP.
func (p *Provider) PrEPCoverage(year float64) float64 {
	return clampProb(p.resolve(p.cfg.PrEPCoverage, p.scenario.PrEPTarget, year))
}

// MTCT returns the mother-to-child transmission probability per birth for
// the given year and maternal treatment state.
func (p *Provider) MTCT(year float64, onART, suppressed bool) float64 {
	eras := p.cfg.MTCT
	if len(eras) == 0 {
		return 0
	}
	era := eras[0]
	for _, e := range eras {
		if year >= e.From {
			era = e
		}
	}
	if onART && suppressed {
		return clampProb(era.Suppressed)
	}
	return clampProb(era.Unsuppressed)
}
