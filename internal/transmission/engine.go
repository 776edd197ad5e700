package transmission

import (
	"fmt"
	"math"

	"hivsim/internal/agent"
	"hivsim/internal/mixing"
	"hivsim/internal/model"
	"hivsim/internal/params"
	"hivsim/internal/randvar"
)

// Per-act effect sizes. Stage multiplier peaks during acute infection;
// suppression leaves only residual transmission.
const (
	acuteStageMultiplier = 10.0
	aidsStageMultiplier  = 2.0
	viralLoadSaturation  = 2.0
	viralLoadPivotLog10  = 4.5

	circumcisionEffect    = 0.60
	condomEffect          = 0.85
	suppressedARTEffect   = 0.96
	unsuppressedARTEffect = 0.70
	prepEffect            = 0.90
)

// Config tunes contact-count dispersion.
type Config struct {
	// ContactVariance is the variance of the Gamma-distributed individual
	// contact intensity (contacts/year).
	ContactVariance float64
	// MinContactRate floors the mean contact rate to avoid zero-contact
	// degeneracy in the Gamma shape parameter.
	MinContactRate float64
}

func DefaultConfig() Config {
	return Config{ContactVariance: 40, MinContactRate: 0.5}
}

// Engine generates contact events and decides infections. It depends on
// the partner sampler only through its interface so mixing strategies can
// be swapped without touching infection logic.
type Engine struct {
	provider *params.Provider
	sampler  mixing.PartnerSampler
	cfg      Config
}

func New(provider *params.Provider, sampler mixing.PartnerSampler, cfg Config) (*Engine, error) {
	if provider == nil {
		return nil, fmt.Errorf("parameter provider is required")
	}
	if sampler == nil {
		return nil, fmt.Errorf("partner sampler is required")
	}
	if cfg.ContactVariance <= 0 {
		return nil, fmt.Errorf("contact variance must be > 0")
	}
	if cfg.MinContactRate <= 0 {
		return nil, fmt.Errorf("min contact rate must be > 0")
	}
	return &Engine{provider: provider, sampler: sampler, cfg: cfg}, nil
}

func (e *Engine) SamplerName() string {
	return e.sampler.Name()
}

func ageActivityMultiplier(age float64) float64 {
	switch {
	case age < 20:
		return 0.8
	case age < 35:
		return 1.0
	case age < 45:
		return 0.7
	case age < 55:
		return 0.4
	default:
		return 0.2
	}
}

// ContactCount draws the number of contacts for one individual this step:
// a Gamma-distributed per-year intensity (dispersion from cfg) driving a
// Poisson count over dt.
func (e *Engine) ContactCount(ind *model.Individual, year, dt float64, rng *randvar.Stream) (int, error) {
	mean := ind.Behavior.ContactRate * ageActivityMultiplier(ind.Age)
	if mean < e.cfg.MinContactRate {
		mean = e.cfg.MinContactRate
	}
	shape := mean * mean / e.cfg.ContactVariance
	scale := e.cfg.ContactVariance / mean
	if math.IsNaN(shape) || math.IsInf(shape, 0) || shape <= 0 {
		return 0, &model.NumericalError{Year: year, IndividualID: ind.ID, Param: "contact_gamma_shape", Value: shape}
	}
	intensity := rng.Gamma(shape, scale)
	return rng.Poisson(intensity * dt), nil
}

// acuteStageWeight blends the acute and chronic stage multipliers over a
// step of length dt. An acute donor progresses to chronic after
// agent.AcuteDuration, so over a longer step only that fraction of acts
// carries the acute multiplier.
func acuteStageWeight(dt float64) float64 {
	if dt <= agent.AcuteDuration {
		return acuteStageMultiplier
	}
	f := agent.AcuteDuration / dt
	return 1 + f*(acuteStageMultiplier-1)
}

// PerActProbability is the probability that one act between the infected
// donor and susceptible recipient transmits, averaged over a step of
// length dt. Always in [0,1].
func (e *Engine) PerActProbability(donor, recipient *model.Individual, year, dt float64) (float64, error) {
	p := e.provider.TransmissionRate(year)

	switch donor.Stage {
	case model.StageAcute:
		p *= acuteStageWeight(dt)
	case model.StageAIDS:
		p *= aidsStageMultiplier
	}

	vlFactor := math.Pow(10, 0.3*(donor.ViralLoad-viralLoadPivotLog10))
	if vlFactor > viralLoadSaturation {
		vlFactor = viralLoadSaturation
	}
	p *= vlFactor

	switch recipient.Risk {
	case model.RiskMedium:
		p *= 1.15
	case model.RiskHigh:
		p *= 1.30
	}

	if recipient.Sex == model.SexMale && recipient.Behavior.Circumcised {
		p *= 1 - circumcisionEffect
	}

	condomUse := e.provider.CondomUse(year) * 0.5 * (donor.Behavior.CondomTendency + recipient.Behavior.CondomTendency)
	if condomUse > 1 {
		condomUse = 1
	}
	p *= 1 - condomEffect*condomUse

	if donor.Cascade.OnART {
		if donor.Cascade.Suppressed {
			p *= 1 - suppressedARTEffect
		} else {
			p *= 1 - unsuppressedARTEffect
		}
	}

	if recipient.Behavior.OnPrEP {
		p *= 1 - prepEffect
	}

	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, &model.NumericalError{Year: year, IndividualID: recipient.ID, Param: "per_act_probability", Value: p}
	}
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return p, nil
}

// Infect transitions recipient susceptible -> acute, recording the donor's
// state at the moment of transmission.
func Infect(recipient, donor *model.Individual, year float64, vertical bool, rng *randvar.Stream) {
	recipient.Stage = model.StageAcute
	recipient.InfectionYear = year
	recipient.Severity = 0
	recipient.Source = model.InfectionSource{
		DonorID:        donor.ID,
		DonorStage:     donor.Stage,
		DonorViralLoad: donor.ViralLoad,
		Vertical:       vertical,
	}
	// Newly infected agents start at acute-stage viral load.
	resampleAcute(recipient, rng)
}

func resampleAcute(ind *model.Individual, rng *randvar.Stream) {
	vl := rng.Normal(6.5, 0.4)
	if vl < 1.7 {
		vl = 1.7
	}
	if vl > 8 {
		vl = 8
	}
	ind.ViralLoad = vl
}

// SweepResult aggregates one step's horizontal transmission outcomes.
type SweepResult struct {
	NewInfections int
}

// Sweep runs the contact and transmission pass over the population in
// stable order. Partner pools are rebuilt from the current population
// before any contact is sampled. Donor status is frozen at sweep start: an
// agent infected during this pass neither seeks further exposure nor acts
// as a transmission source until the next step.
func (e *Engine) Sweep(pop []*model.Individual, year, dt float64, rng *randvar.Stream) (SweepResult, error) {
	e.sampler.Rebuild(pop)

	donors := make(map[int]bool, len(pop))
	for _, ind := range pop {
		if ind.Infected() {
			donors[ind.ID] = true
		}
	}

	var result SweepResult
	for _, ind := range pop {
		if !ind.EligibleForContact() || ind.Infected() {
			continue
		}
		contacts, err := e.ContactCount(ind, year, dt, rng)
		if err != nil {
			return SweepResult{}, err
		}
		for c := 0; c < contacts; c++ {
			partner, ok := e.sampler.Sample(ind, rng)
			if !ok {
				break
			}
			if !donors[partner.ID] {
				continue
			}
			p, err := e.PerActProbability(partner, ind, year, dt)
			if err != nil {
				return SweepResult{}, err
			}
			if rng.Bernoulli(p) {
				Infect(ind, partner, year, false, rng)
				result.NewInfections++
				break
			}
		}
	}
	return result, nil
}

// MTCTDraw decides whether a birth to an HIV-positive mother transmits,
// using the era- and treatment-dependent table owned by the parameter
// provider.
func (e *Engine) MTCTDraw(mother *model.Individual, year float64, rng *randvar.Stream) bool {
	if !mother.Infected() {
		return false
	}
	p := e.provider.MTCT(year, mother.Cascade.OnART, mother.Cascade.Suppressed)
	return rng.Bernoulli(p)
}
