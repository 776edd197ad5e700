package engine

import (
	"errors"
	"fmt"
	"math"

	"hivsim/internal/agent"
	"hivsim/internal/mixing"
	"hivsim/internal/model"
	"hivsim/internal/params"
	"hivsim/internal/randvar"
	"hivsim/internal/transmission"
)

// State tracks the engine's own lifecycle.
type State uint8

const (
	StateUninitialized State = iota
	StateInitialized
	StateStepping
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateStepping:
		return "stepping"
	case StateFinalized:
		return "finalized"
	default:
		return "uninitialized"
	}
}

var ErrFinalized = errors.New("engine is finalized")

// Config is the full construction-time configuration of one simulation run.
type Config struct {
	PopulationSize    int
	StartYear         float64
	TimeStep          float64
	Seed              int64
	Scenario          string
	Mixing            string
	MixingConfig      mixing.Config
	Regions           int
	InitialPrevalence float64
	// RegionalPrevalence optionally overrides the seeded prevalence per
	// region; length must equal Regions when set.
	RegionalPrevalence []float64
	Params             params.Config
	Contacts           transmission.Config
}

// Engine owns one population and one random stream. It is single-threaded:
// nothing within a step suspends, and no other component holds a mutable
// reference to the population.
type Engine struct {
	cfg      Config
	provider *params.Provider
	rng      *randvar.Stream
	trans    *transmission.Engine

	pop    []*model.Individual
	nextID int
	state  State

	cumulativeInfections int
	lastSnapshot         model.IndicatorSnapshot
	lastYearMark         int
}

// New validates cfg, constructs the parameter provider and samplers, and
// initializes the population. Invalid configuration is a fatal
// construction-time error; the engine is unusable on failure.
func New(cfg Config) (*Engine, error) {
	if cfg.PopulationSize <= 0 {
		return nil, fmt.Errorf("population size must be > 0: %d", cfg.PopulationSize)
	}
	if cfg.TimeStep <= 0 {
		cfg.TimeStep = 1.0
	}
	if cfg.StartYear == 0 {
		cfg.StartYear = 1985
	}
	if cfg.Regions <= 0 {
		cfg.Regions = 10
	}
	if cfg.InitialPrevalence < 0 || cfg.InitialPrevalence >= 1 {
		return nil, fmt.Errorf("initial prevalence must be in [0,1): %v", cfg.InitialPrevalence)
	}
	if len(cfg.RegionalPrevalence) > 0 && len(cfg.RegionalPrevalence) != cfg.Regions {
		return nil, fmt.Errorf("regional prevalence length %d does not match regions %d", len(cfg.RegionalPrevalence), cfg.Regions)
	}
	for i, p := range cfg.RegionalPrevalence {
		if p < 0 || p >= 1 {
			return nil, fmt.Errorf("regional prevalence %d outside [0,1): %v", i, p)
		}
	}
	if cfg.Contacts == (transmission.Config{}) {
		cfg.Contacts = transmission.DefaultConfig()
	}

	cfg.Params.ScenarioName = cfg.Scenario
	provider, err := params.NewProvider(cfg.Params)
	if err != nil {
		return nil, err
	}
	sampler, err := mixing.New(cfg.Mixing, cfg.MixingConfig)
	if err != nil {
		return nil, err
	}
	trans, err := transmission.New(provider, sampler, cfg.Contacts)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:          cfg,
		provider:     provider,
		rng:          randvar.New(cfg.Seed),
		trans:        trans,
		state:        StateUninitialized,
		lastYearMark: int(cfg.StartYear),
	}
	e.initPopulation()
	e.state = StateInitialized
	return e, nil
}

func (e *Engine) State() State {
	return e.state
}

// Population exposes the live individual collection for read-only
// inspection (stratified views, tests). Callers must not mutate it.
func (e *Engine) Population() []*model.Individual {
	return e.pop
}

// Finalize marks the engine terminal. Subsequent steps fail.
func (e *Engine) Finalize() {
	e.state = StateFinalized
}

// Step executes one discrete time step in the required order: aging,
// deaths, births, transmission, disease progression, testing, treatment
// cascade, indicator aggregation. Deterministic for a fixed seed.
func (e *Engine) Step(year, dt float64) (model.IndicatorSnapshot, error) {
	if e.state == StateFinalized {
		return model.IndicatorSnapshot{}, ErrFinalized
	}
	if e.state == StateUninitialized {
		return model.IndicatorSnapshot{}, errors.New("engine is not initialized")
	}
	if dt <= 0 || math.IsNaN(year) || math.IsInf(year, 0) {
		return model.IndicatorSnapshot{}, fmt.Errorf("invalid step arguments: year=%v dt=%v", year, dt)
	}
	e.state = StateStepping

	if int(year) != e.lastYearMark {
		e.lastYearMark = int(year)
		for _, ind := range e.pop {
			if ind.Alive {
				ind.Cascade.TestsThisYear = 0
			}
		}
	}

	// (1) aging
	for _, ind := range e.pop {
		if ind.Alive {
			agent.Aging(ind, dt)
		}
	}

	// (2) deaths
	var hivDeaths, naturalDeaths int
	for _, ind := range e.pop {
		if !ind.Alive {
			continue
		}
		died, err := agent.Mortality(ind, year, dt, e.rng)
		if err != nil {
			return model.IndicatorSnapshot{}, err
		}
		if died {
			if ind.Cause == model.CauseHIV {
				hivDeaths++
			} else {
				naturalDeaths++
			}
		}
	}

	// (3) births, including vertical transmission
	births, mtctInfections := e.processBirths(year, dt)

	// (4) horizontal transmission
	sweep, err := e.trans.Sweep(e.pop, year, dt, e.rng)
	if err != nil {
		return model.IndicatorSnapshot{}, err
	}

	// (5) disease progression
	for _, ind := range e.pop {
		if err := agent.Progress(ind, year, dt, e.rng); err != nil {
			return model.IndicatorSnapshot{}, err
		}
	}

	// (6) testing and diagnosis
	for _, ind := range e.pop {
		agent.Test(ind, e.provider, year, dt, e.rng)
	}

	// (7) treatment cascade and prevention coverage
	for _, ind := range e.pop {
		agent.CascadeStep(ind, e.provider, year, dt, e.rng)
		agent.PrEPStep(ind, e.provider, year, e.rng)
	}

	// (8) indicators
	newInfections := sweep.NewInfections + mtctInfections
	e.cumulativeInfections += newInfections
	snapshot := e.aggregate(year, dt, births, newInfections, mtctInfections, hivDeaths, naturalDeaths)
	e.lastSnapshot = snapshot
	return snapshot, nil
}

// processBirths draws fertility for every alive female of reproductive age
// and creates newborns, with a mother-to-child transmission draw for
// HIV-positive mothers. Newborns inherit the mother's region and
// settlement.
func (e *Engine) processBirths(year, dt float64) (births, mtctInfections int) {
	var newborns []*model.Individual
	for _, mother := range e.pop {
		if !mother.Alive || mother.Sex != model.SexFemale {
			continue
		}
		mother.Repro.Pregnant = false
		if !agent.BirthDraw(mother, e.provider, year, dt, e.rng) {
			continue
		}
		// Gestation is collapsed into the step that draws the birth; the
		// flag marks the delivering mother for within-step inspection.
		mother.Repro.Pregnant = true
		mother.Repro.PMTCT = mother.Infected() && mother.Cascade.OnART

		child := e.newIndividual()
		child.Age = 0
		child.Region = mother.Region
		child.Settlement = mother.Settlement
		if mother.Infected() && e.trans.MTCTDraw(mother, year, e.rng) {
			transmission.Infect(child, mother, year, true, e.rng)
			mtctInfections++
		}
		newborns = append(newborns, child)
		births++
	}
	e.pop = append(e.pop, newborns...)
	return births, mtctInfections
}
