package agent

import (
	"math"
	"testing"

	"hivsim/internal/model"
	"hivsim/internal/params"
	"hivsim/internal/randvar"
)

func newTestProvider(t *testing.T) *params.Provider {
	t.Helper()
	p, err := params.NewProvider(params.Config{})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	return p
}

func aliveAdult(stage model.HIVStage) *model.Individual {
	return &model.Individual{
		ID:    1,
		Age:   30,
		Alive: true,
		Stage: stage,
	}
}

func TestNaturalHazardIncreasesWithAdultAge(t *testing.T) {
	prev := NaturalHazard(15, 2000)
	for _, age := range []float64{35, 50, 60, 70, 80} {
		h := NaturalHazard(age, 2000)
		if h <= prev {
			t.Fatalf("hazard at age %.0f (%v) not above hazard at younger age (%v)", age, h, prev)
		}
		prev = h
	}
}

func TestNaturalHazardImprovesOverCalendarTime(t *testing.T) {
	early := NaturalHazard(40, 1985)
	late := NaturalHazard(40, 2050)
	if late >= early {
		t.Fatalf("mortality should improve over time: 1985=%v 2050=%v", early, late)
	}
}

func TestHIVHazardStageOrdering(t *testing.T) {
	acute := HIVHazard(aliveAdult(model.StageAcute))
	chronic := HIVHazard(aliveAdult(model.StageChronic))
	aids := HIVHazard(aliveAdult(model.StageAIDS))

	if HIVHazard(aliveAdult(model.StageSusceptible)) != 0 {
		t.Fatal("susceptible individuals carry no HIV hazard")
	}
	if !(acute < chronic && chronic < aids) {
		t.Fatalf("hazards not ordered acute < chronic < aids: %v %v %v", acute, chronic, aids)
	}
}

func TestHIVHazardSuppressionEffect(t *testing.T) {
	untreated := aliveAdult(model.StageAIDS)
	suppressed := aliveAdult(model.StageAIDS)
	suppressed.Cascade.Diagnosed = true
	suppressed.Cascade.OnART = true
	suppressed.Cascade.Suppressed = true

	ratio := HIVHazard(untreated) / HIVHazard(suppressed)
	if ratio < 10 {
		t.Fatalf("suppression should cut HIV mortality sharply, ratio = %v", ratio)
	}
}

func TestMortalityFreezesIndividual(t *testing.T) {
	rng := randvar.New(3)
	ind := aliveAdult(model.StageAIDS)
	ind.Age = 85
	ind.Severity = 1

	died := false
	for step := 0; step < 200 && !died; step++ {
		var err error
		died, err = Mortality(ind, 2000+float64(step), 1.0, rng)
		if err != nil {
			t.Fatalf("mortality: %v", err)
		}
	}
	if !died {
		t.Fatal("aged AIDS individual survived 200 years")
	}
	if ind.Alive {
		t.Fatal("dead individual still marked alive")
	}
	if ind.Cause == model.CauseNone {
		t.Fatal("cause of death not recorded")
	}
	if ind.DeathYear == 0 {
		t.Fatal("death year not recorded")
	}
}

func TestMortalityCauseFollowsLargerHazard(t *testing.T) {
	rng := randvar.New(5)

	// Young AIDS patient: HIV hazard dwarfs natural hazard.
	hivCases, naturalCases := 0, 0
	for i := 0; i < 500; i++ {
		ind := aliveAdult(model.StageAIDS)
		ind.Age = 25
		for step := 0; step < 100 && ind.Alive; step++ {
			if _, err := Mortality(ind, 2000, 1.0, rng); err != nil {
				t.Fatalf("mortality: %v", err)
			}
		}
		if !ind.Alive {
			switch ind.Cause {
			case model.CauseHIV:
				hivCases++
			case model.CauseNatural:
				naturalCases++
			}
		}
	}
	if hivCases == 0 {
		t.Fatal("expected HIV-attributed deaths")
	}
	if naturalCases != 0 {
		t.Fatalf("young AIDS deaths attributed to natural causes %d times", naturalCases)
	}
}

func TestProgressAcuteEndsAfterFixedDuration(t *testing.T) {
	rng := randvar.New(7)
	ind := aliveAdult(model.StageAcute)
	ind.InfectionYear = 2000

	if err := Progress(ind, 2000.1, 0.1, rng); err != nil {
		t.Fatalf("progress: %v", err)
	}
	if ind.Stage != model.StageAcute {
		t.Fatal("acute stage ended before its fixed duration")
	}
	if err := Progress(ind, 2000+AcuteDuration, 0.1, rng); err != nil {
		t.Fatalf("progress: %v", err)
	}
	if ind.Stage != model.StageChronic {
		t.Fatalf("stage = %v, want chronic after acute duration", ind.Stage)
	}
}

func TestProgressNeverMovesBackward(t *testing.T) {
	rng := randvar.New(9)
	ind := aliveAdult(model.StageAcute)
	ind.InfectionYear = 2000

	prev := ind.Stage
	for step := 0; step < 400; step++ {
		year := 2000 + float64(step)*0.25
		if err := Progress(ind, year, 0.25, rng); err != nil {
			t.Fatalf("progress: %v", err)
		}
		if ind.Stage < prev {
			t.Fatalf("stage moved backward: %v -> %v", prev, ind.Stage)
		}
		prev = ind.Stage
	}
	if ind.Stage != model.StageAIDS {
		t.Fatalf("untreated individual never reached AIDS over 100 years")
	}
}

func TestProgressSuspendedWhileSuppressed(t *testing.T) {
	rng := randvar.New(11)
	ind := aliveAdult(model.StageChronic)
	ind.InfectionYear = 1995
	ind.Cascade.Diagnosed = true
	ind.Cascade.OnART = true
	ind.Cascade.Suppressed = true
	ind.Severity = 0.5

	for step := 0; step < 200; step++ {
		if err := Progress(ind, 2000+float64(step), 1.0, rng); err != nil {
			t.Fatalf("progress: %v", err)
		}
	}
	if ind.Stage != model.StageChronic {
		t.Fatal("suppressed individual progressed to AIDS")
	}
	if ind.Severity != 0 {
		t.Fatalf("severity should recover to 0 under suppression, got %v", ind.Severity)
	}
}

func TestViralLoadBounds(t *testing.T) {
	rng := randvar.New(13)
	states := []*model.Individual{
		aliveAdult(model.StageAcute),
		aliveAdult(model.StageChronic),
		aliveAdult(model.StageAIDS),
	}
	suppressed := aliveAdult(model.StageChronic)
	suppressed.Cascade.OnART = true
	suppressed.Cascade.Suppressed = true
	states = append(states, suppressed)

	for _, ind := range states {
		for i := 0; i < 2000; i++ {
			ResampleViralLoad(ind, rng)
			if ind.ViralLoad < AssayFloorLog10 || ind.ViralLoad > 8.0 {
				t.Fatalf("viral load %v outside [%v, 8]", ind.ViralLoad, AssayFloorLog10)
			}
		}
	}
}

func TestSuppressedViralLoadSitsAtAssayFloor(t *testing.T) {
	rng := randvar.New(15)
	ind := aliveAdult(model.StageChronic)
	ind.Cascade.OnART = true
	ind.Cascade.Suppressed = true

	atFloor := 0
	const n = 2000
	for i := 0; i < n; i++ {
		ResampleViralLoad(ind, rng)
		if ind.ViralLoad == AssayFloorLog10 {
			atFloor++
		}
	}
	if atFloor < n/2 {
		t.Fatalf("suppressed draws at assay floor %d/%d, want majority", atFloor, n)
	}
}

func TestTestDiagnosesInfected(t *testing.T) {
	rng := randvar.New(17)
	p := newTestProvider(t)

	diagnosed := 0
	for i := 0; i < 300; i++ {
		ind := aliveAdult(model.StageChronic)
		ind.Severity = 0.2
		for step := 0; step < 30 && !ind.Cascade.Diagnosed; step++ {
			Test(ind, p, 2010+float64(step), 1.0, rng)
		}
		if ind.Cascade.Diagnosed {
			diagnosed++
			if !ind.Cascade.EverTested {
				t.Fatal("diagnosed individual not marked ever-tested")
			}
			if ind.Cascade.SeverityAtDiagnosis != 0.2 {
				t.Fatalf("severity at diagnosis = %v, want 0.2", ind.Cascade.SeverityAtDiagnosis)
			}
		}
	}
	if diagnosed < 200 {
		t.Fatalf("only %d/300 diagnosed over 30 years of 15%%+ testing", diagnosed)
	}
}

func TestTestSkipsChildrenAndDead(t *testing.T) {
	rng := randvar.New(19)
	p := newTestProvider(t)

	child := aliveAdult(model.StageChronic)
	child.Age = 10
	dead := aliveAdult(model.StageChronic)
	dead.Alive = false

	for i := 0; i < 500; i++ {
		if Test(child, p, 2020, 1.0, rng) || child.Cascade.EverTested {
			t.Fatal("child under 15 was tested")
		}
		if Test(dead, p, 2020, 1.0, rng) || dead.Cascade.EverTested {
			t.Fatal("dead individual was tested")
		}
	}
}

func TestCascadeInvariantsHold(t *testing.T) {
	rng := randvar.New(21)
	p := newTestProvider(t)

	for i := 0; i < 100; i++ {
		ind := aliveAdult(model.StageChronic)
		ind.InfectionYear = 2000
		ind.Cascade.Adherence = 0.85
		for step := 0; step < 60; step++ {
			year := 2000 + float64(step)
			Test(ind, p, year, 1.0, rng)
			CascadeStep(ind, p, year, 1.0, rng)
			c := ind.Cascade
			if c.OnART && !c.Diagnosed {
				t.Fatal("on ART without diagnosis")
			}
			if c.Suppressed && !c.OnART {
				t.Fatal("suppressed without ART")
			}
			if c.OnART && c.LostToFollowUp {
				t.Fatal("simultaneously on ART and lost to follow-up")
			}
		}
	}
}

func TestCascadeStepRequiresDiagnosis(t *testing.T) {
	rng := randvar.New(23)
	p := newTestProvider(t)

	ind := aliveAdult(model.StageChronic)
	ind.Severity = 0.9
	for i := 0; i < 500; i++ {
		CascadeStep(ind, p, 2020, 1.0, rng)
	}
	if ind.Cascade.OnART {
		t.Fatal("undiagnosed individual started ART")
	}
}

func TestSuppressionRequiresRampPeriod(t *testing.T) {
	rng := randvar.New(25)
	p := newTestProvider(t)

	ind := aliveAdult(model.StageChronic)
	ind.Cascade.Diagnosed = true
	ind.Cascade.OnART = true
	ind.Cascade.ARTStartYear = 2020
	ind.Cascade.Adherence = 1.0

	CascadeStep(ind, p, 2020.25, 0.25, rng)
	if ind.Cascade.Suppressed && !ind.Cascade.LostToFollowUp {
		t.Fatal("suppressed before the ramp period elapsed")
	}
}

func TestPrEPOnlyForSusceptibleAdults(t *testing.T) {
	rng := randvar.New(27)
	p := newTestProvider(t)

	infected := aliveAdult(model.StageChronic)
	infected.Behavior.OnPrEP = true
	PrEPStep(infected, p, 2024, rng)
	if infected.Behavior.OnPrEP {
		t.Fatal("infected individual kept PrEP")
	}

	older := aliveAdult(model.StageSusceptible)
	older.Age = 55
	older.Behavior.OnPrEP = true
	PrEPStep(older, p, 2024, rng)
	if older.Behavior.OnPrEP {
		t.Fatal("individual past PrEP age kept PrEP")
	}
}

func TestBirthDrawRespectsAgeAndSex(t *testing.T) {
	rng := randvar.New(29)
	p := newTestProvider(t)

	male := aliveAdult(model.StageSusceptible)
	male.Sex = model.SexMale
	male.Repro.FertilityDesire = 1

	tooYoung := aliveAdult(model.StageSusceptible)
	tooYoung.Sex = model.SexFemale
	tooYoung.Age = 12
	tooYoung.Repro.FertilityDesire = 1

	tooOld := aliveAdult(model.StageSusceptible)
	tooOld.Sex = model.SexFemale
	tooOld.Age = 55
	tooOld.Repro.FertilityDesire = 1

	for i := 0; i < 500; i++ {
		if BirthDraw(male, p, 1990, 1.0, rng) {
			t.Fatal("male gave birth")
		}
		if BirthDraw(tooYoung, p, 1990, 1.0, rng) {
			t.Fatal("under-15 gave birth")
		}
		if BirthDraw(tooOld, p, 1990, 1.0, rng) {
			t.Fatal("over-50 gave birth")
		}
	}
}

func TestBirthRateDeclinesWithAIDS(t *testing.T) {
	rng := randvar.New(31)
	p := newTestProvider(t)

	births := func(stage model.HIVStage) int {
		n := 0
		for i := 0; i < 20000; i++ {
			ind := aliveAdult(stage)
			ind.Sex = model.SexFemale
			ind.Age = 25
			ind.Repro.FertilityDesire = 1
			if BirthDraw(ind, p, 1990, 1.0, rng) {
				n++
			}
		}
		return n
	}

	healthy := births(model.StageSusceptible)
	aids := births(model.StageAIDS)
	if float64(aids) > 0.75*float64(healthy) {
		t.Fatalf("AIDS fertility %d not clearly below healthy fertility %d", aids, healthy)
	}
}

func TestFertilityRateTable(t *testing.T) {
	if fertilityRateAt(14.9) != 0 {
		t.Fatal("fertility below 15 must be zero")
	}
	if fertilityRateAt(50) != 0 {
		t.Fatal("fertility at 50 must be zero")
	}
	peak := fertilityRateAt(27)
	if math.Abs(peak-0.210) > 1e-12 {
		t.Fatalf("peak fertility = %v, want 0.210", peak)
	}
}
