package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

type Sex uint8

const (
	SexMale Sex = iota
	SexFemale
)

func (s Sex) String() string {
	if s == SexFemale {
		return "female"
	}
	return "male"
}

type HIVStage uint8

const (
	StageSusceptible HIVStage = iota
	StageAcute
	StageChronic
	StageAIDS
)

func (s HIVStage) String() string {
	switch s {
	case StageAcute:
		return "acute"
	case StageChronic:
		return "chronic"
	case StageAIDS:
		return "aids"
	default:
		return "susceptible"
	}
}

type RiskGroup uint8

const (
	RiskLow RiskGroup = iota
	RiskMedium
	RiskHigh
)

func (r RiskGroup) String() string {
	switch r {
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	default:
		return "low"
	}
}

type CauseOfDeath uint8

const (
	CauseNone CauseOfDeath = iota
	CauseHIV
	CauseNatural
)

func (c CauseOfDeath) String() string {
	switch c {
	case CauseHIV:
		return "hiv"
	case CauseNatural:
		return "natural"
	default:
		return "none"
	}
}

type Settlement uint8

const (
	SettlementUrban Settlement = iota
	SettlementRural
)

func (s Settlement) String() string {
	if s == SettlementRural {
		return "rural"
	}
	return "urban"
}

// InfectionSource records the donor side of a transmission event at the
// moment it happened, for transmission analytics.
type InfectionSource struct {
	DonorID        int      `json:"donor_id"`
	DonorStage     HIVStage `json:"donor_stage"`
	DonorViralLoad float64  `json:"donor_viral_load"`
	Vertical       bool     `json:"vertical,omitempty"`
}

// CascadeState tracks an individual's position in the testing and treatment
// cascade. Invariants: OnART implies Diagnosed; Suppressed implies OnART.
type CascadeState struct {
	EverTested          bool    `json:"ever_tested"`
	LastTestYear        float64 `json:"last_test_year"`
	TestsThisYear       int     `json:"tests_this_year"`
	Diagnosed           bool    `json:"diagnosed"`
	DiagnosisYear       float64 `json:"diagnosis_year"`
	SeverityAtDiagnosis float64 `json:"severity_at_diagnosis"`
	OnART               bool    `json:"on_art"`
	ARTStartYear        float64 `json:"art_start_year"`
	Suppressed          bool    `json:"suppressed"`
	Adherence           float64 `json:"adherence"`
	LostToFollowUp      bool    `json:"lost_to_follow_up"`
	Reengagements       int     `json:"reengagements"`
}

// Behavior holds the behavioral attributes that modulate exposure.
// ContactRate is in sexual contacts per year.
type Behavior struct {
	ContactRate    float64 `json:"contact_rate"`
	CondomTendency float64 `json:"condom_tendency"`
	Circumcised    bool    `json:"circumcised"`
	OnPrEP         bool    `json:"on_prep"`
}

type Coinfection struct {
	TB   bool `json:"tb"`
	HepB bool `json:"hep_b"`
	HepC bool `json:"hep_c"`
}

// Reproductive state for females of reproductive age.
type Reproductive struct {
	Pregnant        bool    `json:"pregnant"`
	PMTCT           bool    `json:"pmtct"`
	FertilityDesire float64 `json:"fertility_desire"`
}

// Individual is one synthetic person. The struct is mutated in place by the
// engine; a dead individual never mutates further.
type Individual struct {
	ID         int        `json:"id"`
	Age        float64    `json:"age"`
	Sex        Sex        `json:"sex"`
	Region     int        `json:"region"`
	Settlement Settlement `json:"settlement"`
	Risk       RiskGroup  `json:"risk"`

	Alive     bool         `json:"alive"`
	Cause     CauseOfDeath `json:"cause_of_death"`
	DeathYear float64      `json:"death_year"`

	Stage         HIVStage `json:"stage"`
	InfectionYear float64  `json:"infection_year"`
	// ViralLoad is log10 copies/mL, resampled each step for infected agents.
	ViralLoad float64 `json:"viral_load"`
	// Severity is a CD4-proxy in [0,1]: 0 at infection, escalating while
	// untreated. Drives progression and mortality multipliers.
	Severity float64         `json:"severity"`
	Source   InfectionSource `json:"source"`

	Cascade     CascadeState `json:"cascade"`
	Behavior    Behavior     `json:"behavior"`
	Coinfection Coinfection  `json:"coinfection"`
	Repro       Reproductive `json:"repro"`
}

func (ind *Individual) Infected() bool {
	return ind.Stage != StageSusceptible
}

// EligibleForContact reports whether the individual participates in the
// sexual contact sweep this step.
func (ind *Individual) EligibleForContact() bool {
	return ind.Alive && ind.Age >= 15 && ind.Age < 65
}

// RunRecord identifies one persisted simulation run.
type RunRecord struct {
	VersionedRecord
	ID             string  `json:"id"`
	Scenario       string  `json:"scenario"`
	Seed           int64   `json:"seed"`
	PopulationSize int     `json:"population_size"`
	StartYear      float64 `json:"start_year"`
	EndYear        float64 `json:"end_year"`
	TimeStep       float64 `json:"time_step"`
	Mixing         string  `json:"mixing"`
	CreatedAtUTC   string  `json:"created_at_utc"`
	// FinalStratified is the end-of-run breakdown view, captured before the
	// engine is finalized since it cannot be recomputed from snapshots.
	FinalStratified *StratifiedSnapshot `json:"final_stratified,omitempty"`
}

// BatchYearSummary is the cross-run distribution of the headline indicators
// at one step of a Monte Carlo batch. Quantile bands are empirical 10th/90th
// percentiles.
type BatchYearSummary struct {
	Year              float64 `json:"year"`
	MeanPopulation    float64 `json:"mean_population"`
	MeanPrevalence    float64 `json:"mean_prevalence"`
	PrevalenceStdDev  float64 `json:"prevalence_stddev"`
	PrevalenceP10     float64 `json:"prevalence_p10"`
	PrevalenceP90     float64 `json:"prevalence_p90"`
	MeanNewInfections float64 `json:"mean_new_infections"`
	MeanIncidence     float64 `json:"mean_incidence_per_1000"`
	MeanARTCoverage   float64 `json:"mean_art_coverage"`
	MeanHIVDeaths     float64 `json:"mean_hiv_deaths"`
	RunsExtinctByHere int     `json:"runs_extinct_by_here"`
}

// BatchRecord identifies one persisted Monte Carlo batch and carries its
// cross-run summary series.
type BatchRecord struct {
	VersionedRecord
	ID             string             `json:"id"`
	Scenario       string             `json:"scenario"`
	BaseSeed       int64              `json:"base_seed"`
	Runs           int                `json:"runs"`
	PopulationSize int                `json:"population_size"`
	StartYear      float64            `json:"start_year"`
	EndYear        float64            `json:"end_year"`
	CreatedAtUTC   string             `json:"created_at_utc"`
	Summary        []BatchYearSummary `json:"summary"`
}
