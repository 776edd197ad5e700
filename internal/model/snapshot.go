package model

// IndicatorSnapshot is the flat per-step metric set handed to the
// orchestration and export layers.
type IndicatorSnapshot struct {
	Year float64 `json:"year"`

	TotalPopulation int `json:"total_population"`
	AliveAdults     int `json:"alive_adults"`
	HIVPositive     int `json:"hiv_positive"`
	OnART           int `json:"on_art"`
	Diagnosed       int `json:"diagnosed"`
	Suppressed      int `json:"suppressed"`

	Births               int `json:"births"`
	NewInfections        int `json:"new_infections"`
	MTCTInfections       int `json:"mtct_infections"`
	CumulativeInfections int `json:"cumulative_infections"`
	HIVDeaths            int `json:"hiv_deaths"`
	NaturalDeaths        int `json:"natural_deaths"`

	// Prevalence15to49 is the standard adult prevalence indicator.
	Prevalence15to49 float64 `json:"prevalence_15_49"`
	// IncidencePer1000 is new infections per 1,000 susceptible person-years.
	IncidencePer1000    float64 `json:"incidence_per_1000"`
	DiagnosedCoverage   float64 `json:"diagnosed_coverage"`
	ARTCoverage         float64 `json:"art_coverage"`
	SuppressionCoverage float64 `json:"suppression_coverage"`
}

// StratumMetrics is one row of a stratified view.
type StratumMetrics struct {
	Key           string  `json:"key"`
	Population    int     `json:"population"`
	HIVPositive   int     `json:"hiv_positive"`
	OnART         int     `json:"on_art"`
	Prevalence    float64 `json:"prevalence"`
	NewInfections int     `json:"new_infections"`
}

// StratifiedSnapshot extends IndicatorSnapshot with fixed breakdown views,
// computed on demand from the live population.
type StratifiedSnapshot struct {
	IndicatorSnapshot
	ByAgeBand []StratumMetrics `json:"by_age_band"`
	BySex     []StratumMetrics `json:"by_sex"`
	ByRegion  []StratumMetrics `json:"by_region"`
}
