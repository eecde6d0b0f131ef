// ABOUTME: Data models for migration simulation input, output, and what-if comparison
// ABOUTME: Supports wave planning with a 12-month blended cost projection

package models

// ProjectionMonths is the length of the simulated cost series
const ProjectionMonths = 12

// Filter narrows the set of entities a simulation considers.
// Zero values select everything.
type Filter struct {
	Kinds      []EntityKind       `json:"kinds,omitempty" yaml:"kinds,omitempty"`
	Categories []WorkloadCategory `json:"categories,omitempty" yaml:"categories,omitempty"`
	Name       string             `json:"name,omitempty" yaml:"name,omitempty"` // case-insensitive substring
	Keys       []string           `json:"keys,omitempty" yaml:"keys,omitempty"`
}

// Scenario holds the parameters of one simulation run
type Scenario struct {
	Region       string              `json:"region" yaml:"region"`
	PricingModel string              `json:"pricing_model" yaml:"pricing_model"`
	Waves        int                 `json:"waves" yaml:"waves"`
	Filter       Filter              `json:"filter" yaml:"filter"`
	Overrides    map[string]Override `json:"overrides,omitempty" yaml:"overrides,omitempty"`
	Pins         map[string]int      `json:"pins,omitempty" yaml:"pins,omitempty"` // entity key -> wave
}

// LineItem is one entity's contribution to a simulation
type LineItem struct {
	Key             string     `json:"key" yaml:"key"`
	Kind            EntityKind `json:"kind" yaml:"kind"`
	BaselineTarget  string     `json:"baseline_target" yaml:"baseline_target"`
	Target          string     `json:"target" yaml:"target"`
	Region          string     `json:"region" yaml:"region"`
	PricingModel    string     `json:"pricing_model" yaml:"pricing_model"`
	Readiness       Readiness  `json:"readiness" yaml:"readiness"`
	OnPremMonthly   float64    `json:"onprem_monthly" yaml:"onprem_monthly"`
	BaselineMonthly float64    `json:"baseline_monthly" yaml:"baseline_monthly"`
	MonthlyCost     float64    `json:"monthly_cost" yaml:"monthly_cost"`
	MonthlyDelta    float64    `json:"monthly_delta" yaml:"monthly_delta"` // monthly cost minus on-prem
	Overridden      bool       `json:"overridden" yaml:"overridden"`
	Wave            int        `json:"wave" yaml:"wave"`
	MigrationMonth  int        `json:"migration_month" yaml:"migration_month"`
	Issues          []Issue    `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// ProjectionPoint is one month of the cost series
type ProjectionPoint struct {
	Month      int     `json:"month" yaml:"month"`
	OnPrem     float64 `json:"onprem" yaml:"onprem"`
	Target     float64 `json:"target" yaml:"target"`
	Total      float64 `json:"total" yaml:"total"`
	Cumulative float64 `json:"cumulative" yaml:"cumulative"`
	Migrated   int     `json:"migrated" yaml:"migrated"`
}

// WaveSummary aggregates the entities scheduled into one wave
type WaveSummary struct {
	Wave        int      `json:"wave" yaml:"wave"`
	Month       int      `json:"month" yaml:"month"`
	Keys        []string `json:"keys" yaml:"keys"`
	MonthlyCost float64  `json:"monthly_cost" yaml:"monthly_cost"`
	OnPrem      float64  `json:"onprem" yaml:"onprem"`
}

// SimulationResult is the full output of a simulation run
type SimulationResult struct {
	Region             string            `json:"region" yaml:"region"`
	PricingModel       string            `json:"pricing_model" yaml:"pricing_model"`
	RequestedWaves     int               `json:"requested_waves" yaml:"requested_waves"`
	Waves              int               `json:"waves" yaml:"waves"`
	Filter             Filter            `json:"filter" yaml:"filter"`
	LineItems          []LineItem        `json:"line_items" yaml:"line_items"`
	Series             []ProjectionPoint `json:"series" yaml:"series"`
	WaveSummaries      []WaveSummary     `json:"wave_summaries" yaml:"wave_summaries"`
	Assignments        map[string]int    `json:"assignments" yaml:"assignments"`
	TotalOnPremMonthly float64           `json:"total_onprem_monthly" yaml:"total_onprem_monthly"`
	TotalBaseline      float64           `json:"total_baseline_monthly" yaml:"total_baseline_monthly"`
	TotalMonthly       float64           `json:"total_monthly" yaml:"total_monthly"`
	MonthlySavings     float64           `json:"monthly_savings" yaml:"monthly_savings"`
	TotalSavings       float64           `json:"total_savings" yaml:"total_savings"` // across the projection
	Warnings           []Issue           `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// LineItem looks up a line item by key
func (r *SimulationResult) LineItem(key string) (LineItem, bool) {
	for _, item := range r.LineItems {
		if item.Key == key {
			return item, true
		}
	}
	return LineItem{}, false
}

// WaveSizes returns the number of entities in each wave, in wave order
func (r *SimulationResult) WaveSizes() []int {
	sizes := make([]int, len(r.WaveSummaries))
	for i, w := range r.WaveSummaries {
		sizes[i] = len(w.Keys)
	}
	return sizes
}

// WhatIfResult compares an entity's baseline with an override applied
type WhatIfResult struct {
	Key             string  `json:"key" yaml:"key"`
	BaselineTarget  string  `json:"baseline_target" yaml:"baseline_target"`
	BaselineMonthly float64 `json:"baseline_monthly" yaml:"baseline_monthly"`
	Target          string  `json:"target" yaml:"target"`
	MonthlyCost     float64 `json:"monthly_cost" yaml:"monthly_cost"`
	Delta           float64 `json:"delta" yaml:"delta"`
	Issues          []Issue `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// YearProjection is one year of the business case comparison
type YearProjection struct {
	Year              int     `json:"year" yaml:"year"`
	OnPremCost        float64 `json:"onprem_cost" yaml:"onprem_cost"`
	CloudCost         float64 `json:"cloud_cost" yaml:"cloud_cost"`
	NetSavings        float64 `json:"net_savings" yaml:"net_savings"`
	CumulativeSavings float64 `json:"cumulative_savings" yaml:"cumulative_savings"`
}

// BusinessCase is a multi-year TCO comparison built from a simulation
type BusinessCase struct {
	Years            int              `json:"years" yaml:"years"`
	OnPremMonthly    float64          `json:"onprem_monthly" yaml:"onprem_monthly"`
	CloudMonthly     float64          `json:"cloud_monthly" yaml:"cloud_monthly"`
	MonthlySavings   float64          `json:"monthly_savings" yaml:"monthly_savings"`
	SavingsPct       float64          `json:"savings_pct" yaml:"savings_pct"`
	MigrationOneTime float64          `json:"migration_one_time" yaml:"migration_one_time"`
	PaybackMonths    int              `json:"payback_months" yaml:"payback_months"` // -1 when never
	Projection       []YearProjection `json:"projection" yaml:"projection"`
	TotalOnPremTCO   float64          `json:"total_onprem_tco" yaml:"total_onprem_tco"`
	TotalCloudTCO    float64          `json:"total_cloud_tco" yaml:"total_cloud_tco"`
}
