// ABOUTME: Recommendation records for VMs and workloads
// ABOUTME: Carries readiness, confidence, monthly cost, and detected issues

package models

import "sort"

// EntityKind distinguishes VM recommendations from workload recommendations
type EntityKind string

const (
	KindVM       EntityKind = "vm"
	KindWorkload EntityKind = "workload"
)

// Readiness is the categorical migration readiness of an entity
type Readiness string

const (
	ReadinessReady      Readiness = "ready"
	ReadinessWithIssues Readiness = "ready-with-issues"
	ReadinessNotReady   Readiness = "not-ready"
)

// Severity ranks an issue
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank orders severities low < medium < high
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Issue is a single finding attached to a recommendation or run
type Issue struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Message  string   `json:"message" yaml:"message"`
}

// Recommendation is the selected target for one VM or workload
type Recommendation struct {
	Key          string            `json:"key" yaml:"key"`
	Kind         EntityKind        `json:"kind" yaml:"kind"`
	Target       string            `json:"target" yaml:"target"`
	TargetName   string            `json:"target_name,omitempty" yaml:"target_name,omitempty"`
	Region       string            `json:"region" yaml:"region"`
	PricingModel string            `json:"pricing_model" yaml:"pricing_model"`
	MonthlyCost  float64           `json:"monthly_cost" yaml:"monthly_cost"`
	Readiness    Readiness         `json:"readiness" yaml:"readiness"`
	Confidence   float64           `json:"confidence" yaml:"confidence"`
	Issues       []Issue           `json:"issues,omitempty" yaml:"issues,omitempty"`
	Approach     MigrationApproach `json:"approach,omitempty" yaml:"approach,omitempty"`
	Complexity   Complexity        `json:"complexity,omitempty" yaml:"complexity,omitempty"`
	Steps        []string          `json:"steps,omitempty" yaml:"steps,omitempty"`
	Alternatives []string          `json:"alternatives,omitempty" yaml:"alternatives,omitempty"`

	ComputeMonthly float64          `json:"compute_monthly,omitempty" yaml:"compute_monthly,omitempty"`
	Storage        *StorageEstimate `json:"storage,omitempty" yaml:"storage,omitempty"`
	Observed       *PerfStats       `json:"observed,omitempty" yaml:"observed,omitempty"`
	Notes          []string         `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// StorageEstimate is the managed disk cost included in a VM recommendation
type StorageEstimate struct {
	Tier          string  `json:"tier" yaml:"tier"`
	TierName      string  `json:"tier_name,omitempty" yaml:"tier_name,omitempty"`
	ProvisionedGB float64 `json:"provisioned_gb" yaml:"provisioned_gb"`
	Monthly       float64 `json:"monthly" yaml:"monthly"`
}

// HighestSeverity returns the most severe issue level present, or "" if none
func (r Recommendation) HighestSeverity() Severity {
	var top Severity
	for _, issue := range r.Issues {
		if issue.Severity.Rank() > top.Rank() {
			top = issue.Severity
		}
	}
	return top
}

// SortRecommendations orders recommendations by kind then key
func SortRecommendations(recs []Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Kind != recs[j].Kind {
			return recs[i].Kind == KindVM
		}
		return recs[i].Key < recs[j].Key
	})
}
