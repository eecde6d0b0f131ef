// ABOUTME: Tests for the workload mapper rule precedence and usage pricing
// ABOUTME: Version-range match beats engine default; unknown engines fall back

package services

import (
	"errors"
	"testing"

	"github.com/markalston/migration-planner/models"
)

func newTestMapper(t *testing.T) *WorkloadMapper {
	c := testCatalog(t)
	return NewWorkloadMapper(c, NewCostModel(c))
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2019", "2019.0.0", true},
		{"8.0.32-log", "8.0.32", true},
		{"1.8.0_292", "1.8.0", true},
		{"v1.27.3", "1.27.3", true},
		{"15.4", "15.4.0", true},
		{"", "", false},
		{"latest", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, ok := ParseVersion(tt.in)
			if ok != tt.ok {
				t.Fatalf("Expected ok=%v, got %v", tt.ok, ok)
			}
			if ok && v.String() != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, v.String())
			}
		})
	}
}

func TestWorkloadMatch_Precedence(t *testing.T) {
	m := newTestMapper(t)

	tests := []struct {
		name    string
		w       models.WorkloadRecord
		wantID  string
		wantHow MatchKind
	}{
		{"version range", models.WorkloadRecord{Engine: "mssql", Version: "2008"}, "mssql-legacy", MatchVersion},
		{"outside range uses default", models.WorkloadRecord{Engine: "mssql", Version: "2019"}, "mssql", MatchDefault},
		{"no version uses default", models.WorkloadRecord{Engine: "mssql"}, "mssql", MatchDefault},
		{"unknown engine", models.WorkloadRecord{Engine: "db2", Version: "11.5"}, "", MatchFallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, how := m.Match(tt.w)
			if how != tt.wantHow {
				t.Errorf("Expected match kind %s, got %s", tt.wantHow, how)
			}
			if p.ID != tt.wantID {
				t.Errorf("Expected playbook %q, got %q", tt.wantID, p.ID)
			}
		})
	}
}

func TestWorkloadRecommend_Confidence(t *testing.T) {
	m := newTestMapper(t)

	tests := []struct {
		name    string
		version string
		want    float64
	}{
		{"range match", "2008", 1.0},
		{"default match", "2019", 0.8},
		{"unknown version", "", 0.65},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := models.WorkloadRecord{VMName: "db01", Engine: "mssql", Port: 1433, Version: tt.version}
			rec, err := m.Recommend(w, 4, "eastus", "pay_as_you_go")
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if rec.Confidence != tt.want {
				t.Errorf("Expected confidence %v, got %v", tt.want, rec.Confidence)
			}
		})
	}
}

func TestWorkloadRecommend_FlatPricing(t *testing.T) {
	m := newTestMapper(t)

	w := models.WorkloadRecord{VMName: "db01", Category: models.CategoryDatabase, Engine: "mssql", Port: 1433, Version: "2019"}
	rec, err := m.Recommend(w, 4, "eastus", "1_year_ri")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if rec.Key != "db01/mssql:1433" {
		t.Errorf("Expected key db01/mssql:1433, got %s", rec.Key)
	}
	if rec.MonthlyCost != 155 {
		t.Errorf("Expected 250 × 0.62 = 155, got %v", rec.MonthlyCost)
	}
	if rec.Approach != models.ApproachReplatform || rec.Complexity != models.ComplexityMedium {
		t.Errorf("Expected replatform/medium, got %s/%s", rec.Approach, rec.Complexity)
	}
	if len(rec.Steps) != 2 {
		t.Errorf("Expected 2 steps, got %d", len(rec.Steps))
	}
	if rec.Readiness != models.ReadinessReady {
		t.Errorf("Expected ready, got %s", rec.Readiness)
	}
}

func TestWorkloadRecommend_UsagePricing(t *testing.T) {
	m := newTestMapper(t)

	tests := []struct {
		name     string
		w        models.WorkloadRecord
		hostVCPU int
		want     float64
	}{
		{
			name: "memory units round up",
			w:    models.WorkloadRecord{VMName: "cache01", Engine: "redis", Port: 6379, Version: "7.0", Usage: models.ResourceUsage{MemoryMB: 2500}},
			want: 25, // 10 + 5 × 3
		},
		{
			name: "min units apply",
			w:    models.WorkloadRecord{VMName: "cache01", Engine: "redis", Port: 6379, Version: "7.0"},
			want: 15, // 10 + 5 × 1
		},
		{
			name:     "vcpu equivalent from host",
			w:        models.WorkloadRecord{VMName: "app01", Engine: "containerd", Port: 0, Version: "1.7", Usage: models.ResourceUsage{CPUPercent: 50}},
			hostVCPU: 8,
			want:     160, // ceil(0.5 × 8) × 40
		},
		{
			name: "vcpu equivalent without host",
			w:    models.WorkloadRecord{VMName: "app01", Engine: "containerd", Port: 0, Version: "1.7", Usage: models.ResourceUsage{CPUPercent: 50}},
			want: 40,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := m.Recommend(tt.w, tt.hostVCPU, "eastus", "pay_as_you_go")
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if rec.MonthlyCost != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, rec.MonthlyCost)
			}
		})
	}
}

func TestWorkloadRecommend_Fallback(t *testing.T) {
	m := newTestMapper(t)

	w := models.WorkloadRecord{VMName: "mf01", Engine: "db2", Port: 50000, Version: "11.5"}
	rec, err := m.Recommend(w, 4, "eastus", "pay_as_you_go")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if rec.Target != AssessmentNeeded {
		t.Errorf("Expected %s, got %s", AssessmentNeeded, rec.Target)
	}
	if rec.Complexity != models.ComplexityHigh {
		t.Errorf("Expected high complexity, got %s", rec.Complexity)
	}
	if rec.Confidence != 0 || rec.MonthlyCost != 0 {
		t.Errorf("Expected zero confidence and cost, got %v and %v", rec.Confidence, rec.MonthlyCost)
	}
	if len(rec.Issues) != 1 || rec.Issues[0].Severity != models.SeverityMedium {
		t.Errorf("Expected one medium issue, got %+v", rec.Issues)
	}

	_, err = m.Recommend(w, 4, "eastus", "bogus")
	if !errors.Is(err, ErrUnknownPricingModel) {
		t.Errorf("Expected ErrUnknownPricingModel for fallback, got %v", err)
	}
}

func TestWorkloadRecommend_SupplementIssues(t *testing.T) {
	m := newTestMapper(t)

	oracle := models.WorkloadRecord{VMName: "erp01", Engine: "oracle", Port: 1521, Version: "19.3"}
	rec, err := m.Recommend(oracle, 8, "eastus", "pay_as_you_go")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if rec.Readiness != models.ReadinessWithIssues {
		t.Errorf("Expected oracle licensing to make ready-with-issues, got %s", rec.Readiness)
	}

	docker := models.WorkloadRecord{
		VMName: "build01", Category: models.CategoryContainer, Engine: "docker", Port: 2375, Version: "24.0",
		Usage: models.ResourceUsage{Instances: 25},
	}
	rec, err = m.Recommend(docker, 8, "eastus", "pay_as_you_go")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if rec.MonthlyCost != 73+45*25 {
		t.Errorf("Expected %v, got %v", 73+45*25, rec.MonthlyCost)
	}
	if len(rec.Issues) != 1 || rec.Issues[0].Severity != models.SeverityLow {
		t.Errorf("Expected one low container-count issue, got %+v", rec.Issues)
	}
	if rec.Readiness != models.ReadinessReady {
		t.Errorf("Expected ready, got %s", rec.Readiness)
	}
}

func TestWorkloadRecommendWithTarget(t *testing.T) {
	m := newTestMapper(t)

	w := models.WorkloadRecord{VMName: "db01", Engine: "mssql", Port: 1433, Version: "2008"}
	rec, err := m.RecommendWithTarget(w, 4, "mssql", "eastus", "pay_as_you_go")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if rec.Target != "mssql" || rec.MonthlyCost != 250 {
		t.Errorf("Expected mssql at 250, got %s at %v", rec.Target, rec.MonthlyCost)
	}

	rec, err = m.RecommendWithTarget(w, 4, "redis", "eastus", "pay_as_you_go")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if rec.Confidence != 0.5 || rec.Readiness != models.ReadinessWithIssues {
		t.Errorf("Expected cross-engine override at 0.5 with issues, got %v %s", rec.Confidence, rec.Readiness)
	}

	_, err = m.RecommendWithTarget(w, 4, "missing", "eastus", "pay_as_you_go")
	if !errors.Is(err, ErrUnknownTarget) {
		t.Errorf("Expected ErrUnknownTarget, got %v", err)
	}
}
