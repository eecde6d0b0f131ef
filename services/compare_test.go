// ABOUTME: Tests for the offering cost matrix and the fleet summary rollup
// ABOUTME: Uses the fixture catalog with and without disk tiers

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/markalston/migration-planner/cache"
	"github.com/markalston/migration-planner/metrics"
	"github.com/markalston/migration-planner/models"
)

func option(t *testing.T, c models.OfferingComparison, id string) models.OfferingOption {
	t.Helper()
	for _, o := range c.Options {
		if o.Offering == id {
			return o
		}
	}
	t.Fatalf("Expected option %s in %+v", id, c.Options)
	return models.OfferingOption{}
}

func TestCompareOfferings_Matrix(t *testing.T) {
	p := newTestPlanner(t)
	snap := &models.Snapshot{ID: "cmp", VMs: []models.VmProfile{web01()}}

	c, err := p.CompareOfferings(context.Background(), snap, "eastus", "pay_as_you_go", "web01", nil, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(c.Regions) != 2 || len(c.PricingModels) != 5 {
		t.Errorf("Expected every region and pricing model, got %v and %v", c.Regions, c.PricingModels)
	}
	if len(c.Options) != 2 {
		t.Fatalf("Expected one option per offering, got %d", len(c.Options))
	}
	if c.Current != "small" || c.CurrentCost != 100 {
		t.Errorf("Expected current small at 100, got %s at %v", c.Current, c.CurrentCost)
	}
	if c.Cheapest != "small" || c.CheapestCost != 100 {
		t.Errorf("Expected cheapest small at 100, got %s at %v", c.Cheapest, c.CheapestCost)
	}

	small := option(t, c, "small")
	if !small.Fits || !small.Current || small.BaseCost != 100 {
		t.Errorf("Expected small to fit and be current, got %+v", small)
	}
	large := option(t, c, "large")
	if !large.Fits || large.Current {
		t.Errorf("Expected large to fit and not be current, got %+v", large)
	}

	tests := []struct {
		offering string
		region   string
		pricing  string
		want     float64
	}{
		{"small", "eastus", "pay_as_you_go", 100},
		{"small", "westeurope", "3_year_ri", 44},
		{"large", "westeurope", "pay_as_you_go", 198},
		{"large", "eastus", "1_year_ri", 111.6},
	}
	for _, tt := range tests {
		got, ok := option(t, c, tt.offering).Cost(tt.region, tt.pricing)
		if !ok || got != tt.want {
			t.Errorf("%s %s %s: expected %v, got %v", tt.offering, tt.region, tt.pricing, tt.want, got)
		}
	}
}

func TestCompareOfferings_FitsFlag(t *testing.T) {
	p := newTestPlanner(t)
	vm := web01()
	vm.VCPU = 4
	snap := &models.Snapshot{VMs: []models.VmProfile{vm}}

	c, err := p.CompareOfferings(context.Background(), snap, "eastus", "pay_as_you_go", "web01", []string{"eastus"}, []string{"pay_as_you_go"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if option(t, c, "small").Fits {
		t.Error("Expected a 2 vCPU offering not to fit a 4 vCPU VM")
	}
	if c.Current != "large" || c.Cheapest != "large" {
		t.Errorf("Expected large as current and cheapest fitting, got %s and %s", c.Current, c.Cheapest)
	}
	if len(option(t, c, "small").Costs) != 1 {
		t.Errorf("Expected only the requested region, got %v", option(t, c, "small").Costs)
	}
}

func TestCompareOfferings_IncludesStorage(t *testing.T) {
	baselines := cache.New[[]models.Recommendation](time.Minute)
	t.Cleanup(baselines.Close)
	p := NewPlanner(storageCatalog(t), DefaultSizingWeights(), baselines, metrics.New())
	snap := &models.Snapshot{ID: "cmp", VMs: []models.VmProfile{web01()}}

	c, err := p.CompareOfferings(context.Background(), snap, "eastus", "pay_as_you_go", "web01", nil, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if c.Storage == nil || c.Storage.Tier != "ssd" {
		t.Fatalf("Expected default tier storage, got %+v", c.Storage)
	}
	if c.StorageCosts["westeurope"] != 5.63 {
		t.Errorf("Expected regional storage 5.63, got %v", c.StorageCosts["westeurope"])
	}

	small := option(t, c, "small")
	if got, _ := small.Cost("eastus", "pay_as_you_go"); got != 105.12 {
		t.Errorf("Expected 105.12, got %v", got)
	}
	// Storage is not discounted by the commitment
	if got, _ := small.Cost("westeurope", "3_year_ri"); got != 49.63 {
		t.Errorf("Expected 49.63, got %v", got)
	}
	if c.CurrentCost != 105.12 || c.CheapestCost != 105.12 {
		t.Errorf("Expected current and cheapest to include storage, got %v and %v", c.CurrentCost, c.CheapestCost)
	}
}

func TestCompareOfferings_ObservedUsage(t *testing.T) {
	p := newTestPlanner(t)
	p.ObserveUsage(usageFunc(func(key string, from, to time.Time) (models.PerfStats, bool) {
		return *observed(20, 30, 100), true
	}), time.Hour, func() time.Time { return fixedNow })
	snap := &models.Snapshot{VMs: []models.VmProfile{web01()}}

	c, err := p.CompareOfferings(context.Background(), snap, "eastus", "pay_as_you_go", "web01", nil, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if c.Observed == nil || c.Observed.Samples != 96 {
		t.Errorf("Expected observed stats, got %+v", c.Observed)
	}
}

func TestCompareOfferings_Errors(t *testing.T) {
	p := newTestPlanner(t)
	snap := mixedSnapshot()

	tests := []struct {
		name       string
		key        string
		regions    []string
		pricing    []string
		want       error
		validation bool
	}{
		{"unknown key", "nope", nil, nil, ErrNotFound, false},
		{"workload key", "vm00/mssql:1433", nil, nil, ErrNotVM, true},
		{"unknown region", "vm00", []string{"eastus", "moon"}, nil, ErrUnknownRegion, true},
		{"unknown pricing", "vm00", nil, []string{"free"}, ErrUnknownPricingModel, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.CompareOfferings(context.Background(), snap, "eastus", "pay_as_you_go", tt.key, tt.regions, tt.pricing)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
			if IsValidation(err) != tt.validation {
				t.Errorf("Expected validation=%v, got %T", tt.validation, err)
			}
		})
	}
}

func TestSummary_Rollup(t *testing.T) {
	p := newTestPlanner(t)
	snap := mixedSnapshot()
	snap.VMs[0].Folder = "prod"
	snap.VMs[1].Folder = "prod"
	snap.VMs[1].OSFamily = "windows"
	snap.VMs[1].OSVersion = "Windows Server 2019"
	snap.VMs[2].PowerState = models.PowerOff
	snap.VMs[0].Host = "esx01"
	snap.VMs[1].Host = "esx01"
	snap.VMs[2].Host = "esx02"

	s, err := p.Summary(context.Background(), snap, "eastus", "pay_as_you_go")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if s.VMs != 3 || s.Workloads != 2 {
		t.Errorf("Expected 3 VMs and 2 workloads, got %d and %d", s.VMs, s.Workloads)
	}
	if s.PoweredOn != 2 || s.PoweredOff != 1 {
		t.Errorf("Expected 2 on and 1 off, got %d and %d", s.PoweredOn, s.PoweredOff)
	}
	if s.Windows != 1 || s.Linux != 2 || s.OtherOS != 0 {
		t.Errorf("Expected 1 windows and 2 linux, got %d/%d/%d", s.Windows, s.Linux, s.OtherOS)
	}
	if s.TotalVCPU != 8 || s.TotalMemoryGB != 32 || s.Hosts != 2 {
		t.Errorf("Expected 8 vCPU, 32 GB on 2 hosts, got %d, %v, %d", s.TotalVCPU, s.TotalMemoryGB, s.Hosts)
	}
	if s.Ready+s.WithIssues+s.NotReady != 5 {
		t.Errorf("Expected readiness over every entity, got %d/%d/%d", s.Ready, s.WithIssues, s.NotReady)
	}
	if s.Targets["small"] != 2 || s.Targets["large"] != 1 {
		t.Errorf("Expected 2 small and 1 large, got %v", s.Targets)
	}
	if s.Families["general"] != 3 || s.Families["database"] != 2 {
		t.Errorf("Expected 3 general and 2 database, got %v", s.Families)
	}
	if s.CostByFamily["general"] != 380 {
		t.Errorf("Expected general family cost 380, got %v", s.CostByFamily["general"])
	}
	if s.Folders["prod"] != 2 || s.Folders[unknownLabel] != 1 {
		t.Errorf("Expected 2 prod and 1 unknown folder, got %v", s.Folders)
	}

	var familyTotal float64
	for _, cost := range s.CostByFamily {
		familyTotal += cost
	}
	if RoundCents(familyTotal) != s.MonthlyCost {
		t.Errorf("Expected family costs to sum to %v, got %v", s.MonthlyCost, familyTotal)
	}
	if s.AnnualCost != RoundCents(s.MonthlyCost*12) {
		t.Errorf("Expected annual cost of 12 months, got %v", s.AnnualCost)
	}
	if s.OnPremMonthly <= 0 {
		t.Errorf("Expected an on-prem run rate, got %v", s.OnPremMonthly)
	}
}

func TestSummary_MatchesFleetRecommendations(t *testing.T) {
	e := newTestEngine(t)
	e.LoadSnapshot(*mixedSnapshot())

	recs, err := e.RecommendFleet(context.Background(), "westeurope", "1_year_ri")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	s, err := e.FleetSummary(context.Background(), "westeurope", "1_year_ri")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var total float64
	ready := 0
	for _, rec := range recs {
		total += rec.MonthlyCost
		if rec.Readiness == models.ReadinessReady {
			ready++
		}
	}
	if RoundCents(total) != s.MonthlyCost {
		t.Errorf("Expected summary cost %v to match fleet %v", s.MonthlyCost, RoundCents(total))
	}
	if ready != s.Ready {
		t.Errorf("Expected %d ready, got %d", ready, s.Ready)
	}

	if _, err := e.FleetSummary(context.Background(), "moon", "1_year_ri"); !IsValidation(err) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestEngine_CompareOfferings(t *testing.T) {
	e := newTestEngine(t)
	e.LoadSnapshot(*mixedSnapshot())

	c, err := e.CompareOfferings(context.Background(), "vm01", "eastus", "pay_as_you_go", []string{"westeurope"}, []string{"3_year_ri"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if c.Current != "large" {
		t.Errorf("Expected large for a 4 vCPU VM, got %s", c.Current)
	}
	// 180 × 1.1 × 0.40
	if got, _ := option(t, c, "large").Cost("westeurope", "3_year_ri"); got != 79.2 {
		t.Errorf("Expected 79.2, got %v", got)
	}
}
