// ABOUTME: Tests for the cost model, migration months, and the 12-month projection
// ABOUTME: Includes property tests for the pricing-model cost ordering

package services

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/markalston/migration-planner/catalog"
	"github.com/markalston/migration-planner/models"
)

func TestCost_RoundsToCents(t *testing.T) {
	m := NewCostModel(testCatalog(t))

	got, err := m.Cost(10.005, "eastus", "pay_as_you_go")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != 10.01 {
		t.Errorf("Expected 10.01, got %v", got)
	}
}

func TestCost_UnknownInputs(t *testing.T) {
	m := NewCostModel(testCatalog(t))

	if _, err := m.Cost(1, "nowhere", "pay_as_you_go"); !errors.Is(err, ErrUnknownRegion) {
		t.Errorf("Expected ErrUnknownRegion, got %v", err)
	}
	_, err := m.Cost(1, "eastus", "free")
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "pricing model" {
		t.Errorf("Expected pricing model ValidationError, got %v", err)
	}
}

func TestOfferingCost_PerOfferingTablesWin(t *testing.T) {
	c, err := catalog.New(
		[]models.Region{{ID: "eastus", Multiplier: 1.0}, {ID: "westeurope", Multiplier: 1.1}},
		testPricingModels(),
		[]models.Offering{{
			ID: "special", VCPU: 2, MemoryGB: 8, MaxDiskGB: 512, HourlyPrice: 1,
			RegionMultipliers: map[string]float64{"westeurope": 1.5},
			PricingFactors: map[string]float64{
				"1_year_ri": 0.5, "3_year_ri": 0.3, "savings_plan_1yr": 0.5, "savings_plan_3yr": 0.3,
			},
		}},
		nil,
	)
	if err != nil {
		t.Fatalf("Unexpected catalog error: %v", err)
	}
	m := NewCostModel(c)
	o, _ := c.Offering("special")

	got, err := m.OfferingCost(o, "westeurope", "1_year_ri")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	// 730 × 1.5 × 0.5
	if got != 547.5 {
		t.Errorf("Expected 547.5, got %v", got)
	}
}

func TestMigrationMonth(t *testing.T) {
	tests := []struct {
		wave, waves, want int
	}{
		{1, 1, 6},
		{1, 3, 3},
		{2, 3, 6},
		{3, 3, 9},
		{1, 11, 1},
		{11, 11, 11},
		{1, 12, 1},
		{12, 12, 12},
		{14, 20, 14},
	}
	for _, tt := range tests {
		if got := MigrationMonth(tt.wave, tt.waves); got != tt.want {
			t.Errorf("MigrationMonth(%d, %d): expected %d, got %d", tt.wave, tt.waves, tt.want, got)
		}
	}
}

func TestProject(t *testing.T) {
	entries := []ProjectionEntry{
		{OnPrem: 200, Target: 100, Month: 3},
		{OnPrem: 50, Target: 80, Month: 6},
	}
	points := Project(entries)

	if len(points) != models.ProjectionMonths {
		t.Fatalf("Expected %d points, got %d", models.ProjectionMonths, len(points))
	}
	if points[0].Total != 250 || points[0].Migrated != 0 {
		t.Errorf("Month 1: expected 250 on-prem with nothing migrated, got %+v", points[0])
	}
	if points[2].OnPrem != 50 || points[2].Target != 100 || points[2].Migrated != 1 {
		t.Errorf("Month 3: expected one entity migrated, got %+v", points[2])
	}
	if points[11].Total != 180 || points[11].Migrated != 2 {
		t.Errorf("Month 12: expected both migrated at 180, got %+v", points[11])
	}
	// 2 × 250 + 3 × 150 + 7 × 180
	if points[11].Cumulative != 2210 {
		t.Errorf("Expected cumulative 2210, got %v", points[11].Cumulative)
	}
}

func TestServiceBase_UsageShape(t *testing.T) {
	shape := models.PricingShape{Kind: models.PricingUsage, Base: 100, PerUnit: 2.5, Unit: models.UnitConnections, MinUnits: 10}
	if got := ServiceBase(shape, UsageHint{Usage: models.ResourceUsage{Connections: 40}}); got != 200 {
		t.Errorf("Expected 200, got %v", got)
	}
	if got := ServiceBase(shape, UsageHint{}); got != 125 {
		t.Errorf("Expected min units to give 125, got %v", got)
	}
}

func TestProperty_PricingModelOrdering(t *testing.T) {
	c := testCatalog(t)
	m := NewCostModel(c)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	cost := func(base float64, region, pm string) float64 {
		v, err := m.Cost(base, region, pm)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		return v
	}

	properties.Property("payg >= 1yr >= 3yr and savings plans <= reservations", prop.ForAll(
		func(base float64, west bool) bool {
			region := "eastus"
			if west {
				region = "westeurope"
			}
			payg := cost(base, region, "pay_as_you_go")
			ri1 := cost(base, region, "1_year_ri")
			ri3 := cost(base, region, "3_year_ri")
			sp1 := cost(base, region, "savings_plan_1yr")
			sp3 := cost(base, region, "savings_plan_3yr")
			return payg >= ri1 && ri1 >= ri3 && sp1 <= ri1 && sp3 <= ri3
		},
		gen.Float64Range(0, 100000),
		gen.Bool(),
	))

	properties.Property("catalog rejects factor sets that break the ordering", prop.ForAll(
		func(ri1, ri3, sp1 float64) bool {
			pricing := []models.PricingModel{
				{ID: "payg", Kind: models.PurchasePayAsYouGo, Factor: 1},
				{ID: "ri1", Kind: models.PurchaseReservation, Factor: ri1, CommitmentYears: 1},
				{ID: "ri3", Kind: models.PurchaseReservation, Factor: ri3, CommitmentYears: 3},
				{ID: "sp1", Kind: models.PurchaseSavingsPlan, Factor: sp1, CommitmentYears: 1},
			}
			ordered := ri3 <= ri1 && sp1 <= ri1
			err := catalog.CheckPricingOrder(pricing, nil)
			return ordered == (err == nil)
		},
		gen.Float64Range(0.01, 1),
		gen.Float64Range(0.01, 1),
		gen.Float64Range(0.01, 1),
	))

	properties.TestingRun(t)
}
