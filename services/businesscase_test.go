package services

import (
	"testing"

	"github.com/markalston/migration-planner/models"
)

func testAssumptions() models.BusinessCaseAssumptions {
	return models.BusinessCaseAssumptions{
		OnPremGrowth:         0.03,
		CloudGrowth:          0.01,
		MigrationTooling:     5000,
		Training:             10000,
		ServicesPerEntity:    150,
		CloudOpsPerVM:        18,
		DefaultAnalysisYears: 3,
	}
}

func TestBuildBusinessCase(t *testing.T) {
	result := models.SimulationResult{
		LineItems: []models.LineItem{
			{Key: "a", Kind: models.KindVM},
			{Key: "b", Kind: models.KindVM},
			{Key: "b/mssql:1433", Kind: models.KindWorkload},
		},
		TotalOnPremMonthly: 3000,
		TotalMonthly:       1964,
	}

	bc := BuildBusinessCase(result, testAssumptions(), 0)

	if bc.Years != 3 {
		t.Errorf("Expected default horizon of 3 years, got %d", bc.Years)
	}
	// 1964 + 2 × 18
	if bc.CloudMonthly != 2000 {
		t.Errorf("Expected cloud monthly 2000, got %v", bc.CloudMonthly)
	}
	if bc.MonthlySavings != 1000 {
		t.Errorf("Expected monthly savings 1000, got %v", bc.MonthlySavings)
	}
	if bc.SavingsPct != 33.3 {
		t.Errorf("Expected 33.3%% savings, got %v", bc.SavingsPct)
	}
	// 5000 + 10000 + 3 × 150
	if bc.MigrationOneTime != 15450 {
		t.Errorf("Expected one-time 15450, got %v", bc.MigrationOneTime)
	}
	if bc.PaybackMonths != 16 {
		t.Errorf("Expected payback in 16 months, got %d", bc.PaybackMonths)
	}

	if len(bc.Projection) != 3 {
		t.Fatalf("Expected 3 years, got %d", len(bc.Projection))
	}
	y2 := bc.Projection[1]
	if y2.OnPremCost != 37080 || y2.CloudCost != 24240 {
		t.Errorf("Expected year 2 costs 37080/24240, got %v/%v", y2.OnPremCost, y2.CloudCost)
	}
	if bc.Projection[0].CumulativeSavings != -3450 {
		t.Errorf("Expected year 1 cumulative -3450, got %v", bc.Projection[0].CumulativeSavings)
	}
}

func TestBuildBusinessCase_NoSavings(t *testing.T) {
	result := models.SimulationResult{
		LineItems:          []models.LineItem{{Key: "a", Kind: models.KindVM}},
		TotalOnPremMonthly: 100,
		TotalMonthly:       200,
	}

	bc := BuildBusinessCase(result, testAssumptions(), 5)
	if bc.PaybackMonths != -1 {
		t.Errorf("Expected no payback (-1), got %d", bc.PaybackMonths)
	}
	if len(bc.Projection) != 5 {
		t.Errorf("Expected 5 years, got %d", len(bc.Projection))
	}
}
