// ABOUTME: Shared fixtures for services tests
// ABOUTME: A small catalog with $100 and $180 tiers plus a few playbooks

package services

import (
	"fmt"
	"testing"

	"github.com/markalston/migration-planner/catalog"
	"github.com/markalston/migration-planner/models"
)

func testPricingModels() []models.PricingModel {
	return []models.PricingModel{
		{ID: "pay_as_you_go", Kind: models.PurchasePayAsYouGo, Factor: 1.0},
		{ID: "1_year_ri", Kind: models.PurchaseReservation, Factor: 0.62, CommitmentYears: 1},
		{ID: "3_year_ri", Kind: models.PurchaseReservation, Factor: 0.40, CommitmentYears: 3},
		{ID: "savings_plan_1yr", Kind: models.PurchaseSavingsPlan, Factor: 0.60, CommitmentYears: 1},
		{ID: "savings_plan_3yr", Kind: models.PurchaseSavingsPlan, Factor: 0.38, CommitmentYears: 3},
	}
}

func testOfferings() []models.Offering {
	return []models.Offering{
		{ID: "small", Family: "general", VCPU: 2, MemoryGB: 8, MaxDiskGB: 1024, MaxDataDisks: 8, HourlyPrice: 100.0 / models.HoursPerMonth},
		{ID: "large", Family: "general", VCPU: 4, MemoryGB: 16, MaxDiskGB: 2048, MaxDataDisks: 16, HourlyPrice: 180.0 / models.HoursPerMonth},
	}
}

func testPlaybooks() []models.Playbook {
	return []models.Playbook{
		{
			ID: "mssql-legacy", Category: models.CategoryDatabase, Engine: "mssql", Versions: "<2012.0.0",
			Service: "SQL Managed Instance", Approach: models.ApproachReplatform, Complexity: models.ComplexityHigh,
			Pricing: models.PricingShape{Kind: models.PricingFlat, Monthly: 400},
		},
		{
			ID: "mssql", Category: models.CategoryDatabase, Engine: "mssql",
			Service: "Azure SQL Database", Approach: models.ApproachReplatform, Complexity: models.ComplexityMedium,
			Steps:         []string{"Assess with DMA", "Migrate with DMS"},
			Pricing:       models.PricingShape{Kind: models.PricingFlat, Monthly: 250},
			OnPremMonthly: 300,
		},
		{
			ID: "oracle", Category: models.CategoryDatabase, Engine: "oracle",
			Service: "Oracle on IaaS", Approach: models.ApproachRehost, Complexity: models.ComplexityHigh,
			Pricing: models.PricingShape{Kind: models.PricingFlat, Monthly: 900},
		},
		{
			ID: "redis", Category: models.CategoryDatabase, Engine: "redis",
			Service: "Azure Cache for Redis", Approach: models.ApproachReplatform, Complexity: models.ComplexityLow,
			Pricing: models.PricingShape{Kind: models.PricingUsage, Base: 10, PerUnit: 5, Unit: models.UnitMemoryGB, MinUnits: 1},
		},
		{
			ID: "containerd", Category: models.CategoryContainer, Engine: "containerd",
			Service: "Azure Container Apps", Approach: models.ApproachReplatform, Complexity: models.ComplexityMedium,
			Pricing: models.PricingShape{Kind: models.PricingUsage, Base: 0, PerUnit: 40, Unit: models.UnitVCPUEquivalent},
		},
		{
			ID: "docker", Category: models.CategoryContainer, Engine: "docker",
			Service: "Azure Kubernetes Service", Approach: models.ApproachReplatform, Complexity: models.ComplexityMedium,
			Pricing: models.PricingShape{Kind: models.PricingUsage, Base: 73, PerUnit: 45, Unit: models.UnitInstances, MinUnits: 1},
		},
	}
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(
		[]models.Region{{ID: "eastus", Multiplier: 1.0}, {ID: "westeurope", Multiplier: 1.1}},
		testPricingModels(),
		testOfferings(),
		testPlaybooks(),
	)
	if err != nil {
		t.Fatalf("building test catalog: %v", err)
	}
	return c.WithOnPremRates(models.OnPremRates{
		PerVCPU:         14,
		PerGBRAM:        3.5,
		StoragePerTB:    40,
		WindowsLicense:  15,
		LinuxLicense:    8,
		SecurityPerVM:   5,
		BackupPerVM:     12,
		FacilitiesPerVM: 10,
	}).WithBusinessCase(models.BusinessCaseAssumptions{
		OnPremGrowth:         0.03,
		CloudGrowth:          0.01,
		MigrationTooling:     5000,
		Training:             10000,
		ServicesPerEntity:    150,
		CloudOpsPerVM:        18,
		DefaultAnalysisYears: 3,
	})
}

func web01() models.VmProfile {
	return models.VmProfile{
		Name:       "web01",
		PowerState: models.PowerOn,
		OSFamily:   "linux",
		OSVersion:  "Ubuntu 22.04",
		VCPU:       2,
		MemoryMB:   8192,
		Disks:      []models.Disk{{Label: "disk0", SizeGB: 100}},
	}
}

// fleet builds n small VMs named vm00..vmNN
func fleet(n int) []models.VmProfile {
	vms := make([]models.VmProfile, n)
	for i := range vms {
		vm := web01()
		vm.Name = fmt.Sprintf("vm%02d", i)
		vms[i] = vm
	}
	return vms
}
