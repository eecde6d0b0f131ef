// ABOUTME: Read-only catalog records for offerings, playbooks, regions, and pricing
// ABOUTME: Loaded once per process and never mutated afterwards

package models

import "math"

// HoursPerMonth converts hourly list prices to monthly cost
const HoursPerMonth = 730

// Region is a target region and its price multiplier
type Region struct {
	ID         string  `json:"id" yaml:"id" koanf:"id"`
	Name       string  `json:"name,omitempty" yaml:"name,omitempty" koanf:"name"`
	Multiplier float64 `json:"multiplier" yaml:"multiplier" koanf:"multiplier"`
}

// PurchaseKind classifies a pricing model for the discount ordering rules
type PurchaseKind string

const (
	PurchasePayAsYouGo  PurchaseKind = "payg"
	PurchaseReservation PurchaseKind = "reservation"
	PurchaseSavingsPlan PurchaseKind = "savings_plan"
	PurchaseOther       PurchaseKind = "other"
)

// PricingModel is a purchase option and its discount factor
type PricingModel struct {
	ID              string       `json:"id" yaml:"id" koanf:"id"`
	Name            string       `json:"name,omitempty" yaml:"name,omitempty" koanf:"name"`
	Kind            PurchaseKind `json:"kind" yaml:"kind" koanf:"kind"`
	Factor          float64      `json:"factor" yaml:"factor" koanf:"factor"`
	CommitmentYears int          `json:"commitment_years,omitempty" yaml:"commitment_years,omitempty" koanf:"commitment_years"`
}

// Offering is one infrastructure tier in the catalog
type Offering struct {
	ID                string             `json:"id" yaml:"id" koanf:"id"`
	Family            string             `json:"family" yaml:"family" koanf:"family"`
	VCPU              int                `json:"vcpu" yaml:"vcpu" koanf:"vcpu"`
	MemoryGB          float64            `json:"memory_gb" yaml:"memory_gb" koanf:"memory_gb"`
	MaxDiskGB         float64            `json:"max_disk_gb" yaml:"max_disk_gb" koanf:"max_disk_gb"`
	MaxDataDisks      int                `json:"max_data_disks,omitempty" yaml:"max_data_disks,omitempty" koanf:"max_data_disks"`
	HourlyPrice       float64            `json:"hourly_price" yaml:"hourly_price" koanf:"hourly_price"`
	RegionMultipliers map[string]float64 `json:"region_multipliers,omitempty" yaml:"region_multipliers,omitempty" koanf:"region_multipliers"`
	PricingFactors    map[string]float64 `json:"pricing_factors,omitempty" yaml:"pricing_factors,omitempty" koanf:"pricing_factors"`
}

// MemoryMB returns offering memory in MB for comparison with VM profiles
func (o Offering) MemoryMB() float64 {
	return o.MemoryGB * 1024
}

// MonthlyBase returns the undiscounted monthly list price
func (o Offering) MonthlyBase() float64 {
	return o.HourlyPrice * HoursPerMonth
}

// DiskTier is a managed disk class. Tiers are declared from least to most
// capable; disks are provisioned in the listed size steps.
type DiskTier struct {
	ID         string             `json:"id" yaml:"id" koanf:"id"`
	Name       string             `json:"name,omitempty" yaml:"name,omitempty" koanf:"name"`
	MaxIOPS    float64            `json:"max_iops" yaml:"max_iops" koanf:"max_iops"`
	PerGBMonth float64            `json:"per_gb_month" yaml:"per_gb_month" koanf:"per_gb_month"`
	SizesGB    []float64          `json:"sizes_gb" yaml:"sizes_gb" koanf:"sizes_gb"`
	Default    bool               `json:"default,omitempty" yaml:"default,omitempty" koanf:"default"`
	Regions    map[string]float64 `json:"region_multipliers,omitempty" yaml:"region_multipliers,omitempty" koanf:"region_multipliers"`
}

// ProvisionedGB rounds a disk up to the smallest size step that holds it.
// Disks above the largest step are billed at their own size.
func (t DiskTier) ProvisionedGB(sizeGB float64) float64 {
	for _, step := range t.SizesGB {
		if step >= sizeGB {
			return step
		}
	}
	return math.Ceil(sizeGB)
}

// PricingKind selects how a playbook target is priced
type PricingKind string

const (
	PricingFlat  PricingKind = "flat"
	PricingUsage PricingKind = "usage"
)

// UsageUnit is the usage dimension a usage-priced service scales with
type UsageUnit string

const (
	UnitInstances      UsageUnit = "instances"
	UnitMemoryGB       UsageUnit = "memory_gb"
	UnitConnections    UsageUnit = "connections"
	UnitVCPUEquivalent UsageUnit = "vcpu_equivalent"
)

// PricingShape is either a flat monthly rate or base + per-unit usage
type PricingShape struct {
	Kind     PricingKind `json:"kind" yaml:"kind" koanf:"kind"`
	Monthly  float64     `json:"monthly,omitempty" yaml:"monthly,omitempty" koanf:"monthly"`
	Base     float64     `json:"base,omitempty" yaml:"base,omitempty" koanf:"base"`
	PerUnit  float64     `json:"per_unit,omitempty" yaml:"per_unit,omitempty" koanf:"per_unit"`
	Unit     UsageUnit   `json:"unit,omitempty" yaml:"unit,omitempty" koanf:"unit"`
	MinUnits float64     `json:"min_units,omitempty" yaml:"min_units,omitempty" koanf:"min_units"`
}

// MigrationApproach is how a workload moves to its target
type MigrationApproach string

const (
	ApproachRehost     MigrationApproach = "rehost"
	ApproachReplatform MigrationApproach = "replatform"
	ApproachRefactor   MigrationApproach = "refactor"
)

// Complexity is the migration effort tier
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// Playbook maps a workload engine (and optional version range) to a target service
type Playbook struct {
	ID            string            `json:"id" yaml:"id" koanf:"id"`
	Category      WorkloadCategory  `json:"category" yaml:"category" koanf:"category"`
	Engine        string            `json:"engine" yaml:"engine" koanf:"engine"`
	Versions      string            `json:"versions,omitempty" yaml:"versions,omitempty" koanf:"versions"`
	Service       string            `json:"service" yaml:"service" koanf:"service"`
	Approach      MigrationApproach `json:"approach" yaml:"approach" koanf:"approach"`
	Complexity    Complexity        `json:"complexity" yaml:"complexity" koanf:"complexity"`
	Steps         []string          `json:"steps,omitempty" yaml:"steps,omitempty" koanf:"steps"`
	Pricing       PricingShape      `json:"pricing" yaml:"pricing" koanf:"pricing"`
	Alternatives  []string          `json:"alternatives,omitempty" yaml:"alternatives,omitempty" koanf:"alternatives"`
	OnPremMonthly float64           `json:"onprem_monthly,omitempty" yaml:"onprem_monthly,omitempty" koanf:"onprem_monthly"`
}

// OnPremRates are the monthly on-premises cost assumptions per VM
type OnPremRates struct {
	PerVCPU         float64 `json:"per_vcpu" yaml:"per_vcpu" koanf:"per_vcpu"`
	PerGBRAM        float64 `json:"per_gb_ram" yaml:"per_gb_ram" koanf:"per_gb_ram"`
	StoragePerTB    float64 `json:"storage_per_tb" yaml:"storage_per_tb" koanf:"storage_per_tb"`
	WindowsLicense  float64 `json:"windows_license" yaml:"windows_license" koanf:"windows_license"`
	LinuxLicense    float64 `json:"linux_license" yaml:"linux_license" koanf:"linux_license"`
	SecurityPerVM   float64 `json:"security_per_vm" yaml:"security_per_vm" koanf:"security_per_vm"`
	BackupPerVM     float64 `json:"backup_per_vm" yaml:"backup_per_vm" koanf:"backup_per_vm"`
	FacilitiesPerVM float64 `json:"facilities_per_vm" yaml:"facilities_per_vm" koanf:"facilities_per_vm"`
}

// BusinessCaseAssumptions drive the multi-year TCO comparison
type BusinessCaseAssumptions struct {
	OnPremGrowth         float64 `json:"onprem_growth" yaml:"onprem_growth" koanf:"onprem_growth"`
	CloudGrowth          float64 `json:"cloud_growth" yaml:"cloud_growth" koanf:"cloud_growth"`
	MigrationTooling     float64 `json:"migration_tooling" yaml:"migration_tooling" koanf:"migration_tooling"`
	Training             float64 `json:"training" yaml:"training" koanf:"training"`
	ServicesPerEntity    float64 `json:"services_per_entity" yaml:"services_per_entity" koanf:"services_per_entity"`
	CloudOpsPerVM        float64 `json:"cloud_ops_per_vm" yaml:"cloud_ops_per_vm" koanf:"cloud_ops_per_vm"`
	DefaultAnalysisYears int     `json:"default_analysis_years" yaml:"default_analysis_years" koanf:"default_analysis_years"`
}
