// ABOUTME: Cost model pricing offerings and services by region and pricing model
// ABOUTME: Also builds the 12-month projection blending on-prem and target cost per wave

package services

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/markalston/migration-planner/catalog"
	"github.com/markalston/migration-planner/models"
)

// UsageHint carries the observed usage a usage-priced service scales with
type UsageHint struct {
	Usage    models.ResourceUsage
	HostVCPU int // vCPU of the VM the workload runs on, 0 if unknown
}

// CostModel prices catalog targets. It holds no mutable state.
type CostModel struct {
	catalog *catalog.Catalog
}

// NewCostModel creates a cost model over a catalog
func NewCostModel(c *catalog.Catalog) *CostModel {
	return &CostModel{catalog: c}
}

// RegionMultiplier resolves a region multiplier, preferring a per-entry table
func (m *CostModel) RegionMultiplier(perEntry map[string]float64, region string) (float64, error) {
	r, ok := m.catalog.Region(region)
	if !ok {
		return 0, &ValidationError{Field: "region", Value: region, Err: ErrUnknownRegion}
	}
	if v, ok := perEntry[region]; ok {
		return v, nil
	}
	return r.Multiplier, nil
}

// PricingFactor resolves a pricing discount factor, preferring a per-entry table
func (m *CostModel) PricingFactor(perEntry map[string]float64, pricingModel string) (float64, error) {
	p, ok := m.catalog.PricingModel(pricingModel)
	if !ok {
		return 0, &ValidationError{Field: "pricing model", Value: pricingModel, Err: ErrUnknownPricingModel}
	}
	if v, ok := perEntry[pricingModel]; ok {
		return v, nil
	}
	return p.Factor, nil
}

// Cost returns base × region multiplier × pricing factor, rounded to cents
func (m *CostModel) Cost(base float64, region, pricingModel string) (float64, error) {
	return m.cost(base, nil, nil, region, pricingModel)
}

func (m *CostModel) cost(base float64, regionTable, pricingTable map[string]float64, region, pricingModel string) (float64, error) {
	mult, err := m.RegionMultiplier(regionTable, region)
	if err != nil {
		return 0, err
	}
	factor, err := m.PricingFactor(pricingTable, pricingModel)
	if err != nil {
		return 0, err
	}

	total := decimal.NewFromFloat(base).
		Mul(decimal.NewFromFloat(mult)).
		Mul(decimal.NewFromFloat(factor))
	return total.Round(2).InexactFloat64(), nil
}

// OfferingCost prices an infrastructure offering for one month
func (m *CostModel) OfferingCost(o models.Offering, region, pricingModel string) (float64, error) {
	return m.cost(o.MonthlyBase(), o.RegionMultipliers, o.PricingFactors, region, pricingModel)
}

// StorageCost prices a VM's disks on one tier. Each disk is rounded up to the
// tier's size step. Only the region multiplier applies: reservations and
// savings plans discount compute, not managed disks.
func (m *CostModel) StorageCost(t models.DiskTier, disks []models.Disk, region string) (models.StorageEstimate, error) {
	mult, err := m.RegionMultiplier(t.Regions, region)
	if err != nil {
		return models.StorageEstimate{}, err
	}

	var gb float64
	for _, d := range disks {
		gb += t.ProvisionedGB(d.SizeGB)
	}
	monthly := decimal.NewFromFloat(gb).
		Mul(decimal.NewFromFloat(t.PerGBMonth)).
		Mul(decimal.NewFromFloat(mult))
	return models.StorageEstimate{
		Tier:          t.ID,
		TierName:      t.Name,
		ProvisionedGB: gb,
		Monthly:       monthly.Round(2).InexactFloat64(),
	}, nil
}

// ServiceCost prices a playbook target for one month using its pricing shape
func (m *CostModel) ServiceCost(p models.Playbook, hint UsageHint, region, pricingModel string) (float64, error) {
	return m.Cost(ServiceBase(p.Pricing, hint), region, pricingModel)
}

// ServiceBase evaluates a pricing shape before region and pricing adjustments:
// flat shapes return their monthly rate, usage shapes base + per_unit × units.
func ServiceBase(shape models.PricingShape, hint UsageHint) float64 {
	if shape.Kind != models.PricingUsage {
		return shape.Monthly
	}
	units := math.Max(Units(shape.Unit, hint), shape.MinUnits)
	return decimal.NewFromFloat(shape.Base).
		Add(decimal.NewFromFloat(shape.PerUnit).Mul(decimal.NewFromFloat(units))).
		InexactFloat64()
}

// Units measures a usage dimension from a hint
func Units(unit models.UsageUnit, hint UsageHint) float64 {
	switch unit {
	case models.UnitInstances:
		return float64(hint.Usage.Instances)
	case models.UnitMemoryGB:
		return math.Ceil(float64(hint.Usage.MemoryMB) / 1024)
	case models.UnitConnections:
		return float64(hint.Usage.Connections)
	case models.UnitVCPUEquivalent:
		if hint.HostVCPU <= 0 {
			return 1
		}
		return math.Ceil(hint.Usage.CPUPercent / 100 * float64(hint.HostVCPU))
	default:
		return 0
	}
}

// RoundCents rounds a currency amount half away from zero to two places
func RoundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// MigrationMonth returns the 1-indexed month in which wave w of n migrates.
// With twelve or more waves each wave takes one month; fewer waves are spread
// evenly across the projection so month 1 is still fully on-prem.
func MigrationMonth(wave, waves int) int {
	if waves >= models.ProjectionMonths {
		return wave
	}
	return wave * models.ProjectionMonths / (waves + 1)
}

// ProjectionEntry is one entity's input to the cost projection
type ProjectionEntry struct {
	OnPrem float64
	Target float64
	Month  int // first month on target cost
}

// Project builds the 12-point monthly series. Month m uses on-prem cost for
// entities migrating after m and target cost for the rest.
func Project(entries []ProjectionEntry) []models.ProjectionPoint {
	points := make([]models.ProjectionPoint, models.ProjectionMonths)
	cumulative := decimal.Zero

	for i := range points {
		month := i + 1
		onPrem, target := decimal.Zero, decimal.Zero
		migrated := 0

		for _, e := range entries {
			if month < e.Month {
				onPrem = onPrem.Add(decimal.NewFromFloat(e.OnPrem))
			} else {
				target = target.Add(decimal.NewFromFloat(e.Target))
				migrated++
			}
		}

		total := onPrem.Add(target)
		cumulative = cumulative.Add(total)
		points[i] = models.ProjectionPoint{
			Month:      month,
			OnPrem:     onPrem.Round(2).InexactFloat64(),
			Target:     target.Round(2).InexactFloat64(),
			Total:      total.Round(2).InexactFloat64(),
			Cumulative: cumulative.Round(2).InexactFloat64(),
			Migrated:   migrated,
		}
	}
	return points
}
