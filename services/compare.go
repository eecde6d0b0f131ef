// ABOUTME: Offering cost matrix for one VM and the fleet summary rollup
// ABOUTME: Both read baseline recommendations and never touch the override store

package services

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/markalston/migration-planner/models"
)

const unknownLabel = "Unknown"

// CompareOfferings prices every catalog offering for one VM in each of the
// given regions and pricing models, flagging which ones fit and which one the
// baseline selected. Empty region or pricing lists mean all of them. Cells
// include the VM's managed disks on its baseline disk tier.
func (p *Planner) CompareOfferings(ctx context.Context, snap *models.Snapshot, region, pricingModel, key string, regions, pricingModels []string) (models.OfferingComparison, error) {
	if err := ValidateScenario(p.catalog, models.Scenario{Region: region, PricingModel: pricingModel, Waves: 1}); err != nil {
		return models.OfferingComparison{}, err
	}
	if len(regions) == 0 {
		regions = p.catalog.RegionIDs()
	}
	if len(pricingModels) == 0 {
		pricingModels = p.catalog.PricingModelIDs()
	}
	for _, r := range regions {
		if _, ok := p.catalog.Region(r); !ok {
			return models.OfferingComparison{}, &ValidationError{Field: "region", Value: r, Err: ErrUnknownRegion}
		}
	}
	for _, pm := range pricingModels {
		if _, ok := p.catalog.PricingModel(pm); !ok {
			return models.OfferingComparison{}, &ValidationError{Field: "pricing model", Value: pm, Err: ErrUnknownPricingModel}
		}
	}

	all := p.entities(snap)
	idx := -1
	for i, e := range all {
		if e.key == key {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.OfferingComparison{}, &UnresolvedReferenceError{Key: key, Ref: key, Err: ErrNotFound}
	}
	vm := all[idx]
	if vm.kind != models.KindVM {
		return models.OfferingComparison{}, &ValidationError{Field: "key", Value: key, Err: ErrNotVM}
	}

	baselines, err := p.Baselines(ctx, snap, region, pricingModel)
	if err != nil {
		return models.OfferingComparison{}, err
	}
	base := baselines[idx]

	out := models.OfferingComparison{
		Key:           key,
		Region:        region,
		PricingModel:  pricingModel,
		Current:       base.Target,
		CurrentCost:   base.MonthlyCost,
		Regions:       append([]string(nil), regions...),
		PricingModels: append([]string(nil), pricingModels...),
		Storage:       base.Storage,
		Observed:      base.Observed,
	}

	storage := make(map[string]float64, len(regions))
	if base.Storage != nil {
		if tier, ok := p.catalog.DiskTier(base.Storage.Tier); ok {
			out.StorageCosts = make(map[string]float64, len(regions))
			for _, r := range regions {
				est, err := p.cost.StorageCost(tier, vm.vm.Disks, r)
				if err != nil {
					return models.OfferingComparison{}, err
				}
				storage[r] = est.Monthly
				out.StorageCosts[r] = est.Monthly
			}
		}
	}

	for _, o := range p.catalog.Offerings() {
		opt := models.OfferingOption{
			Offering: o.ID,
			Family:   o.Family,
			VCPU:     o.VCPU,
			MemoryGB: o.MemoryGB,
			BaseCost: RoundCents(o.MonthlyBase()),
			Fits:     Fits(o, vm.vm),
			Current:  o.ID == base.Target,
			Costs:    make(map[string]map[string]float64, len(regions)),
		}
		for _, r := range regions {
			row := make(map[string]float64, len(pricingModels))
			for _, pm := range pricingModels {
				compute, err := p.cost.OfferingCost(o, r, pm)
				if err != nil {
					return models.OfferingComparison{}, err
				}
				row[pm] = RoundCents(compute + storage[r])
			}
			opt.Costs[r] = row
		}
		out.Options = append(out.Options, opt)

		if !opt.Fits {
			continue
		}
		compute, err := p.cost.OfferingCost(o, region, pricingModel)
		if err != nil {
			return models.OfferingComparison{}, err
		}
		total := compute
		if base.Storage != nil {
			total = RoundCents(compute + base.Storage.Monthly)
		}
		// Strict comparison keeps the earliest declaration on a tie
		if out.Cheapest == "" || total < out.CheapestCost {
			out.Cheapest, out.CheapestCost = o.ID, total
		}
	}
	return out, nil
}

// Summary rolls the fleet's baseline recommendations up into readiness counts,
// target and family distributions, cost by family and folder distribution.
// Workload recommendations are grouped under their playbook's category.
func (p *Planner) Summary(ctx context.Context, snap *models.Snapshot, region, pricingModel string) (models.FleetSummary, error) {
	if err := ValidateScenario(p.catalog, models.Scenario{Region: region, PricingModel: pricingModel, Waves: 1}); err != nil {
		return models.FleetSummary{}, err
	}
	all := p.entities(snap)
	recs, err := p.Baselines(ctx, snap, region, pricingModel)
	if err != nil {
		return models.FleetSummary{}, err
	}

	s := models.FleetSummary{
		Region:       region,
		PricingModel: pricingModel,
		Targets:      map[string]int{},
		Families:     map[string]int{},
		CostByFamily: map[string]float64{},
		Folders:      map[string]int{},
	}

	var memoryMB, diskGB int64
	hosts := map[string]struct{}{}
	for _, vm := range snap.VMs {
		s.VMs++
		switch vm.PowerState {
		case models.PowerOn:
			s.PoweredOn++
		default:
			s.PoweredOff++
		}
		switch strings.ToLower(vm.OSFamily) {
		case "windows":
			s.Windows++
		case "linux":
			s.Linux++
		default:
			s.OtherOS++
		}
		s.TotalVCPU += vm.VCPU
		memoryMB += int64(vm.MemoryMB)
		diskGB += int64(vm.TotalDiskGB())
		if vm.Host != "" {
			hosts[vm.Host] = struct{}{}
		}
		s.Folders[orUnknown(vm.Folder)]++
	}
	s.Workloads = len(snap.Workloads)
	s.Hosts = len(hosts)
	s.TotalMemoryGB = decimal.NewFromInt(memoryMB).Div(decimal.NewFromInt(1024)).Round(1).InexactFloat64()
	s.TotalDiskTB = decimal.NewFromInt(diskGB).Div(decimal.NewFromInt(1024)).Round(2).InexactFloat64()

	total, onPrem := decimal.Zero, decimal.Zero
	byFamily := map[string]decimal.Decimal{}
	for i, rec := range recs {
		switch rec.Readiness {
		case models.ReadinessReady:
			s.Ready++
		case models.ReadinessWithIssues:
			s.WithIssues++
		default:
			s.NotReady++
		}
		s.Targets[orUnknown(rec.Target)]++

		family := p.family(rec)
		s.Families[family]++
		byFamily[family] = byFamily[family].Add(decimal.NewFromFloat(rec.MonthlyCost))

		total = total.Add(decimal.NewFromFloat(rec.MonthlyCost))
		onPrem = onPrem.Add(decimal.NewFromFloat(p.onPremMonthly(all[i], rec)))
	}
	for family, cost := range byFamily {
		s.CostByFamily[family] = cost.Round(2).InexactFloat64()
	}
	s.MonthlyCost = total.Round(2).InexactFloat64()
	s.AnnualCost = total.Mul(decimal.NewFromInt(12)).Round(2).InexactFloat64()
	s.OnPremMonthly = onPrem.Round(2).InexactFloat64()
	return s, nil
}

func (p *Planner) family(rec models.Recommendation) string {
	if rec.Kind == models.KindVM {
		if o, ok := p.catalog.Offering(rec.Target); ok {
			return orUnknown(o.Family)
		}
		return unknownLabel
	}
	if pb, ok := p.catalog.Playbook(rec.Target); ok {
		return orUnknown(string(pb.Category))
	}
	return unknownLabel
}

func orUnknown(s string) string {
	if s == "" {
		return unknownLabel
	}
	return s
}
