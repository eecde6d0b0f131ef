// ABOUTME: Simulation planner: select, recommend, overlay, partition, project, aggregate
// ABOUTME: Stateless between runs; each call computes over the snapshot it is given

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/markalston/migration-planner/cache"
	"github.com/markalston/migration-planner/catalog"
	"github.com/markalston/migration-planner/metrics"
	"github.com/markalston/migration-planner/models"
)

// entity is one plannable VM or workload in a snapshot
type entity struct {
	key      string
	kind     models.EntityKind
	vm       models.VmProfile
	workload models.WorkloadRecord
	hostVCPU int
}

// Planner turns a snapshot and scenario into a SimulationResult
type Planner struct {
	catalog   *catalog.Catalog
	cost      *CostModel
	sizing    *SizingRecommender
	mapper    *WorkloadMapper
	onprem    *OnPremCostModel
	baselines *cache.Cache[[]models.Recommendation]
	metrics   *metrics.Metrics

	usage  UsageSource
	window time.Duration
	now    func() time.Time
}

// UsageSource supplies observed utilisation per entity key. perf.Store
// satisfies it.
type UsageSource interface {
	Stats(key string, from, to time.Time) (models.PerfStats, bool)
}

// NewPlanner wires the recommenders and cost models over one catalog.
// baselines may be nil to disable memoisation.
func NewPlanner(c *catalog.Catalog, weights SizingWeights, baselines *cache.Cache[[]models.Recommendation], m *metrics.Metrics) *Planner {
	cost := NewCostModel(c)
	return &Planner{
		catalog:   c,
		cost:      cost,
		sizing:    NewSizingRecommender(c, cost, weights),
		mapper:    NewWorkloadMapper(c, cost),
		onprem:    NewOnPremCostModel(c.OnPremRates()),
		baselines: baselines,
		metrics:   m,
	}
}

// ObserveUsage makes VM recommendations use samples from the trailing window.
// It must be called before the planner is shared.
func (p *Planner) ObserveUsage(src UsageSource, window time.Duration, now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	p.usage, p.window, p.now = src, window, now
}

// entities lists the snapshot's entities with observed usage attached to
// VMs that have samples in the window. Stored samples replace any usage
// recorded in the snapshot itself.
func (p *Planner) entities(snap *models.Snapshot) []entity {
	list := entities(snap)
	if p.usage == nil || p.window <= 0 {
		return list
	}
	to := p.now()
	from := to.Add(-p.window)
	for i := range list {
		if list[i].kind != models.KindVM {
			continue
		}
		if stats, ok := p.usage.Stats(list[i].key, from, to); ok && stats.Samples > 0 {
			list[i].vm.Perf = &stats
		}
	}
	return list
}

// entities lists VMs by name, then workloads by key
func entities(snap *models.Snapshot) []entity {
	vcpu := make(map[string]int, len(snap.VMs))
	out := make([]entity, 0, len(snap.VMs)+len(snap.Workloads))
	for _, vm := range snap.VMs {
		vcpu[vm.Name] = vm.VCPU
		out = append(out, entity{key: vm.Name, kind: models.KindVM, vm: vm})
	}
	for _, w := range snap.Workloads {
		out = append(out, entity{key: w.Key(), kind: models.KindWorkload, workload: w, hostVCPU: vcpu[w.VMName]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].kind != out[j].kind {
			return out[i].kind == models.KindVM
		}
		return out[i].key < out[j].key
	})
	return out
}

func (p *Planner) recommend(e entity, region, pricingModel string) (models.Recommendation, error) {
	if e.kind == models.KindVM {
		return p.sizing.Recommend(e.vm, region, pricingModel)
	}
	return p.mapper.Recommend(e.workload, e.hostVCPU, region, pricingModel)
}

// Baselines recommends every entity of a snapshot in parallel. Results are in
// entities() order and memoised per snapshot id, region and pricing model.
// Callers must treat the returned slice as read-only.
func (p *Planner) Baselines(ctx context.Context, snap *models.Snapshot, region, pricingModel string) ([]models.Recommendation, error) {
	compute := func() ([]models.Recommendation, error) {
		return p.computeBaselines(ctx, snap, region, pricingModel)
	}
	if p.baselines == nil || snap.ID == "" {
		return compute()
	}

	key := fmt.Sprintf("%s|%s|%s", snap.ID, region, pricingModel)
	recs, hit, err := p.baselines.GetOrLoad(key, compute)
	if err != nil {
		return nil, err
	}
	p.metrics.CacheLookup(hit)
	return recs, nil
}

func (p *Planner) computeBaselines(ctx context.Context, snap *models.Snapshot, region, pricingModel string) ([]models.Recommendation, error) {
	list := p.entities(snap)
	recs := make([]models.Recommendation, len(list))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, e := range list {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec, err := p.recommend(e, region, pricingModel)
			if err != nil {
				return fmt.Errorf("recommending %s: %w", e.key, err)
			}
			recs[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, rec := range recs {
		p.metrics.Recommendation(string(rec.Kind), string(rec.Readiness))
	}
	slog.Debug("Computed baselines", "snapshot", snap.ID, "region", region, "pricing_model", pricingModel, "count", len(recs))
	return recs, nil
}

// selectEntities applies a filter. Explicit keys missing from the snapshot
// become warnings.
func selectEntities(all []entity, f models.Filter) ([]int, []models.Issue) {
	var warnings []models.Issue

	var keys map[string]bool
	if len(f.Keys) > 0 {
		keys = make(map[string]bool, len(f.Keys))
		known := make(map[string]bool, len(all))
		for _, e := range all {
			known[e.key] = true
		}
		for _, k := range f.Keys {
			keys[k] = true
			if !known[k] {
				err := &UnresolvedReferenceError{Key: k, Ref: k, Err: ErrNotFound}
				warnings = append(warnings, models.Issue{Severity: models.SeverityMedium, Message: "filter: " + err.Error()})
			}
		}
	}

	name := strings.ToLower(f.Name)
	var selected []int
	for i, e := range all {
		if len(f.Kinds) > 0 && !containsKind(f.Kinds, e.kind) {
			continue
		}
		if len(f.Categories) > 0 && (e.kind != models.KindWorkload || !containsCategory(f.Categories, e.workload.Category)) {
			continue
		}
		if name != "" && !strings.Contains(strings.ToLower(e.key), name) {
			continue
		}
		if keys != nil && !keys[e.key] {
			continue
		}
		selected = append(selected, i)
	}
	return selected, warnings
}

func containsKind(kinds []models.EntityKind, k models.EntityKind) bool {
	for _, c := range kinds {
		if c == k {
			return true
		}
	}
	return false
}

func containsCategory(categories []models.WorkloadCategory, c models.WorkloadCategory) bool {
	for _, x := range categories {
		if x == c {
			return true
		}
	}
	return false
}

// overlay applies one override over a baseline. A failure leaves the baseline
// in place and reports the problem as an issue.
func (p *Planner) overlay(e entity, base models.Recommendation, o models.Override, region, pricingModel string) (models.Recommendation, *models.Issue) {
	if err := ValidateOverride(p.catalog, e.kind, o); err != nil {
		return base, &models.Issue{Severity: models.SeverityMedium, Message: "override ignored: " + err.Error()}
	}
	if o.Region != "" {
		region = o.Region
	}
	if o.PricingModel != "" {
		pricingModel = o.PricingModel
	}
	target := base.Target
	if o.Target != "" {
		target = o.Target
	}

	var rec models.Recommendation
	var err error
	switch {
	case e.kind == models.KindVM:
		rec, err = p.sizing.RecommendWithTarget(e.vm, target, region, pricingModel)
	case target == AssessmentNeeded:
		rec, err = p.mapper.Recommend(e.workload, e.hostVCPU, region, pricingModel)
	default:
		rec, err = p.mapper.RecommendWithTarget(e.workload, e.hostVCPU, target, region, pricingModel)
	}
	if err != nil {
		return base, &models.Issue{Severity: models.SeverityMedium, Message: "override ignored: " + err.Error()}
	}
	return rec, nil
}

func (p *Planner) onPremMonthly(e entity, base models.Recommendation) float64 {
	if e.kind == models.KindVM {
		return p.onprem.VMMonthly(e.vm)
	}
	if pb, ok := p.catalog.Playbook(base.Target); ok {
		return p.onprem.WorkloadMonthly(&pb)
	}
	return p.onprem.WorkloadMonthly(nil)
}

// mergeOverrides layers per-scenario overrides over the stored ones
func mergeOverrides(stored, scenario map[string]models.Override) map[string]models.Override {
	merged := make(map[string]models.Override, len(stored)+len(scenario))
	for k, o := range stored {
		merged[k] = o
	}
	for k, o := range scenario {
		o.Key = k
		merged[k] = o
	}
	return merged
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Simulate runs one scenario against a snapshot with the given stored
// overrides. Only invalid scenario parameters fail the call.
func (p *Planner) Simulate(ctx context.Context, snap *models.Snapshot, sc models.Scenario, stored map[string]models.Override) (models.SimulationResult, error) {
	start := time.Now()
	if err := ValidateScenario(p.catalog, sc); err != nil {
		p.metrics.Simulation(false, 0)
		return models.SimulationResult{}, err
	}

	all := p.entities(snap)
	baselines, err := p.Baselines(ctx, snap, sc.Region, sc.PricingModel)
	if err != nil {
		return models.SimulationResult{}, err
	}

	selected, warnings := selectEntities(all, sc.Filter)

	known := make(map[string]bool, len(all))
	for _, e := range all {
		known[e.key] = true
	}
	overrides := mergeOverrides(stored, sc.Overrides)
	for _, k := range sortedKeys(overrides) {
		if !known[k] {
			err := &UnresolvedReferenceError{Key: k, Ref: k, Err: ErrNotFound}
			warnings = append(warnings, models.Issue{Severity: models.SeverityLow, Message: "override for unknown entity: " + err.Error()})
		}
	}

	items := make([]models.LineItem, 0, len(selected))
	for _, i := range selected {
		e, base := all[i], baselines[i]
		rec := base
		var issues []models.Issue
		o, overridden := overrides[e.key]
		if overridden {
			var problem *models.Issue
			rec, problem = p.overlay(e, base, o, sc.Region, sc.PricingModel)
			if problem != nil {
				overridden = false
				issues = append(issues, *problem)
			}
		}
		issues = append(append([]models.Issue(nil), rec.Issues...), issues...)

		onPrem := p.onPremMonthly(e, base)
		items = append(items, models.LineItem{
			Key:             e.key,
			Kind:            e.kind,
			BaselineTarget:  base.Target,
			Target:          rec.Target,
			Region:          rec.Region,
			PricingModel:    rec.PricingModel,
			Readiness:       rec.Readiness,
			OnPremMonthly:   onPrem,
			BaselineMonthly: base.MonthlyCost,
			MonthlyCost:     rec.MonthlyCost,
			MonthlyDelta:    RoundCents(rec.MonthlyCost - onPrem),
			Overridden:      overridden,
			Issues:          issues,
		})
	}

	waves, waveWarnings := effectiveWaves(sc.Waves, len(items))
	warnings = append(warnings, waveWarnings...)
	Partition(items, waves)
	warnings = append(warnings, applyPins(items, sc.Pins, waves)...)

	entries := make([]ProjectionEntry, len(items))
	for i := range items {
		items[i].MigrationMonth = MigrationMonth(items[i].Wave, waves)
		entries[i] = ProjectionEntry{OnPrem: items[i].OnPremMonthly, Target: items[i].MonthlyCost, Month: items[i].MigrationMonth}
	}
	sortLineItems(items)

	result := models.SimulationResult{
		Region:         sc.Region,
		PricingModel:   sc.PricingModel,
		RequestedWaves: sc.Waves,
		Waves:          waves,
		Filter:         sc.Filter,
		LineItems:      items,
		Series:         Project(entries),
		Warnings:       warnings,
	}
	aggregate(&result)

	p.metrics.Simulation(true, time.Since(start).Seconds())
	slog.Debug("Simulation complete", "region", sc.Region, "pricing_model", sc.PricingModel,
		"entities", len(items), "waves", waves, "warnings", len(warnings))
	return result, nil
}

// effectiveWaves clamps the wave count to the number of entities
func effectiveWaves(requested, n int) (int, []models.Issue) {
	if requested <= n {
		return requested, nil
	}
	err := &InconsistentStateError{Reason: fmt.Sprintf("requested %d waves for %d entities; using %d", requested, n, n)}
	return n, []models.Issue{{Severity: models.SeverityLow, Message: err.Error()}}
}

// Partition assigns waves 1..waves to items ordered by descending monthly
// cost, ties broken by key. Sizes differ by at most one and the remainder goes
// to the earliest waves.
func Partition(items []models.LineItem, waves int) {
	if waves <= 0 || len(items) == 0 {
		return
	}
	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		x, y := items[order[a]], items[order[b]]
		if x.MonthlyCost != y.MonthlyCost {
			return x.MonthlyCost > y.MonthlyCost
		}
		return x.Key < y.Key
	})

	base, rem := len(items)/waves, len(items)%waves
	pos := 0
	for w := 1; w <= waves; w++ {
		size := base
		if w <= rem {
			size++
		}
		for j := 0; j < size; j++ {
			items[order[pos]].Wave = w
			pos++
		}
	}
}

// applyPins moves pinned entities into their requested wave after partitioning
func applyPins(items []models.LineItem, pins map[string]int, waves int) []models.Issue {
	if len(pins) == 0 {
		return nil
	}
	index := make(map[string]int, len(items))
	for i, item := range items {
		index[item.Key] = i
	}

	var warnings []models.Issue
	for _, key := range sortedKeys(pins) {
		wave := pins[key]
		i, ok := index[key]
		if !ok {
			err := &UnresolvedReferenceError{Key: key, Ref: key, Err: ErrNotFound}
			warnings = append(warnings, models.Issue{Severity: models.SeverityLow, Message: "pin: " + err.Error()})
			continue
		}
		if wave < 1 || wave > waves {
			items[i].Issues = append(items[i].Issues, models.Issue{
				Severity: models.SeverityLow,
				Message:  fmt.Sprintf("Pinned wave %d is outside 1..%d; pin ignored", wave, waves),
			})
			continue
		}
		items[i].Wave = wave
	}
	return warnings
}

// sortLineItems orders by wave, then descending cost, then key
func sortLineItems(items []models.LineItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Wave != b.Wave {
			return a.Wave < b.Wave
		}
		if a.MonthlyCost != b.MonthlyCost {
			return a.MonthlyCost > b.MonthlyCost
		}
		return a.Key < b.Key
	})
}

func aggregate(r *models.SimulationResult) {
	onPrem, baseline, monthly := decimal.Zero, decimal.Zero, decimal.Zero
	r.Assignments = make(map[string]int, len(r.LineItems))
	summaries := make([]models.WaveSummary, r.Waves)
	for w := range summaries {
		summaries[w] = models.WaveSummary{Wave: w + 1, Month: MigrationMonth(w+1, r.Waves), Keys: []string{}}
	}
	waveCost := make([]decimal.Decimal, r.Waves)
	waveOnPrem := make([]decimal.Decimal, r.Waves)

	for _, item := range r.LineItems {
		onPrem = onPrem.Add(decimal.NewFromFloat(item.OnPremMonthly))
		baseline = baseline.Add(decimal.NewFromFloat(item.BaselineMonthly))
		monthly = monthly.Add(decimal.NewFromFloat(item.MonthlyCost))
		r.Assignments[item.Key] = item.Wave
		if item.Wave >= 1 && item.Wave <= r.Waves {
			w := item.Wave - 1
			summaries[w].Keys = append(summaries[w].Keys, item.Key)
			waveCost[w] = waveCost[w].Add(decimal.NewFromFloat(item.MonthlyCost))
			waveOnPrem[w] = waveOnPrem[w].Add(decimal.NewFromFloat(item.OnPremMonthly))
		}
	}
	for w := range summaries {
		summaries[w].MonthlyCost = waveCost[w].Round(2).InexactFloat64()
		summaries[w].OnPrem = waveOnPrem[w].Round(2).InexactFloat64()
	}

	r.WaveSummaries = summaries
	r.TotalOnPremMonthly = onPrem.Round(2).InexactFloat64()
	r.TotalBaseline = baseline.Round(2).InexactFloat64()
	r.TotalMonthly = monthly.Round(2).InexactFloat64()
	r.MonthlySavings = onPrem.Sub(monthly).Round(2).InexactFloat64()

	horizon := onPrem.Mul(decimal.NewFromInt(models.ProjectionMonths))
	if n := len(r.Series); n > 0 {
		r.TotalSavings = horizon.Sub(decimal.NewFromFloat(r.Series[n-1].Cumulative)).Round(2).InexactFloat64()
	}
}

// WhatIf compares one entity's baseline with an override applied, without
// touching any store.
func (p *Planner) WhatIf(ctx context.Context, snap *models.Snapshot, region, pricingModel, key string, o models.Override) (models.WhatIfResult, error) {
	if err := ValidateScenario(p.catalog, models.Scenario{Region: region, PricingModel: pricingModel, Waves: 1}); err != nil {
		return models.WhatIfResult{}, err
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
		return models.WhatIfResult{}, &UnresolvedReferenceError{Key: key, Ref: key, Err: ErrNotFound}
	}

	baselines, err := p.Baselines(ctx, snap, region, pricingModel)
	if err != nil {
		return models.WhatIfResult{}, err
	}
	base := baselines[idx]

	o.Key = key
	rec, problem := p.overlay(all[idx], base, o, region, pricingModel)
	issues := append([]models.Issue(nil), rec.Issues...)
	if problem != nil {
		issues = append(issues, *problem)
	}

	return models.WhatIfResult{
		Key:             key,
		BaselineTarget:  base.Target,
		BaselineMonthly: base.MonthlyCost,
		Target:          rec.Target,
		MonthlyCost:     rec.MonthlyCost,
		Delta:           RoundCents(rec.MonthlyCost - base.MonthlyCost),
		Issues:          issues,
	}, nil
}

// IsValidation reports whether err rejected a request before computation
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
