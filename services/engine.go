// ABOUTME: Engine facade exposing recommendation, simulation, and override operations
// ABOUTME: Holds the current inventory snapshot behind an atomic pointer

package services

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/markalston/migration-planner/cache"
	"github.com/markalston/migration-planner/catalog"
	"github.com/markalston/migration-planner/metrics"
	"github.com/markalston/migration-planner/models"
)

// EngineOptions configures an Engine. Zero values pick defaults.
type EngineOptions struct {
	Weights  SizingWeights
	CacheTTL time.Duration
	Clock    func() time.Time
	Metrics  *metrics.Metrics

	// Usage feeds observed utilisation into VM recommendations over the
	// trailing UsageWindow (default 7 days). Baselines refresh with CacheTTL.
	Usage       UsageSource
	UsageWindow time.Duration
}

// Engine is the entry point used by the CLI and any embedding service. All
// methods are safe for concurrent use.
type Engine struct {
	catalog   *catalog.Catalog
	planner   *Planner
	overrides *OverrideStore
	baselines *cache.Cache[[]models.Recommendation]
	snapshot  atomic.Pointer[models.Snapshot]
	metrics   *metrics.Metrics
}

func NewEngine(c *catalog.Catalog, opts EngineOptions) *Engine {
	if opts.Weights == (SizingWeights{}) {
		opts.Weights = DefaultSizingWeights()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}

	baselines := cache.New[[]models.Recommendation](opts.CacheTTL)
	e := &Engine{
		catalog:   c,
		planner:   NewPlanner(c, opts.Weights, baselines, opts.Metrics),
		overrides: NewOverrideStore(opts.Clock, opts.Metrics),
		baselines: baselines,
		metrics:   opts.Metrics,
	}
	if opts.Usage != nil {
		if opts.UsageWindow <= 0 {
			opts.UsageWindow = 7 * 24 * time.Hour
		}
		e.planner.ObserveUsage(opts.Usage, opts.UsageWindow, opts.Clock)
	}
	e.snapshot.Store(&models.Snapshot{ID: uuid.NewString()})
	return e
}

// Close releases the baseline cache
func (e *Engine) Close() {
	e.baselines.Close()
}

func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// LoadSnapshot replaces the inventory wholesale. Workloads whose VM is absent
// are dropped. Overrides are kept; ones that no longer resolve surface as
// simulation warnings.
func (e *Engine) LoadSnapshot(snap models.Snapshot) *models.Snapshot {
	next := snap.Clone()
	if next.ID == "" {
		next.ID = uuid.NewString()
	}
	if dropped := next.Prune(); dropped > 0 {
		slog.Warn("Dropped workloads without a VM in snapshot", "snapshot", next.ID, "count", dropped)
	}

	prev := e.snapshot.Swap(next)
	if prev != nil && prev.ID == next.ID {
		// Same id with new content must not serve stale baselines
		e.baselines.Purge()
	}
	slog.Info("Snapshot loaded", "snapshot", next.ID, "vms", len(next.VMs), "workloads", len(next.Workloads))
	return next
}

// Snapshot returns the current inventory. Callers must not modify it.
func (e *Engine) Snapshot() *models.Snapshot {
	return e.snapshot.Load()
}

func (e *Engine) Overrides() *OverrideStore {
	return e.overrides
}

// RecommendVM returns the baseline recommendation for one VM
func (e *Engine) RecommendVM(ctx context.Context, name, region, pricingModel string) (models.Recommendation, error) {
	return e.recommendOne(ctx, name, region, pricingModel)
}

// RecommendWorkload returns the baseline recommendation for one workload key
func (e *Engine) RecommendWorkload(ctx context.Context, key, region, pricingModel string) (models.Recommendation, error) {
	return e.recommendOne(ctx, key, region, pricingModel)
}

func (e *Engine) recommendOne(ctx context.Context, key, region, pricingModel string) (models.Recommendation, error) {
	recs, err := e.RecommendFleet(ctx, region, pricingModel)
	if err != nil {
		return models.Recommendation{}, err
	}
	for _, rec := range recs {
		if rec.Key == key {
			return rec, nil
		}
	}
	return models.Recommendation{}, &UnresolvedReferenceError{Key: key, Ref: key, Err: ErrNotFound}
}

// RecommendFleet returns baseline recommendations for every VM and workload,
// VMs first, each group ordered by key.
func (e *Engine) RecommendFleet(ctx context.Context, region, pricingModel string) ([]models.Recommendation, error) {
	if err := ValidateScenario(e.catalog, models.Scenario{Region: region, PricingModel: pricingModel, Waves: 1}); err != nil {
		return nil, err
	}
	recs, err := e.planner.Baselines(ctx, e.Snapshot(), region, pricingModel)
	if err != nil {
		return nil, err
	}
	out := append([]models.Recommendation(nil), recs...)
	models.SortRecommendations(out)
	return out, nil
}

// Simulate runs a scenario over the current snapshot and stored overrides,
// both captured at call time.
func (e *Engine) Simulate(ctx context.Context, sc models.Scenario) (models.SimulationResult, error) {
	return e.planner.Simulate(ctx, e.Snapshot(), sc, e.overrides.Snapshot())
}

// WhatIf prices one entity with an override applied, leaving the store untouched
func (e *Engine) WhatIf(ctx context.Context, key string, o models.Override, region, pricingModel string) (models.WhatIfResult, error) {
	return e.planner.WhatIf(ctx, e.Snapshot(), region, pricingModel, key, o)
}

// CompareOfferings prices every offering for one VM across regions and
// pricing models. region and pricingModel pick the baseline being compared.
func (e *Engine) CompareOfferings(ctx context.Context, key, region, pricingModel string, regions, pricingModels []string) (models.OfferingComparison, error) {
	return e.planner.CompareOfferings(ctx, e.Snapshot(), region, pricingModel, key, regions, pricingModels)
}

// FleetSummary rolls the current snapshot's baselines up for one region and
// pricing model
func (e *Engine) FleetSummary(ctx context.Context, region, pricingModel string) (models.FleetSummary, error) {
	return e.planner.Summary(ctx, e.Snapshot(), region, pricingModel)
}

// DependencyGraph rebuilds the dependency graph of the current snapshot
func (e *Engine) DependencyGraph() models.DependencyGraph {
	return BuildDependencyGraph(e.Snapshot())
}

// BusinessCase simulates a scenario and projects it over years
func (e *Engine) BusinessCase(ctx context.Context, sc models.Scenario, years int) (models.BusinessCase, error) {
	result, err := e.Simulate(ctx, sc)
	if err != nil {
		return models.BusinessCase{}, err
	}
	return BuildBusinessCase(result, e.catalog.BusinessCase(), years), nil
}
