// ABOUTME: Prometheus collectors for the recommendation and simulation engine
// ABOUTME: Registered on a private registry and exported as a node-exporter textfile

package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	// Override store mutations by operation (upsert, delete, clear, restore).
	overrideMutations *prometheus.CounterVec
	// Recommendations produced by entity kind and readiness.
	recommendations *prometheus.CounterVec
	// Simulation runs by outcome (ok, invalid).
	simulations *prometheus.CounterVec
	// How long one simulation takes end to end.
	simulationDuration prometheus.Histogram
	// Baseline cache lookups by result (hit, miss).
	cacheLookups *prometheus.CounterVec
	// Performance samples appended by the collector.
	perfSamples prometheus.Counter
	// Collector runs by outcome (ok, error).
	collectorRuns *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		overrideMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_override_mutations_total",
			Help: "Number of override store mutations",
		}, []string{"op"}),
		recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_recommendations_total",
			Help: "Number of baseline recommendations computed",
		}, []string{"kind", "readiness"}),
		simulations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_simulations_total",
			Help: "Number of simulation runs",
		}, []string{"outcome"}),
		simulationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "planner_simulation_duration_seconds",
			Help:    "Duration of a simulation run",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16), // 0.1ms to ~3.3s
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_baseline_cache_lookups_total",
			Help: "Number of baseline cache lookups",
		}, []string{"result"}),
		perfSamples: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planner_perf_samples_total",
			Help: "Number of performance samples appended",
		}),
		collectorRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_collector_runs_total",
			Help: "Number of performance collector runs",
		}, []string{"outcome"}),
	}
	m.Registry.MustRegister(
		m.overrideMutations,
		m.recommendations,
		m.simulations,
		m.simulationDuration,
		m.cacheLookups,
		m.perfSamples,
		m.collectorRuns,
	)
	return m
}

func (m *Metrics) OverrideMutation(op string) {
	if m == nil {
		return
	}
	m.overrideMutations.WithLabelValues(op).Inc()
}

func (m *Metrics) Recommendation(kind, readiness string) {
	if m == nil {
		return
	}
	m.recommendations.WithLabelValues(kind, readiness).Inc()
}

// Simulation records one run. Invalid runs carry no duration.
func (m *Metrics) Simulation(ok bool, seconds float64) {
	if m == nil {
		return
	}
	if !ok {
		m.simulations.WithLabelValues("invalid").Inc()
		return
	}
	m.simulations.WithLabelValues("ok").Inc()
	m.simulationDuration.Observe(seconds)
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) PerfSamples(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.perfSamples.Add(float64(n))
}

func (m *Metrics) CollectorRun(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.collectorRuns.WithLabelValues(outcome).Inc()
}

// WriteToTextfile writes the registry in the text exposition format for the
// node-exporter textfile collector. The write is atomic.
func (m *Metrics) WriteToTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
