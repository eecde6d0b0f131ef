// ABOUTME: Scheduled collector that pulls samples from a source into the store
// ABOUTME: Runs on a cron schedule and skips a tick while the previous one is running

package perf

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/markalston/migration-planner/metrics"
	"github.com/markalston/migration-planner/models"
)

const (
	DefaultSchedule  = "@every 15m"
	DefaultRetention = MaxWindowDays * 24 * time.Hour
)

// Source produces one round of samples.
type Source interface {
	Sample(ctx context.Context) ([]models.PerfSample, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]models.PerfSample, error)

func (f SourceFunc) Sample(ctx context.Context) ([]models.PerfSample, error) {
	return f(ctx)
}

type CollectorOptions struct {
	Schedule  string
	Retention time.Duration
	Clock     func() time.Time
	Metrics   *metrics.Metrics
}

type Collector struct {
	source    Source
	store     *Store
	schedule  string
	retention time.Duration
	now       func() time.Time
	metrics   *metrics.Metrics

	mu       sync.Mutex
	cron     *cron.Cron
	stopped  chan struct{}
	watchers sync.WaitGroup
}

func NewCollector(source Source, store *Store, opts CollectorOptions) *Collector {
	if opts.Schedule == "" {
		opts.Schedule = DefaultSchedule
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Collector{
		source:    source,
		store:     store,
		schedule:  opts.Schedule,
		retention: opts.Retention,
		now:       opts.Clock,
		metrics:   opts.Metrics,
	}
}

// RunOnce performs a single collection and returns the number of new samples.
// Samples without a timestamp are stamped with the collection time.
func (c *Collector) RunOnce(ctx context.Context) (int, error) {
	now := c.now()
	samples, err := c.source.Sample(ctx)
	c.metrics.CollectorRun(err)
	if err != nil {
		slog.Error("Performance collection failed", "error", err)
		return 0, fmt.Errorf("collecting samples: %w", err)
	}

	for i := range samples {
		if samples[i].Timestamp.IsZero() {
			samples[i].Timestamp = now
		}
	}
	added := c.store.Append(samples...)
	c.metrics.PerfSamples(added)

	pruned := c.store.Prune(now.Add(-c.retention))
	slog.Debug("Performance collection complete", "received", len(samples), "added", added, "pruned", pruned)
	return added, nil
}

// Start schedules collection until ctx is cancelled or Stop is called.
func (c *Collector) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return fmt.Errorf("collector already started")
	}

	sched := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := sched.AddFunc(c.schedule, func() {
		if _, err := c.RunOnce(ctx); err != nil {
			slog.Warn("Scheduled collection skipped", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid collection schedule %q: %w", c.schedule, err)
	}
	sched.Start()
	c.cron = sched
	stopped := make(chan struct{})
	c.stopped = stopped
	slog.Info("Performance collector started", "schedule", c.schedule)

	c.watchers.Add(1)
	go func() {
		defer c.watchers.Done()
		select {
		case <-ctx.Done():
			c.Stop()
		case <-stopped:
		}
	}()
	return nil
}

// Stop halts scheduling and waits for a running collection to finish.
func (c *Collector) Stop() {
	c.mu.Lock()
	sched := c.cron
	c.cron = nil
	if c.stopped != nil {
		close(c.stopped)
		c.stopped = nil
	}
	c.mu.Unlock()
	if sched == nil {
		return
	}
	<-sched.Stop().Done()
	slog.Info("Performance collector stopped")
}
