// ABOUTME: In-memory time series of performance samples keyed by entity
// ABOUTME: Readers see immutable copy-on-write views while the collector appends

package perf

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/markalston/migration-planner/models"
)

const (
	DefaultWindowDays = 7
	MaxWindowDays     = 30
)

// Window converts a day count from the caller into a query duration,
// clamping it to the supported range.
func Window(days int) time.Duration {
	switch {
	case days <= 0:
		days = DefaultWindowDays
	case days > MaxWindowDays:
		days = MaxWindowDays
	}
	return time.Duration(days) * 24 * time.Hour
}

type series map[string][]models.PerfSample

// Store holds samples per entity key, ordered by timestamp.
// Appends take a writer lock and publish a fresh map; queries never block.
type Store struct {
	mu   sync.Mutex
	data atomic.Pointer[series]
}

func NewStore() *Store {
	s := &Store{}
	empty := series{}
	s.data.Store(&empty)
	return s
}

func (s *Store) load() series {
	return *s.data.Load()
}

// Append adds samples and returns how many were new. A sample whose key and
// timestamp are already present is ignored, so replaying a source is harmless.
func (s *Store) Append(samples ...models.PerfSample) int {
	if len(samples) == 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.load()
	next := make(series, len(current))
	for k, v := range current {
		next[k] = v
	}

	added := 0
	touched := map[string]bool{}
	for _, sample := range samples {
		if sample.Key == "" {
			continue
		}
		existing := next[sample.Key]
		if !touched[sample.Key] {
			existing = append([]models.PerfSample(nil), existing...)
			touched[sample.Key] = true
		}
		i := sort.Search(len(existing), func(i int) bool {
			return !existing[i].Timestamp.Before(sample.Timestamp)
		})
		if i < len(existing) && existing[i].Timestamp.Equal(sample.Timestamp) {
			next[sample.Key] = existing
			continue
		}
		existing = append(existing, models.PerfSample{})
		copy(existing[i+1:], existing[i:])
		existing[i] = sample
		next[sample.Key] = existing
		added++
	}

	s.data.Store(&next)
	return added
}

// Query returns the samples for key with from <= timestamp < to.
// A zero to means no upper bound. The result must not be modified.
func (s *Store) Query(key string, from, to time.Time) []models.PerfSample {
	samples := s.load()[key]
	lo := sort.Search(len(samples), func(i int) bool {
		return !samples[i].Timestamp.Before(from)
	})
	hi := len(samples)
	if !to.IsZero() {
		hi = sort.Search(len(samples), func(i int) bool {
			return !samples[i].Timestamp.Before(to)
		})
	}
	if lo >= hi {
		return nil
	}
	return samples[lo:hi:hi]
}

// Keys lists every entity with at least one sample, sorted.
func (s *Store) Keys() []string {
	data := s.load()
	keys := make([]string, 0, len(data))
	for k, v := range data {
		if len(v) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Len is the total number of samples held.
func (s *Store) Len() int {
	n := 0
	for _, v := range s.load() {
		n += len(v)
	}
	return n
}

// All returns every sample ordered by key then timestamp.
func (s *Store) All() []models.PerfSample {
	data := s.load()
	var out []models.PerfSample
	for _, k := range s.Keys() {
		out = append(out, data[k]...)
	}
	return out
}

// Stats summarises the samples for key in [from, to). It reports false when
// the range holds no samples.
func (s *Store) Stats(key string, from, to time.Time) (models.PerfStats, bool) {
	samples := s.Query(key, from, to)
	if len(samples) == 0 {
		return models.PerfStats{}, false
	}

	cpu := make([]float64, len(samples))
	mem := make([]float64, len(samples))
	iops := make([]float64, len(samples))
	net := make([]float64, len(samples))
	for i, sample := range samples {
		cpu[i] = sample.CPUPercent
		mem[i] = sample.MemoryPercent
		iops[i] = sample.IOPS
		net[i] = sample.NetworkKBps
	}

	return models.PerfStats{
		Key:     key,
		From:    samples[0].Timestamp,
		To:      samples[len(samples)-1].Timestamp,
		Samples: len(samples),
		CPU:     summarise(cpu),
		Memory:  summarise(mem),
		IOPS:    summarise(iops),
		Network: summarise(net),
	}, true
}

func summarise(values []float64) models.MetricStats {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return models.MetricStats{
		Avg: stat.Mean(values, nil),
		Min: floats.Min(values),
		Max: floats.Max(values),
		P95: stat.Quantile(0.95, stat.Empirical, sorted, nil),
	}
}

// Prune drops samples older than before and returns how many were removed.
func (s *Store) Prune(before time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.load()
	next := make(series, len(current))
	removed := 0
	for k, v := range current {
		i := sort.Search(len(v), func(i int) bool {
			return !v[i].Timestamp.Before(before)
		})
		removed += i
		if i < len(v) {
			next[k] = v[i:]
		}
	}
	if removed > 0 {
		s.data.Store(&next)
	}
	return removed
}
