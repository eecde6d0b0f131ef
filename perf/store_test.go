package perf

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markalston/migration-planner/models"
)

var t0 = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func sampleAt(key string, minutes int, cpu float64) models.PerfSample {
	return models.PerfSample{
		Key:           key,
		Timestamp:     t0.Add(time.Duration(minutes) * time.Minute),
		CPUPercent:    cpu,
		MemoryPercent: cpu / 2,
		IOPS:          cpu * 10,
		NetworkKBps:   cpu * 100,
	}
}

func TestWindow(t *testing.T) {
	day := 24 * time.Hour
	assert.Equal(t, 7*day, Window(0))
	assert.Equal(t, 7*day, Window(-3))
	assert.Equal(t, 1*day, Window(1))
	assert.Equal(t, 30*day, Window(30))
	assert.Equal(t, 30*day, Window(90))
}

func TestStore_AppendKeepsOrderAndDedupes(t *testing.T) {
	s := NewStore()

	added := s.Append(sampleAt("web01", 30, 3), sampleAt("web01", 10, 1), sampleAt("web01", 20, 2))
	assert.Equal(t, 3, added)

	added = s.Append(sampleAt("web01", 20, 99), sampleAt("web01", 40, 4), models.PerfSample{CPUPercent: 1})
	assert.Equal(t, 1, added, "duplicate timestamps and keyless samples are ignored")

	got := s.Query("web01", time.Time{}, time.Time{})
	require.Len(t, got, 4)
	for i, want := range []float64{1, 2, 3, 4} {
		assert.Equal(t, want, got[i].CPUPercent)
	}
	assert.Equal(t, 4, s.Len())
}

func TestStore_QueryRange(t *testing.T) {
	s := NewStore()
	for m := 0; m < 10; m++ {
		s.Append(sampleAt("web01", m, float64(m)))
	}

	got := s.Query("web01", t0.Add(2*time.Minute), t0.Add(5*time.Minute))
	require.Len(t, got, 3)
	assert.Equal(t, 2.0, got[0].CPUPercent)
	assert.Equal(t, 4.0, got[2].CPUPercent)

	assert.Empty(t, s.Query("web01", t0.Add(time.Hour), time.Time{}))
	assert.Empty(t, s.Query("missing", time.Time{}, time.Time{}))
}

func TestStore_QueryResultSurvivesAppend(t *testing.T) {
	s := NewStore()
	s.Append(sampleAt("web01", 10, 1), sampleAt("web01", 20, 2))

	view := s.Query("web01", time.Time{}, time.Time{})
	s.Append(sampleAt("web01", 5, 0))

	require.Len(t, view, 2)
	assert.Equal(t, 1.0, view[0].CPUPercent)
	assert.Len(t, s.Query("web01", time.Time{}, time.Time{}), 3)
}

func TestStore_Stats(t *testing.T) {
	s := NewStore()
	for m := 1; m <= 20; m++ {
		s.Append(sampleAt("db01", m, float64(m)))
	}

	stats, ok := s.Stats("db01", time.Time{}, time.Time{})
	require.True(t, ok)
	assert.Equal(t, "db01", stats.Key)
	assert.Equal(t, 20, stats.Samples)
	assert.InDelta(t, 10.5, stats.CPU.Avg, 1e-9)
	assert.Equal(t, 1.0, stats.CPU.Min)
	assert.Equal(t, 20.0, stats.CPU.Max)
	assert.Equal(t, 19.0, stats.CPU.P95)
	assert.Equal(t, 200.0, stats.IOPS.Max)
	assert.True(t, stats.From.Equal(t0.Add(time.Minute)))
	assert.True(t, stats.To.Equal(t0.Add(20*time.Minute)))

	_, ok = s.Stats("db01", t0.Add(time.Hour), time.Time{})
	assert.False(t, ok)
}

func TestStore_Prune(t *testing.T) {
	s := NewStore()
	for m := 0; m < 5; m++ {
		s.Append(sampleAt("a", m, 1), sampleAt("b", m, 1))
	}
	s.Append(sampleAt("old", 0, 1))

	removed := s.Prune(t0.Add(3 * time.Minute))
	assert.Equal(t, 7, removed)
	assert.Equal(t, []string{"a", "b"}, s.Keys())
	assert.Equal(t, 4, s.Len())
	assert.Equal(t, 0, s.Prune(t0))
}

func TestStore_ConcurrentAppendAndQuery(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for m := 0; m < 100; m++ {
				s.Append(sampleAt(fmt.Sprintf("vm%d", w), m, float64(m)))
			}
		}(w)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			samples := s.Query("vm0", time.Time{}, time.Time{})
			for j := 1; j < len(samples); j++ {
				if samples[j].Timestamp.Before(samples[j-1].Timestamp) {
					t.Error("samples out of order")
					return
				}
			}
		}
	}()
	wg.Wait()

	assert.Equal(t, 400, s.Len())
	assert.Len(t, s.All(), 400)
}
