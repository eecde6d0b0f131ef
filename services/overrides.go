// ABOUTME: Thread-safe keyed store of what-if overrides, one per entity
// ABOUTME: Readers get value copies so a mutation is never observed half-applied

package services

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/markalston/migration-planner/metrics"
	"github.com/markalston/migration-planner/models"
)

// OverrideStore owns the only mutable engine state. It is created at process
// start and emptied only through Delete or Clear.
type OverrideStore struct {
	mu        sync.RWMutex
	overrides map[string]models.Override
	now       func() time.Time
	metrics   *metrics.Metrics
}

// NewOverrideStore creates an empty store. A nil clock uses time.Now.
func NewOverrideStore(now func() time.Time, m *metrics.Metrics) *OverrideStore {
	if now == nil {
		now = time.Now
	}
	return &OverrideStore{
		overrides: make(map[string]models.Override),
		now:       now,
		metrics:   m,
	}
}

// Upsert stores o under key, replacing any previous override for that key in
// full. Catalog references are resolved when a simulation applies them.
func (s *OverrideStore) Upsert(key string, o models.Override) (models.Override, error) {
	if err := ValidateEntityKey(key); err != nil {
		return models.Override{}, &ValidationError{Field: "key", Value: key, Err: err}
	}
	if o.IsEmpty() {
		return models.Override{}, &ValidationError{Field: "override", Value: key, Err: ErrEmptyOverride}
	}

	o.Key = key
	o.UpdatedAt = s.now()

	s.mu.Lock()
	s.overrides[key] = o
	s.mu.Unlock()

	s.metrics.OverrideMutation("upsert")
	slog.Debug("Override upserted", "key", sanitizeForLog(key), "target", sanitizeForLog(o.Target),
		"region", sanitizeForLog(o.Region), "pricing_model", sanitizeForLog(o.PricingModel))
	return o, nil
}

func (s *OverrideStore) Get(key string) (models.Override, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.overrides[key]
	return o, ok
}

// Delete removes the override for key. Deleting an absent key is not an error.
func (s *OverrideStore) Delete(key string) {
	s.mu.Lock()
	_, existed := s.overrides[key]
	delete(s.overrides, key)
	s.mu.Unlock()

	s.metrics.OverrideMutation("delete")
	slog.Debug("Override deleted", "key", sanitizeForLog(key), "existed", existed)
}

func (s *OverrideStore) Clear() {
	s.mu.Lock()
	n := len(s.overrides)
	s.overrides = make(map[string]models.Override)
	s.mu.Unlock()

	s.metrics.OverrideMutation("clear")
	slog.Debug("Overrides cleared", "count", n)
}

// Restore replaces the store contents with previously saved overrides,
// keeping their timestamps. Entries without a usable key are skipped.
func (s *OverrideStore) Restore(overrides []models.Override) int {
	next := make(map[string]models.Override, len(overrides))
	for _, o := range overrides {
		if ValidateEntityKey(o.Key) != nil || o.IsEmpty() {
			slog.Warn("Skipping invalid saved override", "key", sanitizeForLog(o.Key))
			continue
		}
		next[o.Key] = o
	}

	s.mu.Lock()
	s.overrides = next
	s.mu.Unlock()

	s.metrics.OverrideMutation("restore")
	return len(next)
}

// List returns all overrides sorted by key
func (s *OverrideStore) List() []models.Override {
	s.mu.RLock()
	list := make([]models.Override, 0, len(s.overrides))
	for _, o := range s.overrides {
		list = append(list, o)
	}
	s.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].Key < list[j].Key })
	return list
}

// Snapshot copies the current overrides for one simulation run
func (s *OverrideStore) Snapshot() map[string]models.Override {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(map[string]models.Override, len(s.overrides))
	for k, o := range s.overrides {
		snap[k] = o
	}
	return snap
}

func (s *OverrideStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.overrides)
}
