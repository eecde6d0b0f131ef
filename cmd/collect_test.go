// ABOUTME: Tests for the collect, perf and overrides commands
// ABOUTME: Uses temporary sample and override files

package cmd

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/markalston/migration-planner/inventory"
	"github.com/markalston/migration-planner/models"
	"github.com/markalston/migration-planner/perf"
	"github.com/markalston/migration-planner/services"
)

func TestRunCollect_Once(t *testing.T) {
	dir := t.TempDir()
	exportPath := filepath.Join(dir, "export.json")
	samplesFile := filepath.Join(dir, "samples.yaml")

	now := time.Now().UTC().Truncate(time.Second)
	export := perf.NewStore()
	export.Append(
		models.PerfSample{Key: "web01", Timestamp: now.Add(-time.Hour), CPUPercent: 20},
		models.PerfSample{Key: "web01", Timestamp: now.Add(-30 * time.Minute), CPUPercent: 40},
	)
	if err := perf.WriteSamples(exportPath, export); err != nil {
		t.Fatalf("Failed to write export: %v", err)
	}

	opts := collectOptions{samplesPath: samplesFile, once: true}
	var buf bytes.Buffer
	if err := runCollect(context.Background(), &buf, perf.FileSource{Path: exportPath}, opts); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "Collected 2 new sample(s)") {
		t.Errorf("Expected 2 new samples, got %q", buf.String())
	}

	buf.Reset()
	if err := runCollect(context.Background(), &buf, perf.FileSource{Path: exportPath}, opts); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "Collected 0 new sample(s); 2 stored") {
		t.Errorf("Expected re-collection to add nothing, got %q", buf.String())
	}
}

func TestRunCollect_SourceError(t *testing.T) {
	failing := perf.SourceFunc(func(ctx context.Context) ([]models.PerfSample, error) {
		return nil, errors.New("export unavailable")
	})
	opts := collectOptions{samplesPath: filepath.Join(t.TempDir(), "samples.yaml"), once: true}

	var buf bytes.Buffer
	if err := runCollect(context.Background(), &buf, failing, opts); err == nil {
		t.Error("Expected error from failing source")
	}
}

func TestRunPerf(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	store := perf.NewStore()
	for h := 1; h <= 4; h++ {
		store.Append(models.PerfSample{Key: "web01", Timestamp: now.Add(-time.Duration(h) * time.Hour), CPUPercent: float64(h * 10)})
	}
	store.Append(models.PerfSample{Key: "web01", Timestamp: now.Add(-10 * 24 * time.Hour), CPUPercent: 99})

	var buf bytes.Buffer
	if err := runPerf(store, &buf, "text", "web01", 7, now); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "web01 (4 samples)") {
		t.Errorf("Expected the 7-day window to hold 4 samples, got:\n%s", out)
	}
	if !strings.Contains(out, "CPU %") || !strings.Contains(out, "25.0") {
		t.Errorf("Expected CPU average 25.0, got:\n%s", out)
	}

	buf.Reset()
	if err := runPerf(store, &buf, "text", "db01", 7, now); err == nil {
		t.Error("Expected error for an entity without samples")
	}
}

func TestRunOverrides_SetGetList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.yaml")
	s := &session{engine: testEngine(t), overridesPath: path}

	var buf bytes.Buffer
	if err := runOverridesSet(s, &buf, "text", "web01", models.Override{Target: "Standard_D4s_v5"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "target:  Standard_D4s_v5") {
		t.Errorf("Expected stored override in output, got %q", buf.String())
	}

	saved, err := inventory.LoadOverrides(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(saved) != 1 || saved[0].Key != "web01" {
		t.Errorf("Expected override persisted to file, got %+v", saved)
	}

	buf.Reset()
	if err := runOverridesGet(s.engine.Overrides(), &buf, "text", "web01"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := runOverridesGet(s.engine.Overrides(), &buf, "text", "db01"); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	buf.Reset()
	s.engine.Overrides().Clear()
	if err := runOverridesList(s.engine.Overrides(), &buf, "text"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "No overrides") {
		t.Errorf("Expected empty listing, got %q", buf.String())
	}
}

func TestRunOverridesSet_Invalid(t *testing.T) {
	s := &session{engine: testEngine(t), overridesPath: filepath.Join(t.TempDir(), "overrides.yaml")}

	var buf bytes.Buffer
	err := runOverridesSet(s, &buf, "text", "web01", models.Override{})
	if !services.IsValidation(err) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestOutputMode(t *testing.T) {
	defer func() {
		jsonOutput = false
		outputFormat = "text"
	}()

	outputFormat = "YAML"
	if outputMode() != "yaml" {
		t.Errorf("Expected yaml, got %s", outputMode())
	}
	jsonOutput = true
	if outputMode() != "json" {
		t.Errorf("Expected --json to win, got %s", outputMode())
	}

	if err := validateOutputFormat("xml"); err == nil {
		t.Error("Expected error for unsupported output format")
	}
}

func TestMoney(t *testing.T) {
	if got := money(60.736); got != "$60.74" {
		t.Errorf("Expected $60.74, got %s", got)
	}
	if got := money(-5.09); got != "-$5.09" {
		t.Errorf("Expected -$5.09, got %s", got)
	}
}
