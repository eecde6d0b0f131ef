// ABOUTME: Root command for the migration-planner CLI
// ABOUTME: Handles global flags, configuration, and engine construction

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/markalston/migration-planner/catalog"
	"github.com/markalston/migration-planner/config"
	"github.com/markalston/migration-planner/inventory"
	"github.com/markalston/migration-planner/logger"
	"github.com/markalston/migration-planner/metrics"
	"github.com/markalston/migration-planner/perf"
	"github.com/markalston/migration-planner/services"
)

var (
	jsonOutput    bool
	outputFormat  string
	catalogPath   string
	snapshotPath  string
	overridesPath string

	cfg *config.Config
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "migration-planner",
	Short: "Cloud migration recommendations and wave simulation",
	Long: `migration-planner sizes discovered VMs and workloads against a cloud catalog,
simulates phased migrations, and projects the cost of moving.

Environment Variables:
  PLANNER_CATALOG        Catalog YAML (default: embedded catalog)
  PLANNER_SNAPSHOT       Inventory snapshot file (default: snapshot.yaml)
  PLANNER_OVERRIDES      Persisted what-if overrides (default: overrides.yaml)
  PLANNER_REGION         Default region (default: eastus)
  PLANNER_PRICING_MODEL  Default pricing model (default: pay_as_you_go)
  PLANNER_METRICS_FILE   Write Prometheus metrics here after each command
  LOG_LEVEL, LOG_FORMAT  Logging to stderr`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.Init()
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		if !cfg.Color {
			disableColor()
		}
		return validateOutputFormat(outputMode())
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json, yaml")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "Catalog YAML (overrides PLANNER_CATALOG)")
	rootCmd.PersistentFlags().StringVar(&snapshotPath, "snapshot", "", "Inventory snapshot file (overrides PLANNER_SNAPSHOT)")
	rootCmd.PersistentFlags().StringVar(&overridesPath, "overrides", "", "Overrides file (overrides PLANNER_OVERRIDES)")
}

// outputMode resolves --json and --output, with --json winning
func outputMode() string {
	if jsonOutput {
		return "json"
	}
	return strings.ToLower(outputFormat)
}

func validateOutputFormat(mode string) error {
	switch mode {
	case "text", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("--output must be one of text, json, yaml; got %q", mode)
	}
}

func currentConfig() *config.Config {
	if cfg == nil {
		cfg = &config.Config{
			Region:          "eastus",
			PricingModel:    "pay_as_you_go",
			Waves:           3,
			CPUWeight:       0.5,
			RAMWeight:       0.5,
			CacheTTL:        300,
			SnapshotPath:    "snapshot.yaml",
			OverridesPath:   "overrides.yaml",
			SamplesPath:     "samples.yaml",
			CollectSchedule: "@every 15m",
			PerfWindowDays:  7,
		}
	}
	return cfg
}

func resolve(flag, fallback string) string {
	if flag != "" {
		return flag
	}
	return fallback
}

// session bundles an engine loaded with the current snapshot and overrides
type session struct {
	engine        *services.Engine
	metrics       *metrics.Metrics
	overridesPath string
	metricsFile   string
}

// openSession loads the catalog, snapshot and persisted overrides.
func openSession() (*session, error) {
	c := currentConfig()

	cat, err := catalog.LoadOrDefault(resolve(catalogPath, c.CatalogPath))
	if err != nil {
		return nil, err
	}

	samples, err := perf.ReadSamples(resolve(samplesPath, c.SamplesPath))
	if err != nil {
		return nil, err
	}
	usage := perf.NewStore()
	usage.Append(samples...)

	m := metrics.New()
	e := services.NewEngine(cat, services.EngineOptions{
		Weights:     services.SizingWeights{CPU: c.CPUWeight, RAM: c.RAMWeight},
		CacheTTL:    c.CacheDuration(),
		Metrics:     m,
		Usage:       usage,
		UsageWindow: perf.Window(c.PerfWindowDays),
	})
	s := &session{
		engine:        e,
		metrics:       m,
		overridesPath: resolve(overridesPath, c.OverridesPath),
		metricsFile:   c.MetricsFile,
	}

	path := resolve(snapshotPath, c.SnapshotPath)
	snap, err := inventory.Load(path)
	if err != nil {
		e.Close()
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("no inventory snapshot at %s; pass --snapshot or set PLANNER_SNAPSHOT", path)
		}
		return nil, err
	}
	loaded := e.LoadSnapshot(*snap)
	slog.Debug("Snapshot loaded", "path", path, "vms", len(loaded.VMs), "workloads", len(loaded.Workloads))

	saved, err := inventory.LoadOverrides(s.overridesPath)
	if err != nil {
		e.Close()
		return nil, err
	}
	if n := e.Overrides().Restore(saved); n > 0 {
		slog.Debug("Overrides restored", "count", n)
	}
	return s, nil
}

// saveOverrides persists the override store
func (s *session) saveOverrides() error {
	return inventory.SaveOverrides(s.overridesPath, s.engine.Overrides().List())
}

// close writes the metrics textfile when configured and releases the engine
func (s *session) close() {
	if s.metricsFile != "" {
		if err := s.metrics.WriteToTextfile(s.metricsFile); err != nil {
			slog.Warn("Writing metrics textfile failed", "path", s.metricsFile, "error", err)
		}
	}
	s.engine.Close()
}
