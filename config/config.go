// ABOUTME: Configuration loader for the planner CLI and engine
// ABOUTME: Loads settings from an optional .env file and environment variables with defaults

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Catalog
	CatalogPath string // empty uses the embedded default catalog

	// Scenario defaults
	Region       string
	PricingModel string
	Waves        int

	// Sizing weights
	CPUWeight float64
	RAMWeight float64

	// Engine
	CacheTTL int // seconds, baseline recommendation cache

	// Files
	SnapshotPath  string
	OverridesPath string
	SamplesPath   string // perf store persisted between collector runs

	// Performance collection
	CollectSchedule string
	PerfWindowDays  int

	// Metrics textfile export (empty disables)
	MetricsFile string

	// Styled terminal output
	Color bool
}

// CacheDuration returns CacheTTL as a duration
func (c *Config) CacheDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// Load reads .env when present without overriding variables already set,
// then builds the config from the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	cfg := &Config{
		CatalogPath: os.Getenv("PLANNER_CATALOG"),

		Region:       getEnv("PLANNER_REGION", "eastus"),
		PricingModel: getEnv("PLANNER_PRICING_MODEL", "pay_as_you_go"),
		Waves:        getEnvInt("PLANNER_WAVES", 3),

		CPUWeight: getEnvFloat("PLANNER_CPU_WEIGHT", 0.5),
		RAMWeight: getEnvFloat("PLANNER_RAM_WEIGHT", 0.5),

		CacheTTL: getEnvInt("PLANNER_CACHE_TTL", 300),

		SnapshotPath:  getEnv("PLANNER_SNAPSHOT", "snapshot.yaml"),
		OverridesPath: getEnv("PLANNER_OVERRIDES", "overrides.yaml"),
		SamplesPath:   getEnv("PLANNER_SAMPLES", "samples.yaml"),

		CollectSchedule: getEnv("PLANNER_COLLECT_SCHEDULE", "@every 15m"),
		PerfWindowDays:  getEnvInt("PLANNER_PERF_WINDOW_DAYS", 7),

		MetricsFile: os.Getenv("PLANNER_METRICS_FILE"),

		Color: getEnvBool("PLANNER_COLOR", true),
	}

	if cfg.Waves < 1 {
		return nil, fmt.Errorf("PLANNER_WAVES must be at least 1, got %d", cfg.Waves)
	}
	if cfg.CacheTTL < 0 {
		return nil, fmt.Errorf("PLANNER_CACHE_TTL must not be negative, got %d", cfg.CacheTTL)
	}
	if cfg.CPUWeight < 0 || cfg.RAMWeight < 0 || cfg.CPUWeight+cfg.RAMWeight == 0 {
		return nil, fmt.Errorf("sizing weights must be non-negative and not both zero, got cpu=%g ram=%g", cfg.CPUWeight, cfg.RAMWeight)
	}
	if cfg.PerfWindowDays < 1 || cfg.PerfWindowDays > 30 {
		return nil, fmt.Errorf("PLANNER_PERF_WINDOW_DAYS must be between 1 and 30, got %d", cfg.PerfWindowDays)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
