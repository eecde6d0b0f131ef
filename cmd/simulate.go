// ABOUTME: Simulate command: wave-planned migration with a 12-month cost projection
// ABOUTME: Scenario flags are shared with the business-case command

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/markalston/migration-planner/models"
	"github.com/markalston/migration-planner/services"
)

// scenarioFlags holds the flags that describe a simulation scenario
type scenarioFlags struct {
	file       string
	region     string
	pricing    string
	waves      int
	wavesSet   bool // --waves given, even as 0
	kinds      []string
	categories []string
	name       string
	keys       []string
	pins       map[string]int
}

func (f *scenarioFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.file, "scenario", "", "Scenario YAML file; flags below override its values")
	cmd.Flags().StringVar(&f.region, "region", "", "Target region (default from PLANNER_REGION)")
	cmd.Flags().StringVar(&f.pricing, "pricing", "", "Pricing model (default from PLANNER_PRICING_MODEL)")
	cmd.Flags().IntVar(&f.waves, "waves", 0, "Number of migration waves (default from PLANNER_WAVES)")
	cmd.Flags().StringSliceVar(&f.kinds, "kind", nil, "Only include entity kinds: vm, workload")
	cmd.Flags().StringSliceVar(&f.categories, "category", nil, "Only include workload categories: database, web, container, orchestrator")
	cmd.Flags().StringVar(&f.name, "name", "", "Only include keys containing this text (case-insensitive)")
	cmd.Flags().StringSliceVar(&f.keys, "key", nil, "Only include these entity keys")
	cmd.Flags().StringToIntVar(&f.pins, "pin", nil, "Pin an entity to a wave, e.g. --pin db01=1")
}

// scenario builds the scenario from the optional file, then flags, then config defaults
func (f *scenarioFlags) scenario() (models.Scenario, error) {
	var sc models.Scenario
	fileWaves := false
	if f.file != "" {
		data, err := os.ReadFile(f.file)
		if err != nil {
			return sc, fmt.Errorf("reading scenario: %w", err)
		}
		if err := yaml.Unmarshal(data, &sc); err != nil {
			return sc, fmt.Errorf("parsing scenario %s: %w", f.file, err)
		}
		var explicit struct {
			Waves *int `yaml:"waves"`
		}
		if err := yaml.Unmarshal(data, &explicit); err == nil {
			fileWaves = explicit.Waves != nil
		}
	}

	c := currentConfig()
	sc.Region = resolve(f.region, resolve(sc.Region, c.Region))
	sc.PricingModel = resolve(f.pricing, resolve(sc.PricingModel, c.PricingModel))
	// An explicit 0 is kept so validation rejects it
	switch {
	case f.wavesSet || f.waves != 0:
		sc.Waves = f.waves
	case !fileWaves:
		sc.Waves = c.Waves
	}

	for _, k := range f.kinds {
		sc.Filter.Kinds = append(sc.Filter.Kinds, models.EntityKind(k))
	}
	for _, cat := range f.categories {
		sc.Filter.Categories = append(sc.Filter.Categories, models.WorkloadCategory(cat))
	}
	if f.name != "" {
		sc.Filter.Name = f.name
	}
	sc.Filter.Keys = append(sc.Filter.Keys, f.keys...)
	if len(f.pins) > 0 && sc.Pins == nil {
		sc.Pins = map[string]int{}
	}
	for k, wave := range f.pins {
		sc.Pins[k] = wave
	}
	return sc, nil
}

var simulateFlags scenarioFlags

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate a phased migration",
	Long: `Simulate migrating the selected entities in waves and project 12 months of cost.

Stored overrides apply; overrides in a --scenario file win for the same key.

Example:
  migration-planner simulate --waves 4 --pricing 1_year_ri --category database
  migration-planner simulate --scenario q3.yaml --pin db01/mssql:1433=1 --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		simulateFlags.wavesSet = cmd.Flags().Changed("waves")
		sc, err := simulateFlags.scenario()
		if err != nil {
			return err
		}
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.close()

		return runSimulate(ctx, s.engine, os.Stdout, outputMode(), sc)
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateFlags.register(simulateCmd)
}

func runSimulate(ctx context.Context, e *services.Engine, w io.Writer, mode string, sc models.Scenario) error {
	result, err := e.Simulate(ctx, sc)
	if err != nil {
		return err
	}
	return render(w, mode, result, func(w io.Writer) { writeSimulation(w, result) })
}

func writeSimulation(w io.Writer, r models.SimulationResult) {
	heading(w, fmt.Sprintf("Migration simulation (%s, %s, %d waves)", r.Region, r.PricingModel, r.Waves))

	for _, wave := range r.WaveSummaries {
		fmt.Fprintf(w, "\nWave %d %s\n", wave.Wave,
			paint(mutedStyle, fmt.Sprintf("(month %d, %d entities, %s/month)", wave.Month, len(wave.Keys), money(wave.MonthlyCost))))
		for _, item := range r.LineItems {
			if item.Wave != wave.Wave {
				continue
			}
			marker := " "
			if item.Overridden {
				marker = "*"
			}
			fmt.Fprintf(w, " %s %-32s %-20s %12s  %s\n", marker, item.Key, item.Target, money(item.MonthlyCost), readinessLabel(item.Readiness))
			writeIssues(w, "      ", item.Issues)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "On-prem monthly:   %s\n", money(r.TotalOnPremMonthly))
	fmt.Fprintf(w, "Baseline monthly:  %s\n", money(r.TotalBaseline))
	fmt.Fprintf(w, "Simulated monthly: %s\n", money(r.TotalMonthly))
	fmt.Fprintf(w, "Monthly savings:   %s\n", money(r.MonthlySavings))
	fmt.Fprintf(w, "12-month savings:  %s\n", money(r.TotalSavings))

	if len(r.Warnings) > 0 {
		fmt.Fprintf(w, "\nWarnings:\n")
		writeIssues(w, "  ", r.Warnings)
	}
}
