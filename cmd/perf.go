// ABOUTME: Perf command: utilisation statistics for one entity over a window
// ABOUTME: Reads the sample file maintained by the collect command

package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/markalston/migration-planner/models"
	"github.com/markalston/migration-planner/perf"
)

var (
	perfDays    int
	samplesPath string
)

var perfCmd = &cobra.Command{
	Use:   "perf <key>",
	Short: "Show CPU, memory, disk and network statistics for a VM",
	Long: `Summarise collected performance samples as avg, min, max and p95.

The window is clamped to 1-30 days.

Example:
  migration-planner perf web01 --days 14`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		days := perfDays
		if days == 0 {
			days = c.PerfWindowDays
		}

		samples, err := perf.ReadSamples(resolve(samplesPath, c.SamplesPath))
		if err != nil {
			return err
		}
		store := perf.NewStore()
		store.Append(samples...)

		return runPerf(store, os.Stdout, outputMode(), args[0], days, time.Now())
	},
}

func init() {
	rootCmd.AddCommand(perfCmd)
	perfCmd.Flags().IntVar(&perfDays, "days", 0, "Window in days (default from PLANNER_PERF_WINDOW_DAYS)")
	rootCmd.PersistentFlags().StringVar(&samplesPath, "samples", "", "Performance sample file (overrides PLANNER_SAMPLES)")
}

func runPerf(store *perf.Store, w io.Writer, mode, key string, days int, now time.Time) error {
	window := perf.Window(days)
	stats, ok := store.Stats(key, now.Add(-window), time.Time{})
	if !ok {
		return fmt.Errorf("no performance samples for %s in the last %d days", key, int(window.Hours()/24))
	}
	return render(w, mode, stats, func(w io.Writer) {
		heading(w, fmt.Sprintf("%s (%d samples)", stats.Key, stats.Samples))
		fmt.Fprintln(w, paint(mutedStyle, fmt.Sprintf("  %s to %s", stats.From.Format(time.RFC3339), stats.To.Format(time.RFC3339))))
		fmt.Fprintf(w, "  %-12s %10s %10s %10s %10s\n", "", "avg", "min", "max", "p95")
		writeMetric(w, "CPU %", stats.CPU)
		writeMetric(w, "Memory %", stats.Memory)
		writeMetric(w, "IOPS", stats.IOPS)
		writeMetric(w, "Network KB/s", stats.Network)
	})
}

func writeMetric(w io.Writer, name string, m models.MetricStats) {
	fmt.Fprintf(w, "  %-12s %10.1f %10.1f %10.1f %10.1f\n", name, m.Avg, m.Min, m.Max, m.P95)
}
