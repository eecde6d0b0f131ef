// ABOUTME: Collect command: pull performance samples into the sample file
// ABOUTME: Runs once for cron jobs or stays up on the configured schedule

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/markalston/migration-planner/metrics"
	"github.com/markalston/migration-planner/perf"
)

var (
	collectOnce     bool
	collectFrom     string
	collectSchedule string
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect performance samples",
	Long: `Import performance samples from an export file into the sample store.

With --once a single collection runs and the command exits. Otherwise the
collector runs on the configured schedule until interrupted.

Example:
  migration-planner collect --from vcenter-export.json --once
  migration-planner collect --from /var/spool/perf.yaml --schedule "@every 5m"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if collectFrom == "" {
			return fmt.Errorf("--from is required")
		}
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		c := currentConfig()
		m := metrics.New()
		defer func() {
			if c.MetricsFile != "" {
				if err := m.WriteToTextfile(c.MetricsFile); err != nil {
					slog.Warn("Writing metrics textfile failed", "path", c.MetricsFile, "error", err)
				}
			}
		}()

		return runCollect(ctx, os.Stdout, perf.FileSource{Path: collectFrom}, collectOptions{
			samplesPath: resolve(samplesPath, c.SamplesPath),
			schedule:    resolve(collectSchedule, c.CollectSchedule),
			once:        collectOnce,
			metrics:     m,
		})
	},
}

func init() {
	rootCmd.AddCommand(collectCmd)
	collectCmd.Flags().BoolVar(&collectOnce, "once", false, "Collect once and exit")
	collectCmd.Flags().StringVar(&collectFrom, "from", "", "Sample export to read (YAML or JSON)")
	collectCmd.Flags().StringVar(&collectSchedule, "schedule", "", "Cron schedule (default from PLANNER_COLLECT_SCHEDULE)")
}

type collectOptions struct {
	samplesPath string
	schedule    string
	once        bool
	metrics     *metrics.Metrics
}

// runCollect loads the sample file, collects into it, and writes it back.
// In scheduled mode the file is written when ctx is cancelled.
func runCollect(ctx context.Context, w io.Writer, source perf.Source, opts collectOptions) error {
	existing, err := perf.ReadSamples(opts.samplesPath)
	if err != nil {
		return err
	}
	store := perf.NewStore()
	store.Append(existing...)

	collector := perf.NewCollector(source, store, perf.CollectorOptions{
		Schedule: opts.schedule,
		Metrics:  opts.metrics,
	})

	if opts.once {
		added, err := collector.RunOnce(ctx)
		if err != nil {
			return err
		}
		if err := perf.WriteSamples(opts.samplesPath, store); err != nil {
			return err
		}
		fmt.Fprintf(w, "Collected %d new sample(s); %d stored\n", added, store.Len())
		return nil
	}

	if err := collector.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	collector.Stop()

	if err := perf.WriteSamples(opts.samplesPath, store); err != nil {
		return err
	}
	fmt.Fprintf(w, "Collector stopped; %d sample(s) stored\n", store.Len())
	return nil
}
