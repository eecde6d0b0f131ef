// ABOUTME: Summary command: fleet rollup of readiness, targets, families and folders
// ABOUTME: Computed from baseline recommendations for one region and pricing model

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/markalston/migration-planner/models"
	"github.com/markalston/migration-planner/services"
)

var (
	summaryRegion  string
	summaryPricing string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize the fleet's readiness and estimated cost",
	Long: `Roll the baseline recommendations up into readiness counts, target and
family distributions, cost by family, and folder distribution.

Example:
  migration-planner summary --region westeurope --pricing 3_year_ri
  migration-planner summary --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.close()

		c := currentConfig()
		return runSummary(ctx, s.engine, os.Stdout, outputMode(),
			resolve(summaryRegion, c.Region), resolve(summaryPricing, c.PricingModel))
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().StringVar(&summaryRegion, "region", "", "Target region (default from PLANNER_REGION)")
	summaryCmd.Flags().StringVar(&summaryPricing, "pricing", "", "Pricing model (default from PLANNER_PRICING_MODEL)")
}

func runSummary(ctx context.Context, e *services.Engine, w io.Writer, mode, region, pricingModel string) error {
	s, err := e.FleetSummary(ctx, region, pricingModel)
	if err != nil {
		return err
	}
	return render(w, mode, s, func(w io.Writer) { writeSummary(w, s) })
}

func writeSummary(w io.Writer, s models.FleetSummary) {
	heading(w, fmt.Sprintf("Fleet summary (%s, %s)", s.Region, s.PricingModel))
	fmt.Fprintf(w, "  VMs:        %d (%d on, %d off) on %d hosts\n", s.VMs, s.PoweredOn, s.PoweredOff, s.Hosts)
	fmt.Fprintf(w, "  OS:         %d windows, %d linux, %d other\n", s.Windows, s.Linux, s.OtherOS)
	fmt.Fprintf(w, "  Workloads:  %d\n", s.Workloads)
	fmt.Fprintf(w, "  Capacity:   %d vCPU, %g GB memory, %g TB disk\n", s.TotalVCPU, s.TotalMemoryGB, s.TotalDiskTB)
	fmt.Fprintf(w, "  Readiness:  %s %d, %s %d, %s %d\n",
		readinessLabel(models.ReadinessReady), s.Ready,
		readinessLabel(models.ReadinessWithIssues), s.WithIssues,
		readinessLabel(models.ReadinessNotReady), s.NotReady)
	fmt.Fprintf(w, "  On-prem:    %s/month\n", money(s.OnPremMonthly))
	fmt.Fprintf(w, "  Cloud:      %s/month, %s/year\n", money(s.MonthlyCost), money(s.AnnualCost))

	fmt.Fprintf(w, "\nBy family:\n")
	for _, family := range sortedByCount(s.Families) {
		fmt.Fprintf(w, "  %-24s %5d %14s\n", family, s.Families[family], money(s.CostByFamily[family]))
	}
	fmt.Fprintf(w, "\nBy target:\n")
	for _, target := range sortedByCount(s.Targets) {
		fmt.Fprintf(w, "  %-40s %5d\n", target, s.Targets[target])
	}
	fmt.Fprintf(w, "\nBy folder:\n")
	for _, folder := range sortedByCount(s.Folders) {
		fmt.Fprintf(w, "  %-40s %5d\n", folder, s.Folders[folder])
	}
}

// sortedByCount orders keys by descending count, then name
func sortedByCount(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
