// ABOUTME: Recommend command: target offering or playbook per entity
// ABOUTME: Prints one entity when a key is given, otherwise the whole fleet

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/markalston/migration-planner/models"
	"github.com/markalston/migration-planner/services"
)

var (
	recommendRegion  string
	recommendPricing string
)

var recommendCmd = &cobra.Command{
	Use:   "recommend [key]",
	Short: "Recommend cloud targets for VMs and workloads",
	Long: `Recommend a target offering for each VM and a migration playbook for each workload.

Workload keys have the form <vm>/<engine>:<port>.

Example:
  migration-planner recommend --region westeurope --pricing 3_year_ri
  migration-planner recommend db01/mssql:1433 -o yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.close()

		c := currentConfig()
		key := ""
		if len(args) == 1 {
			key = args[0]
		}
		return runRecommend(ctx, s.engine, os.Stdout, outputMode(), key,
			resolve(recommendRegion, c.Region), resolve(recommendPricing, c.PricingModel))
	},
}

func init() {
	rootCmd.AddCommand(recommendCmd)
	recommendCmd.Flags().StringVar(&recommendRegion, "region", "", "Target region (default from PLANNER_REGION)")
	recommendCmd.Flags().StringVar(&recommendPricing, "pricing", "", "Pricing model (default from PLANNER_PRICING_MODEL)")
}

func runRecommend(ctx context.Context, e *services.Engine, w io.Writer, mode, key, region, pricingModel string) error {
	if key != "" {
		var (
			rec models.Recommendation
			err error
		)
		if strings.Contains(key, "/") {
			rec, err = e.RecommendWorkload(ctx, key, region, pricingModel)
		} else {
			rec, err = e.RecommendVM(ctx, key, region, pricingModel)
		}
		if err != nil {
			return err
		}
		return render(w, mode, rec, func(w io.Writer) { writeRecommendation(w, rec) })
	}

	recs, err := e.RecommendFleet(ctx, region, pricingModel)
	if err != nil {
		return err
	}
	return render(w, mode, recs, func(w io.Writer) { writeFleet(w, recs, region, pricingModel) })
}

func writeRecommendation(w io.Writer, rec models.Recommendation) {
	heading(w, rec.Key)
	fmt.Fprintf(w, "  Target:     %s", rec.Target)
	if rec.TargetName != "" && rec.TargetName != rec.Target {
		fmt.Fprintf(w, " (%s)", rec.TargetName)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Monthly:    %s (%s, %s)\n", money(rec.MonthlyCost), rec.Region, rec.PricingModel)
	if rec.Storage != nil {
		fmt.Fprintf(w, "  Storage:    %s for %.0f GB %s (compute %s)\n",
			money(rec.Storage.Monthly), rec.Storage.ProvisionedGB, rec.Storage.Tier, money(rec.ComputeMonthly))
	}
	fmt.Fprintf(w, "  Readiness:  %s\n", readinessLabel(rec.Readiness))
	fmt.Fprintf(w, "  Confidence: %.0f%%\n", rec.Confidence*100)
	if rec.Kind == models.KindWorkload {
		fmt.Fprintf(w, "  Approach:   %s (%s complexity)\n", rec.Approach, rec.Complexity)
		for i, step := range rec.Steps {
			fmt.Fprintf(w, "    %d. %s\n", i+1, step)
		}
		if len(rec.Alternatives) > 0 {
			fmt.Fprintf(w, "  Alternatives: %s\n", strings.Join(rec.Alternatives, ", "))
		}
	}
	if rec.Observed != nil {
		fmt.Fprintf(w, "  Observed:   CPU p95 %.0f%%, memory p95 %.0f%%, IOPS p95 %.0f (%d samples)\n",
			rec.Observed.CPU.P95, rec.Observed.Memory.P95, rec.Observed.IOPS.P95, rec.Observed.Samples)
	}
	for _, note := range rec.Notes {
		fmt.Fprintln(w, paint(mutedStyle, "  note: "+note))
	}
	writeIssues(w, "  ", rec.Issues)
}

func writeFleet(w io.Writer, recs []models.Recommendation, region, pricingModel string) {
	heading(w, fmt.Sprintf("Recommendations (%s, %s)", region, pricingModel))
	var total float64
	for _, rec := range recs {
		total += rec.MonthlyCost
		fmt.Fprintf(w, "  %-32s %-20s %12s  %s\n", rec.Key, rec.Target, money(rec.MonthlyCost), readinessLabel(rec.Readiness))
		writeIssues(w, "      ", rec.Issues)
	}
	fmt.Fprintf(w, "\n  %d entities, %s per month\n", len(recs), money(total))
}
