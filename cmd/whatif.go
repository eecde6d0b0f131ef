// ABOUTME: What-if command: cost delta of one override without storing it
// ABOUTME: With --matrix, prices every offering for a VM across regions and pricing models

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
	whatIfRegion        string
	whatIfPricing       string
	whatIfChange        overrideFlags
	whatIfMatrix        bool
	whatIfMatrixRegions []string
	whatIfMatrixPricing []string
)

var whatIfCmd = &cobra.Command{
	Use:   "whatif <key>",
	Short: "Show the cost delta of an override without saving it",
	Long: `Compare an entity's baseline recommendation with an override applied.

With --matrix, list every offering for a VM instead: whether it fits, and its
monthly cost (managed disks included) in each region and pricing model.

Example:
  migration-planner whatif web01 --target Standard_D4s_v5
  migration-planner whatif db01/mssql:1433 --pricing 3_year_ri --json
  migration-planner whatif web01 --matrix --matrix-region eastus,westeurope`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.close()

		c := currentConfig()
		region, pricing := resolve(whatIfRegion, c.Region), resolve(whatIfPricing, c.PricingModel)
		if whatIfMatrix {
			return runOfferingMatrix(ctx, s.engine, os.Stdout, outputMode(), args[0], region, pricing,
				whatIfMatrixRegions, whatIfMatrixPricing)
		}
		return runWhatIf(ctx, s.engine, os.Stdout, outputMode(), args[0], whatIfChange.override(), region, pricing)
	},
}

func init() {
	rootCmd.AddCommand(whatIfCmd)
	whatIfCmd.Flags().StringVar(&whatIfRegion, "baseline-region", "", "Baseline region (default from PLANNER_REGION)")
	whatIfCmd.Flags().StringVar(&whatIfPricing, "baseline-pricing", "", "Baseline pricing model (default from PLANNER_PRICING_MODEL)")
	whatIfCmd.Flags().BoolVar(&whatIfMatrix, "matrix", false, "Compare every offering across regions and pricing models")
	whatIfCmd.Flags().StringSliceVar(&whatIfMatrixRegions, "matrix-region", nil, "Regions in the matrix (default all)")
	whatIfCmd.Flags().StringSliceVar(&whatIfMatrixPricing, "matrix-pricing", nil, "Pricing models in the matrix (default all)")
	whatIfChange.register(whatIfCmd)
	whatIfCmd.MarkFlagsMutuallyExclusive("matrix", "target")
}

func runWhatIf(ctx context.Context, e *services.Engine, w io.Writer, mode, key string, o models.Override, region, pricingModel string) error {
	if o.IsEmpty() {
		return fmt.Errorf("an override needs at least one of --target, --region, --pricing")
	}
	result, err := e.WhatIf(ctx, key, o, region, pricingModel)
	if err != nil {
		return err
	}
	return render(w, mode, result, func(w io.Writer) {
		heading(w, "What-if: "+result.Key)
		fmt.Fprintf(w, "  Baseline: %-20s %12s\n", result.BaselineTarget, money(result.BaselineMonthly))
		fmt.Fprintf(w, "  Override: %-20s %12s\n", result.Target, money(result.MonthlyCost))
		delta := fmt.Sprintf("%+.2f", result.Delta)
		if result.Delta > 0 {
			delta = paint(badStyle, delta)
		} else if result.Delta < 0 {
			delta = paint(okStyle, delta)
		}
		fmt.Fprintf(w, "  Delta:    %s per month\n", delta)
		writeIssues(w, "  ", result.Issues)
	})
}

func runOfferingMatrix(ctx context.Context, e *services.Engine, w io.Writer, mode, key, region, pricingModel string, regions, pricingModels []string) error {
	c, err := e.CompareOfferings(ctx, key, region, pricingModel, regions, pricingModels)
	if err != nil {
		return err
	}
	return render(w, mode, c, func(w io.Writer) { writeOfferingMatrix(w, c) })
}

func writeOfferingMatrix(w io.Writer, c models.OfferingComparison) {
	heading(w, fmt.Sprintf("Offerings for %s (current %s, %s/month in %s %s)",
		c.Key, c.Current, money(c.CurrentCost), c.Region, c.PricingModel))
	if c.Cheapest != "" && c.Cheapest != c.Current {
		fmt.Fprintf(w, "  Cheapest fitting: %s at %s\n", c.Cheapest, money(c.CheapestCost))
	}
	if c.Storage != nil {
		fmt.Fprintf(w, "  Storage: %g GB %s, included in every cell\n", c.Storage.ProvisionedGB, c.Storage.Tier)
	}
	if c.Observed != nil {
		fmt.Fprintf(w, "  Observed: CPU p95 %.0f%%, memory p95 %.0f%%, IOPS p95 %.0f (%d samples)\n",
			c.Observed.CPU.P95, c.Observed.Memory.P95, c.Observed.IOPS.P95, c.Observed.Samples)
	}

	for _, region := range c.Regions {
		fmt.Fprintf(w, "\n%s\n", paint(mutedStyle, region))
		var header strings.Builder
		fmt.Fprintf(&header, "    %-22s %5s %8s", "offering", "vcpu", "mem GB")
		for _, pm := range c.PricingModels {
			fmt.Fprintf(&header, " %16s", pm)
		}
		fmt.Fprintln(w, paint(mutedStyle, header.String()))

		for _, opt := range c.Options {
			marker := " "
			switch {
			case opt.Current:
				marker = "*"
			case !opt.Fits:
				marker = "x"
			}
			fmt.Fprintf(w, "  %s %-22s %5d %8g", marker, opt.Offering, opt.VCPU, opt.MemoryGB)
			for _, pm := range c.PricingModels {
				cost, _ := opt.Cost(region, pm)
				cell := fmt.Sprintf("%16s", money(cost))
				if !opt.Fits {
					cell = paint(mutedStyle, cell)
				}
				fmt.Fprintf(w, " %s", cell)
			}
			fmt.Fprintln(w)
		}
	}
	fmt.Fprintf(w, "\n%s\n", paint(mutedStyle, "* current   x does not fit"))
}
