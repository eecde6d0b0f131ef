// ABOUTME: Business-case command: multi-year TCO comparison for a scenario
// ABOUTME: Adds one-time migration costs and yearly growth to a simulation

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/markalston/migration-planner/models"
	"github.com/markalston/migration-planner/services"
)

var (
	businessCaseFlags scenarioFlags
	businessCaseYears int
)

var businessCaseCmd = &cobra.Command{
	Use:   "business-case",
	Short: "Project multi-year on-prem vs cloud cost",
	Long: `Build a total-cost-of-ownership comparison from a simulated scenario.

Growth rates and one-time costs come from the catalog's business_case section.

Example:
  migration-planner business-case --years 5 --pricing 3_year_ri`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		businessCaseFlags.wavesSet = cmd.Flags().Changed("waves")
		sc, err := businessCaseFlags.scenario()
		if err != nil {
			return err
		}
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.close()

		return runBusinessCase(ctx, s.engine, os.Stdout, outputMode(), sc, businessCaseYears)
	},
}

func init() {
	rootCmd.AddCommand(businessCaseCmd)
	businessCaseFlags.register(businessCaseCmd)
	businessCaseCmd.Flags().IntVar(&businessCaseYears, "years", 0, "Analysis horizon in years (default from catalog)")
}

func runBusinessCase(ctx context.Context, e *services.Engine, w io.Writer, mode string, sc models.Scenario, years int) error {
	if years < 0 {
		return fmt.Errorf("--years must not be negative")
	}
	bc, err := e.BusinessCase(ctx, sc, years)
	if err != nil {
		return err
	}
	return render(w, mode, bc, func(w io.Writer) {
		heading(w, fmt.Sprintf("Business case (%d years)", bc.Years))
		fmt.Fprintf(w, "  On-prem monthly:  %s\n", money(bc.OnPremMonthly))
		fmt.Fprintf(w, "  Cloud monthly:    %s\n", money(bc.CloudMonthly))
		fmt.Fprintf(w, "  Monthly savings:  %s (%.1f%%)\n", money(bc.MonthlySavings), bc.SavingsPct)
		fmt.Fprintf(w, "  One-time cost:    %s\n", money(bc.MigrationOneTime))
		if bc.PaybackMonths < 0 {
			fmt.Fprintf(w, "  Payback:          %s\n", paint(badStyle, "never"))
		} else {
			fmt.Fprintf(w, "  Payback:          %d months\n", bc.PaybackMonths)
		}

		fmt.Fprintf(w, "\n  %-6s %14s %14s %14s %14s\n", "Year", "On-prem", "Cloud", "Net", "Cumulative")
		for _, y := range bc.Projection {
			fmt.Fprintf(w, "  %-6d %14s %14s %14s %14s\n", y.Year,
				money(y.OnPremCost), money(y.CloudCost), money(y.NetSavings), money(y.CumulativeSavings))
		}
		fmt.Fprintf(w, "\n  Total TCO: on-prem %s, cloud %s\n", money(bc.TotalOnPremTCO), money(bc.TotalCloudTCO))
	})
}
