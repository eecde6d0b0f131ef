// ABOUTME: Multi-year TCO business case built from a simulation result
// ABOUTME: Applies yearly cost growth and computes migration payback

package services

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/markalston/migration-planner/models"
)

// BuildBusinessCase projects on-prem and cloud cost over years. Years <= 0 uses
// the catalog default horizon.
func BuildBusinessCase(result models.SimulationResult, a models.BusinessCaseAssumptions, years int) models.BusinessCase {
	if years <= 0 {
		years = a.DefaultAnalysisYears
	}
	if years <= 0 {
		years = 1
	}

	vms := 0
	for _, item := range result.LineItems {
		if item.Kind == models.KindVM {
			vms++
		}
	}

	onPremMonthly := decimal.NewFromFloat(result.TotalOnPremMonthly)
	cloudMonthly := decimal.NewFromFloat(result.TotalMonthly).
		Add(decimal.NewFromFloat(a.CloudOpsPerVM).Mul(decimal.NewFromInt(int64(vms))))
	monthlySavings := onPremMonthly.Sub(cloudMonthly)

	oneTime := decimal.NewFromFloat(a.MigrationTooling).
		Add(decimal.NewFromFloat(a.Training)).
		Add(decimal.NewFromFloat(a.ServicesPerEntity).Mul(decimal.NewFromInt(int64(len(result.LineItems)))))

	twelve := decimal.NewFromInt(12)
	onPremGrowth := decimal.NewFromFloat(1 + a.OnPremGrowth)
	cloudGrowth := decimal.NewFromFloat(1 + a.CloudGrowth)

	bc := models.BusinessCase{
		Years:            years,
		OnPremMonthly:    onPremMonthly.Round(2).InexactFloat64(),
		CloudMonthly:     cloudMonthly.Round(2).InexactFloat64(),
		MonthlySavings:   monthlySavings.Round(2).InexactFloat64(),
		MigrationOneTime: oneTime.Round(2).InexactFloat64(),
		PaybackMonths:    -1,
		Projection:       make([]models.YearProjection, 0, years),
	}
	if onPremMonthly.IsPositive() {
		bc.SavingsPct = monthlySavings.Div(onPremMonthly).Mul(decimal.NewFromInt(100)).Round(1).InexactFloat64()
	}
	if monthlySavings.IsPositive() {
		bc.PaybackMonths = int(math.Ceil(oneTime.Div(monthlySavings).InexactFloat64()))
	}

	// Cumulative savings start at minus the migration investment
	cumulative := oneTime.Neg()
	totalOnPrem, totalCloud := decimal.Zero, oneTime
	for year := 1; year <= years; year++ {
		exp := int64(year - 1)
		onPremYear := onPremMonthly.Mul(twelve).Mul(onPremGrowth.Pow(decimal.NewFromInt(exp))).Round(2)
		cloudYear := cloudMonthly.Mul(twelve).Mul(cloudGrowth.Pow(decimal.NewFromInt(exp))).Round(2)
		net := onPremYear.Sub(cloudYear)
		cumulative = cumulative.Add(net)
		totalOnPrem = totalOnPrem.Add(onPremYear)
		totalCloud = totalCloud.Add(cloudYear)

		bc.Projection = append(bc.Projection, models.YearProjection{
			Year:              year,
			OnPremCost:        onPremYear.InexactFloat64(),
			CloudCost:         cloudYear.InexactFloat64(),
			NetSavings:        net.InexactFloat64(),
			CumulativeSavings: cumulative.Round(2).InexactFloat64(),
		})
	}
	bc.TotalOnPremTCO = totalOnPrem.Round(2).InexactFloat64()
	bc.TotalCloudTCO = totalCloud.Round(2).InexactFloat64()
	return bc
}
