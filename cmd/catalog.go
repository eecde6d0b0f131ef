// ABOUTME: Catalog command: inspect regions, pricing models, offerings and playbooks
// ABOUTME: Does not need an inventory snapshot

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/markalston/migration-planner/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Show the cloud catalog in use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.LoadOrDefault(resolve(catalogPath, currentConfig().CatalogPath))
		if err != nil {
			return err
		}
		return runCatalog(cat, os.Stdout, outputMode())
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}

// catalogView is the serialised shape of the catalog listing
type catalogView struct {
	Regions       any `json:"regions" yaml:"regions"`
	PricingModels any `json:"pricing_models" yaml:"pricing_models"`
	Offerings     any `json:"offerings" yaml:"offerings"`
	Playbooks     any `json:"playbooks" yaml:"playbooks"`
}

func runCatalog(cat *catalog.Catalog, w io.Writer, mode string) error {
	view := catalogView{
		Regions:       cat.Regions(),
		PricingModels: cat.PricingModels(),
		Offerings:     cat.Offerings(),
		Playbooks:     cat.Playbooks(),
	}
	return render(w, mode, view, func(w io.Writer) {
		heading(w, "Regions")
		for _, r := range cat.Regions() {
			fmt.Fprintf(w, "  %-16s x%.2f\n", r.ID, r.Multiplier)
		}

		heading(w, "\nPricing models")
		for _, p := range cat.PricingModels() {
			fmt.Fprintf(w, "  %-18s x%.2f\n", p.ID, p.Factor)
		}

		heading(w, "\nOfferings")
		for _, o := range cat.Offerings() {
			fmt.Fprintf(w, "  %-20s %3d vCPU %5g GB  %s/hour\n", o.ID, o.VCPU, o.MemoryGB, paint(mutedStyle, fmt.Sprintf("$%.4f", o.HourlyPrice)))
		}

		heading(w, "\nPlaybooks")
		for _, p := range cat.Playbooks() {
			versions := p.Versions
			if versions == "" {
				versions = "any version"
			}
			fmt.Fprintf(w, "  %-18s %-10s %-22s %s\n", p.ID, p.Engine, versions, paint(mutedStyle, p.Service))
		}
	})
}
