// ABOUTME: Overrides command group: manage persisted what-if overrides
// ABOUTME: Overrides are stored in a YAML file and applied to every simulation

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/markalston/migration-planner/models"
	"github.com/markalston/migration-planner/services"
)

// overrideFlags holds the fields of one override
type overrideFlags struct {
	target  string
	region  string
	pricing string
}

func (f *overrideFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.target, "target", "", "Offering id (VMs) or playbook id (workloads)")
	cmd.Flags().StringVar(&f.region, "region", "", "Region for this entity")
	cmd.Flags().StringVar(&f.pricing, "pricing", "", "Pricing model for this entity")
}

func (f *overrideFlags) override() models.Override {
	return models.Override{Target: f.target, Region: f.region, PricingModel: f.pricing}
}

var overridesCmd = &cobra.Command{
	Use:   "overrides",
	Short: "Manage what-if overrides",
	Long: `Create, inspect and remove per-entity overrides.

Setting an override replaces any previous override for the same key.
Empty fields keep the baseline or scenario value.`,
}

var setFlags overrideFlags

var overridesSetCmd = &cobra.Command{
	Use:   "set <key>",
	Short: "Create or replace an override",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOverrides(func(s *session) error {
			return runOverridesSet(s, os.Stdout, outputMode(), args[0], setFlags.override())
		})
	},
}

var overridesGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Show one override",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOverrides(func(s *session) error {
			return runOverridesGet(s.engine.Overrides(), os.Stdout, outputMode(), args[0])
		})
	},
}

var overridesDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Remove an override; removing a missing key is not an error",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOverrides(func(s *session) error {
			s.engine.Overrides().Delete(args[0])
			fmt.Fprintf(os.Stdout, "Removed override for %s\n", args[0])
			return s.saveOverrides()
		})
	},
}

var overridesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every override",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOverrides(func(s *session) error {
			n := s.engine.Overrides().Len()
			s.engine.Overrides().Clear()
			fmt.Fprintf(os.Stdout, "Removed %d override(s)\n", n)
			return s.saveOverrides()
		})
	},
}

var overridesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List overrides",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOverrides(func(s *session) error {
			return runOverridesList(s.engine.Overrides(), os.Stdout, outputMode())
		})
	},
}

func init() {
	rootCmd.AddCommand(overridesCmd)
	overridesCmd.AddCommand(overridesSetCmd, overridesGetCmd, overridesDeleteCmd, overridesClearCmd, overridesListCmd)
	setFlags.register(overridesSetCmd)
}

func withOverrides(fn func(*session) error) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()
	return fn(s)
}

func runOverridesSet(s *session, w io.Writer, mode, key string, o models.Override) error {
	stored, err := s.engine.Overrides().Upsert(key, o)
	if err != nil {
		return err
	}
	if _, found := s.engine.Snapshot().VM(key); !found {
		if _, found := s.engine.Snapshot().Workload(key); !found {
			fmt.Fprintln(os.Stderr, paint(warnStyle, fmt.Sprintf("warning: %s is not in the current snapshot; it will be ignored until it is", key)))
		}
	}
	if err := s.saveOverrides(); err != nil {
		return err
	}
	return render(w, mode, stored, func(w io.Writer) { writeOverrides(w, []models.Override{stored}) })
}

func runOverridesGet(store *services.OverrideStore, w io.Writer, mode, key string) error {
	o, ok := store.Get(key)
	if !ok {
		return fmt.Errorf("no override for %s: %w", key, services.ErrNotFound)
	}
	return render(w, mode, o, func(w io.Writer) { writeOverrides(w, []models.Override{o}) })
}

func runOverridesList(store *services.OverrideStore, w io.Writer, mode string) error {
	list := store.List()
	return render(w, mode, list, func(w io.Writer) {
		if len(list) == 0 {
			fmt.Fprintln(w, paint(mutedStyle, "No overrides"))
			return
		}
		writeOverrides(w, list)
	})
}

func writeOverrides(w io.Writer, list []models.Override) {
	for _, o := range list {
		fmt.Fprintf(w, "%s\n", paint(titleStyle, o.Key))
		if o.Target != "" {
			fmt.Fprintf(w, "  target:  %s\n", o.Target)
		}
		if o.Region != "" {
			fmt.Fprintf(w, "  region:  %s\n", o.Region)
		}
		if o.PricingModel != "" {
			fmt.Fprintf(w, "  pricing: %s\n", o.PricingModel)
		}
		if !o.UpdatedAt.IsZero() {
			fmt.Fprintf(w, "  %s\n", paint(mutedStyle, "updated "+o.UpdatedAt.Format("2006-01-02 15:04:05 MST")))
		}
	}
}
