// ABOUTME: Graph command: VM-to-VM dependencies derived from workload endpoints
// ABOUTME: Helps group tightly coupled VMs into the same migration wave

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/markalston/migration-planner/services"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Show VM dependencies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.close()

		return runGraph(s.engine, os.Stdout, outputMode())
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}

func runGraph(e *services.Engine, w io.Writer, mode string) error {
	g := e.DependencyGraph()
	return render(w, mode, g, func(w io.Writer) {
		heading(w, fmt.Sprintf("Dependencies (%d VMs, %d edges)", len(g.Nodes), g.EdgeCount()))
		for _, node := range g.Nodes {
			edges := g.Outgoing(node)
			if len(edges) == 0 {
				continue
			}
			fmt.Fprintf(w, "  %s\n", node)
			for _, edge := range edges {
				fmt.Fprintf(w, "    -> %s %s\n", edge.To, paint(mutedStyle, edge.Label))
			}
		}
	})
}
