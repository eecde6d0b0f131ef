// ABOUTME: Entry point for the migration-planner CLI
// ABOUTME: Cloud migration recommendations, wave simulation and cost projection

package main

import (
	"fmt"
	"os"

	"github.com/markalston/migration-planner/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
