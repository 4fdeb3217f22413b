// Command orchestrator runs the multi-agent task orchestration server: it
// classifies tasks, dispatches them to a fixed set of agent personas,
// plans and executes multi-step goals, and exposes all of it over HTTP/SSE.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "orchestrator",
		Short: "Multi-agent task orchestration server",
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	root.AddCommand(buildServeCmd(), buildClassifyCmd(), buildPlanCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
