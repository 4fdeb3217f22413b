package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nexus-orchestrator/orchestrator/internal/config"
)

func buildPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan [goal text]",
		Short: "Ask the planner to break a goal into a dependency-ordered plan and print it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			goal := strings.Join(args, " ")
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			srv, err := buildServer(cfg, slog.New(slog.NewTextHandler(os.Stderr, nil)))
			if err != nil {
				return fmt.Errorf("build server: %w", err)
			}
			defer srv.Evaluator.Close()

			plan, err := srv.Planner.CreatePlan(cmd.Context(), "", goal)
			if err != nil {
				return fmt.Errorf("create plan: %w", err)
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(plan)
		},
	}
}
