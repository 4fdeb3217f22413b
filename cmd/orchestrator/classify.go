package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nexus-orchestrator/orchestrator/internal/classifier"
)

func buildClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify [task text]",
		Short: "Classify a task and print the chosen agent, confidence, and complexity",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task := strings.Join(args, " ")
			result := classifier.New().Classify(task)
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return fmt.Errorf("encode classification: %w", err)
			}
			return nil
		},
	}
}
