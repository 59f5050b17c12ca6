package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/viralforge/dashboard-bff/internal/app/bootstrap"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check every backend once and print the results as JSON",
	Long:  `probe issues one lightweight GET per backend and exits non-zero when any backend is down.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		runtime, err := bootstrap.NewRuntime(cmd.Context(), configPath)
		if err != nil {
			return fmt.Errorf("bootstrap probe runtime: %w", err)
		}
		results := runtime.Probe(cmd.Context())

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
		for _, result := range results {
			if !result.Up {
				return fmt.Errorf("%s service is down: %s", result.Service, result.Status)
			}
		}
		return nil
	},
}
