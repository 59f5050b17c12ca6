package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/viralforge/dashboard-bff/internal/app/bootstrap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the gRPC health server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		runtime, err := bootstrap.NewRuntime(cmd.Context(), configPath)
		if err != nil {
			return fmt.Errorf("bootstrap api runtime: %w", err)
		}
		return runtime.RunAPI(cmd.Context())
	},
}
