package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "dashboard-bff",
	Short: "Backend-for-frontend for the blob, reports and data services",
	Long: `dashboard-bff fronts the blob, reports and data backends behind one
role-gated JSON API. Identity is taken from the X-Auth-User and X-Auth-Roles
headers set by the authenticating gateway.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/default.yaml", "Path to the YAML config file (env overrides it)")
	rootCmd.AddCommand(serveCmd, probeCmd)
}

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
