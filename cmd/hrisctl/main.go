// Command hrisctl operates an hris deployment: it serves the API, manages the
// schema, loads statutory tables and runs scheduled jobs on demand.
//
//	hrisctl migrate up
//	hrisctl tables load ./tables
//	hrisctl calc payroll --daily-salary 500 --period biweekly
//	hrisctl serve
//
// Configuration comes from the same environment variables as the server.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"hris/internal/platform/config"
)

var rootCmd = &cobra.Command{
	Use:           "hrisctl",
	Short:         "Operate the hris service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
