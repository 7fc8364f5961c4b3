package main

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"hris/internal/app/server"
	"hris/internal/platform/jobs"
)

var jobsTenant string

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Run scheduled jobs on demand",
}

var jobsRunCmd = &cobra.Command{
	Use:       "run <reminders|vacation_grant>",
	Short:     "Run one job for a tenant and record it in job_runs",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{server.JobReminders, server.JobVacationGrant},
	RunE: func(cmd *cobra.Command, args []string) error {
		if jobsTenant == "" {
			return fmt.Errorf("--tenant is required")
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.RunMigrations = false
		cfg.RunSeed = false
		cfg.SeedStatutoryTables = false
		cfg.StatutoryTablesDir = ""

		app, err := server.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		var fn jobs.TenantFunc
		switch args[0] {
		case server.JobReminders:
			fn = app.SendReminders
		case server.JobVacationGrant:
			fn = app.GrantVacations
		default:
			return fmt.Errorf("unknown job %q", args[0])
		}

		details, err := app.Jobs.RunNow(cmd.Context(), args[0], jobsTenant, fn)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(details, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	jobsRunCmd.Flags().StringVar(&jobsTenant, "tenant", "", "tenant id")
	jobsCmd.AddCommand(jobsRunCmd)
	rootCmd.AddCommand(jobsCmd)
}
