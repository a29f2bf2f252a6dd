package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDashboardCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Manage dashboard settings",
	}

	cmd.AddCommand(
		newDashboardEnableCmd(app),
		newDashboardDisableCmd(app),
		newDashboardStatusCmd(app),
	)

	return cmd
}

func newDashboardEnableCmd(app *app) *cobra.Command {
	var port int
	var host string

	cmd := &cobra.Command{
		Use:   "enable",
		Short: "Enable the dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := app.config.ToggleDashboard(cmd.Context(), true, port, host)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Dashboard enabled on %s:%d\n", settings.Host, settings.Port)
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Dashboard port (default: keep current)")
	cmd.Flags().StringVar(&host, "host", "", "Dashboard host (default: keep current)")

	return cmd
}

func newDashboardDisableCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "disable",
		Short: "Disable the dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := app.config.ToggleDashboard(cmd.Context(), false, 0, ""); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Dashboard disabled")
			return nil
		},
	}
}

func newDashboardStatusCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show dashboard settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.config.Get(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Enabled: %t\n", cfg.Dashboard.Enabled)
			fmt.Fprintf(out, "Address: %s:%d\n", cfg.Dashboard.Host, cfg.Dashboard.Port)
			if cfg.Dashboard.AuthToken != "" {
				fmt.Fprintf(out, "Token:   %s\n", cfg.Dashboard.AuthToken)
			}
			return nil
		},
	}
}
