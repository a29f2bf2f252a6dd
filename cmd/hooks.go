package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHooksCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hooks",
		Short: "Manage the Claude Code session-start hook",
	}

	cmd.AddCommand(
		newHooksSetupCmd(app),
		newHooksUninstallCmd(app),
		newHooksStatusCmd(app),
	)

	return cmd
}

func newHooksSetupCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Install the session-start hook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			installed, err := app.settings.SetupHook(cmd.Context())
			if err != nil {
				return err
			}

			if installed {
				fmt.Fprintln(cmd.OutOrStdout(), "Session-start hook installed")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Session-start hook already installed")
			}
			return nil
		},
	}
}

func newHooksUninstallCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the session-start hook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			removed, err := app.settings.UninstallHook(cmd.Context())
			if err != nil {
				return err
			}

			if removed {
				fmt.Fprintln(cmd.OutOrStdout(), "Session-start hook removed")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "No session-start hook found")
			}
			return nil
		},
	}
}

func newHooksStatusCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show hook installation status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := app.settings.Status(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Settings file: %t\n", status.SettingsFound)
			fmt.Fprintf(out, "Hook present:  %t\n", status.HookRegistered)
			if status.HookRegistered {
				fmt.Fprintf(out, "Command:       %s\n", status.HookCommand)
			}
			return nil
		},
	}
}
