package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/imbios/cohe/internal/domain"
)

func newAutoCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auto",
		Short: "Automatic rotation between sessions",
	}

	cmd.AddCommand(
		newAutoEnableCmd(app),
		newAutoDisableCmd(app),
		newAutoStatusCmd(app),
		newAutoRotateCmd(app),
		newAutoHookCmd(app),
	)

	return cmd
}

func newAutoEnableCmd(app *app) *cobra.Command {
	var crossProvider bool

	cmd := &cobra.Command{
		Use:   "enable [strategy]",
		Short: "Enable automatic rotation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var strategy *domain.Strategy
			if len(args) == 1 {
				s := domain.Strategy(strings.ToLower(args[0]))
				strategy = &s
			}

			var cross *bool
			if cmd.Flags().Changed("cross-provider") {
				cross = &crossProvider
			}

			policy, err := app.config.ConfigureRotation(cmd.Context(), true, strategy, cross)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Automatic rotation enabled (%s, cross-provider: %t)\n", policy.Strategy, policy.CrossProvider)
			return nil
		},
	}

	cmd.Flags().BoolVar(&crossProvider, "cross-provider", false, "Rotate across providers instead of within the active one")

	return cmd
}

func newAutoDisableCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "disable",
		Short: "Disable automatic rotation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := app.config.ConfigureRotation(cmd.Context(), false, nil, nil); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Automatic rotation disabled")
			return nil
		},
	}
}

func newAutoStatusCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show rotation settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.config.Get(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Enabled:        %t\n", cfg.Rotation.Enabled)
			fmt.Fprintf(out, "Strategy:       %s\n", cfg.Rotation.Strategy.Normalize())
			fmt.Fprintf(out, "Cross-provider: %t\n", cfg.Rotation.CrossProvider)
			if cfg.Rotation.LastRotation != nil {
				fmt.Fprintf(out, "Last rotation:  %s\n", cfg.Rotation.LastRotation.Local().Format("2006-01-02 15:04:05"))
			} else {
				fmt.Fprintln(out, "Last rotation:  never")
			}
			return nil
		},
	}
}

func newAutoRotateCmd(app *app) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Rotate now, following the configured strategy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			account, err := app.rotation.RotateAcrossProviders(cmd.Context())
			if quiet {
				// Detached invocation: the session that scheduled this run
				// is long gone, so nothing is reported and nothing fails.
				return nil
			}
			if err != nil {
				return err
			}
			if account == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No enabled accounts available")
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Rotated to %s (%s)\n", account.Name, account.Provider.DisplayName())
			return nil
		},
	}

	cmd.Flags().BoolVar(&quiet, "quiet", false, "Suppress all output and swallow failures")

	return cmd
}

func newAutoHookCmd(app *app) *cobra.Command {
	var silent bool

	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Session-start hook: sync settings and schedule rotation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.hook.Run(cmd.Context(), silent, cmd.ErrOrStderr())
		},
	}

	cmd.Flags().BoolVar(&silent, "silent", false, "Suppress all reporting")

	return cmd
}
