package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/imbios/cohe/internal/domain"
)

func newAlertCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alert",
		Short: "Manage usage alert rules",
	}

	cmd.AddCommand(
		newAlertListCmd(app),
		newAlertAddCmd(app),
		newAlertEnableCmd(app),
		newAlertDisableCmd(app),
		newAlertNotifyCmd(app),
	)

	return cmd
}

func newAlertListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List alert rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rules, err := app.alerts.ListAlerts(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, rule := range rules {
				state := "enabled"
				if !rule.Enabled {
					state = "disabled"
				}
				fmt.Fprintf(out, "%s\t%s\t%.0f\t%s\n", rule.ID, rule.Kind, rule.Threshold, state)
			}
			return nil
		},
	}
}

func newAlertAddCmd(app *app) *cobra.Command {
	var (
		kindName  string
		threshold float64
	)

	cmd := &cobra.Command{
		Use:   "add <id>",
		Short: "Add an alert rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := domain.AlertKind(strings.ToLower(kindName))

			rule, err := app.alerts.AddAlert(cmd.Context(), args[0], kind, threshold)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added alert %s (%s at %.0f)\n", rule.ID, rule.Kind, rule.Threshold)
			return nil
		},
	}

	cmd.Flags().StringVar(&kindName, "type", string(domain.AlertUsage), "Alert type (usage or quota)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Threshold (percent for usage, amount for quota)")
	_ = cmd.MarkFlagRequired("threshold")

	return cmd
}

func newAlertNotifyCmd(app *app) *cobra.Command {
	var (
		methodName string
		endpoint   string
		enabled    bool
	)

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Configure alert delivery",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			method := domain.NotifyMethod(strings.ToLower(methodName))
			switch method {
			case domain.NotifyConsole, domain.NotifyDesktop, domain.NotifyWebhook:
			default:
				return fmt.Errorf("unsupported notify method %q", methodName)
			}

			if err := app.config.SetNotifications(cmd.Context(), method, endpoint, enabled); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Notifications: %s (enabled: %t)\n", method, enabled)
			return nil
		},
	}

	cmd.Flags().StringVar(&methodName, "method", string(domain.NotifyConsole), "Delivery method (console, desktop, webhook)")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Webhook endpoint URL")
	cmd.Flags().BoolVar(&enabled, "enabled", true, "Deliver triggered alerts")

	return cmd
}

func newAlertEnableCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "enable <id>",
		Short: "Enable an alert rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.alerts.SetAlertEnabled(cmd.Context(), args[0], true)
		},
	}
}

func newAlertDisableCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "disable <id>",
		Short: "Disable an alert rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.alerts.SetAlertEnabled(cmd.Context(), args[0], false)
		},
	}
}
