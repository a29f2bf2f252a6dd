package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCmd(app *app) *cobra.Command {
	var accountSelector string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent usage snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if app.history == nil {
				return errors.New("usage history is unavailable")
			}

			selector := accountSelector
			if selector == "" {
				active, err := app.accounts.GetActiveAccount(cmd.Context())
				if err != nil {
					return err
				}
				selector = string(active.ID)
			}

			account, err := app.accounts.FindAccount(cmd.Context(), selector)
			if err != nil {
				return err
			}

			entries, err := app.history.Recent(cmd.Context(), account.ID, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "No usage history for %s\n", account.Name)
				return nil
			}

			for _, entry := range entries {
				fmt.Fprintf(out, "%s\t%s\t%.0f/%.0f\t%.1f%%\n",
					entry.RecordedAt.Local().Format("2006-01-02 15:04:05"),
					entry.Provider.DisplayName(),
					entry.Used, entry.Limit, entry.Percent,
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&accountSelector, "account", "", "Account ID or name (default: active account)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum rows to show")

	return cmd
}
