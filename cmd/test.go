package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/imbios/cohe/internal/domain"
)

func newTestCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "test [provider]",
		Short: "Probe account endpoints with a minimal request",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			accounts, err := app.accounts.ListAccounts(cmd.Context())
			if err != nil {
				return err
			}

			var filter domain.Provider
			if len(args) == 1 {
				filter = domain.Provider(strings.ToLower(args[0]))
				if !filter.Valid() {
					return fmt.Errorf("%w: %s", domain.ErrUnknownProvider, args[0])
				}
			}

			out := cmd.OutOrStdout()
			tested := 0
			for _, account := range accounts {
				if !account.Enabled {
					continue
				}
				if filter != "" && account.Provider != filter {
					continue
				}

				tested++
				model := account.DefaultModel
				if model == "" {
					model = account.Provider.ModelFor(domain.TierSonnet)
				}

				if app.tester.Test(cmd.Context(), account.APIKey, account.BaseURL, model) {
					fmt.Fprintf(out, "✓ %s (%s)\n", account.Name, account.Provider.DisplayName())
				} else {
					fmt.Fprintf(out, "✗ %s (%s)\n", account.Name, account.Provider.DisplayName())
				}
			}

			if tested == 0 {
				fmt.Fprintln(out, "No enabled accounts to test")
			}
			return nil
		},
	}
}
