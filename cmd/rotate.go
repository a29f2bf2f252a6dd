package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/imbios/cohe/internal/domain"
)

func newRotateCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rotate <provider>",
		Short: "Rotate to the next account of a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := domain.Provider(strings.ToLower(args[0]))

			account, err := app.rotation.RotateAPIKey(cmd.Context(), provider)
			if err != nil {
				return err
			}
			if account == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "No enabled %s accounts available\n", provider.DisplayName())
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Rotated to %s (%s)\n", account.Name, account.Provider.DisplayName())
			return nil
		},
	}
}
