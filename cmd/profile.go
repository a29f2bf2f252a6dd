package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProfileCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Save and apply provider configuration profiles",
	}

	cmd.AddCommand(
		newProfileSaveCmd(app),
		newProfileApplyCmd(app),
		newProfileListCmd(app),
		newProfileDeleteCmd(app),
	)

	return cmd
}

func newProfileSaveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save <name>",
		Short: "Save the active account's configuration as a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := app.profiles.SaveFromActive(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved profile %s (%s)\n", profile.Name, profile.Provider.DisplayName())
			return nil
		},
	}
}

func newProfileApplyCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <name>",
		Short: "Apply a profile to the active account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := app.profiles.Apply(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Applied profile %s to %s\n", args[0], account.Name)
			return nil
		},
	}
}

func newProfileListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := app.profiles.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, profile := range items {
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\n",
					profile.Name,
					profile.Provider.DisplayName(),
					profile.DefaultModel,
					profile.SavedAt.Local().Format("2006-01-02 15:04"),
				)
			}
			return nil
		},
	}
}

func newProfileDeleteCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.profiles.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted profile %s\n", args[0])
			return nil
		},
	}
}
