package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	accountsrender "github.com/imbios/cohe/internal/adapters/render/accounts"
	"github.com/imbios/cohe/internal/application"
	"github.com/imbios/cohe/internal/domain"
)

const usageStaleAfter = 6 * time.Hour

func newAccountCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage provider accounts",
	}

	cmd.AddCommand(
		newAccountAddCmd(app),
		newAccountListCmd(app),
		newAccountSwitchCmd(app),
		newAccountRemoveCmd(app),
		newAccountEditCmd(app),
	)

	return cmd
}

func newAccountAddCmd(app *app) *cobra.Command {
	var (
		name         string
		providerName string
		apiKey       string
		baseURL      string
		model        string
		groupID      string
		priority     int
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a provider account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			provider := domain.Provider(strings.ToLower(providerName))

			account, err := app.accounts.AddAccount(cmd.Context(), name, provider, apiKey, baseURL, model, groupID)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("priority") {
				account, err = app.accounts.UpdateAccount(cmd.Context(), account.ID, application.AccountUpdate{Priority: &priority})
				if err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added account %s (%s) for %s\n", account.Name, account.ID, account.Provider.DisplayName())
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Account name")
	cmd.Flags().StringVar(&providerName, "provider", "", "Provider (zai or minimax)")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Provider API key")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Anthropic-compatible base URL (default: provider default)")
	cmd.Flags().StringVar(&model, "model", "", "Default model for sessions")
	cmd.Flags().StringVar(&groupID, "group-id", "", "MiniMax group ID")
	cmd.Flags().IntVar(&priority, "priority", 0, "Rotation priority (lower is preferred)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("provider")
	_ = cmd.MarkFlagRequired("api-key")

	return cmd
}

func newAccountListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.store.Load(cmd.Context())
			if err != nil {
				return err
			}

			accounts, err := app.accounts.ListAccounts(cmd.Context())
			if err != nil {
				return err
			}

			views := make([]accountsrender.View, 0, len(accounts))
			for _, account := range accounts {
				views = append(views, accountsrender.View{
					Account: account,
					Active:  account.ID == cfg.ActiveAccountID,
				})
			}

			output, err := app.renderer(views, accountsrender.RenderOptions{Now: app.now(), StaleAfter: usageStaleAfter})
			if err != nil {
				return err
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), output)
			return err
		},
	}
}

func newAccountSwitchCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "switch <account>",
		Short: "Make an account the active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := app.accounts.FindAccount(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if err := app.accounts.SwitchAccount(cmd.Context(), account.ID); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Switched to %s (%s)\n", account.Name, account.Provider.DisplayName())
			return nil
		},
	}
}

func newAccountRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <account>",
		Short: "Remove an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := app.accounts.FindAccount(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if err := app.accounts.DeleteAccount(cmd.Context(), account.ID); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed account %s\n", account.Name)
			return nil
		},
	}
}

func newAccountEditCmd(app *app) *cobra.Command {
	var (
		name     string
		apiKey   string
		baseURL  string
		model    string
		groupID  string
		priority int
		enabled  bool
	)

	cmd := &cobra.Command{
		Use:   "edit <account>",
		Short: "Edit account fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := app.accounts.FindAccount(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var update application.AccountUpdate
			flags := cmd.Flags()
			if flags.Changed("name") {
				update.Name = &name
			}
			if flags.Changed("api-key") {
				update.APIKey = &apiKey
			}
			if flags.Changed("base-url") {
				update.BaseURL = &baseURL
			}
			if flags.Changed("model") {
				update.DefaultModel = &model
			}
			if flags.Changed("group-id") {
				update.GroupID = &groupID
			}
			if flags.Changed("priority") {
				update.Priority = &priority
			}
			if flags.Changed("enabled") {
				update.Enabled = &enabled
			}

			updated, err := app.accounts.UpdateAccount(cmd.Context(), account.ID, update)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Updated account %s\n", updated.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Account name")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Provider API key")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Anthropic-compatible base URL")
	cmd.Flags().StringVar(&model, "model", "", "Default model for sessions")
	cmd.Flags().StringVar(&groupID, "group-id", "", "MiniMax group ID")
	cmd.Flags().IntVar(&priority, "priority", 0, "Rotation priority (lower is preferred)")
	cmd.Flags().BoolVar(&enabled, "enabled", true, "Include the account in rotation")

	return cmd
}
