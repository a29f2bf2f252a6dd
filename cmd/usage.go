package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	accountsrender "github.com/imbios/cohe/internal/adapters/render/accounts"
	"github.com/imbios/cohe/internal/domain"
)

func newUsageCmd(app *app) *cobra.Command {
	var accountSelector string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Fetch and display account usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUsageFetch(cmd, app, accountSelector, asJSON)
		},
	}

	cmd.Flags().StringVar(&accountSelector, "account", "", "Account ID or name (default: all accounts)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func runUsageFetch(cmd *cobra.Command, app *app, accountSelector string, asJSON bool) error {
	targets, err := selectAccounts(cmd.Context(), app, accountSelector)
	if err != nil {
		return err
	}

	cfg, err := app.store.Load(cmd.Context())
	if err != nil {
		return err
	}
	alerts := app.alertsFor(cfg.Notifications, cmd.ErrOrStderr())

	fresh := make(map[domain.AccountID]domain.UsageStats, len(targets))
	fetch := func(ctx context.Context) error {
		for _, account := range targets {
			provider, ok := app.providers[account.Provider]
			if !ok {
				continue
			}

			stats := provider.GetUsage(ctx, account.APIKey, account.GroupID)
			fresh[account.ID] = stats
			if !stats.Available() {
				continue
			}

			snapshot := domain.UsageSnapshot{
				Used:        stats.Used,
				Limit:       stats.Limit,
				LastUpdated: app.now(),
			}
			if err := app.accounts.RecordUsage(ctx, account.ID, snapshot); err != nil {
				return err
			}
			if app.history != nil {
				_ = app.history.Record(ctx, account, stats)
			}
			if _, err := alerts.Evaluate(ctx, account, stats); err != nil {
				return err
			}
		}

		return nil
	}

	if asJSON {
		if err := fetch(cmd.Context()); err != nil {
			return err
		}
	} else {
		if err := runFetchSpinner(cmd.Context(), cmd.ErrOrStderr(), "Fetching usage limits...", fetch); err != nil {
			return err
		}
	}

	updated, err := selectAccounts(cmd.Context(), app, accountSelector)
	if err != nil {
		return err
	}

	return writeUsageOutput(cmd, app, updated, fresh, asJSON)
}

func selectAccounts(ctx context.Context, app *app, selector string) ([]domain.Account, error) {
	if selector == "" {
		return app.accounts.ListAccounts(ctx)
	}

	account, err := app.accounts.FindAccount(ctx, selector)
	if err != nil {
		return nil, err
	}

	return []domain.Account{account}, nil
}

// usageReport is the JSON output shape. Credentials never leave the store.
type usageReport struct {
	ID       domain.AccountID      `json:"id"`
	Name     string                `json:"name"`
	Provider domain.Provider       `json:"provider"`
	Active   bool                  `json:"active"`
	Usage    *domain.UsageStats    `json:"usage,omitempty"`
	Cached   *domain.UsageSnapshot `json:"cached,omitempty"`
}

func writeUsageOutput(cmd *cobra.Command, app *app, accounts []domain.Account, fresh map[domain.AccountID]domain.UsageStats, asJSON bool) error {
	cfg, err := app.store.Load(cmd.Context())
	if err != nil {
		return err
	}

	views := make([]accountsrender.View, 0, len(accounts))
	for _, account := range accounts {
		view := accountsrender.View{
			Account: account,
			Active:  account.ID == cfg.ActiveAccountID,
		}
		if stats, ok := fresh[account.ID]; ok && stats.Available() {
			s := stats
			view.Stats = &s
		}
		views = append(views, view)
	}

	if asJSON {
		reports := make([]usageReport, 0, len(views))
		for _, view := range views {
			reports = append(reports, usageReport{
				ID:       view.Account.ID,
				Name:     view.Account.Name,
				Provider: view.Account.Provider,
				Active:   view.Active,
				Usage:    view.Stats,
				Cached:   view.Account.Usage,
			})
		}

		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(reports)
	}

	output, err := app.renderer(views, accountsrender.RenderOptions{Now: app.now(), StaleAfter: usageStaleAfter})
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), output)
	return err
}
