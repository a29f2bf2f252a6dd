package domain

import (
	"sort"
	"time"
)

const ConfigVersion = "2.0.0"

type NotifyMethod string

const (
	NotifyConsole NotifyMethod = "console"
	NotifyDesktop NotifyMethod = "desktop"
	NotifyWebhook NotifyMethod = "webhook"
)

type NotificationSettings struct {
	Method   NotifyMethod
	Endpoint string
	Enabled  bool
}

type DashboardSettings struct {
	Port      int
	Host      string
	Enabled   bool
	AuthToken string
}

// Config is the aggregate root persisted as a single JSON document. It is
// the sole owner of all account and alert data.
type Config struct {
	Version         string
	Accounts        map[AccountID]Account
	ActiveAccountID AccountID
	Alerts          []AlertRule
	Notifications   NotificationSettings
	Dashboard       DashboardSettings
	Rotation        RotationPolicy
}

// DefaultConfig is the fresh store used on first run and whenever the
// persisted document is missing or unreadable.
func DefaultConfig() Config {
	return Config{
		Version:  ConfigVersion,
		Accounts: map[AccountID]Account{},
		Alerts:   DefaultAlerts(),
		Notifications: NotificationSettings{
			Method:  NotifyConsole,
			Enabled: true,
		},
		Dashboard: DashboardSettings{
			Port: 3456,
			Host: "localhost",
		},
		Rotation: RotationPolicy{
			Enabled:  false,
			Strategy: StrategyRoundRobin,
		},
	}
}

// ActiveAccount resolves the active pointer. A dangling pointer is tolerated
// and reported as absence, never auto-repaired.
func (c Config) ActiveAccount() (Account, bool) {
	if c.ActiveAccountID == "" {
		return Account{}, false
	}
	account, ok := c.Accounts[c.ActiveAccountID]
	return account, ok
}

// EnabledAccounts returns all enabled accounts in deterministic order:
// creation time ascending, id as tiebreaker. Map iteration alone would not
// give least-used rotation its stable tie-break.
func (c Config) EnabledAccounts() []Account {
	accounts := make([]Account, 0, len(c.Accounts))
	for _, account := range c.Accounts {
		if account.Enabled {
			accounts = append(accounts, account)
		}
	}
	sortAccountsByCreation(accounts)
	return accounts
}

// ProviderAccounts returns enabled accounts for one provider, same ordering
// as EnabledAccounts.
func (c Config) ProviderAccounts(provider Provider) []Account {
	accounts := make([]Account, 0, len(c.Accounts))
	for _, account := range c.Accounts {
		if account.Enabled && account.Provider == provider {
			accounts = append(accounts, account)
		}
	}
	sortAccountsByCreation(accounts)
	return accounts
}

func sortAccountsByCreation(accounts []Account) {
	sort.Slice(accounts, func(i, j int) bool {
		if !accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
		}
		return accounts[i].ID < accounts[j].ID
	})
}

// Touch stamps an account's last-used time in place.
func (c *Config) Touch(id AccountID, now time.Time) {
	account, ok := c.Accounts[id]
	if !ok {
		return
	}
	account.LastUsed = &now
	c.Accounts[id] = account
}
