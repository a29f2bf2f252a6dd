package application

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/imbios/cohe/internal/domain"
	"github.com/imbios/cohe/internal/ports"
)

type AccountService struct {
	store ports.ConfigStore
	clock ports.Clock
}

func NewAccountService(store ports.ConfigStore, clock ports.Clock) *AccountService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &AccountService{store: store, clock: clock}
}

// newAccountID combines a millisecond timestamp with random entropy so that
// ids stay unique even under rapid successive calls.
func (s *AccountService) newAccountID() domain.AccountID {
	entropy := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return domain.AccountID(fmt.Sprintf("acc_%d_%s", s.clock.Now().UnixMilli(), entropy))
}

func (s *AccountService) AddAccount(ctx context.Context, name string, provider domain.Provider, apiKey, baseURL, defaultModel, groupID string) (domain.Account, error) {
	if !provider.Valid() {
		return domain.Account{}, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, provider)
	}

	if baseURL == "" {
		baseURL = provider.Defaults().BaseURL
	}

	account := domain.Account{
		ID:           s.newAccountID(),
		Name:         name,
		Provider:     provider,
		APIKey:       apiKey,
		BaseURL:      baseURL,
		DefaultModel: defaultModel,
		GroupID:      groupID,
		Priority:     0,
		Enabled:      true,
		CreatedAt:    s.clock.Now(),
	}

	err := s.store.Mutate(ctx, func(cfg *domain.Config) (bool, error) {
		cfg.Accounts[account.ID] = account
		if cfg.ActiveAccountID == "" {
			cfg.ActiveAccountID = account.ID
		}
		return true, nil
	})
	if err != nil {
		return domain.Account{}, fmt.Errorf("add account: %w", err)
	}

	return account, nil
}

// AccountUpdate carries the fields an edit may change; nil means "keep".
type AccountUpdate struct {
	Name         *string
	APIKey       *string
	BaseURL      *string
	DefaultModel *string
	GroupID      *string
	Priority     *int
	Enabled      *bool
	Usage        *domain.UsageSnapshot
}

func (s *AccountService) UpdateAccount(ctx context.Context, id domain.AccountID, update AccountUpdate) (domain.Account, error) {
	var updated domain.Account

	err := s.store.Mutate(ctx, func(cfg *domain.Config) (bool, error) {
		account, ok := cfg.Accounts[id]
		if !ok {
			return false, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, id)
		}

		if update.Name != nil {
			account.Name = *update.Name
		}
		if update.APIKey != nil {
			account.APIKey = *update.APIKey
		}
		if update.BaseURL != nil {
			account.BaseURL = *update.BaseURL
		}
		if update.DefaultModel != nil {
			account.DefaultModel = *update.DefaultModel
		}
		if update.GroupID != nil {
			account.GroupID = *update.GroupID
		}
		if update.Priority != nil {
			account.Priority = *update.Priority
		}
		if update.Enabled != nil {
			account.Enabled = *update.Enabled
		}
		if update.Usage != nil {
			account.Usage = update.Usage
		}

		now := s.clock.Now()
		account.LastUsed = &now
		cfg.Accounts[id] = account
		updated = account
		return true, nil
	})
	if err != nil {
		return domain.Account{}, err
	}

	return updated, nil
}

// DeleteAccount removes an account. When it was the active one, the active
// pointer falls back to an arbitrary remaining account, or clears entirely.
func (s *AccountService) DeleteAccount(ctx context.Context, id domain.AccountID) error {
	return s.store.Mutate(ctx, func(cfg *domain.Config) (bool, error) {
		if _, ok := cfg.Accounts[id]; !ok {
			return false, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, id)
		}

		delete(cfg.Accounts, id)

		if cfg.ActiveAccountID == id {
			cfg.ActiveAccountID = ""
			for remaining := range cfg.Accounts {
				cfg.ActiveAccountID = remaining
				break
			}
		}
		return true, nil
	})
}

func (s *AccountService) SwitchAccount(ctx context.Context, id domain.AccountID) error {
	return s.store.Mutate(ctx, func(cfg *domain.Config) (bool, error) {
		if _, ok := cfg.Accounts[id]; !ok {
			return false, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, id)
		}

		cfg.ActiveAccountID = id
		cfg.Touch(id, s.clock.Now())
		return true, nil
	})
}

// ListAccounts returns every account sorted ascending by priority; equal
// priorities keep a stable creation order.
func (s *AccountService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	cfg, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	accounts := make([]domain.Account, 0, len(cfg.Accounts))
	for _, account := range cfg.Accounts {
		accounts = append(accounts, account)
	}
	sort.SliceStable(accounts, func(i, j int) bool {
		if accounts[i].Priority != accounts[j].Priority {
			return accounts[i].Priority < accounts[j].Priority
		}
		if !accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
		}
		return accounts[i].ID < accounts[j].ID
	})

	return accounts, nil
}

func (s *AccountService) GetActiveAccount(ctx context.Context) (domain.Account, error) {
	cfg, err := s.store.Load(ctx)
	if err != nil {
		return domain.Account{}, fmt.Errorf("load config: %w", err)
	}

	account, ok := cfg.ActiveAccount()
	if !ok {
		return domain.Account{}, domain.ErrNoActiveAccount
	}

	return account, nil
}

// RecordUsage stores a fresh usage snapshot without touching LastUsed: a
// usage fetch is an observation, not a use of the account.
func (s *AccountService) RecordUsage(ctx context.Context, id domain.AccountID, snapshot domain.UsageSnapshot) error {
	return s.store.Mutate(ctx, func(cfg *domain.Config) (bool, error) {
		account, ok := cfg.Accounts[id]
		if !ok {
			return false, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, id)
		}

		account.Usage = &snapshot
		cfg.Accounts[id] = account
		return true, nil
	})
}

// FindAccount resolves an account by id or, failing that, by exact name.
func (s *AccountService) FindAccount(ctx context.Context, selector string) (domain.Account, error) {
	cfg, err := s.store.Load(ctx)
	if err != nil {
		return domain.Account{}, fmt.Errorf("load config: %w", err)
	}

	if account, ok := cfg.Accounts[domain.AccountID(selector)]; ok {
		return account, nil
	}

	ids := make([]domain.AccountID, 0, len(cfg.Accounts))
	for id := range cfg.Accounts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if strings.EqualFold(cfg.Accounts[id].Name, selector) {
			return cfg.Accounts[id], nil
		}
	}

	return domain.Account{}, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, selector)
}
