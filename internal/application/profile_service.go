package application

import (
	"context"
	"fmt"

	"github.com/imbios/cohe/internal/domain"
	"github.com/imbios/cohe/internal/ports"
)

// ProfileService captures and re-applies provider presets. A profile stores
// connection settings only, never the API key; applying one reconfigures the
// active account in place.
type ProfileService struct {
	repo  ports.ProfileRepository
	store ports.ConfigStore
	clock ports.Clock
}

func NewProfileService(repo ports.ProfileRepository, store ports.ConfigStore, clock ports.Clock) *ProfileService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &ProfileService{repo: repo, store: store, clock: clock}
}

// SaveFromActive captures the active account's connection settings under a
// profile name.
func (s *ProfileService) SaveFromActive(ctx context.Context, name string) (domain.Profile, error) {
	cfg, err := s.store.Load(ctx)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("load config: %w", err)
	}

	account, ok := cfg.ActiveAccount()
	if !ok {
		return domain.Profile{}, domain.ErrNoActiveAccount
	}

	profile := domain.Profile{
		Name:         name,
		Provider:     account.Provider,
		BaseURL:      account.BaseURL,
		DefaultModel: account.DefaultModel,
		SavedAt:      s.clock.Now(),
	}
	if err := s.repo.Save(ctx, profile); err != nil {
		return domain.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return profile, nil
}

// Apply overwrites the active account's connection settings with a saved
// profile. The account keeps its API key; a profile for another provider is
// rejected since the key would not transfer.
func (s *ProfileService) Apply(ctx context.Context, name string) (domain.Account, error) {
	profile, err := s.repo.Get(ctx, name)
	if err != nil {
		return domain.Account{}, err
	}

	var applied domain.Account
	err = s.store.Mutate(ctx, func(cfg *domain.Config) (bool, error) {
		account, ok := cfg.ActiveAccount()
		if !ok {
			return false, domain.ErrNoActiveAccount
		}
		if account.Provider != profile.Provider {
			return false, fmt.Errorf("profile %q targets provider %s, active account is %s", name, profile.Provider, account.Provider)
		}

		account.BaseURL = profile.BaseURL
		account.DefaultModel = profile.DefaultModel
		now := s.clock.Now()
		account.LastUsed = &now
		cfg.Accounts[account.ID] = account
		applied = account
		return true, nil
	})
	if err != nil {
		return domain.Account{}, err
	}

	return applied, nil
}

func (s *ProfileService) List(ctx context.Context) ([]domain.Profile, error) {
	return s.repo.List(ctx)
}

func (s *ProfileService) Delete(ctx context.Context, name string) error {
	return s.repo.Delete(ctx, name)
}
