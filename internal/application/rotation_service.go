package application

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/imbios/cohe/internal/domain"
	"github.com/imbios/cohe/internal/ports"
	"golang.org/x/sync/errgroup"
)

// RotationService decides which account becomes active next. It owns both
// rotation shapes: within a single provider and across providers.
type RotationService struct {
	store     ports.ConfigStore
	providers map[domain.Provider]ports.UsageProvider
	history   ports.UsageHistory
	clock     ports.Clock
	randIntn  func(n int) int
}

func NewRotationService(store ports.ConfigStore, providers map[domain.Provider]ports.UsageProvider, history ports.UsageHistory, clock ports.Clock) *RotationService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &RotationService{
		store:     store,
		providers: providers,
		history:   history,
		clock:     clock,
		randIntn:  rand.Intn,
	}
}

// RotateWithinProvider advances the active pointer to the next enabled
// account of one provider, cyclically. A nil result with a nil error means
// no account was available; that is an expected terminal outcome, not a
// failure.
func (s *RotationService) RotateWithinProvider(ctx context.Context, provider domain.Provider) (*domain.Account, error) {
	if !provider.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, provider)
	}

	var selected *domain.Account

	err := s.store.Mutate(ctx, func(cfg *domain.Config) (bool, error) {
		candidates := cfg.ProviderAccounts(provider)
		if len(candidates) == 0 {
			return false, nil
		}

		orderCandidates(candidates, cfg.Rotation.Strategy.Normalize())

		currentIndex := -1
		for i, candidate := range candidates {
			if candidate.ID == cfg.ActiveAccountID {
				currentIndex = i
				break
			}
		}

		next := candidates[(currentIndex+1)%len(candidates)]
		cfg.ActiveAccountID = next.ID
		cfg.Touch(next.ID, s.clock.Now())

		account := cfg.Accounts[next.ID]
		selected = &account
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("rotate within %s: %w", provider, err)
	}

	return selected, nil
}

// RotateAPIKey is the user-facing single-provider rotation entry point. Same
// algorithm, separate name so the CLI surface mirrors the intent.
func (s *RotationService) RotateAPIKey(ctx context.Context, provider domain.Provider) (*domain.Account, error) {
	return s.RotateWithinProvider(ctx, provider)
}

// orderCandidates sorts in the order single-provider rotation walks the ring:
// least-used ranks by cached cumulative usage, every other strategy by
// priority ascending (lower number first). Sorting is stable over the
// deterministic creation order of the input.
func orderCandidates(accounts []domain.Account, strategy domain.Strategy) {
	if strategy == domain.StrategyLeastUsed {
		sort.SliceStable(accounts, func(i, j int) bool {
			return accounts[i].UsedAmount() < accounts[j].UsedAmount()
		})
		return
	}
	sort.SliceStable(accounts, func(i, j int) bool {
		return accounts[i].Priority < accounts[j].Priority
	})
}

// RotateAcrossProviders selects the next active account over every enabled
// account of every provider, honoring the configured strategy. Selecting the
// already-active account is a valid no-op: nothing is persisted and the
// account is still returned.
func (s *RotationService) RotateAcrossProviders(ctx context.Context) (*domain.Account, error) {
	cfg, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	accounts := cfg.EnabledAccounts()
	if len(accounts) == 0 {
		return nil, nil
	}

	currentID := cfg.ActiveAccountID
	strategy := cfg.Rotation.Strategy.Normalize()

	var nextID domain.AccountID
	var snapshots map[domain.AccountID]domain.UsageSnapshot

	switch strategy {
	case domain.StrategyRandom:
		others := make([]domain.Account, 0, len(accounts))
		for _, account := range accounts {
			if account.ID != currentID {
				others = append(others, account)
			}
		}
		if len(others) == 0 {
			nextID = accounts[0].ID
		} else {
			nextID = others[s.randIntn(len(others))].ID
		}

	case domain.StrategyLeastUsed:
		nextID, snapshots = s.pickLeastUsed(ctx, accounts)

	case domain.StrategyPriority:
		ranked := append([]domain.Account(nil), accounts...)
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Priority < ranked[j].Priority
		})
		nextID = ranked[0].ID

	default: // round-robin
		ranked := append([]domain.Account(nil), accounts...)
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Priority < ranked[j].Priority
		})
		currentIndex := -1
		for i, account := range ranked {
			if account.ID == currentID {
				currentIndex = i
				break
			}
		}
		nextID = ranked[(currentIndex+1)%len(ranked)].ID
	}

	var selected *domain.Account

	err = s.store.Mutate(ctx, func(cfg *domain.Config) (bool, error) {
		changed := false

		now := s.clock.Now()
		for id, snapshot := range snapshots {
			account, ok := cfg.Accounts[id]
			if !ok {
				continue
			}
			account.Usage = &snapshot
			cfg.Accounts[id] = account
			changed = true
		}

		account, ok := cfg.Accounts[nextID]
		if !ok {
			return changed, nil
		}

		if nextID != cfg.ActiveAccountID {
			cfg.ActiveAccountID = nextID
			cfg.Touch(nextID, now)
			cfg.Rotation.LastRotation = &now
			changed = true
		}

		account = cfg.Accounts[nextID]
		selected = &account
		return changed, nil
	})
	if err != nil {
		return nil, fmt.Errorf("rotate across providers: %w", err)
	}

	return selected, nil
}

// pickLeastUsed refreshes usage for every candidate concurrently and returns
// the id with the lowest effective usage percentage plus the snapshots worth
// persisting. A failed fetch degrades to the account's cached percentage (or
// zero) for that account only; it never aborts the rotation.
func (s *RotationService) pickLeastUsed(ctx context.Context, accounts []domain.Account) (domain.AccountID, map[domain.AccountID]domain.UsageSnapshot) {
	percents := make([]float64, len(accounts))
	fetched := make([]domain.UsageStats, len(accounts))

	g, gctx := errgroup.WithContext(ctx)
	for i := range accounts {
		g.Go(func() error {
			account := accounts[i]
			stats := s.fetchUsage(gctx, account)
			fetched[i] = stats
			if stats.Available() {
				percents[i] = stats.EffectivePercent
			} else {
				percents[i] = account.CachedPercent()
			}
			return nil
		})
	}
	_ = g.Wait() // goroutines never return errors

	best := 0
	for i := 1; i < len(accounts); i++ {
		if percents[i] < percents[best] {
			best = i
		}
	}

	snapshots := make(map[domain.AccountID]domain.UsageSnapshot)
	now := s.clock.Now()
	for i, stats := range fetched {
		if !stats.Available() {
			continue
		}
		snapshots[accounts[i].ID] = domain.UsageSnapshot{
			Used:        stats.Used,
			Limit:       stats.Limit,
			LastUpdated: now,
		}
	}

	return accounts[best].ID, snapshots
}

func (s *RotationService) fetchUsage(ctx context.Context, account domain.Account) domain.UsageStats {
	provider, ok := s.providers[account.Provider]
	if !ok {
		return domain.UsageStats{}
	}

	stats := provider.GetUsage(ctx, account.APIKey, account.GroupID)
	if stats.Available() && s.history != nil {
		_ = s.history.Record(ctx, account, stats) // history is best-effort
	}

	return stats
}
