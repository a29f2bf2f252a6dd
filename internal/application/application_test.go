package application

import (
	"context"
	"sync"
	"time"

	"github.com/imbios/cohe/internal/domain"
	"github.com/imbios/cohe/internal/ports"
)

var (
	_ ports.ConfigStore       = (*memStore)(nil)
	_ ports.UsageProvider     = (*stubUsageProvider)(nil)
	_ ports.RotationScheduler = (*recordingScheduler)(nil)
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

// memStore is an in-memory ConfigStore for deterministic tests.
type memStore struct {
	mu    sync.Mutex
	cfg   domain.Config
	saves int
}

func newMemStore() *memStore {
	return &memStore{cfg: domain.DefaultConfig()}
}

func (s *memStore) Load(_ context.Context) (domain.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneConfig(s.cfg), nil
}

func (s *memStore) Save(_ context.Context, cfg domain.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cloneConfig(cfg)
	s.saves++
	return nil
}

func (s *memStore) Mutate(_ context.Context, fn func(cfg *domain.Config) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := cloneConfig(s.cfg)
	changed, err := fn(&cfg)
	if err != nil {
		return err
	}
	if changed {
		s.cfg = cfg
		s.saves++
	}
	return nil
}

func cloneConfig(cfg domain.Config) domain.Config {
	out := cfg
	out.Accounts = make(map[domain.AccountID]domain.Account, len(cfg.Accounts))
	for id, account := range cfg.Accounts {
		if account.Usage != nil {
			usage := *account.Usage
			account.Usage = &usage
		}
		if account.LastUsed != nil {
			lastUsed := *account.LastUsed
			account.LastUsed = &lastUsed
		}
		out.Accounts[id] = account
	}
	out.Alerts = append([]domain.AlertRule(nil), cfg.Alerts...)
	if cfg.Rotation.LastRotation != nil {
		lastRotation := *cfg.Rotation.LastRotation
		out.Rotation.LastRotation = &lastRotation
	}
	return out
}

// stubUsageProvider returns canned stats per API key.
type stubUsageProvider struct {
	mu      sync.Mutex
	byKey   map[string]domain.UsageStats
	queried []string
}

func (p *stubUsageProvider) GetUsage(_ context.Context, apiKey, _ string) domain.UsageStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queried = append(p.queried, apiKey)
	return p.byKey[apiKey]
}

type recordingScheduler struct {
	mu    sync.Mutex
	calls int
}

func (s *recordingScheduler) ScheduleRotation() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return nil
}

func (s *recordingScheduler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type recordingSettings struct {
	injected []domain.Account
	err      error
}

func (s *recordingSettings) Inject(_ context.Context, account domain.Account) error {
	if s.err != nil {
		return s.err
	}
	s.injected = append(s.injected, account)
	return nil
}

func usageStats(used, limit float64) domain.UsageStats {
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	percent := 0.0
	if limit > 0 {
		percent = used / limit * 100
	}
	return domain.UsageStats{
		Used:             used,
		Limit:            limit,
		Remaining:        remaining,
		PercentUsed:      percent,
		EffectivePercent: percent,
	}
}

func seedAccount(store *memStore, account domain.Account) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.cfg.Accounts[account.ID] = account
	if store.cfg.ActiveAccountID == "" {
		store.cfg.ActiveAccountID = account.ID
	}
}
