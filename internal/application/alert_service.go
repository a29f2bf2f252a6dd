package application

import (
	"context"
	"fmt"

	"github.com/imbios/cohe/internal/domain"
	"github.com/imbios/cohe/internal/ports"
)

// AlertService evaluates alert rules against fresh usage readings and hands
// triggered alerts to the configured notifier. Delivery failures are
// swallowed; alerting is advisory and must never break a usage or rotation
// flow.
type AlertService struct {
	store    ports.ConfigStore
	notifier ports.Notifier
}

func NewAlertService(store ports.ConfigStore, notifier ports.Notifier) *AlertService {
	return &AlertService{store: store, notifier: notifier}
}

// Evaluate returns the rules that fire for one account's reading and, when
// notifications are enabled, dispatches each of them.
func (s *AlertService) Evaluate(ctx context.Context, account domain.Account, stats domain.UsageStats) ([]domain.AlertRule, error) {
	cfg, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	triggered := domain.CheckAlerts(stats, cfg.Alerts)

	if cfg.Notifications.Enabled && s.notifier != nil {
		for _, rule := range triggered {
			_ = s.notifier.Notify(ctx, account, rule, stats)
		}
	}

	return triggered, nil
}

func (s *AlertService) ListAlerts(ctx context.Context) ([]domain.AlertRule, error) {
	cfg, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg.Alerts, nil
}

func (s *AlertService) AddAlert(ctx context.Context, id string, kind domain.AlertKind, threshold float64) (domain.AlertRule, error) {
	rule := domain.AlertRule{ID: id, Kind: kind, Threshold: threshold, Enabled: true}

	err := s.store.Mutate(ctx, func(cfg *domain.Config) (bool, error) {
		for _, existing := range cfg.Alerts {
			if existing.ID == id {
				return false, fmt.Errorf("alert %q already exists", id)
			}
		}
		cfg.Alerts = append(cfg.Alerts, rule)
		return true, nil
	})
	if err != nil {
		return domain.AlertRule{}, err
	}

	return rule, nil
}

func (s *AlertService) SetAlertEnabled(ctx context.Context, id string, enabled bool) error {
	return s.store.Mutate(ctx, func(cfg *domain.Config) (bool, error) {
		for i := range cfg.Alerts {
			if cfg.Alerts[i].ID == id {
				cfg.Alerts[i].Enabled = enabled
				return true, nil
			}
		}
		return false, fmt.Errorf("%w: %s", domain.ErrAlertNotFound, id)
	})
}
