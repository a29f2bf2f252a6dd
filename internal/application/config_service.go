package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/imbios/cohe/internal/domain"
	"github.com/imbios/cohe/internal/ports"
)

// ConfigService covers the settings-only operations: rotation policy,
// dashboard settings and notification preferences.
type ConfigService struct {
	store ports.ConfigStore
}

func NewConfigService(store ports.ConfigStore) *ConfigService {
	return &ConfigService{store: store}
}

func (s *ConfigService) Get(ctx context.Context) (domain.Config, error) {
	return s.store.Load(ctx)
}

// ConfigureRotation enables or disables rotation. A nil strategy or
// crossProvider keeps the current value.
func (s *ConfigService) ConfigureRotation(ctx context.Context, enabled bool, strategy *domain.Strategy, crossProvider *bool) (domain.RotationPolicy, error) {
	var policy domain.RotationPolicy

	err := s.store.Mutate(ctx, func(cfg *domain.Config) (bool, error) {
		cfg.Rotation.Enabled = enabled
		if strategy != nil {
			if !strategy.Valid() {
				return false, fmt.Errorf("unsupported strategy %q", *strategy)
			}
			cfg.Rotation.Strategy = *strategy
		}
		if crossProvider != nil {
			cfg.Rotation.CrossProvider = *crossProvider
		}
		policy = cfg.Rotation
		return true, nil
	})
	if err != nil {
		return domain.RotationPolicy{}, err
	}

	return policy, nil
}

// ToggleDashboard flips the dashboard settings. Enabling generates an auth
// token on first use; the server itself is out of scope, only the settings
// are managed here.
func (s *ConfigService) ToggleDashboard(ctx context.Context, enabled bool, port int, host string) (domain.DashboardSettings, error) {
	var settings domain.DashboardSettings

	err := s.store.Mutate(ctx, func(cfg *domain.Config) (bool, error) {
		cfg.Dashboard.Enabled = enabled
		if port > 0 {
			cfg.Dashboard.Port = port
		}
		if host != "" {
			cfg.Dashboard.Host = host
		}
		if enabled && cfg.Dashboard.AuthToken == "" {
			token := strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
			cfg.Dashboard.AuthToken = "imbios_" + token
		}
		settings = cfg.Dashboard
		return true, nil
	})
	if err != nil {
		return domain.DashboardSettings{}, err
	}

	return settings, nil
}

func (s *ConfigService) SetNotifications(ctx context.Context, method domain.NotifyMethod, endpoint string, enabled bool) error {
	return s.store.Mutate(ctx, func(cfg *domain.Config) (bool, error) {
		cfg.Notifications = domain.NotificationSettings{
			Method:   method,
			Endpoint: endpoint,
			Enabled:  enabled,
		}
		return true, nil
	})
}
