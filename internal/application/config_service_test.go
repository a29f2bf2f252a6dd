package application

import (
	"context"
	"testing"

	"github.com/imbios/cohe/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureRotationKeepsUnsetFields(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	svc := NewConfigService(store)

	strategy := domain.StrategyLeastUsed
	policy, err := svc.ConfigureRotation(context.Background(), true, &strategy, nil)
	require.NoError(t, err)
	assert.True(t, policy.Enabled)
	assert.Equal(t, domain.StrategyLeastUsed, policy.Strategy)

	policy, err = svc.ConfigureRotation(context.Background(), false, nil, nil)
	require.NoError(t, err)
	assert.False(t, policy.Enabled)
	assert.Equal(t, domain.StrategyLeastUsed, policy.Strategy, "strategy survives a plain disable")
}

func TestConfigureRotationRejectsUnknownStrategy(t *testing.T) {
	t.Parallel()

	svc := NewConfigService(newMemStore())

	bogus := domain.Strategy("weighted")
	_, err := svc.ConfigureRotation(context.Background(), true, &bogus, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported strategy")
}

func TestToggleDashboardGeneratesTokenOnce(t *testing.T) {
	t.Parallel()

	svc := NewConfigService(newMemStore())

	settings, err := svc.ToggleDashboard(context.Background(), true, 0, "")
	require.NoError(t, err)
	assert.True(t, settings.Enabled)
	assert.Equal(t, 3456, settings.Port)
	assert.Equal(t, "localhost", settings.Host)
	require.NotEmpty(t, settings.AuthToken)
	assert.Contains(t, settings.AuthToken, "imbios_")

	again, err := svc.ToggleDashboard(context.Background(), true, 8080, "0.0.0.0")
	require.NoError(t, err)
	assert.Equal(t, settings.AuthToken, again.AuthToken, "token is stable once issued")
	assert.Equal(t, 8080, again.Port)
	assert.Equal(t, "0.0.0.0", again.Host)
}

func TestSetNotificationsReplacesSettings(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	svc := NewConfigService(store)

	require.NoError(t, svc.SetNotifications(context.Background(), domain.NotifyWebhook, "https://hooks.example.com/cohe", true))

	cfg, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.NotifyWebhook, cfg.Notifications.Method)
	assert.Equal(t, "https://hooks.example.com/cohe", cfg.Notifications.Endpoint)
	assert.True(t, cfg.Notifications.Enabled)
}
