package accounts

import (
	"testing"
	"time"

	"github.com/imbios/cohe/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSingleAccount(t *testing.T) {
	now := time.Date(2026, 8, 30, 11, 0, 0, 0, time.UTC)
	lastUsed := now.Add(-2 * time.Hour)

	output, err := Render([]View{
		{
			Account: domain.Account{
				ID:       "acc_1",
				Name:     "work",
				Provider: domain.ProviderZAI,
				Priority: 1,
				Enabled:  true,
				LastUsed: &lastUsed,
			},
			Active: true,
			Stats:  &domain.UsageStats{Used: 73, Limit: 100, Remaining: 27, PercentUsed: 73},
		},
	}, RenderOptions{Now: now, StaleAfter: time.Hour})

	require.NoError(t, err)
	assert.Contains(t, output, "accounts: 1")
	assert.Contains(t, output, "work (Z.AI (GLM))")
	assert.Contains(t, output, "[active]")
	assert.Contains(t, output, "73.0% used, 27 remaining")
	assert.Contains(t, output, "priority: 1")
	assert.Contains(t, output, "last used: 2 hours ago")
	assert.Contains(t, output, "[")
	assert.Contains(t, output, "]")
	assert.NotContains(t, output, "stale")
}

func TestRenderMarksCachedSnapshotStale(t *testing.T) {
	now := time.Date(2026, 8, 30, 11, 0, 0, 0, time.UTC)

	output, err := Render([]View{
		{
			Account: domain.Account{
				ID:       "acc_1",
				Name:     "backup",
				Provider: domain.ProviderMiniMax,
				Enabled:  true,
				Usage:    &domain.UsageSnapshot{Used: 40, Limit: 200, LastUpdated: now.Add(-3 * time.Hour)},
			},
		},
	}, RenderOptions{Now: now, StaleAfter: time.Hour})

	require.NoError(t, err)
	assert.Contains(t, output, "20.0% used, 160 remaining")
	assert.Contains(t, output, "[stale]")
}

func TestRenderDisabledAndUnknownUsage(t *testing.T) {
	output, err := Render([]View{
		{
			Account: domain.Account{
				ID:       "acc_1",
				Name:     "old",
				Provider: domain.ProviderZAI,
				Enabled:  false,
			},
		},
	}, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "[disabled]")
	assert.Contains(t, output, "usage: n/a")
	assert.NotContains(t, output, "[active]")
}

func TestRenderEmptyList(t *testing.T) {
	output, err := Render(nil, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "accounts: 0")
	assert.Contains(t, output, "No accounts configured")
}

func TestRenderFallsBackToIDWithoutName(t *testing.T) {
	output, err := Render([]View{
		{Account: domain.Account{ID: "acc_123", Provider: domain.ProviderMiniMax, Enabled: true}},
	}, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "acc_123 (MiniMax)")
}
