package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/imbios/cohe/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAlert() (domain.Account, domain.AlertRule, domain.UsageStats) {
	account := domain.Account{ID: "acc_1", Name: "work", Provider: domain.ProviderZAI}
	rule := domain.AlertRule{ID: "usage-80", Kind: domain.AlertUsage, Threshold: 80, Enabled: true}
	stats := domain.UsageStats{Used: 85, Limit: 100, Remaining: 15, PercentUsed: 85}
	return account, rule, stats
}

func TestConsoleNotifyWritesOneLine(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	account, rule, stats := sampleAlert()

	require.NoError(t, NewConsole(&out).Notify(context.Background(), account, rule, stats))
	assert.Contains(t, out.String(), "usage-80")
	assert.Contains(t, out.String(), "work (zai)")
	assert.Contains(t, out.String(), "85.0%")
}

func TestConsoleNotifyQuotaRuleMentionsRemaining(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	account := domain.Account{ID: "acc_1", Provider: domain.ProviderMiniMax}
	rule := domain.AlertRule{ID: "quota-low", Kind: domain.AlertQuota, Threshold: 10}
	stats := domain.UsageStats{Used: 95, Limit: 100, Remaining: 5}

	require.NoError(t, NewConsole(&out).Notify(context.Background(), account, rule, stats))
	assert.Contains(t, out.String(), "only 5 remaining")
	assert.Contains(t, out.String(), "acc_1", "id is the fallback display name")
}

func TestDesktopNotifyUsesSender(t *testing.T) {
	t.Parallel()

	var gotTitle, gotMessage string
	desktop := &Desktop{send: func(title, message string) error {
		gotTitle = title
		gotMessage = message
		return nil
	}}

	account, rule, stats := sampleAlert()
	require.NoError(t, desktop.Notify(context.Background(), account, rule, stats))
	assert.Equal(t, "cohe usage alert", gotTitle)
	assert.Contains(t, gotMessage, "85.0%")
}

func TestWebhookNotifyPostsPayload(t *testing.T) {
	t.Parallel()

	var payload webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
	}))
	defer server.Close()

	account, rule, stats := sampleAlert()
	webhook := NewWebhook(server.URL, server.Client())

	require.NoError(t, webhook.Notify(context.Background(), account, rule, stats))
	assert.Equal(t, "usage-80", payload.AlertID)
	assert.Equal(t, "zai", payload.Provider)
	assert.InDelta(t, 85, payload.Percent, 0.001)
}

func TestWebhookNotifyErrorsOnBadStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	account, rule, stats := sampleAlert()
	err := NewWebhook(server.URL, server.Client()).Notify(context.Background(), account, rule, stats)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestWebhookNotifyRequiresEndpoint(t *testing.T) {
	t.Parallel()

	account, rule, stats := sampleAlert()
	err := NewWebhook("", nil).Notify(context.Background(), account, rule, stats)
	require.Error(t, err)
}

func TestForSelectsChannelByMethod(t *testing.T) {
	t.Parallel()

	assert.IsType(t, &Console{}, For(domain.NotificationSettings{Method: domain.NotifyConsole}, io.Discard))
	assert.IsType(t, &Desktop{}, For(domain.NotificationSettings{Method: domain.NotifyDesktop}, io.Discard))
	assert.IsType(t, &Webhook{}, For(domain.NotificationSettings{Method: domain.NotifyWebhook, Endpoint: "https://x"}, io.Discard))
	assert.IsType(t, &Console{}, For(domain.NotificationSettings{Method: "carrier-pigeon"}, io.Discard))
}
