package minimax

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const remainsBody = `{
  "base_resp": {"status_code": 0, "status_msg": "success"},
  "model_remains": [
    {"model_name": "MiniMax-M2.1", "current_interval_total_count": 200, "current_interval_usage_count": 80}
  ]
}`

func TestGetUsageParsesCodingPlanRemains(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "group-42", r.URL.Query().Get("GroupId"))
		_, _ = w.Write([]byte(remainsBody))
	}))
	defer server.Close()

	stats := NewWith(server.URL, server.Client()).GetUsage(context.Background(), "test-key", "group-42")

	require.True(t, stats.Available())
	assert.InDelta(t, 80, stats.Used, 0.001)
	assert.InDelta(t, 200, stats.Limit, 0.001)
	assert.InDelta(t, 120, stats.Remaining, 0.001)
	assert.InDelta(t, 40, stats.PercentUsed, 0.001)
	assert.InDelta(t, 40, stats.EffectivePercent, 0.001)
}

func TestGetUsageOmitsGroupIDWhenEmpty(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("GroupId"))
		_, _ = w.Write([]byte(remainsBody))
	}))
	defer server.Close()

	stats := NewWith(server.URL, server.Client()).GetUsage(context.Background(), "test-key", "")
	assert.True(t, stats.Available())
}

func TestGetUsageDegradesOnPlatformError(t *testing.T) {
	t.Parallel()

	body := `{"base_resp": {"status_code": 1004, "status_msg": "invalid api key"}, "model_remains": []}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	stats := NewWith(server.URL, server.Client()).GetUsage(context.Background(), "bad-key", "")
	assert.False(t, stats.Available())
}

func TestGetUsageClampsNegativeRemaining(t *testing.T) {
	t.Parallel()

	body := `{
  "base_resp": {"status_code": 0},
  "model_remains": [{"current_interval_total_count": 100, "current_interval_usage_count": 130}]
}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	stats := NewWith(server.URL, server.Client()).GetUsage(context.Background(), "test-key", "")
	require.True(t, stats.Available())
	assert.Zero(t, stats.Remaining)
	assert.InDelta(t, 130, stats.PercentUsed, 0.001)
}

func TestGetUsageEmptyAPIKeyShortCircuits(t *testing.T) {
	t.Parallel()

	stats := New().GetUsage(context.Background(), "", "group-1")
	assert.False(t, stats.Available())
}
