// Package zai fetches plan usage from the Z.AI monitor API. Z.AI plans
// track two quota axes: a token budget (reported as the primary metric) and
// a prompt-time budget (secondary). The ranking percentage prefers the time
// axis because token counters on coding plans reset far more often.
package zai

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/imbios/cohe/internal/domain"
	"github.com/imbios/cohe/internal/ports"
)

const (
	usageEndpoint = "https://api.z.ai/api/monitor/usage/quota/limit"
	usageTimeout  = 10 * time.Second

	limitTypeTokens = "TOKENS_LIMIT"
	limitTypeTime   = "TIME_LIMIT"
)

type Client struct {
	endpoint string
	http     *http.Client
}

var _ ports.UsageProvider = (*Client)(nil)

func New() *Client {
	return NewWith(usageEndpoint, nil)
}

// NewWith overrides the endpoint and HTTP client, primarily for tests.
func NewWith(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: usageTimeout}
	}
	return &Client{endpoint: endpoint, http: httpClient}
}

type quotaResponse struct {
	Data struct {
		Limits []quotaLimit `json:"limits"`
	} `json:"data"`
}

type quotaLimit struct {
	Type         string  `json:"type"`
	Usage        float64 `json:"usage"`
	CurrentValue float64 `json:"currentValue"`
	Remaining    float64 `json:"remaining"`
	Percentage   float64 `json:"percentage"`
}

// GetUsage returns the current plan usage, or zero stats on any failure.
// The groupID argument is unused; Z.AI scopes quota to the API key alone.
func (c *Client) GetUsage(ctx context.Context, apiKey, _ string) domain.UsageStats {
	if apiKey == "" {
		return domain.UsageStats{}
	}

	ctx, cancel := context.WithTimeout(ctx, usageTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return domain.UsageStats{}
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.UsageStats{}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return domain.UsageStats{}
	}

	var payload quotaResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.UsageStats{}
	}

	var tokens, promptTime *quotaLimit
	for i := range payload.Data.Limits {
		switch payload.Data.Limits[i].Type {
		case limitTypeTokens:
			tokens = &payload.Data.Limits[i]
		case limitTypeTime:
			promptTime = &payload.Data.Limits[i]
		}
	}
	if tokens == nil && promptTime == nil {
		return domain.UsageStats{}
	}

	stats := domain.UsageStats{
		Primary:   toMetric(tokens),
		Secondary: toMetric(promptTime),
	}
	if stats.Primary != nil {
		stats.Used = stats.Primary.Used
		stats.Limit = stats.Primary.Limit
		stats.Remaining = stats.Primary.Remaining
		stats.PercentUsed = stats.Primary.PercentUsed
	}

	switch {
	case stats.Secondary != nil && stats.Secondary.Limit > 0:
		stats.EffectivePercent = stats.Secondary.PercentUsed
	default:
		stats.EffectivePercent = stats.PercentUsed
	}

	return stats
}

func toMetric(limit *quotaLimit) *domain.UsageMetric {
	if limit == nil {
		return nil
	}
	return &domain.UsageMetric{
		Used:        limit.CurrentValue,
		Limit:       limit.Usage,
		Remaining:   limit.Remaining,
		PercentUsed: limit.Percentage,
	}
}
