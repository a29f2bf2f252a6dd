// Package minimax fetches coding-plan usage from the MiniMax open platform.
package minimax

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/imbios/cohe/internal/domain"
	"github.com/imbios/cohe/internal/ports"
)

const (
	usageEndpoint = "https://platform.minimax.io/v1/api/openplatform/coding_plan/remains"
	usageTimeout  = 10 * time.Second
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

type remainsResponse struct {
	BaseResp struct {
		StatusCode int    `json:"status_code"`
		StatusMsg  string `json:"status_msg"`
	} `json:"base_resp"`
	ModelRemains []modelRemains `json:"model_remains"`
}

type modelRemains struct {
	ModelName  string  `json:"model_name"`
	TotalCount float64 `json:"current_interval_total_count"`
	UsageCount float64 `json:"current_interval_usage_count"`
}

// GetUsage returns the coding-plan usage for one billing group, or zero
// stats on any failure. The group id is optional; without it the platform
// resolves the key's default group.
func (c *Client) GetUsage(ctx context.Context, apiKey, groupID string) domain.UsageStats {
	if apiKey == "" {
		return domain.UsageStats{}
	}

	ctx, cancel := context.WithTimeout(ctx, usageTimeout)
	defer cancel()

	endpoint := c.endpoint
	if groupID != "" {
		endpoint += "?GroupId=" + url.QueryEscape(groupID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
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

	var payload remainsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.UsageStats{}
	}
	if payload.BaseResp.StatusCode != 0 || len(payload.ModelRemains) == 0 {
		return domain.UsageStats{}
	}

	plan := payload.ModelRemains[0]
	used := plan.UsageCount
	limit := plan.TotalCount
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	percentUsed := 0.0
	if limit > 0 {
		percentUsed = used / limit * 100
	}

	return domain.UsageStats{
		Used:             used,
		Limit:            limit,
		Remaining:        remaining,
		PercentUsed:      percentUsed,
		EffectivePercent: percentUsed,
	}
}
