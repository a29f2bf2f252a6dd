// Package notify delivers triggered alerts through the channel configured
// in the notification settings.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/imbios/cohe/internal/domain"
	"github.com/imbios/cohe/internal/ports"
)

const webhookTimeout = 10 * time.Second

var (
	_ ports.Notifier = (*Console)(nil)
	_ ports.Notifier = (*Desktop)(nil)
	_ ports.Notifier = (*Webhook)(nil)
)

// For selects the notifier matching the settings. Unknown methods fall back
// to console output.
func For(settings domain.NotificationSettings, out io.Writer) ports.Notifier {
	switch settings.Method {
	case domain.NotifyDesktop:
		return NewDesktop()
	case domain.NotifyWebhook:
		return NewWebhook(settings.Endpoint, nil)
	default:
		return NewConsole(out)
	}
}

// alertMessage renders the one-line alert text shared by every channel.
func alertMessage(account domain.Account, rule domain.AlertRule, stats domain.UsageStats) string {
	name := account.Name
	if name == "" {
		name = string(account.ID)
	}

	switch rule.Kind {
	case domain.AlertQuota:
		return fmt.Sprintf("%s (%s): only %.0f remaining (threshold %.0f)", name, account.Provider, stats.Remaining, rule.Threshold)
	default:
		return fmt.Sprintf("%s (%s): %.1f%% of quota used (threshold %.0f%%)", name, account.Provider, stats.PercentUsed, rule.Threshold)
	}
}

type Console struct {
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Notify(_ context.Context, account domain.Account, rule domain.AlertRule, stats domain.UsageStats) error {
	_, err := fmt.Fprintf(c.out, "⚠ Alert [%s]: %s\n", rule.ID, alertMessage(account, rule, stats))
	return err
}

// Desktop raises a native desktop notification.
type Desktop struct {
	// send is swappable for tests; beeep has no headless mode.
	send func(title, message string) error
}

func NewDesktop() *Desktop {
	return &Desktop{send: func(title, message string) error {
		return beeep.Notify(title, message, "")
	}}
}

func (d *Desktop) Notify(_ context.Context, account domain.Account, rule domain.AlertRule, stats domain.UsageStats) error {
	return d.send("cohe usage alert", alertMessage(account, rule, stats))
}

// Webhook POSTs the alert as JSON to a configured endpoint.
type Webhook struct {
	endpoint string
	http     *http.Client
}

func NewWebhook(endpoint string, httpClient *http.Client) *Webhook {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: webhookTimeout}
	}
	return &Webhook{endpoint: endpoint, http: httpClient}
}

type webhookPayload struct {
	AlertID   string  `json:"alertId"`
	Kind      string  `json:"kind"`
	Threshold float64 `json:"threshold"`
	AccountID string  `json:"accountId"`
	Account   string  `json:"account"`
	Provider  string  `json:"provider"`
	Used      float64 `json:"used"`
	Limit     float64 `json:"limit"`
	Remaining float64 `json:"remaining"`
	Percent   float64 `json:"percentUsed"`
	Message   string  `json:"message"`
}

func (w *Webhook) Notify(ctx context.Context, account domain.Account, rule domain.AlertRule, stats domain.UsageStats) error {
	if w.endpoint == "" {
		return fmt.Errorf("webhook endpoint is not configured")
	}

	body, err := json.Marshal(webhookPayload{
		AlertID:   rule.ID,
		Kind:      string(rule.Kind),
		Threshold: rule.Threshold,
		AccountID: string(account.ID),
		Account:   account.Name,
		Provider:  string(account.Provider),
		Used:      stats.Used,
		Limit:     stats.Limit,
		Remaining: stats.Remaining,
		Percent:   stats.PercentUsed,
		Message:   alertMessage(account, rule, stats),
	})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, webhookTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		return fmt.Errorf("deliver webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webhook endpoint returned %s", resp.Status)
	}
	return nil
}
