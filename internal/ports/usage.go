package ports

import (
	"context"
	"time"

	"github.com/imbios/cohe/internal/domain"
)

// UsageProvider fetches current usage for one provider kind. Implementations
// must never return an error: any network failure, timeout, non-success
// status or missing API key degrades to zero-valued stats (Limit == 0 is the
// "unavailable" sentinel).
type UsageProvider interface {
	GetUsage(ctx context.Context, apiKey, groupID string) domain.UsageStats
}

// ConnectionTester probes an Anthropic-compatible endpoint with a
// minimal-cost request. Failures collapse to false, never an error.
type ConnectionTester interface {
	Test(ctx context.Context, apiKey, baseURL, model string) bool
}

// UsageHistory records usage snapshots for later inspection. Recording
// failures are the caller's to swallow; history is best-effort.
type UsageHistory interface {
	Record(ctx context.Context, account domain.Account, stats domain.UsageStats) error
	Recent(ctx context.Context, accountID domain.AccountID, limit int) ([]HistoryEntry, error)
}

// HistoryEntry is one persisted usage reading.
type HistoryEntry struct {
	AccountID  domain.AccountID
	Provider   domain.Provider
	Used       float64
	Limit      float64
	Remaining  float64
	Percent    float64
	RecordedAt time.Time
}
