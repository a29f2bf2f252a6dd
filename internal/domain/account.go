package domain

import "time"

type AccountID string

// Account is one named credential set for a provider. Enabled is a soft
// disablement flag, distinct from the store's active pointer.
type Account struct {
	ID           AccountID
	Name         string
	Provider     Provider
	APIKey       string
	BaseURL      string
	DefaultModel string
	// GroupID is a provider-specific billing group identifier. MiniMax
	// requires it for usage queries; Z.AI accounts leave it empty.
	GroupID   string
	Priority  int
	Enabled   bool
	CreatedAt time.Time
	LastUsed  *time.Time
	Usage     *UsageSnapshot
}

// UsageSnapshot is the last cached usage reading for an account.
type UsageSnapshot struct {
	Used        float64
	Limit       float64
	LastUpdated time.Time
}

// UsedAmount returns the cached cumulative usage, treating a missing
// snapshot as zero.
func (a Account) UsedAmount() float64 {
	if a.Usage == nil {
		return 0
	}
	return a.Usage.Used
}

// CachedPercent derives a usage percentage from the cached snapshot, or 0
// when no trustworthy snapshot exists (limit must be positive).
func (a Account) CachedPercent() float64 {
	if a.Usage == nil || a.Usage.Limit <= 0 {
		return 0
	}
	return a.Usage.Used / a.Usage.Limit * 100
}
