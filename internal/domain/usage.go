package domain

import "fmt"

// UsageStats is a point-in-time usage reading from a provider. A Limit of 0
// means "usage unavailable" rather than zero consumption; callers must check
// Limit > 0 before trusting the reading.
type UsageStats struct {
	Used      float64
	Limit     float64
	Remaining float64
	// PercentUsed is derived from the primary quota axis.
	PercentUsed float64
	// EffectivePercent is the single derived ranking metric used by
	// least-used rotation. Each provider adapter computes it from the
	// sub-metric conventionally associated with that provider's plan.
	EffectivePercent float64
	// Primary and Secondary carry per-axis readings for providers whose
	// plans track more than one quota dimension.
	Primary   *UsageMetric
	Secondary *UsageMetric
}

// UsageMetric is one quota axis of a multi-dimensional plan.
type UsageMetric struct {
	Used        float64
	Limit       float64
	Remaining   float64
	PercentUsed float64
}

// Available reports whether the reading carries trustworthy data.
func (u UsageStats) Available() bool {
	return u.Limit > 0
}

func (u UsageStats) String() string {
	if !u.Available() {
		return "unavailable"
	}
	return fmt.Sprintf("%.0f/%.0f (%.1f%% used)", u.Used, u.Limit, u.PercentUsed)
}
