package domain

import "time"

type AlertKind string

const (
	// AlertUsage fires when the consumed fraction reaches the threshold
	// (threshold is a percentage).
	AlertUsage AlertKind = "usage"
	// AlertQuota fires when the remaining amount drops to the threshold or
	// below (threshold is an absolute quantity).
	AlertQuota AlertKind = "quota"
)

type AlertRule struct {
	ID            string
	Kind          AlertKind
	Threshold     float64
	Enabled       bool
	LastTriggered *time.Time
}

// DefaultAlerts seeds a fresh store. Rules are user-managed afterwards and
// never auto-deleted.
func DefaultAlerts() []AlertRule {
	return []AlertRule{
		{ID: "usage-80", Kind: AlertUsage, Threshold: 80, Enabled: true},
		{ID: "usage-90", Kind: AlertUsage, Threshold: 90, Enabled: true},
		{ID: "quota-low", Kind: AlertQuota, Threshold: 10, Enabled: true},
	}
}

// CheckAlerts evaluates rules against a usage reading and returns the firing
// rules in input order. Rules are not mutated.
func CheckAlerts(usage UsageStats, rules []AlertRule) []AlertRule {
	percentUsed := 0.0
	if usage.Limit > 0 {
		percentUsed = usage.Used / usage.Limit * 100
	}

	var triggered []AlertRule
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		switch rule.Kind {
		case AlertUsage:
			if percentUsed >= rule.Threshold {
				triggered = append(triggered, rule)
			}
		case AlertQuota:
			if usage.Remaining <= rule.Threshold {
				triggered = append(triggered, rule)
			}
		}
	}

	return triggered
}
