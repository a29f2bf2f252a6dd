package ports

import (
	"context"

	"github.com/imbios/cohe/internal/domain"
)

// Notifier delivers a triggered alert. Delivery failures must not propagate
// into rotation or usage flows; implementations return the error for optional
// reporting only.
type Notifier interface {
	Notify(ctx context.Context, account domain.Account, rule domain.AlertRule, stats domain.UsageStats) error
}

// RotationScheduler schedules a detached cross-provider rotation for the next
// session. The call must not block on the rotation's outcome and its failures
// are never surfaced to the scheduling flow.
type RotationScheduler interface {
	ScheduleRotation() error
}
