package application

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/imbios/cohe/internal/domain"
	"github.com/imbios/cohe/internal/ports"
)

// SessionSettings injects the active account's credentials into the external
// tool's settings document. Implementations return ErrSettingsNotFound when
// the document does not exist; any other error means the document was present
// but could not be updated (unparseable content is never overwritten).
type SessionSettings interface {
	Inject(ctx context.Context, account domain.Account) error
}

// HookService bridges rotation into the external tool's session-start
// lifecycle. It must never fail or delay the session it is attached to.
type HookService struct {
	store     ports.ConfigStore
	settings  SessionSettings
	scheduler ports.RotationScheduler
}

func NewHookService(store ports.ConfigStore, settings SessionSettings, scheduler ports.RotationScheduler) *HookService {
	return &HookService{store: store, settings: settings, scheduler: scheduler}
}

// Run applies the current active account to the external settings file, then
// schedules a detached rotation for the next session. In silent mode every
// failure is swallowed, the unusable-store case included: the hook runs
// inside another tool's session start and must never fail it.
func (s *HookService) Run(ctx context.Context, silent bool, report io.Writer) error {
	cfg, err := s.store.Load(ctx)
	if err != nil {
		if silent {
			return nil
		}
		return fmt.Errorf("load config: %w", err)
	}

	account, ok := cfg.ActiveAccount()
	if !ok {
		if !silent {
			fmt.Fprintln(report, "No active account found")
		}
		return nil
	}

	if err := s.settings.Inject(ctx, account); err != nil {
		if !errors.Is(err, domain.ErrSettingsNotFound) && !silent {
			fmt.Fprintf(report, "Failed to update settings: %v\n", err)
		}
		// Missing settings file is a silent skip; a broken one must not
		// block the session either.
	}

	if cfg.Rotation.Enabled {
		// Next-session rotation runs detached; its outcome is never
		// awaited and its failures never reach the hook.
		_ = s.scheduler.ScheduleRotation()
	}

	return nil
}
