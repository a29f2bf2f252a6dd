package cmd

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/imbios/cohe/internal/ports"
)

// detachedScheduler re-invokes this binary as a fire-and-forget child so the
// rotation happens after the current session has already started. The child
// is released immediately and never awaited.
type detachedScheduler struct{}

var _ ports.RotationScheduler = detachedScheduler{}

func (detachedScheduler) ScheduleRotation() error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	child := exec.Command(self, "auto", "rotate", "--quiet")
	if err := child.Start(); err != nil {
		return fmt.Errorf("start rotation child: %w", err)
	}

	return child.Process.Release()
}
