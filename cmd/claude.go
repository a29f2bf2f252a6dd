package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/imbios/cohe/internal/adapters/settings/claudecode"
	"github.com/imbios/cohe/internal/domain"
)

func newClaudeCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claude [args...]",
		Short: "Launch Claude Code with the active account's credentials",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.store.Load(cmd.Context())
			if err != nil {
				return err
			}

			if cfg.Rotation.Enabled {
				preRotate(cmd, app, cfg)
			}

			account, err := app.accounts.GetActiveAccount(cmd.Context())
			if err != nil {
				if errors.Is(err, domain.ErrNoActiveAccount) {
					fmt.Fprintln(cmd.OutOrStdout(), "No active account. Add one with `cohe account add`.")
					return nil
				}
				return err
			}

			binary, err := exec.LookPath("claude")
			if err != nil {
				return fmt.Errorf("locate claude binary: %w", err)
			}

			child := exec.CommandContext(cmd.Context(), binary, args...)
			child.Stdin = os.Stdin
			child.Stdout = os.Stdout
			child.Stderr = os.Stderr
			child.Env = append(os.Environ(), claudecode.SessionEnv(account)...)

			if err := child.Run(); err != nil {
				var exitErr *exec.ExitError
				if errors.As(err, &exitErr) {
					os.Exit(exitErr.ExitCode())
				}
				return fmt.Errorf("run claude: %w", err)
			}

			return nil
		},
	}

	// Flags belong to the downstream binary.
	cmd.DisableFlagParsing = true

	return cmd
}

// preRotate advances the active account before the session starts. Rotation
// problems must not keep the session from launching.
func preRotate(cmd *cobra.Command, app *app, cfg domain.Config) {
	ctx := cmd.Context()

	if cfg.Rotation.CrossProvider {
		if _, err := app.rotation.RotateAcrossProviders(ctx); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: rotation failed: %v\n", err)
		}
		return
	}

	account, ok := cfg.ActiveAccount()
	if !ok {
		return
	}
	if len(cfg.ProviderAccounts(account.Provider)) < 2 {
		return
	}

	if _, err := app.rotation.RotateWithinProvider(ctx, account.Provider); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: rotation failed: %v\n", err)
	}
}
