// Package claudecode edits the Claude Code settings document
// (~/.claude/settings.json). The document is user-owned and carries keys
// this tool knows nothing about, so it is handled as a generic JSON object:
// only the env block, the plugin toggles and the SessionStart hook entry are
// touched, everything else round-trips untouched.
package claudecode

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/imbios/cohe/internal/application"
	"github.com/imbios/cohe/internal/domain"
)

const (
	settingsFileMode = 0o600
	settingsDirMode  = 0o700
	tempFilePattern  = ".settings-*.json.tmp"

	// HookCommand is the SessionStart command this tool registers.
	HookCommand = "cohe auto hook --silent"
	hookMatcher = "startup|resume|clear|compact"

	envTimeoutMS     = "3000000"
	envKeyToken      = "ANTHROPIC_AUTH_TOKEN"
	envKeyBaseURL    = "ANTHROPIC_BASE_URL"
	envKeyModel      = "ANTHROPIC_MODEL"
	envKeyTimeout    = "API_TIMEOUT_MS"
	envKeyNoTraffic  = "CLAUDE_CODE_DISABLE_NONESSENTIAL_TRAFFIC"
	legacyHookScript = "auto-rotate.sh"
)

// glmPlugins are enabled for Z.AI sessions and stripped for MiniMax ones.
var glmPlugins = []string{
	"glm-plan-usage@zai-coding-plugins",
	"glm-plan-bug@zai-coding-plugins",
}

type Settings struct {
	path string
	mu   *sync.Mutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.Mutex{}
)

var _ application.SessionSettings = (*Settings)(nil)

// NewAt targets an explicit settings path; the caller resolves the default
// per-user location.
func NewAt(path string) *Settings {
	path = filepath.Clean(path)
	return &Settings{path: path, mu: lockForPath(path)}
}

func (s *Settings) Path() string {
	return s.path
}

// Inject rewrites the env block and plugin toggles for one account. A
// missing settings file reports domain.ErrSettingsNotFound; an unparseable
// one returns an error and is never overwritten.
func (s *Settings) Inject(ctx context.Context, account domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}

	env := map[string]any{
		envKeyToken:   account.APIKey,
		envKeyBaseURL: account.BaseURL,
		envKeyTimeout: envTimeoutMS,
	}
	if account.DefaultModel != "" {
		env[envKeyModel] = account.DefaultModel
	}
	if account.Provider == domain.ProviderMiniMax {
		env[envKeyNoTraffic] = "1"
	}
	doc["env"] = env

	switch account.Provider {
	case domain.ProviderZAI:
		plugins, _ := doc["enabledPlugins"].(map[string]any)
		if plugins == nil {
			plugins = map[string]any{}
		}
		for _, plugin := range glmPlugins {
			plugins[plugin] = true
		}
		doc["enabledPlugins"] = plugins
	case domain.ProviderMiniMax:
		if plugins, ok := doc["enabledPlugins"].(map[string]any); ok {
			for _, plugin := range glmPlugins {
				delete(plugins, plugin)
			}
			if len(plugins) == 0 {
				delete(doc, "enabledPlugins")
			}
		}
	}

	return s.write(doc)
}

// SessionEnv returns the environment a downstream process launched for this
// account needs, as KEY=VALUE pairs. It mirrors the env block Inject writes.
func SessionEnv(account domain.Account) []string {
	env := []string{
		envKeyToken + "=" + account.APIKey,
		envKeyBaseURL + "=" + account.BaseURL,
		envKeyTimeout + "=" + envTimeoutMS,
	}
	if account.DefaultModel != "" {
		env = append(env, envKeyModel+"="+account.DefaultModel)
	}
	if account.Provider == domain.ProviderMiniMax {
		env = append(env, envKeyNoTraffic+"=1")
	}
	return env
}

// SetupHook registers the SessionStart hook. It creates the settings file
// when absent and treats an unparseable one as empty, matching how the file
// is commonly hand-edited. Returns false when an equivalent hook is already
// registered.
func (s *Settings) SetupHook(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		doc = map[string]any{}
	}

	hooks, _ := doc["hooks"].(map[string]any)
	if hooks == nil {
		hooks = map[string]any{}
	}
	sessionStart, _ := hooks["SessionStart"].([]any)

	if findHookCommand(sessionStart) != "" {
		return false, nil
	}

	sessionStart = append(sessionStart, map[string]any{
		"matcher": hookMatcher,
		"hooks": []any{
			map[string]any{
				"type":    "command",
				"command": HookCommand,
			},
		},
	})
	hooks["SessionStart"] = sessionStart
	doc["hooks"] = hooks

	if err := s.write(doc); err != nil {
		return false, err
	}
	return true, nil
}

// UninstallHook removes every SessionStart entry this tool registered,
// including entries pointing at the legacy shell script. Empty hook
// containers are dropped rather than left as husks.
func (s *Settings) UninstallHook(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return false, nil
	}

	hooks, _ := doc["hooks"].(map[string]any)
	sessionStart, _ := hooks["SessionStart"].([]any)
	if len(sessionStart) == 0 {
		return false, nil
	}

	kept := make([]any, 0, len(sessionStart))
	for _, group := range sessionStart {
		if hookGroupCommand(group) == "" {
			kept = append(kept, group)
		}
	}
	if len(kept) == len(sessionStart) {
		return false, nil
	}

	if len(kept) == 0 {
		delete(hooks, "SessionStart")
		if len(hooks) == 0 {
			delete(doc, "hooks")
		} else {
			doc["hooks"] = hooks
		}
	} else {
		hooks["SessionStart"] = kept
		doc["hooks"] = hooks
	}

	if err := s.write(doc); err != nil {
		return false, err
	}
	return true, nil
}

// HookStatus reports whether the settings file exists and which command, if
// any, is registered for session starts.
type HookStatus struct {
	SettingsFound  bool
	HookRegistered bool
	HookCommand    string
}

func (s *Settings) Status(ctx context.Context) (HookStatus, error) {
	if err := ctx.Err(); err != nil {
		return HookStatus{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return HookStatus{}, nil
	}

	hooks, _ := doc["hooks"].(map[string]any)
	sessionStart, _ := hooks["SessionStart"].([]any)
	command := findHookCommand(sessionStart)

	return HookStatus{
		SettingsFound:  true,
		HookRegistered: command != "",
		HookCommand:    command,
	}, nil
}

// findHookCommand returns the first registered command that belongs to this
// tool, or "".
func findHookCommand(sessionStart []any) string {
	for _, group := range sessionStart {
		if command := hookGroupCommand(group); command != "" {
			return command
		}
	}
	return ""
}

func hookGroupCommand(group any) string {
	groupMap, ok := group.(map[string]any)
	if !ok {
		return ""
	}
	entries, _ := groupMap["hooks"].([]any)
	for _, entry := range entries {
		entryMap, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if entryMap["type"] != "command" {
			continue
		}
		command, _ := entryMap["command"].(string)
		if command == "" {
			continue
		}
		if command == HookCommand || strings.Contains(command, "auto hook") || strings.Contains(command, legacyHookScript) {
			return command
		}
	}
	return ""
}

func (s *Settings) read() (map[string]any, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrSettingsNotFound
		}
		return nil, fmt.Errorf("read settings file: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("settings file %s is not valid JSON: %w", s.path, err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

func (s *Settings) write(doc map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(s.path), settingsDirMode); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings file: %w", err)
	}
	data = append(data, '\n')

	tempFile, err := os.CreateTemp(filepath.Dir(s.path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp settings file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp settings file: %w", err)
	}

	if err := tempFile.Chmod(settingsFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp settings file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp settings file: %w", err)
	}

	if err := os.Rename(tempName, s.path); err != nil {
		return fmt.Errorf("replace settings file: %w", err)
	}

	cleanup = false
	return nil
}

func lockForPath(path string) *sync.Mutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.Mutex{}
	pathLockMap[path] = mu
	return mu
}
