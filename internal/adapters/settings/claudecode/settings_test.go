package claudecode

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/imbios/cohe/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSettings(t *testing.T, content string) *Settings {
	t.Helper()

	path := filepath.Join(t.TempDir(), "settings.json")
	if content != "" {
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return NewAt(path)
}

func readDoc(t *testing.T, settings *Settings) map[string]any {
	t.Helper()

	data, err := os.ReadFile(settings.Path())
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func zaiAccount() domain.Account {
	return domain.Account{
		ID:           "acc_1",
		Provider:     domain.ProviderZAI,
		APIKey:       "zai-key",
		BaseURL:      "https://api.z.ai/api/anthropic",
		DefaultModel: "GLM-4.7",
		Enabled:      true,
	}
}

func minimaxAccount() domain.Account {
	return domain.Account{
		ID:           "acc_2",
		Provider:     domain.ProviderMiniMax,
		APIKey:       "mm-key",
		BaseURL:      "https://api.minimax.io/anthropic",
		DefaultModel: "MiniMax-M2.1",
		Enabled:      true,
	}
}

func TestInjectWritesEnvBlockAndPreservesUnknownKeys(t *testing.T) {
	t.Parallel()

	settings := newTestSettings(t, `{
  "model": "opus",
  "permissions": {"allow": ["Bash(ls:*)"]},
  "env": {"STALE_KEY": "left over"}
}`)

	require.NoError(t, settings.Inject(context.Background(), zaiAccount()))

	doc := readDoc(t, settings)
	assert.Equal(t, "opus", doc["model"], "unrelated keys survive")
	assert.Contains(t, doc, "permissions")

	env, ok := doc["env"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "zai-key", env["ANTHROPIC_AUTH_TOKEN"])
	assert.Equal(t, "https://api.z.ai/api/anthropic", env["ANTHROPIC_BASE_URL"])
	assert.Equal(t, "GLM-4.7", env["ANTHROPIC_MODEL"])
	assert.Equal(t, "3000000", env["API_TIMEOUT_MS"])
	assert.NotContains(t, env, "STALE_KEY", "the env block is replaced, not merged")
	assert.NotContains(t, env, "CLAUDE_CODE_DISABLE_NONESSENTIAL_TRAFFIC")
}

func TestInjectZAIEnablesPlugins(t *testing.T) {
	t.Parallel()

	settings := newTestSettings(t, `{"enabledPlugins": {"other@market": true}}`)
	require.NoError(t, settings.Inject(context.Background(), zaiAccount()))

	plugins, ok := readDoc(t, settings)["enabledPlugins"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, plugins["glm-plan-usage@zai-coding-plugins"])
	assert.Equal(t, true, plugins["glm-plan-bug@zai-coding-plugins"])
	assert.Equal(t, true, plugins["other@market"], "foreign plugins stay enabled")
}

func TestInjectMiniMaxStripsGLMPluginsAndSetsTrafficFlag(t *testing.T) {
	t.Parallel()

	settings := newTestSettings(t, `{
  "enabledPlugins": {
    "glm-plan-usage@zai-coding-plugins": true,
    "glm-plan-bug@zai-coding-plugins": true
  }
}`)

	require.NoError(t, settings.Inject(context.Background(), minimaxAccount()))

	doc := readDoc(t, settings)
	assert.NotContains(t, doc, "enabledPlugins", "an emptied plugin map is dropped")

	env, ok := doc["env"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "1", env["CLAUDE_CODE_DISABLE_NONESSENTIAL_TRAFFIC"])
}

func TestInjectMissingFileSignalsAbsence(t *testing.T) {
	t.Parallel()

	settings := newTestSettings(t, "")

	err := settings.Inject(context.Background(), zaiAccount())
	require.ErrorIs(t, err, domain.ErrSettingsNotFound)
	assert.NoFileExists(t, settings.Path(), "absence must not create the file")
}

func TestInjectNeverOverwritesBrokenFile(t *testing.T) {
	t.Parallel()

	settings := newTestSettings(t, "{broken json")

	err := settings.Inject(context.Background(), zaiAccount())
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSettingsNotFound)

	data, readErr := os.ReadFile(settings.Path())
	require.NoError(t, readErr)
	assert.Equal(t, "{broken json", string(data))
}

func TestSetupHookRegistersSessionStartEntry(t *testing.T) {
	t.Parallel()

	settings := newTestSettings(t, "")

	installed, err := settings.SetupHook(context.Background())
	require.NoError(t, err)
	assert.True(t, installed)

	status, err := settings.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status.SettingsFound)
	assert.True(t, status.HookRegistered)
	assert.Equal(t, HookCommand, status.HookCommand)

	doc := readDoc(t, settings)
	hooks := doc["hooks"].(map[string]any)
	sessionStart := hooks["SessionStart"].([]any)
	require.Len(t, sessionStart, 1)
	group := sessionStart[0].(map[string]any)
	assert.Equal(t, "startup|resume|clear|compact", group["matcher"])
}

func TestSetupHookIsIdempotent(t *testing.T) {
	t.Parallel()

	settings := newTestSettings(t, "")

	installed, err := settings.SetupHook(context.Background())
	require.NoError(t, err)
	assert.True(t, installed)

	installed, err = settings.SetupHook(context.Background())
	require.NoError(t, err)
	assert.False(t, installed)

	doc := readDoc(t, settings)
	hooks := doc["hooks"].(map[string]any)
	assert.Len(t, hooks["SessionStart"].([]any), 1)
}

func TestUninstallHookRemovesOnlyOurEntries(t *testing.T) {
	t.Parallel()

	settings := newTestSettings(t, `{
  "hooks": {
    "SessionStart": [
      {"matcher": "startup", "hooks": [{"type": "command", "command": "echo hi"}]},
      {"matcher": "startup|resume|clear|compact", "hooks": [{"type": "command", "command": "cohe auto hook --silent"}]}
    ],
    "PreToolUse": [{"hooks": [{"type": "command", "command": "lint"}]}]
  }
}`)

	removed, err := settings.UninstallHook(context.Background())
	require.NoError(t, err)
	assert.True(t, removed)

	doc := readDoc(t, settings)
	hooks := doc["hooks"].(map[string]any)
	sessionStart := hooks["SessionStart"].([]any)
	require.Len(t, sessionStart, 1)
	assert.Contains(t, hooks, "PreToolUse")

	removed, err = settings.UninstallHook(context.Background())
	require.NoError(t, err)
	assert.False(t, removed, "second uninstall finds nothing")
}

func TestUninstallHookDropsEmptyContainers(t *testing.T) {
	t.Parallel()

	settings := newTestSettings(t, `{
  "hooks": {
    "SessionStart": [
      {"matcher": "startup|resume|clear|compact", "hooks": [{"type": "command", "command": "cohe auto hook --silent"}]}
    ]
  },
  "model": "opus"
}`)

	removed, err := settings.UninstallHook(context.Background())
	require.NoError(t, err)
	assert.True(t, removed)

	doc := readDoc(t, settings)
	assert.NotContains(t, doc, "hooks")
	assert.Equal(t, "opus", doc["model"])
}

func TestStatusWithoutSettingsFile(t *testing.T) {
	t.Parallel()

	settings := newTestSettings(t, "")

	status, err := settings.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.SettingsFound)
	assert.False(t, status.HookRegistered)
}

func TestSessionEnvMirrorsInjectedBlock(t *testing.T) {
	t.Parallel()

	env := SessionEnv(minimaxAccount())
	assert.Contains(t, env, "ANTHROPIC_AUTH_TOKEN=mm-key")
	assert.Contains(t, env, "ANTHROPIC_BASE_URL=https://api.minimax.io/anthropic")
	assert.Contains(t, env, "ANTHROPIC_MODEL=MiniMax-M2.1")
	assert.Contains(t, env, "API_TIMEOUT_MS=3000000")
	assert.Contains(t, env, "CLAUDE_CODE_DISABLE_NONESSENTIAL_TRAFFIC=1")

	zai := SessionEnv(zaiAccount())
	for _, entry := range zai {
		assert.NotContains(t, entry, "CLAUDE_CODE_DISABLE_NONESSENTIAL_TRAFFIC")
	}
}
