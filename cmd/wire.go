package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/imbios/cohe/internal/adapters/history/sqlite"
	"github.com/imbios/cohe/internal/adapters/notify"
	"github.com/imbios/cohe/internal/adapters/provider/minimax"
	"github.com/imbios/cohe/internal/adapters/provider/probe"
	"github.com/imbios/cohe/internal/adapters/provider/zai"
	accountsrender "github.com/imbios/cohe/internal/adapters/render/accounts"
	mcprepo "github.com/imbios/cohe/internal/adapters/repo/mcp"
	"github.com/imbios/cohe/internal/adapters/repo/profiles"
	"github.com/imbios/cohe/internal/adapters/settings/claudecode"
	"github.com/imbios/cohe/internal/adapters/store/jsonfile"
	"github.com/imbios/cohe/internal/application"
	"github.com/imbios/cohe/internal/domain"
	"github.com/imbios/cohe/internal/ports"
)

type app struct {
	accounts  *application.AccountService
	rotation  *application.RotationService
	alerts    *application.AlertService
	config    *application.ConfigService
	hook      *application.HookService
	profiles  *application.ProfileService
	mcp       *application.MCPService
	store     ports.ConfigStore
	settings  *claudecode.Settings
	providers map[domain.Provider]ports.UsageProvider
	tester    ports.ConnectionTester
	history   ports.UsageHistory
	renderer  func([]accountsrender.View, accountsrender.RenderOptions) (string, error)
	now       func() time.Time
}

func wireApp() (*app, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	// Optional env-file overrides (provider keys, base URLs). Absence is fine.
	_ = godotenv.Load(filepath.Join(homeDir, ".claude", "cohe.env"))

	store, err := jsonfile.NewStore(viper.New())
	if err != nil {
		return nil, fmt.Errorf("wire config store: %w", err)
	}
	store.SetWarnWriter(os.Stderr)

	paths := viper.New()
	paths.SetDefault("claude.settings_path", filepath.Join(homeDir, ".claude", "settings.json"))
	paths.SetDefault("history.path", filepath.Join(homeDir, ".claude", "cohe-usage.db"))
	paths.SetEnvPrefix("COHE")
	paths.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	paths.AutomaticEnv()

	settings := claudecode.NewAt(paths.GetString("claude.settings_path"))

	profileRepo, err := profiles.NewRepository(viper.New())
	if err != nil {
		return nil, fmt.Errorf("wire profile repository: %w", err)
	}

	mcpStore, err := mcprepo.NewStore()
	if err != nil {
		return nil, fmt.Errorf("wire mcp store: %w", err)
	}

	// Usage history is best-effort: a broken database never blocks the CLI.
	var history ports.UsageHistory
	if db, err := sqlite.New(paths.GetString("history.path")); err == nil {
		history = db
	} else {
		fmt.Fprintf(os.Stderr, "Warning: usage history unavailable: %v\n", err)
	}

	providers := map[domain.Provider]ports.UsageProvider{
		domain.ProviderZAI:     zai.New(),
		domain.ProviderMiniMax: minimax.New(),
	}

	clock := ports.SystemClock{}

	return &app{
		accounts:  application.NewAccountService(store, clock),
		rotation:  application.NewRotationService(store, providers, history, clock),
		alerts:    application.NewAlertService(store, notify.NewConsole(os.Stderr)),
		config:    application.NewConfigService(store),
		hook:      application.NewHookService(store, settings, detachedScheduler{}),
		profiles:  application.NewProfileService(profileRepo, store, clock),
		mcp:       application.NewMCPService(mcpStore),
		store:     store,
		settings:  settings,
		providers: providers,
		tester:    probe.New(),
		history:   history,
		renderer:  accountsrender.Render,
		now:       time.Now,
	}, nil
}

// alertsFor builds the alert evaluator with the notifier matching the
// current notification settings. Console output goes to err.
func (a *app) alertsFor(notifications domain.NotificationSettings, errOut io.Writer) *application.AlertService {
	return application.NewAlertService(a.store, notify.For(notifications, errOut))
}
