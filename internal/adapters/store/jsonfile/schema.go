package jsonfile

import (
	"time"

	"github.com/imbios/cohe/internal/domain"
)

// fileSchema mirrors the on-disk JSON document. Field names are part of the
// persisted format and must not change without a version bump.
type fileSchema struct {
	Version       string                     `json:"version"`
	Accounts      map[string]accountSchema   `json:"accounts"`
	ActiveAccount string                     `json:"activeAccountId,omitempty"`
	Alerts        []alertSchema              `json:"alerts"`
	Notifications notificationsSchema        `json:"notifications"`
	Dashboard     dashboardSchema            `json:"dashboard"`
	Rotation      rotationSchema             `json:"rotation"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == "" {
		s.Version = domain.ConfigVersion
	}
	if s.Accounts == nil {
		s.Accounts = map[string]accountSchema{}
	}
}

type accountSchema struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Provider     string       `json:"provider"`
	APIKey       string       `json:"apiKey"`
	BaseURL      string       `json:"baseUrl"`
	DefaultModel string       `json:"defaultModel,omitempty"`
	GroupID      string       `json:"groupId,omitempty"`
	Priority     int          `json:"priority"`
	Enabled      bool         `json:"isActive"`
	CreatedAt    string       `json:"createdAt"`
	LastUsed     string       `json:"lastUsed,omitempty"`
	Usage        *usageSchema `json:"usage,omitempty"`
}

type usageSchema struct {
	Used        float64 `json:"used"`
	Limit       float64 `json:"limit"`
	LastUpdated string  `json:"lastUpdated"`
}

type alertSchema struct {
	ID            string  `json:"id"`
	Type          string  `json:"type"`
	Threshold     float64 `json:"threshold"`
	Enabled       bool    `json:"enabled"`
	LastTriggered string  `json:"lastTriggered,omitempty"`
}

type notificationsSchema struct {
	Method   string `json:"method"`
	Endpoint string `json:"endpoint,omitempty"`
	Enabled  bool   `json:"enabled"`
}

type dashboardSchema struct {
	Enabled   bool   `json:"enabled"`
	Port      int    `json:"port"`
	Host      string `json:"host"`
	AuthToken string `json:"authToken,omitempty"`
}

type rotationSchema struct {
	Enabled       bool   `json:"enabled"`
	Strategy      string `json:"strategy"`
	CrossProvider bool   `json:"crossProvider"`
	LastRotation  string `json:"lastRotation,omitempty"`
	MaxUsesPerKey int    `json:"maxUsesPerKey,omitempty"`
}

func toSchema(cfg domain.Config) fileSchema {
	file := fileSchema{
		Version:       cfg.Version,
		Accounts:      make(map[string]accountSchema, len(cfg.Accounts)),
		ActiveAccount: string(cfg.ActiveAccountID),
		Alerts:        make([]alertSchema, 0, len(cfg.Alerts)),
		Notifications: notificationsSchema{
			Method:   string(cfg.Notifications.Method),
			Endpoint: cfg.Notifications.Endpoint,
			Enabled:  cfg.Notifications.Enabled,
		},
		Dashboard: dashboardSchema{
			Enabled:   cfg.Dashboard.Enabled,
			Port:      cfg.Dashboard.Port,
			Host:      cfg.Dashboard.Host,
			AuthToken: cfg.Dashboard.AuthToken,
		},
		Rotation: rotationSchema{
			Enabled:       cfg.Rotation.Enabled,
			Strategy:      string(cfg.Rotation.Strategy),
			CrossProvider: cfg.Rotation.CrossProvider,
			LastRotation:  encodeTimePtr(cfg.Rotation.LastRotation),
			MaxUsesPerKey: cfg.Rotation.MaxUsesPerKey,
		},
	}
	file.applyDefaults()

	for id, account := range cfg.Accounts {
		entry := accountSchema{
			ID:           string(account.ID),
			Name:         account.Name,
			Provider:     string(account.Provider),
			APIKey:       account.APIKey,
			BaseURL:      account.BaseURL,
			DefaultModel: account.DefaultModel,
			GroupID:      account.GroupID,
			Priority:     account.Priority,
			Enabled:      account.Enabled,
			CreatedAt:    encodeTime(account.CreatedAt),
			LastUsed:     encodeTimePtr(account.LastUsed),
		}
		if account.Usage != nil {
			entry.Usage = &usageSchema{
				Used:        account.Usage.Used,
				Limit:       account.Usage.Limit,
				LastUpdated: encodeTime(account.Usage.LastUpdated),
			}
		}
		file.Accounts[string(id)] = entry
	}

	for _, rule := range cfg.Alerts {
		file.Alerts = append(file.Alerts, alertSchema{
			ID:            rule.ID,
			Type:          string(rule.Kind),
			Threshold:     rule.Threshold,
			Enabled:       rule.Enabled,
			LastTriggered: encodeTimePtr(rule.LastTriggered),
		})
	}

	return file
}

func fromSchema(file fileSchema) domain.Config {
	file.applyDefaults()

	cfg := domain.Config{
		Version:         file.Version,
		Accounts:        make(map[domain.AccountID]domain.Account, len(file.Accounts)),
		ActiveAccountID: domain.AccountID(file.ActiveAccount),
		Alerts:          make([]domain.AlertRule, 0, len(file.Alerts)),
		Notifications: domain.NotificationSettings{
			Method:   domain.NotifyMethod(file.Notifications.Method),
			Endpoint: file.Notifications.Endpoint,
			Enabled:  file.Notifications.Enabled,
		},
		Dashboard: domain.DashboardSettings{
			Enabled:   file.Dashboard.Enabled,
			Port:      file.Dashboard.Port,
			Host:      file.Dashboard.Host,
			AuthToken: file.Dashboard.AuthToken,
		},
		Rotation: domain.RotationPolicy{
			Enabled:       file.Rotation.Enabled,
			Strategy:      domain.Strategy(file.Rotation.Strategy),
			CrossProvider: file.Rotation.CrossProvider,
			LastRotation:  decodeTimePtr(file.Rotation.LastRotation),
			MaxUsesPerKey: file.Rotation.MaxUsesPerKey,
		},
	}

	for id, entry := range file.Accounts {
		account := domain.Account{
			ID:           domain.AccountID(entry.ID),
			Name:         entry.Name,
			Provider:     domain.Provider(entry.Provider),
			APIKey:       entry.APIKey,
			BaseURL:      entry.BaseURL,
			DefaultModel: entry.DefaultModel,
			GroupID:      entry.GroupID,
			Priority:     entry.Priority,
			Enabled:      entry.Enabled,
			CreatedAt:    decodeTime(entry.CreatedAt),
			LastUsed:     decodeTimePtr(entry.LastUsed),
		}
		if account.ID == "" {
			// Map key is authoritative when the entry omits its own id.
			account.ID = domain.AccountID(id)
		}
		if entry.Usage != nil {
			account.Usage = &domain.UsageSnapshot{
				Used:        entry.Usage.Used,
				Limit:       entry.Usage.Limit,
				LastUpdated: decodeTime(entry.Usage.LastUpdated),
			}
		}
		cfg.Accounts[account.ID] = account
	}

	for _, entry := range file.Alerts {
		cfg.Alerts = append(cfg.Alerts, domain.AlertRule{
			ID:            entry.ID,
			Kind:          domain.AlertKind(entry.Type),
			Threshold:     entry.Threshold,
			Enabled:       entry.Enabled,
			LastTriggered: decodeTimePtr(entry.LastTriggered),
		})
	}

	return cfg
}

func encodeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func encodeTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return encodeTime(*t)
}

func decodeTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func decodeTimePtr(value string) *time.Time {
	t := decodeTime(value)
	if t.IsZero() {
		return nil
	}
	return &t
}
