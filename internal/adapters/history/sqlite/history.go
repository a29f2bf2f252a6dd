// Package sqlite records usage readings in a local database so the CLI can
// show consumption trends without asking the providers again.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/imbios/cohe/internal/domain"
	"github.com/imbios/cohe/internal/ports"

	_ "modernc.org/sqlite"
)

const timeLayout = "2006-01-02 15:04:05"

// History wraps the SQL connection. Recording is best-effort from the
// caller's perspective; errors are returned for optional reporting only.
type History struct {
	*sql.DB
	path string
}

var _ ports.UsageHistory = (*History)(nil)

// New opens (or creates) the history database and ensures the schema.
func New(path string) (*History, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	if err := sqlDB.PingContext(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect to history database: %w", err)
	}

	h := &History{DB: sqlDB, path: path}

	if err := h.configure(); err != nil {
		_ = h.Close()
		return nil, fmt.Errorf("configure history database: %w", err)
	}
	if err := h.createSchema(); err != nil {
		_ = h.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}

	return h, nil
}

func (h *History) Path() string {
	return h.path
}

func (h *History) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := h.ExecContext(context.Background(), pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}
	return nil
}

func (h *History) createSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS usage_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id TEXT NOT NULL,
		provider TEXT NOT NULL,
		used REAL NOT NULL,
		quota_limit REAL NOT NULL,
		remaining REAL NOT NULL,
		percent REAL NOT NULL,
		recorded_at DATETIME NOT NULL
	)`
	if _, err := h.ExecContext(context.Background(), query); err != nil {
		return err
	}

	index := `CREATE INDEX IF NOT EXISTS idx_usage_history_account
		ON usage_history(account_id, recorded_at DESC)`
	_, err := h.ExecContext(context.Background(), index)
	return err
}

func (h *History) Record(ctx context.Context, account domain.Account, stats domain.UsageStats) error {
	query := `
		INSERT INTO usage_history (
			account_id, provider, used, quota_limit, remaining, percent, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := h.ExecContext(ctx, query,
		string(account.ID),
		string(account.Provider),
		stats.Used,
		stats.Limit,
		stats.Remaining,
		stats.PercentUsed,
		time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("record usage history: %w", err)
	}
	return nil
}

// Recent returns the newest readings for one account, most recent first.
func (h *History) Recent(ctx context.Context, accountID domain.AccountID, limit int) ([]ports.HistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT account_id, provider, used, quota_limit, remaining, percent, recorded_at
		FROM usage_history
		WHERE account_id = ?
		ORDER BY recorded_at DESC, id DESC
		LIMIT ?
	`
	rows, err := h.QueryContext(ctx, query, string(accountID), limit)
	if err != nil {
		return nil, fmt.Errorf("query usage history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []ports.HistoryEntry
	for rows.Next() {
		var (
			entry      ports.HistoryEntry
			id         string
			provider   string
			recordedAt string
		)
		if err := rows.Scan(&id, &provider, &entry.Used, &entry.Limit, &entry.Remaining, &entry.Percent, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan usage history row: %w", err)
		}
		entry.AccountID = domain.AccountID(id)
		entry.Provider = domain.Provider(provider)
		if ts, err := time.Parse(timeLayout, recordedAt); err == nil {
			entry.RecordedAt = ts.UTC()
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate usage history rows: %w", err)
	}

	return entries, nil
}
