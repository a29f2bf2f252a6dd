package ports

import (
	"context"

	"github.com/imbios/cohe/internal/domain"
)

// ConfigStore persists the whole config aggregate. Load never fails on a
// missing or corrupt document; it degrades to defaults so a hand-edited file
// cannot brick the CLI.
type ConfigStore interface {
	Load(ctx context.Context) (domain.Config, error)
	Save(ctx context.Context, cfg domain.Config) error
	// Mutate runs fn under the store's cross-process lock with a freshly
	// loaded config and persists the result when fn reports a change.
	Mutate(ctx context.Context, fn func(cfg *domain.Config) (bool, error)) error
}

// ProfileRepository persists named profiles, CRUD only.
type ProfileRepository interface {
	List(ctx context.Context) ([]domain.Profile, error)
	Get(ctx context.Context, name string) (domain.Profile, error)
	Save(ctx context.Context, profile domain.Profile) error
	Delete(ctx context.Context, name string) error
}

// MCPStore persists the MCP servers document, CRUD only.
type MCPStore interface {
	Load(ctx context.Context) (domain.MCPConfig, error)
	Save(ctx context.Context, cfg domain.MCPConfig) error
}
