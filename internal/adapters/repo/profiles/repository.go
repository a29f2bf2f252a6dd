// Package profiles persists named provider profiles as a TOML document.
// Profiles are lightweight credential presets, separate from the account
// store, that can be re-applied with a single command.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/imbios/cohe/internal/domain"
	"github.com/imbios/cohe/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	profilesPathKey  = "profiles.path"
	profilesDir      = ".claude"
	profilesFile     = "cohe-profiles.toml"
	profilesFileMode = 0o600
	profilesDirMode  = 0o700
	tempFilePattern  = ".cohe-profiles-*.toml.tmp"
)

type Repository struct {
	path string
	mu   *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.ProfileRepository = (*Repository)(nil)

// NewRepository resolves the profiles path through viper; COHE_PROFILES_PATH
// overrides the default under the home directory.
func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	cfg.SetDefault(profilesPathKey, filepath.Join(homeDir, profilesDir, profilesFile))
	cfg.SetEnvPrefix("COHE")
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	path := cfg.GetString(profilesPathKey)
	if path == "" {
		return nil, errors.New("profiles path is empty")
	}

	return NewRepositoryAt(path)
}

// NewRepositoryAt builds a repository over an explicit path.
func NewRepositoryAt(path string) (*Repository, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve profiles path: %w", err)
	}
	absPath = filepath.Clean(absPath)

	return &Repository{path: absPath, mu: lockForPath(absPath)}, nil
}

func (r *Repository) List(ctx context.Context) ([]domain.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	profiles := make([]domain.Profile, 0, len(file.Profiles))
	for _, entry := range file.Profiles {
		profiles = append(profiles, fromSchema(entry))
	}
	return profiles, nil
}

func (r *Repository) Get(ctx context.Context, name string) (domain.Profile, error) {
	if err := ctx.Err(); err != nil {
		return domain.Profile{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.Profile{}, err
	}

	for _, entry := range file.Profiles {
		if entry.Name == name {
			return fromSchema(entry), nil
		}
	}

	return domain.Profile{}, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, name)
}

func (r *Repository) Save(ctx context.Context, profile domain.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(profile.Name) == "" {
		return errors.New("profile name is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	encoded := toSchema(profile)
	updated := false
	for i := range file.Profiles {
		if file.Profiles[i].Name == encoded.Name {
			file.Profiles[i] = encoded
			updated = true
			break
		}
	}
	if !updated {
		file.Profiles = append(file.Profiles, encoded)
	}

	return r.writeSchema(file)
}

func (r *Repository) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	kept := make([]profileSchema, 0, len(file.Profiles))
	for _, entry := range file.Profiles {
		if entry.Name != name {
			kept = append(kept, entry)
		}
	}
	if len(kept) == len(file.Profiles) {
		return fmt.Errorf("%w: %s", domain.ErrProfileNotFound, name)
	}
	file.Profiles = kept

	return r.writeSchema(file)
}

type fileSchema struct {
	Profiles []profileSchema `toml:"profiles"`
}

type profileSchema struct {
	Name         string `toml:"name"`
	Provider     string `toml:"provider"`
	BaseURL      string `toml:"base_url"`
	DefaultModel string `toml:"default_model,omitempty"`
	SavedAt      string `toml:"saved_at,omitempty"`
}

func toSchema(profile domain.Profile) profileSchema {
	entry := profileSchema{
		Name:         profile.Name,
		Provider:     string(profile.Provider),
		BaseURL:      profile.BaseURL,
		DefaultModel: profile.DefaultModel,
	}
	if !profile.SavedAt.IsZero() {
		entry.SavedAt = profile.SavedAt.UTC().Format(time.RFC3339)
	}
	return entry
}

func fromSchema(entry profileSchema) domain.Profile {
	profile := domain.Profile{
		Name:         entry.Name,
		Provider:     domain.Provider(entry.Provider),
		BaseURL:      entry.BaseURL,
		DefaultModel: entry.DefaultModel,
	}
	if entry.SavedAt != "" {
		if ts, err := time.Parse(time.RFC3339, entry.SavedAt); err == nil {
			profile.SavedAt = ts.UTC()
		}
	}
	return profile
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{}, nil
		}
		return fileSchema{}, fmt.Errorf("read profiles file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode profiles file: %w", err)
	}
	return file, nil
}

func (r *Repository) writeSchema(file fileSchema) error {
	if err := os.MkdirAll(filepath.Dir(r.path), profilesDirMode); err != nil {
		return fmt.Errorf("create profiles directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode profiles file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp profiles file: %w", err)
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
		return fmt.Errorf("write temp profiles file: %w", err)
	}

	if err := tempFile.Chmod(profilesFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp profiles file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp profiles file: %w", err)
	}

	if err := os.Rename(tempName, r.path); err != nil {
		return fmt.Errorf("replace profiles file: %w", err)
	}

	cleanup = false

	if err := os.Chmod(r.path, profilesFileMode); err != nil {
		return fmt.Errorf("chmod profiles file: %w", err)
	}

	return nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}
