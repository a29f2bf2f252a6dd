// Package jsonfile persists the config aggregate as a single JSON document,
// by default ~/.claude/cohe.json. Writes are atomic (temp file plus rename)
// and guarded both in-process (a per-path RWMutex) and cross-process (a
// sidecar flock), since the session hook and an interactive CLI can touch
// the file at the same time.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/imbios/cohe/internal/domain"
	"github.com/imbios/cohe/internal/ports"
	"github.com/spf13/viper"
)

const (
	configPathKey   = "config.path"
	configDir       = ".claude"
	configFile      = "cohe.json"
	configFileMode  = 0o600
	configDirMode   = 0o700
	tempFilePattern = ".cohe-*.json.tmp"
	lockSuffix      = ".lock"
	lockRetryDelay  = 25 * time.Millisecond
)

type Store struct {
	path string
	mu   *sync.RWMutex
	warn io.Writer
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.ConfigStore = (*Store)(nil)

// NewStore resolves the config path through viper. The default lives under
// the home directory; COHE_CONFIG_PATH overrides it.
func NewStore(cfg *viper.Viper) (*Store, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	cfg.SetDefault(configPathKey, filepath.Join(homeDir, configDir, configFile))
	cfg.SetEnvPrefix("COHE")
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	path := cfg.GetString(configPathKey)
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	return NewStoreAt(path)
}

// NewStoreAt builds a store over an explicit path, bypassing viper. Tests
// and the hook entry point use it.
func NewStoreAt(path string) (*Store, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	absPath = filepath.Clean(absPath)

	return &Store{path: absPath, mu: lockForPath(absPath), warn: os.Stderr}, nil
}

// Path returns the resolved config file location.
func (s *Store) Path() string {
	return s.path
}

// SetWarnWriter redirects corruption warnings, which otherwise go to stderr.
func (s *Store) SetWarnWriter(w io.Writer) {
	s.warn = w
}

func (s *Store) Load(ctx context.Context) (domain.Config, error) {
	if err := ctx.Err(); err != nil {
		return domain.Config{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	release, err := s.acquireFileLock(ctx, false)
	if err != nil {
		return domain.Config{}, err
	}
	defer release()

	return s.readOrDefault(), nil
}

func (s *Store) Save(ctx context.Context, cfg domain.Config) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	release, err := s.acquireFileLock(ctx, true)
	if err != nil {
		return err
	}
	defer release()

	return s.writeSchema(toSchema(cfg))
}

// Mutate holds both locks across the read-modify-write cycle so concurrent
// CLI invocations cannot lose updates to each other.
func (s *Store) Mutate(ctx context.Context, fn func(cfg *domain.Config) (bool, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	release, err := s.acquireFileLock(ctx, true)
	if err != nil {
		return err
	}
	defer release()

	cfg := s.readOrDefault()
	changed, err := fn(&cfg)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	return s.writeSchema(toSchema(cfg))
}

// readOrDefault loads the document, degrading to defaults when the file is
// missing or unreadable. Corruption is reported on the warn writer but must
// never block the CLI; the broken file stays untouched until the next write.
func (s *Store) readOrDefault() domain.Config {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(s.warn, "Warning: cannot read %s (%v), starting from defaults\n", s.path, err)
		}
		return domain.DefaultConfig()
	}

	var file fileSchema
	if err := json.Unmarshal(data, &file); err != nil {
		fmt.Fprintf(s.warn, "Warning: %s is not valid JSON (%v), starting from defaults\n", s.path, err)
		return domain.DefaultConfig()
	}

	return fromSchema(file)
}

func (s *Store) writeSchema(file fileSchema) error {
	if err := os.MkdirAll(filepath.Dir(s.path), configDirMode); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config file: %w", err)
	}
	data = append(data, '\n')

	tempFile, err := os.CreateTemp(filepath.Dir(s.path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp config file: %w", err)
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
		return fmt.Errorf("write temp config file: %w", err)
	}

	if err := tempFile.Chmod(configFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp config file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp config file: %w", err)
	}

	if err := os.Rename(tempName, s.path); err != nil {
		return fmt.Errorf("replace config file: %w", err)
	}

	cleanup = false

	if err := os.Chmod(s.path, configFileMode); err != nil {
		return fmt.Errorf("chmod config file: %w", err)
	}

	return nil
}

// acquireFileLock takes the cross-process flock next to the config file. The
// lock file is a sidecar so the atomic rename of the document itself never
// invalidates a held lock.
func (s *Store) acquireFileLock(ctx context.Context, exclusive bool) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(s.path), configDirMode); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	fileLock := flock.New(s.path + lockSuffix)

	var (
		locked bool
		err    error
	)
	if exclusive {
		locked, err = fileLock.TryLockContext(ctx, lockRetryDelay)
	} else {
		locked, err = fileLock.TryRLockContext(ctx, lockRetryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("lock config file: %w", err)
	}
	if !locked {
		return nil, errors.New("lock config file: not acquired")
	}

	return func() { _ = fileLock.Unlock() }, nil
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
