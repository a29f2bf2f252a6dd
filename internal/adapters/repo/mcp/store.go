// Package mcp persists MCP server definitions (~/.claude/cohe-mcp.json),
// kept apart from the accounts aggregate so session tooling can read it
// without touching credentials.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/imbios/cohe/internal/domain"
	"github.com/imbios/cohe/internal/ports"
)

const (
	mcpDir          = ".claude"
	mcpFile         = "cohe-mcp.json"
	mcpFileMode     = 0o600
	mcpDirMode      = 0o700
	tempFilePattern = ".cohe-mcp-*.json.tmp"
	schemaVersion   = "1.0.0"
)

type Store struct {
	path string
	mu   *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.MCPStore = (*Store)(nil)

func NewStore() (*Store, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	return NewStoreAt(filepath.Join(homeDir, mcpDir, mcpFile))
}

func NewStoreAt(path string) (*Store, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve mcp path: %w", err)
	}
	absPath = filepath.Clean(absPath)

	return &Store{path: absPath, mu: lockForPath(absPath)}, nil
}

type fileSchema struct {
	Version   string                  `json:"version"`
	Servers   map[string]serverSchema `json:"servers"`
	GlobalEnv map[string]string       `json:"globalEnv,omitempty"`
}

type serverSchema struct {
	Name        string            `json:"name"`
	Command     string            `json:"command"`
	Args        []string          `json:"args"`
	Env         map[string]string `json:"env,omitempty"`
	Description string            `json:"description,omitempty"`
	Provider    string            `json:"provider,omitempty"`
	Enabled     bool              `json:"enabled"`
}

func (s *Store) Load(ctx context.Context) (domain.MCPConfig, error) {
	if err := ctx.Err(); err != nil {
		return domain.MCPConfig{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.DefaultMCPConfig(), nil
		}
		return domain.MCPConfig{}, fmt.Errorf("read mcp file: %w", err)
	}

	var file fileSchema
	if err := json.Unmarshal(data, &file); err != nil {
		return domain.DefaultMCPConfig(), nil
	}

	cfg := domain.MCPConfig{
		Servers:   make(map[string]domain.MCPServer, len(file.Servers)),
		GlobalEnv: file.GlobalEnv,
	}
	for name, entry := range file.Servers {
		if entry.Name == "" {
			entry.Name = name
		}
		cfg.Servers[entry.Name] = domain.MCPServer{
			Name:        entry.Name,
			Command:     entry.Command,
			Args:        entry.Args,
			Env:         entry.Env,
			Description: entry.Description,
			Provider:    entry.Provider,
			Enabled:     entry.Enabled,
		}
	}
	return cfg, nil
}

func (s *Store) Save(ctx context.Context, cfg domain.MCPConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file := fileSchema{
		Version:   schemaVersion,
		Servers:   make(map[string]serverSchema, len(cfg.Servers)),
		GlobalEnv: cfg.GlobalEnv,
	}
	for name, server := range cfg.Servers {
		file.Servers[name] = serverSchema{
			Name:        server.Name,
			Command:     server.Command,
			Args:        server.Args,
			Env:         server.Env,
			Description: server.Description,
			Provider:    server.Provider,
			Enabled:     server.Enabled,
		}
	}

	return s.write(file)
}

func (s *Store) write(file fileSchema) error {
	if err := os.MkdirAll(filepath.Dir(s.path), mcpDirMode); err != nil {
		return fmt.Errorf("create mcp directory: %w", err)
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encode mcp file: %w", err)
	}
	data = append(data, '\n')

	tempFile, err := os.CreateTemp(filepath.Dir(s.path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp mcp file: %w", err)
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
		return fmt.Errorf("write temp mcp file: %w", err)
	}

	if err := tempFile.Chmod(mcpFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp mcp file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp mcp file: %w", err)
	}

	if err := os.Rename(tempName, s.path); err != nil {
		return fmt.Errorf("replace mcp file: %w", err)
	}

	cleanup = false
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
