package application

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/imbios/cohe/internal/domain"
	"github.com/imbios/cohe/internal/ports"
)

// MCPService manages MCP server definitions.
type MCPService struct {
	store ports.MCPStore
}

func NewMCPService(store ports.MCPStore) *MCPService {
	return &MCPService{store: store}
}

func (s *MCPService) AddServer(ctx context.Context, server domain.MCPServer) (domain.MCPServer, error) {
	if strings.TrimSpace(server.Name) == "" {
		return domain.MCPServer{}, fmt.Errorf("server name is empty")
	}
	if server.Provider == "" {
		server.Provider = "all"
	}
	server.Enabled = true

	cfg, err := s.store.Load(ctx)
	if err != nil {
		return domain.MCPServer{}, fmt.Errorf("load mcp config: %w", err)
	}
	if cfg.Servers == nil {
		cfg.Servers = map[string]domain.MCPServer{}
	}
	cfg.Servers[server.Name] = server

	if err := s.store.Save(ctx, cfg); err != nil {
		return domain.MCPServer{}, fmt.Errorf("save mcp config: %w", err)
	}
	return server, nil
}

func (s *MCPService) RemoveServer(ctx context.Context, name string) error {
	cfg, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load mcp config: %w", err)
	}
	if _, ok := cfg.Servers[name]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrServerNotFound, name)
	}
	delete(cfg.Servers, name)

	if err := s.store.Save(ctx, cfg); err != nil {
		return fmt.Errorf("save mcp config: %w", err)
	}
	return nil
}

func (s *MCPService) SetServerEnabled(ctx context.Context, name string, enabled bool) error {
	cfg, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load mcp config: %w", err)
	}
	server, ok := cfg.Servers[name]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrServerNotFound, name)
	}
	server.Enabled = enabled
	cfg.Servers[name] = server

	if err := s.store.Save(ctx, cfg); err != nil {
		return fmt.Errorf("save mcp config: %w", err)
	}
	return nil
}

// ListServers returns every server definition sorted by name.
func (s *MCPService) ListServers(ctx context.Context) ([]domain.MCPServer, error) {
	cfg, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load mcp config: %w", err)
	}

	servers := make([]domain.MCPServer, 0, len(cfg.Servers))
	for _, server := range cfg.Servers {
		servers = append(servers, server)
	}
	sort.Slice(servers, func(i, j int) bool { return servers[i].Name < servers[j].Name })
	return servers, nil
}
