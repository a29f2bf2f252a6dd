package application

import (
	"context"
	"sync"
	"testing"

	"github.com/imbios/cohe/internal/domain"
	"github.com/imbios/cohe/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.MCPStore = (*memMCPStore)(nil)

type memMCPStore struct {
	mu  sync.Mutex
	cfg domain.MCPConfig
}

func newMemMCPStore() *memMCPStore {
	return &memMCPStore{cfg: domain.DefaultMCPConfig()}
}

func (s *memMCPStore) Load(_ context.Context) (domain.MCPConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := domain.MCPConfig{
		Servers:   make(map[string]domain.MCPServer, len(s.cfg.Servers)),
		GlobalEnv: s.cfg.GlobalEnv,
	}
	for name, server := range s.cfg.Servers {
		out.Servers[name] = server
	}
	return out, nil
}

func (s *memMCPStore) Save(_ context.Context, cfg domain.MCPConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	return nil
}

func TestAddServerDefaultsProviderAndEnables(t *testing.T) {
	t.Parallel()

	svc := NewMCPService(newMemMCPStore())

	server, err := svc.AddServer(context.Background(), domain.MCPServer{
		Name:    "zai-search",
		Command: "npx",
		Args:    []string{"-y", "@z-ai/mcp-server-search"},
	})
	require.NoError(t, err)
	assert.True(t, server.Enabled)
	assert.Equal(t, "all", server.Provider)

	servers, err := svc.ListServers(context.Background())
	require.NoError(t, err)
	require.Len(t, servers, 1)
}

func TestAddServerRejectsEmptyName(t *testing.T) {
	t.Parallel()

	svc := NewMCPService(newMemMCPStore())
	_, err := svc.AddServer(context.Background(), domain.MCPServer{Name: " "})
	require.Error(t, err)
}

func TestRemoveServerSignalsAbsence(t *testing.T) {
	t.Parallel()

	svc := NewMCPService(newMemMCPStore())

	_, err := svc.AddServer(context.Background(), domain.MCPServer{Name: "zai-vision", Command: "npx"})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveServer(context.Background(), "zai-vision"))
	require.ErrorIs(t, svc.RemoveServer(context.Background(), "zai-vision"), domain.ErrServerNotFound)
}

func TestSetServerEnabledToggles(t *testing.T) {
	t.Parallel()

	svc := NewMCPService(newMemMCPStore())
	_, err := svc.AddServer(context.Background(), domain.MCPServer{Name: "minimax-coding", Command: "npx"})
	require.NoError(t, err)

	require.NoError(t, svc.SetServerEnabled(context.Background(), "minimax-coding", false))

	servers, err := svc.ListServers(context.Background())
	require.NoError(t, err)
	require.Len(t, servers, 1)
	assert.False(t, servers[0].Enabled)

	require.ErrorIs(t, svc.SetServerEnabled(context.Background(), "ghost", true), domain.ErrServerNotFound)
}

func TestListServersSortsByName(t *testing.T) {
	t.Parallel()

	svc := NewMCPService(newMemMCPStore())
	for _, name := range []string{"zai-vision", "minimax-coding", "zai-search"} {
		_, err := svc.AddServer(context.Background(), domain.MCPServer{Name: name, Command: "npx"})
		require.NoError(t, err)
	}

	servers, err := svc.ListServers(context.Background())
	require.NoError(t, err)
	require.Len(t, servers, 3)
	assert.Equal(t, "minimax-coding", servers[0].Name)
	assert.Equal(t, "zai-search", servers[1].Name)
	assert.Equal(t, "zai-vision", servers[2].Name)
}
