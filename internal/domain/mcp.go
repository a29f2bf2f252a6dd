package domain

// MCPServer is one MCP server definition. Provider restricts the server to
// sessions running against a specific provider; empty or "all" means any.
type MCPServer struct {
	Name        string
	Command     string
	Args        []string
	Env         map[string]string
	Description string
	Provider    string
	Enabled     bool
}

// MCPConfig is the MCP servers document, persisted separately from the
// accounts aggregate.
type MCPConfig struct {
	Servers   map[string]MCPServer
	GlobalEnv map[string]string
}

func DefaultMCPConfig() MCPConfig {
	return MCPConfig{Servers: map[string]MCPServer{}}
}
