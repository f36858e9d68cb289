// Package mcpserver exposes the unused-asset audit as MCP tools.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/orphan/pkg/config"
)

const (
	serverName        = "orphan"
	serverDescription = "Find static assets that no source file references"
)

// Server wraps the MCP server and registers the orphan tools.
type Server struct {
	server *mcp.Server
	config *config.Config
}

// NewServer creates a new MCP server. A nil cfg uses the defaults.
func NewServer(version string, cfg *config.Config) *Server {
	if version == "" {
		version = "dev"
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Version: version,
		},
		nil,
	)

	s := &Server{server: server, config: cfg}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "find_unused_assets",
		Description: describeFindUnusedAssets(),
	}, s.handleFindUnusedAssets)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "detect_dynamic_paths",
		Description: describeDetectDynamicPaths(),
	}, s.handleDetectDynamicPaths)
}
