// Package mcpbridge exposes a webostv.TV as a set of Model Context
// Protocol tools, so an MCP-speaking agent can control the TV the same
// way a human would through a remote app.
package mcpbridge

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"
)

// Server wraps an mcp-go stdio server, mirroring the reference
// client's MCPServer wrapper.
type Server struct {
	mcp *server.MCPServer
}

// NewServer creates the underlying MCP server without starting it.
func NewServer() *Server {
	return &Server{mcp: server.NewMCPServer("webostv", "1.0.0")}
}

// Run serves MCP requests over stdio until the client disconnects.
func (s *Server) Run() error {
	slog.Info("starting webostv MCP server")
	defer slog.Info("webostv MCP server stopped")
	return server.ServeStdio(s.mcp)
}
