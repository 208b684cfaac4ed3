package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/droverhq/drover"
	"github.com/droverhq/drover/tool"
)

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	name    string
	version string
}

// WithName sets the server name reported to MCP clients.
func WithName(name string) ServerOption {
	return func(c *serverConfig) {
		c.name = name
	}
}

// WithVersion sets the server version reported to MCP clients.
func WithVersion(version string) ServerOption {
	return func(c *serverConfig) {
		c.version = version
	}
}

// NewServer builds an MCP server exposing every tool in the registry, so
// MCP clients can discover and call them.
func NewServer(registry *tool.Registry, opts ...ServerOption) *server.MCPServer {
	cfg := &serverConfig{
		name:    "drover-mcp-server",
		version: "1.0.0",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := server.NewMCPServer(
		cfg.name,
		cfg.version,
		server.WithToolCapabilities(true),
	)

	for _, t := range registry.Tools() {
		name := t.Name
		handler, ok := registry.Get(name)
		if !ok || handler == nil {
			continue
		}
		s.AddTool(ToMCPTool(t), bridgeHandler(name, handler))
	}

	return s
}

// bridgeHandler wraps a registry handler as an MCP tool handler.
func bridgeHandler(name string, handler tool.Handler) func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsJSON := "{}"
		if req.Params.Arguments != nil {
			data, err := json.Marshal(req.Params.Arguments)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("marshal arguments: %v", err)), nil
			}
			argsJSON = string(data)
		}

		result, err := handler(ctx, drover.ToolCall{
			Name:      name,
			Arguments: argsJSON,
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(result), nil
	}
}

// ServeStdio runs an MCP server over stdin/stdout, the standard
// transport for servers launched as subprocesses.
func ServeStdio(registry *tool.Registry, opts ...ServerOption) error {
	return server.ServeStdio(NewServer(registry, opts...))
}
