package mcp

import (
	"context"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/droverhq/drover"
)

// RemoteRegistry exposes an MCP server's tools behind the same surface
// as a local tool registry, so an agent can mix local and remote tools.
// Tool calls are proxied to the server.
//
// The tool list is cached locally; call Refresh when the server's tool
// surface changes. RemoteRegistry is safe for concurrent use.
type RemoteRegistry struct {
	client *client.Client
	mu     sync.RWMutex
	tools  map[string]drover.Tool
}

// NewRemoteRegistry connects to an MCP server over stdio. The command is
// the server executable, args are passed to it.
func NewRemoteRegistry(ctx context.Context, command string, env []string, args ...string) (*RemoteRegistry, error) {
	c, err := client.NewStdioMCPClient(command, env, args...)
	if err != nil {
		return nil, fmt.Errorf("mcp: create client: %w", err)
	}
	return initRegistry(ctx, c)
}

// NewRemoteRegistrySSE connects to an MCP server over SSE.
func NewRemoteRegistrySSE(ctx context.Context, baseURL string) (*RemoteRegistry, error) {
	c, err := client.NewSSEMCPClient(baseURL)
	if err != nil {
		return nil, fmt.Errorf("mcp: create SSE client: %w", err)
	}
	return initRegistry(ctx, c)
}

// NewRemoteRegistryFromClient wraps an existing MCP client. The client
// is initialized and its tool list fetched.
func NewRemoteRegistryFromClient(ctx context.Context, c *client.Client) (*RemoteRegistry, error) {
	return initRegistry(ctx, c)
}

func initRegistry(ctx context.Context, c *client.Client) (*RemoteRegistry, error) {
	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("mcp: start client: %w", err)
	}

	_, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo: mcp.Implementation{
				Name:    "drover-mcp-client",
				Version: "1.0.0",
			},
		},
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("mcp: initialize session: %w", err)
	}

	r := &RemoteRegistry{
		client: c,
		tools:  make(map[string]drover.Tool),
	}
	if err := r.Refresh(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("mcp: list tools: %w", err)
	}
	return r, nil
}

// Close closes the connection to the MCP server.
func (r *RemoteRegistry) Close() error {
	return r.client.Close()
}

// Refresh re-fetches the server's tool list.
func (r *RemoteRegistry) Refresh(ctx context.Context) error {
	result, err := r.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.tools = make(map[string]drover.Tool, len(result.Tools))
	for _, t := range result.Tools {
		r.tools[t.Name] = FromMCPTool(t)
	}
	return nil
}

// Tools returns the cached tool descriptors.
func (r *RemoteRegistry) Tools() []drover.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]drover.Tool, 0, len(r.tools))
	for _, t := range r.tools {
		tools = append(tools, t)
	}
	return tools
}

// GetTool retrieves a tool descriptor by name.
func (r *RemoteRegistry) GetTool(name string) (drover.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Has reports whether the server offers a tool with the given name.
func (r *RemoteRegistry) Has(name string) bool {
	_, ok := r.GetTool(name)
	return ok
}

// Names returns the names of all cached tools.
func (r *RemoteRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// Len returns the number of cached tools.
func (r *RemoteRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Execute proxies a tool call to the MCP server. Transport errors become
// failed results so the agent loop feeds them back to the model.
func (r *RemoteRegistry) Execute(ctx context.Context, call drover.ToolCall) (drover.ToolResult, error) {
	result, err := r.client.CallTool(ctx, ToMCPCallToolRequest(call))
	if err != nil {
		return drover.ToolResult{
			ToolCallID: call.ID,
			Content:    err.Error(),
			IsError:    true,
		}, nil
	}
	return FromMCPCallToolResult(call.ID, result), nil
}
