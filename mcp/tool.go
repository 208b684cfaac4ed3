// Package mcp bridges drover tool registries to the Model Context
// Protocol in both directions: expose a local registry to MCP clients,
// or consume a remote MCP server's tools through RemoteRegistry.
package mcp

import (
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/droverhq/drover"
)

// ToMCPTool converts a drover tool descriptor to an MCP tool, carrying
// the JSON schema through unchanged.
func ToMCPTool(t drover.Tool) mcp.Tool {
	return mcp.NewToolWithRawSchema(t.Name, t.Description, t.Parameters)
}

// FromMCPTool converts an MCP tool to a drover descriptor, preferring
// the raw schema when the server provides one.
func FromMCPTool(t mcp.Tool) drover.Tool {
	var schema json.RawMessage
	if len(t.RawInputSchema) > 0 {
		schema = t.RawInputSchema
	} else if data, err := json.Marshal(t.InputSchema); err == nil {
		schema = data
	}

	return drover.Tool{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  schema,
	}
}

// ToMCPCallToolRequest converts a tool call to an MCP call request.
func ToMCPCallToolRequest(call drover.ToolCall) mcp.CallToolRequest {
	var args any
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			args = call.Arguments
		}
	}

	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      call.Name,
			Arguments: args,
		},
	}
}

// FromMCPCallToolResult converts an MCP call result back to a tool
// result, concatenating text content blocks.
func FromMCPCallToolResult(callID string, result *mcp.CallToolResult) drover.ToolResult {
	if result == nil {
		return drover.ToolResult{
			ToolCallID: callID,
			IsError:    true,
		}
	}

	var parts []string
	for _, c := range result.Content {
		switch content := c.(type) {
		case mcp.TextContent:
			parts = append(parts, content.Text)
		case *mcp.TextContent:
			parts = append(parts, content.Text)
		default:
			if data, err := json.Marshal(content); err == nil {
				parts = append(parts, string(data))
			}
		}
	}
	if result.StructuredContent != nil {
		if data, err := json.Marshal(result.StructuredContent); err == nil {
			parts = append(parts, string(data))
		}
	}

	return drover.ToolResult{
		ToolCallID: callID,
		Content:    strings.Join(parts, "\n"),
		IsError:    result.IsError,
	}
}
