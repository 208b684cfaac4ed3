package drover

import (
	"encoding/json"
	"time"
)

// Tool describes a capability the model may request. The descriptor is
// static: name, purpose, and the JSON Schema of its input payload.
type Tool struct {
	// Name uniquely identifies the tool within a registry.
	Name string `json:"name"`
	// Description tells the model what the tool does and when to use it.
	Description string `json:"description,omitempty"`
	// Parameters is a JSON Schema object describing the input payload.
	Parameters json.RawMessage `json:"parameters,omitempty"`
}

// ToolCall is a tool invocation request emitted by the model inside an
// assistant message. It is never mutated after creation.
type ToolCall struct {
	// ID correlates this request with its eventual ToolResult.
	ID string `json:"id"`
	// Name is the tool to invoke.
	Name string `json:"name"`
	// Arguments is the JSON-encoded input payload.
	Arguments string `json:"arguments"`
}

// ToolResult answers exactly one ToolCall.
type ToolResult struct {
	// ToolCallID matches the ID of the ToolCall being answered.
	ToolCallID string `json:"toolCallId"`
	// Content carries the result payload, or the error description when
	// IsError is set.
	Content string `json:"content"`
	// IsError marks a failed execution. Failed results are still fed back
	// to the model so it can react.
	IsError bool `json:"isError,omitempty"`
}

// ToolChoice controls how the model is allowed to use tools.
type ToolChoice string

const (
	// ToolChoiceAuto lets the model decide (default).
	ToolChoiceAuto ToolChoice = "auto"
	// ToolChoiceNone disables tool use for the request.
	ToolChoiceNone ToolChoice = "none"
	// ToolChoiceRequired forces the model to invoke a tool.
	ToolChoiceRequired ToolChoice = "required"
)

// NewToolResultMessage wraps tool results in a tool-role message for
// feeding back into the conversation.
func NewToolResultMessage(results ...ToolResult) Message {
	return Message{
		ID:          NewMessageID(),
		Role:        RoleTool,
		ToolResults: results,
		CreatedAt:   time.Now(),
	}
}
