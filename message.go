package drover

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the sender of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Message is a single entry in a conversation. Messages are immutable once
// appended to a transcript; construct a new one instead of mutating.
type Message struct {
	// ID is a unique identifier used for correlation across logs and sinks.
	ID   string `json:"id,omitempty"`
	Role Role   `json:"role"`
	// Content holds the textual body, if any.
	Content string `json:"content,omitempty"`
	// ToolCalls carries tool invocation requests. Only populated on
	// assistant messages when the model wants tools executed.
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`
	// ToolResults carries the outcomes of tool executions. Only populated
	// on tool messages.
	ToolResults []ToolResult `json:"toolResults,omitempty"`
	// CreatedAt records when the message was constructed.
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// NewMessageID creates a unique message identifier.
func NewMessageID() string {
	return "msg-" + uuid.New().String()
}

// NewUserMessage creates a user message with the given text.
func NewUserMessage(text string) Message {
	return Message{
		ID:        NewMessageID(),
		Role:      RoleUser,
		Content:   text,
		CreatedAt: time.Now(),
	}
}

// NewSystemMessage creates a system message with the given text.
func NewSystemMessage(text string) Message {
	return Message{
		ID:        NewMessageID(),
		Role:      RoleSystem,
		Content:   text,
		CreatedAt: time.Now(),
	}
}

// NewAssistantMessage creates an assistant message carrying the model's
// text and any tool invocation requests from the same turn.
func NewAssistantMessage(text string, calls ...ToolCall) Message {
	return Message{
		ID:        NewMessageID(),
		Role:      RoleAssistant,
		Content:   text,
		ToolCalls: calls,
		CreatedAt: time.Now(),
	}
}

// Response is a complete reply from a model client.
type Response struct {
	Content      string `json:"content,omitempty"`
	FinishReason string `json:"finishReason,omitempty"`
	Usage        Usage  `json:"usage"`
	// ToolCalls contains tool invocation requests from the model.
	// An empty slice means the model produced a final textual answer.
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`
}

// Usage records token consumption for one model call.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// Add accumulates another usage record into u.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}
