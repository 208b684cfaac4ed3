// Package anthropic adapts the Anthropic SDK to the drover.ModelClient
// interface.
package anthropic

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/droverhq/drover"
)

// DefaultModel is used when neither the client nor the call specifies one.
const DefaultModel = "claude-sonnet-4-20250514"

// Client wraps the Anthropic SDK to implement drover.ModelClient.
type Client struct {
	client *anthropic.Client
	model  string
}

// New creates a new Anthropic client with the given API key.
func New(apiKey string, opts ...ClientOption) *Client {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	c := &Client{
		client: &client,
		model:  DefaultModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClientOption configures the Anthropic client.
type ClientOption func(*Client)

// WithModel sets the default model for requests.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// Chat sends a conversation and returns a complete response.
func (c *Client) Chat(ctx context.Context, messages []drover.Message, opts ...drover.Option) (*drover.Response, error) {
	options := drover.ApplyOptions(opts...)
	model := c.model
	if options.Model != "" {
		model = options.Model
	}

	maxTokens := int64(4096)
	if options.MaxTokens > 0 {
		maxTokens = int64(options.MaxTokens)
	}

	msgs, system := convertMessages(messages)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  msgs,
	}
	if len(system) > 0 {
		params.System = system
	}
	if options.Temperature != nil {
		params.Temperature = anthropic.Float(*options.Temperature)
	}
	if len(options.Tools) > 0 {
		params.Tools = convertTools(options.Tools)
		if options.ToolChoice != "" && options.ToolChoice != drover.ToolChoiceNone {
			params.ToolChoice = convertToolChoice(options.ToolChoice)
		}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, wrapError(err)
	}

	content := ""
	var toolCalls []drover.ToolCall
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			content += block.Text
		case "tool_use":
			toolCalls = append(toolCalls, drover.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: string(block.Input),
			})
		}
	}

	return &drover.Response{
		Content:      content,
		FinishReason: string(resp.StopReason),
		Usage: drover.Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		},
		ToolCalls: toolCalls,
	}, nil
}

var _ drover.ModelClient = (*Client)(nil)
