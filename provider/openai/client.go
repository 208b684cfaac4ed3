// Package openai adapts the OpenAI SDK to the drover.ModelClient
// interface.
package openai

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/droverhq/drover"
)

// DefaultModel is used when neither the client nor the call specifies one.
const DefaultModel = "gpt-4o"

// Client wraps the OpenAI SDK to implement drover.ModelClient.
type Client struct {
	client *openai.Client
	model  string
}

// New creates a new OpenAI client with the given API key.
func New(apiKey string, opts ...ClientOption) *Client {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	c := &Client{
		client: &client,
		model:  DefaultModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClientOption configures the OpenAI client.
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

	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: convertMessages(messages),
	}
	if options.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(options.MaxTokens))
	}
	if options.Temperature != nil {
		params.Temperature = openai.Float(*options.Temperature)
	}
	if len(options.Tools) > 0 {
		params.Tools = convertTools(options.Tools)
		if options.ToolChoice != "" {
			params.ToolChoice = convertToolChoice(options.ToolChoice)
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, wrapError(err)
	}

	choice := resp.Choices[0]
	return &drover.Response{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Usage: drover.Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
		ToolCalls: extractToolCalls(choice.Message),
	}, nil
}

var _ drover.ModelClient = (*Client)(nil)
