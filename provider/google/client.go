// Package google adapts the Google GenAI SDK to the drover.ModelClient
// interface.
package google

import (
	"context"

	"google.golang.org/genai"

	"github.com/droverhq/drover"
)

// DefaultModel is used when neither the client nor the call specifies one.
const DefaultModel = "gemini-2.0-flash"

// Client wraps the Google GenAI SDK to implement drover.ModelClient.
type Client struct {
	client *genai.Client
	model  string
}

// New creates a new Google GenAI client with the given API key.
func New(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	c := &Client{
		client: client,
		model:  DefaultModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ClientOption configures the Google client.
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

	contents := convertMessages(messages)
	config := &genai.GenerateContentConfig{}
	if options.MaxTokens > 0 {
		config.MaxOutputTokens = int32(options.MaxTokens)
	}
	if options.Temperature != nil {
		temp := float32(*options.Temperature)
		config.Temperature = &temp
	}
	if len(options.Tools) > 0 {
		config.Tools = convertTools(options.Tools)
		if options.ToolChoice != "" {
			config.ToolConfig = convertToolChoice(options.ToolChoice)
		}
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, wrapError(err)
	}

	content := ""
	var toolCalls []drover.ToolCall
	finishReason := ""
	if len(resp.Candidates) > 0 {
		finishReason = string(resp.Candidates[0].FinishReason)
		if resp.Candidates[0].Content != nil {
			for _, part := range resp.Candidates[0].Content.Parts {
				if part.Text != "" {
					content += part.Text
				}
			}
			toolCalls = extractToolCalls(resp.Candidates[0].Content.Parts)
		}
	}

	usage := drover.Usage{}
	if resp.UsageMetadata != nil {
		usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return &drover.Response{
		Content:      content,
		FinishReason: finishReason,
		Usage:        usage,
		ToolCalls:    toolCalls,
	}, nil
}

var _ drover.ModelClient = (*Client)(nil)
