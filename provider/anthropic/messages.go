package anthropic

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/droverhq/drover"
)

func convertMessages(messages []drover.Message) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var result []anthropic.MessageParam
	var system []anthropic.TextBlockParam

	for _, msg := range messages {
		switch msg.Role {
		case drover.RoleSystem:
			// The API rejects empty text blocks.
			if msg.Content != "" {
				system = append(system, anthropic.TextBlockParam{Text: msg.Content})
			}
		case drover.RoleUser:
			if msg.Content != "" {
				result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
			}
		case drover.RoleAssistant:
			if len(msg.ToolCalls) > 0 {
				var blocks []anthropic.ContentBlockParamUnion
				if msg.Content != "" {
					blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
				}
				for _, tc := range msg.ToolCalls {
					var input any
					json.Unmarshal([]byte(tc.Arguments), &input)
					blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
				}
				result = append(result, anthropic.MessageParam{
					Role:    anthropic.MessageParamRoleAssistant,
					Content: blocks,
				})
			} else if msg.Content != "" {
				result = append(result, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
			}
		case drover.RoleTool:
			// Tool results go back as user messages with tool_result blocks.
			var blocks []anthropic.ContentBlockParamUnion
			for _, tr := range msg.ToolResults {
				blocks = append(blocks, anthropic.NewToolResultBlock(tr.ToolCallID, tr.Content, tr.IsError))
			}
			if len(blocks) > 0 {
				result = append(result, anthropic.MessageParam{
					Role:    anthropic.MessageParamRoleUser,
					Content: blocks,
				})
			}
		default:
			if msg.Content != "" {
				result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
			}
		}
	}

	return result, system
}
