package google

import (
	"encoding/json"

	"google.golang.org/genai"

	"github.com/droverhq/drover"
)

func convertMessages(messages []drover.Message) []*genai.Content {
	var contents []*genai.Content

	for _, msg := range messages {
		role := "user"
		switch msg.Role {
		case drover.RoleAssistant:
			role = "model"
		case drover.RoleUser, drover.RoleSystem, drover.RoleTool:
			// Gemini has no separate system or tool role on the wire;
			// system text and tool results travel as user content.
			role = "user"
		}

		var parts []*genai.Part
		if msg.Content != "" {
			parts = append(parts, &genai.Part{Text: msg.Content})
		}

		for _, tc := range msg.ToolCalls {
			var args map[string]any
			json.Unmarshal([]byte(tc.Arguments), &args)
			parts = append(parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{
					Name: tc.Name,
					Args: args,
				},
			})
		}

		for _, tr := range msg.ToolResults {
			var result map[string]any
			if err := json.Unmarshal([]byte(tr.Content), &result); err != nil || result == nil {
				result = map[string]any{"result": tr.Content}
			}
			if tr.IsError {
				result["error"] = true
			}
			parts = append(parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					Name:     tr.ToolCallID,
					Response: result,
				},
			})
		}

		if len(parts) > 0 {
			contents = append(contents, &genai.Content{
				Role:  role,
				Parts: parts,
			})
		}
	}

	return contents
}
