package google

import (
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/droverhq/drover"
)

func convertTools(tools []drover.Tool) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}

	funcs := make([]*genai.FunctionDeclaration, len(tools))
	for i, t := range tools {
		funcs[i] = &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  convertSchema(t.Parameters),
		}
	}

	return []*genai.Tool{{FunctionDeclarations: funcs}}
}

func convertToolChoice(choice drover.ToolChoice) *genai.ToolConfig {
	switch choice {
	case drover.ToolChoiceNone:
		return &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode: genai.FunctionCallingConfigModeNone,
			},
		}
	case drover.ToolChoiceRequired:
		return &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode: genai.FunctionCallingConfigModeAny,
			},
		}
	default:
		return &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode: genai.FunctionCallingConfigModeAuto,
			},
		}
	}
}

// extractToolCalls synthesizes call IDs: Gemini function calls carry no
// identifier of their own, but the orchestrator needs one to pair each
// call with its result.
func extractToolCalls(parts []*genai.Part) []drover.ToolCall {
	var calls []drover.ToolCall
	for i, part := range parts {
		if part.FunctionCall != nil {
			args, _ := json.Marshal(part.FunctionCall.Args)
			calls = append(calls, drover.ToolCall{
				ID:        fmt.Sprintf("call_%d_%s", i, part.FunctionCall.Name),
				Name:      part.FunctionCall.Name,
				Arguments: string(args),
			})
		}
	}
	return calls
}

// convertSchema converts a JSON Schema document to the genai schema type.
func convertSchema(schemaJSON json.RawMessage) *genai.Schema {
	if len(schemaJSON) == 0 {
		return nil
	}

	var schema map[string]any
	if err := json.Unmarshal(schemaJSON, &schema); err != nil {
		return nil
	}

	return convertSchemaObject(schema)
}

func convertSchemaObject(schema map[string]any) *genai.Schema {
	if schema == nil {
		return nil
	}

	result := &genai.Schema{}

	if typeVal, ok := schema["type"].(string); ok {
		switch typeVal {
		case "string":
			result.Type = genai.TypeString
		case "number":
			result.Type = genai.TypeNumber
		case "integer":
			result.Type = genai.TypeInteger
		case "boolean":
			result.Type = genai.TypeBoolean
		case "array":
			result.Type = genai.TypeArray
		case "object":
			result.Type = genai.TypeObject
		}
	}

	if desc, ok := schema["description"].(string); ok {
		result.Description = desc
	}

	if enumVal, ok := schema["enum"].([]any); ok {
		for _, e := range enumVal {
			if s, ok := e.(string); ok {
				result.Enum = append(result.Enum, s)
			}
		}
	}

	if props, ok := schema["properties"].(map[string]any); ok {
		result.Properties = make(map[string]*genai.Schema)
		for name, propSchema := range props {
			if propMap, ok := propSchema.(map[string]any); ok {
				result.Properties[name] = convertSchemaObject(propMap)
			}
		}
	}

	if required, ok := schema["required"].([]any); ok {
		for _, r := range required {
			if s, ok := r.(string); ok {
				result.Required = append(result.Required, s)
			}
		}
	}

	if items, ok := schema["items"].(map[string]any); ok {
		result.Items = convertSchemaObject(items)
	}

	return result
}
