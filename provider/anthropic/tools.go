package anthropic

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/droverhq/drover"
)

func convertTools(tools []drover.Tool) []anthropic.ToolUnionParam {
	if len(tools) == 0 {
		return nil
	}
	result := make([]anthropic.ToolUnionParam, len(tools))
	for i, t := range tools {
		var schema map[string]interface{}
		if len(t.Parameters) > 0 {
			json.Unmarshal(t.Parameters, &schema)
		}

		var required []string
		if reqVal, ok := schema["required"].([]interface{}); ok {
			for _, r := range reqVal {
				if s, ok := r.(string); ok {
					required = append(required, s)
				}
			}
		}

		toolParam := anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: schema["properties"],
				Required:   required,
			},
		}

		result[i] = anthropic.ToolUnionParam{
			OfTool: &toolParam,
		}
	}
	return result
}

func convertToolChoice(choice drover.ToolChoice) anthropic.ToolChoiceUnionParam {
	switch choice {
	case drover.ToolChoiceNone:
		return anthropic.ToolChoiceUnionParam{
			OfNone: &anthropic.ToolChoiceNoneParam{},
		}
	case drover.ToolChoiceRequired:
		return anthropic.ToolChoiceUnionParam{
			OfAny: &anthropic.ToolChoiceAnyParam{},
		}
	default:
		return anthropic.ToolChoiceUnionParam{
			OfAuto: &anthropic.ToolChoiceAutoParam{},
		}
	}
}
