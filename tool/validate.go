package tool

import (
	"encoding/json"
	"fmt"

	"github.com/droverhq/drover"
)

// ValidateArguments checks a tool call's JSON arguments against the
// tool's declared JSON Schema before the handler runs. The check covers
// payload well-formedness, required fields, declared property types, and
// unknown keys when additionalProperties is false. It is intentionally
// shallow: nested schemas are only type-checked at the top level, which
// catches the malformed payloads models actually produce without
// reimplementing a full JSON Schema validator.
func ValidateArguments(t drover.Tool, arguments string) error {
	if len(t.Parameters) == 0 {
		return nil
	}

	var schema map[string]any
	if err := json.Unmarshal(t.Parameters, &schema); err != nil {
		return fmt.Errorf("malformed tool schema: %w", err)
	}

	args := map[string]any{}
	if arguments != "" {
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return fmt.Errorf("arguments are not a JSON object: %w", err)
		}
	}

	for _, field := range requiredFields(schema) {
		if _, ok := args[field]; !ok {
			return fmt.Errorf("missing required argument %q", field)
		}
	}

	properties, hasProperties := schema["properties"].(map[string]any)
	additional := true
	if v, ok := schema["additionalProperties"].(bool); ok {
		additional = v
	}

	for key, value := range args {
		prop, known := properties[key]
		if !known {
			if hasProperties && !additional {
				return fmt.Errorf("unknown argument %q", key)
			}
			continue
		}
		propMap, ok := prop.(map[string]any)
		if !ok {
			continue
		}
		wantType, ok := propMap["type"].(string)
		if !ok {
			continue
		}
		if !typeMatches(wantType, value) {
			return fmt.Errorf("argument %q must be of type %s", key, wantType)
		}
		if enum, ok := propMap["enum"].([]any); ok && !enumAllows(enum, value) {
			return fmt.Errorf("argument %q is not one of the allowed values", key)
		}
	}

	return nil
}

func requiredFields(schema map[string]any) []string {
	raw, ok := schema["required"].([]any)
	if !ok {
		return nil
	}
	fields := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok {
			fields = append(fields, s)
		}
	}
	return fields
}

// typeMatches compares a decoded JSON value against a JSON Schema type
// name. Decoded numbers are always float64, so "integer" additionally
// checks the value has no fractional part.
func typeMatches(want string, value any) bool {
	switch want {
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "number":
		_, ok := value.(float64)
		return ok
	case "integer":
		f, ok := value.(float64)
		return ok && f == float64(int64(f))
	case "object":
		_, ok := value.(map[string]any)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	default:
		return true
	}
}

func enumAllows(enum []any, value any) bool {
	for _, allowed := range enum {
		if allowed == value {
			return true
		}
	}
	return false
}
