package drover

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// SchemaFor generates a JSON Schema object for the struct type T.
// Field names come from json tags; additional struct tags refine the
// schema:
//
//	desc:"..."       sets the property description
//	required:"true"  marks the property as required
//	enum:"a,b,c"     restricts a string property to the listed values
//
// Example:
//
//	type SearchArgs struct {
//	    Query string `json:"query" desc:"Search query" required:"true"`
//	    Sort  string `json:"sort" desc:"Sort order" enum:"asc,desc"`
//	}
func SchemaFor[T any]() (json.RawMessage, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		return nil, fmt.Errorf("schema: cannot derive schema for interface type")
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema: %s is not a struct", t)
	}

	node, err := structSchema(t)
	if err != nil {
		return nil, err
	}
	return json.Marshal(node)
}

// MustSchemaFor is like SchemaFor but panics on error. Useful in
// registration code where a bad schema is a programming error.
func MustSchemaFor[T any]() json.RawMessage {
	schema, err := SchemaFor[T]()
	if err != nil {
		panic(err)
	}
	return schema
}

type schemaNode struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Enum        []string               `json:"enum,omitempty"`
	Items       *schemaNode            `json:"items,omitempty"`
	Properties  map[string]*schemaNode `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
}

func structSchema(t reflect.Type) (*schemaNode, error) {
	node := &schemaNode{
		Type:       "object",
		Properties: map[string]*schemaNode{},
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}
		name := strings.Split(jsonTag, ",")[0]
		if name == "" {
			name = field.Name
		}

		prop, err := fieldSchema(field.Type)
		if err != nil {
			return nil, fmt.Errorf("schema: field %s: %w", name, err)
		}

		if desc := field.Tag.Get("desc"); desc != "" {
			prop.Description = desc
		}
		if enum := field.Tag.Get("enum"); enum != "" {
			if prop.Type != "string" {
				return nil, fmt.Errorf("schema: field %s: enum requires a string field", name)
			}
			prop.Enum = strings.Split(enum, ",")
		}
		if field.Tag.Get("required") == "true" {
			node.Required = append(node.Required, name)
		}

		node.Properties[name] = prop
	}

	return node, nil
}

func fieldSchema(t reflect.Type) (*schemaNode, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.String:
		return &schemaNode{Type: "string"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &schemaNode{Type: "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return &schemaNode{Type: "number"}, nil
	case reflect.Bool:
		return &schemaNode{Type: "boolean"}, nil
	case reflect.Slice, reflect.Array:
		items, err := fieldSchema(t.Elem())
		if err != nil {
			return nil, err
		}
		return &schemaNode{Type: "array", Items: items}, nil
	case reflect.Struct:
		return structSchema(t)
	case reflect.Map:
		return &schemaNode{Type: "object"}, nil
	default:
		return nil, fmt.Errorf("unsupported kind %s", t.Kind())
	}
}
