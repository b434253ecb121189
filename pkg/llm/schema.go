// Structured-output response formats and JSON Schema derivation
package llm

import (
	"encoding/json"
	"fmt"

	"github.com/swaggest/jsonschema-go"
)

// ResponseFormatType selects how the model should shape its reply.
type ResponseFormatType string

const (
	// ResponseFormatText is plain text (the default).
	ResponseFormatText ResponseFormatType = "text"
	// ResponseFormatJSON is a JSON object without a declared schema.
	ResponseFormatJSON ResponseFormatType = "json_object"
	// ResponseFormatJSONSchema is JSON constrained by a schema.
	ResponseFormatJSONSchema ResponseFormatType = "json_schema"
)

// ResponseFormat asks the model for structured output.
type ResponseFormat struct {
	Type       ResponseFormatType `json:"type"`
	JSONSchema *JSONSchema        `json:"json_schema,omitempty"`
}

// JSONSchema carries a named JSON Schema for structured outputs.
type JSONSchema struct {
	Name        string      `json:"name,omitempty"`
	Description string      `json:"description,omitempty"`
	Schema      interface{} `json:"schema"`
	Strict      *bool       `json:"strict,omitempty"` // strict validation, OpenAI-specific
}

// SchemaFromStruct derives a JSON Schema from a Go struct. Field shapes come
// from json tags plus the jsonschema-go tag vocabulary (description, minimum,
// enum, ...).
func SchemaFromStruct(structType interface{}) (interface{}, error) {
	reflector := jsonschema.Reflector{}
	schema, err := reflector.Reflect(structType)
	if err != nil {
		return nil, fmt.Errorf("failed to reflect struct to JSON schema: %w", err)
	}
	return schema, nil
}

// SchemaFromStructAsMap derives a JSON Schema as a generic map, the form most
// provider SDKs accept for tool parameters and response formats.
func SchemaFromStructAsMap(structType interface{}) (map[string]interface{}, error) {
	schema, err := SchemaFromStruct(structType)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var asMap map[string]interface{}
	if err := json.Unmarshal(raw, &asMap); err != nil {
		return nil, fmt.Errorf("failed to convert schema to map: %w", err)
	}
	return asMap, nil
}

// NewJSONResponseFormat asks for a JSON object without a schema.
func NewJSONResponseFormat() *ResponseFormat {
	return &ResponseFormat{Type: ResponseFormatJSON}
}

// NewJSONSchemaResponseFormat asks for JSON matching the given schema.
func NewJSONSchemaResponseFormat(name, description string, schema interface{}) *ResponseFormat {
	return &ResponseFormat{
		Type: ResponseFormatJSONSchema,
		JSONSchema: &JSONSchema{
			Name:        name,
			Description: description,
			Schema:      schema,
		},
	}
}

// NewJSONSchemaResponseFormatFromStruct derives the schema from a Go struct.
func NewJSONSchemaResponseFormatFromStruct(name, description string, structType interface{}) (*ResponseFormat, error) {
	schema, err := SchemaFromStructAsMap(structType)
	if err != nil {
		return nil, fmt.Errorf("failed to generate schema from struct: %w", err)
	}
	return NewJSONSchemaResponseFormat(name, description, schema), nil
}

// NewStrictJSONSchemaResponseFormatFromStruct derives the schema from a Go
// struct and enables strict validation for providers that support it.
func NewStrictJSONSchemaResponseFormatFromStruct(name, description string, structType interface{}) (*ResponseFormat, error) {
	format, err := NewJSONSchemaResponseFormatFromStruct(name, description, structType)
	if err != nil {
		return nil, err
	}
	strict := true
	format.JSONSchema.Strict = &strict
	return format, nil
}
