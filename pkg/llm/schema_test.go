package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type product struct {
	Name     string  `json:"name" description:"The product name"`
	Price    float64 `json:"price" minimum:"0" description:"The price in dollars"`
	Category string  `json:"category" description:"The product category"`
	InStock  bool    `json:"in_stock" description:"Whether the product is in stock"`
}

func TestSchemaFromStructAsMap(t *testing.T) {
	schema, err := SchemaFromStructAsMap(product{})
	require.NoError(t, err)

	props, ok := schema["properties"].(map[string]interface{})
	require.True(t, ok, "schema should have properties")

	for _, field := range []string{"name", "price", "category", "in_stock"} {
		assert.Contains(t, props, field)
	}

	price, ok := props["price"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "The price in dollars", price["description"])
}

func TestNewJSONSchemaResponseFormatFromStruct(t *testing.T) {
	format, err := NewJSONSchemaResponseFormatFromStruct(
		"product", "Information about a product", product{})
	require.NoError(t, err)

	assert.Equal(t, ResponseFormatJSONSchema, format.Type)
	require.NotNil(t, format.JSONSchema)
	assert.Equal(t, "product", format.JSONSchema.Name)
	assert.Nil(t, format.JSONSchema.Strict)
	assert.NotNil(t, format.JSONSchema.Schema)
}

func TestNewStrictJSONSchemaResponseFormatFromStruct(t *testing.T) {
	format, err := NewStrictJSONSchemaResponseFormatFromStruct(
		"product", "Information about a product", product{})
	require.NoError(t, err)

	require.NotNil(t, format.JSONSchema.Strict)
	assert.True(t, *format.JSONSchema.Strict)
}

func TestNewJSONResponseFormat(t *testing.T) {
	format := NewJSONResponseFormat()
	assert.Equal(t, ResponseFormatJSON, format.Type)
	assert.Nil(t, format.JSONSchema)
}
