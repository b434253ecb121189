package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptTemplate_Render(t *testing.T) {
	tests := []struct {
		name     string
		template string
		inputs   map[string]any
		expected string
		wantErr  bool
	}{
		{
			name:     "single placeholder",
			template: "Translate '{{.Text}}' to {{.Language}}",
			inputs:   map[string]any{"Text": "Hello, world!", "Language": "French"},
			expected: "Translate 'Hello, world!' to French",
		},
		{
			name:     "no placeholders",
			template: "Just a static prompt",
			inputs:   nil,
			expected: "Just a static prompt",
		},
		{
			name:     "missing input",
			template: "Hello {{.Name}}",
			inputs:   map[string]any{},
			wantErr:  true,
		},
		{
			name:     "malformed template",
			template: "Hello {{.Name",
			inputs:   map[string]any{"Name": "x"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewPromptTemplate(tt.template).Render(tt.inputs)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestPromptTemplate_RenderWithJSONSchemaFor(t *testing.T) {
	type shape struct {
		Name string `json:"name"`
	}

	result, err := NewPromptTemplate("Reply as JSON matching:\n{{.JSONSchema}}").
		RenderWithJSONSchemaFor(nil, shape{})
	require.NoError(t, err)
	assert.Contains(t, result, `"name"`)
	assert.Contains(t, result, "Reply as JSON matching:")
}

func TestChatPrompt_Render(t *testing.T) {
	prompt := NewChatPrompt(
		"You are a helpful translator.",
		"Translate '{{.Text}}' to {{.Language}}",
	)

	messages, err := prompt.Render(map[string]any{
		"Text":     "Hello, world!",
		"Language": "Spanish",
	})
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Equal(t, RoleSystem, messages[0].Role)
	assert.Equal(t, "You are a helpful translator.", messages[0].GetText())
	assert.Equal(t, RoleUser, messages[1].Role)
	assert.Equal(t, "Translate 'Hello, world!' to Spanish", messages[1].GetText())
}

func TestChatPrompt_RenderWithoutSystem(t *testing.T) {
	prompt := ChatPrompt{User: NewPromptTemplate("{{.Question}}")}

	messages, err := prompt.Render(map[string]any{"Question": "What is RAG?"})
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, RoleUser, messages[0].Role)
}
