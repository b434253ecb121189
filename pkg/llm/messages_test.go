package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTextMessage(t *testing.T) {
	msg := NewTextMessage(RoleUser, "hello")

	assert.Equal(t, RoleUser, msg.Role)
	require.Len(t, msg.Content, 1)
	assert.Equal(t, "hello", msg.GetText())
	assert.False(t, msg.HasToolCalls())
}

func TestNewToolMessage(t *testing.T) {
	msg := NewToolMessage("call_1", "42")

	assert.Equal(t, RoleTool, msg.Role)
	assert.Equal(t, "call_1", msg.ToolCallID)
	assert.Equal(t, "42", msg.GetText())
}

func TestMessage_GetText(t *testing.T) {
	tests := []struct {
		name     string
		message  Message
		expected string
	}{
		{
			name:     "text message",
			message:  NewTextMessage(RoleAssistant, "an answer"),
			expected: "an answer",
		},
		{
			name:     "empty content",
			message:  Message{Role: RoleAssistant},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.message.GetText())
		})
	}
}

func TestMessage_JSONRoundTrip(t *testing.T) {
	original := Message{
		Role:    RoleAssistant,
		Content: []MessageContent{NewTextContent("calling a tool")},
		ToolCalls: []ToolCall{
			{
				ID:   "call_abc",
				Type: "function",
				Function: ToolCallFunction{
					Name:      "get_word_length",
					Arguments: `{"word":"gopher"}`,
				},
			},
		},
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Message
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, original.Role, decoded.Role)
	assert.Equal(t, "calling a tool", decoded.GetText())
	require.Len(t, decoded.ToolCalls, 1)
	assert.Equal(t, "get_word_length", decoded.ToolCalls[0].Function.Name)
}

func TestMessage_UnmarshalUnknownContentType(t *testing.T) {
	data := []byte(`{"role":"user","content":[{"type":"hologram"}]}`)

	var msg Message
	err := json.Unmarshal(data, &msg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported content type")
}

func TestMessage_Validate(t *testing.T) {
	valid := NewTextMessage(RoleUser, "fine")
	assert.NoError(t, valid.Validate())

	invalid := Message{
		Role:    RoleUser,
		Content: []MessageContent{NewTextContent("   ")},
	}
	assert.Error(t, invalid.Validate())
}

func TestChatResponse_ToolHelpers(t *testing.T) {
	resp := ChatResponse{
		Choices: []Choice{
			{
				Message: Message{
					Role: RoleAssistant,
					ToolCalls: []ToolCall{
						{ID: "call_1", Type: "function", Function: ToolCallFunction{Name: "add"}},
					},
				},
				FinishReason: FinishReasonToolCalls,
			},
		},
	}

	assert.True(t, resp.RequiresToolExecution())
	require.Len(t, resp.GetToolCalls(), 1)
	assert.Equal(t, "add", resp.GetToolCalls()[0].Function.Name)

	done := ChatResponse{
		Choices: []Choice{
			{Message: NewTextMessage(RoleAssistant, "110"), FinishReason: FinishReasonStop},
		},
	}
	assert.False(t, done.RequiresToolExecution())
	assert.Equal(t, "110", done.GetText())
}
