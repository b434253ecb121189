// Message types and helpers
package llm

import (
	"encoding/json"
	"fmt"
)

// MessageRole is the role of a message sender.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// Message is a single chat message with multi-part content.
type Message struct {
	Role       MessageRole      `json:"role"`
	Content    []MessageContent `json:"content"`
	ToolCalls  []ToolCall       `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

// NewTextMessage creates a message with a single text part.
func NewTextMessage(role MessageRole, text string) Message {
	return Message{
		Role:    role,
		Content: []MessageContent{NewTextContent(text)},
	}
}

// NewToolMessage creates a tool-result message answering a tool call.
func NewToolMessage(toolCallID, result string) Message {
	return Message{
		Role:       RoleTool,
		Content:    []MessageContent{NewTextContent(result)},
		ToolCallID: toolCallID,
	}
}

// GetText returns the text of the first text part, or "".
func (m Message) GetText() string {
	for _, content := range m.Content {
		if text, ok := content.(*TextContent); ok {
			return text.GetText()
		}
	}
	return ""
}

// HasToolCalls reports whether the message carries tool calls.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// AddContent appends a content part to the message.
func (m *Message) AddContent(content MessageContent) {
	m.Content = append(m.Content, content)
}

// Validate validates all content parts.
func (m Message) Validate() error {
	for i, content := range m.Content {
		if err := content.Validate(); err != nil {
			return fmt.Errorf("content part %d: %w", i, err)
		}
	}
	return nil
}

// MarshalJSON marshals the message with typed content parts.
func (m Message) MarshalJSON() ([]byte, error) {
	type part struct {
		Type MessageType `json:"type"`
		Text string      `json:"text,omitempty"`
	}
	parts := make([]part, 0, len(m.Content))
	for _, content := range m.Content {
		switch c := content.(type) {
		case *TextContent:
			parts = append(parts, part{Type: MessageTypeText, Text: c.Text})
		default:
			return nil, fmt.Errorf("unsupported content type: %s", content.Type())
		}
	}
	return json.Marshal(struct {
		Role       MessageRole `json:"role"`
		Content    []part      `json:"content"`
		ToolCalls  []ToolCall  `json:"tool_calls,omitempty"`
		ToolCallID string      `json:"tool_call_id,omitempty"`
	}{m.Role, parts, m.ToolCalls, m.ToolCallID})
}

// UnmarshalJSON restores typed content parts from their wire form.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role       MessageRole       `json:"role"`
		Content    []json.RawMessage `json:"content"`
		ToolCalls  []ToolCall        `json:"tool_calls,omitempty"`
		ToolCallID string            `json:"tool_call_id,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	m.Role = raw.Role
	m.ToolCalls = raw.ToolCalls
	m.ToolCallID = raw.ToolCallID
	m.Content = nil

	for i, partData := range raw.Content {
		var header struct {
			Type MessageType `json:"type"`
		}
		if err := json.Unmarshal(partData, &header); err != nil {
			return fmt.Errorf("content part %d: %w", i, err)
		}
		switch header.Type {
		case MessageTypeText:
			var text TextContent
			if err := json.Unmarshal(partData, &text); err != nil {
				return fmt.Errorf("content part %d: %w", i, err)
			}
			m.Content = append(m.Content, &text)
		default:
			return fmt.Errorf("unsupported content type: %s", header.Type)
		}
	}
	return nil
}
