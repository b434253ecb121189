package llm

import (
	"errors"
	"strings"
)

// MessageType identifies the kind of a message content part.
type MessageType string

const (
	MessageTypeText MessageType = "text"
)

// MessageContent is a single part of a message body. Messages carry a slice
// of parts so providers with multi-part payloads map onto it directly.
type MessageContent interface {
	Type() MessageType
	Validate() error
}

// TextContent is a plain-text message part.
type TextContent struct {
	Text string `json:"text"`
}

// NewTextContent creates a text message part.
func NewTextContent(text string) *TextContent {
	return &TextContent{Text: text}
}

// Type returns MessageTypeText.
func (t *TextContent) Type() MessageType {
	return MessageTypeText
}

// Validate rejects empty or whitespace-only text.
func (t *TextContent) Validate() error {
	if t == nil {
		return errors.New("text content cannot be nil")
	}
	if strings.TrimSpace(t.Text) == "" {
		return errors.New("text content cannot be empty")
	}
	return nil
}

// GetText returns the text of the part.
func (t *TextContent) GetText() string {
	if t == nil {
		return ""
	}
	return t.Text
}
