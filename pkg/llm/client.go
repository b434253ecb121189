// Client interface implemented by every provider backend
package llm

import "context"

// Client is the core interface all chat backends implement.
type Client interface {
	// ChatCompletion performs a single chat completion request.
	ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// StreamChatCompletion performs a streaming chat completion request.
	// The returned channel is closed after the final event.
	StreamChatCompletion(ctx context.Context, req ChatRequest) (<-chan StreamEvent, error)

	// GetModelInfo returns information about the configured model.
	GetModelInfo() ModelInfo

	// Close releases any resources held by the client.
	Close() error
}

// ModelInfo describes the capabilities of the configured model.
type ModelInfo struct {
	Name              string `json:"name"`
	Provider          string `json:"provider"`
	MaxTokens         int    `json:"max_tokens"`
	SupportsTools     bool   `json:"supports_tools"`
	SupportsStreaming bool   `json:"supports_streaming"`
}
