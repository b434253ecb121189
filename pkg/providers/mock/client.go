// Package mock provides a scriptable in-memory client for tests.
package mock

import (
	"context"
	"fmt"

	"github.com/inercia/go-llm-lessons/pkg/llm"
)

// Client implements llm.Client without any network access. Responses are
// either queued ahead of time or produced by a handler function; every
// request is recorded for assertions.
type Client struct {
	model     string
	queue     []queued
	handler   func(req llm.ChatRequest) (*llm.ChatResponse, error)
	callLog   []llm.ChatRequest
	responseN int
}

type queued struct {
	resp *llm.ChatResponse
	err  error
}

// NewClient creates a mock client that echoes the last user message until
// scripted otherwise.
func NewClient(model string) *Client {
	if model == "" {
		model = "mock-model"
	}
	return &Client{model: model}
}

// QueueResponse appends a canned response to the script.
func (m *Client) QueueResponse(resp llm.ChatResponse) {
	m.queue = append(m.queue, queued{resp: &resp})
}

// QueueTextResponse appends a plain assistant text reply to the script.
func (m *Client) QueueTextResponse(text string) {
	m.QueueResponse(llm.ChatResponse{
		ID:    fmt.Sprintf("mock-%d", len(m.queue)),
		Model: m.model,
		Choices: []llm.Choice{{
			Message:      llm.NewTextMessage(llm.RoleAssistant, text),
			FinishReason: llm.FinishReasonStop,
		}},
		Usage: llm.Usage{PromptTokens: 1, CompletionTokens: 1, TotalTokens: 2},
	})
}

// QueueToolCallResponse appends a reply asking for the given tool calls.
func (m *Client) QueueToolCallResponse(calls ...llm.ToolCall) {
	m.QueueResponse(llm.ChatResponse{
		ID:    fmt.Sprintf("mock-%d", len(m.queue)),
		Model: m.model,
		Choices: []llm.Choice{{
			Message: llm.Message{
				Role:      llm.RoleAssistant,
				Content:   []llm.MessageContent{},
				ToolCalls: calls,
			},
			FinishReason: llm.FinishReasonToolCalls,
		}},
	})
}

// QueueError appends an error to the script.
func (m *Client) QueueError(err error) {
	m.queue = append(m.queue, queued{err: err})
}

// WithHandler replaces the scripted queue with a handler function.
func (m *Client) WithHandler(handler func(req llm.ChatRequest) (*llm.ChatResponse, error)) *Client {
	m.handler = handler
	return m
}

// Calls returns every request seen so far.
func (m *Client) Calls() []llm.ChatRequest {
	return m.callLog
}

// ChatCompletion returns the next scripted response.
func (m *Client) ChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.callLog = append(m.callLog, req)

	if m.handler != nil {
		return m.handler(req)
	}

	if m.responseN < len(m.queue) {
		next := m.queue[m.responseN]
		m.responseN++
		if next.err != nil {
			return nil, next.err
		}
		return next.resp, nil
	}

	return m.echoResponse(req), nil
}

// StreamChatCompletion streams the scripted response as a single delta.
func (m *Client) StreamChatCompletion(ctx context.Context, req llm.ChatRequest) (<-chan llm.StreamEvent, error) {
	resp, err := m.ChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}

	ch := make(chan llm.StreamEvent, 2)
	if text := resp.GetText(); text != "" {
		ch <- llm.NewDeltaEvent(0, &llm.MessageDelta{
			Content: []llm.MessageContent{llm.NewTextContent(text)},
		})
	}
	ch <- llm.NewDoneEvent(0, llm.FinishReasonStop)
	close(ch)
	return ch, nil
}

// GetModelInfo describes the mock model.
func (m *Client) GetModelInfo() llm.ModelInfo {
	return llm.ModelInfo{
		Name:              m.model,
		Provider:          "mock",
		MaxTokens:         4096,
		SupportsTools:     true,
		SupportsStreaming: true,
	}
}

// Close is a no-op.
func (m *Client) Close() error { return nil }

func (m *Client) echoResponse(req llm.ChatRequest) *llm.ChatResponse {
	var lastUser string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == llm.RoleUser {
			lastUser = req.Messages[i].GetText()
			break
		}
	}
	return &llm.ChatResponse{
		ID:    "mock-echo",
		Model: m.model,
		Choices: []llm.Choice{{
			Message:      llm.NewTextMessage(llm.RoleAssistant, "echo: "+lastUser),
			FinishReason: llm.FinishReasonStop,
		}},
	}
}
