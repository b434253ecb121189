// Package ollama implements llm.Client for a local Ollama server.
//
// Ollama has no official Go SDK surface worth depending on for two
// endpoints, so this client speaks the JSON HTTP API directly.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/inercia/go-llm-lessons/pkg/llm"
)

const DefaultBaseURL = "http://localhost:11434"

// modelCapabilities maps model name patterns to capabilities, first match
// wins.
var modelCapabilities = []struct {
	pattern       *regexp.Regexp
	maxTokens     int
	supportsTools bool
}{
	{regexp.MustCompile(`llama3\.1|llama3\.2`), 131072, true},
	{regexp.MustCompile(`qwen`), 32768, true},
	{regexp.MustCompile(`mistral|mixtral`), 32768, true},
	{regexp.MustCompile(`gpt-oss`), 131072, true},
	{regexp.MustCompile(`.*`), 8192, false},
}

// Client implements the llm.Client interface for Ollama.
type Client struct {
	httpClient *http.Client
	baseURL    string
	model      string
}

// NewClient creates an Ollama client.
func NewClient(config llm.ClientConfig) (*Client, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		model:      config.Model,
	}, nil
}

// Ollama wire types.

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
	Tools    []llm.Tool    `json:"tools,omitempty"`
	Options  *chatOptions  `json:"options,omitempty"`
}

type chatMessage struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	ToolCalls []wireToolCall `json:"tool_calls,omitempty"`
}

type wireToolCall struct {
	Function wireToolFunction `json:"function"`
}

type wireToolFunction struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type chatOptions struct {
	Temperature *float32 `json:"temperature,omitempty"`
	NumPredict  *int     `json:"num_predict,omitempty"`
}

type chatResponse struct {
	Model      string      `json:"model"`
	Message    chatMessage `json:"message"`
	Done       bool        `json:"done"`
	DoneReason string      `json:"done_reason,omitempty"`
	Error      string      `json:"error,omitempty"`

	PromptEvalCount int `json:"prompt_eval_count,omitempty"`
	EvalCount       int `json:"eval_count,omitempty"`
}

// ChatCompletion performs a chat completion request.
func (c *Client) ChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	body, err := c.post(ctx, "/api/chat", c.convertRequest(req, false))
	if err != nil {
		return nil, err
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &llm.Error{
			Code:    "parse_error",
			Message: fmt.Sprintf("failed to parse Ollama response: %v", err),
			Type:    "client_error",
		}
	}
	if resp.Error != "" {
		return nil, &llm.Error{Code: "api_error", Message: resp.Error, Type: "api_error"}
	}

	return c.convertResponse(resp), nil
}

// StreamChatCompletion performs a streaming chat completion request. Ollama
// streams newline-delimited JSON chunks.
func (c *Client) StreamChatCompletion(ctx context.Context, req llm.ChatRequest) (<-chan llm.StreamEvent, error) {
	payload, err := json.Marshal(c.convertRequest(req, true))
	if err != nil {
		return nil, &llm.Error{Code: "request_error", Message: err.Error(), Type: "client_error"}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, &llm.Error{Code: "request_error", Message: err.Error(), Type: "client_error"}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &llm.Error{Code: "network_error", Message: err.Error(), Type: "network_error"}
	}
	if resp.StatusCode != http.StatusOK {
		defer func() { _ = resp.Body.Close() }()
		body, _ := io.ReadAll(resp.Body)
		return nil, convertHTTPError(body, resp.StatusCode)
	}

	ch := make(chan llm.StreamEvent, 10)
	go func() {
		defer close(ch)
		defer func() { _ = resp.Body.Close() }()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			var chunk chatResponse
			if err := json.Unmarshal(scanner.Bytes(), &chunk); err != nil {
				continue
			}
			if chunk.Error != "" {
				ch <- llm.NewErrorEvent(&llm.Error{Code: "api_error", Message: chunk.Error, Type: "api_error"})
				return
			}
			if chunk.Message.Content != "" {
				ch <- llm.NewDeltaEvent(0, &llm.MessageDelta{
					Content: []llm.MessageContent{llm.NewTextContent(chunk.Message.Content)},
				})
			}
			if chunk.Done {
				ch <- llm.NewDoneEvent(0, normalizeDoneReason(chunk.DoneReason))
				return
			}
		}
		if err := scanner.Err(); err != nil {
			ch <- llm.NewErrorEvent(&llm.Error{Code: "stream_error", Message: err.Error(), Type: "network_error"})
		}
	}()

	return ch, nil
}

// GetModelInfo returns the capabilities of the configured model.
func (c *Client) GetModelInfo() llm.ModelInfo {
	info := llm.ModelInfo{
		Name:              c.model,
		Provider:          "ollama",
		SupportsStreaming: true,
	}
	for _, mc := range modelCapabilities {
		if mc.pattern.MatchString(c.model) {
			info.MaxTokens = mc.maxTokens
			info.SupportsTools = mc.supportsTools
			break
		}
	}
	return info
}

// Close is a no-op.
func (c *Client) Close() error { return nil }

func (c *Client) convertRequest(req llm.ChatRequest, stream bool) chatRequest {
	model := req.Model
	if model == "" {
		model = c.model
	}

	out := chatRequest{
		Model:  model,
		Stream: stream,
		Tools:  req.Tools,
	}
	if req.ResponseFormat != nil && req.ResponseFormat.Type != llm.ResponseFormatText {
		out.Format = "json"
	}
	if req.Temperature != nil || req.MaxTokens != nil {
		out.Options = &chatOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		}
	}

	for _, msg := range req.Messages {
		wire := chatMessage{
			Role:    string(msg.Role),
			Content: msg.GetText(),
		}
		for _, tc := range msg.ToolCalls {
			wire.ToolCalls = append(wire.ToolCalls, wireToolCall{
				Function: wireToolFunction{
					Name:      tc.Function.Name,
					Arguments: json.RawMessage(tc.Function.Arguments),
				},
			})
		}
		out.Messages = append(out.Messages, wire)
	}
	return out
}

func (c *Client) convertResponse(resp chatResponse) *llm.ChatResponse {
	msg := llm.Message{Role: llm.RoleAssistant}
	if resp.Message.Content != "" {
		msg.Content = []llm.MessageContent{llm.NewTextContent(resp.Message.Content)}
	}

	finishReason := normalizeDoneReason(resp.DoneReason)
	for i, tc := range resp.Message.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, llm.ToolCall{
			ID:   fmt.Sprintf("ollama-call-%d", i),
			Type: "function",
			Function: llm.ToolCallFunction{
				Name:      tc.Function.Name,
				Arguments: string(tc.Function.Arguments),
			},
		})
	}
	if len(msg.ToolCalls) > 0 {
		finishReason = llm.FinishReasonToolCalls
	}

	return &llm.ChatResponse{
		ID:    fmt.Sprintf("ollama-%d", time.Now().UnixNano()),
		Model: resp.Model,
		Choices: []llm.Choice{{
			Message:      msg,
			FinishReason: finishReason,
		}},
		Usage: llm.Usage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
			TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		},
	}
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &llm.Error{Code: "request_error", Message: err.Error(), Type: "client_error"}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, &llm.Error{Code: "request_error", Message: err.Error(), Type: "client_error"}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &llm.Error{Code: "network_error", Message: err.Error(), Type: "network_error"}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &llm.Error{Code: "response_error", Message: err.Error(), Type: "client_error"}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, convertHTTPError(respBody, resp.StatusCode)
	}
	return respBody, nil
}

func convertHTTPError(body []byte, statusCode int) *llm.Error {
	var apiErr struct {
		Error string `json:"error"`
	}
	message := string(body)
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
		message = apiErr.Error
	}
	return &llm.Error{
		Code:       "api_error",
		Message:    message,
		Type:       "api_error",
		StatusCode: statusCode,
	}
}

func normalizeDoneReason(reason string) string {
	switch reason {
	case "length":
		return llm.FinishReasonLength
	default:
		return llm.FinishReasonStop
	}
}
