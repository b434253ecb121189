// Package openai implements llm.Client for the OpenAI API and for any
// OpenAI-compatible endpoint reachable through a custom base URL.
package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/inercia/go-llm-lessons/pkg/llm"
)

// contextWindows maps model name patterns to context lengths. First match
// wins; the catch-all keeps custom endpoints working.
var contextWindows = []struct {
	pattern *regexp.Regexp
	tokens  int
}{
	{regexp.MustCompile(`^gpt-4o`), 128000},
	{regexp.MustCompile(`^gpt-4-turbo`), 128000},
	{regexp.MustCompile(`^gpt-4`), 8192},
	{regexp.MustCompile(`^gpt-3\.5-turbo-16k`), 16384},
	{regexp.MustCompile(`^gpt-3\.5-turbo`), 4096},
	{regexp.MustCompile(`.*`), 8192},
}

// Client implements the llm.Client interface on top of go-openai.
type Client struct {
	client  *openai.Client
	model   string
	baseURL string
}

// NewClient creates an OpenAI client. BaseURL may point at any
// OpenAI-compatible server (vLLM, LM Studio, llama.cpp, ...).
func NewClient(config llm.ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, &llm.Error{
			Code:    "missing_api_key",
			Message: "API key is required for OpenAI",
			Type:    "authentication_error",
		}
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	if config.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: config.Timeout}
	}

	return &Client{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   config.Model,
		baseURL: config.BaseURL,
	}, nil
}

// ChatCompletion performs a chat completion request.
func (c *Client) ChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.convertRequest(req))
	if err != nil {
		return nil, convertError(err)
	}
	return convertResponse(resp), nil
}

// StreamChatCompletion performs a streaming chat completion request.
func (c *Client) StreamChatCompletion(ctx context.Context, req llm.ChatRequest) (<-chan llm.StreamEvent, error) {
	openaiReq := c.convertRequest(req)
	openaiReq.Stream = true

	stream, err := c.client.CreateChatCompletionStream(ctx, openaiReq)
	if err != nil {
		return nil, convertError(err)
	}

	ch := make(chan llm.StreamEvent, 10)
	go func() {
		defer close(ch)
		defer func() { _ = stream.Close() }()

		for {
			chunk, err := stream.Recv()
			if err == io.EOF {
				ch <- llm.NewDoneEvent(0, llm.FinishReasonStop)
				return
			}
			if err != nil {
				ch <- llm.NewErrorEvent(convertError(err))
				return
			}
			if len(chunk.Choices) == 0 {
				continue
			}

			choice := chunk.Choices[0]
			delta := &llm.MessageDelta{}
			if choice.Delta.Content != "" {
				delta.Content = []llm.MessageContent{llm.NewTextContent(choice.Delta.Content)}
			}
			for i, tc := range choice.Delta.ToolCalls {
				toolDelta := llm.ToolCallDelta{Index: i, ID: tc.ID, Type: string(tc.Type)}
				if tc.Function.Name != "" || tc.Function.Arguments != "" {
					toolDelta.Function = &llm.ToolCallFunctionDelta{
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					}
				}
				delta.ToolCalls = append(delta.ToolCalls, toolDelta)
			}
			ch <- llm.NewDeltaEvent(0, delta)
		}
	}()

	return ch, nil
}

// GetModelInfo returns the capabilities of the configured model.
func (c *Client) GetModelInfo() llm.ModelInfo {
	maxTokens := 8192
	for _, cw := range contextWindows {
		if cw.pattern.MatchString(c.model) {
			maxTokens = cw.tokens
			break
		}
	}
	return llm.ModelInfo{
		Name:              c.model,
		Provider:          "openai",
		MaxTokens:         maxTokens,
		SupportsTools:     true,
		SupportsStreaming: true,
	}
}

// Close is a no-op; go-openai holds no resources.
func (c *Client) Close() error { return nil }

func (c *Client) convertRequest(req llm.ChatRequest) openai.ChatCompletionRequest {
	model := req.Model
	if model == "" {
		model = c.model
	}

	openaiReq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: convertMessages(req.Messages),
		Stream:   req.Stream,
	}
	if req.Temperature != nil {
		openaiReq.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		openaiReq.MaxTokens = *req.MaxTokens
	}

	for _, tool := range req.Tools {
		openaiReq.Tools = append(openaiReq.Tools, openai.Tool{
			Type: openai.ToolType(tool.Type),
			Function: &openai.FunctionDefinition{
				Name:        tool.Function.Name,
				Description: tool.Function.Description,
				Parameters:  tool.Function.Parameters,
			},
		})
	}

	if req.ResponseFormat != nil {
		openaiReq.ResponseFormat = convertResponseFormat(req.ResponseFormat)
	}

	return openaiReq
}

// rawSchema adapts an arbitrary schema value to the json.Marshaler the SDK
// expects for json_schema response formats.
type rawSchema struct {
	schema interface{}
}

func (r rawSchema) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.schema)
}

func convertResponseFormat(format *llm.ResponseFormat) *openai.ChatCompletionResponseFormat {
	switch format.Type {
	case llm.ResponseFormatJSON:
		return &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	case llm.ResponseFormatJSONSchema:
		if format.JSONSchema == nil {
			return nil
		}
		jsonSchema := &openai.ChatCompletionResponseFormatJSONSchema{
			Name:        format.JSONSchema.Name,
			Description: format.JSONSchema.Description,
			Schema:      rawSchema{schema: format.JSONSchema.Schema},
		}
		if format.JSONSchema.Strict != nil {
			jsonSchema.Strict = *format.JSONSchema.Strict
		}
		return &openai.ChatCompletionResponseFormat{
			Type:       openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: jsonSchema,
		}
	}
	return nil
}

func convertMessages(messages []llm.Message) []openai.ChatCompletionMessage {
	converted := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		openaiMsg := openai.ChatCompletionMessage{
			Role:       string(msg.Role),
			ToolCallID: msg.ToolCallID,
		}

		for _, tc := range msg.ToolCalls {
			openaiMsg.ToolCalls = append(openaiMsg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolType(tc.Type),
				Function: openai.FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}

		// The API rejects messages whose content serializes to undefined,
		// so tool-call-only messages get a single space.
		text := msg.GetText()
		if strings.TrimSpace(text) == "" && len(msg.ToolCalls) == 0 && msg.Role != llm.RoleAssistant {
			text = " "
		}
		openaiMsg.Content = text

		converted = append(converted, openaiMsg)
	}
	return converted
}

func convertResponse(resp openai.ChatCompletionResponse) *llm.ChatResponse {
	out := &llm.ChatResponse{
		ID:    resp.ID,
		Model: resp.Model,
		Usage: llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}

	for _, choice := range resp.Choices {
		msg := llm.Message{
			Role:       llm.MessageRole(choice.Message.Role),
			ToolCallID: choice.Message.ToolCallID,
		}
		if choice.Message.Content != "" {
			msg.Content = []llm.MessageContent{llm.NewTextContent(choice.Message.Content)}
		}
		for _, tc := range choice.Message.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, llm.ToolCall{
				ID:   tc.ID,
				Type: string(tc.Type),
				Function: llm.ToolCallFunction{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
		out.Choices = append(out.Choices, llm.Choice{
			Index:        choice.Index,
			Message:      msg,
			FinishReason: string(choice.FinishReason),
		})
	}

	return out
}

func convertError(err error) *llm.Error {
	if apiErr, ok := err.(*openai.APIError); ok {
		code := "api_error"
		if s, ok := apiErr.Code.(string); ok && s != "" {
			code = s
		}
		return &llm.Error{
			Code:       code,
			Message:    apiErr.Message,
			Type:       apiErr.Type,
			StatusCode: apiErr.HTTPStatusCode,
		}
	}
	return &llm.Error{
		Code:    "unknown_error",
		Message: err.Error(),
		Type:    "api_error",
	}
}
