// Package deepseek implements llm.Client for the DeepSeek API using the
// cohesion-org/deepseek-go SDK.
package deepseek

import (
	"context"
	"io"
	"strings"

	"github.com/cohesion-org/deepseek-go"

	"github.com/inercia/go-llm-lessons/pkg/llm"
)

// Client implements the llm.Client interface for DeepSeek.
type Client struct {
	client *deepseek.Client
	model  string
}

// NewClient creates a DeepSeek client.
func NewClient(config llm.ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, &llm.Error{
			Code:    "missing_api_key",
			Message: "DeepSeek API key is required",
			Type:    "authentication_error",
		}
	}

	var opts []deepseek.Option
	if config.BaseURL != "" {
		opts = append(opts, deepseek.WithBaseURL(config.BaseURL))
	}
	if config.Timeout > 0 {
		opts = append(opts, deepseek.WithTimeout(config.Timeout))
	}

	if len(opts) == 0 {
		return &Client{client: deepseek.NewClient(config.APIKey), model: config.Model}, nil
	}

	client, err := deepseek.NewClientWithOptions(config.APIKey, opts...)
	if err != nil {
		return nil, &llm.Error{
			Code:    "client_creation_error",
			Message: "failed to create DeepSeek client: " + err.Error(),
			Type:    "configuration_error",
		}
	}
	return &Client{client: client, model: config.Model}, nil
}

// ChatCompletion performs a chat completion request.
func (c *Client) ChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	dsReq := deepseek.ChatCompletionRequest{
		Model:    c.resolveModel(req.Model),
		Messages: convertMessages(req.Messages),
		Tools:    convertTools(req.Tools),
	}
	if req.Temperature != nil {
		dsReq.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		dsReq.MaxTokens = *req.MaxTokens
	}

	resp, err := c.client.CreateChatCompletion(ctx, &dsReq)
	if err != nil {
		return nil, convertError(err)
	}
	return convertResponse(resp), nil
}

// StreamChatCompletion performs a streaming chat completion request.
func (c *Client) StreamChatCompletion(ctx context.Context, req llm.ChatRequest) (<-chan llm.StreamEvent, error) {
	dsReq := deepseek.StreamChatCompletionRequest{
		Model:    c.resolveModel(req.Model),
		Messages: convertMessages(req.Messages),
		Tools:    convertTools(req.Tools),
		Stream:   true,
	}
	if req.Temperature != nil {
		dsReq.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		dsReq.MaxTokens = *req.MaxTokens
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, &dsReq)
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
			if chunk == nil || len(chunk.Choices) == 0 {
				continue
			}
			choice := chunk.Choices[0]
			if choice.FinishReason != "" {
				ch <- llm.NewDoneEvent(choice.Index, choice.FinishReason)
				return
			}
			if choice.Delta.Content != "" {
				ch <- llm.NewDeltaEvent(choice.Index, &llm.MessageDelta{
					Content: []llm.MessageContent{llm.NewTextContent(choice.Delta.Content)},
				})
			}
		}
	}()
	return ch, nil
}

// GetModelInfo returns the capabilities of the configured model.
func (c *Client) GetModelInfo() llm.ModelInfo {
	return llm.ModelInfo{
		Name:              c.model,
		Provider:          "deepseek",
		MaxTokens:         65536,
		SupportsTools:     true,
		SupportsStreaming: true,
	}
}

// Close releases the underlying client.
func (c *Client) Close() error {
	c.client = nil
	return nil
}

func (c *Client) resolveModel(model string) string {
	if model != "" {
		return model
	}
	return c.model
}

func convertMessages(messages []llm.Message) []deepseek.ChatCompletionMessage {
	out := make([]deepseek.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		out[i] = deepseek.ChatCompletionMessage{
			Role:       string(msg.Role),
			Content:    msg.GetText(),
			ToolCallID: msg.ToolCallID,
		}
		for j, tc := range msg.ToolCalls {
			out[i].ToolCalls = append(out[i].ToolCalls, deepseek.ToolCall{
				Index: j,
				ID:    tc.ID,
				Type:  tc.Type,
				Function: deepseek.ToolCallFunction{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
	}
	return out
}

func convertTools(tools []llm.Tool) []deepseek.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]deepseek.Tool, len(tools))
	for i, tool := range tools {
		out[i] = deepseek.Tool{
			Type: tool.Type,
			Function: deepseek.Function{
				Name:        tool.Function.Name,
				Description: tool.Function.Description,
				Parameters:  convertToolParameters(tool.Function.Parameters),
			},
		}
	}
	return out
}

// convertToolParameters maps a JSON schema map onto the SDK's typed
// parameter struct.
func convertToolParameters(params any) *deepseek.FunctionParameters {
	if params == nil {
		return nil
	}
	paramMap, ok := params.(map[string]any)
	if !ok {
		return &deepseek.FunctionParameters{Type: "object"}
	}

	result := &deepseek.FunctionParameters{Type: "object"}
	if typeStr, ok := paramMap["type"].(string); ok {
		result.Type = typeStr
	}
	if props, ok := paramMap["properties"].(map[string]any); ok {
		result.Properties = props
	}
	switch required := paramMap["required"].(type) {
	case []string:
		result.Required = required
	case []any:
		for _, r := range required {
			if s, ok := r.(string); ok {
				result.Required = append(result.Required, s)
			}
		}
	}
	return result
}

func convertResponse(resp *deepseek.ChatCompletionResponse) *llm.ChatResponse {
	choices := make([]llm.Choice, len(resp.Choices))
	for i, choice := range resp.Choices {
		msg := llm.Message{Role: llm.RoleAssistant}
		if choice.Message.Content != "" {
			msg.Content = []llm.MessageContent{llm.NewTextContent(choice.Message.Content)}
		}
		for _, tc := range choice.Message.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, llm.ToolCall{
				ID:   tc.ID,
				Type: tc.Type,
				Function: llm.ToolCallFunction{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
		choices[i] = llm.Choice{
			Index:        choice.Index,
			Message:      msg,
			FinishReason: choice.FinishReason,
		}
	}

	return &llm.ChatResponse{
		ID:      resp.ID,
		Model:   resp.Model,
		Choices: choices,
		Usage: llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
}

// convertError classifies SDK errors by message, since deepseek-go does not
// expose typed errors.
func convertError(err error) *llm.Error {
	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "unauthorized") || strings.Contains(lower, "authentication") || strings.Contains(lower, "api key"):
		return &llm.Error{Code: "authentication_error", Message: msg, Type: "authentication_error", StatusCode: 401}
	case strings.Contains(lower, "rate limit") || strings.Contains(lower, "too many requests"):
		return &llm.Error{Code: "rate_limit_error", Message: msg, Type: "rate_limit_error", StatusCode: 429}
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline"):
		return &llm.Error{Code: "timeout_error", Message: msg, Type: "network_error", StatusCode: 408}
	default:
		return &llm.Error{Code: "api_error", Message: msg, Type: "api_error"}
	}
}
