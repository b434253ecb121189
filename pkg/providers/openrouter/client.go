// Package openrouter implements llm.Client for the OpenRouter gateway using
// the revrost/go-openrouter SDK.
package openrouter

import (
	"context"
	"errors"

	"github.com/revrost/go-openrouter"

	"github.com/inercia/go-llm-lessons/pkg/llm"
)

// Client implements the llm.Client interface for OpenRouter.
type Client struct {
	client *openrouter.Client
	model  string
}

// NewClient creates an OpenRouter client. The Extra config keys "site_url"
// and "app_name" map to the HTTP-Referer and X-Title attribution headers.
func NewClient(config llm.ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, &llm.Error{
			Code:    "missing_api_key",
			Message: "OpenRouter API key is required",
			Type:    "authentication_error",
		}
	}

	clientConfig := openrouter.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	if siteURL, ok := config.Extra["site_url"]; ok {
		clientConfig.HttpReferer = siteURL
	}
	if appName, ok := config.Extra["app_name"]; ok {
		clientConfig.XTitle = appName
	}

	return &Client{
		client: openrouter.NewClientWithConfig(*clientConfig),
		model:  config.Model,
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
	orReq := c.convertRequest(req)
	orReq.Stream = true

	stream, err := c.client.CreateChatCompletionStream(ctx, orReq)
	if err != nil {
		return nil, convertError(err)
	}

	ch := make(chan llm.StreamEvent, 10)
	go func() {
		defer close(ch)
		defer stream.Close()

		for {
			chunk, err := stream.Recv()
			if err != nil {
				// The SDK surfaces stream termination as a plain EOF error.
				if err.Error() == "EOF" {
					ch <- llm.NewDoneEvent(0, llm.FinishReasonStop)
					return
				}
				ch <- llm.NewErrorEvent(convertError(err))
				return
			}
			if event := convertStreamChunk(chunk); event != nil {
				ch <- *event
			}
		}
	}()
	return ch, nil
}

// GetModelInfo returns the capabilities of the configured model. OpenRouter
// fronts many models, so the limits are conservative defaults.
func (c *Client) GetModelInfo() llm.ModelInfo {
	return llm.ModelInfo{
		Name:              c.model,
		Provider:          "openrouter",
		MaxTokens:         128000,
		SupportsTools:     true,
		SupportsStreaming: true,
	}
}

// Close is a no-op.
func (c *Client) Close() error { return nil }

func (c *Client) convertRequest(req llm.ChatRequest) openrouter.ChatCompletionRequest {
	model := req.Model
	if model == "" {
		model = c.model
	}

	orReq := openrouter.ChatCompletionRequest{
		Model:    model,
		Messages: make([]openrouter.ChatCompletionMessage, 0, len(req.Messages)),
	}
	if req.Temperature != nil {
		orReq.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		orReq.MaxTokens = *req.MaxTokens
	}

	for _, msg := range req.Messages {
		orMsg := openrouter.ChatCompletionMessage{
			Role:       string(msg.Role),
			Content:    openrouter.Content{Text: msg.GetText()},
			ToolCallID: msg.ToolCallID,
		}
		for _, tc := range msg.ToolCalls {
			orMsg.ToolCalls = append(orMsg.ToolCalls, openrouter.ToolCall{
				ID:   tc.ID,
				Type: openrouter.ToolType(tc.Type),
				Function: openrouter.FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
		orReq.Messages = append(orReq.Messages, orMsg)
	}

	for _, tool := range req.Tools {
		orReq.Tools = append(orReq.Tools, openrouter.Tool{
			Type: openrouter.ToolType(tool.Type),
			Function: &openrouter.FunctionDefinition{
				Name:        tool.Function.Name,
				Description: tool.Function.Description,
				Parameters:  tool.Function.Parameters,
			},
		})
	}
	return orReq
}

func convertResponse(resp openrouter.ChatCompletionResponse) *llm.ChatResponse {
	out := &llm.ChatResponse{
		ID:      resp.ID,
		Model:   resp.Model,
		Choices: make([]llm.Choice, 0, len(resp.Choices)),
	}
	if resp.Usage != nil {
		out.Usage = llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}

	for _, choice := range resp.Choices {
		msg := llm.Message{Role: llm.MessageRole(choice.Message.Role)}
		if choice.Message.Content.Text != "" {
			msg.Content = []llm.MessageContent{llm.NewTextContent(choice.Message.Content.Text)}
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

func convertStreamChunk(resp openrouter.ChatCompletionStreamResponse) *llm.StreamEvent {
	if len(resp.Choices) == 0 {
		return nil
	}
	choice := resp.Choices[0]

	if choice.FinishReason != "" {
		event := llm.NewDoneEvent(choice.Index, string(choice.FinishReason))
		return &event
	}

	delta := &llm.MessageDelta{}
	hasContent := false
	if choice.Delta.Content != "" {
		delta.Content = []llm.MessageContent{llm.NewTextContent(choice.Delta.Content)}
		hasContent = true
	}
	for _, tc := range choice.Delta.ToolCalls {
		index := 0
		if tc.Index != nil {
			index = *tc.Index
		}
		delta.ToolCalls = append(delta.ToolCalls, llm.ToolCallDelta{
			Index: index,
			ID:    tc.ID,
			Type:  string(tc.Type),
			Function: &llm.ToolCallFunctionDelta{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
		hasContent = true
	}
	if !hasContent {
		return nil
	}

	event := llm.NewDeltaEvent(choice.Index, delta)
	return &event
}

func convertError(err error) *llm.Error {
	var apiErr *openrouter.APIError
	if errors.As(err, &apiErr) {
		return &llm.Error{
			Code:       codeForStatus(apiErr.HTTPStatusCode),
			Message:    apiErr.Message,
			Type:       typeForStatus(apiErr.HTTPStatusCode),
			StatusCode: apiErr.HTTPStatusCode,
		}
	}
	var reqErr *openrouter.RequestError
	if errors.As(err, &reqErr) {
		return &llm.Error{
			Code:       codeForStatus(reqErr.HTTPStatusCode),
			Message:    reqErr.Error(),
			Type:       typeForStatus(reqErr.HTTPStatusCode),
			StatusCode: reqErr.HTTPStatusCode,
		}
	}
	return &llm.Error{Code: "openrouter_error", Message: err.Error(), Type: "api_error"}
}

func codeForStatus(status int) string {
	switch status {
	case 400:
		return "bad_request"
	case 401:
		return "invalid_api_key"
	case 403:
		return "insufficient_permissions"
	case 404:
		return "model_not_found"
	case 429:
		return "rate_limit_exceeded"
	default:
		if status >= 500 {
			return "server_error"
		}
		return "api_error"
	}
}

func typeForStatus(status int) string {
	switch {
	case status == 401 || status == 403:
		return "authentication_error"
	case status == 429:
		return "rate_limit_error"
	case status >= 400 && status < 500:
		return "validation_error"
	case status >= 500:
		return "api_error"
	default:
		return "api_error"
	}
}
