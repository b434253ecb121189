// Package gemini implements llm.Client for Google's Gemini API.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/inercia/go-llm-lessons/pkg/llm"
)

// Client implements the llm.Client interface for Gemini.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient creates a Gemini client. The API key comes from the client
// configuration (AI_API_KEY or GEMINI_API_KEY in the environment).
func NewClient(config llm.ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, &llm.Error{
			Code:    "missing_api_key",
			Message: "Gemini API key is required",
			Type:    "authentication_error",
		}
	}

	genaiConfig := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.Timeout > 0 {
		genaiConfig.HTTPOptions.Timeout = &config.Timeout
	}

	client, err := genai.NewClient(context.Background(), genaiConfig)
	if err != nil {
		return nil, convertError(err)
	}
	return &Client{client: client, model: config.Model}, nil
}

// ChatCompletion performs a chat completion request.
func (c *Client) ChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	genConfig, history, parts, err := c.convertRequest(req)
	if err != nil {
		return nil, err
	}

	chat, err := c.client.Chats.Create(ctx, model, genConfig, history)
	if err != nil {
		return nil, convertError(err)
	}

	resp, err := chat.SendMessage(ctx, parts...)
	if err != nil {
		return nil, convertError(err)
	}
	return c.convertResponse(resp, model), nil
}

// StreamChatCompletion performs a streaming chat completion request.
func (c *Client) StreamChatCompletion(ctx context.Context, req llm.ChatRequest) (<-chan llm.StreamEvent, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	genConfig, history, parts, err := c.convertRequest(req)
	if err != nil {
		return nil, err
	}

	chat, err := c.client.Chats.Create(ctx, model, genConfig, history)
	if err != nil {
		return nil, convertError(err)
	}

	ch := make(chan llm.StreamEvent, 10)
	go func() {
		defer close(ch)
		for resp, err := range chat.SendMessageStream(ctx, parts...) {
			if err != nil {
				ch <- llm.NewErrorEvent(convertError(err))
				return
			}
			if text := responseText(resp); text != "" {
				ch <- llm.NewDeltaEvent(0, &llm.MessageDelta{
					Content: []llm.MessageContent{llm.NewTextContent(text)},
				})
			}
		}
		ch <- llm.NewDoneEvent(0, llm.FinishReasonStop)
	}()
	return ch, nil
}

// GetModelInfo returns the capabilities of the configured model.
func (c *Client) GetModelInfo() llm.ModelInfo {
	maxTokens := 1048576
	if strings.Contains(c.model, "pro") {
		maxTokens = 2097152
	}
	return llm.ModelInfo{
		Name:              c.model,
		Provider:          "gemini",
		MaxTokens:         maxTokens,
		SupportsTools:     true,
		SupportsStreaming: true,
	}
}

// Close is a no-op; the underlying client holds no persistent connections.
func (c *Client) Close() error { return nil }

// convertRequest splits the conversation into a generation config, history
// and the final user turn. System messages become the system instruction.
func (c *Client) convertRequest(req llm.ChatRequest) (*genai.GenerateContentConfig, []*genai.Content, []genai.Part, error) {
	genConfig := &genai.GenerateContentConfig{}
	if req.Temperature != nil {
		genConfig.Temperature = req.Temperature
	}
	if req.MaxTokens != nil {
		genConfig.MaxOutputTokens = int32(*req.MaxTokens)
	}
	if req.ResponseFormat != nil && req.ResponseFormat.Type != llm.ResponseFormatText {
		genConfig.ResponseMIMEType = "application/json"
	}

	var contents []*genai.Content
	for _, msg := range req.Messages {
		switch msg.Role {
		case llm.RoleSystem:
			genConfig.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{genai.NewPartFromText(msg.GetText())},
			}
		case llm.RoleUser, llm.RoleTool:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{genai.NewPartFromText(msg.GetText())},
			})
		case llm.RoleAssistant:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{genai.NewPartFromText(msg.GetText())},
			})
		}
	}
	if len(contents) == 0 {
		return nil, nil, nil, &llm.Error{
			Code:    "invalid_request",
			Message: "at least one user message is required",
			Type:    "invalid_request_error",
		}
	}

	last := contents[len(contents)-1]
	history := contents[:len(contents)-1]

	parts := make([]genai.Part, 0, len(last.Parts))
	for _, p := range last.Parts {
		parts = append(parts, *p)
	}
	return genConfig, history, parts, nil
}

func (c *Client) convertResponse(resp *genai.GenerateContentResponse, model string) *llm.ChatResponse {
	msg := llm.Message{Role: llm.RoleAssistant}
	finishReason := llm.FinishReasonStop

	if len(resp.Candidates) > 0 {
		candidate := resp.Candidates[0]
		if candidate.Content != nil {
			var sb strings.Builder
			for _, part := range candidate.Content.Parts {
				sb.WriteString(part.Text)
			}
			if sb.Len() > 0 {
				msg.Content = []llm.MessageContent{llm.NewTextContent(sb.String())}
			}
		}
		if candidate.FinishReason == genai.FinishReasonMaxTokens {
			finishReason = llm.FinishReasonLength
		}
	}

	out := &llm.ChatResponse{
		ID:      fmt.Sprintf("gemini-%d", time.Now().UnixNano()),
		Model:   model,
		Choices: []llm.Choice{{Message: msg, FinishReason: finishReason}},
	}
	if resp.UsageMetadata != nil {
		out.Usage = llm.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return out
}

func responseText(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String()
}

// convertError maps genai errors onto llm.Error by inspecting the message,
// since the SDK does not expose typed error values.
func convertError(err error) *llm.Error {
	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "api key") || strings.Contains(lower, "401"):
		return &llm.Error{Code: "authentication_error", Message: msg, Type: "authentication_error", StatusCode: 401}
	case strings.Contains(lower, "rate limit") || strings.Contains(lower, "429"):
		return &llm.Error{Code: "rate_limit_error", Message: msg, Type: "rate_limit_error", StatusCode: 429}
	case strings.Contains(lower, "quota") || strings.Contains(lower, "403"):
		return &llm.Error{Code: "quota_exceeded", Message: msg, Type: "permission_error", StatusCode: 403}
	default:
		return &llm.Error{Code: "api_error", Message: msg, Type: "api_error"}
	}
}
