// Package bedrock implements llm.Client for Anthropic models hosted on AWS
// Bedrock, using the Messages API payload over InvokeModel.
package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/inercia/go-llm-lessons/pkg/llm"
)

const (
	defaultRegion    = "us-east-1"
	defaultMaxTokens = 1024
	anthropicVersion = "bedrock-2023-05-31"
)

// Client implements the llm.Client interface for AWS Bedrock.
type Client struct {
	runtime *bedrockruntime.Client
	model   string
}

// NewClient creates a Bedrock client. Credentials come from the default AWS
// chain; the region can be set via the Extra config key "region".
func NewClient(config llm.ClientConfig) (*Client, error) {
	region := config.Extra["region"]
	if region == "" {
		region = defaultRegion
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, &llm.Error{
			Code:    "aws_config_error",
			Message: "failed to load AWS configuration: " + err.Error(),
			Type:    "configuration_error",
		}
	}

	runtime := bedrockruntime.NewFromConfig(awsConfig, func(o *bedrockruntime.Options) {
		if config.BaseURL != "" {
			o.BaseEndpoint = aws.String(config.BaseURL)
		}
	})

	return &Client{runtime: runtime, model: config.Model}, nil
}

// Anthropic Messages API payload types.

type messagesRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	System           string           `json:"system,omitempty"`
	Messages         []wireMessage    `json:"messages"`
	Temperature      *float32         `json:"temperature,omitempty"`
	Tools            []wireToolSchema `json:"tools,omitempty"`
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireToolSchema struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	InputSchema any    `json:"input_schema"`
}

type messagesResponse struct {
	Content []struct {
		Type  string          `json:"type"`
		Text  string          `json:"text,omitempty"`
		ID    string          `json:"id,omitempty"`
		Name  string          `json:"name,omitempty"`
		Input json.RawMessage `json:"input,omitempty"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// ChatCompletion performs a chat completion request via InvokeModel.
func (c *Client) ChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	payload, err := c.convertRequest(req)
	if err != nil {
		return nil, err
	}

	response, err := c.runtime.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.resolveModel(req.Model)),
		ContentType: aws.String("application/json"),
		Body:        payload,
	})
	if err != nil {
		return nil, convertError(err)
	}
	return c.convertResponse(response.Body)
}

// StreamChatCompletion performs a streaming request via
// InvokeModelWithResponseStream.
func (c *Client) StreamChatCompletion(ctx context.Context, req llm.ChatRequest) (<-chan llm.StreamEvent, error) {
	payload, err := c.convertRequest(req)
	if err != nil {
		return nil, err
	}

	response, err := c.runtime.InvokeModelWithResponseStream(ctx, &bedrockruntime.InvokeModelWithResponseStreamInput{
		ModelId:     aws.String(c.resolveModel(req.Model)),
		ContentType: aws.String("application/json"),
		Body:        payload,
	})
	if err != nil {
		return nil, convertError(err)
	}

	ch := make(chan llm.StreamEvent, 10)
	go func() {
		defer close(ch)

		for event := range response.GetStream().Events() {
			chunk, ok := event.(*types.ResponseStreamMemberChunk)
			if !ok {
				continue
			}
			var delta struct {
				Type  string `json:"type"`
				Delta struct {
					Text string `json:"text"`
				} `json:"delta"`
			}
			if err := json.Unmarshal(chunk.Value.Bytes, &delta); err != nil {
				continue
			}
			if delta.Delta.Text != "" {
				ch <- llm.NewDeltaEvent(0, &llm.MessageDelta{
					Content: []llm.MessageContent{llm.NewTextContent(delta.Delta.Text)},
				})
			}
		}
		ch <- llm.NewDoneEvent(0, llm.FinishReasonStop)
	}()
	return ch, nil
}

// GetModelInfo returns the capabilities of the configured model.
func (c *Client) GetModelInfo() llm.ModelInfo {
	return llm.ModelInfo{
		Name:              c.model,
		Provider:          "bedrock",
		MaxTokens:         200000,
		SupportsTools:     true,
		SupportsStreaming: true,
	}
}

// Close is a no-op; the AWS SDK manages its own connections.
func (c *Client) Close() error { return nil }

func (c *Client) resolveModel(model string) string {
	if model != "" {
		return model
	}
	return c.model
}

func (c *Client) convertRequest(req llm.ChatRequest) ([]byte, error) {
	out := messagesRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        defaultMaxTokens,
		Temperature:      req.Temperature,
	}
	if req.MaxTokens != nil {
		out.MaxTokens = *req.MaxTokens
	}

	var system []string
	for _, msg := range req.Messages {
		switch msg.Role {
		case llm.RoleSystem:
			system = append(system, msg.GetText())
		case llm.RoleUser, llm.RoleTool:
			out.Messages = append(out.Messages, wireMessage{Role: "user", Content: msg.GetText()})
		case llm.RoleAssistant:
			out.Messages = append(out.Messages, wireMessage{Role: "assistant", Content: msg.GetText()})
		}
	}
	out.System = strings.TrimSpace(strings.Join(system, "\n"))

	for _, tool := range req.Tools {
		out.Tools = append(out.Tools, wireToolSchema{
			Name:        tool.Function.Name,
			Description: tool.Function.Description,
			InputSchema: tool.Function.Parameters,
		})
	}

	payload, err := json.Marshal(out)
	if err != nil {
		return nil, &llm.Error{Code: "request_error", Message: err.Error(), Type: "client_error"}
	}
	return payload, nil
}

func (c *Client) convertResponse(body []byte) (*llm.ChatResponse, error) {
	var resp messagesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &llm.Error{
			Code:    "parse_error",
			Message: "failed to parse Bedrock response: " + err.Error(),
			Type:    "client_error",
		}
	}

	msg := llm.Message{Role: llm.RoleAssistant}
	var text strings.Builder
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			msg.ToolCalls = append(msg.ToolCalls, llm.ToolCall{
				ID:   block.ID,
				Type: "function",
				Function: llm.ToolCallFunction{
					Name:      block.Name,
					Arguments: string(block.Input),
				},
			})
		}
	}
	if text.Len() > 0 {
		msg.Content = []llm.MessageContent{llm.NewTextContent(text.String())}
	}

	finishReason := llm.FinishReasonStop
	switch resp.StopReason {
	case "max_tokens":
		finishReason = llm.FinishReasonLength
	case "tool_use":
		finishReason = llm.FinishReasonToolCalls
	}

	return &llm.ChatResponse{
		ID:      fmt.Sprintf("bedrock-%d", time.Now().UnixNano()),
		Model:   c.model,
		Choices: []llm.Choice{{Message: msg, FinishReason: finishReason}},
		Usage: llm.Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}, nil
}

func convertError(err error) *llm.Error {
	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "accessdenied") || strings.Contains(lower, "unauthorized"):
		return &llm.Error{Code: "authentication_error", Message: msg, Type: "authentication_error", StatusCode: 403}
	case strings.Contains(lower, "throttling") || strings.Contains(lower, "too many requests"):
		return &llm.Error{Code: "rate_limit_error", Message: msg, Type: "rate_limit_error", StatusCode: 429}
	case strings.Contains(lower, "not found") || strings.Contains(lower, "resourcenotfound"):
		return &llm.Error{Code: "model_not_found", Message: msg, Type: "model_error", StatusCode: 404}
	default:
		return &llm.Error{Code: "api_error", Message: msg, Type: "api_error"}
	}
}
