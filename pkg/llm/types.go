// Core request and response types
package llm

// Finish reasons reported by providers, normalized to the OpenAI names.
const (
	FinishReasonStop      = "stop"
	FinishReasonLength    = "length"
	FinishReasonToolCalls = "tool_calls"
)

// ChatRequest is a provider-agnostic chat completion request.
type ChatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Tools          []Tool          `json:"tools,omitempty"`
	Temperature    *float32        `json:"temperature,omitempty"`
	MaxTokens      *int            `json:"max_tokens,omitempty"`
	Stream         bool            `json:"stream,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ChatResponse is a provider-agnostic chat completion response.
type ChatResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage,omitempty"`
}

// Choice is a single response alternative.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

// Usage reports token consumption for a request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// WantsToolExecution reports whether the model stopped to have tools run.
func (c Choice) WantsToolExecution() bool {
	return c.FinishReason == FinishReasonToolCalls || c.Message.HasToolCalls()
}

// RequiresToolExecution reports whether any choice is waiting on tool results.
func (r ChatResponse) RequiresToolExecution() bool {
	for _, choice := range r.Choices {
		if choice.WantsToolExecution() {
			return true
		}
	}
	return false
}

// GetToolCalls returns the tool calls from all choices, in order.
func (r ChatResponse) GetToolCalls() []ToolCall {
	var calls []ToolCall
	for _, choice := range r.Choices {
		calls = append(calls, choice.Message.ToolCalls...)
	}
	return calls
}

// GetText returns the text of the first choice, or "" for an empty response.
func (r ChatResponse) GetText() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.GetText()
}
