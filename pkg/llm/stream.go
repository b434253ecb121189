// Streaming event types
package llm

// Stream event kinds.
const (
	StreamEventDelta = "delta"
	StreamEventDone  = "done"
	StreamEventError = "error"
)

// StreamEvent is a single event in a streaming chat completion.
type StreamEvent struct {
	Type   string        `json:"type"`
	Choice *StreamChoice `json:"choice,omitempty"`
	Error  *Error        `json:"error,omitempty"`
}

// StreamChoice is the choice portion of a streaming event.
type StreamChoice struct {
	Index        int           `json:"index"`
	Delta        *MessageDelta `json:"delta,omitempty"`
	FinishReason string        `json:"finish_reason,omitempty"`
}

// MessageDelta is an incremental message update.
type MessageDelta struct {
	Content   []MessageContent `json:"content,omitempty"`
	ToolCalls []ToolCallDelta  `json:"tool_calls,omitempty"`
}

// ToolCallDelta is an incremental tool call update.
type ToolCallDelta struct {
	Index    int                    `json:"index"`
	ID       string                 `json:"id,omitempty"`
	Type     string                 `json:"type,omitempty"`
	Function *ToolCallFunctionDelta `json:"function,omitempty"`
}

// ToolCallFunctionDelta carries partial function call details.
type ToolCallFunctionDelta struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// IsDelta reports whether this event carries incremental content.
func (e StreamEvent) IsDelta() bool {
	return e.Type == StreamEventDelta && e.Choice != nil && e.Choice.Delta != nil
}

// IsDone reports whether this event terminates the stream.
func (e StreamEvent) IsDone() bool {
	return e.Type == StreamEventDone && e.Choice != nil
}

// IsError reports whether this event carries an error.
func (e StreamEvent) IsError() bool {
	return e.Type == StreamEventError && e.Error != nil
}

// DeltaText returns the text carried by a delta event, or "".
func (e StreamEvent) DeltaText() string {
	if !e.IsDelta() {
		return ""
	}
	for _, content := range e.Choice.Delta.Content {
		if text, ok := content.(*TextContent); ok {
			return text.GetText()
		}
	}
	return ""
}

// NewDeltaEvent creates a delta event.
func NewDeltaEvent(index int, delta *MessageDelta) StreamEvent {
	return StreamEvent{
		Type:   StreamEventDelta,
		Choice: &StreamChoice{Index: index, Delta: delta},
	}
}

// NewDoneEvent creates a terminating event.
func NewDoneEvent(index int, finishReason string) StreamEvent {
	return StreamEvent{
		Type:   StreamEventDone,
		Choice: &StreamChoice{Index: index, FinishReason: finishReason},
	}
}

// NewErrorEvent creates an error event.
func NewErrorEvent(err *Error) StreamEvent {
	return StreamEvent{Type: StreamEventError, Error: err}
}
