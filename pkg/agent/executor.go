package agent

import (
	"context"
	"fmt"
	"log"

	"github.com/inercia/go-llm-lessons/pkg/llm"
)

// DefaultMaxIterations bounds the tool loop when no limit is configured.
const DefaultMaxIterations = 8

// Step records one tool invocation made during a run.
type Step struct {
	ToolName    string `json:"tool_name"`
	Arguments   string `json:"arguments"`
	Observation string `json:"observation"`
}

// Result is the outcome of a run: the final model answer plus the
// intermediate tool steps that produced it.
type Result struct {
	Output string `json:"output"`
	Steps  []Step `json:"steps"`
}

// Executor drives the chat-with-tools loop: it sends the conversation, runs
// any requested tools, appends the observations and repeats until the model
// answers in plain text.
type Executor struct {
	client        llm.Client
	tools         []Tool
	toolsByName   map[string]Tool
	systemPrompt  string
	maxIterations int
	verbose       bool
}

// Option configures an Executor.
type Option func(*Executor)

// WithSystemPrompt sets the system message prepended to every run.
func WithSystemPrompt(prompt string) Option {
	return func(e *Executor) { e.systemPrompt = prompt }
}

// WithMaxIterations bounds the number of model round trips per run.
func WithMaxIterations(n int) Option {
	return func(e *Executor) { e.maxIterations = n }
}

// WithVerbose logs each tool invocation and observation.
func WithVerbose(verbose bool) Option {
	return func(e *Executor) { e.verbose = verbose }
}

// New creates an Executor over the given client and tools.
func New(client llm.Client, tools []Tool, opts ...Option) *Executor {
	e := &Executor{
		client:        client,
		tools:         tools,
		toolsByName:   make(map[string]Tool, len(tools)),
		maxIterations: DefaultMaxIterations,
	}
	for _, tool := range tools {
		e.toolsByName[tool.Name()] = tool
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run answers the input, invoking tools as the model requests them.
func (e *Executor) Run(ctx context.Context, input string) (*Result, error) {
	var messages []llm.Message
	if e.systemPrompt != "" {
		messages = append(messages, llm.NewTextMessage(llm.RoleSystem, e.systemPrompt))
	}
	messages = append(messages, llm.NewTextMessage(llm.RoleUser, input))

	definitions := Definitions(e.tools)
	result := &Result{}

	for iteration := 0; iteration < e.maxIterations; iteration++ {
		resp, err := e.client.ChatCompletion(ctx, llm.ChatRequest{
			Messages: messages,
			Tools:    definitions,
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, &llm.Error{
				Code:    "empty_response",
				Message: "model returned no choices",
				Type:    "api_error",
			}
		}

		choice := resp.Choices[0]
		if !choice.WantsToolExecution() {
			result.Output = choice.Message.GetText()
			return result, nil
		}

		messages = append(messages, choice.Message)
		for _, call := range choice.Message.ToolCalls {
			observation := e.executeCall(ctx, call)
			result.Steps = append(result.Steps, Step{
				ToolName:    call.Function.Name,
				Arguments:   call.Function.Arguments,
				Observation: observation,
			})
			messages = append(messages, llm.NewToolMessage(call.ID, observation))
		}
	}

	return nil, &llm.Error{
		Code:    "max_iterations_exceeded",
		Message: fmt.Sprintf("no final answer after %d iterations", e.maxIterations),
		Type:    "agent_error",
	}
}

// executeCall runs one tool call. Failures are reported back to the model as
// observations so it can recover or rephrase.
func (e *Executor) executeCall(ctx context.Context, call llm.ToolCall) string {
	if e.verbose {
		log.Printf("🔧 calling tool %s(%s)", call.Function.Name, call.Function.Arguments)
	}

	tool, exists := e.toolsByName[call.Function.Name]
	if !exists {
		return fmt.Sprintf("error: unknown tool %q", call.Function.Name)
	}

	observation, err := tool.Call(ctx, call.Function.Arguments)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	if e.verbose {
		log.Printf("👀 observation: %s", observation)
	}
	return observation
}
