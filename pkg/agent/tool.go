// Package agent runs tool-calling loops on top of an llm.Client.
package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/inercia/go-llm-lessons/pkg/llm"
)

// Tool is a capability the model can invoke during a run.
type Tool interface {
	// Name is the function name presented to the model.
	Name() string

	// Description tells the model when to use the tool.
	Description() string

	// Parameters is the JSON schema of the tool's arguments.
	Parameters() map[string]any

	// Call executes the tool with the model-provided JSON arguments and
	// returns the observation text.
	Call(ctx context.Context, arguments string) (string, error)
}

// funcTool adapts a typed Go function into a Tool, deriving the parameter
// schema from the argument struct.
type funcTool[T any] struct {
	name        string
	description string
	parameters  map[string]any
	fn          func(ctx context.Context, args T) (string, error)
}

// NewFunc wraps a function taking a struct of arguments as a Tool. The
// parameter schema is reflected from T's fields and json tags.
func NewFunc[T any](name, description string, fn func(ctx context.Context, args T) (string, error)) (Tool, error) {
	var zero T
	parameters, err := llm.SchemaFromStructAsMap(zero)
	if err != nil {
		return nil, fmt.Errorf("deriving schema for tool %q: %w", name, err)
	}
	return &funcTool[T]{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}, nil
}

func (t *funcTool[T]) Name() string               { return t.name }
func (t *funcTool[T]) Description() string        { return t.description }
func (t *funcTool[T]) Parameters() map[string]any { return t.parameters }

func (t *funcTool[T]) Call(ctx context.Context, arguments string) (string, error) {
	var args T
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("parsing arguments for tool %q: %w", t.name, err)
	}
	return t.fn(ctx, args)
}

// Definitions converts tools to the wire format sent with a chat request.
func Definitions(tools []Tool) []llm.Tool {
	out := make([]llm.Tool, len(tools))
	for i, tool := range tools {
		out[i] = llm.NewFunctionTool(tool.Name(), tool.Description(), tool.Parameters())
	}
	return out
}
