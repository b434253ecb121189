// Prompt templates rendered with Go's text/template syntax
package llm

import (
	"bytes"
	"encoding/json"
	"text/template"

	"github.com/swaggest/jsonschema-go"
)

// PromptTemplate is a reusable prompt with {{.Name}} placeholders.
type PromptTemplate struct {
	Template string
}

// NewPromptTemplate creates a template from the given string.
func NewPromptTemplate(text string) PromptTemplate {
	return PromptTemplate{Template: text}
}

// Render fills the template with the provided inputs.
func (pt PromptTemplate) Render(inputs map[string]any) (string, error) {
	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(pt.Template)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, inputs); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderWithJSONSchemaFor renders the template with the inputs plus a
// "JSONSchema" key holding the schema of s, for prompts that spell out the
// expected output shape.
func (pt PromptTemplate) RenderWithJSONSchemaFor(inputs map[string]any, s any) (string, error) {
	reflector := jsonschema.Reflector{}
	schema, err := reflector.Reflect(s)
	if err != nil {
		return "", err
	}
	raw, err := json.MarshalIndent(schema, "", " ")
	if err != nil {
		return "", err
	}
	if inputs == nil {
		inputs = map[string]any{}
	}
	inputs["JSONSchema"] = string(raw)
	return pt.Render(inputs)
}

// ChatPrompt pairs a system template with a user template and renders them
// into the message list a chat request expects.
type ChatPrompt struct {
	System PromptTemplate
	User   PromptTemplate
}

// NewChatPrompt creates a chat prompt from system and user template strings.
func NewChatPrompt(system, user string) ChatPrompt {
	return ChatPrompt{
		System: NewPromptTemplate(system),
		User:   NewPromptTemplate(user),
	}
}

// Render fills both templates with the same inputs.
func (cp ChatPrompt) Render(inputs map[string]any) ([]Message, error) {
	var messages []Message
	if cp.System.Template != "" {
		system, err := cp.System.Render(inputs)
		if err != nil {
			return nil, err
		}
		messages = append(messages, NewTextMessage(RoleSystem, system))
	}
	user, err := cp.User.Render(inputs)
	if err != nil {
		return nil, err
	}
	return append(messages, NewTextMessage(RoleUser, user)), nil
}
