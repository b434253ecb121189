// Package rag implements retrieval-augmented generation: retrieve the
// documents most relevant to a question, stuff them into the prompt, and ask
// the model to answer from that context only.
package rag

import (
	"context"
	"strings"

	"github.com/inercia/go-llm-lessons/pkg/llm"
	"github.com/inercia/go-llm-lessons/pkg/vectorstore"
)

// DefaultTopK is the number of documents retrieved per question.
const DefaultTopK = 4

// DefaultPrompt instructs the model to answer only from the retrieved
// context.
var DefaultPrompt = llm.NewChatPrompt(
	"You are an assistant for question-answering tasks. Use the following pieces "+
		"of retrieved context to answer the question. If you don't know the answer "+
		"based on the context, say that you don't know. Keep the answer concise.",
	"Context:\n{{.Context}}\n\nQuestion: {{.Question}}",
)

// Answer is the chain output: the model's reply plus the documents it saw.
type Answer struct {
	Output  string                       `json:"output"`
	Context []vectorstore.ScoredDocument `json:"context"`
}

// Chain wires a vector store retriever to a chat model.
type Chain struct {
	client llm.Client
	store  vectorstore.Store
	prompt llm.ChatPrompt
	topK   int
}

// Option configures a Chain.
type Option func(*Chain)

// WithPrompt replaces the default question-answering prompt. The user
// template must reference .Context and .Question.
func WithPrompt(prompt llm.ChatPrompt) Option {
	return func(c *Chain) { c.prompt = prompt }
}

// WithTopK sets how many documents are retrieved per question.
func WithTopK(k int) Option {
	return func(c *Chain) { c.topK = k }
}

// New creates a Chain over the given model and store.
func New(client llm.Client, store vectorstore.Store, opts ...Option) *Chain {
	chain := &Chain{
		client: client,
		store:  store,
		prompt: DefaultPrompt,
		topK:   DefaultTopK,
	}
	for _, opt := range opts {
		opt(chain)
	}
	return chain
}

// Ask retrieves context for the question and asks the model to answer it.
func (c *Chain) Ask(ctx context.Context, question string) (*Answer, error) {
	docs, err := c.store.SimilaritySearch(ctx, question, c.topK)
	if err != nil {
		return nil, err
	}

	messages, err := c.prompt.Render(map[string]any{
		"Context":  formatContext(docs),
		"Question": question,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.client.ChatCompletion(ctx, llm.ChatRequest{Messages: messages})
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

	return &Answer{
		Output:  resp.Choices[0].Message.GetText(),
		Context: docs,
	}, nil
}

// formatContext joins document contents into one block, separated by blank
// lines.
func formatContext(docs []vectorstore.ScoredDocument) string {
	parts := make([]string, len(docs))
	for i, doc := range docs {
		parts[i] = doc.PageContent
	}
	return strings.Join(parts, "\n\n")
}
