package rag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inercia/go-llm-lessons/pkg/llm"
	"github.com/inercia/go-llm-lessons/pkg/providers/mock"
	"github.com/inercia/go-llm-lessons/pkg/vectorstore"
)

// fixedStore returns a canned ranking regardless of the query.
type fixedStore struct {
	docs []vectorstore.ScoredDocument
	k    int
}

func (s *fixedStore) AddDocuments(_ context.Context, docs []vectorstore.Document) ([]string, error) {
	return nil, nil
}

func (s *fixedStore) SimilaritySearch(_ context.Context, _ string, k int) ([]vectorstore.ScoredDocument, error) {
	s.k = k
	if k < len(s.docs) {
		return s.docs[:k], nil
	}
	return s.docs, nil
}

func TestChainAsk(t *testing.T) {
	store := &fixedStore{docs: []vectorstore.ScoredDocument{
		{Document: vectorstore.Document{PageContent: "RAG combines retrieval with generation."}, Score: 0.92},
		{Document: vectorstore.Document{PageContent: "Vector stores index embeddings."}, Score: 0.81},
	}}

	client := mock.NewClient("test-model")
	client.QueueTextResponse("RAG retrieves documents and feeds them to the model.")

	chain := New(client, store, WithTopK(2))
	answer, err := chain.Ask(context.Background(), "What is RAG?")
	require.NoError(t, err)

	assert.Equal(t, "RAG retrieves documents and feeds them to the model.", answer.Output)
	require.Len(t, answer.Context, 2)
	assert.Equal(t, 2, store.k)

	// The rendered prompt must contain both the retrieved context and the
	// question.
	calls := client.Calls()
	require.Len(t, calls, 1)
	messages := calls[0].Messages
	require.Len(t, messages, 2)
	assert.Equal(t, llm.RoleSystem, messages[0].Role)

	userText := messages[1].GetText()
	assert.Contains(t, userText, "RAG combines retrieval with generation.")
	assert.Contains(t, userText, "Vector stores index embeddings.")
	assert.Contains(t, userText, "What is RAG?")
}

func TestChainCustomPrompt(t *testing.T) {
	store := &fixedStore{docs: []vectorstore.ScoredDocument{
		{Document: vectorstore.Document{PageContent: "gophers dig burrows"}, Score: 0.9},
	}}

	client := mock.NewClient("test-model")
	client.QueueTextResponse("ok")

	prompt := llm.NewChatPrompt(
		"Answer in one word.",
		"{{.Context}} | {{.Question}}",
	)
	chain := New(client, store, WithPrompt(prompt), WithTopK(1))
	_, err := chain.Ask(context.Background(), "where do gophers live?")
	require.NoError(t, err)

	calls := client.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "gophers dig burrows | where do gophers live?", calls[0].Messages[1].GetText())
}

func TestChainPropagatesModelError(t *testing.T) {
	store := &fixedStore{}
	client := mock.NewClient("test-model")
	client.QueueError(&llm.Error{Code: "rate_limit_error", Message: "slow down", Type: "rate_limit_error"})

	chain := New(client, store)
	_, err := chain.Ask(context.Background(), "anything")
	require.Error(t, err)

	var llmErr *llm.Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, "rate_limit_error", llmErr.Code)
}
