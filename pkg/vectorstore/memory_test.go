package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// axisEmbedder maps known strings to fixed vectors so rankings are
// deterministic.
type axisEmbedder struct {
	vectors map[string][]float32
}

func (e *axisEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.vectors[text]
	}
	return out, nil
}

func (e *axisEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return e.vectors[text], nil
}

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	embedder := &axisEmbedder{vectors: map[string][]float32{
		"cats are mammals":   {1, 0, 0},
		"dogs are mammals":   {0.9, 0.1, 0},
		"go is a language":   {0, 1, 0},
		"rust is a language": {0, 0.9, 0.1},
		"tell me about pets": {1, 0.05, 0},
	}}

	store := NewMemoryStore(embedder)
	ids, err := store.AddDocuments(context.Background(), []Document{
		{PageContent: "cats are mammals", Metadata: map[string]any{"topic": "animals"}},
		{PageContent: "dogs are mammals", Metadata: map[string]any{"topic": "animals"}},
		{PageContent: "go is a language", Metadata: map[string]any{"topic": "programming"}},
		{PageContent: "rust is a language", Metadata: map[string]any{"topic": "programming"}},
	})
	require.NoError(t, err)
	require.Len(t, ids, 4)
	return store
}

func TestMemoryStoreSimilaritySearch(t *testing.T) {
	store := newTestStore(t)

	results, err := store.SimilaritySearch(context.Background(), "tell me about pets", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "cats are mammals", results[0].PageContent)
	assert.Equal(t, "dogs are mammals", results[1].PageContent)
	assert.Greater(t, results[0].Score, results[1].Score)
	assert.Equal(t, "animals", results[0].Metadata["topic"])
}

func TestMemoryStoreSearchReturnsAllWhenKExceedsSize(t *testing.T) {
	store := newTestStore(t)

	results, err := store.SimilaritySearch(context.Background(), "tell me about pets", 10)
	require.NoError(t, err)
	assert.Len(t, results, 4)
}

func TestMemoryStoreAssignsIDs(t *testing.T) {
	store := NewMemoryStore(&axisEmbedder{vectors: map[string][]float32{
		"a": {1, 0}, "b": {0, 1},
	}})

	ids, err := store.AddDocuments(context.Background(), []Document{
		{ID: "doc-1", PageContent: "a"},
		{PageContent: "b"},
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Equal(t, "doc-1", ids[0])
	assert.NotEmpty(t, ids[1])
	assert.Equal(t, 2, store.Len())
}

func TestMemoryStoreEmptyAdd(t *testing.T) {
	store := NewMemoryStore(&axisEmbedder{})
	ids, err := store.AddDocuments(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
