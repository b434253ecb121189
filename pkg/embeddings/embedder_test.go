package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inercia/go-llm-lessons/pkg/llm"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float64
	}{
		{
			name:     "identical vectors",
			a:        []float32{1, 2, 3},
			b:        []float32{1, 2, 3},
			expected: 1.0,
		},
		{
			name:     "orthogonal vectors",
			a:        []float32{1, 0},
			b:        []float32{0, 1},
			expected: 0.0,
		},
		{
			name:     "opposite vectors",
			a:        []float32{1, 0},
			b:        []float32{-1, 0},
			expected: -1.0,
		},
		{
			name:     "scaled vectors keep similarity",
			a:        []float32{1, 2},
			b:        []float32{2, 4},
			expected: 1.0,
		},
		{
			name:     "mismatched lengths",
			a:        []float32{1, 2, 3},
			b:        []float32{1, 2},
			expected: 0.0,
		},
		{
			name:     "zero vector",
			a:        []float32{0, 0},
			b:        []float32{1, 1},
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestNewSelectsProvider(t *testing.T) {
	ollama, err := New(llm.ClientConfig{Provider: "ollama"})
	require.NoError(t, err)
	assert.IsType(t, &OllamaEmbedder{}, ollama)

	openaiEmb, err := New(llm.ClientConfig{Provider: "openai", APIKey: "test-key"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIEmbedder{}, openaiEmb)

	geminiEmb, err := New(llm.ClientConfig{Provider: "gemini", APIKey: "test-key"})
	require.NoError(t, err)
	assert.IsType(t, &GeminiEmbedder{}, geminiEmb)

	_, err = New(llm.ClientConfig{Provider: "openai"})
	require.Error(t, err)
	var llmErr *llm.Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, "missing_api_key", llmErr.Code)

	_, err = New(llm.ClientConfig{Provider: "gemini"})
	require.Error(t, err)
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, "missing_api_key", llmErr.Code)

	_, err = New(llm.ClientConfig{Provider: "bedrock"})
	require.Error(t, err)
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, "unsupported_provider", llmErr.Code)
}

func TestOllamaEmbedder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embeddings", r.URL.Path)

		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)

		// Vector depends on the prompt so batch ordering is observable.
		vector := []float32{1, 0}
		if req.Prompt == "second" {
			vector = []float32{0, 1}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": vector})
	}))
	defer server.Close()

	embedder := NewOllamaEmbedder(llm.ClientConfig{
		Provider: "ollama",
		BaseURL:  server.URL,
	})

	vectors, err := embedder.EmbedDocuments(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{1, 0}, vectors[0])
	assert.Equal(t, []float32{0, 1}, vectors[1])

	query, err := embedder.EmbedQuery(context.Background(), "first")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, query)
}

func TestOllamaEmbedderServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer server.Close()

	embedder := NewOllamaEmbedder(llm.ClientConfig{Provider: "ollama", BaseURL: server.URL})

	_, err := embedder.EmbedQuery(context.Background(), "anything")
	require.Error(t, err)
	var llmErr *llm.Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, http.StatusNotFound, llmErr.StatusCode)
}
