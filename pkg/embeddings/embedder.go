// Package embeddings provides text embedding clients and similarity helpers.
package embeddings

import (
	"context"
	"fmt"
	"math"

	"github.com/inercia/go-llm-lessons/pkg/llm"
)

// Embedder converts text into dense vectors.
type Embedder interface {
	// EmbedDocuments embeds a batch of texts, one vector per input.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery embeds a single query string.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// New creates an embedder for the configured provider. OpenAI-compatible
// endpoints (including DeepSeek and OpenRouter gateways) use the OpenAI
// embeddings API; Gemini and Ollama use their native endpoints.
func New(config llm.ClientConfig) (Embedder, error) {
	switch config.Provider {
	case "", "openai", "deepseek", "openrouter":
		return NewOpenAIEmbedder(config)
	case "gemini":
		return NewGeminiEmbedder(config)
	case "ollama":
		return NewOllamaEmbedder(config), nil
	default:
		return nil, &llm.Error{
			Code:    "unsupported_provider",
			Message: fmt.Sprintf("no embedding support for provider %q", config.Provider),
			Type:    "validation_error",
		}
	}
}

// CosineSimilarity returns the cosine of the angle between two vectors,
// in [-1, 1]. Zero vectors and mismatched lengths yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
