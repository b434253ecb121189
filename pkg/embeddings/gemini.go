package embeddings

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"github.com/inercia/go-llm-lessons/pkg/llm"
)

// GeminiEmbedder embeds text via the Gemini embedContent API.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

// NewGeminiEmbedder creates an embedder backed by the Gemini API.
func NewGeminiEmbedder(config llm.ClientConfig) (*GeminiEmbedder, error) {
	if config.APIKey == "" {
		return nil, &llm.Error{
			Code:    "missing_api_key",
			Message: "Gemini API key is required for embeddings",
			Type:    "authentication_error",
		}
	}

	genaiConfig := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.Timeout > 0 {
		genaiConfig.HTTPOptions.Timeout = &config.Timeout
	}

	client, err := genai.NewClient(context.Background(), genaiConfig)
	if err != nil {
		return nil, convertGeminiError(err)
	}

	model := config.Model
	if model == "" {
		model = llm.DefaultGeminiEmbeddingModel
	}

	return &GeminiEmbedder{client: client, model: model}, nil
}

// EmbedDocuments embeds a batch of texts in a single API call.
func (e *GeminiEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, nil)
	if err != nil {
		return nil, convertGeminiError(err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, &llm.Error{
			Code:    "embedding_count_mismatch",
			Message: "embedding API returned a different number of vectors than inputs",
			Type:    "api_error",
		}
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, embedding := range resp.Embeddings {
		vectors[i] = embedding.Values
	}
	return vectors, nil
}

// EmbedQuery embeds a single query string.
func (e *GeminiEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// convertGeminiError maps genai errors onto llm.Error by inspecting the
// message, since the SDK does not expose typed error values.
func convertGeminiError(err error) *llm.Error {
	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "api key") || strings.Contains(lower, "401"):
		return &llm.Error{Code: "authentication_error", Message: msg, Type: "authentication_error", StatusCode: 401}
	case strings.Contains(lower, "rate limit") || strings.Contains(lower, "429"):
		return &llm.Error{Code: "rate_limit_error", Message: msg, Type: "rate_limit_error", StatusCode: 429}
	default:
		return &llm.Error{Code: "embedding_error", Message: msg, Type: "api_error"}
	}
}
