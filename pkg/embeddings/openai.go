package embeddings

import (
	"context"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/inercia/go-llm-lessons/pkg/llm"
)

// OpenAIEmbedder embeds text via the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAIEmbedder creates an embedder backed by the OpenAI API or any
// compatible endpoint set via BaseURL.
func NewOpenAIEmbedder(config llm.ClientConfig) (*OpenAIEmbedder, error) {
	if config.APIKey == "" {
		return nil, &llm.Error{
			Code:    "missing_api_key",
			Message: "OpenAI API key is required for embeddings",
			Type:    "authentication_error",
		}
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	if config.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: config.Timeout}
	}

	model := config.Model
	if model == "" {
		model = llm.DefaultEmbeddingModel
	}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientConfig),
		model:  openai.EmbeddingModel(model),
	}, nil
}

// EmbedDocuments embeds a batch of texts in a single API call.
func (e *OpenAIEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: e.model,
	})
	if err != nil {
		return nil, convertOpenAIError(err)
	}
	if len(resp.Data) != len(texts) {
		return nil, &llm.Error{
			Code:    "embedding_count_mismatch",
			Message: "embedding API returned a different number of vectors than inputs",
			Type:    "api_error",
		}
	}

	vectors := make([][]float32, len(resp.Data))
	for i, item := range resp.Data {
		vectors[i] = item.Embedding
	}
	return vectors, nil
}

// EmbedQuery embeds a single query string.
func (e *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func convertOpenAIError(err error) *llm.Error {
	if apiErr, ok := err.(*openai.APIError); ok {
		code := "api_error"
		if c, ok := apiErr.Code.(string); ok && c != "" {
			code = c
		}
		return &llm.Error{
			Code:       code,
			Message:    apiErr.Message,
			Type:       apiErr.Type,
			StatusCode: apiErr.HTTPStatusCode,
		}
	}
	return &llm.Error{Code: "embedding_error", Message: err.Error(), Type: "api_error"}
}
