package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/inercia/go-llm-lessons/pkg/llm"
)

// OllamaEmbedder embeds text via a local Ollama server.
type OllamaEmbedder struct {
	httpClient *http.Client
	baseURL    string
	model      string
}

// NewOllamaEmbedder creates an embedder backed by Ollama's /api/embeddings
// endpoint.
func NewOllamaEmbedder(config llm.ClientConfig) *OllamaEmbedder {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = llm.DefaultOllamaBaseURL
	}
	model := config.Model
	if model == "" {
		model = llm.DefaultOllamaEmbeddingModel
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OllamaEmbedder{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		model:      model,
	}
}

// EmbedDocuments embeds each text with a separate API call. Ollama's
// embeddings endpoint accepts one prompt at a time.
func (e *OllamaEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vector, err := e.EmbedQuery(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding document %d: %w", i, err)
		}
		vectors[i] = vector
	}
	return vectors, nil
}

// EmbedQuery embeds a single string.
func (e *OllamaEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(map[string]string{
		"model":  e.model,
		"prompt": text,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, &llm.Error{Code: "network_error", Message: err.Error(), Type: "network_error"}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &llm.Error{
			Code:       "api_error",
			Message:    fmt.Sprintf("Ollama embeddings request failed: %s", string(body)),
			Type:       "api_error",
			StatusCode: resp.StatusCode,
		}
	}

	var result struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &llm.Error{
			Code:    "parse_error",
			Message: "failed to parse Ollama embeddings response: " + err.Error(),
			Type:    "client_error",
		}
	}
	if len(result.Embedding) == 0 {
		return nil, &llm.Error{
			Code:    "empty_embedding",
			Message: fmt.Sprintf("Ollama returned no embedding for model %q", e.model),
			Type:    "api_error",
		}
	}
	return result.Embedding, nil
}
