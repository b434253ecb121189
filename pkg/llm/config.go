// Configuration types and environment detection
package llm

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultGeminiModel    = "gemini-1.5-flash"
	DefaultOllamaModel    = "llama3.1"
	DefaultEmbeddingModel = "text-embedding-3-small"

	DefaultOllamaEmbeddingModel = "nomic-embed-text"
	DefaultGeminiEmbeddingModel = "text-embedding-004"
)

const DefaultOllamaBaseURL = "http://localhost:11434"

// ClientConfig holds the settings needed to construct a client.
type ClientConfig struct {
	Provider   string            `json:"provider"` // openai, gemini, ollama, deepseek, openrouter, bedrock
	Model      string            `json:"model"`
	APIKey     string            `json:"api_key,omitempty"`
	BaseURL    string            `json:"base_url,omitempty"`
	Timeout    time.Duration     `json:"timeout,omitempty"`
	MaxRetries int               `json:"max_retries,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"` // provider-specific settings
}

// parseTimeoutFromEnv parses a timeout in seconds from an environment
// variable, falling back to the given default.
func parseTimeoutFromEnv(envVar string, fallback time.Duration) time.Duration {
	if s := os.Getenv(envVar); s != "" {
		if secs, err := strconv.Atoi(s); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}

// GetLLMFromEnv builds a chat client configuration from the environment.
//
// The AI_* variables take priority and describe any OpenAI-compatible
// endpoint: AI_MODEL, AI_ENDPOINT, AI_API_KEY and optionally AI_PROVIDER.
// Without them, provider API keys are checked in order, and a local Ollama
// instance is the final fallback so the lessons run without any credentials.
func GetLLMFromEnv() ClientConfig {
	timeout := parseTimeoutFromEnv("AI_TIMEOUT", 30*time.Second)

	if model := os.Getenv("AI_MODEL"); model != "" {
		provider := os.Getenv("AI_PROVIDER")
		if provider == "" {
			provider = "openai"
		}
		apiKey := os.Getenv("AI_API_KEY")
		if apiKey == "" {
			apiKey = "dummy" // some endpoints do not require real keys
		}
		return ClientConfig{
			Provider: provider,
			Model:    model,
			APIKey:   apiKey,
			BaseURL:  os.Getenv("AI_ENDPOINT"),
			Timeout:  timeout,
		}
	}

	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		fmt.Println("🔑 Using OpenAI API")
		return ClientConfig{
			Provider: "openai",
			Model:    DefaultOpenAIModel,
			APIKey:   apiKey,
			Timeout:  timeout,
		}
	}

	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		fmt.Println("🔑 Using Gemini API")
		return ClientConfig{
			Provider: "gemini",
			Model:    DefaultGeminiModel,
			APIKey:   apiKey,
			Timeout:  timeout,
		}
	}

	fmt.Printf("🔑 Using Ollama (local) at %s\n", DefaultOllamaBaseURL)
	fmt.Println("💡 To use cloud providers: set AI_MODEL/AI_API_KEY or OPENAI_API_KEY")
	return ClientConfig{
		Provider: "ollama",
		Model:    DefaultOllamaModel,
		BaseURL:  DefaultOllamaBaseURL,
		Timeout:  parseTimeoutFromEnv("AI_TIMEOUT", 60*time.Second),
	}
}

// GetEmbeddingsFromEnv builds an embeddings configuration from the
// environment. AI_EMBEDDING_MODEL selects the model; endpoint and key are
// shared with the chat configuration.
func GetEmbeddingsFromEnv() ClientConfig {
	config := GetLLMFromEnv()
	switch config.Provider {
	case "ollama":
		config.Model = DefaultOllamaEmbeddingModel
	case "gemini":
		config.Model = DefaultGeminiEmbeddingModel
	default:
		config.Model = DefaultEmbeddingModel
	}
	if model := os.Getenv("AI_EMBEDDING_MODEL"); model != "" {
		config.Model = model
	}
	return config
}
