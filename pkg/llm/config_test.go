package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"AI_PROVIDER", "AI_MODEL", "AI_ENDPOINT", "AI_API_KEY",
		"AI_EMBEDDING_MODEL", "AI_TIMEOUT",
		"OPENAI_API_KEY", "GEMINI_API_KEY",
	} {
		t.Setenv(key, "")
	}
}

func TestGetLLMFromEnv_AIVariables(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("AI_MODEL", "qwen2.5:7b")
	t.Setenv("AI_ENDPOINT", "http://localhost:8000/v1")
	t.Setenv("AI_API_KEY", "sk-test")

	config := GetLLMFromEnv()

	assert.Equal(t, "openai", config.Provider)
	assert.Equal(t, "qwen2.5:7b", config.Model)
	assert.Equal(t, "http://localhost:8000/v1", config.BaseURL)
	assert.Equal(t, "sk-test", config.APIKey)
}

func TestGetLLMFromEnv_ProviderOverride(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("AI_MODEL", "deepseek-chat")
	t.Setenv("AI_PROVIDER", "deepseek")
	t.Setenv("AI_API_KEY", "sk-test")

	config := GetLLMFromEnv()
	assert.Equal(t, "deepseek", config.Provider)
	assert.Equal(t, "deepseek-chat", config.Model)
}

func TestGetLLMFromEnv_MissingKeyDefaultsToDummy(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("AI_MODEL", "local-model")
	t.Setenv("AI_ENDPOINT", "http://localhost:8000/v1")

	config := GetLLMFromEnv()
	assert.Equal(t, "dummy", config.APIKey)
}

func TestGetLLMFromEnv_OpenAIKey(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-openai")

	config := GetLLMFromEnv()
	assert.Equal(t, "openai", config.Provider)
	assert.Equal(t, DefaultOpenAIModel, config.Model)
	assert.Equal(t, "sk-openai", config.APIKey)
}

func TestGetLLMFromEnv_GeminiKey(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")

	config := GetLLMFromEnv()
	assert.Equal(t, "gemini", config.Provider)
	assert.Equal(t, DefaultGeminiModel, config.Model)
}

func TestGetLLMFromEnv_OllamaFallback(t *testing.T) {
	clearProviderEnv(t)

	config := GetLLMFromEnv()
	assert.Equal(t, "ollama", config.Provider)
	assert.Equal(t, DefaultOllamaBaseURL, config.BaseURL)
	assert.Equal(t, 60*time.Second, config.Timeout)
}

func TestGetLLMFromEnv_Timeout(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("AI_MODEL", "gpt-4o-mini")
	t.Setenv("AI_API_KEY", "sk-test")
	t.Setenv("AI_TIMEOUT", "120")

	config := GetLLMFromEnv()
	assert.Equal(t, 120*time.Second, config.Timeout)
}

func TestGetEmbeddingsFromEnv(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-openai")

	config := GetEmbeddingsFromEnv()
	assert.Equal(t, "openai", config.Provider)
	assert.Equal(t, DefaultEmbeddingModel, config.Model)

	t.Setenv("AI_EMBEDDING_MODEL", "text-embedding-3-large")
	config = GetEmbeddingsFromEnv()
	assert.Equal(t, "text-embedding-3-large", config.Model)
}

func TestGetEmbeddingsFromEnv_Ollama(t *testing.T) {
	clearProviderEnv(t)

	config := GetEmbeddingsFromEnv()
	assert.Equal(t, "ollama", config.Provider)
	assert.Equal(t, "nomic-embed-text", config.Model)
}

func TestGetEmbeddingsFromEnv_Gemini(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("GEMINI_API_KEY", "gm-key")

	config := GetEmbeddingsFromEnv()
	assert.Equal(t, "gemini", config.Provider)
	assert.Equal(t, DefaultGeminiEmbeddingModel, config.Model)
}
