package factory

import (
	"fmt"
	"strings"

	"github.com/inercia/go-llm-lessons/pkg/llm"
)

const DefaultProvider = "openai"

// Factory creates LLM clients from configuration.
type Factory struct{}

// New creates a client factory.
func New() *Factory {
	return &Factory{}
}

// CreateClient builds a client for the configured provider.
func (f *Factory) CreateClient(config llm.ClientConfig) (llm.Client, error) {
	provider := strings.ToLower(config.Provider)
	if provider == "" {
		provider = DefaultProvider
	}

	if config.Model == "" {
		return nil, &llm.Error{
			Code:    "missing_model",
			Message: "model is required",
			Type:    "validation_error",
		}
	}

	constructor, exists := GetProvider(provider)
	if !exists {
		return nil, &llm.Error{
			Code:    "unsupported_provider",
			Message: fmt.Sprintf("unsupported provider: %s (known: %s)", provider, strings.Join(ListProviders(), ", ")),
			Type:    "validation_error",
		}
	}

	return constructor(config)
}
