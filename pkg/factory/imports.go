package factory

import (
	"github.com/inercia/go-llm-lessons/pkg/llm"
	"github.com/inercia/go-llm-lessons/pkg/providers/bedrock"
	"github.com/inercia/go-llm-lessons/pkg/providers/deepseek"
	"github.com/inercia/go-llm-lessons/pkg/providers/gemini"
	"github.com/inercia/go-llm-lessons/pkg/providers/mock"
	"github.com/inercia/go-llm-lessons/pkg/providers/ollama"
	"github.com/inercia/go-llm-lessons/pkg/providers/openai"
	"github.com/inercia/go-llm-lessons/pkg/providers/openrouter"
)

func init() {
	RegisterProvider("openai", func(config llm.ClientConfig) (llm.Client, error) {
		return openai.NewClient(config)
	})

	RegisterProvider("gemini", func(config llm.ClientConfig) (llm.Client, error) {
		return gemini.NewClient(config)
	})

	RegisterProvider("ollama", func(config llm.ClientConfig) (llm.Client, error) {
		return ollama.NewClient(config)
	})

	RegisterProvider("deepseek", func(config llm.ClientConfig) (llm.Client, error) {
		return deepseek.NewClient(config)
	})

	RegisterProvider("openrouter", func(config llm.ClientConfig) (llm.Client, error) {
		return openrouter.NewClient(config)
	})

	RegisterProvider("bedrock", func(config llm.ClientConfig) (llm.Client, error) {
		return bedrock.NewClient(config)
	})

	RegisterProvider("mock", func(config llm.ClientConfig) (llm.Client, error) {
		return mock.NewClient(config.Model), nil
	})
}
