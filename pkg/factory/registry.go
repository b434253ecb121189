package factory

import (
	"sort"
	"sync"

	"github.com/inercia/go-llm-lessons/pkg/llm"
)

// ProviderConstructor builds a client for one provider.
type ProviderConstructor func(config llm.ClientConfig) (llm.Client, error)

type providerRegistry struct {
	mu        sync.RWMutex
	providers map[string]ProviderConstructor
}

var globalRegistry = &providerRegistry{
	providers: make(map[string]ProviderConstructor),
}

// RegisterProvider registers a provider constructor under the given name.
// Later registrations replace earlier ones.
func RegisterProvider(name string, constructor ProviderConstructor) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.providers[name] = constructor
}

// GetProvider looks up a provider constructor by name.
func GetProvider(name string) (ProviderConstructor, bool) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	constructor, exists := globalRegistry.providers[name]
	return constructor, exists
}

// ListProviders returns the registered provider names, sorted.
func ListProviders() []string {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	names := make([]string, 0, len(globalRegistry.providers))
	for name := range globalRegistry.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
