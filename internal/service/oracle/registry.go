package oracle

import (
	"fmt"
	"sync"

	domainoracle "promptforge/internal/domain/services/oracle"
)

// ProviderFactory builds an oracle provider by name.
type ProviderFactory func(provider string) (domainoracle.Oracle, error)

// Registry routes model strings to oracle providers, caching instances.
type Registry struct {
	factory ProviderFactory
	mu      sync.RWMutex
	cache   map[string]domainoracle.Oracle
}

// NewRegistry creates a provider registry around the given factory.
func NewRegistry(factory ProviderFactory) *Registry {
	return &Registry{
		factory: factory,
		cache:   make(map[string]domainoracle.Oracle),
	}
}

// ForModel returns the provider serving the given model string.
func (r *Registry) ForModel(modelStr string) (domainoracle.Oracle, error) {
	info, err := ParseModel(modelStr)
	if err != nil {
		return nil, err
	}
	return r.GetProvider(info.Provider)
}

// GetProvider returns the named provider, creating and caching it on first use.
func (r *Registry) GetProvider(provider string) (domainoracle.Oracle, error) {
	if provider == "" {
		return nil, fmt.Errorf("provider cannot be empty")
	}

	r.mu.RLock()
	if cached, exists := r.cache[provider]; exists {
		r.mu.RUnlock()
		return cached, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another goroutine may have created it while we waited for the lock
	if cached, exists := r.cache[provider]; exists {
		return cached, nil
	}

	instance, err := r.factory(provider)
	if err != nil {
		return nil, fmt.Errorf("create provider '%s': %w", provider, err)
	}

	r.cache[provider] = instance
	return instance, nil
}
