// Package registry maps models to the provider that serves them. A small
// fixed set of providers is registered at boot; lookups happen on every
// completion call, so known models resolve through an index built at
// registration time.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/qasrlabs/propsight/internal/domain"
)

// Registry implements domain.ProviderRegistry.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]domain.Provider
	byModel map[string]domain.Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:  make(map[string]domain.Provider),
		byModel: make(map[string]domain.Provider),
	}
}

// Register adds a provider and indexes its known models.
func (r *Registry) Register(ctx context.Context, provider domain.Provider) error {
	if provider == nil {
		return errors.New("provider cannot be nil")
	}
	name := provider.Name()
	if name == "" {
		return errors.New("provider name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.byName[name]; dup {
		return fmt.Errorf("provider %s already registered", name)
	}
	r.byName[name] = provider

	for _, model := range provider.SupportedModels(ctx) {
		r.byModel[model] = provider
	}
	return nil
}

// GetByModel retrieves the provider that serves the given model. Models
// missing from the index are resolved through IsModelSupported, so
// prefix-matched variants released after the known-model lists were
// written still route.
func (r *Registry) GetByModel(ctx context.Context, model string) (domain.Provider, error) {
	if model == "" {
		return nil, errors.New("model cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if provider, ok := r.byModel[model]; ok {
		return provider, nil
	}
	for _, provider := range r.byName {
		if provider.IsModelSupported(ctx, model) {
			return provider, nil
		}
	}
	return nil, fmt.Errorf("no provider found for model: %s", model)
}
