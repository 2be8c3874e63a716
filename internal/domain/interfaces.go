package domain

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by CompletionCache.Get when no entry exists.
var ErrCacheMiss = errors.New("cache miss")

// Provider represents any LLM provider.
type Provider interface {
	// Complete sends a completion request and returns the full response.
	// Implementations must return errors already normalized into the
	// closed taxonomy (*Error) so shared retry logic never branches on
	// provider-specific shapes.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResult, error)

	// Name returns the provider identifier.
	Name() string

	// SupportedModels returns the models this provider is known to serve.
	SupportedModels(ctx context.Context) []string

	// IsModelSupported checks if the provider supports the given model.
	IsModelSupported(ctx context.Context, model string) bool
}

// ProviderRegistry routes completion requests to registered providers.
type ProviderRegistry interface {
	// Register adds a provider. Duplicate names are rejected.
	Register(ctx context.Context, provider Provider) error

	// GetByModel retrieves the provider that serves the given model.
	GetByModel(ctx context.Context, model string) (Provider, error)
}

// CompletionCache is an exact-match cache over completion requests.
type CompletionCache interface {
	// Get retrieves a cached result, or ErrCacheMiss.
	Get(ctx context.Context, req *CompletionRequest) (*CompletionResult, error)

	// Set stores a result under the request's cache key.
	Set(ctx context.Context, req *CompletionRequest, res *CompletionResult, ttl time.Duration) error
}
