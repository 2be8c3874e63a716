// Package redis implements an exact-match completion cache over Redis.
// Keys are a digest of the model plus canonical messages; values are the
// serialized result. A miss or any Redis failure degrades to a provider
// call, so the cache is never load-bearing.
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/qasrlabs/propsight/internal/domain"
	"github.com/qasrlabs/propsight/internal/observability"
)

const keyPrefix = "propsight:completion:"

// Cache implements domain.CompletionCache.
type Cache struct {
	client *redis.Client
}

// NewCache creates a new Redis completion cache.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Get retrieves a cached result, or domain.ErrCacheMiss.
func (c *Cache) Get(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResult, error) {
	key, err := cacheKey(req)
	if err != nil {
		return nil, err
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache get failed: %w", err)
	}

	var result domain.CompletionResult
	if err := json.Unmarshal(data, &result); err != nil {
		// A corrupt entry behaves like a miss; the next Set overwrites it.
		observability.FromContext(ctx).Warn("dropping corrupt cache entry",
			observability.String("key", key), observability.Error(err))
		return nil, domain.ErrCacheMiss
	}

	return &result, nil
}

// Set stores a result under the request's cache key.
func (c *Cache) Set(ctx context.Context, req *domain.CompletionRequest, res *domain.CompletionResult, ttl time.Duration) error {
	key, err := cacheKey(req)
	if err != nil {
		return err
	}

	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set failed: %w", err)
	}

	return nil
}

// cacheKey digests the request fields that affect the completion output.
func cacheKey(req *domain.CompletionRequest) (string, error) {
	canonical, err := json.Marshal(struct {
		Model       string           `json:"model"`
		Messages    []domain.Message `json:"messages"`
		Temperature float64          `json:"temperature"`
		MaxTokens   int              `json:"max_tokens"`
	}{req.Model, req.Messages, req.Temperature, req.MaxTokens})
	if err != nil {
		return "", fmt.Errorf("cache key failed: %w", err)
	}

	sum := sha256.Sum256(canonical)
	return keyPrefix + hex.EncodeToString(sum[:]), nil
}
