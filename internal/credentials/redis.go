package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKey = "propsight:credentials"

// RedisStore persists the credential record in Redis so a restart does
// not require reconfiguration.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed credential store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Save stores the record.
func (s *RedisStore) Save(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("credential marshal failed: %w", err)
	}
	if err := s.client.Set(ctx, redisKey, data, 0).Err(); err != nil {
		return fmt.Errorf("credential save failed: %w", err)
	}
	return nil
}

// Load retrieves the record, or ErrNotConfigured.
func (s *RedisStore) Load(ctx context.Context) (Record, error) {
	data, err := s.client.Get(ctx, redisKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNotConfigured
	}
	if err != nil {
		return Record{}, fmt.Errorf("credential load failed: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("credential decode failed: %w", err)
	}
	return rec, nil
}
