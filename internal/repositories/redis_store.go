package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/desertthunder/curate/internal/shared"
)

// RedisStore implements models.Store with one Redis string per key.
//
// Keys are namespaced with prefix. Values never expire.
type RedisStore struct {
	changeFeed
	client *redis.Client
	prefix string
}

// NewRedisStore creates a RedisStore over client.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(k string) string { return s.prefix + k }

func (s *RedisStore) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: failed to read %s: %w", shared.ErrStorageFailure, key, err)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("%w: failed to decode %s: %w", shared.ErrStorageFailure, key, err)
	}
	return true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: failed to encode %s: %w", shared.ErrStorageFailure, key, err)
	}
	if err := s.client.Set(ctx, s.key(key), raw, 0).Err(); err != nil {
		return fmt.Errorf("%w: failed to write %s: %w", shared.ErrStorageFailure, key, err)
	}

	s.notify(key)
	return nil
}

// Ping checks that the server is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
