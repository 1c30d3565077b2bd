package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisKeyValueStore is a KeyValueStore backed by Redis with JSON
// serialization. Keys are namespaced with a prefix so multiple stores
// can share one Redis instance. Serialization round-trips every field,
// including enum variants and UTC timestamps, via encoding/json.
type RedisKeyValueStore[T any] struct {
	client *redis.Client
	prefix string
}

// NewRedisKeyValueStore creates a Redis-backed store under the given
// key prefix (e.g. "routing_performance").
func NewRedisKeyValueStore[T any](client *redis.Client, prefix string) *RedisKeyValueStore[T] {
	return &RedisKeyValueStore[T]{client: client, prefix: prefix}
}

func (s *RedisKeyValueStore[T]) fullKey(key string) string {
	return s.prefix + ":" + key
}

func (s *RedisKeyValueStore[T]) Set(ctx context.Context, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("redis kv marshal: %w", err)
	}
	if err := s.client.Set(ctx, s.fullKey(key), data, 0).Err(); err != nil {
		return fmt.Errorf("redis kv set: %w", err)
	}
	return nil
}

func (s *RedisKeyValueStore[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	data, err := s.client.Get(ctx, s.fullKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("redis kv get: %w", err)
	}
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return zero, false, fmt.Errorf("redis kv unmarshal: %w", err)
	}
	return value, true, nil
}

func (s *RedisKeyValueStore[T]) Delete(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Del(ctx, s.fullKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis kv delete: %w", err)
	}
	return n > 0, nil
}

func (s *RedisKeyValueStore[T]) Values(ctx context.Context) ([]T, error) {
	var out []T
	iter := s.client.Scan(ctx, 0, s.prefix+":*", 0).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("redis kv values: %w", err)
		}
		var value T
		if err := json.Unmarshal(data, &value); err != nil {
			return nil, fmt.Errorf("redis kv unmarshal: %w", err)
		}
		out = append(out, value)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis kv scan: %w", err)
	}
	return out, nil
}
