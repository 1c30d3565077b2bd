// Package health reads the provider health snapshot. The snapshot is a
// keyed map provider_health:<lowercased provider> -> "up"|"down"; an
// absent key means the provider is up.
package health

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/KestrelPay/router/internal/routing"
)

const keyPrefix = "provider_health:"

// Statuses stored in the snapshot.
const (
	StatusUp   = "up"
	StatusDown = "down"
)

// Reader exposes the health snapshot for a set of providers.
type Reader interface {
	Snapshot(ctx context.Context, providers []routing.Provider) (map[string]string, error)
}

// MemoryReader is an in-memory health map for tests and single-node
// deployments. The zero map means everything is up.
type MemoryReader struct {
	mu     sync.RWMutex
	status map[string]string
}

// NewMemoryReader creates an empty (all-up) reader.
func NewMemoryReader() *MemoryReader {
	return &MemoryReader{status: make(map[string]string)}
}

// SetStatus marks a provider "up" or "down".
func (r *MemoryReader) SetStatus(provider routing.Provider, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status[strings.ToLower(string(provider))] = status
}

func (r *MemoryReader) Snapshot(_ context.Context, providers []routing.Provider) (map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(providers))
	for _, p := range providers {
		status, ok := r.status[strings.ToLower(string(p))]
		if !ok {
			status = StatusUp
		}
		out[string(p)] = status
	}
	return out, nil
}

// RedisReader reads provider health keys from Redis.
type RedisReader struct {
	client *redis.Client
}

// NewRedisReader wraps the given client.
func NewRedisReader(client *redis.Client) *RedisReader {
	return &RedisReader{client: client}
}

func (r *RedisReader) Snapshot(ctx context.Context, providers []routing.Provider) (map[string]string, error) {
	keys := make([]string, len(providers))
	for i, p := range providers {
		keys[i] = keyPrefix + strings.ToLower(string(p))
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("health snapshot read: %w", err)
	}

	out := make(map[string]string, len(providers))
	for i, p := range providers {
		status := StatusUp
		if i < len(values) {
			if s, ok := values[i].(string); ok && s == StatusDown {
				status = StatusDown
			}
		}
		out[string(p)] = status
	}
	return out, nil
}
