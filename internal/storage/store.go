// Package storage defines the three datastore abstractions the routing
// core persists through: key-value, relational, and append-log. Each
// has a mandatory in-memory implementation; external backends plug in
// behind the same contracts.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested entity is missing from a store.
var ErrNotFound = errors.New("storage: not found")

// KeyValueStore is high-speed key-based storage. Optimized for
// read-heavy intelligence lookups and pre-calculated route caching.
type KeyValueStore[T any] interface {
	Set(ctx context.Context, key string, value T) error
	Get(ctx context.Context, key string) (T, bool, error)
	Delete(ctx context.Context, key string) (bool, error)
	Values(ctx context.Context) ([]T, error)
}

// RelationalStore is consistent, queryable storage with upsert
// semantics on Save. Optimized for entity state (merchants, customers,
// BIN metadata).
type RelationalStore[T any] interface {
	Save(ctx context.Context, id string, entity T) error
	FindByID(ctx context.Context, id string) (T, bool, error)
	Query(ctx context.Context, match func(T) bool) ([]T, error)
	ListAll(ctx context.Context) ([]T, error)
}

// LogAppendStore is write-heavy append-only storage for raw ingestion
// records.
type LogAppendStore[T any] interface {
	Append(ctx context.Context, record T) error
	BatchAppend(ctx context.Context, records []T) error
	FetchRecent(ctx context.Context, n int) ([]T, error)
}
