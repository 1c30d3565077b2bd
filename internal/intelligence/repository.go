// Package intelligence owns dimensioned provider performance: the
// repository that indexes it and the aggregator that derives it from
// raw transaction records.
package intelligence

import (
	"context"
	"sync"

	"github.com/KestrelPay/router/internal/routing"
	"github.com/KestrelPay/router/internal/storage"
)

// PerformanceRepository maps a canonical RoutingDimension key to the
// list of ProviderPerformance records for that dimension, at most one
// per provider.
type PerformanceRepository struct {
	store storage.KeyValueStore[[]routing.ProviderPerformance]

	// Serializes the read-modify-write in Save so concurrent upserts on
	// the same key cannot lose records. Reads go straight to the store.
	mu sync.Mutex
}

// NewPerformanceRepository wraps the given key-value store.
func NewPerformanceRepository(store storage.KeyValueStore[[]routing.ProviderPerformance]) *PerformanceRepository {
	return &PerformanceRepository{store: store}
}

// Save upserts a performance record by (dimension, provider): an
// existing row for the same provider in the same dimension is replaced,
// otherwise the record is appended to the dimension's bucket.
func (r *PerformanceRepository) Save(ctx context.Context, perf routing.ProviderPerformance) error {
	key := perf.Dimension.CanonicalKey()

	r.mu.Lock()
	defer r.mu.Unlock()

	records, _, err := r.store.Get(ctx, key)
	if err != nil {
		return err
	}

	updated := false
	for i, record := range records {
		if record.Provider == perf.Provider {
			records[i] = perf
			updated = true
			break
		}
	}
	if !updated {
		records = append(records, perf)
	}

	return r.store.Set(ctx, key, records)
}

// FindByDimension returns all provider performance records matching the
// exact dimension. Missing dimensions yield an empty list.
func (r *PerformanceRepository) FindByDimension(ctx context.Context, dim routing.RoutingDimension) ([]routing.ProviderPerformance, error) {
	records, _, err := r.store.Get(ctx, dim.CanonicalKey())
	if err != nil {
		return nil, err
	}
	return records, nil
}

// All flattens every dimension bucket. Used for diagnostics and for
// LLM context assembly.
func (r *PerformanceRepository) All(ctx context.Context) ([]routing.ProviderPerformance, error) {
	buckets, err := r.store.Values(ctx)
	if err != nil {
		return nil, err
	}
	var out []routing.ProviderPerformance
	for _, bucket := range buckets {
		out = append(out, bucket...)
	}
	return out, nil
}
