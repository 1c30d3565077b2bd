// Package precalc stores routing decisions computed ahead of known
// future charges (subscription renewals).
package precalc

import (
	"context"
	"time"

	"github.com/KestrelPay/router/internal/routing"
	"github.com/KestrelPay/router/internal/storage"
	"github.com/KestrelPay/router/internal/timeutil"
)

// Route is one pre-calculated routing decision, keyed by subscription
// id. At most one row exists per subscription; saves upsert. Expired
// rows are logically invalid even before deletion.
type Route struct {
	SubscriptionID  string           `json:"subscription_id"`
	Provider        routing.Provider `json:"provider"`
	RoutingDecision string           `json:"routing_decision"`
	ExpiresAt       time.Time        `json:"expires_at"`
	CreatedAt       time.Time        `json:"created_at"`
}

// Valid reports whether the route is usable at the given instant.
func (r Route) Valid(now time.Time) bool {
	return r.ExpiresAt.After(timeutil.NormalizeUTC(now))
}

// Repository defines pre-calculated route storage.
type Repository interface {
	// Save upserts the route for its subscription id.
	Save(ctx context.Context, route Route) error

	// FindValid returns the route for a subscription if one exists and
	// has not expired at the given instant; ok is false otherwise.
	FindValid(ctx context.Context, subscriptionID string, now time.Time) (Route, bool, error)

	// DeleteExpired removes rows whose expiry is at or before now,
	// returning the count removed.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)

	Close() error
}

// KVRepository implements Repository over a KeyValueStore keyed by
// subscription id.
type KVRepository struct {
	store storage.KeyValueStore[Route]
}

// NewKVRepository wraps the given key-value store.
func NewKVRepository(store storage.KeyValueStore[Route]) *KVRepository {
	return &KVRepository{store: store}
}

func (r *KVRepository) Save(ctx context.Context, route Route) error {
	route.ExpiresAt = timeutil.NormalizeUTC(route.ExpiresAt)
	if route.CreatedAt.IsZero() {
		route.CreatedAt = timeutil.NowUTC()
	}
	return r.store.Set(ctx, route.SubscriptionID, route)
}

func (r *KVRepository) FindValid(ctx context.Context, subscriptionID string, now time.Time) (Route, bool, error) {
	route, ok, err := r.store.Get(ctx, subscriptionID)
	if err != nil || !ok {
		return Route{}, false, err
	}
	if !route.Valid(now) {
		return Route{}, false, nil
	}
	return route, true, nil
}

func (r *KVRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	routes, err := r.store.Values(ctx)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, route := range routes {
		if route.Valid(now) {
			continue
		}
		ok, err := r.store.Delete(ctx, route.SubscriptionID)
		if err != nil {
			return deleted, err
		}
		if ok {
			deleted++
		}
	}
	return deleted, nil
}

func (r *KVRepository) Close() error {
	return nil
}
