package precalc

import (
	"context"
	"testing"
	"time"

	"github.com/KestrelPay/router/internal/routing"
	"github.com/KestrelPay/router/internal/storage"
	"github.com/KestrelPay/router/internal/timeutil"
)

func newRepo() *KVRepository {
	return NewKVRepository(storage.NewMemoryKeyValueStore[Route]())
}

func TestKVRepository_UpsertBySubscription(t *testing.T) {
	repo := newRepo()
	ctx := context.Background()
	now := timeutil.NowUTC()

	first := Route{
		SubscriptionID:  "sub1",
		Provider:        routing.ProviderStripe,
		RoutingDecision: "first pass",
		ExpiresAt:       now.Add(time.Hour),
	}
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}

	second := first
	second.Provider = routing.ProviderAdyen
	second.RoutingDecision = "second pass"
	if err := repo.Save(ctx, second); err != nil {
		t.Fatalf("save: %v", err)
	}

	route, ok, err := repo.FindValid(ctx, "sub1", now)
	if err != nil || !ok {
		t.Fatalf("expected route, ok=%v err=%v", ok, err)
	}
	if route.Provider != routing.ProviderAdyen {
		t.Errorf("expected upsert to replace the row, got %s", route.Provider)
	}
}

func TestKVRepository_ExpiredRowsAreInvalid(t *testing.T) {
	repo := newRepo()
	ctx := context.Background()
	now := timeutil.NowUTC()

	if err := repo.Save(ctx, Route{
		SubscriptionID:  "sub1",
		Provider:        routing.ProviderAdyen,
		RoutingDecision: "stale",
		ExpiresAt:       now.Add(-time.Second),
	}); err != nil {
		t.Fatalf("save: %v", err)
	}

	// The row still exists physically but is logically invalid.
	if _, ok, _ := repo.FindValid(ctx, "sub1", now); ok {
		t.Errorf("expired route must not be returned")
	}
}

func TestKVRepository_MissingSubscription(t *testing.T) {
	repo := newRepo()
	if _, ok, err := repo.FindValid(context.Background(), "nope", timeutil.NowUTC()); ok || err != nil {
		t.Errorf("expected miss without error, ok=%v err=%v", ok, err)
	}
}

func TestKVRepository_DeleteExpired(t *testing.T) {
	repo := newRepo()
	ctx := context.Background()
	now := timeutil.NowUTC()

	_ = repo.Save(ctx, Route{SubscriptionID: "live", Provider: routing.ProviderStripe,
		RoutingDecision: "x", ExpiresAt: now.Add(time.Hour)})
	_ = repo.Save(ctx, Route{SubscriptionID: "dead1", Provider: routing.ProviderStripe,
		RoutingDecision: "x", ExpiresAt: now.Add(-time.Hour)})
	_ = repo.Save(ctx, Route{SubscriptionID: "dead2", Provider: routing.ProviderStripe,
		RoutingDecision: "x", ExpiresAt: now.Add(-time.Minute)})

	deleted, err := repo.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 deletions, got %d", deleted)
	}
	if _, ok, _ := repo.FindValid(ctx, "live", now); !ok {
		t.Errorf("live route must survive cleanup")
	}
}
