package intelligence

import (
	"context"
	"sync"
	"testing"

	"github.com/KestrelPay/router/internal/routing"
	"github.com/KestrelPay/router/internal/storage"
)

func newTestRepo() *PerformanceRepository {
	return NewPerformanceRepository(
		storage.NewMemoryKeyValueStore[[]routing.ProviderPerformance]())
}

func record(p routing.Provider, dim routing.RoutingDimension, authRate float64) routing.ProviderPerformance {
	return routing.ProviderPerformance{
		Provider:  p,
		Dimension: dim,
		Metrics: routing.PerformanceMetrics{
			AuthRate:     authRate,
			FraudRate:    0.01,
			AvgLatencyMS: 200,
		},
		DataWindow: "batch",
	}
}

func TestPerformanceRepository_UpsertInvariant(t *testing.T) {
	repo := newTestRepo()
	ctx := context.Background()
	dim := routing.DefaultDimension("USD")

	// Repeated saves for the same (provider, dimension) must leave
	// exactly one record, carrying the latest metrics.
	for _, rate := range []float64{0.90, 0.95, 0.99} {
		if err := repo.Save(ctx, record(routing.ProviderStripe, dim, rate)); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	records, err := repo.FindByDimension(ctx, dim)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record after upserts, got %d", len(records))
	}
	if records[0].Metrics.AuthRate != 0.99 {
		t.Errorf("expected latest record to win, got auth rate %v", records[0].Metrics.AuthRate)
	}
}

func TestPerformanceRepository_DistinctProvidersShareDimension(t *testing.T) {
	repo := newTestRepo()
	ctx := context.Background()
	dim := routing.DefaultDimension("USD")

	if err := repo.Save(ctx, record(routing.ProviderStripe, dim, 0.95)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(ctx, record(routing.ProviderAdyen, dim, 0.93)); err != nil {
		t.Fatalf("save: %v", err)
	}

	records, err := repo.FindByDimension(ctx, dim)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}

func TestPerformanceRepository_MissingDimensionIsEmpty(t *testing.T) {
	repo := newTestRepo()

	records, err := repo.FindByDimension(context.Background(), routing.DefaultDimension("JPY"))
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty result, got %d records", len(records))
	}
}

func TestPerformanceRepository_All(t *testing.T) {
	repo := newTestRepo()
	ctx := context.Background()

	usd := routing.DefaultDimension("USD")
	eur := routing.DefaultDimension("EUR")
	if err := repo.Save(ctx, record(routing.ProviderStripe, usd, 0.95)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(ctx, record(routing.ProviderStripe, eur, 0.92)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(ctx, record(routing.ProviderAdyen, usd, 0.97)); err != nil {
		t.Fatalf("save: %v", err)
	}

	all, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records across buckets, got %d", len(all))
	}
}

func TestPerformanceRepository_ConcurrentSaves(t *testing.T) {
	repo := newTestRepo()
	ctx := context.Background()
	dim := routing.DefaultDimension("USD")

	var wg sync.WaitGroup
	for _, provider := range routing.AllProviders {
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(p routing.Provider) {
				defer wg.Done()
				_ = repo.Save(ctx, record(p, dim, 0.9))
			}(provider)
		}
	}
	wg.Wait()

	records, err := repo.FindByDimension(ctx, dim)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(records) != len(routing.AllProviders) {
		t.Fatalf("expected one record per provider, got %d", len(records))
	}
}
