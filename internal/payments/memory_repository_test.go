package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/KestrelPay/router/internal/routing"
)

func TestMemoryRepository_ProviderTxnUniqueness(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	first := NewPayment(routing.ChargeRequest{MerchantID: "m1", CustomerID: "c1", Amount: 10, Currency: "USD"})
	first.Provider = routing.ProviderStripe
	first.ProviderPaymentID = "pi_abc"
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Re-saving the same payment is fine (upsert).
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("re-save same payment: %v", err)
	}

	// A different payment claiming the same (provider, txn id) is not.
	second := NewPayment(routing.ChargeRequest{MerchantID: "m1", CustomerID: "c1", Amount: 20, Currency: "USD"})
	second.Provider = routing.ProviderStripe
	second.ProviderPaymentID = "pi_abc"
	if err := repo.Save(ctx, second); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// The same txn id under a different provider is a distinct pair.
	third := NewPayment(routing.ChargeRequest{MerchantID: "m1", CustomerID: "c1", Amount: 20, Currency: "USD"})
	third.Provider = routing.ProviderAdyen
	third.ProviderPaymentID = "pi_abc"
	if err := repo.Save(ctx, third); err != nil {
		t.Fatalf("distinct provider pair: %v", err)
	}
}

func TestMemoryRepository_GetAndList(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	for i, merchant := range []string{"m1", "m1", "m2"} {
		p := NewPayment(routing.ChargeRequest{MerchantID: merchant, CustomerID: "c1", Amount: float64(i), Currency: "USD"})
		if err := repo.Save(ctx, p); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	list, err := repo.ListByMerchant(ctx, "m1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 payments for m1, got %d", len(list))
	}
}
