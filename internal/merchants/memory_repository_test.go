package merchants

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryRepository_DuplicateTaxID(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	first := New("Acme", "a@acme.test", "5411", "US", "USD", "tax-1")
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}

	duplicate := New("Other Corp", "b@other.test", "5999", "US", "USD", "tax-1")
	if err := repo.Create(ctx, duplicate); !errors.Is(err, ErrDuplicateTaxID) {
		t.Fatalf("expected ErrDuplicateTaxID, got %v", err)
	}
}

func TestMemoryRepository_GetAndList(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	merchant := New("Acme", "a@acme.test", "5411", "US", "USD", "tax-1")
	if err := repo.Create(ctx, merchant); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.Get(ctx, merchant.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusActive {
		t.Errorf("new merchants should be active, got %s", got.Status)
	}
	if got.APIKey == "" {
		t.Errorf("expected generated api key")
	}

	all, err := repo.ListAll(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("list: err=%v len=%d", err, len(all))
	}
}
