package payments

import (
	"context"
	"sync"
)

// MemoryRepository is an in-memory implementation of Repository.
type MemoryRepository struct {
	mu       sync.RWMutex
	payments map[string]Payment
	// (provider, provider_payment_id) -> payment id, for uniqueness
	byProviderTxn map[string]string
	order         []string
}

// NewMemoryRepository creates a new in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		payments:      make(map[string]Payment),
		byProviderTxn: make(map[string]string),
	}
}

func providerTxnKey(p Payment) string {
	return string(p.Provider) + ":" + p.ProviderPaymentID
}

func (r *MemoryRepository) Save(_ context.Context, payment Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if payment.ProviderPaymentID != "" {
		key := providerTxnKey(payment)
		if owner, exists := r.byProviderTxn[key]; exists && owner != payment.ID {
			return ErrDuplicate
		}
		r.byProviderTxn[key] = payment.ID
	}

	if _, exists := r.payments[payment.ID]; !exists {
		r.order = append(r.order, payment.ID)
	}
	r.payments[payment.ID] = payment
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	payment, ok := r.payments[id]
	if !ok {
		return Payment{}, ErrNotFound
	}
	return payment, nil
}

func (r *MemoryRepository) ListByMerchant(_ context.Context, merchantID string) ([]Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Payment
	for _, id := range r.order {
		if p := r.payments[id]; p.MerchantID == merchantID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *MemoryRepository) Close() error {
	return nil
}
