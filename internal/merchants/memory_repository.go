package merchants

import (
	"context"
	"sync"
)

// MemoryRepository is an in-memory implementation of Repository.
type MemoryRepository struct {
	mu        sync.RWMutex
	merchants map[string]Merchant
	byTaxID   map[string]string
	order     []string
}

// NewMemoryRepository creates a new in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		merchants: make(map[string]Merchant),
		byTaxID:   make(map[string]string),
	}
}

func (r *MemoryRepository) Create(_ context.Context, merchant Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if merchant.TaxID != "" {
		if _, exists := r.byTaxID[merchant.TaxID]; exists {
			return ErrDuplicateTaxID
		}
	}

	r.merchants[merchant.ID] = merchant
	if merchant.TaxID != "" {
		r.byTaxID[merchant.TaxID] = merchant.ID
	}
	r.order = append(r.order, merchant.ID)
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	merchant, ok := r.merchants[id]
	if !ok {
		return Merchant{}, ErrNotFound
	}
	return merchant, nil
}

func (r *MemoryRepository) ListAll(_ context.Context) ([]Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Merchant, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.merchants[id])
	}
	return out, nil
}

func (r *MemoryRepository) Close() error {
	return nil
}
