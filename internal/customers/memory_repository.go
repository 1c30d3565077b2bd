package customers

import (
	"context"
	"sync"
)

// MemoryRepository is an in-memory implementation of Repository.
type MemoryRepository struct {
	mu         sync.RWMutex
	customers  map[string]Customer
	byMerchant map[string][]string
	order      []string
}

// NewMemoryRepository creates a new in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		customers:  make(map[string]Customer),
		byMerchant: make(map[string][]string),
	}
}

func (r *MemoryRepository) Create(_ context.Context, customer Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.customers[customer.ID] = customer
	r.byMerchant[customer.MerchantID] = append(r.byMerchant[customer.MerchantID], customer.ID)
	r.order = append(r.order, customer.ID)
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	customer, ok := r.customers[id]
	if !ok {
		return Customer{}, ErrNotFound
	}
	return customer, nil
}

func (r *MemoryRepository) ListByMerchant(_ context.Context, merchantID string) ([]Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byMerchant[merchantID]
	out := make([]Customer, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.customers[id])
	}
	return out, nil
}

func (r *MemoryRepository) Close() error {
	return nil
}
