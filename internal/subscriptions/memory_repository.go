package subscriptions

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/KestrelPay/router/internal/timeutil"
)

// MemoryRepository is an in-memory implementation of Repository.
type MemoryRepository struct {
	mu   sync.RWMutex
	subs map[string]Subscription
}

// NewMemoryRepository creates a new in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{subs: make(map[string]Subscription)}
}

func (r *MemoryRepository) Save(_ context.Context, sub Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub.NextRenewalAt = timeutil.NormalizeUTC(sub.NextRenewalAt)
	sub.UpdatedAt = timeutil.NowUTC()
	r.subs[sub.ID] = sub
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub, ok := r.subs[id]
	if !ok {
		return Subscription{}, ErrNotFound
	}
	return sub, nil
}

func (r *MemoryRepository) UpcomingRenewals(_ context.Context, from, to time.Time) ([]Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	from = timeutil.NormalizeUTC(from)
	to = timeutil.NormalizeUTC(to)

	var out []Subscription
	for _, sub := range r.subs {
		if sub.Status != StatusActive {
			continue
		}
		if sub.NextRenewalAt.Before(from) || sub.NextRenewalAt.After(to) {
			continue
		}
		out = append(out, sub)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].NextRenewalAt.Before(out[j].NextRenewalAt)
	})
	return out, nil
}

func (r *MemoryRepository) Close() error {
	return nil
}
