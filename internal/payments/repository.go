package payments

import (
	"context"
	"errors"
)

// Common errors returned by repository operations.
var (
	ErrNotFound  = errors.New("payment not found")
	ErrDuplicate = errors.New("payment with this provider transaction already exists")
)

// Repository defines payment storage. Save upserts by payment id, but
// the (provider, provider_payment_id) pair is unique across all rows
// and may never be rewritten to point at a different payment.
type Repository interface {
	Save(ctx context.Context, payment Payment) error
	Get(ctx context.Context, id string) (Payment, error)
	ListByMerchant(ctx context.Context, merchantID string) ([]Payment, error)
	Close() error
}
