// Package subscriptions holds the subscription entity and the
// repositories the renewal scheduler reads from.
package subscriptions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/KestrelPay/router/internal/timeutil"
)

// ErrNotFound is returned when a subscription is missing.
var ErrNotFound = errors.New("subscription not found")

// Status represents the current state of a subscription.
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// Subscription is a recurring charge agreement with a known next
// renewal timestamp.
type Subscription struct {
	ID            string    `json:"id"`
	CustomerID    string    `json:"customer_id"`
	MerchantID    string    `json:"merchant_id"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	NextRenewalAt time.Time `json:"next_renewal_at"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// New creates an active subscription with a generated id.
func New(customerID, merchantID string, amount float64, currency string, nextRenewalAt time.Time) Subscription {
	now := timeutil.NowUTC()
	return Subscription{
		ID:            uuid.NewString(),
		CustomerID:    customerID,
		MerchantID:    merchantID,
		Amount:        amount,
		Currency:      currency,
		NextRenewalAt: timeutil.NormalizeUTC(nextRenewalAt),
		Status:        StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Repository defines subscription storage.
type Repository interface {
	// Save upserts a subscription.
	Save(ctx context.Context, sub Subscription) error

	// Get retrieves a subscription by ID.
	Get(ctx context.Context, id string) (Subscription, error)

	// UpcomingRenewals returns active subscriptions whose next renewal
	// falls within [from, to].
	UpcomingRenewals(ctx context.Context, from, to time.Time) ([]Subscription, error)

	Close() error
}
