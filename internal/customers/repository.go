// Package customers holds the customer entity and its repositories.
// Customers carry a vaulted payment method token; no cardholder data is
// stored.
package customers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/KestrelPay/router/internal/timeutil"
)

// ErrNotFound is returned when a customer is missing.
var ErrNotFound = errors.New("customer not found")

// Customer is a charging target owned by a merchant.
type Customer struct {
	ID                 string    `json:"id"`
	MerchantID         string    `json:"merchant_id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	PaymentMethodToken string    `json:"payment_method_token"`
	CreatedAt          time.Time `json:"created_at"`
}

// New creates a customer with a generated id.
func New(merchantID, name, email, paymentMethodToken string) Customer {
	return Customer{
		ID:                 uuid.NewString(),
		MerchantID:         merchantID,
		Name:               name,
		Email:              email,
		PaymentMethodToken: paymentMethodToken,
		CreatedAt:          timeutil.NowUTC(),
	}
}

// Repository defines customer storage.
type Repository interface {
	Create(ctx context.Context, customer Customer) error
	Get(ctx context.Context, id string) (Customer, error)
	ListByMerchant(ctx context.Context, merchantID string) ([]Customer, error)
	Close() error
}
