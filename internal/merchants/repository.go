// Package merchants holds the merchant entity and its repositories.
package merchants

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/KestrelPay/router/internal/timeutil"
)

// Common errors returned by repository operations.
var (
	ErrNotFound       = errors.New("merchant not found")
	ErrDuplicateTaxID = errors.New("merchant with this tax id already exists")
)

// Status represents the onboarding state of a merchant.
type Status string

const (
	StatusActive    Status = "active"
	StatusPending   Status = "pending"
	StatusSuspended Status = "suspended"
)

// Merchant is a configured charging party.
type Merchant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	MCC       string    `json:"mcc"`
	Country   string    `json:"country"`
	Currency  string    `json:"currency"`
	TaxID     string    `json:"tax_id"`
	Status    Status    `json:"status"`
	APIKey    string    `json:"api_key"`
	CreatedAt time.Time `json:"created_at"`
}

// New creates an active merchant with generated id and API key.
func New(name, email, mcc, country, currency, taxID string) Merchant {
	return Merchant{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		MCC:       mcc,
		Country:   country,
		Currency:  currency,
		TaxID:     taxID,
		Status:    StatusActive,
		APIKey:    "pk_live_" + uuid.NewString()[:8],
		CreatedAt: timeutil.NowUTC(),
	}
}

// Repository defines merchant storage.
type Repository interface {
	Create(ctx context.Context, merchant Merchant) error
	Get(ctx context.Context, id string) (Merchant, error)
	ListAll(ctx context.Context) ([]Merchant, error)
	Close() error
}
