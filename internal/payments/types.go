// Package payments owns the Payment entity, its state machine, its
// repositories, and the charge orchestrator.
package payments

import (
	"time"

	"github.com/google/uuid"

	"github.com/KestrelPay/router/internal/apperrors"
	"github.com/KestrelPay/router/internal/routing"
	"github.com/KestrelPay/router/internal/timeutil"
)

// Status is the payment lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusAuthorized Status = "authorized"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// legalTransitions is the full transition table. Terminal states have
// no outgoing edges.
var legalTransitions = map[Status][]Status{
	StatusPending:    {StatusAuthorized, StatusFailed, StatusCancelled},
	StatusAuthorized: {StatusCompleted, StatusCancelled},
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range legalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s rejects all further transitions.
func (s Status) IsTerminal() bool {
	return len(legalTransitions[s]) == 0
}

// Payment is the persisted result of a charge. Once a payment carries a
// processor transaction id, the (provider, processor transaction id)
// pair is unique and never rewritten.
type Payment struct {
	ID                string           `json:"id" bson:"_id"`
	MerchantID        string           `json:"merchant_id" bson:"merchant_id"`
	CustomerID        string           `json:"customer_id" bson:"customer_id"`
	Amount            float64          `json:"amount" bson:"amount"`
	Currency          string           `json:"currency" bson:"currency"`
	Description       string           `json:"description,omitempty" bson:"description,omitempty"`
	Provider          routing.Provider `json:"provider,omitempty" bson:"provider,omitempty"`
	ProviderPaymentID string           `json:"provider_payment_id,omitempty" bson:"provider_payment_id,omitempty"`
	Status            Status           `json:"status" bson:"status"`
	RoutingDecision   string           `json:"routing_decision,omitempty" bson:"routing_decision,omitempty"`
	SubscriptionID    string           `json:"subscription_id,omitempty" bson:"subscription_id,omitempty"`
	CreatedAt         time.Time        `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at" bson:"updated_at"`
}

// NewPayment creates a pending payment from a charge request.
func NewPayment(req routing.ChargeRequest) Payment {
	now := timeutil.NowUTC()
	return Payment{
		ID:             uuid.NewString(),
		MerchantID:     req.MerchantID,
		CustomerID:     req.CustomerID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		Description:    req.Description,
		SubscriptionID: req.SubscriptionID,
		Status:         StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// TransitionTo moves the payment to the next status, enforcing the
// transition table. Violations return an invalid_state error.
func (p *Payment) TransitionTo(next Status) error {
	if !p.Status.CanTransitionTo(next) {
		return apperrors.New(apperrors.ErrCodeInvalidState,
			"payment %s: illegal transition %s -> %s", p.ID, p.Status, next)
	}
	p.Status = next
	p.UpdatedAt = timeutil.NowUTC()
	return nil
}
