package payments

import (
	"testing"

	"github.com/KestrelPay/router/internal/routing"
)

func TestStatus_Transitions(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		ok   bool
	}{
		{StatusPending, StatusAuthorized, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusAuthorized, StatusCompleted, true},
		{StatusAuthorized, StatusCancelled, true},
		{StatusAuthorized, StatusFailed, false},
		{StatusAuthorized, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCompleted, StatusPending, false},
		{StatusFailed, StatusAuthorized, false},
		{StatusCancelled, StatusPending, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.ok {
			t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.ok)
		}
	}
}

func TestStatus_Terminal(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusFailed, StatusCancelled} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusPending, StatusAuthorized} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestPayment_TransitionTo(t *testing.T) {
	payment := NewPayment(routing.ChargeRequest{
		MerchantID: "m1",
		CustomerID: "c1",
		Amount:     25,
		Currency:   "USD",
	})
	if payment.Status != StatusPending {
		t.Fatalf("new payment should be pending, got %s", payment.Status)
	}

	if err := payment.TransitionTo(StatusAuthorized); err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if err := payment.TransitionTo(StatusCompleted); err != nil {
		t.Fatalf("settle: %v", err)
	}

	// Terminal state rejects everything.
	if err := payment.TransitionTo(StatusCancelled); err == nil {
		t.Fatalf("completed payment must reject further transitions")
	}
}

func TestNewPayment_Defaults(t *testing.T) {
	payment := NewPayment(routing.ChargeRequest{
		MerchantID:     "m1",
		CustomerID:     "c1",
		Amount:         10,
		Currency:       "USD",
		SubscriptionID: "sub1",
	})

	if payment.ID == "" {
		t.Errorf("expected generated id")
	}
	if payment.SubscriptionID != "sub1" {
		t.Errorf("subscription id should carry through")
	}
	if payment.CreatedAt.Location() != payment.CreatedAt.UTC().Location() {
		t.Errorf("timestamps must be UTC")
	}
}
