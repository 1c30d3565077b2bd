package strategy

import (
	"context"
	"testing"

	"github.com/KestrelPay/router/internal/routing"
)

func resolved(p routing.Provider, fixed, variable float64) routing.ResolvedProvider {
	return routing.ResolvedProvider{
		Provider:           p,
		FixedFee:           fixed,
		VariableFeePercent: variable,
		AuthRate:           0.95,
		AvgLatencyMS:       300,
	}
}

func TestLeastCost_ClearPriceGap(t *testing.T) {
	// Stripe: 0.30 + 100*2.9% = 3.20; Adyen: 0.10 + 100*2.0% = 2.10.
	providers := []routing.ResolvedProvider{
		resolved(routing.ProviderStripe, 0.30, 2.9),
		resolved(routing.ProviderAdyen, 0.10, 2.0),
	}
	req := routing.ChargeRequest{Amount: 100, Currency: "USD"}

	decision, err := NewLeastCost().Decide(context.Background(), req, providers)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Provider != routing.ProviderAdyen {
		t.Errorf("expected adyen (2.10 < 3.20), got %s", decision.Provider)
	}
}

func TestLeastCost_OrderIndependent(t *testing.T) {
	forward := []routing.ResolvedProvider{
		resolved(routing.ProviderStripe, 0.30, 2.9),
		resolved(routing.ProviderAdyen, 0.10, 2.0),
		resolved(routing.ProviderInternal, 0.50, 2.5),
	}
	reversed := []routing.ResolvedProvider{forward[2], forward[1], forward[0]}
	req := routing.ChargeRequest{Amount: 250, Currency: "USD"}

	s := NewLeastCost()
	a, err := s.Decide(context.Background(), req, forward)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := s.Decide(context.Background(), req, reversed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Provider != b.Provider {
		t.Errorf("decision depends on input order: %s vs %s", a.Provider, b.Provider)
	}
}

func TestLeastCost_Idempotent(t *testing.T) {
	providers := []routing.ResolvedProvider{
		resolved(routing.ProviderStripe, 0.30, 2.9),
		resolved(routing.ProviderBraintree, 0.49, 2.59),
	}
	req := routing.ChargeRequest{Amount: 42, Currency: "USD"}

	s := NewLeastCost()
	first, err := s.Decide(context.Background(), req, providers)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := s.Decide(context.Background(), req, providers)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if again.Provider != first.Provider {
			t.Fatalf("decision changed between identical calls")
		}
	}
}

func TestLeastCost_TieBreaksByStableOrder(t *testing.T) {
	// Identical fees: the stable provider ordering decides.
	providers := []routing.ResolvedProvider{
		resolved(routing.ProviderBraintree, 0.30, 2.9),
		resolved(routing.ProviderAdyen, 0.30, 2.9),
	}
	req := routing.ChargeRequest{Amount: 10, Currency: "USD"}

	decision, err := NewLeastCost().Decide(context.Background(), req, providers)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Provider != routing.ProviderAdyen {
		t.Errorf("tie should break to adyen by stable order, got %s", decision.Provider)
	}
}

func TestLeastCost_EmptyCandidates(t *testing.T) {
	_, err := NewLeastCost().Decide(context.Background(),
		routing.ChargeRequest{Amount: 10, Currency: "USD"}, nil)
	if err == nil {
		t.Fatalf("expected error on empty candidate list")
	}
}
