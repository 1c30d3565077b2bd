package routing

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/KestrelPay/router/internal/metadata"
)

var binFixture = metadata.CardBIN{
	BIN:     "411111",
	Brand:   "VISA",
	Type:    "DEBIT",
	Country: "Germany",
}

type stubPerformance struct {
	records []ProviderPerformance
	err     error
	queried bool
}

func (s *stubPerformance) FindByDimension(context.Context, RoutingDimension) ([]ProviderPerformance, error) {
	s.queried = true
	return s.records, s.err
}

type stubStrategy struct {
	decision Decision
	err      error
	called   bool
}

func (s *stubStrategy) Decide(context.Context, ChargeRequest, []ResolvedProvider) (Decision, error) {
	s.called = true
	return s.decision, s.err
}

func (s *stubStrategy) Name() string { return "StubStrategy" }

type stubHealth struct {
	snapshot map[string]string
}

func (s *stubHealth) Snapshot(_ context.Context, providers []Provider) (map[string]string, error) {
	out := make(map[string]string, len(providers))
	for _, p := range providers {
		status, ok := s.snapshot[string(p)]
		if !ok {
			status = "up"
		}
		out[string(p)] = status
	}
	return out, nil
}

func testEngine(perf *stubPerformance, primary, fallback DecisionStrategy) *Engine {
	return NewEngine(EngineConfig{
		Fees: NewFeeTable([]FeeStructure{
			{Provider: ProviderStripe, FixedFee: 0.30, VariableFeePercent: 2.9},
			{Provider: ProviderAdyen, FixedFee: 0.10, VariableFeePercent: 2.0},
		}),
		Performance:     perf,
		Health:          &stubHealth{},
		Strategy:        primary,
		Fallback:        fallback,
		DefaultProvider: ProviderStripe,
		Logger:          zerolog.Nop(),
	})
}

func TestEngine_ExplicitOverride(t *testing.T) {
	perf := &stubPerformance{}
	strategy := &stubStrategy{decision: Decision{Provider: ProviderStripe}}
	engine := testEngine(perf, strategy, nil)

	decision, err := engine.FindBestRoute(context.Background(), ChargeRequest{
		MerchantID: "m1",
		CustomerID: "c1",
		Amount:     50,
		Currency:   "USD",
		Provider:   ProviderBraintree,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Provider != ProviderBraintree {
		t.Errorf("expected braintree, got %s", decision.Provider)
	}
	if perf.queried {
		t.Errorf("explicit override must not consult the repository")
	}
	if strategy.called {
		t.Errorf("explicit override must not consult the strategy")
	}
}

func TestEngine_InvalidExplicitOverride(t *testing.T) {
	engine := testEngine(&stubPerformance{}, &stubStrategy{}, nil)

	_, err := engine.FindBestRoute(context.Background(), ChargeRequest{
		MerchantID: "m1", CustomerID: "c1", Amount: 50, Currency: "USD",
		Provider: Provider("paypal"),
	})
	if err == nil {
		t.Fatalf("expected error for unknown explicit provider")
	}
}

func TestEngine_StrategyChoiceReturned(t *testing.T) {
	strategy := &stubStrategy{decision: Decision{Provider: ProviderAdyen, Reason: "StubStrategy"}}
	engine := testEngine(&stubPerformance{}, strategy, nil)

	decision, err := engine.FindBestRoute(context.Background(), ChargeRequest{
		MerchantID: "m1", CustomerID: "c1", Amount: 100, Currency: "USD",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Provider != ProviderAdyen {
		t.Errorf("expected adyen, got %s", decision.Provider)
	}
	if decision.Reason != "StubStrategy" {
		t.Errorf("expected strategy reason, got %q", decision.Reason)
	}
}

func TestEngine_FallbackOnStrategyFailure(t *testing.T) {
	failing := &stubStrategy{err: errors.New("llm timeout")}
	fallback := &stubStrategy{decision: Decision{Provider: ProviderAdyen, Reason: "StubStrategy"}}
	engine := testEngine(&stubPerformance{}, failing, fallback)

	decision, err := engine.FindBestRoute(context.Background(), ChargeRequest{
		MerchantID: "m1", CustomerID: "c1", Amount: 100, Currency: "USD",
	})
	if err != nil {
		t.Fatalf("strategy failure must not surface: %v", err)
	}
	if decision.Provider != ProviderAdyen {
		t.Errorf("expected fallback choice adyen, got %s", decision.Provider)
	}
	if !fallback.called {
		t.Errorf("fallback strategy was not consulted")
	}
}

func TestEngine_UltimateDefaultWhenAllStrategiesFail(t *testing.T) {
	failing := &stubStrategy{err: errors.New("boom")}
	alsoFailing := &stubStrategy{err: errors.New("boom again")}
	engine := testEngine(&stubPerformance{}, failing, alsoFailing)

	decision, err := engine.FindBestRoute(context.Background(), ChargeRequest{
		MerchantID: "m1", CustomerID: "c1", Amount: 100, Currency: "USD",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Provider != ProviderStripe {
		t.Errorf("expected ultimate default stripe, got %s", decision.Provider)
	}
}

func TestEngine_NoCandidatesFallsBackToDefault(t *testing.T) {
	strategy := &stubStrategy{decision: Decision{Provider: ProviderAdyen}}
	engine := NewEngine(EngineConfig{
		Fees:            NewFeeTable(nil),
		Performance:     &stubPerformance{},
		Health:          &stubHealth{},
		Strategy:        strategy,
		DefaultProvider: ProviderStripe,
		Logger:          zerolog.Nop(),
	})

	decision, err := engine.FindBestRoute(context.Background(), ChargeRequest{
		MerchantID: "m1", CustomerID: "c1", Amount: 100, Currency: "USD",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Provider != ProviderStripe {
		t.Errorf("expected default stripe, got %s", decision.Provider)
	}
	if strategy.called {
		t.Errorf("strategy must not run with an empty candidate list")
	}
}

func TestEngine_InfrastructureErrorSurfaces(t *testing.T) {
	perf := &stubPerformance{err: errors.New("datastore unreachable")}
	engine := testEngine(perf, &stubStrategy{}, nil)

	_, err := engine.FindBestRoute(context.Background(), ChargeRequest{
		MerchantID: "m1", CustomerID: "c1", Amount: 100, Currency: "USD",
	})
	if err == nil {
		t.Fatalf("infrastructure failure must surface, not be absorbed")
	}
}

func TestEngine_DeriveDimension(t *testing.T) {
	engine := testEngine(&stubPerformance{}, &stubStrategy{}, nil)

	t.Run("bin metadata maps into the dimension", func(t *testing.T) {
		req := ChargeRequest{
			Currency: "USD",
			PaymentMethod: &PaymentMethodHint{
				Type: "credit_card",
			},
		}
		req.BINMetadata = &binFixture
		dim, err := engine.DeriveDimension(context.Background(), &req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dim.Network != "visa" {
			t.Errorf("brand should map to network, got %q", dim.Network)
		}
		if dim.CardType != "debit" {
			t.Errorf("type should map to card type, got %q", dim.CardType)
		}
		if dim.Region != "international" {
			t.Errorf("non-US issuing country should map to international, got %q", dim.Region)
		}
	})

	t.Run("defaults without enrichment", func(t *testing.T) {
		req := ChargeRequest{Currency: "EUR"}
		dim, err := engine.DeriveDimension(context.Background(), &req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dim.Currency != "EUR" || dim.Region != "domestic" || dim.PaymentForm != "card_on_file" {
			t.Errorf("unexpected default dimension: %+v", dim)
		}
	})
}
