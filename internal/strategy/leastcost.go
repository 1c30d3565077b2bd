package strategy

import (
	"context"

	"github.com/KestrelPay/router/internal/apperrors"
	"github.com/KestrelPay/router/internal/routing"
)

// LeastCost selects the provider with the lowest total expected fee:
// fixed_fee + amount * variable_fee_percent / 100. It is pure,
// idempotent, and order-independent; ties break by the stable provider
// ordering.
type LeastCost struct{}

// NewLeastCost creates the deterministic least-cost strategy.
func NewLeastCost() *LeastCost {
	return &LeastCost{}
}

func (s *LeastCost) Name() string {
	return "DeterministicLeastCostStrategy"
}

func (s *LeastCost) Decide(_ context.Context, req routing.ChargeRequest, providers []routing.ResolvedProvider) (routing.Decision, error) {
	if len(providers) == 0 {
		return routing.Decision{}, apperrors.New(apperrors.ErrCodeNoRouteAvailable,
			"least cost: no candidate providers")
	}

	best := providers[0]
	bestCost := best.TotalCost(req.Amount)
	for _, candidate := range providers[1:] {
		cost := candidate.TotalCost(req.Amount)
		if cost < bestCost || (cost == bestCost && providerRank(candidate.Provider) < providerRank(best.Provider)) {
			best = candidate
			bestCost = cost
		}
	}

	return routing.Decision{Provider: best.Provider, Reason: s.Name()}, nil
}

// providerRank is the stable tie-break ordering.
func providerRank(p routing.Provider) int {
	for i, candidate := range routing.AllProviders {
		if candidate == p {
			return i
		}
	}
	return len(routing.AllProviders)
}
