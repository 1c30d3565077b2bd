// Package strategy implements the routing decision strategies: fixed,
// deterministic least-cost, single-shot LLM, and the multi-agent
// planner with critic review. LLM-backed strategies are wrapped in a
// circuit breaker that falls back to least-cost on any failure.
package strategy

import (
	"context"

	"github.com/KestrelPay/router/internal/routing"
)

// Fixed always returns the configured provider. Used for explicit
// overrides and tests.
type Fixed struct {
	provider routing.Provider
}

// NewFixed creates a fixed strategy.
func NewFixed(provider routing.Provider) *Fixed {
	return &Fixed{provider: provider}
}

func (s *Fixed) Name() string {
	return "FixedStrategy"
}

func (s *Fixed) Decide(_ context.Context, _ routing.ChargeRequest, _ []routing.ResolvedProvider) (routing.Decision, error) {
	return routing.Decision{Provider: s.provider, Reason: s.Name()}, nil
}
