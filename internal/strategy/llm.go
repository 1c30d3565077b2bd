package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/KestrelPay/router/internal/llm"
	"github.com/KestrelPay/router/internal/routing"
)

// newBreaker builds the circuit breaker shared by the LLM-backed
// strategies: trips after 5 consecutive failures, probes again after
// 30 seconds.
func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}

// LLM is the single-shot strategy: it serializes the request and the
// resolved providers into one prompt, demands a strict JSON object
// {"best_provider", "reasoning"}, and validates the answer against the
// provider enumeration. Any failure falls back to least-cost on the
// same inputs; no error escapes Decide.
type LLM struct {
	client    llm.Client
	model     string
	objective string
	fallback  *LeastCost
	breaker   *gobreaker.CircuitBreaker
	logger    zerolog.Logger
}

// NewLLM creates the single-shot LLM strategy.
func NewLLM(client llm.Client, model, objective string, logger zerolog.Logger) *LLM {
	return &LLM{
		client:    client,
		model:     model,
		objective: objective,
		fallback:  NewLeastCost(),
		breaker:   newBreaker("llm_strategy"),
		logger:    logger,
	}
}

func (s *LLM) Name() string {
	return "LLMStrategy"
}

// decisionPayload is the strict response shape demanded from the model.
type decisionPayload struct {
	BestProvider string `json:"best_provider"`
	Reasoning    string `json:"reasoning"`
}

func (s *LLM) Decide(ctx context.Context, req routing.ChargeRequest, providers []routing.ResolvedProvider) (routing.Decision, error) {
	result, err := s.breaker.Execute(func() (any, error) {
		return s.decideOnce(ctx, req, providers)
	})
	if err != nil {
		s.logger.Warn().Err(err).
			Str("strategy", s.Name()).
			Msg("strategy.circuit_breaker_engaged")
		decision, fbErr := s.fallback.Decide(ctx, req, providers)
		if fbErr != nil {
			return routing.Decision{}, fbErr
		}
		decision.Reason = s.fallback.Name() + " (circuit breaker)"
		return decision, nil
	}
	return result.(routing.Decision), nil
}

func (s *LLM) decideOnce(ctx context.Context, req routing.ChargeRequest, providers []routing.ResolvedProvider) (routing.Decision, error) {
	providersJSON, err := json.Marshal(providers)
	if err != nil {
		return routing.Decision{}, err
	}
	requestJSON, err := json.Marshal(req)
	if err != nil {
		return routing.Decision{}, err
	}

	prompt := fmt.Sprintf(`You are an intelligent payment routing engine.
Objective: %s

--- RESOLVED PROVIDER DATA ---
PROVIDERS: %s
TRANSACTION: %s

--- INSTRUCTION ---
Select the best provider according to the objective.
Each provider record contains the final reconciled cost and performance metrics.

Return ONLY a JSON object: {"best_provider": "...", "reasoning": "..."}`,
		s.objective, providersJSON, requestJSON)

	content, err := s.client.ChatJSON(ctx, s.model, []llm.Message{
		{Role: "system", Content: "You are a precise routing engine."},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return routing.Decision{}, err
	}

	var payload decisionPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return routing.Decision{}, fmt.Errorf("llm strategy: malformed response: %w", err)
	}

	provider, err := routing.ParseProvider(payload.BestProvider)
	if err != nil {
		return routing.Decision{}, fmt.Errorf("llm strategy: %w", err)
	}

	return routing.Decision{Provider: provider, Reason: s.Name()}, nil
}
