package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/KestrelPay/router/internal/llm"
	"github.com/KestrelPay/router/internal/routing"
)

// PlanStep is one step of a generated routing plan.
type PlanStep struct {
	Agent  string `json:"agent"`
	Reason string `json:"reason"`
}

// Planner is the multi-agent strategy. Each decision runs a small,
// finite execution graph:
//
//	plan -> specialists -> supervisor proposal -> critic review
//
// The critic is always invoked last; if it rejects the proposal and
// names a valid override, the override replaces the proposal. Any
// failure anywhere in the pipeline falls back to least-cost on the same
// inputs; no error escapes Decide.
type Planner struct {
	client       llm.Client
	model        string
	objective    string
	capabilities []capability
	fallback     *LeastCost
	breaker      *gobreaker.CircuitBreaker
	logger       zerolog.Logger
}

// NewPlanner creates the planner strategy with the default specialist
// capability set.
func NewPlanner(client llm.Client, model, objective string, logger zerolog.Logger) *Planner {
	return &Planner{
		client:       client,
		model:        model,
		objective:    objective,
		capabilities: defaultCapabilities(),
		fallback:     NewLeastCost(),
		breaker:      newBreaker("planner_strategy"),
		logger:       logger,
	}
}

func (s *Planner) Name() string {
	return "PlannerStrategy"
}

func (s *Planner) Decide(ctx context.Context, req routing.ChargeRequest, providers []routing.ResolvedProvider) (routing.Decision, error) {
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

func (s *Planner) decideOnce(ctx context.Context, req routing.ChargeRequest, providers []routing.ResolvedProvider) (routing.Decision, error) {
	// Flat context bundle keyed by component name. Specialists read it;
	// only the pipeline itself adds keys.
	bundle := map[string]any{
		"payment":          req,
		"providers":        providers,
		"bin_metadata":     req.BINMetadata,
		"interchange_fees": req.InterchangeFees,
		"provider_health":  req.ProviderHealth,
	}

	plan, err := s.generatePlan(ctx, bundle)
	if err != nil {
		return routing.Decision{}, err
	}
	s.logger.Debug().Int("steps", len(plan)).Msg("planner.plan_generated")

	evidence, err := s.executePlan(ctx, plan, bundle)
	if err != nil {
		return routing.Decision{}, err
	}

	proposal, err := s.propose(ctx, bundle, evidence)
	if err != nil {
		return routing.Decision{}, err
	}

	provider, err := routing.ParseProvider(proposal.BestProvider)
	if err != nil {
		return routing.Decision{}, fmt.Errorf("planner: supervisor proposal: %w", err)
	}
	decision := routing.Decision{Provider: provider, Reason: s.Name()}

	// Self-correction: critic review of the proposal against hard
	// constraints (never route to a down provider).
	bundle["proposed_decision"] = proposal
	bundle["agent_evidence"] = evidence

	verdict, err := runCritic(ctx, s.client, s.model, bundle)
	if err != nil {
		return routing.Decision{}, fmt.Errorf("planner: critic: %w", err)
	}

	if isValid, ok := verdict["is_valid"].(bool); ok && !isValid {
		override, _ := verdict["recommended_override"].(string)
		feedback, _ := verdict["feedback"].(string)
		if overrideProvider, parseErr := routing.ParseProvider(override); parseErr == nil {
			s.logger.Info().
				Str("proposed", string(provider)).
				Str("override", string(overrideProvider)).
				Str("feedback", feedback).
				Msg("planner.critic_override")
			decision.Provider = overrideProvider
			decision.Reason = fmt.Sprintf("%s (Critic override: %s)", s.Name(), feedback)
		}
	}

	return decision, nil
}

// generatePlan asks the planner prompt for an ordered list of
// specialist steps. Unknown agents are dropped at execution time, so
// the plan is bounded by the registered capability set.
func (s *Planner) generatePlan(ctx context.Context, bundle map[string]any) ([]PlanStep, error) {
	var descriptions strings.Builder
	for _, cap := range s.capabilities {
		fmt.Fprintf(&descriptions, "- %s: %s\n", cap.name, cap.description)
	}

	prompt := fmt.Sprintf(`You are a Routing Planner for a payment engine.
Objective: %s
Transaction: %s

Available Capabilities:
%s
Generate a step-by-step execution plan to reach the routing decision.
Return a JSON object with a 'plan' key containing a list of steps.
Each step must have: 'agent' (name of the capability) and 'reason'.

Example:
{
    "plan": [
        {"agent": "CostAnalyst", "reason": "Determine cheapest options first"},
        {"agent": "PerformanceAnalyst", "reason": "Check reliability of the cheapest options"}
    ]
}`, s.objective, bundleJSON(bundle, "payment"), descriptions.String())

	content, err := s.client.ChatJSON(ctx, s.model, []llm.Message{
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Plan []PlanStep `json:"plan"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("planner: malformed plan: %w", err)
	}
	return payload.Plan, nil
}

// executePlan invokes each planned specialist with the full context
// bundle and collects verdicts keyed by agent name. Steps naming
// unknown agents, or agents that already ran, are skipped.
func (s *Planner) executePlan(ctx context.Context, plan []PlanStep, bundle map[string]any) (map[string]any, error) {
	evidence := make(map[string]any)
	for _, step := range plan {
		cap, ok := s.capabilityByName(step.Agent)
		if !ok {
			continue
		}
		// One verdict per agent; a repeated step is skipped, so each
		// capability runs at most once per plan.
		if _, done := evidence[step.Agent]; done {
			continue
		}
		s.logger.Debug().
			Str("agent", step.Agent).
			Str("reason", step.Reason).
			Msg("planner.executing_agent")
		verdict, err := cap.run(ctx, s.client, s.model, bundle)
		if err != nil {
			return nil, fmt.Errorf("planner: %s: %w", step.Agent, err)
		}
		evidence[step.Agent] = verdict
	}
	return evidence, nil
}

func (s *Planner) capabilityByName(name string) (capability, bool) {
	for _, cap := range s.capabilities {
		if cap.name == name {
			return cap, true
		}
	}
	return capability{}, false
}

// propose asks the supervisor prompt to synthesize a preliminary
// decision from the evidence map.
func (s *Planner) propose(ctx context.Context, bundle map[string]any, evidence map[string]any) (decisionPayload, error) {
	evidenceJSON, err := json.Marshal(evidence)
	if err != nil {
		return decisionPayload{}, err
	}

	prompt := fmt.Sprintf(`You are the Routing Supervisor.
Objective: %s
Transaction: %s

--- AGENT EVIDENCE ---
%s

--- INSTRUCTION ---
Based on the technical evidence, propose the best provider.
Return ONLY a JSON object: {"best_provider": "...", "reasoning": "..."}`,
		s.objective, bundleJSON(bundle, "payment"), evidenceJSON)

	content, err := s.client.ChatJSON(ctx, s.model, []llm.Message{
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return decisionPayload{}, err
	}

	var proposal decisionPayload
	if err := json.Unmarshal([]byte(content), &proposal); err != nil {
		return decisionPayload{}, fmt.Errorf("planner: malformed proposal: %w", err)
	}
	return proposal, nil
}
