package strategy

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/KestrelPay/router/internal/llm"
)

// Specialist agent names as the planner addresses them.
const (
	AgentCostAnalyst         = "CostAnalyst"
	AgentPerformanceAnalyst  = "PerformanceAnalyst"
	AgentNetworkIntelligence = "NetworkIntelligence"
	AgentHealthSentinel      = "HealthSentinel"
	AgentCritic              = "Critic"
)

// specialist runs one analysis over the shared context bundle and
// returns a structured JSON verdict. Specialists never mutate the
// bundle or each other's outputs.
type specialist func(ctx context.Context, client llm.Client, model string, bundle map[string]any) (map[string]any, error)

// capability pairs a specialist with the description the planner prompt
// advertises.
type capability struct {
	name        string
	description string
	run         specialist
}

// defaultCapabilities is the bounded set of planner-addressable agents.
// Plan length is bounded by this set, so planner execution is bounded.
func defaultCapabilities() []capability {
	return []capability{
		{
			name:        AgentCostAnalyst,
			description: "Analyzes fee structures to find the cheapest provider.",
			run:         runCostAnalyst,
		},
		{
			name:        AgentPerformanceAnalyst,
			description: "Analyzes auth rates and latency to find the most reliable provider.",
			run:         runPerformanceAnalyst,
		},
		{
			name:        AgentNetworkIntelligence,
			description: "Analyzes BIN metadata and interchange fees for network-specific optimizations.",
			run:         runNetworkIntelligence,
		},
		{
			name:        AgentHealthSentinel,
			description: "Assesses real-time provider health status.",
			run:         runHealthSentinel,
		},
	}
}

// askJSON sends one prompt and parses the strict-JSON reply into a map.
func askJSON(ctx context.Context, client llm.Client, model, prompt string) (map[string]any, error) {
	content, err := client.ChatJSON(ctx, model, []llm.Message{
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("specialist: malformed response: %w", err)
	}
	return out, nil
}

func bundleJSON(bundle map[string]any, key string) string {
	data, err := json.Marshal(bundle[key])
	if err != nil {
		return "null"
	}
	return string(data)
}

func runCostAnalyst(ctx context.Context, client llm.Client, model string, bundle map[string]any) (map[string]any, error) {
	prompt := fmt.Sprintf(`You are a Cost Analyst Agent for a payment system.
Analyze the following resolved provider data and payment details to recommend the cheapest provider.
Each provider record contains a reconciled cost structure (fixed_fee and variable_fee_percent).

PROVIDERS (Resolved): %s
PAYMENT: %s

Return a JSON object: {"analysis": "...", "recommended_provider": "...", "confidence": 0.0-1.0}`,
		bundleJSON(bundle, "providers"), bundleJSON(bundle, "payment"))
	return askJSON(ctx, client, model, prompt)
}

func runPerformanceAnalyst(ctx context.Context, client llm.Client, model string, bundle map[string]any) (map[string]any, error) {
	prompt := fmt.Sprintf(`You are a Performance Analyst Agent for a payment system.
Analyze the following resolved provider data and recommend the most reliable provider.

PROVIDERS (Resolved): %s

Return a JSON object: {"analysis": "...", "recommended_provider": "...", "confidence": 0.0-1.0}`,
		bundleJSON(bundle, "providers"))
	return askJSON(ctx, client, model, prompt)
}

func runNetworkIntelligence(ctx context.Context, client llm.Client, model string, bundle map[string]any) (map[string]any, error) {
	prompt := fmt.Sprintf(`You are a Network Intelligence Agent.
Analyze the card metadata and interchange rules to identify cost optimization opportunities.

BIN METADATA: %s
INTERCHANGE RULES: %s
PAYMENT: %s

Consider:
1. Is this a debit card? (Usually lower interchange).
2. Is this domestic or international?
3. Which network (Visa/MC/Amex) has the best rate for this category?

Return a JSON object: {"analysis": "...", "preferred_networks": [...], "routing_advice": "..."}`,
		bundleJSON(bundle, "bin_metadata"), bundleJSON(bundle, "interchange_fees"), bundleJSON(bundle, "payment"))
	return askJSON(ctx, client, model, prompt)
}

func runHealthSentinel(ctx context.Context, client llm.Client, model string, bundle map[string]any) (map[string]any, error) {
	prompt := fmt.Sprintf(`You are a Health Sentinel Agent.
Assess the operational status of payment providers.

HEALTH STATUS: %s

Identify any providers that are DOWN or exhibiting degraded performance.

Return a JSON object: {"analysis": "...", "unhealthy_providers": [...], "critical_alerts": [...]}`,
		bundleJSON(bundle, "provider_health"))
	return askJSON(ctx, client, model, prompt)
}

// runCritic reviews a proposed decision against hard constraints. It is
// always invoked last with the proposal, the evidence map, and the
// health snapshot.
func runCritic(ctx context.Context, client llm.Client, model string, bundle map[string]any) (map[string]any, error) {
	prompt := fmt.Sprintf(`You are a Routing Critic Agent.
Your job is to review the proposed routing decision and ensure it is safe and logical.

PROPOSED DECISION: %s
AGENT EVIDENCE: %s
PROVIDER HEALTH: %s

CRITICAL RULES:
1. Never route to a provider that is marked as DOWN.
2. If the proposed provider has significantly lower confidence in evidence, flag it.

Return a JSON object: {"is_valid": true/false, "feedback": "...", "recommended_override": "..."}`,
		bundleJSON(bundle, "proposed_decision"), bundleJSON(bundle, "agent_evidence"), bundleJSON(bundle, "provider_health"))
	return askJSON(ctx, client, model, prompt)
}
