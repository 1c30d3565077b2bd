// Package routing holds the routing domain types and the decision
// engine: dimensions, performance records, the reconciler, and the
// strategy contract.
package routing

import (
	"context"

	"github.com/KestrelPay/router/internal/metadata"
)

// CostStructure is the fee shape of a provider for a dimension. All
// fields are non-negative.
type CostStructure struct {
	VariableFeePercent        float64 `json:"variable_fee_percent"`
	FixedFee                  float64 `json:"fixed_fee"`
	InterchangePlusBasisPoints float64 `json:"interchange_plus_basis_points,omitempty"`
}

// PerformanceMetrics is the observed behavior of a provider for a
// dimension. AuthRate and FraudRate are in [0,1].
type PerformanceMetrics struct {
	AuthRate      float64       `json:"auth_rate"`
	FraudRate     float64       `json:"fraud_rate"`
	AvgLatencyMS  int           `json:"avg_latency_ms"`
	CostStructure CostStructure `json:"cost_structure"`
}

// ProviderPerformance is one dimensioned performance record. The
// intelligence repository holds at most one per (provider, dimension).
type ProviderPerformance struct {
	Provider   Provider           `json:"provider"`
	Dimension  RoutingDimension   `json:"dimension"`
	Metrics    PerformanceMetrics `json:"metrics"`
	DataWindow string             `json:"data_window"`
}

// ResolvedProvider is the per-decision materialized view of a candidate
// provider with finalized cost and performance numbers. Produced fresh
// per routing call, never persisted.
type ResolvedProvider struct {
	Provider           Provider `json:"provider"`
	FixedFee           float64  `json:"fixed_fee"`
	VariableFeePercent float64  `json:"variable_fee_percent"`
	AuthRate           float64  `json:"auth_rate"`
	AvgLatencyMS       int      `json:"avg_latency_ms"`
}

// TotalCost computes the expected fee for a transaction amount.
func (r ResolvedProvider) TotalCost(amount float64) float64 {
	return r.FixedFee + amount*(r.VariableFeePercent/100)
}

// PaymentMethodHint carries the sparse payment method details attached
// to a charge request for dimension derivation.
type PaymentMethodHint struct {
	Type               string `json:"type"` // credit_card, debit_card
	BIN                string `json:"bin,omitempty"`
	IsNetworkTokenized bool   `json:"is_network_tokenized,omitempty"`
	PaymentForm        string `json:"payment_form,omitempty"` // card_on_file, apple_pay, google_pay
}

// ChargeRequest is the routing input: what the orchestrator knows about
// a charge before a provider is chosen. Enrichment fields are populated
// by orchestration, not by callers.
type ChargeRequest struct {
	MerchantID     string   `json:"merchant_id"`
	CustomerID     string   `json:"customer_id"`
	Amount         float64  `json:"amount"`
	Currency       string   `json:"currency"`
	Description    string   `json:"description,omitempty"`
	Provider       Provider `json:"provider,omitempty"` // explicit override
	SubscriptionID string   `json:"subscription_id,omitempty"`

	// Enriched context for agentic routing.
	PaymentMethod   *PaymentMethodHint        `json:"payment_method,omitempty"`
	BINMetadata     *metadata.CardBIN         `json:"bin_metadata,omitempty"`
	InterchangeFees []metadata.InterchangeFee `json:"interchange_fees,omitempty"`
	ProviderHealth  map[string]string         `json:"provider_health,omitempty"`
}

// DecisionStrategy makes the final routing decision from the request
// and the reconciled candidate list. Implementations must return a
// member of the provider enumeration. The decision's Reason becomes the
// payment's audit string.
type DecisionStrategy interface {
	Decide(ctx context.Context, req ChargeRequest, providers []ResolvedProvider) (Decision, error)
	Name() string
}

// PerformanceSource is the read side of the intelligence repository as
// the engine consumes it.
type PerformanceSource interface {
	FindByDimension(ctx context.Context, dim RoutingDimension) ([]ProviderPerformance, error)
}

// HealthSource reads the provider health snapshot. Implementations
// return "up" or "down" per provider; absent providers are "up".
type HealthSource interface {
	Snapshot(ctx context.Context, providers []Provider) (map[string]string, error)
}

// BINSource resolves BIN prefixes to card metadata.
type BINSource interface {
	FindByBIN(ctx context.Context, prefix string) (metadata.CardBIN, bool, error)
}

// InterchangeSource supplies the interchange rule table attached to the
// routing context for network-aware strategies.
type InterchangeSource interface {
	ListAll(ctx context.Context) ([]metadata.InterchangeFee, error)
}
