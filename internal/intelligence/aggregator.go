package intelligence

import (
	"sort"

	"github.com/KestrelPay/router/internal/ingestion"
	"github.com/KestrelPay/router/internal/routing"
)

// batchWindow labels records produced by one aggregation pass.
const batchWindow = "batch"

// placeholderFraudRate stands in until a real fraud signal is ingested.
const placeholderFraudRate = 0.01

// Aggregator folds raw transaction records into performance metrics
// grouped by (provider, derived dimension). It is deterministic and
// pure: re-running on the same input yields identical output, and the
// result is a function of the multiset of records, not their order.
type Aggregator struct {
	defaultFixedFee       float64
	defaultVariableFeePct float64

	// dynamicDimensions names extra-field keys promoted from each
	// record into the dimension, producing finer-grained buckets.
	dynamicDimensions []string
}

// NewAggregator creates an aggregator with the configured default cost
// structure applied to every emitted record.
func NewAggregator(defaultFixedFee, defaultVariableFeePct float64) *Aggregator {
	return &Aggregator{
		defaultFixedFee:       defaultFixedFee,
		defaultVariableFeePct: defaultVariableFeePct,
	}
}

// WithDynamicDimensions returns a copy configured to promote the given
// extra-field keys into dimensions.
func (a *Aggregator) WithDynamicDimensions(keys ...string) *Aggregator {
	clone := *a
	clone.dynamicDimensions = append([]string(nil), keys...)
	return &clone
}

// Analyze groups records by (provider, dimension) and computes one
// ProviderPerformance per group. An empty batch yields no emissions.
func (a *Aggregator) Analyze(records []ingestion.RawTransactionRecord) []routing.ProviderPerformance {
	type group struct {
		provider routing.Provider
		dim      routing.RoutingDimension
		total    int
		success  int
		latency  int64
	}

	groups := make(map[string]*group)
	var order []string

	for _, record := range records {
		dim := a.deriveDimension(record)
		key := string(record.Provider) + "|" + dim.CanonicalKey()
		g, ok := groups[key]
		if !ok {
			g = &group{provider: record.Provider, dim: dim}
			groups[key] = g
			order = append(order, key)
		}
		g.total++
		if record.Status == ingestion.StatusSucceeded {
			g.success++
		}
		g.latency += int64(record.LatencyMS)
	}

	// Emit in provider/dimension order so output is stable regardless
	// of input order.
	sort.Strings(order)

	results := make([]routing.ProviderPerformance, 0, len(groups))
	for _, key := range order {
		g := groups[key]
		results = append(results, routing.ProviderPerformance{
			Provider:  g.provider,
			Dimension: g.dim,
			Metrics: routing.PerformanceMetrics{
				AuthRate:     float64(g.success) / float64(g.total),
				FraudRate:    placeholderFraudRate,
				AvgLatencyMS: int(g.latency / int64(g.total)),
				CostStructure: routing.CostStructure{
					FixedFee:           a.defaultFixedFee,
					VariableFeePercent: a.defaultVariableFeePct,
				},
			},
			DataWindow: batchWindow,
		})
	}
	return results
}

// deriveDimension maps a record's fields into the routing dimension,
// promoting configured dynamic extras.
func (a *Aggregator) deriveDimension(record ingestion.RawTransactionRecord) routing.RoutingDimension {
	dim := routing.RoutingDimension{
		PaymentMethodType: "credit_card",
		PaymentForm:       record.PaymentForm,
		Network:           record.Network,
		CardType:          record.CardType,
		Region:            record.Region,
		Currency:          record.Currency,
	}
	for _, key := range a.dynamicDimensions {
		if value, ok := record.ExtraFields[key]; ok {
			dim = dim.WithExtra(key, value)
		}
	}
	return dim
}
