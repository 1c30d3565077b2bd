package routing

import "sort"

const (
	// Defaults synthesized for providers known only from the fee table.
	defaultStaticAuthRate  = 0.95
	defaultStaticLatencyMS = 300

	healthDown = "down"
)

// Reconcile merges dimensioned performance records, the static fee
// table, and the health snapshot into the uniform candidate view the
// strategies consume. It is a pure function: no I/O, no suspension.
//
// Merge policy, priority descending:
//  1. A performance record for (dim, provider) contributes cost and
//     observed metrics.
//  2. A provider present only in the fee table is synthesized with the
//     static fee and default metrics.
//  3. Providers whose health status is "down" are excluded.
//
// The result is sorted by the stable provider ordering so callers see a
// deterministic list.
func Reconcile(dim RoutingDimension, fees *FeeTable, performance []ProviderPerformance, health map[string]string) []ResolvedProvider {
	resolved := make(map[Provider]ResolvedProvider)

	for _, perf := range performance {
		resolved[perf.Provider] = ResolvedProvider{
			Provider:           perf.Provider,
			FixedFee:           perf.Metrics.CostStructure.FixedFee,
			VariableFeePercent: perf.Metrics.CostStructure.VariableFeePercent,
			AuthRate:           perf.Metrics.AuthRate,
			AvgLatencyMS:       perf.Metrics.AvgLatencyMS,
		}
	}

	for provider, fee := range fees.ForDimension(dim) {
		if _, ok := resolved[provider]; ok {
			continue
		}
		resolved[provider] = ResolvedProvider{
			Provider:           provider,
			FixedFee:           fee.FixedFee,
			VariableFeePercent: fee.VariableFeePercent,
			AuthRate:           defaultStaticAuthRate,
			AvgLatencyMS:       defaultStaticLatencyMS,
		}
	}

	out := make([]ResolvedProvider, 0, len(resolved))
	for provider, rp := range resolved {
		if health[string(provider)] == healthDown {
			continue
		}
		out = append(out, rp)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Provider.rank() < out[j].Provider.rank()
	})
	return out
}
