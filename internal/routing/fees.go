package routing

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FeeStructure is one static fee table row. Region and CardType narrow
// the row's applicability; empty means any.
type FeeStructure struct {
	Provider           Provider `json:"provider" yaml:"provider"`
	Region             string   `json:"region,omitempty" yaml:"region"`
	CardType           string   `json:"card_type,omitempty" yaml:"card_type"`
	FixedFee           float64  `json:"fixed_fee" yaml:"fixed_fee"`
	VariableFeePercent float64  `json:"variable_fee_percent" yaml:"variable_fee_percent"`
}

// FeeTable is the static provider fee configuration consulted when no
// performance record exists for a provider.
type FeeTable struct {
	fees []FeeStructure
}

// DefaultFeeTable returns the built-in fee rows.
func DefaultFeeTable() *FeeTable {
	return &FeeTable{fees: []FeeStructure{
		{Provider: ProviderStripe, Region: "domestic", FixedFee: 0.30, VariableFeePercent: 2.9},
		{Provider: ProviderStripe, Region: "international", FixedFee: 0.30, VariableFeePercent: 3.9},
		{Provider: ProviderAdyen, Region: "domestic", FixedFee: 0.12, VariableFeePercent: 2.6},
		{Provider: ProviderBraintree, Region: "domestic", FixedFee: 0.49, VariableFeePercent: 2.59},
		{Provider: ProviderInternal, Region: "domestic", CardType: "debit", FixedFee: 0.25, VariableFeePercent: 1.0},
		{Provider: ProviderInternal, FixedFee: 0.50, VariableFeePercent: 2.5},
	}}
}

// NewFeeTable builds a table from explicit rows; used by tests and by
// callers that load fees from elsewhere.
func NewFeeTable(fees []FeeStructure) *FeeTable {
	return &FeeTable{fees: fees}
}

// LoadFeeTable reads fee rows from a YAML file of the form:
//
//	fees:
//	  - provider: stripe
//	    region: domestic
//	    fixed_fee: 0.30
//	    variable_fee_percent: 2.9
func LoadFeeTable(path string) (*FeeTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fee table: %w", err)
	}
	var doc struct {
		Fees []FeeStructure `yaml:"fees"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse fee table: %w", err)
	}
	for _, fee := range doc.Fees {
		if !fee.Provider.Valid() {
			return nil, fmt.Errorf("fee table: unknown provider %q", fee.Provider)
		}
		if fee.FixedFee < 0 || fee.VariableFeePercent < 0 {
			return nil, fmt.Errorf("fee table: negative fee for %s", fee.Provider)
		}
	}
	return &FeeTable{fees: doc.Fees}, nil
}

// All returns every fee row.
func (t *FeeTable) All() []FeeStructure {
	out := make([]FeeStructure, len(t.fees))
	copy(out, t.fees)
	return out
}

// ForDimension returns the best-matching fee row per provider for the
// given dimension. A row matches when its region and card type are
// empty or equal to the dimension's; more specific rows win.
func (t *FeeTable) ForDimension(dim RoutingDimension) map[Provider]FeeStructure {
	best := make(map[Provider]FeeStructure)
	bestScore := make(map[Provider]int)
	for _, fee := range t.fees {
		score := 0
		if fee.Region != "" {
			if fee.Region != dim.Region {
				continue
			}
			score++
		}
		if fee.CardType != "" {
			if fee.CardType != dim.CardType {
				continue
			}
			score++
		}
		if prev, ok := bestScore[fee.Provider]; !ok || score > prev {
			best[fee.Provider] = fee
			bestScore[fee.Provider] = score
		}
	}
	return best
}
