package routing

import (
	"encoding/json"
	"sort"
)

// RoutingDimension is the slice of traffic context used to look up
// performance metrics. It is a value type; equality is structural
// equality of all fields including the extras map.
type RoutingDimension struct {
	PaymentMethodType  string `json:"payment_method_type"`
	PaymentForm        string `json:"payment_form"`
	Network            string `json:"network"`
	CardType           string `json:"card_type"`
	Region             string `json:"region"`
	Currency           string `json:"currency"`
	IsNetworkTokenized bool   `json:"is_network_tokenized"`

	// Extras carries dynamic dimension fields promoted from ingestion
	// (e.g. merchant_category). Kept separate from the fixed core so
	// equality and serialization stay deterministic.
	Extras map[string]string `json:"extras,omitempty"`
}

// DefaultDimension returns the baseline card-on-file dimension used
// when no enrichment is available.
func DefaultDimension(currency string) RoutingDimension {
	if currency == "" {
		currency = "USD"
	}
	return RoutingDimension{
		PaymentMethodType: "credit_card",
		PaymentForm:       "card_on_file",
		Network:           "unknown",
		CardType:          "unknown",
		Region:            "domestic",
		Currency:          currency,
	}
}

// WithExtra returns a copy of the dimension with one extra field set.
func (d RoutingDimension) WithExtra(key, value string) RoutingDimension {
	extras := make(map[string]string, len(d.Extras)+1)
	for k, v := range d.Extras {
		extras[k] = v
	}
	extras[key] = value
	d.Extras = extras
	return d
}

// Equal reports structural equality including extras.
func (d RoutingDimension) Equal(other RoutingDimension) bool {
	return d.CanonicalKey() == other.CanonicalKey()
}

// canonicalForm mirrors RoutingDimension with extras as a sorted slice
// so the serialized key is independent of map iteration order.
type canonicalForm struct {
	PaymentMethodType  string      `json:"payment_method_type"`
	PaymentForm        string      `json:"payment_form"`
	Network            string      `json:"network"`
	CardType           string      `json:"card_type"`
	Region             string      `json:"region"`
	Currency           string      `json:"currency"`
	IsNetworkTokenized bool        `json:"is_network_tokenized"`
	Extras             [][2]string `json:"extras,omitempty"`
}

// CanonicalKey derives the stable storage key for this dimension.
// Field order is fixed and extras are sorted by key, so logically equal
// dimensions always collide in storage.
func (d RoutingDimension) CanonicalKey() string {
	form := canonicalForm{
		PaymentMethodType:  d.PaymentMethodType,
		PaymentForm:        d.PaymentForm,
		Network:            d.Network,
		CardType:           d.CardType,
		Region:             d.Region,
		Currency:           d.Currency,
		IsNetworkTokenized: d.IsNetworkTokenized,
	}
	if len(d.Extras) > 0 {
		keys := make([]string, 0, len(d.Extras))
		for k := range d.Extras {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			form.Extras = append(form.Extras, [2]string{k, d.Extras[k]})
		}
	}
	// Marshal of a struct with fixed field order cannot fail.
	data, _ := json.Marshal(form)
	return string(data)
}
