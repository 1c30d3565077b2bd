// Package ingestion turns vendor transaction reports and internal
// feedback into canonical records for the intelligence aggregator.
package ingestion

import (
	"context"
	"time"

	"github.com/KestrelPay/router/internal/routing"
)

// Record statuses as they appear in canonical form.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// RawTransactionRecord is the standardized internal representation of a
// single transaction outcome ingested from external or internal
// sources. Records are append-only.
type RawTransactionRecord struct {
	Provider       routing.Provider  `json:"provider"`
	PaymentForm    string            `json:"payment_form"`    // card_on_file, apple_pay, google_pay
	ProcessingType string            `json:"processing_type"` // signature, network_token, pinless
	Amount         float64           `json:"amount"`
	Currency       string            `json:"currency"`
	Status         string            `json:"status"` // succeeded, failed, declined
	ErrorCode      string            `json:"error_code,omitempty"`
	LatencyMS      int               `json:"latency_ms"`
	BIN            string            `json:"bin"`
	CardType       string            `json:"card_type"` // credit, debit
	Network        string            `json:"network"`   // visa, mastercard
	Region         string            `json:"region"`    // domestic, international
	Timestamp      time.Time         `json:"timestamp"`
	ExtraFields    map[string]string `json:"extra_fields,omitempty"`
}

// DataProvider supplies batches of canonical records to the ingestor.
type DataProvider interface {
	FetchData(ctx context.Context) ([]RawTransactionRecord, error)
}
