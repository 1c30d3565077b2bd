package feedback

import (
	"github.com/KestrelPay/router/internal/ingestion"
	"github.com/KestrelPay/router/internal/payments"
	"github.com/KestrelPay/router/internal/timeutil"
)

// placeholderLatencyMS stands in until adapters report real timing.
const placeholderLatencyMS = 250

// Collector maps terminal payments into canonical transaction records
// and stages them. Called synchronously at the end of a charge; the
// store drain into the aggregator happens on its own tick.
type Collector struct {
	store Store
}

// NewCollector creates a collector writing into the given store.
func NewCollector(store Store) *Collector {
	return &Collector{store: store}
}

// Collect converts a payment into a RawTransactionRecord. Status folds
// to "succeeded" iff the payment completed. Fields the payment does not
// carry are filled with documented defaults: card-on-file form,
// standard processing, visa/credit/domestic card context, and a
// placeholder BIN.
func (c *Collector) Collect(payment payments.Payment) {
	status := ingestion.StatusFailed
	errorCode := "processor_error"
	if payment.Status == payments.StatusCompleted {
		status = ingestion.StatusSucceeded
		errorCode = ""
	}

	timestamp := payment.UpdatedAt
	if timestamp.IsZero() {
		timestamp = timeutil.NowUTC()
	}

	c.store.Add(ingestion.RawTransactionRecord{
		Provider:       payment.Provider,
		PaymentForm:    "card_on_file",
		ProcessingType: "standard",
		Amount:         payment.Amount,
		Currency:       payment.Currency,
		Status:         status,
		ErrorCode:      errorCode,
		LatencyMS:      placeholderLatencyMS,
		BIN:            "000000",
		CardType:       "credit",
		Network:        "visa",
		Region:         "domestic",
		Timestamp:      timeutil.NormalizeUTC(timestamp),
	})
}
