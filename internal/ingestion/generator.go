package ingestion

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/KestrelPay/router/internal/routing"
)

// Generator produces synthetic transaction records for seeding and
// tests. It is seeded, so a given seed always yields the same batch.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator with the given seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

var (
	generatorProviders = []routing.Provider{
		routing.ProviderStripe,
		routing.ProviderAdyen,
		routing.ProviderBraintree,
	}
	generatorNetworks  = []string{"visa", "mastercard", "amex"}
	generatorCardTypes = []string{"credit", "debit"}
	generatorRegions   = []string{"domestic", "international"}
	generatorForms     = []string{"card_on_file", "apple_pay", "google_pay"}
)

// successRates bias generated outcomes per provider so aggregated auth
// rates differ meaningfully between them.
var successRates = map[routing.Provider]float64{
	routing.ProviderStripe:    0.96,
	routing.ProviderAdyen:     0.93,
	routing.ProviderBraintree: 0.90,
}

// Batch generates n records timestamped within the day before base.
func (g *Generator) Batch(n int, base time.Time) []RawTransactionRecord {
	records := make([]RawTransactionRecord, 0, n)
	for i := 0; i < n; i++ {
		provider := generatorProviders[g.rng.Intn(len(generatorProviders))]
		status := StatusFailed
		errorCode := "do_not_honor"
		if g.rng.Float64() < successRates[provider] {
			status = StatusSucceeded
			errorCode = ""
		}
		records = append(records, RawTransactionRecord{
			Provider:       provider,
			PaymentForm:    generatorForms[g.rng.Intn(len(generatorForms))],
			ProcessingType: "signature",
			Amount:         float64(g.rng.Intn(49000)+1000) / 100,
			Currency:       "USD",
			Status:         status,
			ErrorCode:      errorCode,
			LatencyMS:      g.rng.Intn(400) + 100,
			BIN:            fmt.Sprintf("4%05d", g.rng.Intn(100000)),
			CardType:       generatorCardTypes[g.rng.Intn(len(generatorCardTypes))],
			Network:        generatorNetworks[g.rng.Intn(len(generatorNetworks))],
			Region:         generatorRegions[g.rng.Intn(len(generatorRegions))],
			Timestamp:      base.Add(-time.Duration(g.rng.Intn(86400)) * time.Second),
			ExtraFields: map[string]string{
				"merchant_category": fmt.Sprintf("mcc_%d", 5000+g.rng.Intn(1000)),
			},
		})
	}
	return records
}
