package intelligence

import (
	"math"
	"testing"
	"time"

	"github.com/KestrelPay/router/internal/ingestion"
	"github.com/KestrelPay/router/internal/routing"
)

func rawRecord(p routing.Provider, status string, latency int) ingestion.RawTransactionRecord {
	return ingestion.RawTransactionRecord{
		Provider:       p,
		PaymentForm:    "card_on_file",
		ProcessingType: "signature",
		Amount:         42.00,
		Currency:       "USD",
		Status:         status,
		LatencyMS:      latency,
		BIN:            "411111",
		CardType:       "credit",
		Network:        "visa",
		Region:         "domestic",
		Timestamp:      time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestAggregator_AuthRate(t *testing.T) {
	// Eleven records, ten succeeded: auth rate 10/11, latency constant.
	var records []ingestion.RawTransactionRecord
	for i := 0; i < 10; i++ {
		records = append(records, rawRecord(routing.ProviderStripe, ingestion.StatusSucceeded, 200))
	}
	records = append(records, rawRecord(routing.ProviderStripe, ingestion.StatusFailed, 200))

	results := NewAggregator(0.30, 2.9).Analyze(records)
	if len(results) != 1 {
		t.Fatalf("expected 1 performance row, got %d", len(results))
	}

	perf := results[0]
	if math.Abs(perf.Metrics.AuthRate-10.0/11.0) > 1e-9 {
		t.Errorf("expected auth rate 10/11, got %v", perf.Metrics.AuthRate)
	}
	if perf.Metrics.AvgLatencyMS != 200 {
		t.Errorf("expected avg latency 200, got %d", perf.Metrics.AvgLatencyMS)
	}
	if perf.DataWindow != "batch" {
		t.Errorf("expected data window batch, got %q", perf.DataWindow)
	}
	if perf.Metrics.CostStructure.FixedFee != 0.30 || perf.Metrics.CostStructure.VariableFeePercent != 2.9 {
		t.Errorf("expected configured default cost, got %+v", perf.Metrics.CostStructure)
	}
}

func TestAggregator_OrderInsensitive(t *testing.T) {
	records := []ingestion.RawTransactionRecord{
		rawRecord(routing.ProviderStripe, ingestion.StatusSucceeded, 100),
		rawRecord(routing.ProviderAdyen, ingestion.StatusFailed, 400),
		rawRecord(routing.ProviderStripe, ingestion.StatusFailed, 300),
		rawRecord(routing.ProviderAdyen, ingestion.StatusSucceeded, 200),
	}
	reversed := []ingestion.RawTransactionRecord{records[3], records[2], records[1], records[0]}

	agg := NewAggregator(0.30, 2.9)
	a := agg.Analyze(records)
	b := agg.Analyze(reversed)

	if len(a) != len(b) {
		t.Fatalf("group counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Provider != b[i].Provider ||
			a[i].Metrics.AuthRate != b[i].Metrics.AuthRate ||
			a[i].Metrics.AvgLatencyMS != b[i].Metrics.AvgLatencyMS {
			t.Errorf("result %d differs between orderings: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestAggregator_GroupsByDimension(t *testing.T) {
	domestic := rawRecord(routing.ProviderStripe, ingestion.StatusSucceeded, 100)
	international := rawRecord(routing.ProviderStripe, ingestion.StatusSucceeded, 500)
	international.Region = "international"

	results := NewAggregator(0.30, 2.9).Analyze(
		[]ingestion.RawTransactionRecord{domestic, international})
	if len(results) != 2 {
		t.Fatalf("expected 2 groups for distinct regions, got %d", len(results))
	}
}

func TestAggregator_DynamicDimensions(t *testing.T) {
	grocery := rawRecord(routing.ProviderStripe, ingestion.StatusSucceeded, 100)
	grocery.ExtraFields = map[string]string{"merchant_category": "grocery"}
	travel := rawRecord(routing.ProviderStripe, ingestion.StatusFailed, 100)
	travel.ExtraFields = map[string]string{"merchant_category": "travel"}

	batch := []ingestion.RawTransactionRecord{grocery, travel}

	plain := NewAggregator(0.30, 2.9).Analyze(batch)
	if len(plain) != 1 {
		t.Fatalf("without dynamic dimensions expected 1 group, got %d", len(plain))
	}

	dynamic := NewAggregator(0.30, 2.9).
		WithDynamicDimensions("merchant_category").
		Analyze(batch)
	if len(dynamic) != 2 {
		t.Fatalf("with dynamic dimensions expected 2 groups, got %d", len(dynamic))
	}
	for _, perf := range dynamic {
		if perf.Dimension.Extras["merchant_category"] == "" {
			t.Errorf("expected merchant_category promoted into dimension, got %+v", perf.Dimension)
		}
	}
}

func TestAggregator_EmptyBatch(t *testing.T) {
	if results := NewAggregator(0.30, 2.9).Analyze(nil); len(results) != 0 {
		t.Fatalf("empty batch must yield no emissions, got %d", len(results))
	}
}

func TestAggregator_Deterministic(t *testing.T) {
	records := []ingestion.RawTransactionRecord{
		rawRecord(routing.ProviderStripe, ingestion.StatusSucceeded, 120),
		rawRecord(routing.ProviderAdyen, ingestion.StatusSucceeded, 340),
		rawRecord(routing.ProviderStripe, ingestion.StatusFailed, 80),
	}

	agg := NewAggregator(0.30, 2.9)
	first := agg.Analyze(records)
	second := agg.Analyze(records)

	if len(first) != len(second) {
		t.Fatalf("re-run produced different group count")
	}
	for i := range first {
		if first[i].Dimension.CanonicalKey() != second[i].Dimension.CanonicalKey() {
			t.Errorf("re-run produced different dimension at %d", i)
		}
	}
}
