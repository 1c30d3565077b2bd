package ingestion

import (
	"strings"
	"testing"
	"time"

	"github.com/KestrelPay/router/internal/routing"
)

const stripeCSV = `id,amount,currency,fee,net,type,created,card_brand,card_country,status
txn_1,120.50,usd,3.80,116.70,charge,2026-06-01 10:15:00,Visa,US,available
txn_2,80.00,usd,2.62,77.38,charge,2026-06-01 11:00:00,MasterCard,DE,pending
`

func TestStripeCSVParser(t *testing.T) {
	records, err := ParseCSV(strings.NewReader(stripeCSV), StripeCSVParser{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.Provider != routing.ProviderStripe {
		t.Errorf("expected stripe, got %s", first.Provider)
	}
	if first.Status != StatusSucceeded {
		t.Errorf("available must map to succeeded, got %q", first.Status)
	}
	if first.Amount != 120.50 || first.Currency != "USD" {
		t.Errorf("amount/currency mismatch: %v %s", first.Amount, first.Currency)
	}
	if first.Network != "visa" {
		t.Errorf("brand must lowercase to network, got %q", first.Network)
	}
	if first.Region != "domestic" {
		t.Errorf("US must map to domestic, got %q", first.Region)
	}
	// The balance report lacks BIN and card type; the parser pins them.
	if first.BIN != "000000" || first.CardType != "credit" {
		t.Errorf("expected pinned bin/card_type, got %q/%q", first.BIN, first.CardType)
	}
	if first.Timestamp.Location().String() != "UTC" {
		t.Errorf("timestamps must be UTC")
	}

	second := records[1]
	if second.Status != StatusFailed {
		t.Errorf("non-available must map to failed, got %q", second.Status)
	}
	if second.Region != "international" {
		t.Errorf("DE must map to international, got %q", second.Region)
	}
}

const adyenCSV = `Merchant Reference,PSP Reference,Payment Method,Creation Date,Type,Currency,Gross Debit,Commission,Status
ref1,psp1,Visa,2026-06-02 08:00:00,Settled,EUR,55.00,1.20,ok
ref2,psp2,MC,2026-06-02 09:00:00,Refused,EUR,10.00,0.00,ok
`

func TestAdyenCSVParser(t *testing.T) {
	records, err := ParseCSV(strings.NewReader(adyenCSV), AdyenCSVParser{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Provider != routing.ProviderAdyen {
		t.Errorf("expected adyen, got %s", records[0].Provider)
	}
	if records[0].Status != StatusSucceeded {
		t.Errorf("Settled must map to succeeded, got %q", records[0].Status)
	}
	if records[1].Status != StatusFailed {
		t.Errorf("Refused must map to failed, got %q", records[1].Status)
	}
	if records[0].Amount != 55.00 || records[0].Currency != "EUR" {
		t.Errorf("amount/currency mismatch: %v %s", records[0].Amount, records[0].Currency)
	}
}

func TestParseCSV_BadRows(t *testing.T) {
	broken := `id,amount,currency,fee,net,type,created,card_brand,card_country,status
txn_1,not-a-number,usd,1,1,charge,2026-06-01 10:15:00,Visa,US,available
`
	if _, err := ParseCSV(strings.NewReader(broken), StripeCSVParser{}); err == nil {
		t.Fatalf("expected error for unparseable amount")
	}
}

func TestParseCSV_Empty(t *testing.T) {
	records, err := ParseCSV(strings.NewReader(""), StripeCSVParser{})
	if err != nil {
		t.Fatalf("empty input: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records")
	}
}

func TestGenerator_Deterministic(t *testing.T) {
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	a := NewGenerator(7).Batch(50, base)
	b := NewGenerator(7).Batch(50, base)

	if len(a) != 50 || len(b) != 50 {
		t.Fatalf("expected 50 records each")
	}
	for i := range a {
		if a[i].Provider != b[i].Provider || a[i].Status != b[i].Status || a[i].Amount != b[i].Amount {
			t.Fatalf("same seed must produce identical batches (diverged at %d)", i)
		}
	}
}
