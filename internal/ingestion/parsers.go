package ingestion

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/KestrelPay/router/internal/routing"
	"github.com/KestrelPay/router/internal/timeutil"
)

const reportTimeLayout = "2006-01-02 15:04:05"

// RowParser transforms one vendor report row, keyed by header name,
// into a canonical RawTransactionRecord.
type RowParser interface {
	Parse(row map[string]string) (RawTransactionRecord, error)
}

// ParseCSV reads an entire vendor CSV through the given row parser.
func ParseCSV(r io.Reader, parser RowParser) ([]RawTransactionRecord, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	var records []RawTransactionRecord
	for line := 2; ; line++ {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(fields) {
				row[name] = fields[i]
			}
		}
		record, err := parser.Parse(row)
		if err != nil {
			return nil, fmt.Errorf("parse csv line %d: %w", line, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// StripeCSVParser parses Stripe's balance transaction report.
// Columns: id,amount,currency,fee,net,type,created,card_brand,card_country,status
type StripeCSVParser struct{}

func (StripeCSVParser) Parse(row map[string]string) (RawTransactionRecord, error) {
	amount, err := strconv.ParseFloat(row["amount"], 64)
	if err != nil {
		return RawTransactionRecord{}, fmt.Errorf("stripe report: bad amount %q", row["amount"])
	}
	created, err := time.Parse(reportTimeLayout, row["created"])
	if err != nil {
		return RawTransactionRecord{}, fmt.Errorf("stripe report: bad created %q", row["created"])
	}

	status := StatusFailed
	if row["status"] == "available" {
		status = StatusSucceeded
	}
	region := "international"
	if row["card_country"] == "US" {
		region = "domestic"
	}

	// The balance report carries neither BIN nor card type; debit and
	// credit therefore collapse into one bucket for Stripe ingestion.
	return RawTransactionRecord{
		Provider:       routing.ProviderStripe,
		PaymentForm:    "card_on_file",
		ProcessingType: "signature",
		Amount:         amount,
		Currency:       strings.ToUpper(row["currency"]),
		Status:         status,
		LatencyMS:      0,
		BIN:            "000000",
		CardType:       "credit",
		Network:        strings.ToLower(row["card_brand"]),
		Region:         region,
		Timestamp:      timeutil.NormalizeUTC(created),
	}, nil
}

// AdyenCSVParser parses Adyen's Payment Accounting Report.
// Columns: Merchant Reference,PSP Reference,Payment Method,Creation Date,
// Type,Currency,Gross Debit,Commission,Status
type AdyenCSVParser struct{}

func (AdyenCSVParser) Parse(row map[string]string) (RawTransactionRecord, error) {
	amount, err := strconv.ParseFloat(row["Gross Debit"], 64)
	if err != nil {
		return RawTransactionRecord{}, fmt.Errorf("adyen report: bad gross debit %q", row["Gross Debit"])
	}
	created, err := time.Parse(reportTimeLayout, row["Creation Date"])
	if err != nil {
		return RawTransactionRecord{}, fmt.Errorf("adyen report: bad creation date %q", row["Creation Date"])
	}

	status := StatusFailed
	if row["Type"] == "Settled" {
		status = StatusSucceeded
	}

	return RawTransactionRecord{
		Provider:       routing.ProviderAdyen,
		PaymentForm:    "card_on_file",
		ProcessingType: "signature",
		Amount:         amount,
		Currency:       strings.ToUpper(row["Currency"]),
		Status:         status,
		LatencyMS:      0,
		BIN:            "000000",
		CardType:       "credit",
		Network:        strings.ToLower(row["Payment Method"]),
		Region:         "domestic",
		Timestamp:      timeutil.NormalizeUTC(created),
	}, nil
}
