package processors

import (
	"context"
	"strings"
	"testing"

	"github.com/KestrelPay/router/internal/apperrors"
	"github.com/KestrelPay/router/internal/routing"
)

func TestRegistry(t *testing.T) {
	registry := DefaultRegistry()

	for _, provider := range routing.AllProviders {
		processor, err := registry.Get(provider)
		if err != nil {
			t.Errorf("expected adapter for %s: %v", provider, err)
			continue
		}
		if processor.Name() != string(provider) {
			t.Errorf("adapter name %q does not match provider %q", processor.Name(), provider)
		}
	}

	empty := NewRegistry()
	_, err := empty.Get(routing.ProviderStripe)
	if !apperrors.IsCode(err, apperrors.ErrCodeProcessorNotRegistered) {
		t.Errorf("expected processor_not_registered, got %v", err)
	}
}

func chargeRequest() Request {
	return Request{
		Amount:             120.50,
		Currency:           "USD",
		PaymentMethodToken: "tok_visa_4242",
		MerchantID:         "m1",
		CustomerID:         "c1",
		Description:        "order 42",
	}
}

func TestStripeProcessor_ParamTranslation(t *testing.T) {
	p := NewStripeProcessor("sk_test_key")
	params := p.buildIntentParams(chargeRequest())

	if *params.Amount != 12050 {
		t.Errorf("expected 12050 minor units, got %d", *params.Amount)
	}
	if *params.Currency != "usd" {
		t.Errorf("expected lowercase currency, got %q", *params.Currency)
	}
	if *params.PaymentMethod != "tok_visa_4242" {
		t.Errorf("token must carry through, got %q", *params.PaymentMethod)
	}
	if params.Params.Metadata["merchant_id"] != "m1" {
		t.Errorf("merchant id must land in metadata")
	}
}

func TestStripeProcessor_Charge(t *testing.T) {
	p := NewStripeProcessor("")

	resp := p.Charge(context.Background(), chargeRequest())
	if resp.Status != StatusSuccess {
		t.Fatalf("expected success, got %s (%s)", resp.Status, resp.ErrorMessage)
	}
	if !strings.HasPrefix(resp.ProcessorTransactionID, "pi_") {
		t.Errorf("expected pi_ transaction id, got %q", resp.ProcessorTransactionID)
	}

	big := chargeRequest()
	big.Amount = 50000
	resp = p.Charge(context.Background(), big)
	if resp.Status != StatusFailure || resp.ErrorCode != "amount_too_large" {
		t.Errorf("expected amount_too_large failure, got %+v", resp)
	}
}

func TestStubAdapters_Charge(t *testing.T) {
	tests := []struct {
		processor Processor
		prefix    string
	}{
		{NewAdyenProcessor(), "adyen_"},
		{NewBraintreeProcessor(), "bt_"},
		{NewInternalMockProcessor(), "mock_txn_"},
	}

	for _, tt := range tests {
		t.Run(tt.processor.Name(), func(t *testing.T) {
			resp := tt.processor.Charge(context.Background(), chargeRequest())
			if resp.Status != StatusSuccess {
				t.Errorf("expected success, got %s", resp.Status)
			}
			if !strings.HasPrefix(resp.ProcessorTransactionID, tt.prefix) {
				t.Errorf("expected %q prefix, got %q", tt.prefix, resp.ProcessorTransactionID)
			}

			refund := tt.processor.Refund(context.Background(), resp.ProcessorTransactionID, 10)
			if refund.Status != StatusSuccess {
				t.Errorf("expected refund success, got %s", refund.Status)
			}
		})
	}
}
