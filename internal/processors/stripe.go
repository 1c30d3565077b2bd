package processors

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/stripe/stripe-go/v72"
)

// amountTooLargeCents simulates an issuer limit for the stub.
const amountTooLargeCents = 1000000

// StripeProcessor adapts the internal charge contract to Stripe's
// PaymentIntent API. The wire translation is real; execution is a
// deterministic stub that synthesizes a transaction id.
type StripeProcessor struct {
	apiKey string
}

// NewStripeProcessor creates the Stripe adapter. The key is carried for
// live execution; the stub does not transmit it.
func NewStripeProcessor(apiKey string) *StripeProcessor {
	return &StripeProcessor{apiKey: apiKey}
}

func (p *StripeProcessor) Name() string {
	return "stripe"
}

// buildIntentParams maps the internal request onto Stripe's
// PaymentIntent parameters. Amounts convert to minor units.
func (p *StripeProcessor) buildIntentParams(req Request) *stripe.PaymentIntentParams {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(toMinorUnits(req.Amount)),
		Currency:      stripe.String(strings.ToLower(req.Currency)),
		PaymentMethod: stripe.String(req.PaymentMethodToken),
		Description:   stripe.String(req.Description),
		Confirm:       stripe.Bool(true),
		OffSession:    stripe.Bool(true),
	}
	params.AddMetadata("merchant_id", req.MerchantID)
	params.AddMetadata("customer_id", req.CustomerID)
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	return params
}

func (p *StripeProcessor) Charge(_ context.Context, req Request) Response {
	params := p.buildIntentParams(req)

	if *params.Amount > amountTooLargeCents {
		return Response{
			Status:       StatusFailure,
			ErrorCode:    "amount_too_large",
			ErrorMessage: "amount exceeds processing limit",
		}
	}

	return Response{
		Status:                 StatusSuccess,
		ProcessorTransactionID: "pi_" + randomHex(8),
		RawResponse: map[string]any{
			"provider": "stripe",
			"fee":      req.Amount*0.029 + 0.30,
		},
	}
}

func (p *StripeProcessor) Refund(_ context.Context, processorTransactionID string, amount float64) Response {
	return Response{
		Status:                 StatusSuccess,
		ProcessorTransactionID: "re_" + randomHex(8),
		RawResponse: map[string]any{
			"provider":       "stripe",
			"payment_intent": processorTransactionID,
			"amount":         toMinorUnits(amount),
		},
	}
}

// toMinorUnits converts a decimal major-unit amount to integer cents.
func toMinorUnits(amount float64) int64 {
	return int64(amount*100 + 0.5)
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return strings.Repeat("0", n*2)
	}
	return hex.EncodeToString(b)
}
