package processors

import (
	"context"

	"github.com/google/uuid"
)

// AdyenProcessor is the deterministic stub adapter for Adyen.
type AdyenProcessor struct{}

// NewAdyenProcessor creates the Adyen adapter.
func NewAdyenProcessor() *AdyenProcessor {
	return &AdyenProcessor{}
}

func (p *AdyenProcessor) Name() string {
	return "adyen"
}

func (p *AdyenProcessor) Charge(_ context.Context, req Request) Response {
	return Response{
		Status:                 StatusSuccess,
		ProcessorTransactionID: "adyen_" + uuid.NewString()[:12],
		RawResponse: map[string]any{
			"provider":   "adyen",
			"risk_score": 0,
		},
	}
}

func (p *AdyenProcessor) Refund(_ context.Context, processorTransactionID string, amount float64) Response {
	return Response{
		Status:                 StatusSuccess,
		ProcessorTransactionID: "adyen_refund_" + uuid.NewString()[:12],
	}
}

// BraintreeProcessor is the deterministic stub adapter for Braintree.
type BraintreeProcessor struct{}

// NewBraintreeProcessor creates the Braintree adapter.
func NewBraintreeProcessor() *BraintreeProcessor {
	return &BraintreeProcessor{}
}

func (p *BraintreeProcessor) Name() string {
	return "braintree"
}

func (p *BraintreeProcessor) Charge(_ context.Context, req Request) Response {
	return Response{
		Status:                 StatusSuccess,
		ProcessorTransactionID: "bt_" + uuid.NewString()[:10],
		RawResponse: map[string]any{
			"provider":         "braintree",
			"cvv_verification": "match",
		},
	}
}

func (p *BraintreeProcessor) Refund(_ context.Context, processorTransactionID string, amount float64) Response {
	return Response{
		Status:                 StatusSuccess,
		ProcessorTransactionID: "bt_refund_" + uuid.NewString()[:10],
	}
}

// InternalMockProcessor is the in-house processor used for testing and
// end-to-end visualization.
type InternalMockProcessor struct{}

// NewInternalMockProcessor creates the internal mock adapter.
func NewInternalMockProcessor() *InternalMockProcessor {
	return &InternalMockProcessor{}
}

func (p *InternalMockProcessor) Name() string {
	return "internal"
}

func (p *InternalMockProcessor) Charge(_ context.Context, req Request) Response {
	return Response{
		Status:                 StatusSuccess,
		ProcessorTransactionID: "mock_txn_" + uuid.NewString()[:8],
		RawResponse: map[string]any{
			"simulated": true,
			"fee":       0.05,
		},
	}
}

func (p *InternalMockProcessor) Refund(_ context.Context, processorTransactionID string, amount float64) Response {
	return Response{
		Status:                 StatusSuccess,
		ProcessorTransactionID: "mock_refund_" + uuid.NewString()[:8],
	}
}
