package payments

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/KestrelPay/router/internal/apperrors"
	"github.com/KestrelPay/router/internal/customers"
	"github.com/KestrelPay/router/internal/merchants"
	"github.com/KestrelPay/router/internal/metrics"
	"github.com/KestrelPay/router/internal/precalc"
	"github.com/KestrelPay/router/internal/processors"
	"github.com/KestrelPay/router/internal/routing"
	"github.com/KestrelPay/router/internal/timeutil"
)

// adapterTimeout bounds a single processor adapter call.
const adapterTimeout = 5 * time.Second

// Router is the routing engine surface the orchestrator consumes.
type Router interface {
	FindBestRoute(ctx context.Context, req routing.ChargeRequest) (routing.Decision, error)
}

// FeedbackCollector receives terminal payments for the feedback loop.
type FeedbackCollector interface {
	Collect(payment Payment)
}

// Service is the charge orchestrator: it validates the request,
// consults the pre-calculated cache, invokes the router, dispatches to
// the chosen processor adapter, and emits feedback.
type Service struct {
	payments        Repository
	merchants       merchants.Repository
	customers       customers.Repository
	router          Router
	registry        *processors.Registry
	precalc         precalc.Repository  // optional
	collector       FeedbackCollector   // optional
	defaultProvider routing.Provider
	metrics         *metrics.Metrics // optional
	logger          zerolog.Logger
}

// ServiceConfig wires a charge orchestrator.
type ServiceConfig struct {
	Payments        Repository
	Merchants       merchants.Repository
	Customers       customers.Repository
	Router          Router
	Registry        *processors.Registry
	Precalc         precalc.Repository
	Collector       FeedbackCollector
	DefaultProvider routing.Provider
	Metrics         *metrics.Metrics
	Logger          zerolog.Logger
}

// NewService builds the orchestrator.
func NewService(cfg ServiceConfig) *Service {
	if cfg.DefaultProvider == "" {
		cfg.DefaultProvider = routing.ProviderStripe
	}
	return &Service{
		payments:        cfg.Payments,
		merchants:       cfg.Merchants,
		customers:       cfg.Customers,
		router:          cfg.Router,
		registry:        cfg.Registry,
		precalc:         cfg.Precalc,
		collector:       cfg.Collector,
		defaultProvider: cfg.DefaultProvider,
		metrics:         cfg.Metrics,
		logger:          cfg.Logger,
	}
}

// CreateCharge executes the end-to-end charge flow. It either returns a
// persisted payment (possibly Failed) or an error; nothing is silently
// dropped.
func (s *Service) CreateCharge(ctx context.Context, req routing.ChargeRequest) (Payment, error) {
	started := time.Now()

	if err := validateRequest(req); err != nil {
		return Payment{}, err
	}

	if _, err := s.merchants.Get(ctx, req.MerchantID); err != nil {
		if errors.Is(err, merchants.ErrNotFound) {
			return Payment{}, apperrors.New(apperrors.ErrCodeMerchantNotFound,
				"merchant %s not found", req.MerchantID)
		}
		return Payment{}, apperrors.Wrap(apperrors.ErrCodeInfrastructureError, err, "merchant lookup failed")
	}

	customer, err := s.customers.Get(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, customers.ErrNotFound) {
			return Payment{}, apperrors.New(apperrors.ErrCodeCustomerNotFound,
				"customer %s not found", req.CustomerID)
		}
		return Payment{}, apperrors.Wrap(apperrors.ErrCodeInfrastructureError, err, "customer lookup failed")
	}

	decision := s.route(ctx, req)

	processor, err := s.registry.Get(decision.Provider)
	if err != nil {
		return Payment{}, err
	}

	payment := NewPayment(req)
	payment.Provider = decision.Provider
	payment.RoutingDecision = decision.Reason

	actx, cancel := context.WithTimeout(ctx, adapterTimeout)
	resp := processor.Charge(actx, processors.Request{
		Amount:             req.Amount,
		Currency:           req.Currency,
		PaymentMethodToken: customer.PaymentMethodToken,
		MerchantID:         req.MerchantID,
		CustomerID:         req.CustomerID,
		Description:        req.Description,
	})
	cancel()

	payment.ProviderPaymentID = resp.ProcessorTransactionID
	if resp.Status == processors.StatusSuccess {
		// Stub adapters authorize and settle in one hop.
		if err := payment.TransitionTo(StatusAuthorized); err != nil {
			return Payment{}, err
		}
		if err := payment.TransitionTo(StatusCompleted); err != nil {
			return Payment{}, err
		}
	} else {
		if err := payment.TransitionTo(StatusFailed); err != nil {
			return Payment{}, err
		}
	}

	if err := s.payments.Save(ctx, payment); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return Payment{}, apperrors.Wrap(apperrors.ErrCodeDuplicatePayment, err, "duplicate processor transaction")
		}
		return Payment{}, apperrors.Wrap(apperrors.ErrCodeInfrastructureError, err, "persist payment failed")
	}

	s.observe(payment, resp, time.Since(started))

	if s.collector != nil {
		s.collector.Collect(payment)
		if s.metrics != nil {
			s.metrics.FeedbackRecordsTotal.Inc()
		}
	}

	s.logger.Info().
		Str("payment_id", payment.ID).
		Str("provider", string(payment.Provider)).
		Str("status", string(payment.Status)).
		Str("routing_decision", payment.RoutingDecision).
		Msg("charge.completed")

	return payment, nil
}

// route resolves the provider: pre-calculated cache first for
// subscription charges, live engine otherwise, configured default when
// the engine is unavailable.
func (s *Service) route(ctx context.Context, req routing.ChargeRequest) routing.Decision {
	if req.SubscriptionID != "" && s.precalc != nil {
		route, ok, err := s.precalc.FindValid(ctx, req.SubscriptionID, timeutil.NowUTC())
		if err != nil {
			s.logger.Warn().Err(err).
				Str("subscription_id", req.SubscriptionID).
				Msg("charge.precalc_lookup_failed")
		} else if ok {
			if s.metrics != nil {
				s.metrics.PrecalcHitsTotal.Inc()
			}
			s.logger.Info().
				Str("subscription_id", req.SubscriptionID).
				Str("provider", string(route.Provider)).
				Msg("charge.precalc_hit")
			return routing.Decision{
				Provider: route.Provider,
				Reason:   "Pre-calculated: " + route.RoutingDecision,
			}
		}
	}

	decision, err := s.router.FindBestRoute(ctx, req)
	if err != nil {
		s.logger.Error().Err(err).Msg("charge.routing_unavailable")
		if s.metrics != nil {
			s.metrics.RoutingFallbacksTotal.WithLabelValues("engine_unavailable").Inc()
		}
		return routing.Decision{
			Provider: s.defaultProvider,
			Reason:   "Fallback: Routing Engine Unavailable",
		}
	}
	return decision
}

func (s *Service) observe(payment Payment, resp processors.Response, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	provider := string(payment.Provider)
	s.metrics.ChargesTotal.WithLabelValues(provider, string(payment.Status)).Inc()
	s.metrics.ChargeDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
	if payment.Status == StatusCompleted {
		s.metrics.ChargeAmountTotal.WithLabelValues(provider, payment.Currency).Add(payment.Amount)
	} else {
		reason := resp.ErrorCode
		if reason == "" {
			reason = "processor_error"
		}
		s.metrics.ChargesFailedTotal.WithLabelValues(provider, reason).Inc()
	}
}

// GetPayment fetches a payment by id.
func (s *Service) GetPayment(ctx context.Context, id string) (Payment, error) {
	payment, err := s.payments.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Payment{}, apperrors.New(apperrors.ErrCodePaymentNotFound, "payment %s not found", id)
		}
		return Payment{}, apperrors.Wrap(apperrors.ErrCodeInfrastructureError, err, "payment lookup failed")
	}
	return payment, nil
}

// RefundPayment is a trivial passthrough to the adapter that charged
// the payment. The core does not track refund state.
func (s *Service) RefundPayment(ctx context.Context, id string, amount float64) (processors.Response, error) {
	payment, err := s.GetPayment(ctx, id)
	if err != nil {
		return processors.Response{}, err
	}
	if amount <= 0 || amount > payment.Amount {
		return processors.Response{}, apperrors.New(apperrors.ErrCodeInvalidAmount,
			"refund amount %.2f out of range", amount)
	}

	processor, err := s.registry.Get(payment.Provider)
	if err != nil {
		return processors.Response{}, err
	}

	rctx, cancel := context.WithTimeout(ctx, adapterTimeout)
	defer cancel()
	return processor.Refund(rctx, payment.ProviderPaymentID, amount), nil
}

func validateRequest(req routing.ChargeRequest) error {
	if req.MerchantID == "" {
		return apperrors.New(apperrors.ErrCodeMissingField, "merchant_id is required")
	}
	if req.CustomerID == "" {
		return apperrors.New(apperrors.ErrCodeMissingField, "customer_id is required")
	}
	if req.Amount < 0 {
		return apperrors.New(apperrors.ErrCodeInvalidAmount, "amount must be non-negative")
	}
	if len(req.Currency) != 3 {
		return apperrors.New(apperrors.ErrCodeInvalidCurrency, "currency must be an ISO-4217 code")
	}
	if req.Provider != "" && !req.Provider.Valid() {
		return apperrors.New(apperrors.ErrCodeInvalidProvider, "unknown provider %q", req.Provider)
	}
	return nil
}
