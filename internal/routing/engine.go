package routing

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/KestrelPay/router/internal/apperrors"
)

// Decision is a routing outcome: the chosen provider and an optional
// strategy note (e.g. a critic override explanation) folded into the
// payment's audit trail.
type Decision struct {
	Provider Provider
	Reason   string
}

// Engine orchestrates a routing call: dimension derivation, candidate
// reconciliation, strategy delegation, and the fallback chain.
type Engine struct {
	fees            *FeeTable
	performance     PerformanceSource
	health          HealthSource
	bins            BINSource
	interchange     InterchangeSource
	strategy        DecisionStrategy
	fallback        DecisionStrategy
	defaultProvider Provider
	healthTimeout   time.Duration
	logger          zerolog.Logger
}

// EngineConfig wires an Engine. Fallback should be a deterministic
// strategy; it is consulted when the primary strategy fails.
type EngineConfig struct {
	Fees            *FeeTable
	Performance     PerformanceSource
	Health          HealthSource
	BINs            BINSource         // optional
	Interchange     InterchangeSource // optional
	Strategy        DecisionStrategy
	Fallback        DecisionStrategy
	DefaultProvider Provider
	HealthTimeout   time.Duration
	Logger          zerolog.Logger
}

// NewEngine builds a routing engine.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = 500 * time.Millisecond
	}
	if cfg.DefaultProvider == "" {
		cfg.DefaultProvider = ProviderStripe
	}
	return &Engine{
		fees:            cfg.Fees,
		performance:     cfg.Performance,
		health:          cfg.Health,
		bins:            cfg.BINs,
		interchange:     cfg.Interchange,
		strategy:        cfg.Strategy,
		fallback:        cfg.Fallback,
		defaultProvider: cfg.DefaultProvider,
		healthTimeout:   cfg.HealthTimeout,
		logger:          cfg.Logger,
	}
}

// FindBestRoute selects the provider for a charge. An explicit provider
// on the request wins over everything and consults neither the
// repository nor the strategy. Infrastructure failures surface as
// errors; strategy failures are absorbed by the fallback chain.
func (e *Engine) FindBestRoute(ctx context.Context, req ChargeRequest) (Decision, error) {
	if req.Provider != "" {
		if !req.Provider.Valid() {
			return Decision{}, apperrors.New(apperrors.ErrCodeInvalidProvider,
				"explicit provider %q is not a known provider", req.Provider)
		}
		return Decision{Provider: req.Provider, Reason: "Explicit Override"}, nil
	}

	dim, err := e.DeriveDimension(ctx, &req)
	if err != nil {
		return Decision{}, err
	}

	req.ProviderHealth = e.healthSnapshot(ctx)

	if req.InterchangeFees == nil && e.interchange != nil {
		fees, err := e.interchange.ListAll(ctx)
		if err != nil {
			e.logger.Warn().Err(err).Msg("routing.interchange_read_failed")
		} else {
			req.InterchangeFees = fees
		}
	}

	performance, err := e.performance.FindByDimension(ctx, dim)
	if err != nil {
		return Decision{}, apperrors.Wrap(apperrors.ErrCodeInfrastructureError, err,
			"performance lookup failed")
	}

	candidates := Reconcile(dim, e.fees, performance, req.ProviderHealth)
	if len(candidates) == 0 {
		e.logger.Warn().
			Str("dimension", dim.CanonicalKey()).
			Str("provider", string(e.defaultProvider)).
			Msg("routing.no_candidates")
		return Decision{
			Provider: e.defaultProvider,
			Reason:   "Default Fallback (no healthy candidates)",
		}, nil
	}

	decision, err := e.strategy.Decide(ctx, req, candidates)
	if err != nil {
		e.logger.Error().Err(err).
			Str("strategy", e.strategy.Name()).
			Msg("routing.strategy_failed")
		decision = e.decideFallback(ctx, req, candidates)
	}

	e.logger.Info().
		Str("strategy", e.strategy.Name()).
		Str("provider", string(decision.Provider)).
		Str("dimension", dim.CanonicalKey()).
		Msg("routing.decision")
	return decision, nil
}

// decideFallback runs the deterministic fallback; if that also fails,
// the ultimate default provider is returned with a documented reason.
func (e *Engine) decideFallback(ctx context.Context, req ChargeRequest, candidates []ResolvedProvider) Decision {
	if e.fallback != nil {
		decision, err := e.fallback.Decide(ctx, req, candidates)
		if err == nil {
			decision.Reason = "Fallback: " + decision.Reason
			return decision
		}
		e.logger.Error().Err(err).
			Str("strategy", e.fallback.Name()).
			Msg("routing.fallback_failed")
	}
	return Decision{
		Provider: e.defaultProvider,
		Reason:   "Ultimate Default (all strategies failed)",
	}
}

// DeriveDimension builds the routing dimension for a request, enriching
// it with BIN metadata when available: brand maps to network, type to
// card type, issuing country to region.
func (e *Engine) DeriveDimension(ctx context.Context, req *ChargeRequest) (RoutingDimension, error) {
	dim := DefaultDimension(req.Currency)

	if pm := req.PaymentMethod; pm != nil {
		if pm.Type != "" {
			dim.PaymentMethodType = pm.Type
		}
		if pm.PaymentForm != "" {
			dim.PaymentForm = pm.PaymentForm
		}
		dim.IsNetworkTokenized = pm.IsNetworkTokenized

		if req.BINMetadata == nil && pm.BIN != "" && e.bins != nil {
			bin, ok, err := e.bins.FindByBIN(ctx, pm.BIN)
			if err != nil {
				return RoutingDimension{}, apperrors.Wrap(
					apperrors.ErrCodeInfrastructureError, err, "bin lookup failed")
			}
			if ok {
				req.BINMetadata = &bin
			}
		}
	}

	if bin := req.BINMetadata; bin != nil {
		if bin.Brand != "" {
			dim.Network = normalizeLower(bin.Brand)
		}
		if bin.Type != "" {
			dim.CardType = normalizeLower(bin.Type)
		}
		if bin.Country != "" {
			if bin.Country == "United States" {
				dim.Region = "domestic"
			} else {
				dim.Region = "international"
			}
		}
	}

	return dim, nil
}

// healthSnapshot reads provider health with a bounded deadline. A
// failed or slow read yields an empty snapshot (all providers up);
// health is advisory input, not a hard dependency.
func (e *Engine) healthSnapshot(ctx context.Context) map[string]string {
	if e.health == nil {
		return map[string]string{}
	}
	hctx, cancel := context.WithTimeout(ctx, e.healthTimeout)
	defer cancel()

	snapshot, err := e.health.Snapshot(hctx, AllProviders)
	if err != nil {
		e.logger.Warn().Err(err).Msg("routing.health_read_failed")
		return map[string]string{}
	}
	return snapshot
}
