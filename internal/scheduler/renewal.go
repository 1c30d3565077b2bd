// Package scheduler runs the renewal pre-calculation loop: ahead of
// subscription renewal dates it invokes the routing engine and persists
// the decision so at-renewal charges bypass live decisioning.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/KestrelPay/router/internal/metrics"
	"github.com/KestrelPay/router/internal/precalc"
	"github.com/KestrelPay/router/internal/routing"
	"github.com/KestrelPay/router/internal/subscriptions"
	"github.com/KestrelPay/router/internal/timeutil"
)

// precalcValidity extends a route's usefulness slightly past the
// renewal it was computed for.
const precalcValidity = 24 * time.Hour

// Router is the routing engine surface the scheduler consumes.
type Router interface {
	FindBestRoute(ctx context.Context, req routing.ChargeRequest) (routing.Decision, error)
}

// RenewalScheduler periodically scans upcoming subscription renewals
// and pre-computes their routes.
type RenewalScheduler struct {
	subs      subscriptions.Repository
	precalc   precalc.Repository
	router    Router
	tick      time.Duration
	lookahead time.Duration
	metrics   *metrics.Metrics // optional
	logger    zerolog.Logger
}

// Config wires a RenewalScheduler.
type Config struct {
	Subscriptions subscriptions.Repository
	Precalc       precalc.Repository
	Router        Router
	TickInterval  time.Duration
	LookaheadDays int
	Metrics       *metrics.Metrics
	Logger        zerolog.Logger
}

// New builds a renewal scheduler.
func New(cfg Config) *RenewalScheduler {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 60 * time.Second
	}
	if cfg.LookaheadDays <= 0 {
		cfg.LookaheadDays = 7
	}
	return &RenewalScheduler{
		subs:      cfg.Subscriptions,
		precalc:   cfg.Precalc,
		router:    cfg.Router,
		tick:      cfg.TickInterval,
		lookahead: time.Duration(cfg.LookaheadDays) * 24 * time.Hour,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
	}
}

// Run loops until ctx is cancelled. Shutdown is cooperative: the
// in-flight subscription finishes, then the loop exits.
func (s *RenewalScheduler) Run(ctx context.Context) {
	s.logger.Info().
		Dur("tick", s.tick).
		Dur("lookahead", s.lookahead).
		Msg("renewal.scheduler_started")

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("renewal.scheduler_stopped")
			return
		case <-ticker.C:
			if s.metrics != nil {
				s.metrics.RenewalTicksTotal.Inc()
			}
			s.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single pre-calculation cycle. A failure on one
// subscription is logged and does not abort the tick.
func (s *RenewalScheduler) RunOnce(ctx context.Context) {
	now := timeutil.NowUTC()
	subs, err := s.subs.UpcomingRenewals(ctx, now, now.Add(s.lookahead))
	if err != nil {
		s.logger.Error().Err(err).Msg("renewal.scan_failed")
		return
	}
	if len(subs) == 0 {
		return
	}
	s.logger.Info().Int("count", len(subs)).Msg("renewal.upcoming_found")

	for _, sub := range subs {
		if ctx.Err() != nil {
			return
		}
		if err := s.precalculate(ctx, sub); err != nil {
			if s.metrics != nil {
				s.metrics.RenewalErrorsTotal.Inc()
			}
			s.logger.Error().Err(err).
				Str("subscription_id", sub.ID).
				Msg("renewal.precalc_failed")
		}
	}
}

// precalculate routes one upcoming renewal and upserts the result.
// Upserts are idempotent: re-running a cycle rewrites the same rows.
func (s *RenewalScheduler) precalculate(ctx context.Context, sub subscriptions.Subscription) error {
	req := routing.ChargeRequest{
		MerchantID:     sub.MerchantID,
		CustomerID:     sub.CustomerID,
		Amount:         sub.Amount,
		Currency:       sub.Currency,
		Description:    fmt.Sprintf("Pre-calculation for renewal of sub %s", sub.ID),
		SubscriptionID: sub.ID,
	}

	decision, err := s.router.FindBestRoute(ctx, req)
	if err != nil {
		return err
	}

	route := precalc.Route{
		SubscriptionID:  sub.ID,
		Provider:        decision.Provider,
		RoutingDecision: decision.Reason,
		ExpiresAt:       sub.NextRenewalAt.Add(precalcValidity),
		CreatedAt:       timeutil.NowUTC(),
	}
	if err := s.precalc.Save(ctx, route); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.RenewalRoutesTotal.Inc()
	}
	s.logger.Info().
		Str("subscription_id", sub.ID).
		Str("provider", string(decision.Provider)).
		Time("expires_at", route.ExpiresAt).
		Msg("renewal.route_precalculated")
	return nil
}
