// Package metrics holds the Prometheus collectors for the routing
// engine and charge pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the router.
type Metrics struct {
	// Charge pipeline
	ChargesTotal        *prometheus.CounterVec
	ChargesFailedTotal  *prometheus.CounterVec
	ChargeAmountTotal   *prometheus.CounterVec
	ChargeDuration      *prometheus.HistogramVec

	// Routing decisions
	RoutingDecisionsTotal *prometheus.CounterVec
	RoutingFallbacksTotal *prometheus.CounterVec
	PrecalcHitsTotal      prometheus.Counter

	// Renewal scheduler
	RenewalTicksTotal      prometheus.Counter
	RenewalRoutesTotal     prometheus.Counter
	RenewalErrorsTotal     prometheus.Counter

	// Feedback loop
	FeedbackRecordsTotal prometheus.Counter
	FeedbackDrainsTotal  prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		ChargesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kestrel_charges_total",
				Help: "Total number of charge attempts",
			},
			[]string{"provider", "status"},
		),
		ChargesFailedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kestrel_charges_failed_total",
				Help: "Total number of failed charges",
			},
			[]string{"provider", "reason"},
		),
		ChargeAmountTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kestrel_charge_amount_total",
				Help: "Total charged amount in major currency units",
			},
			[]string{"provider", "currency"},
		),
		ChargeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kestrel_charge_duration_seconds",
				Help:    "End-to-end charge latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		RoutingDecisionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kestrel_routing_decisions_total",
				Help: "Routing decisions by strategy and chosen provider",
			},
			[]string{"strategy", "provider"},
		),
		RoutingFallbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kestrel_routing_fallbacks_total",
				Help: "Routing decisions that went through a fallback path",
			},
			[]string{"reason"},
		),
		PrecalcHitsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "kestrel_precalc_hits_total",
				Help: "Charges that adopted a pre-calculated route",
			},
		),
		RenewalTicksTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "kestrel_renewal_ticks_total",
				Help: "Renewal scheduler tick count",
			},
		),
		RenewalRoutesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "kestrel_renewal_routes_total",
				Help: "Pre-calculated routes written by the scheduler",
			},
		),
		RenewalErrorsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "kestrel_renewal_errors_total",
				Help: "Per-subscription failures during pre-calculation",
			},
		),
		FeedbackRecordsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "kestrel_feedback_records_total",
				Help: "Payments captured into the feedback staging store",
			},
		),
		FeedbackDrainsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "kestrel_feedback_drains_total",
				Help: "Feedback staging store drains into the aggregator",
			},
		),
	}
}
