// Package httpserver exposes the thin REST surface over the charge
// orchestrator, entity repositories, and routing diagnostics.
package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/KestrelPay/router/internal/config"
	"github.com/KestrelPay/router/internal/customers"
	"github.com/KestrelPay/router/internal/ingestion"
	"github.com/KestrelPay/router/internal/intelligence"
	"github.com/KestrelPay/router/internal/logger"
	"github.com/KestrelPay/router/internal/merchants"
	"github.com/KestrelPay/router/internal/payments"
	"github.com/KestrelPay/router/internal/subscriptions"
)

// Server wires handlers, middleware, and dependencies.
type Server struct {
	handlers
	httpServer *http.Server
}

type handlers struct {
	cfg         *config.Config
	charges     *payments.Service
	merchants   merchants.Repository
	customers   customers.Repository
	subs        subscriptions.Repository
	performance *intelligence.PerformanceRepository
	ingestor    *ingestion.Ingestor
	logger      zerolog.Logger
}

// New builds the HTTP server with the configured router.
func New(
	cfg *config.Config,
	chargeSvc *payments.Service,
	merchantRepo merchants.Repository,
	customerRepo customers.Repository,
	subRepo subscriptions.Repository,
	performance *intelligence.PerformanceRepository,
	ingestor *ingestion.Ingestor,
	appLogger zerolog.Logger,
) *Server {
	router := chi.NewRouter()

	s := &Server{
		handlers: handlers{
			cfg:         cfg,
			charges:     chargeSvc,
			merchants:   merchantRepo,
			customers:   customerRepo,
			subs:        subRepo,
			performance: performance,
			ingestor:    ingestor,
			logger:      appLogger,
		},
		httpServer: &http.Server{
			Addr:         cfg.Server.Address,
			ReadTimeout:  cfg.Server.ReadTimeout.Duration,
			WriteTimeout: cfg.Server.WriteTimeout.Duration,
			IdleTimeout:  cfg.Server.IdleTimeout.Duration,
			Handler:      router,
		},
	}

	s.configureRouter(router)
	return s
}

func (s *Server) configureRouter(router chi.Router) {
	router.Use(middleware.Recoverer)
	router.Use(logger.Middleware(s.logger))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	if s.cfg.Server.RateLimit > 0 {
		router.Use(httprate.LimitByIP(s.cfg.Server.RateLimit, time.Minute))
	}

	router.Get("/healthz", s.handleHealthz)
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/v1", func(r chi.Router) {
		r.Post("/charges", s.handleCreateCharge)
		r.Get("/payments/{paymentID}", s.handleGetPayment)
		r.Post("/payments/{paymentID}/refund", s.handleRefundPayment)

		r.Post("/merchants", s.handleCreateMerchant)
		r.Get("/merchants/{merchantID}", s.handleGetMerchant)

		r.Post("/customers", s.handleCreateCustomer)
		r.Get("/customers/{customerID}", s.handleGetCustomer)

		r.Post("/subscriptions", s.handleCreateSubscription)
		r.Get("/subscriptions/{subscriptionID}", s.handleGetSubscription)

		r.Get("/routing/performance", s.handleListPerformance)
		r.Post("/routing/ingest", s.handleIngestReport)
	})
}

// Handler exposes the configured router, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins serving; it blocks until the server exits.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("server.started")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
