// Command server runs the payment routing API: charge orchestration,
// the routing engine, and the feedback drain loop.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/KestrelPay/router/internal/config"
	"github.com/KestrelPay/router/internal/customers"
	"github.com/KestrelPay/router/internal/feedback"
	"github.com/KestrelPay/router/internal/health"
	"github.com/KestrelPay/router/internal/httpserver"
	"github.com/KestrelPay/router/internal/ingestion"
	"github.com/KestrelPay/router/internal/intelligence"
	"github.com/KestrelPay/router/internal/lifecycle"
	"github.com/KestrelPay/router/internal/llm"
	"github.com/KestrelPay/router/internal/logger"
	"github.com/KestrelPay/router/internal/merchants"
	"github.com/KestrelPay/router/internal/metadata"
	"github.com/KestrelPay/router/internal/metrics"
	"github.com/KestrelPay/router/internal/payments"
	"github.com/KestrelPay/router/internal/precalc"
	"github.com/KestrelPay/router/internal/processors"
	"github.com/KestrelPay/router/internal/routing"
	"github.com/KestrelPay/router/internal/storage"
	"github.com/KestrelPay/router/internal/strategy"
	"github.com/KestrelPay/router/internal/subscriptions"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("KESTREL_CONFIG"))
	if err != nil {
		return err
	}

	appLogger := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Service:     "kestrel-router",
		Environment: cfg.Logging.Environment,
	})

	resources := lifecycle.NewManager()
	defer resources.Close()

	collectors := metrics.New(nil)

	// Redis backs the health snapshot and, when present, the
	// intelligence and precalc key-value stores.
	var redisClient *redis.Client
	if cfg.Storage.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.Storage.RedisURL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		redisClient = redis.NewClient(opts)
		resources.RegisterFunc("redis", redisClient.Close)
	}

	var perfStore storage.KeyValueStore[[]routing.ProviderPerformance]
	var healthReader routing.HealthSource
	var precalcRepo precalc.Repository
	if redisClient != nil {
		perfStore = storage.NewRedisKeyValueStore[[]routing.ProviderPerformance](redisClient, "routing_performance")
		healthReader = health.NewRedisReader(redisClient)
		precalcRepo = precalc.NewKVRepository(
			storage.NewRedisKeyValueStore[precalc.Route](redisClient, "precalculated_route"))
	} else {
		perfStore = storage.NewMemoryKeyValueStore[[]routing.ProviderPerformance]()
		healthReader = health.NewMemoryReader()
		precalcRepo = precalc.NewKVRepository(storage.NewMemoryKeyValueStore[precalc.Route]())
	}
	performanceRepo := intelligence.NewPerformanceRepository(perfStore)

	entityRepos, err := buildEntityRepos(cfg, resources)
	if err != nil {
		return err
	}

	binRepo := metadata.NewCardBINRepository(storage.NewMemoryRelationalStore[metadata.CardBIN]())
	interchangeRepo := metadata.NewInterchangeFeeRepository(storage.NewMemoryRelationalStore[metadata.InterchangeFee]())

	feeTable := routing.DefaultFeeTable()
	if cfg.Fees.TablePath != "" {
		feeTable, err = routing.LoadFeeTable(cfg.Fees.TablePath)
		if err != nil {
			return err
		}
	}

	decisionStrategy, err := buildStrategy(cfg, appLogger)
	if err != nil {
		return err
	}

	engine := routing.NewEngine(routing.EngineConfig{
		Fees:            feeTable,
		Performance:     performanceRepo,
		Health:          healthReader,
		BINs:            binRepo,
		Interchange:     interchangeRepo,
		Strategy:        decisionStrategy,
		Fallback:        strategy.NewLeastCost(),
		DefaultProvider: routing.Provider(cfg.Routing.DefaultProvider),
		HealthTimeout:   cfg.Routing.HealthTimeout.Duration,
		Logger:          appLogger,
	})

	feedbackStore := feedback.NewMemoryStore()
	aggregator := intelligence.NewAggregator(cfg.Fees.DefaultFixedFee, cfg.Fees.DefaultVariableFeePct)
	rawArchive := storage.NewMemoryLogAppendStore[ingestion.RawTransactionRecord]()
	ingestor := ingestion.NewIngestor(performanceRepo, aggregator, appLogger).WithArchive(rawArchive)

	// Optional synthetic intelligence seed for demos and local runs.
	if os.Getenv("KESTREL_SEED_DEMO_DATA") == "true" {
		batch := ingestion.NewGenerator(1).Batch(500, time.Now().UTC())
		if _, err := ingestor.IngestRecords(context.Background(), batch); err != nil {
			appLogger.Warn().Err(err).Msg("server.demo_seed_failed")
		}
	}

	chargeSvc := payments.NewService(payments.ServiceConfig{
		Payments:        entityRepos.payments,
		Merchants:       entityRepos.merchants,
		Customers:       entityRepos.customers,
		Router:          engine,
		Registry:        processors.DefaultRegistry(),
		Precalc:         precalcRepo,
		Collector:       feedback.NewCollector(feedbackStore),
		DefaultProvider: routing.Provider(cfg.Routing.DefaultProvider),
		Metrics:         collectors,
		Logger:          appLogger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	drainer := feedback.NewDrainer(feedbackStore, ingestor, cfg.Feedback.DrainInterval.Duration, appLogger)
	go drainer.Run(ctx)

	server := httpserver.New(cfg, chargeSvc, entityRepos.merchants, entityRepos.customers,
		entityRepos.subscriptions, performanceRepo, ingestor, appLogger)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		appLogger.Info().Msg("server.shutdown_requested")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

type entityRepos struct {
	payments      payments.Repository
	merchants     merchants.Repository
	customers     customers.Repository
	subscriptions subscriptions.Repository
}

// buildEntityRepos selects backends from configuration: MongoDB for
// payments when configured, Postgres for relational entities, memory
// otherwise.
func buildEntityRepos(cfg *config.Config, resources *lifecycle.Manager) (entityRepos, error) {
	repos := entityRepos{}

	switch {
	case cfg.Storage.MongoDBURL != "":
		repo, err := payments.NewMongoRepository(cfg.Storage.MongoDBURL, cfg.Storage.MongoDBDatabase)
		if err != nil {
			return repos, err
		}
		repos.payments = repo
	case cfg.Storage.PostgresURL != "":
		repo, err := payments.NewPostgresRepository(cfg.Storage.PostgresURL)
		if err != nil {
			return repos, err
		}
		repos.payments = repo
	default:
		repos.payments = payments.NewMemoryRepository()
	}
	resources.Register("payments_repository", repos.payments)

	if cfg.Storage.PostgresURL != "" {
		merchantRepo, err := merchants.NewPostgresRepository(cfg.Storage.PostgresURL)
		if err != nil {
			return repos, err
		}
		customerRepo, err := customers.NewPostgresRepository(cfg.Storage.PostgresURL)
		if err != nil {
			return repos, err
		}
		subRepo, err := subscriptions.NewPostgresRepository(cfg.Storage.PostgresURL)
		if err != nil {
			return repos, err
		}
		repos.merchants = merchantRepo
		repos.customers = customerRepo
		repos.subscriptions = subRepo
	} else {
		repos.merchants = merchants.NewMemoryRepository()
		repos.customers = customers.NewMemoryRepository()
		repos.subscriptions = subscriptions.NewMemoryRepository()
	}
	resources.Register("merchants_repository", repos.merchants)
	resources.Register("customers_repository", repos.customers)
	resources.Register("subscriptions_repository", repos.subscriptions)

	return repos, nil
}

// buildStrategy resolves the configured decision strategy.
func buildStrategy(cfg *config.Config, appLogger zerolog.Logger) (routing.DecisionStrategy, error) {
	switch cfg.Routing.Strategy {
	case config.StrategyLeastCost:
		return strategy.NewLeastCost(), nil
	case config.StrategyFixed:
		provider, err := routing.ParseProvider(cfg.Routing.FixedProvider)
		if err != nil {
			return nil, fmt.Errorf("fixed strategy: %w", err)
		}
		return strategy.NewFixed(provider), nil
	case config.StrategyLLM:
		client := llm.NewHTTPClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Timeout.Duration)
		return strategy.NewLLM(client, cfg.Routing.Model, cfg.Routing.Objective, appLogger), nil
	case config.StrategyPlanner:
		client := llm.NewHTTPClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Timeout.Duration)
		return strategy.NewPlanner(client, cfg.Routing.Model, cfg.Routing.Objective, appLogger), nil
	default:
		return nil, fmt.Errorf("unknown routing strategy %q", cfg.Routing.Strategy)
	}
}
