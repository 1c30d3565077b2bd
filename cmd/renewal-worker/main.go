// Command renewal-worker runs the renewal pre-calculation scheduler as
// a standalone process: it scans upcoming subscription renewals and
// persists routing decisions ahead of the at-renewal charges.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/KestrelPay/router/internal/config"
	"github.com/KestrelPay/router/internal/health"
	"github.com/KestrelPay/router/internal/intelligence"
	"github.com/KestrelPay/router/internal/lifecycle"
	"github.com/KestrelPay/router/internal/llm"
	"github.com/KestrelPay/router/internal/logger"
	"github.com/KestrelPay/router/internal/metrics"
	"github.com/KestrelPay/router/internal/precalc"
	"github.com/KestrelPay/router/internal/routing"
	"github.com/KestrelPay/router/internal/scheduler"
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
		Service:     "kestrel-renewal-worker",
		Environment: cfg.Logging.Environment,
	})

	resources := lifecycle.NewManager()
	defer resources.Close()

	// The worker shares persistent state with the API server, so it
	// needs external backends: Postgres for subscriptions, and Redis or
	// Postgres for pre-calculated routes. Performance data lives in Redis
	// when configured and otherwise in an in-process memory store.
	if cfg.Storage.PostgresURL == "" {
		return fmt.Errorf("renewal worker requires KESTREL_POSTGRES_URL")
	}

	subRepo, err := subscriptions.NewPostgresRepository(cfg.Storage.PostgresURL)
	if err != nil {
		return err
	}
	resources.Register("subscriptions_repository", subRepo)

	var perfStore storage.KeyValueStore[[]routing.ProviderPerformance]
	var healthReader routing.HealthSource
	var precalcRepo precalc.Repository
	if cfg.Storage.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.Storage.RedisURL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		redisClient := redis.NewClient(opts)
		resources.RegisterFunc("redis", redisClient.Close)

		perfStore = storage.NewRedisKeyValueStore[[]routing.ProviderPerformance](redisClient, "routing_performance")
		healthReader = health.NewRedisReader(redisClient)
		precalcRepo = precalc.NewKVRepository(
			storage.NewRedisKeyValueStore[precalc.Route](redisClient, "precalculated_route"))
	} else {
		perfStore = storage.NewMemoryKeyValueStore[[]routing.ProviderPerformance]()
		healthReader = health.NewMemoryReader()
		pgPrecalc, err := precalc.NewPostgresRepository(cfg.Storage.PostgresURL)
		if err != nil {
			return err
		}
		precalcRepo = pgPrecalc
	}
	resources.Register("precalc_repository", precalcRepo)

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
		Performance:     intelligence.NewPerformanceRepository(perfStore),
		Health:          healthReader,
		Strategy:        decisionStrategy,
		Fallback:        strategy.NewLeastCost(),
		DefaultProvider: routing.Provider(cfg.Routing.DefaultProvider),
		HealthTimeout:   cfg.Routing.HealthTimeout.Duration,
		Logger:          appLogger,
	})

	worker := scheduler.New(scheduler.Config{
		Subscriptions: subRepo,
		Precalc:       precalcRepo,
		Router:        engine,
		TickInterval:  cfg.Renewal.TickInterval.Duration,
		LookaheadDays: cfg.Renewal.LookaheadDays,
		Metrics:       metrics.New(nil),
		Logger:        appLogger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker.Run(ctx)
	return nil
}

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
