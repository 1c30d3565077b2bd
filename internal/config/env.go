package config

import (
	"os"
	"strconv"
	"time"
)

// applyEnvOverrides applies environment variable overrides to the
// config. Environment variables take precedence over YAML. All env vars
// use the KESTREL_ prefix for namespace isolation.
func (c *Config) applyEnvOverrides() {
	// Server config
	setIfEnv(&c.Server.Address, "KESTREL_SERVER_ADDRESS")
	setIntIfEnv(&c.Server.RateLimit, "KESTREL_SERVER_RATE_LIMIT")

	// Logging config
	setIfEnv(&c.Logging.Level, "KESTREL_LOG_LEVEL")
	setIfEnv(&c.Logging.Format, "KESTREL_LOG_FORMAT")
	setIfEnv(&c.Logging.Environment, "KESTREL_ENVIRONMENT")

	// Routing config
	if v := os.Getenv("KESTREL_ROUTING_STRATEGY"); v != "" {
		c.Routing.Strategy = StrategyName(v)
	}
	setIfEnv(&c.Routing.Model, "KESTREL_ROUTING_MODEL")
	setIfEnv(&c.Routing.Objective, "KESTREL_ROUTING_OBJECTIVE")
	setIfEnv(&c.Routing.FixedProvider, "KESTREL_ROUTING_FIXED_PROVIDER")
	setIfEnv(&c.Routing.DefaultProvider, "KESTREL_ROUTING_DEFAULT_PROVIDER")
	setDurationIfEnv(&c.Routing.HealthTimeout, "KESTREL_ROUTING_HEALTH_TIMEOUT")

	// Renewal scheduler config
	if v := os.Getenv("KESTREL_RENEWAL_TICK_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			c.Renewal.TickInterval = Duration{time.Duration(secs) * time.Second}
		}
	}
	setIntIfEnv(&c.Renewal.LookaheadDays, "KESTREL_RENEWAL_LOOKAHEAD_DAYS")

	// Feedback drain config
	if v := os.Getenv("KESTREL_FEEDBACK_DRAIN_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			c.Feedback.DrainInterval = Duration{time.Duration(secs) * time.Second}
		}
	}

	// LLM config
	setIfEnv(&c.LLM.BaseURL, "KESTREL_LLM_BASE_URL")
	setIfEnv(&c.LLM.APIKey, "KESTREL_LLM_API_KEY")
	setDurationIfEnv(&c.LLM.Timeout, "KESTREL_LLM_TIMEOUT")

	// Storage config
	setIfEnv(&c.Storage.RedisURL, "KESTREL_REDIS_URL")
	setIfEnv(&c.Storage.PostgresURL, "KESTREL_POSTGRES_URL")
	setIfEnv(&c.Storage.MongoDBURL, "KESTREL_MONGODB_URL")
	setIfEnv(&c.Storage.MongoDBDatabase, "KESTREL_MONGODB_DATABASE")

	// Fee table config
	setIfEnv(&c.Fees.TablePath, "KESTREL_FEE_TABLE_PATH")
	setFloatIfEnv(&c.Fees.DefaultFixedFee, "KESTREL_FEES_DEFAULT_FIXED")
	setFloatIfEnv(&c.Fees.DefaultVariableFeePct, "KESTREL_FEES_DEFAULT_VARIABLE_PCT")
}

func setIfEnv(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func setIntIfEnv(target *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}

func setFloatIfEnv(target *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*target = f
		}
	}
}

func setDurationIfEnv(target *Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			*target = Duration{dur}
		}
	}
}
