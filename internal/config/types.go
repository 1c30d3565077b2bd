package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration for YAML parsing of values like "60s".
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string or integer seconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw any
	if err := value.Decode(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		dur, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		d.Duration = dur
	case int:
		d.Duration = time.Duration(v) * time.Second
	default:
		return fmt.Errorf("invalid duration value %v", raw)
	}
	return nil
}

// MarshalYAML renders the duration as a string.
func (d Duration) MarshalYAML() (any, error) {
	return d.Duration.String(), nil
}

// StrategyName selects the active routing decision strategy.
type StrategyName string

const (
	StrategyLeastCost StrategyName = "LEAST_COST"
	StrategyLLM       StrategyName = "LLM"
	StrategyPlanner   StrategyName = "PLANNER"
	StrategyFixed     StrategyName = "FIXED"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Routing  RoutingConfig  `yaml:"routing"`
	Renewal  RenewalConfig  `yaml:"renewal"`
	Feedback FeedbackConfig `yaml:"feedback"`
	LLM      LLMConfig      `yaml:"llm"`
	Storage  StorageConfig  `yaml:"storage"`
	Fees     FeesConfig     `yaml:"fees"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address      string   `yaml:"address"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
	IdleTimeout  Duration `yaml:"idle_timeout"`
	RateLimit    int      `yaml:"rate_limit"` // requests per minute per IP, 0 disables
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	Environment string `yaml:"environment"`
}

// RoutingConfig holds decision strategy settings.
type RoutingConfig struct {
	Strategy        StrategyName `yaml:"strategy"`
	Model           string       `yaml:"model"`
	Objective       string       `yaml:"objective"` // least_cost, highest_auth, balanced
	FixedProvider   string       `yaml:"fixed_provider"`
	DefaultProvider string       `yaml:"default_provider"`
	HealthTimeout   Duration     `yaml:"health_timeout"`
}

// RenewalConfig holds renewal pre-calculation scheduler settings.
type RenewalConfig struct {
	TickInterval Duration `yaml:"tick_interval"`
	LookaheadDays int     `yaml:"lookahead_days"`
}

// FeedbackConfig holds the feedback drain loop settings.
type FeedbackConfig struct {
	DrainInterval Duration `yaml:"drain_interval"`
}

// LLMConfig holds the OpenAI-compatible chat endpoint settings.
type LLMConfig struct {
	BaseURL string   `yaml:"base_url"`
	APIKey  string   `yaml:"api_key"`
	Timeout Duration `yaml:"timeout"`
}

// StorageConfig selects persistence backends. Empty URLs select the
// in-memory implementations.
type StorageConfig struct {
	RedisURL        string `yaml:"redis_url"`
	PostgresURL     string `yaml:"postgres_url"`
	MongoDBURL      string `yaml:"mongodb_url"`
	MongoDBDatabase string `yaml:"mongodb_database"`
}

// FeesConfig points at an optional YAML fee table; empty uses the
// built-in defaults.
type FeesConfig struct {
	TablePath               string  `yaml:"table_path"`
	DefaultFixedFee         float64 `yaml:"default_fixed_fee"`
	DefaultVariableFeePct   float64 `yaml:"default_variable_fee_percent"`
}
