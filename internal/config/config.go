// Package config loads application configuration from an optional YAML
// file with environment variable overrides. Environment variables take
// precedence over YAML; all use the KESTREL_ prefix.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default returns the baseline configuration before file or env input.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:      ":8080",
			ReadTimeout:  Duration{15 * time.Second},
			WriteTimeout: Duration{15 * time.Second},
			IdleTimeout:  Duration{60 * time.Second},
			RateLimit:    300,
		},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "json",
			Environment: "development",
		},
		Routing: RoutingConfig{
			Strategy:        StrategyLeastCost,
			Model:           "gpt-4o",
			Objective:       "balanced",
			FixedProvider:   "stripe",
			DefaultProvider: "stripe",
			HealthTimeout:   Duration{500 * time.Millisecond},
		},
		Renewal: RenewalConfig{
			TickInterval:  Duration{60 * time.Second},
			LookaheadDays: 7,
		},
		Feedback: FeedbackConfig{
			DrainInterval: Duration{30 * time.Second},
		},
		LLM: LLMConfig{
			BaseURL: "https://api.openai.com/v1",
			Timeout: Duration{2 * time.Second},
		},
		Fees: FeesConfig{
			DefaultFixedFee:       0.30,
			DefaultVariableFeePct: 2.9,
		},
	}
}

// Load reads configuration from the given YAML path (optional, empty
// path skips the file) and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
