package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Routing.Strategy != StrategyLeastCost {
		t.Errorf("default strategy should be LEAST_COST, got %s", cfg.Routing.Strategy)
	}
	if cfg.Renewal.TickInterval.Duration != 60*time.Second {
		t.Errorf("default tick should be 60s, got %v", cfg.Renewal.TickInterval.Duration)
	}
	if cfg.Renewal.LookaheadDays != 7 {
		t.Errorf("default lookahead should be 7 days, got %d", cfg.Renewal.LookaheadDays)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("KESTREL_ROUTING_STRATEGY", "PLANNER")
	t.Setenv("KESTREL_ROUTING_MODEL", "gpt-4o-mini")
	t.Setenv("KESTREL_ROUTING_OBJECTIVE", "highest_auth")
	t.Setenv("KESTREL_RENEWAL_TICK_SECONDS", "15")
	t.Setenv("KESTREL_RENEWAL_LOOKAHEAD_DAYS", "3")
	t.Setenv("KESTREL_LLM_BASE_URL", "http://llm.internal/v1")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Routing.Strategy != StrategyPlanner {
		t.Errorf("expected PLANNER, got %s", cfg.Routing.Strategy)
	}
	if cfg.Routing.Model != "gpt-4o-mini" {
		t.Errorf("expected model override, got %s", cfg.Routing.Model)
	}
	if cfg.Routing.Objective != "highest_auth" {
		t.Errorf("expected objective override, got %s", cfg.Routing.Objective)
	}
	if cfg.Renewal.TickInterval.Duration != 15*time.Second {
		t.Errorf("expected 15s tick, got %v", cfg.Renewal.TickInterval.Duration)
	}
	if cfg.Renewal.LookaheadDays != 3 {
		t.Errorf("expected 3 day lookahead, got %d", cfg.Renewal.LookaheadDays)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(*Config) {}, false},
		{"unknown strategy", func(c *Config) { c.Routing.Strategy = "MAGIC" }, true},
		{"unknown objective", func(c *Config) { c.Routing.Objective = "vibes" }, true},
		{"zero tick", func(c *Config) { c.Renewal.TickInterval = Duration{0} }, true},
		{"negative lookahead", func(c *Config) { c.Renewal.LookaheadDays = -1 }, true},
		{"llm strategy without base url", func(c *Config) {
			c.Routing.Strategy = StrategyLLM
			c.LLM.BaseURL = ""
		}, true},
		{"mongo url without database", func(c *Config) {
			c.Storage.MongoDBURL = "mongodb://localhost"
			c.Storage.MongoDBDatabase = ""
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Errorf("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
