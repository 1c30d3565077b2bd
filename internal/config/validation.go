package config

import (
	"fmt"
)

var validObjectives = map[string]bool{
	"least_cost":   true,
	"highest_auth": true,
	"balanced":     true,
}

// Validate checks the configuration for invalid combinations before the
// application wires any components.
func (c *Config) Validate() error {
	switch c.Routing.Strategy {
	case StrategyLeastCost, StrategyLLM, StrategyPlanner, StrategyFixed:
	default:
		return fmt.Errorf("config: unknown routing strategy %q", c.Routing.Strategy)
	}

	if !validObjectives[c.Routing.Objective] {
		return fmt.Errorf("config: unknown routing objective %q", c.Routing.Objective)
	}

	if c.Renewal.TickInterval.Duration <= 0 {
		return fmt.Errorf("config: renewal tick interval must be positive")
	}
	if c.Renewal.LookaheadDays <= 0 {
		return fmt.Errorf("config: renewal lookahead days must be positive")
	}

	if (c.Routing.Strategy == StrategyLLM || c.Routing.Strategy == StrategyPlanner) &&
		c.LLM.BaseURL == "" {
		return fmt.Errorf("config: llm base_url required for strategy %s", c.Routing.Strategy)
	}

	if c.Storage.MongoDBURL != "" && c.Storage.MongoDBDatabase == "" {
		return fmt.Errorf("config: mongodb_database required when mongodb_url is set")
	}

	return nil
}
