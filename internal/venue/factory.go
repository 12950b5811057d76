package venue

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Config holds configuration for creating a single venue client
type Config struct {
	Name string `json:"name"`
	Type string `json:"type"` // venue type (bybit, static)

	// Bybit-specific config
	Bybit *BybitConfig `json:"bybit,omitempty"`

	// Static-venue config
	Rates       map[string]float64 `json:"rates,omitempty"`
	PriceImpact float64            `json:"price_impact,omitempty"`
	GasEstimate float64            `json:"gas_estimate,omitempty"`

	// Protection applied to every venue type
	RequestsPerSecond float64 `json:"requests_per_second,omitempty"`
	Burst             int     `json:"burst,omitempty"`
}

// Create builds a venue client from configuration, wrapped with a circuit
// breaker and, when a request budget is configured, a rate limiter.
func Create(cfg Config, log *zap.Logger) (Client, error) {
	venueType := strings.ToLower(strings.TrimSpace(cfg.Type))
	name := cfg.Name
	if name == "" {
		name = venueType
	}

	var client Client
	switch venueType {
	case "bybit":
		if cfg.Bybit == nil {
			cfg.Bybit = &BybitConfig{}
		}
		client = NewBybitVenue(name, *cfg.Bybit)

	case "static", "sim", "":
		client = NewStaticVenue(name, cfg.Rates, cfg.PriceImpact, cfg.GasEstimate)

	default:
		return nil, fmt.Errorf("unknown venue type: %s (supported: bybit, static)", cfg.Type)
	}

	var wrapped Client = NewBreakerClient(client, log)
	if cfg.RequestsPerSecond > 0 {
		wrapped = NewRateLimitedClient(wrapped, cfg.RequestsPerSecond, cfg.Burst)
	}

	return wrapped, nil
}

// GetAvailableTypes returns the supported venue types
func GetAvailableTypes() []string {
	return []string{"bybit", "static"}
}
