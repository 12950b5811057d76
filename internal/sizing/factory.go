package sizing

import (
	"fmt"
	"strings"

	"github.com/ducminhle1904/token-trade-engine/internal/repository"
)

// Config holds tuning parameters for the sizing methods
type Config struct {
	RiskPercentage       float64 `json:"risk_percentage"`        // percentage_risk: % of portfolio risked per trade
	KellyFraction        float64 `json:"kelly_fraction"`         // conservative multiplier on the raw Kelly size
	KellyMinTrades       int     `json:"kelly_min_trades"`       // closed trades required before Kelly is trusted
	KellyHistoryLimit    int     `json:"kelly_history_limit"`    // closed trades considered
	KellyFallbackPct     float64 `json:"kelly_fallback_pct"`     // % of portfolio when history is insufficient
	VolatilityBasePct    float64 `json:"volatility_base_pct"`    // volatility_adjusted: base % of portfolio
	VolatilityMultiplier float64 `json:"volatility_multiplier"`  // volatility sensitivity
	VolatilityLookback   int     `json:"volatility_lookback"`    // candles considered
}

// DefaultConfig returns the default sizing configuration
func DefaultConfig() Config {
	return Config{
		RiskPercentage:       2.0,
		KellyFraction:        0.25,
		KellyMinTrades:       10,
		KellyHistoryLimit:    50,
		KellyFallbackPct:     1.0,
		VolatilityBasePct:    5.0,
		VolatilityMultiplier: 10.0,
		VolatilityLookback:   30,
	}
}

// CreateStrategy creates a sizing strategy by method name.
func CreateStrategy(method Method, config Config, repo repository.Repository) (Strategy, error) {
	switch Method(strings.ToLower(strings.TrimSpace(string(method)))) {
	case MethodFixedAmount:
		return FixedAmount{}, nil

	case MethodPercentageRisk, "":
		return PercentageRisk{RiskPercentage: config.RiskPercentage}, nil

	case MethodKellyCriterion:
		return KellyCriterion{
			Trades:       repo,
			Fraction:     config.KellyFraction,
			MinTrades:    config.KellyMinTrades,
			HistoryLimit: config.KellyHistoryLimit,
			FallbackPct:  config.KellyFallbackPct,
		}, nil

	case MethodVolatilityAdjusted:
		return VolatilityAdjusted{
			Market:        repo,
			BasePct:       config.VolatilityBasePct,
			Multiplier:    config.VolatilityMultiplier,
			LookbackBars:  config.VolatilityLookback,
			DegradedWarns: true,
		}, nil

	case MethodEqualWeight:
		return EqualWeight{}, nil

	default:
		return nil, fmt.Errorf("unknown sizing method: %s (supported: fixed_amount, percentage_risk, kelly_criterion, volatility_adjusted, equal_weight)", method)
	}
}

// GetAvailableMethods returns the supported sizing methods
func GetAvailableMethods() []Method {
	return []Method{
		MethodFixedAmount,
		MethodPercentageRisk,
		MethodKellyCriterion,
		MethodVolatilityAdjusted,
		MethodEqualWeight,
	}
}
