package sizing

import (
	"context"

	"github.com/ducminhle1904/token-trade-engine/internal/risk"
	"github.com/ducminhle1904/token-trade-engine/pkg/types"
)

// Method identifies a position sizing method
type Method string

const (
	MethodFixedAmount        Method = "fixed_amount"
	MethodPercentageRisk     Method = "percentage_risk"
	MethodKellyCriterion     Method = "kelly_criterion"
	MethodVolatilityAdjusted Method = "volatility_adjusted"
	MethodEqualWeight        Method = "equal_weight"
)

// Inputs carries everything a sizing strategy needs to compute a base size
type Inputs struct {
	AccountID  string
	Asset      string
	Side       types.Side
	EntryPrice float64
	StopLoss   float64 // 0 means no stop-loss supplied
	Snapshot   *risk.MetricsSnapshot
	Limits     *types.RiskLimits
}

// Strategy computes a base position size (quote-currency notional) before
// risk adjustments and clamping. Strategies attach warnings when they run in
// a degraded mode instead of silently returning plausible numbers.
type Strategy interface {
	// Name returns the method identifier
	Name() Method

	// BaseSize computes the unadjusted size for the trade
	BaseSize(ctx context.Context, in *Inputs) (float64, []string, error)
}
