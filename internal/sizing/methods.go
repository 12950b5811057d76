package sizing

import (
	"context"
	"fmt"
	"math"

	"github.com/ducminhle1904/token-trade-engine/internal/repository"
	"github.com/ducminhle1904/token-trade-engine/pkg/types"
)

// FixedAmount returns the account's configured absolute cap directly.
type FixedAmount struct{}

func (FixedAmount) Name() Method { return MethodFixedAmount }

func (FixedAmount) BaseSize(ctx context.Context, in *Inputs) (float64, []string, error) {
	return in.Limits.MaxPositionSize, nil, nil
}

// PercentageRisk risks a fixed percentage of portfolio value per trade.
// With a stop-loss below entry the size is derived from risk per unit;
// without one the risk amount itself is deployed.
type PercentageRisk struct {
	RiskPercentage float64
}

func (PercentageRisk) Name() Method { return MethodPercentageRisk }

func (p PercentageRisk) BaseSize(ctx context.Context, in *Inputs) (float64, []string, error) {
	riskAmount := in.Snapshot.PortfolioValue * p.RiskPercentage / 100

	if in.StopLoss > 0 && in.StopLoss < in.EntryPrice {
		// risk-per-unit sizing: units = riskAmount / (entry - stop)
		units := riskAmount / (in.EntryPrice - in.StopLoss)
		return units * in.EntryPrice, nil, nil
	}

	var warnings []string
	if in.StopLoss == 0 {
		warnings = append(warnings, "no stop-loss supplied for percentage-risk sizing; sizing from risk amount directly")
	}
	return riskAmount, warnings, nil
}

// KellyCriterion sizes from the asset's historical win rate and payoff ratio,
// scaled by a conservative fraction. When the account lacks enough closed
// trades for the asset the method degrades to a flagged conservative fallback.
type KellyCriterion struct {
	Trades       repository.TransactionStore
	Fraction     float64 // conservative multiplier applied to the raw Kelly size
	MinTrades    int     // minimum closed trades before the formula is trusted
	HistoryLimit int
	FallbackPct  float64 // percent of portfolio used when history is insufficient
}

func (KellyCriterion) Name() Method { return MethodKellyCriterion }

func (k KellyCriterion) BaseSize(ctx context.Context, in *Inputs) (float64, []string, error) {
	trades, err := k.Trades.GetClosedTrades(ctx, in.AccountID, in.Asset, k.HistoryLimit)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to load trade history for %s: %w", in.Asset, err)
	}

	if len(trades) < k.MinTrades {
		fallback := in.Snapshot.PortfolioValue * k.FallbackPct / 100
		return fallback, []string{fmt.Sprintf(
			"kelly sizing degraded: only %d closed trades for %s (minimum %d); using conservative %.1f%% of portfolio",
			len(trades), in.Asset, k.MinTrades, k.FallbackPct)}, nil
	}

	wins, losses := 0, 0
	winSum, lossSum := 0.0, 0.0
	for _, tx := range trades {
		if tx.PnL > 0 {
			wins++
			winSum += tx.PnL
		} else if tx.PnL < 0 {
			losses++
			lossSum += -tx.PnL
		}
	}

	if wins == 0 || losses == 0 {
		fallback := in.Snapshot.PortfolioValue * k.FallbackPct / 100
		return fallback, []string{fmt.Sprintf(
			"kelly sizing degraded: trade history for %s is one-sided (%d wins, %d losses)", in.Asset, wins, losses)}, nil
	}

	p := float64(wins) / float64(wins+losses)
	avgWin := winSum / float64(wins)
	avgLoss := lossSum / float64(losses)

	b := avgWin / avgLoss
	kelly := (b*p - (1 - p)) / b
	if kelly <= 0 {
		return 0, []string{fmt.Sprintf("kelly criterion is non-positive for %s (win rate %.1f%%, payoff %.2f); recommending zero size",
			in.Asset, p*100, b)}, nil
	}

	return kelly * k.Fraction * in.Snapshot.PortfolioValue, nil, nil
}

// VolatilityAdjusted scales a base percentage-of-portfolio size down as the
// asset's recent volatility rises.
type VolatilityAdjusted struct {
	Market        repository.MarketDataStore
	BasePct       float64 // percent of portfolio before adjustment
	Multiplier    float64 // volatility sensitivity
	LookbackBars  int
	DegradedWarns bool
}

func (VolatilityAdjusted) Name() Method { return MethodVolatilityAdjusted }

func (v VolatilityAdjusted) BaseSize(ctx context.Context, in *Inputs) (float64, []string, error) {
	base := in.Snapshot.PortfolioValue * v.BasePct / 100

	candles, err := v.Market.GetRecentCandles(ctx, in.Asset, v.LookbackBars)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to load price history for %s: %w", in.Asset, err)
	}

	if len(candles) < 2 {
		var warnings []string
		if v.DegradedWarns {
			warnings = append(warnings, fmt.Sprintf(
				"volatility sizing degraded: insufficient price history for %s; using unadjusted base size", in.Asset))
		}
		return base, warnings, nil
	}

	volatility := stddevOfReturns(candles)
	return base / (1 + volatility*v.Multiplier), nil, nil
}

// EqualWeight divides the portfolio evenly across the position budget.
type EqualWeight struct{}

func (EqualWeight) Name() Method { return MethodEqualWeight }

func (EqualWeight) BaseSize(ctx context.Context, in *Inputs) (float64, []string, error) {
	slots := in.Limits.MaxOpenPositions
	if slots > 10 || slots <= 0 {
		slots = 10
	}
	return in.Snapshot.PortfolioValue / float64(slots), nil, nil
}

// stddevOfReturns computes the standard deviation of close-to-close returns.
func stddevOfReturns(candles []types.OHLCV) float64 {
	returns := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		if candles[i-1].Close > 0 {
			returns = append(returns, candles[i].Close/candles[i-1].Close-1)
		}
	}
	if len(returns) == 0 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))

	return math.Sqrt(variance)
}
