package risk

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/ducminhle1904/token-trade-engine/internal/monitoring"
	"github.com/ducminhle1904/token-trade-engine/pkg/types"
)

// Validator gates prospective orders against the account's hard limits.
// A rejection is a normal return value, not an error; errors are reserved
// for repository failures.
type Validator struct {
	assessor *Assessor
	log      *zap.Logger
}

// NewValidator creates an order risk validator backed by the assessor's
// snapshot and limit lookups.
func NewValidator(assessor *Assessor, log *zap.Logger) *Validator {
	return &Validator{assessor: assessor, log: log}
}

// ValidateOrder runs the hard checks in order, short-circuiting on the first
// failure. When all hard checks pass it returns accepted=true with zero or
// more advisory warnings.
func (v *Validator) ValidateOrder(ctx context.Context, accountID string, draft *types.OrderDraft) (bool, []string, error) {
	if draft == nil {
		return false, nil, fmt.Errorf("order draft is nil")
	}

	limits, err := v.assessor.Limits(ctx, accountID)
	if err != nil {
		return false, nil, err
	}

	snapshot, err := v.assessor.Snapshot(ctx, accountID)
	if err != nil {
		return false, nil, err
	}

	value := draft.Value()

	// Hard checks, in order

	if value > limits.MaxPositionSize {
		return v.reject("position_size",
			fmt.Sprintf("order value %.2f exceeds maximum position size %.2f", value, limits.MaxPositionSize))
	}

	if snapshot.PortfolioValue > 0 {
		pct := value / snapshot.PortfolioValue * 100
		if pct > limits.MaxPositionPercentage {
			return v.reject("position_percentage",
				fmt.Sprintf("order value %.1f%% of portfolio exceeds limit %.1f%%", pct, limits.MaxPositionPercentage))
		}
	}

	if draft.Side == types.SideBuy && snapshot.OpenPositionsCount >= limits.MaxOpenPositions {
		return v.reject("open_positions",
			fmt.Sprintf("open position count %d has reached the limit %d", snapshot.OpenPositionsCount, limits.MaxOpenPositions))
	}

	if draft.SlippageTolerance > limits.MaxSlippage {
		return v.reject("slippage",
			fmt.Sprintf("slippage tolerance %.2f%% exceeds ceiling %.2f%%", draft.SlippageTolerance, limits.MaxSlippage))
	}

	dailyLoss := math.Max(0, -snapshot.DailyPnL)
	if dailyLoss > limits.MaxDailyLoss {
		return v.reject("daily_loss",
			fmt.Sprintf("daily loss %.2f exceeds limit %.2f", dailyLoss, limits.MaxDailyLoss))
	}

	if limits.EmergencyStop {
		return v.reject("emergency_stop", "emergency stop is active: all trading is halted")
	}

	if limits.IsBlacklisted(draft.Asset) {
		return v.reject("blacklist", fmt.Sprintf("asset %s is blacklisted", draft.Asset))
	}

	if !limits.IsWhitelisted(draft.Asset) {
		return v.reject("whitelist", fmt.Sprintf("asset %s is not on the whitelist", draft.Asset))
	}

	// Advisory warnings on acceptance
	var warnings []string
	if snapshot.PortfolioValue > 0 && value/snapshot.PortfolioValue*100 > 5 {
		warnings = append(warnings,
			fmt.Sprintf("order is %.1f%% of portfolio value", value/snapshot.PortfolioValue*100))
	}
	if draft.StopLoss == 0 && limits.AutoStopLoss > 0 {
		warnings = append(warnings,
			fmt.Sprintf("no stop-loss set; account auto-stop-loss is %.1f%%", limits.AutoStopLoss))
	}
	if snapshot.ConcentrationPercentage > 30 {
		warnings = append(warnings,
			fmt.Sprintf("portfolio concentration is already %.1f%%", snapshot.ConcentrationPercentage))
	}

	v.log.Debug("order accepted by risk validator",
		zap.String("account", accountID),
		zap.String("asset", draft.Asset),
		zap.Float64("value", value),
		zap.Int("warnings", len(warnings)),
	)

	return true, warnings, nil
}

func (v *Validator) reject(reason, warning string) (bool, []string, error) {
	monitoring.RecordOrderRejected(reason)
	return false, []string{warning}, nil
}
