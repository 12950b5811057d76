package sizing

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/ducminhle1904/token-trade-engine/internal/repository"
	"github.com/ducminhle1904/token-trade-engine/internal/risk"
	"github.com/ducminhle1904/token-trade-engine/pkg/types"
)

// Result is the outcome of a position sizing computation. All sizes are
// quote-currency notionals. Invariants: RecommendedSize =
// min(RiskAdjustedSize, MaxAllowedSize) and RecommendedSize >= 0.
type Result struct {
	RecommendedSize               float64  `json:"recommended_size"`
	MaxAllowedSize                float64  `json:"max_allowed_size"`
	RiskAdjustedSize              float64  `json:"risk_adjusted_size"`
	ConfidenceScore               float64  `json:"confidence_score"` // 0.0 to 1.0
	Warnings                      []string `json:"warnings,omitempty"`
	Method                        Method   `json:"method"`
	PositionPercentageOfPortfolio float64  `json:"position_percentage_of_portfolio"`
}

// Engine computes risk-adjusted position sizes. It is stateless between
// calls; concurrent sizing requests for the same account are expected.
type Engine struct {
	assessor *risk.Assessor
	repo     repository.Repository
	config   Config
	log      *zap.Logger
}

// NewEngine creates a position sizing engine.
func NewEngine(assessor *risk.Assessor, repo repository.Repository, config Config, log *zap.Logger) *Engine {
	return &Engine{
		assessor: assessor,
		repo:     repo,
		config:   config,
		log:      log,
	}
}

// Size computes the recommended trade size for the account and asset.
func (e *Engine) Size(ctx context.Context, accountID, asset string, side types.Side, entryPrice, stopLoss float64, method Method) (*Result, error) {
	if entryPrice <= 0 {
		return nil, fmt.Errorf("entry price must be positive, got %.8f", entryPrice)
	}
	if stopLoss < 0 {
		return nil, fmt.Errorf("stop-loss cannot be negative, got %.8f", stopLoss)
	}
	if stopLoss > 0 && side == types.SideBuy && stopLoss >= entryPrice {
		return nil, fmt.Errorf("stop-loss %.8f must be below entry price %.8f for a buy", stopLoss, entryPrice)
	}

	strategy, err := CreateStrategy(method, e.config, e.repo)
	if err != nil {
		return nil, err
	}

	snapshot, err := e.assessor.Snapshot(ctx, accountID)
	if err != nil {
		return nil, err
	}
	limits, err := e.assessor.Limits(ctx, accountID)
	if err != nil {
		return nil, err
	}

	in := &Inputs{
		AccountID:  accountID,
		Asset:      asset,
		Side:       side,
		EntryPrice: entryPrice,
		StopLoss:   stopLoss,
		Snapshot:   snapshot,
		Limits:     limits,
	}

	base, warnings, err := strategy.BaseSize(ctx, in)
	if err != nil {
		return nil, err
	}
	if base < 0 {
		base = 0
	}

	adjusted, adjustWarnings := applyRiskAdjustments(base, snapshot)
	warnings = append(warnings, adjustWarnings...)

	maxAllowed := maxAllowedSize(snapshot, limits)
	recommended := math.Min(adjusted, maxAllowed)
	if recommended < 0 {
		recommended = 0
	}

	positionPct := 0.0
	if snapshot.PortfolioValue > 0 {
		positionPct = recommended / snapshot.PortfolioValue * 100
	}
	if positionPct > 5 {
		warnings = append(warnings, fmt.Sprintf("recommended position is %.1f%% of portfolio value", positionPct))
	}
	if recommended < adjusted {
		warnings = append(warnings, fmt.Sprintf("size clamped from %.2f to %.2f by account limits", adjusted, recommended))
	}

	result := &Result{
		RecommendedSize:               recommended,
		MaxAllowedSize:                maxAllowed,
		RiskAdjustedSize:              adjusted,
		ConfidenceScore:               confidenceScore(base, adjusted, snapshot),
		Warnings:                      warnings,
		Method:                        strategy.Name(),
		PositionPercentageOfPortfolio: positionPct,
	}

	e.log.Debug("position sized",
		zap.String("account", accountID),
		zap.String("asset", asset),
		zap.String("method", string(result.Method)),
		zap.Float64("base", base),
		zap.Float64("recommended", recommended),
		zap.Float64("confidence", result.ConfidenceScore),
	)

	return result, nil
}

// applyRiskAdjustments reduces the base size for portfolio stress, in order:
// concentration, open-position count, drawdown.
func applyRiskAdjustments(base float64, s *risk.MetricsSnapshot) (float64, []string) {
	adjusted := base
	var warnings []string

	if s.ConcentrationPercentage > 20 {
		adjusted *= 0.8
		warnings = append(warnings,
			fmt.Sprintf("size reduced 20%%: concentration %.1f%% exceeds 20%%", s.ConcentrationPercentage))
	}

	if s.OpenPositionsCount > 10 {
		factor := 10.0 / float64(s.OpenPositionsCount)
		adjusted *= factor
		warnings = append(warnings,
			fmt.Sprintf("size reduced to %.0f%%: %d open positions exceed 10", factor*100, s.OpenPositionsCount))
	}

	if s.DrawdownPercentage > 10 {
		factor := math.Max(0.1, 1-(s.DrawdownPercentage-10)/100)
		adjusted *= factor
		warnings = append(warnings,
			fmt.Sprintf("size reduced to %.0f%%: drawdown %.1f%% exceeds 10%%", factor*100, s.DrawdownPercentage))
	}

	return adjusted, warnings
}

// maxAllowedSize clamps to the tightest of the percentage limit, the absolute
// limit, and available capital.
func maxAllowedSize(s *risk.MetricsSnapshot, limits *types.RiskLimits) float64 {
	pctLimit := s.PortfolioValue * limits.MaxPositionPercentage / 100
	return math.Min(pctLimit, math.Min(limits.MaxPositionSize, s.AvailableCapital))
}

// confidenceScore starts at 1.0 and is multiplied down for every stress
// signal, floored at 0.1.
func confidenceScore(base, adjusted float64, s *risk.MetricsSnapshot) float64 {
	confidence := 1.0

	if base > 0 {
		switch ratio := adjusted / base; {
		case ratio < 0.5:
			confidence *= 0.7
		case ratio < 1.0:
			confidence *= 0.9
		}
	}

	if s.ConcentrationPercentage > 40 {
		confidence *= 0.8
	} else if s.ConcentrationPercentage > 20 {
		confidence *= 0.9
	}

	if s.DrawdownPercentage > 10 {
		confidence *= 0.85
	}

	if s.OpenPositionsCount > 10 {
		confidence *= 0.9
	}

	if s.LiquidityScore < 0.3 {
		confidence *= 0.8
	}

	return math.Max(confidence, 0.1)
}
