package risk

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/ducminhle1904/token-trade-engine/internal/monitoring"
	"github.com/ducminhle1904/token-trade-engine/internal/repository"
	"github.com/ducminhle1904/token-trade-engine/pkg/types"
)

// Sub-score weights; the weights sum to 10 so the composite score is 0-10.
const (
	weightExposure      = 3.0
	weightDrawdown      = 2.0
	weightConcentration = 2.0
	weightPositions     = 1.0
	weightDailyLoss     = 2.0
)

// Scaling targets for the capped sub-scores
const (
	exposureRatioTarget     = 0.8  // exposure ratio at which the exposure sub-score caps
	concentrationPctTarget  = 50.0 // concentration at which the concentration sub-score caps
	criticalExposureRatio   = 0.85
	criticalConcentrationPc = 50.0
	criticalScoreFloor      = 6.5
)

// Assessor computes portfolio risk snapshots and verdicts for accounts.
// It holds no per-account state; every call computes from a consistent
// repository snapshot, so concurrent assessments are safe.
type Assessor struct {
	repo  repository.Repository
	log   *zap.Logger
	clock func() time.Time
}

// NewAssessor creates a portfolio risk assessor.
func NewAssessor(repo repository.Repository, log *zap.Logger, clock func() time.Time) *Assessor {
	if clock == nil {
		clock = time.Now
	}
	return &Assessor{repo: repo, log: log, clock: clock}
}

// Limits returns the account's stored risk limits, falling back to defaults
// when no record exists.
func (a *Assessor) Limits(ctx context.Context, accountID string) (*types.RiskLimits, error) {
	limits, err := a.repo.GetRiskLimits(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load risk limits for %s: %w", accountID, err)
	}
	if limits == nil {
		return types.DefaultRiskLimits(accountID), nil
	}
	return limits, nil
}

// Snapshot computes a fresh immutable risk-metrics snapshot for the account.
func (a *Assessor) Snapshot(ctx context.Context, accountID string) (*MetricsSnapshot, error) {
	now := a.clock()

	openPositions, err := a.repo.GetOpenPositions(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load open positions for %s: %w", accountID, err)
	}

	portfolioValue, err := a.repo.GetPortfolioValue(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio value for %s: %w", accountID, err)
	}

	peakValue, err := a.repo.GetPeakValue(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load peak value for %s: %w", accountID, err)
	}

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	todays, err := a.repo.GetTransactionsSince(ctx, accountID, startOfDay)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions for %s: %w", accountID, err)
	}

	exposure := 0.0
	largest := 0.0
	for _, p := range openPositions {
		value := p.Value()
		exposure += value
		if value > largest {
			largest = value
		}
	}

	dailyPnL := 0.0
	for _, tx := range todays {
		dailyPnL += tx.PnL
	}

	drawdownPct := 0.0
	if peakValue > 0 && portfolioValue < peakValue {
		drawdownPct = (peakValue - portfolioValue) / peakValue * 100
	}

	concentrationPct := 0.0
	if portfolioValue > 0 {
		concentrationPct = largest / portfolioValue * 100
	}

	available := math.Max(0, portfolioValue-exposure)

	liquidity := 1.0
	if portfolioValue > 0 {
		liquidity = math.Min(1.0, available/portfolioValue)
	}

	return &MetricsSnapshot{
		AccountID:               accountID,
		PortfolioValue:          portfolioValue,
		CurrentExposure:         exposure,
		AvailableCapital:        available,
		OpenPositionsCount:      len(openPositions),
		DailyPnL:                dailyPnL,
		DrawdownPercentage:      drawdownPct,
		ConcentrationPercentage: concentrationPct,
		LiquidityScore:          liquidity,
		ComputedAt:              now,
	}, nil
}

// Assess computes a fresh snapshot and derives the risk verdict from it.
// The verdict is deterministic: unchanged store state yields an identical
// score and level.
func (a *Assessor) Assess(ctx context.Context, accountID string) (*Verdict, error) {
	snapshot, err := a.Snapshot(ctx, accountID)
	if err != nil {
		return nil, err
	}

	limits, err := a.Limits(ctx, accountID)
	if err != nil {
		return nil, err
	}

	score := a.compositeScore(snapshot, limits)
	level := LevelForScore(score)

	verdict := &Verdict{
		AccountID: accountID,
		RiskScore: score,
		RiskLevel: level,
		CanTrade:  true,
		Metrics:   snapshot,
	}

	dailyLoss := math.Max(0, -snapshot.DailyPnL)

	// Hard gates: these force canTrade=false regardless of the score
	if limits.EmergencyStop {
		verdict.CanTrade = false
		verdict.Warnings = append(verdict.Warnings, "emergency stop is active: trading is halted")
	}
	if dailyLoss > limits.MaxDailyLoss {
		verdict.CanTrade = false
		verdict.Warnings = append(verdict.Warnings,
			fmt.Sprintf("daily loss %.2f exceeds limit %.2f", dailyLoss, limits.MaxDailyLoss))
	}
	if snapshot.DrawdownPercentage > limits.MaxDrawdownPercentage {
		verdict.CanTrade = false
		verdict.Warnings = append(verdict.Warnings,
			fmt.Sprintf("drawdown %.2f%% exceeds limit %.2f%%", snapshot.DrawdownPercentage, limits.MaxDrawdownPercentage))
	}

	// Advisory warnings, never gating
	if snapshot.ConcentrationPercentage > 30 {
		verdict.Warnings = append(verdict.Warnings,
			fmt.Sprintf("concentration %.1f%% of portfolio is in a single position", snapshot.ConcentrationPercentage))
	}

	// Recommendations are advisory only
	if snapshot.ConcentrationPercentage > 20 {
		verdict.Recommendations = append(verdict.Recommendations,
			"diversify holdings: largest position exceeds 20% of portfolio value")
	}
	if snapshot.OpenPositionsCount > 15 {
		verdict.Recommendations = append(verdict.Recommendations,
			fmt.Sprintf("reduce open positions: %d positions are hard to manage", snapshot.OpenPositionsCount))
	}
	if snapshot.DrawdownPercentage > 10 {
		verdict.Recommendations = append(verdict.Recommendations,
			"reduce position sizes until the portfolio recovers from drawdown")
	}
	if snapshot.ExposureRatio() > 0.8 {
		verdict.Recommendations = append(verdict.Recommendations,
			"free up capital: more than 80% of the portfolio is deployed")
	}

	monitoring.UpdateRiskScore(accountID, score)
	a.log.Debug("portfolio risk assessed",
		zap.String("account", accountID),
		zap.Float64("score", score),
		zap.String("level", string(level)),
		zap.Bool("can_trade", verdict.CanTrade),
	)

	return verdict, nil
}

// compositeScore computes the 0-10 weighted score from capped sub-scores.
func (a *Assessor) compositeScore(s *MetricsSnapshot, limits *types.RiskLimits) float64 {
	score := 0.0

	exposureRatio := s.ExposureRatio()
	score += weightExposure * math.Min(exposureRatio/exposureRatioTarget, 1.0)

	if limits.MaxDrawdownPercentage > 0 {
		score += weightDrawdown * math.Min(s.DrawdownPercentage/limits.MaxDrawdownPercentage, 1.0)
	}

	score += weightConcentration * math.Min(s.ConcentrationPercentage/concentrationPctTarget, 1.0)

	if limits.MaxOpenPositions > 0 {
		score += weightPositions * math.Min(float64(s.OpenPositionsCount)/float64(limits.MaxOpenPositions), 1.0)
	}

	if limits.MaxDailyLoss > 0 {
		dailyLoss := math.Max(0, -s.DailyPnL)
		score += weightDailyLoss * math.Min(dailyLoss/limits.MaxDailyLoss, 1.0)
	}

	// A portfolio that is nearly fully deployed into a single position is
	// already high-risk even before losses show up in the drawdown and
	// daily-loss sub-scores.
	if exposureRatio >= criticalExposureRatio && s.ConcentrationPercentage >= criticalConcentrationPc {
		score = math.Max(score, criticalScoreFloor)
	}

	return math.Min(score, 10.0)
}
