package risk

import "time"

// RiskLevel classifies a composite risk score
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// Composite score thresholds for level mapping
const (
	scoreLowMax    = 3.0
	scoreMediumMax = 6.0
	scoreHighMax   = 8.0
)

// LevelForScore maps a 0-10 composite score to a risk level.
func LevelForScore(score float64) RiskLevel {
	switch {
	case score <= scoreLowMax:
		return RiskLevelLow
	case score <= scoreMediumMax:
		return RiskLevelMedium
	case score <= scoreHighMax:
		return RiskLevelHigh
	default:
		return RiskLevelCritical
	}
}

// MetricsSnapshot is an immutable point-in-time view of an account's
// portfolio risk, computed fresh on every assessment.
type MetricsSnapshot struct {
	AccountID               string    `json:"account_id"`
	PortfolioValue          float64   `json:"portfolio_value"`
	CurrentExposure         float64   `json:"current_exposure"`
	AvailableCapital        float64   `json:"available_capital"` // max(0, portfolio - exposure)
	OpenPositionsCount      int       `json:"open_positions_count"`
	DailyPnL                float64   `json:"daily_pnl"`
	DrawdownPercentage      float64   `json:"drawdown_percentage"`
	ConcentrationPercentage float64   `json:"concentration_percentage"`
	LiquidityScore          float64   `json:"liquidity_score"` // 0.0 to 1.0
	ComputedAt              time.Time `json:"computed_at"`
}

// ExposureRatio returns exposure as a fraction of portfolio value.
func (s *MetricsSnapshot) ExposureRatio() float64 {
	if s.PortfolioValue <= 0 {
		return 0
	}
	return s.CurrentExposure / s.PortfolioValue
}

// Verdict is the deterministic outcome of a portfolio risk assessment
type Verdict struct {
	AccountID       string           `json:"account_id"`
	RiskScore       float64          `json:"risk_score"` // 0 to 10
	RiskLevel       RiskLevel        `json:"risk_level"`
	CanTrade        bool             `json:"can_trade"`
	Warnings        []string         `json:"warnings,omitempty"`
	Recommendations []string         `json:"recommendations,omitempty"`
	Metrics         *MetricsSnapshot `json:"metrics"`
}
