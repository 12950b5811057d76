package types

import (
	"strings"
	"time"
)

// PositionStatus represents the lifecycle state of a position
type PositionStatus string

const (
	PositionOpen   PositionStatus = "open"
	PositionClosed PositionStatus = "closed"
)

// Position represents a held (or previously held) amount of an asset
type Position struct {
	ID                string         `json:"id"`
	AccountID         string         `json:"account_id"`
	Asset             string         `json:"asset"`
	Side              Side           `json:"side"`
	Quantity          float64        `json:"quantity"`           // originally opened quantity
	RemainingQuantity float64        `json:"remaining_quantity"` // still open
	AverageEntryPrice float64        `json:"average_entry_price"`
	StopLoss          float64        `json:"stop_loss,omitempty"`
	Status            PositionStatus `json:"status"`
	RealizedPnL       float64        `json:"realized_pnl"`
	OpenedAt          time.Time      `json:"opened_at"`
	ClosedAt          time.Time      `json:"closed_at,omitempty"`
}

// Value returns the current notional exposure of the position.
func (p *Position) Value() float64 {
	return p.RemainingQuantity * p.AverageEntryPrice
}

// Transaction represents a single executed trade
type Transaction struct {
	ID         string    `json:"id"`
	AccountID  string    `json:"account_id"`
	Asset      string    `json:"asset"`
	Side       Side      `json:"side"`
	Quantity   float64   `json:"quantity"`
	Price      float64   `json:"price"`
	PnL        float64   `json:"pnl"` // realized on closing transactions, 0 otherwise
	ExecutedAt time.Time `json:"executed_at"`
}

// RiskLimits holds account-scoped risk configuration. A record is owned by the
// account and mutated only through explicit update operations; defaults apply
// when no record exists.
type RiskLimits struct {
	AccountID             string   `json:"account_id"`
	MaxPositionSize       float64  `json:"max_position_size"`       // absolute cap, quote currency
	MaxPositionPercentage float64  `json:"max_position_percentage"` // percent of portfolio value
	MaxOpenPositions      int      `json:"max_open_positions"`
	MaxDailyLoss          float64  `json:"max_daily_loss"`          // absolute, quote currency
	MaxDrawdownPercentage float64  `json:"max_drawdown_percentage"` // percent from peak
	MaxSlippage           float64  `json:"max_slippage"`            // percent
	MinLiquidityUSD       float64  `json:"min_liquidity_usd"`
	Blacklist             []string `json:"blacklist,omitempty"`
	Whitelist             []string `json:"whitelist,omitempty"` // empty means allow all
	AutoStopLoss          float64  `json:"auto_stop_loss"`      // percent below entry
	EmergencyStop         bool     `json:"emergency_stop"`
}

// DefaultRiskLimits returns the limits applied to accounts without a stored record.
func DefaultRiskLimits(accountID string) *RiskLimits {
	return &RiskLimits{
		AccountID:             accountID,
		MaxPositionSize:       1000.0,
		MaxPositionPercentage: 10.0,
		MaxOpenPositions:      10,
		MaxDailyLoss:          500.0,
		MaxDrawdownPercentage: 20.0,
		MaxSlippage:           3.0,
		MinLiquidityUSD:       10000.0,
		AutoStopLoss:          5.0,
	}
}

// IsBlacklisted reports whether the asset is explicitly blocked.
func (l *RiskLimits) IsBlacklisted(asset string) bool {
	for _, a := range l.Blacklist {
		if strings.EqualFold(a, asset) {
			return true
		}
	}
	return false
}

// IsWhitelisted reports whether the asset is tradeable under the whitelist.
// An empty whitelist allows every asset.
func (l *RiskLimits) IsWhitelisted(asset string) bool {
	if len(l.Whitelist) == 0 {
		return true
	}
	for _, a := range l.Whitelist {
		if strings.EqualFold(a, asset) {
			return true
		}
	}
	return false
}
