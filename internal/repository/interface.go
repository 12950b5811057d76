package repository

import (
	"context"
	"time"

	"github.com/ducminhle1904/token-trade-engine/pkg/types"
)

// PositionStore provides read access to an account's positions
type PositionStore interface {
	// GetOpenPositions returns all currently open positions for the account
	GetOpenPositions(ctx context.Context, accountID string) ([]types.Position, error)

	// GetClosedPositions returns closed positions for the account, most recent first
	GetClosedPositions(ctx context.Context, accountID string) ([]types.Position, error)
}

// TransactionStore provides read access to an account's executed trades
type TransactionStore interface {
	// GetTransactionsSince returns the account's transactions executed at or after the given time
	GetTransactionsSince(ctx context.Context, accountID string, since time.Time) ([]types.Transaction, error)

	// GetClosedTrades returns closing transactions (carrying realized PnL) for
	// the account and asset, most recent first, capped at limit
	GetClosedTrades(ctx context.Context, accountID, asset string, limit int) ([]types.Transaction, error)
}

// RiskLimitStore provides access to per-account risk limit records
type RiskLimitStore interface {
	// GetRiskLimits returns the stored limits for the account, or nil when no record exists
	GetRiskLimits(ctx context.Context, accountID string) (*types.RiskLimits, error)

	// UpdateRiskLimits replaces the stored limits for limits.AccountID
	UpdateRiskLimits(ctx context.Context, limits *types.RiskLimits) error
}

// AccountStore provides account-level valuation records
type AccountStore interface {
	// GetPortfolioValue returns the account's current total portfolio value
	// (open exposure plus free capital) in quote currency
	GetPortfolioValue(ctx context.Context, accountID string) (float64, error)

	// GetPeakValue returns the account's high-water mark used for drawdown
	GetPeakValue(ctx context.Context, accountID string) (float64, error)
}

// MarketDataStore provides recent price history for volatility estimation
type MarketDataStore interface {
	// GetRecentCandles returns up to limit recent candles for the asset, oldest first
	GetRecentCandles(ctx context.Context, asset string, limit int) ([]types.OHLCV, error)
}

// Repository bundles the stores the decision core depends on
type Repository interface {
	PositionStore
	TransactionStore
	RiskLimitStore
	AccountStore
	MarketDataStore
}
