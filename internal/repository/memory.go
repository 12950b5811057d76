package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ducminhle1904/token-trade-engine/pkg/types"
)

// MemoryStore is an in-memory Repository implementation used by tests and the
// demo binary. All reads return copies so callers always compute from a
// consistent snapshot of the data at call time.
type MemoryStore struct {
	mu           sync.RWMutex
	positions    map[string][]types.Position    // accountID -> positions
	transactions map[string][]types.Transaction // accountID -> transactions
	limits       map[string]*types.RiskLimits   // accountID -> limits
	values       map[string]float64             // accountID -> portfolio value
	peaks        map[string]float64             // accountID -> high-water mark
	candles      map[string][]types.OHLCV       // asset -> candles, oldest first
}

// NewMemoryStore creates an empty in-memory repository.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		positions:    make(map[string][]types.Position),
		transactions: make(map[string][]types.Transaction),
		limits:       make(map[string]*types.RiskLimits),
		values:       make(map[string]float64),
		peaks:        make(map[string]float64),
		candles:      make(map[string][]types.OHLCV),
	}
}

// SetPortfolioValue records the account's portfolio value, raising the peak
// when the new value exceeds it.
func (m *MemoryStore) SetPortfolioValue(accountID string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[accountID] = value
	if value > m.peaks[accountID] {
		m.peaks[accountID] = value
	}
}

// GetPortfolioValue returns the account's current portfolio value.
func (m *MemoryStore) GetPortfolioValue(ctx context.Context, accountID string) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[accountID], nil
}

// GetPeakValue returns the account's high-water mark.
func (m *MemoryStore) GetPeakValue(ctx context.Context, accountID string) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.peaks[accountID], nil
}

// AddPosition records a position for the account.
func (m *MemoryStore) AddPosition(p types.Position) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[p.AccountID] = append(m.positions[p.AccountID], p)
}

// AddTransaction records an executed trade for the account.
func (m *MemoryStore) AddTransaction(tx types.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[tx.AccountID] = append(m.transactions[tx.AccountID], tx)
}

// SetCandles replaces the stored price history for an asset.
func (m *MemoryStore) SetCandles(asset string, candles []types.OHLCV) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]types.OHLCV, len(candles))
	copy(cp, candles)
	m.candles[asset] = cp
}

// GetOpenPositions returns all open positions for the account.
func (m *MemoryStore) GetOpenPositions(ctx context.Context, accountID string) ([]types.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []types.Position
	for _, p := range m.positions[accountID] {
		if p.Status == types.PositionOpen {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetClosedPositions returns closed positions for the account, most recent first.
func (m *MemoryStore) GetClosedPositions(ctx context.Context, accountID string) ([]types.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []types.Position
	for _, p := range m.positions[accountID] {
		if p.Status == types.PositionClosed {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClosedAt.After(out[j].ClosedAt) })
	return out, nil
}

// GetTransactionsSince returns transactions executed at or after the given time.
func (m *MemoryStore) GetTransactionsSince(ctx context.Context, accountID string, since time.Time) ([]types.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []types.Transaction
	for _, tx := range m.transactions[accountID] {
		if !tx.ExecutedAt.Before(since) {
			out = append(out, tx)
		}
	}
	return out, nil
}

// GetClosedTrades returns closing transactions for the account and asset.
func (m *MemoryStore) GetClosedTrades(ctx context.Context, accountID, asset string, limit int) ([]types.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []types.Transaction
	for _, tx := range m.transactions[accountID] {
		if tx.Asset == asset && tx.PnL != 0 {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExecutedAt.After(out[j].ExecutedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetRiskLimits returns the stored limits, or nil when no record exists.
func (m *MemoryStore) GetRiskLimits(ctx context.Context, accountID string) (*types.RiskLimits, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	limits, ok := m.limits[accountID]
	if !ok {
		return nil, nil
	}
	cp := *limits
	return &cp, nil
}

// UpdateRiskLimits replaces the stored limits for limits.AccountID.
func (m *MemoryStore) UpdateRiskLimits(ctx context.Context, limits *types.RiskLimits) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *limits
	m.limits[limits.AccountID] = &cp
	return nil
}

// GetRecentCandles returns up to limit recent candles for the asset, oldest first.
func (m *MemoryStore) GetRecentCandles(ctx context.Context, asset string, limit int) ([]types.OHLCV, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	candles := m.candles[asset]
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	out := make([]types.OHLCV, len(candles))
	copy(out, candles)
	return out, nil
}
