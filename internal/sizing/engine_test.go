package sizing

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ducminhle1904/token-trade-engine/internal/repository"
	"github.com/ducminhle1904/token-trade-engine/internal/risk"
	"github.com/ducminhle1904/token-trade-engine/pkg/types"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testEngine(store *repository.MemoryStore, config Config) *Engine {
	assessor := risk.NewAssessor(store, zap.NewNop(), func() time.Time { return testNow })
	return NewEngine(assessor, store, config, zap.NewNop())
}

func fundedStore(accountID string, value float64) *repository.MemoryStore {
	store := repository.NewMemoryStore()
	store.SetPortfolioValue(accountID, value)
	return store
}

func hasWarningContaining(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestSizeFixedAmount(t *testing.T) {
	engine := testEngine(fundedStore("acct-1", 10000), DefaultConfig())

	result, err := engine.Size(context.Background(), "acct-1", "BTC", types.SideBuy, 40000, 0, MethodFixedAmount)
	require.NoError(t, err)

	// default absolute cap and 10% portfolio cap both land at 1000
	assert.Equal(t, 1000.0, result.RecommendedSize)
	assert.Equal(t, MethodFixedAmount, result.Method)
}

func TestSizePercentageRiskWithStopLoss(t *testing.T) {
	engine := testEngine(fundedStore("acct-1", 10000), DefaultConfig())

	// risk 2% of 10000 = 200; entry 100, stop 95 -> 40 units -> 4000 notional,
	// clamped to the 1000 account ceiling
	result, err := engine.Size(context.Background(), "acct-1", "BTC", types.SideBuy, 100, 95, MethodPercentageRisk)
	require.NoError(t, err)

	assert.Equal(t, 4000.0, result.RiskAdjustedSize)
	assert.Equal(t, 1000.0, result.MaxAllowedSize)
	assert.Equal(t, 1000.0, result.RecommendedSize)
	assert.True(t, hasWarningContaining(result.Warnings, "clamped"))
}

func TestSizePercentageRiskWithoutStopLoss(t *testing.T) {
	engine := testEngine(fundedStore("acct-1", 10000), DefaultConfig())

	result, err := engine.Size(context.Background(), "acct-1", "BTC", types.SideBuy, 100, 0, MethodPercentageRisk)
	require.NoError(t, err)

	// falls back to deploying the risk amount itself
	assert.Equal(t, 200.0, result.RecommendedSize)
	assert.True(t, hasWarningContaining(result.Warnings, "no stop-loss"))
}

func TestSizePercentageRiskMonotonicInRiskPercentage(t *testing.T) {
	store := fundedStore("acct-1", 10000)

	var previous float64
	for _, pct := range []float64{0.5, 1.0, 2.0, 4.0} {
		config := DefaultConfig()
		config.RiskPercentage = pct
		result, err := testEngine(store, config).Size(context.Background(), "acct-1", "BTC", types.SideBuy, 100, 0, MethodPercentageRisk)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, result.RecommendedSize, previous,
			"risk %.1f%% must not shrink the recommendation", pct)
		previous = result.RecommendedSize
	}
}

func TestSizeKellyDegradesWithoutHistory(t *testing.T) {
	engine := testEngine(fundedStore("acct-1", 10000), DefaultConfig())

	result, err := engine.Size(context.Background(), "acct-1", "BTC", types.SideBuy, 40000, 0, MethodKellyCriterion)
	require.NoError(t, err)

	// conservative 1% fallback, flagged
	assert.Equal(t, 100.0, result.RecommendedSize)
	assert.True(t, hasWarningContaining(result.Warnings, "degraded"))
}

func TestSizeKellyWithHistory(t *testing.T) {
	store := fundedStore("acct-1", 10000)
	for i := 0; i < 12; i++ {
		store.AddTransaction(types.Transaction{
			ID: "w", AccountID: "acct-1", Asset: "BTC", PnL: 10,
			ExecutedAt: testNow.Add(-time.Duration(i+1) * 24 * time.Hour),
		})
	}
	for i := 0; i < 8; i++ {
		store.AddTransaction(types.Transaction{
			ID: "l", AccountID: "acct-1", Asset: "BTC", PnL: -5,
			ExecutedAt: testNow.Add(-time.Duration(i+20) * 24 * time.Hour),
		})
	}

	result, err := testEngine(store, DefaultConfig()).Size(context.Background(), "acct-1", "BTC", types.SideBuy, 40000, 0, MethodKellyCriterion)
	require.NoError(t, err)

	// p=0.6, b=2 -> kelly 0.4, quarter-kelly on 10000 = 1000
	assert.Equal(t, 1000.0, result.RiskAdjustedSize)
	assert.False(t, hasWarningContaining(result.Warnings, "degraded"))
}

func TestSizeKellyRecommendsZeroWhenEdgeIsNegative(t *testing.T) {
	store := fundedStore("acct-1", 10000)
	for i := 0; i < 5; i++ {
		store.AddTransaction(types.Transaction{
			ID: "w", AccountID: "acct-1", Asset: "BTC", PnL: 5,
			ExecutedAt: testNow.Add(-time.Duration(i+1) * 24 * time.Hour),
		})
	}
	for i := 0; i < 15; i++ {
		store.AddTransaction(types.Transaction{
			ID: "l", AccountID: "acct-1", Asset: "BTC", PnL: -10,
			ExecutedAt: testNow.Add(-time.Duration(i+10) * 24 * time.Hour),
		})
	}

	// p=0.25, b=0.5 -> kelly (0.125-0.75)/0.5 < 0
	result, err := testEngine(store, DefaultConfig()).Size(context.Background(), "acct-1", "BTC", types.SideBuy, 40000, 0, MethodKellyCriterion)
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.RecommendedSize)
	assert.True(t, hasWarningContaining(result.Warnings, "non-positive"))
}

func TestSizeVolatilityAdjustedDegradesWithoutCandles(t *testing.T) {
	engine := testEngine(fundedStore("acct-1", 10000), DefaultConfig())

	result, err := engine.Size(context.Background(), "acct-1", "BTC", types.SideBuy, 40000, 0, MethodVolatilityAdjusted)
	require.NoError(t, err)

	assert.True(t, hasWarningContaining(result.Warnings, "degraded"))
	assert.Greater(t, result.RecommendedSize, 0.0)
}

func TestSizeVolatilityAdjustedShrinksWithVolatility(t *testing.T) {
	calm := fundedStore("acct-1", 10000)
	choppy := fundedStore("acct-1", 10000)

	calmCandles := make([]types.OHLCV, 30)
	choppyCandles := make([]types.OHLCV, 30)
	price := 100.0
	for i := range calmCandles {
		calmCandles[i] = types.OHLCV{Close: price * (1 + 0.001*float64(i%2))}
		if i%2 == 0 {
			choppyCandles[i] = types.OHLCV{Close: price * 1.10}
		} else {
			choppyCandles[i] = types.OHLCV{Close: price * 0.90}
		}
	}
	calm.SetCandles("BTC", calmCandles)
	choppy.SetCandles("BTC", choppyCandles)

	calmResult, err := testEngine(calm, DefaultConfig()).Size(context.Background(), "acct-1", "BTC", types.SideBuy, 100, 0, MethodVolatilityAdjusted)
	require.NoError(t, err)
	choppyResult, err := testEngine(choppy, DefaultConfig()).Size(context.Background(), "acct-1", "BTC", types.SideBuy, 100, 0, MethodVolatilityAdjusted)
	require.NoError(t, err)

	assert.Less(t, choppyResult.RiskAdjustedSize, calmResult.RiskAdjustedSize)
}

func TestSizeEqualWeight(t *testing.T) {
	engine := testEngine(fundedStore("acct-1", 10000), DefaultConfig())

	result, err := engine.Size(context.Background(), "acct-1", "BTC", types.SideBuy, 40000, 0, MethodEqualWeight)
	require.NoError(t, err)

	// 10000 across 10 slots
	assert.Equal(t, 1000.0, result.RiskAdjustedSize)
}

func TestSizeInvariants(t *testing.T) {
	store := fundedStore("acct-1", 10000)
	store.AddPosition(types.Position{
		ID: "p1", AccountID: "acct-1", Asset: "ETH", Side: types.SideBuy,
		Quantity: 1.5, RemainingQuantity: 1.5, AverageEntryPrice: 2000,
		Status: types.PositionOpen,
	})

	for _, method := range GetAvailableMethods() {
		result, err := testEngine(store, DefaultConfig()).Size(context.Background(), "acct-1", "BTC", types.SideBuy, 100, 95, method)
		require.NoError(t, err, "method %s", method)

		assert.GreaterOrEqual(t, result.RecommendedSize, 0.0, "method %s", method)
		assert.LessOrEqual(t, result.RecommendedSize, result.MaxAllowedSize, "method %s", method)
		assert.GreaterOrEqual(t, result.ConfidenceScore, 0.1, "method %s", method)
		assert.LessOrEqual(t, result.ConfidenceScore, 1.0, "method %s", method)
	}
}

func TestSizeRejectsInvalidInputs(t *testing.T) {
	engine := testEngine(fundedStore("acct-1", 10000), DefaultConfig())

	_, err := engine.Size(context.Background(), "acct-1", "BTC", types.SideBuy, 0, 0, MethodFixedAmount)
	assert.Error(t, err)

	_, err = engine.Size(context.Background(), "acct-1", "BTC", types.SideBuy, 100, -5, MethodFixedAmount)
	assert.Error(t, err)

	// stop at or above entry makes risk-per-unit meaningless for a buy
	_, err = engine.Size(context.Background(), "acct-1", "BTC", types.SideBuy, 100, 100, MethodFixedAmount)
	assert.Error(t, err)

	_, err = engine.Size(context.Background(), "acct-1", "BTC", types.SideBuy, 100, 0, Method("martingale"))
	assert.Error(t, err)
}

func TestSizeDrawdownReducesSize(t *testing.T) {
	healthy := fundedStore("acct-1", 10000)

	stressed := repository.NewMemoryStore()
	stressed.SetPortfolioValue("acct-1", 12500) // peak
	stressed.SetPortfolioValue("acct-1", 10000) // 20% drawdown

	healthyResult, err := testEngine(healthy, DefaultConfig()).Size(context.Background(), "acct-1", "BTC", types.SideBuy, 100, 0, MethodPercentageRisk)
	require.NoError(t, err)
	stressedResult, err := testEngine(stressed, DefaultConfig()).Size(context.Background(), "acct-1", "BTC", types.SideBuy, 100, 0, MethodPercentageRisk)
	require.NoError(t, err)

	assert.Less(t, stressedResult.RiskAdjustedSize, healthyResult.RiskAdjustedSize)
	assert.Less(t, stressedResult.ConfidenceScore, healthyResult.ConfidenceScore)
}
