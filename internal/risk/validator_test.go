package risk

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ducminhle1904/token-trade-engine/internal/repository"
	"github.com/ducminhle1904/token-trade-engine/pkg/types"
)

func testValidator(store *repository.MemoryStore) *Validator {
	return NewValidator(testAssessor(store), zap.NewNop())
}

func buyDraft(asset string, quantity, price float64) *types.OrderDraft {
	return &types.OrderDraft{
		Asset:             asset,
		Side:              types.SideBuy,
		Quantity:          quantity,
		Price:             price,
		SlippageTolerance: 1.0,
	}
}

func TestValidateOrderAccepts(t *testing.T) {
	store := repository.NewMemoryStore()
	store.SetPortfolioValue("acct-1", 10000)

	accepted, warnings, err := testValidator(store).ValidateOrder(context.Background(), "acct-1", buyDraft("BTC", 0.01, 40000)) // value 400
	require.NoError(t, err)
	assert.True(t, accepted)
	assert.Empty(t, warnings)
}

func TestValidateOrderRejectsOversizedAbsolute(t *testing.T) {
	store := repository.NewMemoryStore()
	store.SetPortfolioValue("acct-1", 100000)

	// value 1500 exceeds the default 1000 absolute cap
	accepted, warnings, err := testValidator(store).ValidateOrder(context.Background(), "acct-1", buyDraft("BTC", 0.05, 30000))
	require.NoError(t, err)
	assert.False(t, accepted)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "maximum position size")
}

func TestValidateOrderRejectsPortfolioPercentage(t *testing.T) {
	store := repository.NewMemoryStore()
	store.SetPortfolioValue("acct-1", 5000)

	limits := types.DefaultRiskLimits("acct-1")
	limits.MaxPositionSize = 100000 // keep the absolute check out of the way
	require.NoError(t, store.UpdateRiskLimits(context.Background(), limits))

	// value 900 is 18% of 5000, above the 10% default
	accepted, warnings, err := testValidator(store).ValidateOrder(context.Background(), "acct-1", buyDraft("BTC", 0.03, 30000))
	require.NoError(t, err)
	assert.False(t, accepted)
	assert.Contains(t, warnings[0], "of portfolio")
}

func TestValidateOrderRejectsAtPositionCap(t *testing.T) {
	store := repository.NewMemoryStore()
	store.SetPortfolioValue("acct-1", 100000)

	limits := types.DefaultRiskLimits("acct-1")
	limits.MaxOpenPositions = 2
	require.NoError(t, store.UpdateRiskLimits(context.Background(), limits))

	store.AddPosition(openPosition("acct-1", "BTC", 0.01, 30000))
	store.AddPosition(openPosition("acct-1", "ETH", 0.1, 2500))

	accepted, warnings, err := testValidator(store).ValidateOrder(context.Background(), "acct-1", buyDraft("SOL", 2, 100))
	require.NoError(t, err)
	assert.False(t, accepted)
	assert.Contains(t, warnings[0], "open position count")

	// sells reduce positions and stay allowed at the cap
	sell := buyDraft("BTC", 0.01, 30000)
	sell.Side = types.SideSell
	accepted, _, err = testValidator(store).ValidateOrder(context.Background(), "acct-1", sell)
	require.NoError(t, err)
	assert.True(t, accepted)
}

func TestValidateOrderRejectsExcessiveSlippage(t *testing.T) {
	store := repository.NewMemoryStore()
	store.SetPortfolioValue("acct-1", 10000)

	draft := buyDraft("BTC", 0.01, 40000)
	draft.SlippageTolerance = 5.0 // default ceiling is 3%

	accepted, warnings, err := testValidator(store).ValidateOrder(context.Background(), "acct-1", draft)
	require.NoError(t, err)
	assert.False(t, accepted)
	assert.Contains(t, warnings[0], "slippage")
}

func TestValidateOrderRejectsAfterDailyLossLimit(t *testing.T) {
	store := repository.NewMemoryStore()
	store.SetPortfolioValue("acct-1", 10000)
	store.AddTransaction(types.Transaction{
		ID: "tx-1", AccountID: "acct-1", Asset: "ETH",
		PnL: -600, ExecutedAt: testNow.Add(-time.Hour),
	})

	accepted, warnings, err := testValidator(store).ValidateOrder(context.Background(), "acct-1", buyDraft("BTC", 0.01, 40000))
	require.NoError(t, err)
	assert.False(t, accepted)
	assert.Contains(t, warnings[0], "daily loss")
}

func TestValidateOrderEmergencyStop(t *testing.T) {
	store := repository.NewMemoryStore()
	store.SetPortfolioValue("acct-1", 10000)

	limits := types.DefaultRiskLimits("acct-1")
	limits.EmergencyStop = true
	require.NoError(t, store.UpdateRiskLimits(context.Background(), limits))

	accepted, warnings, err := testValidator(store).ValidateOrder(context.Background(), "acct-1", buyDraft("BTC", 0.01, 40000))
	require.NoError(t, err)
	assert.False(t, accepted)
	assert.Contains(t, warnings[0], "emergency stop")
}

func TestValidateOrderBlacklist(t *testing.T) {
	store := repository.NewMemoryStore()
	store.SetPortfolioValue("acct-1", 10000)

	limits := types.DefaultRiskLimits("acct-1")
	limits.Blacklist = []string{"SCAM"}
	require.NoError(t, store.UpdateRiskLimits(context.Background(), limits))

	accepted, warnings, err := testValidator(store).ValidateOrder(context.Background(), "acct-1", buyDraft("scam", 10, 1))
	require.NoError(t, err)
	assert.False(t, accepted)
	assert.Contains(t, warnings[0], "blacklisted")
}

func TestValidateOrderWhitelist(t *testing.T) {
	store := repository.NewMemoryStore()
	store.SetPortfolioValue("acct-1", 10000)

	limits := types.DefaultRiskLimits("acct-1")
	limits.Whitelist = []string{"BTC", "ETH"}
	require.NoError(t, store.UpdateRiskLimits(context.Background(), limits))

	accepted, _, err := testValidator(store).ValidateOrder(context.Background(), "acct-1", buyDraft("BTC", 0.01, 40000))
	require.NoError(t, err)
	assert.True(t, accepted)

	accepted, warnings, err := testValidator(store).ValidateOrder(context.Background(), "acct-1", buyDraft("SOL", 2, 100))
	require.NoError(t, err)
	assert.False(t, accepted)
	assert.Contains(t, warnings[0], "whitelist")
}

func TestValidateOrderSizeCheckedBeforeSlippage(t *testing.T) {
	store := repository.NewMemoryStore()
	store.SetPortfolioValue("acct-1", 100000)

	draft := buyDraft("BTC", 0.05, 30000) // value 1500, over the absolute cap
	draft.SlippageTolerance = 50.0        // also over the slippage ceiling

	_, warnings, err := testValidator(store).ValidateOrder(context.Background(), "acct-1", draft)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "maximum position size")
}

func TestValidateOrderWarningsOnAcceptance(t *testing.T) {
	store := repository.NewMemoryStore()
	store.SetPortfolioValue("acct-1", 10000)

	draft := buyDraft("BTC", 0.02, 40000) // 800 = 8% of portfolio
	draft.StopLoss = 0

	accepted, warnings, err := testValidator(store).ValidateOrder(context.Background(), "acct-1", draft)
	require.NoError(t, err)
	assert.True(t, accepted)
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "of portfolio value")
	assert.Contains(t, warnings[1], "stop-loss")
}

func TestValidateOrderIsIdempotent(t *testing.T) {
	store := repository.NewMemoryStore()
	store.SetPortfolioValue("acct-1", 10000)
	validator := testValidator(store)
	draft := buyDraft("BTC", 0.01, 40000)

	firstAccepted, firstWarnings, err := validator.ValidateOrder(context.Background(), "acct-1", draft)
	require.NoError(t, err)
	secondAccepted, secondWarnings, err := validator.ValidateOrder(context.Background(), "acct-1", draft)
	require.NoError(t, err)

	assert.Equal(t, firstAccepted, secondAccepted)
	assert.Equal(t, firstWarnings, secondWarnings)
}
