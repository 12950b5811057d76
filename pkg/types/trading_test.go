package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQuoteEffectivePrice(t *testing.T) {
	q := &Quote{InputAmount: 1000, OutputAmount: 0.025}
	assert.InDelta(t, 0.000025, q.EffectivePrice(), 1e-12)

	degenerate := &Quote{InputAmount: 0, OutputAmount: 5}
	assert.Equal(t, 0.0, degenerate.EffectivePrice())
}

func TestQuoteExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	q := &Quote{ExpiresAt: now}

	assert.False(t, q.IsExpired(now)) // boundary is still valid
	assert.True(t, q.IsExpired(now.Add(time.Nanosecond)))
}

func TestOpportunityProfitability(t *testing.T) {
	assert.True(t, (&ArbitrageOpportunity{NetProfit: 0.01}).IsProfitable())
	assert.False(t, (&ArbitrageOpportunity{NetProfit: 0}).IsProfitable())
	assert.False(t, (&ArbitrageOpportunity{NetProfit: -1}).IsProfitable())
}

func TestOrderDraftValue(t *testing.T) {
	draft := &OrderDraft{Quantity: 0.5, Price: 2000}
	assert.Equal(t, 1000.0, draft.Value())
}

func TestRiskLimitLists(t *testing.T) {
	limits := DefaultRiskLimits("acct-1")
	assert.False(t, limits.IsBlacklisted("BTC"))
	assert.True(t, limits.IsWhitelisted("BTC")) // empty whitelist allows all

	limits.Blacklist = []string{"SCAM"}
	limits.Whitelist = []string{"BTC", "ETH"}

	assert.True(t, limits.IsBlacklisted("scam"))
	assert.True(t, limits.IsWhitelisted("eth"))
	assert.False(t, limits.IsWhitelisted("SOL"))
}

func TestPositionValue(t *testing.T) {
	p := &Position{Quantity: 1.0, RemainingQuantity: 0.4, AverageEntryPrice: 2500}
	assert.Equal(t, 1000.0, p.Value())
}
