package venue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStaticVenueQuote(t *testing.T) {
	v := NewStaticVenue("sim", map[string]float64{"usdt/btc": 0.00002}, 0.01, 0.5)

	resp, err := v.Quote(context.Background(), QuoteRequest{
		InputAsset:  "USDT",
		OutputAsset: "BTC",
		InputAmount: 1000,
	})
	require.NoError(t, err)

	// 1000 * 0.00002 * (1 - 0.01) = 0.0198
	assert.InDelta(t, 0.0198, resp.OutputAmount, 1e-12)
	assert.Equal(t, 0.01, resp.PriceImpact)
	assert.Equal(t, 0.5, resp.GasEstimate)
	assert.Equal(t, []string{"USDT", "BTC"}, resp.Route)
}

func TestStaticVenueUnknownPair(t *testing.T) {
	v := NewStaticVenue("sim", map[string]float64{"USDT/BTC": 0.00002}, 0, 0)

	_, err := v.Quote(context.Background(), QuoteRequest{
		InputAsset:  "USDT",
		OutputAsset: "DOGE",
		InputAmount: 1000,
	})
	assert.Error(t, err)
}

func TestStaticVenueSetRate(t *testing.T) {
	v := NewStaticVenue("sim", map[string]float64{"USDT/BTC": 0.00002}, 0, 0)
	v.SetRate("usdt", "btc", 0.00004)

	resp, err := v.Quote(context.Background(), QuoteRequest{
		InputAsset:  "USDT",
		OutputAsset: "BTC",
		InputAmount: 1000,
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.04, resp.OutputAmount, 1e-12)
}

func TestStaticVenueCancelledContext(t *testing.T) {
	v := NewStaticVenue("sim", map[string]float64{"USDT/BTC": 0.00002}, 0, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := v.Quote(ctx, QuoteRequest{InputAsset: "USDT", OutputAsset: "BTC", InputAmount: 1000})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFactoryCreatesStaticVenue(t *testing.T) {
	client, err := Create(Config{
		Name:  "sim",
		Type:  "static",
		Rates: map[string]float64{"USDT/BTC": 0.00002},
	}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "sim", client.Name())

	resp, err := client.Quote(context.Background(), QuoteRequest{
		InputAsset:  "USDT",
		OutputAsset: "BTC",
		InputAmount: 1000,
	})
	require.NoError(t, err)
	assert.Greater(t, resp.OutputAmount, 0.0)
}

func TestFactoryRejectsUnknownType(t *testing.T) {
	_, err := Create(Config{Name: "x", Type: "uniswap"}, zap.NewNop())
	assert.Error(t, err)
}

func TestFactoryNormalizesType(t *testing.T) {
	client, err := Create(Config{Name: "sim", Type: "  Static  "}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "sim", client.Name())
}

// countingVenue fails a fixed number of times before succeeding
type countingVenue struct {
	name     string
	failures int
	calls    int
}

func (c *countingVenue) Name() string { return c.name }

func (c *countingVenue) Quote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	c.calls++
	if c.calls <= c.failures {
		return nil, fmt.Errorf("transient failure %d", c.calls)
	}
	return &QuoteResponse{OutputAmount: 1}, nil
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &countingVenue{name: "flaky", failures: 100}
	client := NewBreakerClient(inner, zap.NewNop())

	for i := 0; i < 5; i++ {
		_, err := client.Quote(context.Background(), QuoteRequest{})
		assert.Error(t, err)
	}

	// breaker is now open: the inner venue stops being called
	callsBefore := inner.calls
	_, err := client.Quote(context.Background(), QuoteRequest{})
	assert.Error(t, err)
	assert.Equal(t, callsBefore, inner.calls)
}

func TestBreakerPassesThroughSuccess(t *testing.T) {
	inner := &countingVenue{name: "healthy"}
	client := NewBreakerClient(inner, zap.NewNop())

	resp, err := client.Quote(context.Background(), QuoteRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, resp.OutputAmount)
}

func TestRateLimitedClientHonorsDeadline(t *testing.T) {
	inner := &countingVenue{name: "limited"}
	client := NewRateLimitedClient(inner, 1, 1)

	// first call consumes the only token
	_, err := client.Quote(context.Background(), QuoteRequest{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = client.Quote(ctx, QuoteRequest{})
	assert.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestRetryWithBackoffRecovers(t *testing.T) {
	config := RetryConfig{
		MaxRetries:    2,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}

	attempts := 0
	err := retryWithBackoff(context.Background(), config, func() error {
		attempts++
		if attempts < 3 {
			return fmt.Errorf("not yet")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoffExhausts(t *testing.T) {
	config := RetryConfig{
		MaxRetries:    1,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}

	err := retryWithBackoff(context.Background(), config, func() error {
		return fmt.Errorf("permanent failure")
	})
	assert.EqualError(t, err, "permanent failure")
}
