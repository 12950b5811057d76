package venue

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerClient wraps a venue client with a circuit breaker so a venue that
// keeps failing is skipped cheaply instead of eating its full timeout on
// every aggregation cycle.
type BreakerClient struct {
	inner   Client
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerClient wraps inner with a circuit breaker. The breaker opens after
// repeated consecutive failures and half-opens again after the cooldown.
func NewBreakerClient(inner Client, log *zap.Logger) *BreakerClient {
	settings := gobreaker.Settings{
		Name:        inner.Name(),
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("venue circuit breaker state change",
				zap.String("venue", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &BreakerClient{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Name returns the wrapped venue's identity.
func (b *BreakerClient) Name() string {
	return b.inner.Name()
}

// Quote delegates to the wrapped venue through the circuit breaker.
func (b *BreakerClient) Quote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		return b.inner.Quote(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return result.(*QuoteResponse), nil
}
