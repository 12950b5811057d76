package venue

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitedClient wraps a venue client with a token-bucket rate limiter so
// aggregation fan-out and the arbitrage scan loop cannot exceed a venue's
// request budget.
type RateLimitedClient struct {
	inner   Client
	limiter *rate.Limiter
}

// NewRateLimitedClient wraps inner, allowing rps requests per second with the
// given burst.
func NewRateLimitedClient(inner Client, rps float64, burst int) *RateLimitedClient {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedClient{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Name returns the wrapped venue's identity.
func (r *RateLimitedClient) Name() string {
	return r.inner.Name()
}

// Quote waits for a rate-limiter token, then delegates. Waiting respects the
// caller's deadline, so a saturated limiter surfaces as a venue timeout.
func (r *RateLimitedClient) Quote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.inner.Quote(ctx, req)
}
