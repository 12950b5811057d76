package venue

import (
	"context"
)

// QuoteRequest describes a swap to be priced by a venue
type QuoteRequest struct {
	InputAsset        string
	OutputAsset       string
	InputAmount       float64
	SlippageTolerance float64 // percent
}

// QuoteResponse is a venue's raw answer to a quote request. The aggregator
// turns it into a time-boxed Quote record.
type QuoteResponse struct {
	OutputAmount float64
	PriceImpact  float64  // fraction
	GasEstimate  float64  // quote-currency cost estimate
	Route        []string // ordered asset hops, defaults to [input, output]
}

// Client is the capability a trading venue exposes to the decision core.
// Implementations are treated as black boxes with their own latency and
// failure characteristics.
type Client interface {
	// Name returns the venue identity used in quotes and logs
	Name() string

	// Quote prices the requested swap. Implementations must honor ctx
	// cancellation and deadlines.
	Quote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error)
}
