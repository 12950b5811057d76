package quotes

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ducminhle1904/token-trade-engine/internal/errors"
	"github.com/ducminhle1904/token-trade-engine/internal/monitoring"
	"github.com/ducminhle1904/token-trade-engine/internal/venue"
	"github.com/ducminhle1904/token-trade-engine/pkg/types"
)

// Config holds aggregator timing configuration. Venue timeout and quote TTL
// are independent horizons and must not be conflated.
type Config struct {
	VenueTimeout time.Duration    // per-venue call deadline
	QuoteTTL     time.Duration    // validity window stamped on each quote
	Clock        func() time.Time // defaults to time.Now
}

// DefaultConfig returns the default aggregator configuration
func DefaultConfig() Config {
	return Config{
		VenueTimeout: 3 * time.Second,
		QuoteTTL:     90 * time.Second,
	}
}

// Aggregator fans a quote request out to all configured venues concurrently,
// keeps whichever respond within the deadline, and ranks the survivors.
type Aggregator struct {
	venues []venue.Client
	config Config
	log    *zap.Logger
}

// NewAggregator creates a quote aggregator over the given venues.
func NewAggregator(venues []venue.Client, config Config, log *zap.Logger) *Aggregator {
	if config.VenueTimeout <= 0 {
		config.VenueTimeout = DefaultConfig().VenueTimeout
	}
	if config.QuoteTTL <= 0 {
		config.QuoteTTL = DefaultConfig().QuoteTTL
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	return &Aggregator{
		venues: venues,
		config: config,
		log:    log,
	}
}

// Venues returns the names of all configured venues.
func (a *Aggregator) Venues() []string {
	names := make([]string, len(a.venues))
	for i, v := range a.venues {
		names[i] = v.Name()
	}
	return names
}

type venueResult struct {
	quote   *types.Quote
	failure *VenueFailure
}

// GetQuotes requests quotes from the selected venues (default: all) and
// returns the survivors best-first. A venue that errors or times out is
// dropped and logged; the call fails only when zero venues responded.
func (a *Aggregator) GetQuotes(ctx context.Context, inputAsset, outputAsset string, inputAmount, slippageTolerance float64, venueNames ...string) ([]types.Quote, error) {
	if inputAmount <= 0 {
		return nil, errors.NewValidationError("aggregator", "get_quotes",
			fmt.Sprintf("input amount must be positive, got %.8f", inputAmount))
	}
	if slippageTolerance < 0 {
		return nil, errors.NewValidationError("aggregator", "get_quotes",
			fmt.Sprintf("slippage tolerance cannot be negative, got %.4f", slippageTolerance))
	}

	selected := a.selectVenues(venueNames)
	if len(selected) == 0 {
		return nil, errors.NewValidationError("aggregator", "get_quotes",
			"no matching venues configured")
	}

	req := venue.QuoteRequest{
		InputAsset:        strings.ToUpper(inputAsset),
		OutputAsset:       strings.ToUpper(outputAsset),
		InputAmount:       inputAmount,
		SlippageTolerance: slippageTolerance,
	}

	results := make(chan venueResult, len(selected))
	var wg sync.WaitGroup

	for _, v := range selected {
		wg.Add(1)
		go func(v venue.Client) {
			defer wg.Done()
			results <- a.quoteOne(ctx, v, req)
		}(v)
	}

	wg.Wait()
	close(results)

	var collected []types.Quote
	var failures []VenueFailure
	for r := range results {
		if r.failure != nil {
			failures = append(failures, *r.failure)
			continue
		}
		collected = append(collected, *r.quote)
	}

	if len(collected) == 0 {
		return nil, &AggregationError{
			Pair:     req.InputAsset + "/" + req.OutputAsset,
			Failures: failures,
		}
	}

	rankQuotes(collected)
	return collected, nil
}

// quoteOne calls a single venue under its own deadline so a slow or dead
// venue never blocks the others.
func (a *Aggregator) quoteOne(ctx context.Context, v venue.Client, req venue.QuoteRequest) venueResult {
	callCtx, cancel := context.WithTimeout(ctx, a.config.VenueTimeout)
	defer cancel()

	start := a.config.Clock()
	resp, err := v.Quote(callCtx, req)
	elapsed := a.config.Clock().Sub(start)

	if err != nil {
		monitoring.RecordVenueError(v.Name())
		a.log.Warn("venue dropped from aggregation",
			zap.String("venue", v.Name()),
			zap.String("pair", req.InputAsset+"/"+req.OutputAsset),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return venueResult{failure: &VenueFailure{Venue: v.Name(), Err: err}}
	}

	monitoring.RecordQuoteFetched(v.Name(), elapsed)

	now := a.config.Clock()
	quote := &types.Quote{
		Venue:         v.Name(),
		InputAsset:    req.InputAsset,
		OutputAsset:   req.OutputAsset,
		InputAmount:   req.InputAmount,
		OutputAmount:  resp.OutputAmount,
		MinimumOutput: resp.OutputAmount * (1 - req.SlippageTolerance/100),
		PriceImpact:   resp.PriceImpact,
		GasEstimate:   resp.GasEstimate,
		Route:         resp.Route,
		CreatedAt:     now,
		ExpiresAt:     now.Add(a.config.QuoteTTL),
	}
	if len(quote.Route) == 0 {
		quote.Route = []string{req.InputAsset, req.OutputAsset}
	}

	return venueResult{quote: quote}
}

// rankQuotes sorts best price first; ties broken by lower price impact, then
// lower gas estimate.
func rankQuotes(quotes []types.Quote) {
	sort.Slice(quotes, func(i, j int) bool {
		if quotes[i].OutputAmount != quotes[j].OutputAmount {
			return quotes[i].OutputAmount > quotes[j].OutputAmount
		}
		if quotes[i].PriceImpact != quotes[j].PriceImpact {
			return quotes[i].PriceImpact < quotes[j].PriceImpact
		}
		return quotes[i].GasEstimate < quotes[j].GasEstimate
	})
}

func (a *Aggregator) selectVenues(names []string) []venue.Client {
	if len(names) == 0 {
		return a.venues
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[strings.ToLower(n)] = true
	}
	var selected []venue.Client
	for _, v := range a.venues {
		if wanted[strings.ToLower(v.Name())] {
			selected = append(selected, v)
		}
	}
	return selected
}

// ValidateQuote re-checks a quote before any re-use path. Using an expired
// quote is a caller bug; this rejects it with a typed error instead of
// silently returning stale numbers.
func (a *Aggregator) ValidateQuote(q *types.Quote) error {
	if q == nil {
		return fmt.Errorf("quote is nil")
	}
	if q.MinimumOutput > q.OutputAmount {
		return fmt.Errorf("quote from %s is inconsistent: minimum output %.8f exceeds output %.8f",
			q.Venue, q.MinimumOutput, q.OutputAmount)
	}
	if q.IsExpired(a.config.Clock()) {
		return fmt.Errorf("%w: venue %s, expired at %s", ErrQuoteExpired, q.Venue, q.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}
