package venue

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
)

// StaticVenue prices swaps from a fixed rate table. It backs offline/demo runs
// and deterministic tests; rates can be updated at runtime to simulate moving
// markets.
type StaticVenue struct {
	name        string
	mu          sync.RWMutex
	rates       map[string]float64 // "IN/OUT" -> output units per input unit
	priceImpact float64
	gasEstimate float64
}

// NewStaticVenue creates a venue quoting from the given rate table.
// Keys are "INPUT/OUTPUT" pairs, values are output units per input unit.
func NewStaticVenue(name string, rates map[string]float64, priceImpact, gasEstimate float64) *StaticVenue {
	normalized := make(map[string]float64, len(rates))
	for pair, rate := range rates {
		normalized[strings.ToUpper(pair)] = rate
	}
	return &StaticVenue{
		name:        name,
		rates:       normalized,
		priceImpact: priceImpact,
		gasEstimate: gasEstimate,
	}
}

// Name returns the venue identity.
func (s *StaticVenue) Name() string {
	return s.name
}

// SetRate updates the rate for a pair, creating it if absent.
func (s *StaticVenue) SetRate(inputAsset, outputAsset string, rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates[pairKey(inputAsset, outputAsset)] = rate
}

// Quote prices the swap from the rate table.
func (s *StaticVenue) Quote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	s.mu.RLock()
	rate, ok := s.rates[pairKey(req.InputAsset, req.OutputAsset)]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("venue %s: no market for %s/%s", s.name, req.InputAsset, req.OutputAsset)
	}

	output := req.InputAmount * rate * (1 - s.priceImpact)
	if output <= 0 || math.IsNaN(output) || math.IsInf(output, 0) {
		return nil, fmt.Errorf("venue %s: degenerate output for %s/%s", s.name, req.InputAsset, req.OutputAsset)
	}

	return &QuoteResponse{
		OutputAmount: output,
		PriceImpact:  s.priceImpact,
		GasEstimate:  s.gasEstimate,
		Route:        []string{strings.ToUpper(req.InputAsset), strings.ToUpper(req.OutputAsset)},
	}, nil
}

func pairKey(inputAsset, outputAsset string) string {
	return strings.ToUpper(inputAsset) + "/" + strings.ToUpper(outputAsset)
}
