package quotes

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoQuotesAvailable is returned when every configured venue failed or
// timed out; partial failure is not an error.
var ErrNoQuotesAvailable = errors.New("no quotes available")

// ErrQuoteExpired is returned when a quote is used past its expiry.
var ErrQuoteExpired = errors.New("quote expired")

// VenueFailure records why a single venue was dropped from aggregation
type VenueFailure struct {
	Venue string
	Err   error
}

// AggregationError reports total aggregation failure with per-venue causes.
// It names venues and failure reasons but never endpoints or credentials.
type AggregationError struct {
	Pair     string
	Failures []VenueFailure
}

// Error implements the error interface
func (e *AggregationError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Venue, f.Err))
	}
	return fmt.Sprintf("no quotes available for %s: %s", e.Pair, strings.Join(parts, "; "))
}

// Is makes the error match ErrNoQuotesAvailable under errors.Is
func (e *AggregationError) Is(target error) bool {
	return target == ErrNoQuotesAvailable
}
