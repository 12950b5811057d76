package types

import "time"

// Side represents the direction of a trade
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Quote represents an executable price quote from a single venue.
// Quotes are immutable after creation and must not be used past ExpiresAt.
type Quote struct {
	Venue         string    `json:"venue"`
	InputAsset    string    `json:"input_asset"`
	OutputAsset   string    `json:"output_asset"`
	InputAmount   float64   `json:"input_amount"`
	OutputAmount  float64   `json:"output_amount"`
	MinimumOutput float64   `json:"minimum_output"` // after slippage tolerance
	PriceImpact   float64   `json:"price_impact"`   // fraction, e.g. 0.003 = 0.3%
	GasEstimate   float64   `json:"gas_estimate"`   // quote-currency cost estimate
	Route         []string  `json:"route"`          // ordered asset hops
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// EffectivePrice returns output units per input unit.
func (q *Quote) EffectivePrice() float64 {
	if q.InputAmount <= 0 {
		return 0
	}
	return q.OutputAmount / q.InputAmount
}

// IsExpired reports whether the quote is past its validity window.
func (q *Quote) IsExpired(now time.Time) bool {
	return now.After(q.ExpiresAt)
}

// ArbitrageOpportunity represents a detected cross-venue price spread.
// Opportunities are immutable and single-use; a new scan cycle produces fresh ones.
type ArbitrageOpportunity struct {
	ID               string    `json:"id"`
	Asset            string    `json:"asset"`
	VenueBuy         string    `json:"venue_buy"`
	VenueSell        string    `json:"venue_sell"`
	BuyPrice         float64   `json:"buy_price"`
	SellPrice        float64   `json:"sell_price"`
	ProfitPercentage float64   `json:"profit_percentage"` // fraction of the worst quote
	EstimatedProfit  float64   `json:"estimated_profit"`
	RequiredCapital  float64   `json:"required_capital"`
	EstimatedGasCost float64   `json:"estimated_gas_cost"`
	NetProfit        float64   `json:"net_profit"`
	DetectedAt       time.Time `json:"detected_at"`
	ExpiresAt        time.Time `json:"expires_at"`
	Confidence       float64   `json:"confidence"` // 0.0 to 1.0
}

// IsProfitable reports whether the opportunity clears its estimated execution cost.
func (o *ArbitrageOpportunity) IsProfitable() bool {
	return o.NetProfit > 0
}

// IsExpired reports whether the opportunity is past its validity window.
func (o *ArbitrageOpportunity) IsExpired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// OrderDraft is a fully-specified prospective order awaiting risk validation.
type OrderDraft struct {
	Asset             string  `json:"asset"`
	Side              Side    `json:"side"`
	Quantity          float64 `json:"quantity"`
	Price             float64 `json:"price"`
	SlippageTolerance float64 `json:"slippage_tolerance"` // percent
	StopLoss          float64 `json:"stop_loss,omitempty"`
}

// Value returns the notional value of the draft in quote currency.
func (o *OrderDraft) Value() float64 {
	return o.Quantity * o.Price
}
