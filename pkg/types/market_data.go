package types

import "time"

// OHLCV is a single price candle, the unit of stored market history.
type OHLCV struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Timestamp time.Time
}
