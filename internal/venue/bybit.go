package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	bybit_api "github.com/bybit-exchange/bybit.go.api"
)

const bybitTakerFeeRate = 0.001 // spot taker fee, used as the execution-cost estimate

// BybitConfig holds configuration for the Bybit-backed venue
type BybitConfig struct {
	APIKey    string
	APISecret string
	Testnet   bool
}

// BybitVenue derives executable quotes from Bybit spot tickers. Quoting is
// read-only; execution stays with the caller.
type BybitVenue struct {
	name       string
	httpClient *bybit_api.Client
	retry      RetryConfig
}

// NewBybitVenue creates a Bybit-backed venue client.
func NewBybitVenue(name string, config BybitConfig) *BybitVenue {
	baseURL := bybit_api.MAINNET
	if config.Testnet {
		baseURL = bybit_api.TESTNET
	}

	httpClient := bybit_api.NewBybitHttpClient(
		config.APIKey,
		config.APISecret,
		bybit_api.WithBaseURL(baseURL),
	)

	return &BybitVenue{
		name:       name,
		httpClient: httpClient,
		retry:      DefaultRetryConfig(),
	}
}

// Name returns the venue identity.
func (b *BybitVenue) Name() string {
	return b.name
}

// Quote prices the swap from the pair's spot ticker. Both orientations of the
// pair are tried: selling the base asset crosses the bid, buying it crosses
// the ask.
func (b *BybitVenue) Quote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	input := strings.ToUpper(req.InputAsset)
	output := strings.ToUpper(req.OutputAsset)

	// input is the base asset: sell into the bid
	if ticker, err := b.fetchTicker(ctx, input+output); err == nil {
		if ticker.Bid <= 0 {
			return nil, fmt.Errorf("venue %s: no bid for %s", b.name, input+output)
		}
		outputAmount := req.InputAmount * ticker.Bid
		return b.buildResponse(input, output, outputAmount, outputAmount, ticker.Turnover), nil
	}

	// input is the quote asset: buy the base off the ask
	ticker, err := b.fetchTicker(ctx, output+input)
	if err != nil {
		return nil, fmt.Errorf("venue %s: no market for %s/%s: %w", b.name, input, output, err)
	}
	if ticker.Ask <= 0 {
		return nil, fmt.Errorf("venue %s: no ask for %s", b.name, output+input)
	}
	outputAmount := req.InputAmount / ticker.Ask
	return b.buildResponse(input, output, outputAmount, req.InputAmount, ticker.Turnover), nil
}

func (b *BybitVenue) buildResponse(input, output string, outputAmount, notional, turnover24h float64) *QuoteResponse {
	impact := 0.0
	if turnover24h > 0 {
		impact = math.Min(notional/turnover24h, 0.05)
	}

	return &QuoteResponse{
		OutputAmount: outputAmount * (1 - impact),
		PriceImpact:  impact,
		GasEstimate:  notional * bybitTakerFeeRate,
		Route:        []string{input, output},
	}
}

type bybitTicker struct {
	Bid      float64
	Ask      float64
	Last     float64
	Turnover float64
}

func (b *BybitVenue) fetchTicker(ctx context.Context, symbol string) (*bybitTicker, error) {
	params := map[string]interface{}{
		"category": "spot",
		"symbol":   symbol,
	}

	var result interface{}
	err := retryWithBackoff(ctx, b.retry, func() error {
		var callErr error
		result, callErr = b.httpClient.NewUtaBybitServiceWithParams(params).GetMarketTickers(ctx)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get ticker for %s: %w", symbol, err)
	}

	return parseTickerResponse(result, symbol)
}

func parseTickerResponse(response interface{}, symbol string) (*bybitTicker, error) {
	serverResp, ok := response.(*bybit_api.ServerResponse)
	if !ok {
		return nil, fmt.Errorf("invalid response type")
	}

	if serverResp.RetCode != 0 {
		return nil, fmt.Errorf("API error: %s (code: %d)", serverResp.RetMsg, serverResp.RetCode)
	}

	resultBytes, err := json.Marshal(serverResp.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	var tickerResult struct {
		Category string `json:"category"`
		List     []struct {
			Symbol      string `json:"symbol"`
			Bid1Price   string `json:"bid1Price"`
			Ask1Price   string `json:"ask1Price"`
			LastPrice   string `json:"lastPrice"`
			Turnover24h string `json:"turnover24h"`
		} `json:"list"`
	}

	if err := json.Unmarshal(resultBytes, &tickerResult); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ticker result: %w", err)
	}

	for _, item := range tickerResult.List {
		if item.Symbol != symbol {
			continue
		}
		return &bybitTicker{
			Bid:      parseFloat64(item.Bid1Price),
			Ask:      parseFloat64(item.Ask1Price),
			Last:     parseFloat64(item.LastPrice),
			Turnover: parseFloat64(item.Turnover24h),
		}, nil
	}

	return nil, fmt.Errorf("symbol %s not found in ticker response", symbol)
}

func parseFloat64(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
