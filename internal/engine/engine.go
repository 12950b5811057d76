package engine

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ducminhle1904/token-trade-engine/internal/arbitrage"
	"github.com/ducminhle1904/token-trade-engine/internal/config"
	"github.com/ducminhle1904/token-trade-engine/internal/errors"
	"github.com/ducminhle1904/token-trade-engine/internal/quotes"
	"github.com/ducminhle1904/token-trade-engine/internal/repository"
	"github.com/ducminhle1904/token-trade-engine/internal/risk"
	"github.com/ducminhle1904/token-trade-engine/internal/safety"
	"github.com/ducminhle1904/token-trade-engine/internal/sizing"
	"github.com/ducminhle1904/token-trade-engine/internal/venue"
	"github.com/ducminhle1904/token-trade-engine/pkg/types"
)

// Engine is the decision core facade. It owns the aggregation, risk, sizing,
// validation and detection components and exposes one entry point per
// decision. All methods are safe for concurrent use.
type Engine struct {
	aggregator *quotes.Aggregator
	assessor   *risk.Assessor
	validator  *risk.Validator
	sizer      *sizing.Engine
	detector   *arbitrage.Detector
	inputs     *safety.Validator
	log        *zap.Logger
}

// New wires the decision core from configuration. The repository supplies
// portfolio state; venue clients are passed in so callers control which
// venues exist (and tests can inject fakes).
func New(cfg *config.Config, repo repository.Repository, venues []venue.Client, log *zap.Logger) (*Engine, error) {
	if cfg == nil {
		return nil, errors.NewConfigurationError("engine", "new", "config is required")
	}
	if repo == nil {
		return nil, errors.NewConfigurationError("engine", "new", "repository is required")
	}
	if len(venues) == 0 {
		return nil, errors.NewConfigurationError("engine", "new", "at least one venue is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	aggregator := quotes.NewAggregator(venues, quotes.Config{
		VenueTimeout: cfg.Quotes.VenueTimeout,
		QuoteTTL:     cfg.Quotes.QuoteTTL,
	}, log)

	assessor := risk.NewAssessor(repo, log, nil)
	validator := risk.NewValidator(assessor, log)

	sizingConfig := sizing.DefaultConfig()
	sizingConfig.RiskPercentage = cfg.Sizing.RiskPercentage
	sizingConfig.KellyFraction = cfg.Sizing.KellyFraction
	sizingConfig.KellyMinTrades = cfg.Sizing.KellyMinTrades
	sizingConfig.VolatilityBasePct = cfg.Sizing.VolatilityBasePct
	sizingConfig.VolatilityMultiplier = cfg.Sizing.VolatilityMultiplier
	sizingConfig.VolatilityLookback = cfg.Sizing.VolatilityLookback
	sizer := sizing.NewEngine(assessor, repo, sizingConfig, log)

	detector := arbitrage.NewDetector(aggregator, arbitrage.Config{
		ScanInterval:   cfg.Detector.ScanInterval,
		MinProfitPct:   cfg.Detector.MinProfitPct,
		OpportunityTTL: cfg.Detector.OpportunityTTL,
		Notional:       cfg.Detector.Notional,
		QuoteAsset:     cfg.Detector.QuoteAsset,
		TrackedAssets:  cfg.Detector.TrackedAssets,
		AssetsPerCycle: cfg.Detector.AssetsPerCycle,
	}, log)

	return &Engine{
		aggregator: aggregator,
		assessor:   assessor,
		validator:  validator,
		sizer:      sizer,
		detector:   detector,
		inputs:     safety.NewValidator(),
		log:        log,
	}, nil
}

// Start launches the background arbitrage scan loop.
func (e *Engine) Start(ctx context.Context) {
	e.detector.Start(ctx)
}

// Stop shuts the background loop down and waits for in-flight scans to end.
func (e *Engine) Stop() {
	e.detector.Stop()
}

// Opportunities exposes the detector's emission channel.
func (e *Engine) Opportunities() <-chan types.ArbitrageOpportunity {
	return e.detector.Opportunities()
}

// FetchQuotes aggregates quotes for converting inputAmount of inputAsset
// into outputAsset across the configured venues, ranked best first.
func (e *Engine) FetchQuotes(ctx context.Context, inputAsset, outputAsset string, inputAmount, slippageTolerance float64, venues ...string) ([]types.Quote, error) {
	if r := e.inputs.ValidateAsset(inputAsset); !r.Valid {
		return nil, errors.NewValidationError("engine", "fetch_quotes", r.Message)
	}
	if r := e.inputs.ValidateAsset(outputAsset); !r.Valid {
		return nil, errors.NewValidationError("engine", "fetch_quotes", r.Message)
	}
	if strings.EqualFold(inputAsset, outputAsset) {
		return nil, errors.NewValidationError("engine", "fetch_quotes", "input and output assets must differ")
	}
	if r := e.inputs.ValidateAmount(inputAmount, "input amount"); !r.Valid {
		return nil, errors.NewValidationError("engine", "fetch_quotes", r.Message)
	}
	if r := e.inputs.ValidateSlippage(slippageTolerance); !r.Valid {
		return nil, errors.NewValidationError("engine", "fetch_quotes", r.Message)
	}

	return e.aggregator.GetQuotes(ctx, inputAsset, outputAsset, inputAmount, slippageTolerance, venues...)
}

// AssessPortfolioRisk computes the account's current risk verdict.
func (e *Engine) AssessPortfolioRisk(ctx context.Context, accountID string) (*risk.Verdict, error) {
	if r := e.inputs.ValidateAccountID(accountID); !r.Valid {
		return nil, errors.NewValidationError("engine", "assess_risk", r.Message)
	}
	return e.assessor.Assess(ctx, accountID)
}

// SizePosition recommends a position size for the given entry using the
// requested method.
func (e *Engine) SizePosition(ctx context.Context, accountID, asset string, side types.Side, entryPrice, stopLoss float64, method sizing.Method) (*sizing.Result, error) {
	if r := e.inputs.ValidateAccountID(accountID); !r.Valid {
		return nil, errors.NewValidationError("engine", "size_position", r.Message)
	}
	if r := e.inputs.ValidateAsset(asset); !r.Valid {
		return nil, errors.NewValidationError("engine", "size_position", r.Message)
	}
	if r := e.inputs.ValidatePrice(entryPrice, asset); !r.Valid {
		return nil, errors.NewValidationError("engine", "size_position", r.Message)
	}
	return e.sizer.Size(ctx, accountID, asset, side, entryPrice, stopLoss, method)
}

// ValidateOrder checks a draft order against the account's risk limits.
// A false result with warnings is a rejection, not an error; errors are
// reserved for infrastructure failures.
func (e *Engine) ValidateOrder(ctx context.Context, accountID string, draft *types.OrderDraft) (bool, []string, error) {
	if r := e.inputs.ValidateAccountID(accountID); !r.Valid {
		return false, nil, errors.NewValidationError("engine", "validate_order", r.Message)
	}
	if draft == nil {
		return false, nil, errors.NewValidationError("engine", "validate_order", "order draft is required")
	}
	if r := e.inputs.ValidateAsset(draft.Asset); !r.Valid {
		return false, nil, errors.NewValidationError("engine", "validate_order", r.Message)
	}
	if r := e.inputs.ValidateAmount(draft.Quantity, "quantity"); !r.Valid {
		return false, nil, errors.NewValidationError("engine", "validate_order", r.Message)
	}
	if r := e.inputs.ValidatePrice(draft.Price, draft.Asset); !r.Valid {
		return false, nil, errors.NewValidationError("engine", "validate_order", r.Message)
	}
	return e.validator.ValidateOrder(ctx, accountID, draft)
}

// ScanArbitrage runs one on-demand detection cycle and returns qualifying
// opportunities without emitting them on the background channel.
func (e *Engine) ScanArbitrage(ctx context.Context) ([]types.ArbitrageOpportunity, error) {
	return e.detector.Scan(ctx)
}

// Venues lists the configured venue names.
func (e *Engine) Venues() []string {
	return e.aggregator.Venues()
}

// BuildVenues constructs venue clients from configuration. Unknown venue
// names fail fast rather than being silently skipped.
func BuildVenues(cfg *config.Config, log *zap.Logger) ([]venue.Client, error) {
	clients := make([]venue.Client, 0, len(cfg.Venues.Names))
	for _, name := range cfg.Venues.Names {
		vc := venue.Config{
			Name:              name,
			Type:              name,
			RequestsPerSecond: cfg.Venues.RequestsPerSecond,
			Burst:             cfg.Venues.Burst,
		}
		if strings.EqualFold(name, "bybit") {
			vc.Bybit = &venue.BybitConfig{
				APIKey:    cfg.Venues.BybitAPIKey,
				APISecret: cfg.Venues.BybitAPISecret,
				Testnet:   cfg.Venues.BybitTestnet,
			}
		}
		client, err := venue.Create(vc, log)
		if err != nil {
			return nil, fmt.Errorf("venue %s: %w", name, err)
		}
		clients = append(clients, client)
	}
	return clients, nil
}
