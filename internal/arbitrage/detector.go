package arbitrage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ducminhle1904/token-trade-engine/internal/monitoring"
	"github.com/ducminhle1904/token-trade-engine/internal/quotes"
	"github.com/ducminhle1904/token-trade-engine/pkg/types"
)

// ErrOpportunityExpired is returned when an opportunity is used past its expiry.
var ErrOpportunityExpired = errors.New("arbitrage opportunity expired")

// Phase is the detector's position in its scan cycle
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseScanning   Phase = "scanning"
	PhaseEvaluating Phase = "evaluating"
)

// Config holds detector configuration
type Config struct {
	ScanInterval   time.Duration // cycle period
	MinProfitPct   float64       // fraction, e.g. 0.005 = 0.5%
	OpportunityTTL time.Duration // validity window of emitted opportunities
	Notional       float64       // fixed input amount per scan
	QuoteAsset     string        // asset spent in every scan, e.g. USDT
	TrackedAssets  []string      // assets scanned across cycles
	AssetsPerCycle int           // size of the rotating window per cycle
	Clock          func() time.Time
}

// DefaultConfig returns the default detector configuration
func DefaultConfig() Config {
	return Config{
		ScanInterval:   5 * time.Second,
		MinProfitPct:   0.005,
		OpportunityTTL: 30 * time.Second,
		Notional:       1000.0,
		QuoteAsset:     "USDT",
		AssetsPerCycle: 4,
	}
}

// Detector scans tracked assets across venues for cross-venue spreads and
// emits time-boxed opportunities. It runs as a background loop independent of
// request-serving paths; Scan is also callable on demand.
type Detector struct {
	aggregator *quotes.Aggregator
	config     Config
	log        *zap.Logger

	mu       sync.Mutex
	phase    Phase
	running  bool
	cancel   context.CancelFunc
	done     chan struct{}
	rotation int

	opportunities chan types.ArbitrageOpportunity
}

// NewDetector creates an arbitrage detector over the aggregator's venues.
func NewDetector(aggregator *quotes.Aggregator, config Config, log *zap.Logger) *Detector {
	def := DefaultConfig()
	if config.ScanInterval <= 0 {
		config.ScanInterval = def.ScanInterval
	}
	if config.MinProfitPct <= 0 {
		config.MinProfitPct = def.MinProfitPct
	}
	if config.OpportunityTTL <= 0 {
		config.OpportunityTTL = def.OpportunityTTL
	}
	if config.Notional <= 0 {
		config.Notional = def.Notional
	}
	if config.QuoteAsset == "" {
		config.QuoteAsset = def.QuoteAsset
	}
	if config.AssetsPerCycle <= 0 {
		config.AssetsPerCycle = def.AssetsPerCycle
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}

	return &Detector{
		aggregator:    aggregator,
		config:        config,
		log:           log,
		phase:         PhaseIdle,
		opportunities: make(chan types.ArbitrageOpportunity, 64),
	}
}

// Opportunities returns the channel qualifying opportunities are emitted on.
// The external execution path consumes it; opportunities are never retried.
func (d *Detector) Opportunities() <-chan types.ArbitrageOpportunity {
	return d.opportunities
}

// Phase returns the detector's current scan-cycle phase.
func (d *Detector) Phase() Phase {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.phase
}

// Start launches the background scan loop. It is a no-op when already running.
func (d *Detector) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.running = true
	d.cancel = cancel
	d.done = make(chan struct{})

	go d.run(runCtx)
	d.log.Info("arbitrage detector started",
		zap.Duration("interval", d.config.ScanInterval),
		zap.Float64("min_profit_pct", d.config.MinProfitPct*100),
		zap.Strings("assets", d.config.TrackedAssets),
	)
}

// Stop cancels the loop and any in-flight per-asset scans, then waits for the
// loop to exit. No timers are left running.
func (d *Detector) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	cancel := d.cancel
	done := d.done
	d.running = false
	d.mu.Unlock()

	cancel()
	<-done
	d.log.Info("arbitrage detector stopped")
}

func (d *Detector) run(ctx context.Context) {
	defer close(d.done)

	ticker := time.NewTicker(d.config.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.setPhase(PhaseIdle)
			return
		case <-ticker.C:
			found, err := d.Scan(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				d.log.Warn("arbitrage scan cycle failed", zap.Error(err))
				continue
			}
			for _, opp := range found {
				d.emit(opp)
			}
		}
	}
}

// Scan runs one full cycle over the current rotation window and returns the
// qualifying opportunities. Partial venue failure within an asset is
// tolerated; an asset with fewer than two surviving quotes is skipped.
func (d *Detector) Scan(ctx context.Context) ([]types.ArbitrageOpportunity, error) {
	assets := d.nextRotation()
	if len(assets) == 0 {
		return nil, fmt.Errorf("no tracked assets configured")
	}

	d.setPhase(PhaseScanning)
	defer d.setPhase(PhaseIdle)

	type assetResult struct {
		opp *types.ArbitrageOpportunity
	}

	results := make(chan assetResult, len(assets))
	var wg sync.WaitGroup

	for _, asset := range assets {
		wg.Add(1)
		go func(asset string) {
			defer wg.Done()
			opp := d.scanAsset(ctx, asset)
			results <- assetResult{opp: opp}
		}(asset)
	}

	wg.Wait()
	close(results)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.setPhase(PhaseEvaluating)

	now := d.config.Clock()
	var found []types.ArbitrageOpportunity
	for r := range results {
		if r.opp == nil {
			continue
		}
		// re-check just before emission; stale or unprofitable ones are dropped
		if r.opp.IsExpired(now) || !r.opp.IsProfitable() {
			continue
		}
		found = append(found, *r.opp)
	}

	monitoring.RecordScanCycle()
	return found, nil
}

// scanAsset quotes one asset across all venues and evaluates the spread.
// Returns nil when no qualifying opportunity exists.
func (d *Detector) scanAsset(ctx context.Context, asset string) *types.ArbitrageOpportunity {
	quoteList, err := d.aggregator.GetQuotes(ctx, d.config.QuoteAsset, asset, d.config.Notional, 0)
	if err != nil {
		d.log.Debug("asset skipped: no quotes", zap.String("asset", asset), zap.Error(err))
		return nil
	}

	if len(quoteList) < 2 {
		d.log.Debug("asset skipped: need at least two venues", zap.String("asset", asset))
		return nil
	}

	// Quotes are ranked by output: the first is the cheap venue to buy on,
	// the last is the expensive venue to sell on.
	best := quoteList[0]
	worst := quoteList[len(quoteList)-1]

	if worst.OutputAmount <= 0 {
		return nil
	}

	spread := best.OutputAmount - worst.OutputAmount
	profitPct := spread / worst.OutputAmount
	if profitPct < d.config.MinProfitPct {
		return nil
	}

	// Value the spread in quote currency at the expensive venue's unit price
	unitPrice := d.config.Notional / worst.OutputAmount
	estimatedProfit := spread * unitPrice
	gasCost := best.GasEstimate + worst.GasEstimate
	netProfit := estimatedProfit - gasCost

	now := d.config.Clock()
	opp := &types.ArbitrageOpportunity{
		ID:               uuid.NewString(),
		Asset:            asset,
		VenueBuy:         best.Venue,
		VenueSell:        worst.Venue,
		BuyPrice:         d.config.Notional / best.OutputAmount,
		SellPrice:        unitPrice,
		ProfitPercentage: profitPct,
		EstimatedProfit:  estimatedProfit,
		RequiredCapital:  d.config.Notional,
		EstimatedGasCost: gasCost,
		NetProfit:        netProfit,
		DetectedAt:       now,
		ExpiresAt:        now.Add(d.config.OpportunityTTL),
		Confidence:       opportunityConfidence(profitPct, len(quoteList)),
	}

	if !opp.IsProfitable() {
		d.log.Debug("spread does not clear execution cost",
			zap.String("asset", asset),
			zap.Float64("estimated_profit", estimatedProfit),
			zap.Float64("gas_cost", gasCost),
		)
		return nil
	}

	return opp
}

func (d *Detector) emit(opp types.ArbitrageOpportunity) {
	select {
	case d.opportunities <- opp:
		monitoring.RecordOpportunity(opp.Asset)
		d.log.Info("arbitrage opportunity emitted",
			zap.String("id", opp.ID),
			zap.String("asset", opp.Asset),
			zap.String("buy", opp.VenueBuy),
			zap.String("sell", opp.VenueSell),
			zap.Float64("profit_pct", opp.ProfitPercentage*100),
			zap.Float64("net_profit", opp.NetProfit),
		)
	default:
		d.log.Warn("opportunity dropped: consumer is not keeping up",
			zap.String("id", opp.ID), zap.String("asset", opp.Asset))
	}
}

// nextRotation returns the next window of tracked assets, advancing the
// rotation cursor.
func (d *Detector) nextRotation() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	assets := d.config.TrackedAssets
	if len(assets) == 0 {
		return nil
	}

	window := d.config.AssetsPerCycle
	if window >= len(assets) {
		return assets
	}

	out := make([]string, 0, window)
	for i := 0; i < window; i++ {
		out = append(out, assets[(d.rotation+i)%len(assets)])
	}
	d.rotation = (d.rotation + window) % len(assets)
	return out
}

func (d *Detector) setPhase(p Phase) {
	d.mu.Lock()
	d.phase = p
	d.mu.Unlock()
}

// ValidateOpportunity re-checks an opportunity before any re-use path,
// rejecting expired records with a typed error.
func (d *Detector) ValidateOpportunity(opp *types.ArbitrageOpportunity) error {
	if opp == nil {
		return fmt.Errorf("opportunity is nil")
	}
	if opp.IsExpired(d.config.Clock()) {
		age := d.config.Clock().Sub(opp.ExpiresAt)
		return fmt.Errorf("%w: %s expired %.1fs ago", ErrOpportunityExpired, opp.ID, math.Max(0, age.Seconds()))
	}
	return nil
}
