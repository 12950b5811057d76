package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Quote aggregation metrics
	quotesFetchedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trade_engine_quotes_fetched_total",
			Help: "Total number of quotes successfully fetched per venue",
		},
		[]string{"venue"},
	)

	venueErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trade_engine_venue_errors_total",
			Help: "Total number of venue failures or timeouts during aggregation",
		},
		[]string{"venue"},
	)

	venueLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trade_engine_venue_latency_seconds",
			Help:    "Distribution of per-venue quote latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"venue"},
	)

	// Risk metrics
	accountRiskScore = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trade_engine_risk_score",
			Help: "Latest composite portfolio risk score (0-10) per account",
		},
		[]string{"account"},
	)

	ordersRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trade_engine_orders_rejected_total",
			Help: "Total number of orders rejected by the risk validator",
		},
		[]string{"reason"},
	)

	// Arbitrage metrics
	opportunitiesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trade_engine_arbitrage_opportunities_total",
			Help: "Total number of profitable arbitrage opportunities emitted",
		},
		[]string{"asset"},
	)

	scanCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trade_engine_arbitrage_scan_cycles_total",
			Help: "Total number of completed arbitrage scan cycles",
		},
	)
)

func init() {
	prometheus.MustRegister(quotesFetchedTotal)
	prometheus.MustRegister(venueErrorsTotal)
	prometheus.MustRegister(venueLatency)
	prometheus.MustRegister(accountRiskScore)
	prometheus.MustRegister(ordersRejectedTotal)
	prometheus.MustRegister(opportunitiesTotal)
	prometheus.MustRegister(scanCyclesTotal)
}

// MetricsHandler handles the Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordQuoteFetched records a successful venue quote and its latency
func RecordQuoteFetched(venue string, elapsed time.Duration) {
	quotesFetchedTotal.WithLabelValues(venue).Inc()
	venueLatency.WithLabelValues(venue).Observe(elapsed.Seconds())
}

// RecordVenueError records a venue failure or timeout
func RecordVenueError(venue string) {
	venueErrorsTotal.WithLabelValues(venue).Inc()
}

// UpdateRiskScore updates the latest composite risk score for an account
func UpdateRiskScore(account string, score float64) {
	accountRiskScore.WithLabelValues(account).Set(score)
}

// RecordOrderRejected records a hard risk-validator rejection
func RecordOrderRejected(reason string) {
	ordersRejectedTotal.WithLabelValues(reason).Inc()
}

// RecordOpportunity records an emitted arbitrage opportunity
func RecordOpportunity(asset string) {
	opportunitiesTotal.WithLabelValues(asset).Inc()
}

// RecordScanCycle records a completed arbitrage scan cycle
func RecordScanCycle() {
	scanCyclesTotal.Inc()
}
