package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the complete engine configuration, loaded from the
// environment (optionally seeded from a .env file).
type Config struct {
	Environment string
	LogLevel    string

	Quotes     QuotesConfig
	Venues     VenuesConfig
	Detector   DetectorConfig
	Sizing     SizingConfig
	Monitoring MonitoringConfig
	Storage    StorageConfig
}

// QuotesConfig controls the quote aggregation layer
type QuotesConfig struct {
	VenueTimeout time.Duration // per-venue request deadline
	QuoteTTL     time.Duration // validity window of a fetched quote
}

// VenuesConfig controls which venue clients are constructed
type VenuesConfig struct {
	Names             []string // comma-separated in VENUES, e.g. "bybit,sim"
	BybitAPIKey       string
	BybitAPISecret    string
	BybitTestnet      bool
	RequestsPerSecond float64
	Burst             int
}

// DetectorConfig controls the arbitrage scan loop
type DetectorConfig struct {
	ScanInterval   time.Duration
	MinProfitPct   float64 // fraction, 0.005 = 0.5%
	OpportunityTTL time.Duration
	Notional       float64
	QuoteAsset     string
	TrackedAssets  []string
	AssetsPerCycle int
}

// SizingConfig controls position sizing defaults
type SizingConfig struct {
	DefaultMethod        string
	RiskPercentage       float64
	KellyFraction        float64
	KellyMinTrades       int
	VolatilityBasePct    float64
	VolatilityMultiplier float64
	VolatilityLookback   int
}

// MonitoringConfig controls the metrics and health HTTP endpoints
type MonitoringConfig struct {
	PrometheusPort int
	HealthPort     int
}

// StorageConfig controls where risk limits and session reports are persisted
type StorageConfig struct {
	RiskLimitsFile    string
	SessionReportFile string // empty disables the shutdown report
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "debug"),

		Quotes: QuotesConfig{
			VenueTimeout: getEnvDuration("VENUE_TIMEOUT", 3*time.Second),
			QuoteTTL:     getEnvDuration("QUOTE_TTL", 90*time.Second),
		},

		Venues: VenuesConfig{
			Names:             getEnvList("VENUES", []string{"sim"}),
			BybitAPIKey:       getEnv("BYBIT_API_KEY", ""),
			BybitAPISecret:    getEnv("BYBIT_API_SECRET", ""),
			BybitTestnet:      getEnvBool("BYBIT_TESTNET", true),
			RequestsPerSecond: getEnvFloat("VENUE_REQUESTS_PER_SECOND", 10.0),
			Burst:             getEnvInt("VENUE_BURST", 20),
		},

		Detector: DetectorConfig{
			ScanInterval:   getEnvDuration("SCAN_INTERVAL", 5*time.Second),
			MinProfitPct:   getEnvFloat("MIN_PROFIT_PCT", 0.005),
			OpportunityTTL: getEnvDuration("OPPORTUNITY_TTL", 30*time.Second),
			Notional:       getEnvFloat("SCAN_NOTIONAL", 1000.0),
			QuoteAsset:     getEnv("QUOTE_ASSET", "USDT"),
			TrackedAssets:  getEnvList("TRACKED_ASSETS", []string{"BTC", "ETH"}),
			AssetsPerCycle: getEnvInt("ASSETS_PER_CYCLE", 4),
		},

		Sizing: SizingConfig{
			DefaultMethod:        getEnv("SIZING_METHOD", "percentage_risk"),
			RiskPercentage:       getEnvFloat("RISK_PERCENTAGE", 2.0),
			KellyFraction:        getEnvFloat("KELLY_FRACTION", 0.25),
			KellyMinTrades:       getEnvInt("KELLY_MIN_TRADES", 10),
			VolatilityBasePct:    getEnvFloat("VOLATILITY_BASE_PCT", 5.0),
			VolatilityMultiplier: getEnvFloat("VOLATILITY_MULTIPLIER", 10.0),
			VolatilityLookback:   getEnvInt("VOLATILITY_LOOKBACK", 30),
		},

		Monitoring: MonitoringConfig{
			PrometheusPort: getEnvInt("PROMETHEUS_PORT", 8080),
			HealthPort:     getEnvInt("HEALTH_PORT", 8081),
		},

		Storage: StorageConfig{
			RiskLimitsFile:    getEnv("RISK_LIMITS_FILE", "data/risk_limits.json"),
			SessionReportFile: getEnv("SESSION_REPORT_FILE", ""),
		},
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
