package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

var startTime = time.Now()

// HealthChecker tracks liveness of the decision core for the health endpoint
type HealthChecker struct {
	mu           sync.RWMutex
	lastScan     time.Time
	lastQuote    time.Time
	detectorLive bool
	errors       []string
}

type HealthStatus struct {
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	LastScan     time.Time `json:"last_scan"`
	LastQuote    time.Time `json:"last_quote"`
	DetectorLive bool      `json:"detector_live"`
	Uptime       string    `json:"uptime"`
	Errors       []string  `json:"errors,omitempty"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		errors: make([]string, 0),
	}
}

// MarkScan records a completed arbitrage scan cycle.
func (h *HealthChecker) MarkScan() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastScan = time.Now()
}

// MarkQuote records a successful quote aggregation.
func (h *HealthChecker) MarkQuote() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastQuote = time.Now()
}

// SetDetectorLive records whether the background detector loop is running.
func (h *HealthChecker) SetDetectorLive(live bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detectorLive = live
}

// RecordError appends an error to the health report, keeping the last 10.
func (h *HealthChecker) RecordError(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = append(h.errors, msg)
	if len(h.errors) > 10 {
		h.errors = h.errors[1:]
	}
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	if !h.detectorLive {
		status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	if len(h.errors) > 0 {
		status = "unhealthy"
		w.WriteHeader(http.StatusInternalServerError)
	}

	health := HealthStatus{
		Status:       status,
		Timestamp:    time.Now(),
		LastScan:     h.lastScan,
		LastQuote:    h.lastQuote,
		DetectorLive: h.detectorLive,
		Uptime:       time.Since(startTime).String(),
		Errors:       h.errors,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}
