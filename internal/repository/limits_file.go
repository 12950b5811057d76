package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ducminhle1904/token-trade-engine/pkg/types"
)

// FileLimitStore implements RiskLimitStore with file-based persistence so
// operator-set limits (emergency stop in particular) survive restarts.
type FileLimitStore struct {
	mu       sync.RWMutex
	filePath string
}

type limitFile struct {
	Limits      map[string]*types.RiskLimits `json:"limits"`
	LastUpdated time.Time                    `json:"last_updated"`
}

// NewFileLimitStore creates a file-backed risk-limit store.
func NewFileLimitStore(filePath string) *FileLimitStore {
	if filePath == "" {
		filePath = "risk_limits.json"
	}

	dir := filepath.Dir(filePath)
	if dir != "." {
		os.MkdirAll(dir, 0755)
	}

	return &FileLimitStore{filePath: filePath}
}

// GetRiskLimits returns the stored limits, or nil when no record exists.
func (f *FileLimitStore) GetRiskLimits(ctx context.Context, accountID string) (*types.RiskLimits, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	state, err := f.load()
	if err != nil {
		return nil, err
	}

	limits, ok := state.Limits[accountID]
	if !ok {
		return nil, nil
	}
	cp := *limits
	return &cp, nil
}

// UpdateRiskLimits replaces the stored limits for limits.AccountID.
func (f *FileLimitStore) UpdateRiskLimits(ctx context.Context, limits *types.RiskLimits) error {
	if limits == nil || limits.AccountID == "" {
		return fmt.Errorf("cannot save limits without an account id")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	state, err := f.load()
	if err != nil {
		return err
	}

	cp := *limits
	state.Limits[limits.AccountID] = &cp
	state.LastUpdated = time.Now()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal risk limits: %w", err)
	}

	// Write to temporary file first, then rename for atomicity
	tempFile := f.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary limits file: %w", err)
	}

	if err := os.Rename(tempFile, f.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to commit limits file: %w", err)
	}

	return nil
}

func (f *FileLimitStore) load() (*limitFile, error) {
	state := &limitFile{Limits: make(map[string]*types.RiskLimits)}

	if _, err := os.Stat(f.filePath); os.IsNotExist(err) {
		return state, nil
	}

	data, err := os.ReadFile(f.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read limits file: %w", err)
	}

	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal limits file: %w", err)
	}
	if state.Limits == nil {
		state.Limits = make(map[string]*types.RiskLimits)
	}

	return state, nil
}
