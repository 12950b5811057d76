package reporting

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/token-trade-engine/internal/risk"
	"github.com/ducminhle1904/token-trade-engine/pkg/types"
)

var reportNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleSession() *ScanSession {
	return &ScanSession{
		StartedAt:  reportNow,
		FinishedAt: reportNow.Add(5 * time.Minute),
		Quotes: []types.Quote{
			{
				Venue:         "alpha",
				InputAsset:    "USDT",
				OutputAsset:   "BTC",
				InputAmount:   1000,
				OutputAmount:  0.0105,
				MinimumOutput: 0.0104,
				PriceImpact:   0.002,
				GasEstimate:   1.5,
				CreatedAt:     reportNow,
				ExpiresAt:     reportNow.Add(90 * time.Second),
			},
		},
		Opportunities: []types.ArbitrageOpportunity{
			{
				ID:               "opp-1",
				Asset:            "BTC",
				VenueBuy:         "alpha",
				VenueSell:        "beta",
				BuyPrice:         95238.10,
				SellPrice:        100000.00,
				ProfitPercentage: 0.05,
				EstimatedProfit:  50,
				EstimatedGasCost: 3,
				NetProfit:        47,
				RequiredCapital:  1000,
				Confidence:       0.8,
				DetectedAt:       reportNow,
				ExpiresAt:        reportNow.Add(30 * time.Second),
			},
		},
		Verdicts: []*risk.Verdict{
			{
				AccountID: "acct-1",
				RiskScore: 2.5,
				RiskLevel: risk.RiskLevelLow,
				CanTrade:  true,
				Metrics: &risk.MetricsSnapshot{
					AccountID:          "acct-1",
					PortfolioValue:     10000,
					CurrentExposure:    2000,
					AvailableCapital:   8000,
					OpenPositionsCount: 2,
					ComputedAt:         reportNow,
				},
			},
		},
	}
}

func TestWriteSessionPersistsAllSheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "session.xlsx")

	err := NewExcelReporter().WriteSession(sampleSession(), path)
	require.NoError(t, err)

	fx, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer fx.Close()

	assert.ElementsMatch(t, []string{"Quotes", "Opportunities", "Risk"}, fx.GetSheetList())

	venue, err := fx.GetCellValue("Quotes", "A2")
	require.NoError(t, err)
	assert.Equal(t, "alpha", venue)

	pair, err := fx.GetCellValue("Quotes", "B2")
	require.NoError(t, err)
	assert.Equal(t, "USDT/BTC", pair)

	id, err := fx.GetCellValue("Opportunities", "A2")
	require.NoError(t, err)
	assert.Equal(t, "opp-1", id)

	sellVenue, err := fx.GetCellValue("Opportunities", "D2")
	require.NoError(t, err)
	assert.Equal(t, "beta", sellVenue)

	account, err := fx.GetCellValue("Risk", "A2")
	require.NoError(t, err)
	assert.Equal(t, "acct-1", account)

	level, err := fx.GetCellValue("Risk", "C2")
	require.NoError(t, err)
	assert.Equal(t, "low", level)
}

func TestWriteSessionHeadersPresent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")

	err := NewExcelReporter().WriteSession(&ScanSession{StartedAt: reportNow, FinishedAt: reportNow}, path)
	require.NoError(t, err)

	fx, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer fx.Close()

	header, err := fx.GetCellValue("Opportunities", "A1")
	require.NoError(t, err)
	assert.Equal(t, "ID", header)

	rows, err := fx.GetRows("Opportunities")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
