package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/token-trade-engine/internal/risk"
	"github.com/ducminhle1904/token-trade-engine/pkg/types"
)

// ScanSession collects the outputs of a detection run for reporting.
type ScanSession struct {
	StartedAt     time.Time
	FinishedAt    time.Time
	Quotes        []types.Quote
	Opportunities []types.ArbitrageOpportunity
	Verdicts      []*risk.Verdict
}

// ExcelReporter writes scan sessions to an xlsx workbook.
type ExcelReporter struct{}

// NewExcelReporter creates an Excel reporter.
func NewExcelReporter() *ExcelReporter {
	return &ExcelReporter{}
}

type excelStyles struct {
	header   int
	currency int
	percent  int
	plain    int
}

// WriteSession writes the session to path, creating parent directories as
// needed.
func (r *ExcelReporter) WriteSession(session *ScanSession, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const quotesSheet = "Quotes"
	const oppsSheet = "Opportunities"
	const riskSheet = "Risk"

	fx.SetSheetName(fx.GetSheetName(0), quotesSheet)
	fx.NewSheet(oppsSheet)
	fx.NewSheet(riskSheet)

	styles, err := r.createStyles(fx)
	if err != nil {
		return err
	}

	if err := r.writeQuotesSheet(fx, quotesSheet, session.Quotes, styles); err != nil {
		return err
	}
	if err := r.writeOpportunitiesSheet(fx, oppsSheet, session.Opportunities, styles); err != nil {
		return err
	}
	if err := r.writeRiskSheet(fx, riskSheet, session.Verdicts, styles); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func (r *ExcelReporter) createStyles(fx *excelize.File) (excelStyles, error) {
	var styles excelStyles
	var err error

	styles.header, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF", Family: "Calibri"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"2F4F4F"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return styles, err
	}

	styles.currency, err = fx.NewStyle(&excelize.Style{
		NumFmt:    177, // $#,##0.00
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return styles, err
	}

	styles.percent, err = fx.NewStyle(&excelize.Style{
		NumFmt:    10, // 0.00%
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return styles, err
	}

	styles.plain, err = fx.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "left"},
	})
	return styles, err
}

func (r *ExcelReporter) writeQuotesSheet(fx *excelize.File, sheet string, quoteList []types.Quote, styles excelStyles) error {
	headers := []string{"Venue", "Pair", "Input", "Output", "Min Output", "Price Impact", "Gas", "Created", "Expires"}
	if err := r.writeHeader(fx, sheet, headers, styles); err != nil {
		return err
	}

	for i, q := range quoteList {
		row := i + 2
		values := []interface{}{
			q.Venue,
			fmt.Sprintf("%s/%s", q.InputAsset, q.OutputAsset),
			q.InputAmount,
			q.OutputAmount,
			q.MinimumOutput,
			q.PriceImpact,
			q.GasEstimate,
			q.CreatedAt.Format(time.RFC3339),
			q.ExpiresAt.Format(time.RFC3339),
		}
		if err := r.writeRow(fx, sheet, row, values); err != nil {
			return err
		}
	}

	fx.SetColWidth(sheet, "A", "B", 14)
	fx.SetColWidth(sheet, "C", "G", 14)
	fx.SetColWidth(sheet, "H", "I", 22)
	return nil
}

func (r *ExcelReporter) writeOpportunitiesSheet(fx *excelize.File, sheet string, opps []types.ArbitrageOpportunity, styles excelStyles) error {
	headers := []string{"ID", "Asset", "Buy Venue", "Sell Venue", "Buy Price", "Sell Price", "Profit %", "Est Profit", "Gas", "Net Profit", "Capital", "Confidence", "Detected", "Expires"}
	if err := r.writeHeader(fx, sheet, headers, styles); err != nil {
		return err
	}

	for i, o := range opps {
		row := i + 2
		values := []interface{}{
			o.ID,
			o.Asset,
			o.VenueBuy,
			o.VenueSell,
			o.BuyPrice,
			o.SellPrice,
			o.ProfitPercentage,
			o.EstimatedProfit,
			o.EstimatedGasCost,
			o.NetProfit,
			o.RequiredCapital,
			o.Confidence,
			o.DetectedAt.Format(time.RFC3339),
			o.ExpiresAt.Format(time.RFC3339),
		}
		if err := r.writeRow(fx, sheet, row, values); err != nil {
			return err
		}

		cell, _ := excelize.CoordinatesToCellName(7, row)
		fx.SetCellStyle(sheet, cell, cell, styles.percent)
	}

	fx.SetColWidth(sheet, "A", "A", 38)
	fx.SetColWidth(sheet, "B", "L", 12)
	fx.SetColWidth(sheet, "M", "N", 22)
	return nil
}

func (r *ExcelReporter) writeRiskSheet(fx *excelize.File, sheet string, verdicts []*risk.Verdict, styles excelStyles) error {
	headers := []string{"Account", "Score", "Level", "Can Trade", "Portfolio Value", "Exposure", "Available", "Positions", "Daily PnL", "Drawdown %", "Concentration %"}
	if err := r.writeHeader(fx, sheet, headers, styles); err != nil {
		return err
	}

	for i, v := range verdicts {
		row := i + 2
		values := []interface{}{
			v.AccountID,
			v.RiskScore,
			string(v.RiskLevel),
			v.CanTrade,
			v.Metrics.PortfolioValue,
			v.Metrics.CurrentExposure,
			v.Metrics.AvailableCapital,
			v.Metrics.OpenPositionsCount,
			v.Metrics.DailyPnL,
			v.Metrics.DrawdownPercentage,
			v.Metrics.ConcentrationPercentage,
		}
		if err := r.writeRow(fx, sheet, row, values); err != nil {
			return err
		}
	}

	fx.SetColWidth(sheet, "A", "A", 18)
	fx.SetColWidth(sheet, "B", "K", 14)
	return nil
}

func (r *ExcelReporter) writeHeader(fx *excelize.File, sheet string, headers []string, styles excelStyles) error {
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := fx.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		if err := fx.SetCellStyle(sheet, cell, cell, styles.header); err != nil {
			return err
		}
	}
	return nil
}

func (r *ExcelReporter) writeRow(fx *excelize.File, sheet string, row int, values []interface{}) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := fx.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}
