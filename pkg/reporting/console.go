package reporting

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ducminhle1904/token-trade-engine/internal/risk"
	"github.com/ducminhle1904/token-trade-engine/pkg/types"
)

// ConsoleReporter renders quotes, risk verdicts and opportunities as tables.
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter creates a console reporter writing to stdout.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{out: os.Stdout}
}

// NewConsoleReporterTo creates a console reporter writing to w.
func NewConsoleReporterTo(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: w}
}

// PrintQuotes renders ranked quotes for one pair, best venue first.
func (r *ConsoleReporter) PrintQuotes(quoteList []types.Quote) {
	if len(quoteList) == 0 {
		fmt.Fprintln(r.out, "no quotes available")
		return
	}

	first := quoteList[0]
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle(fmt.Sprintf("QUOTES %s → %s (%.4f in)", first.InputAsset, first.OutputAsset, first.InputAmount))
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Venue", "Output", "Min Output", "Impact", "Gas", "Expires"})

	for i, q := range quoteList {
		t.AppendRow(table.Row{
			i + 1,
			q.Venue,
			fmt.Sprintf("%.6f", q.OutputAmount),
			fmt.Sprintf("%.6f", q.MinimumOutput),
			fmt.Sprintf("%.3f%%", q.PriceImpact*100),
			fmt.Sprintf("$%.4f", q.GasEstimate),
			q.ExpiresAt.Format("15:04:05"),
		})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})

	t.Render()
	fmt.Fprintln(r.out)
}

// PrintVerdict renders a portfolio risk verdict.
func (r *ConsoleReporter) PrintVerdict(v *risk.Verdict) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle(fmt.Sprintf("RISK VERDICT - %s", v.AccountID))
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"Risk Score", fmt.Sprintf("%.2f / 10", v.RiskScore)},
		{"Risk Level", levelBadge(v.RiskLevel)},
		{"Can Trade", yesNo(v.CanTrade)},
	})

	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Portfolio Value", fmt.Sprintf("$%.2f", v.Metrics.PortfolioValue)},
		{"Current Exposure", fmt.Sprintf("$%.2f (%.1f%%)", v.Metrics.CurrentExposure, v.Metrics.ExposureRatio()*100)},
		{"Available Capital", fmt.Sprintf("$%.2f", v.Metrics.AvailableCapital)},
		{"Open Positions", fmt.Sprintf("%d", v.Metrics.OpenPositionsCount)},
		{"Daily PnL", fmt.Sprintf("$%.2f", v.Metrics.DailyPnL)},
		{"Drawdown", fmt.Sprintf("%.2f%%", v.Metrics.DrawdownPercentage)},
		{"Concentration", fmt.Sprintf("%.1f%%", v.Metrics.ConcentrationPercentage)},
	})

	if len(v.Warnings) > 0 {
		t.AppendSeparator()
		t.AppendRow(table.Row{"Warnings", strings.Join(v.Warnings, "\n")})
	}
	if len(v.Recommendations) > 0 {
		t.AppendSeparator()
		t.AppendRow(table.Row{"Recommendations", strings.Join(v.Recommendations, "\n")})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 18, Align: text.AlignLeft},
		{Number: 2, WidthMin: 30, WidthMax: 60, Align: text.AlignLeft},
	})

	t.Render()
	fmt.Fprintln(r.out)
}

// PrintOpportunities renders detected arbitrage opportunities.
func (r *ConsoleReporter) PrintOpportunities(opps []types.ArbitrageOpportunity) {
	if len(opps) == 0 {
		fmt.Fprintln(r.out, "no arbitrage opportunities detected")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle("ARBITRAGE OPPORTUNITIES")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Asset", "Buy @", "Sell @", "Spread", "Net Profit", "Capital", "Confidence", "Expires"})

	for _, o := range opps {
		t.AppendRow(table.Row{
			o.Asset,
			fmt.Sprintf("%s %.6f", o.VenueBuy, o.BuyPrice),
			fmt.Sprintf("%s %.6f", o.VenueSell, o.SellPrice),
			fmt.Sprintf("%.3f%%", o.ProfitPercentage*100),
			fmt.Sprintf("$%.4f", o.NetProfit),
			fmt.Sprintf("$%.2f", o.RequiredCapital),
			fmt.Sprintf("%.0f%%", o.Confidence*100),
			o.ExpiresAt.Format("15:04:05"),
		})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})

	t.Render()
	fmt.Fprintln(r.out)
}

// PrintStartup renders the engine configuration banner at boot.
func (r *ConsoleReporter) PrintStartup(env string, venues, assets []string, scanInterval time.Duration, minProfitPct float64) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle("TRADE DECISION ENGINE")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"Environment", env},
		{"Venues", strings.Join(venues, ", ")},
		{"Tracked Assets", strings.Join(assets, ", ")},
		{"Scan Interval", scanInterval.String()},
		{"Min Profit", fmt.Sprintf("%.2f%%", minProfitPct*100)},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 15, Align: text.AlignLeft},
		{Number: 2, WidthMin: 30, WidthMax: 50, Align: text.AlignLeft},
	})

	t.Render()
	fmt.Fprintln(r.out)
}

func levelBadge(level risk.RiskLevel) string {
	switch level {
	case risk.RiskLevelLow:
		return "🟢 LOW"
	case risk.RiskLevelMedium:
		return "🟡 MEDIUM"
	case risk.RiskLevelHigh:
		return "🟠 HIGH"
	case risk.RiskLevelCritical:
		return "🔴 CRITICAL"
	default:
		return string(level)
	}
}

func yesNo(b bool) string {
	if b {
		return "✅ yes"
	}
	return "❌ no"
}
