package analytics

import (
	"testing"

	"github.com/KotFed0t/portfolio_analyzer_bot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildReport(t *testing.T) {
	txs := []model.Transaction{
		sell("AAA", "5", "14", 10),
		buy("AAA", "10", "10", 0),
		buy("BBB", "2", "50", 1),
	}
	quotes := Quotes{
		"AAA": classified("AAA", "12", "Tech", "800000000000000"),
		"BBB": classified("BBB", "40", "Energy", "1000000000"),
	}

	report := BuildReport(txs, quotes, inrCrores)

	require.Len(t, report.Orders, 3)
	assert.Equal(t, "AAA", report.Orders[0].Symbol)
	assert.Equal(t, model.ActionBuy, report.Orders[0].Action)
	assert.Equal(t, model.ActionSell, report.Orders[2].Action)

	assertDecimal(t, "20", report.Valuation.RealizedProfit)
	assertDecimal(t, "140", report.Valuation.TotalCurrentValue)
	assertDecimal(t, "140", report.Composition.TotalPortfolioValue)
	assert.Equal(t, 1, report.Behavior.TotalTrades)
	require.Len(t, report.Performance.TopGainers, 1)
	assert.Equal(t, "AAA", report.Performance.TopGainers[0].Symbol)
	require.Len(t, report.Performance.TopLosers, 1)
	assert.Equal(t, "BBB", report.Performance.TopLosers[0].Symbol)

	assert.Equal(t, model.ActionSell, txs[0].Action, "input order is left untouched")
}
