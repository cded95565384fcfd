package analytics

import "github.com/KotFed0t/portfolio_analyzer_bot/internal/model"

// Report bundles every view computed over the same transaction log and quotes.
type Report struct {
	Valuation   Valuation
	Composition Composition
	Performance Performance
	Behavior    Behavior
	// Orders is the log in processing order.
	Orders []model.Transaction
}

func BuildReport(txs []model.Transaction, quotes QuoteLookup, thresholds CapThresholds) Report {
	ledger := BuildLedger(txs)

	return Report{
		Valuation:   Valuate(ledger, quotes),
		Composition: Classify(ledger, quotes, thresholds),
		Performance: RankPerformance(ledger, quotes),
		Behavior:    AnalyzeBehavior(txs),
		Orders:      SortTransactions(txs),
	}
}
