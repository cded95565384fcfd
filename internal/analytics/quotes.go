package analytics

import "github.com/KotFed0t/portfolio_analyzer_bot/internal/model"

type QuoteLookup interface {
	Lookup(symbol string) model.QuoteResult
}

// Quotes is a prefetched set of lookups. Missing symbols are unavailable.
type Quotes map[string]model.QuoteResult

func (q Quotes) Lookup(symbol string) model.QuoteResult {
	res, ok := q[symbol]
	if !ok {
		return model.QuoteNotFound()
	}
	return res
}
