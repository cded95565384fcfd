package analytics

import (
	"sort"

	"github.com/shopspring/decimal"
)

const rankingSize = 5

type StockPerformance struct {
	Symbol           string
	Investment       decimal.Decimal
	ProfitLoss       decimal.Decimal
	ReturnPercentage decimal.Decimal
	CurrentPrice     decimal.Decimal
}

type Performance struct {
	TopGainers []StockPerformance
	TopLosers  []StockPerformance
}

// RankPerformance picks the best and worst open holdings by return. Unlike
// Valuate, holdings without a price (or priced at zero) are left out entirely.
func RankPerformance(ledger Ledger, quotes QuoteLookup) Performance {
	stocks := make([]StockPerformance, 0, len(ledger.Symbols))

	for _, h := range ledger.OpenHoldings() {
		price, ok := quotes.Lookup(h.Symbol).Price()
		if !ok || price.IsZero() {
			continue
		}

		profitLoss := h.Quantity.Mul(price).Sub(h.CostBasis)
		returnPct := decimal.Zero
		if h.CostBasis.IsPositive() {
			returnPct = profitLoss.Div(h.CostBasis).Mul(hundred)
		}

		stocks = append(stocks, StockPerformance{
			Symbol:           h.Symbol,
			Investment:       h.CostBasis,
			ProfitLoss:       profitLoss,
			ReturnPercentage: returnPct,
			CurrentPrice:     price,
		})
	}

	sort.SliceStable(stocks, func(i, j int) bool {
		return stocks[i].ReturnPercentage.GreaterThan(stocks[j].ReturnPercentage)
	})

	res := Performance{
		TopGainers: make([]StockPerformance, 0, rankingSize),
		TopLosers:  make([]StockPerformance, 0, rankingSize),
	}

	for i := 0; i < len(stocks) && len(res.TopGainers) < rankingSize; i++ {
		if stocks[i].ReturnPercentage.IsPositive() {
			res.TopGainers = append(res.TopGainers, stocks[i])
		}
	}
	for i := len(stocks) - 1; i >= 0 && len(res.TopLosers) < rankingSize; i-- {
		if stocks[i].ReturnPercentage.IsNegative() {
			res.TopLosers = append(res.TopLosers, stocks[i])
		}
	}

	return res
}
