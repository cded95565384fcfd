package analytics

import (
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/model"
	"github.com/shopspring/decimal"
)

type HoldingValuation struct {
	Symbol      string
	Quantity    decimal.Decimal
	AvgUnitCost decimal.Decimal
	CostBasis   decimal.Decimal
	// MarketPrice is null when the quote could not be obtained.
	MarketPrice       decimal.NullDecimal
	CurrentValue      decimal.Decimal
	UnrealizedProfit  decimal.Decimal
	DayChangePercent  decimal.Decimal
	AllocationPercent decimal.Decimal
	QuoteStatus       model.QuoteStatus
}

type Valuation struct {
	Holdings              []HoldingValuation
	TotalInvestment       decimal.Decimal
	TotalCurrentValue     decimal.Decimal
	TotalUnrealizedProfit decimal.Decimal
	RealizedProfit        decimal.Decimal
	TotalProfitLoss       decimal.Decimal
}

// Valuate prices every open holding. A holding without a usable quote stays in
// the result with zero current value, so its whole cost basis shows as loss.
func Valuate(ledger Ledger, quotes QuoteLookup) Valuation {
	res := Valuation{
		Holdings:       make([]HoldingValuation, 0, len(ledger.Symbols)),
		RealizedProfit: ledger.RealizedProfit,
	}

	for _, h := range ledger.OpenHoldings() {
		quote := quotes.Lookup(h.Symbol)

		hv := HoldingValuation{
			Symbol:      h.Symbol,
			Quantity:    h.Quantity,
			AvgUnitCost: h.AvgUnitCost,
			CostBasis:   h.CostBasis,
			QuoteStatus: quote.Status,
		}

		if price, ok := quote.Price(); ok {
			hv.MarketPrice = decimal.NewNullDecimal(price)
			hv.CurrentValue = h.Quantity.Mul(price)
		}
		hv.UnrealizedProfit = hv.CurrentValue.Sub(h.CostBasis)
		hv.DayChangePercent = dayChangePercent(quote)

		res.TotalInvestment = res.TotalInvestment.Add(h.CostBasis)
		res.TotalCurrentValue = res.TotalCurrentValue.Add(hv.CurrentValue)
		res.TotalUnrealizedProfit = res.TotalUnrealizedProfit.Add(hv.UnrealizedProfit)
		res.Holdings = append(res.Holdings, hv)
	}

	for i := range res.Holdings {
		res.Holdings[i].AllocationPercent = percentOf(res.Holdings[i].CurrentValue, res.TotalCurrentValue)
	}

	res.TotalProfitLoss = res.TotalCurrentValue.Add(res.RealizedProfit).Sub(res.TotalInvestment)

	return res
}

// dayChangePercent prefers the provider's figure, then derives it from the open price.
func dayChangePercent(quote model.QuoteResult) decimal.Decimal {
	if quote.Status != model.QuoteOK {
		return decimal.Zero
	}
	q := quote.Quote
	if q.DayChangePercent.Valid {
		return q.DayChangePercent.Decimal
	}
	if q.LastPrice.Valid && q.OpenPrice.Valid && !q.OpenPrice.Decimal.IsZero() {
		return q.LastPrice.Decimal.Sub(q.OpenPrice.Decimal).Div(q.OpenPrice.Decimal).Mul(hundred)
	}
	return decimal.Zero
}

func percentOf(part, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return part.Div(total).Mul(hundred)
}
