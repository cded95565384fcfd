package analytics

import (
	"sort"
	"time"

	"github.com/KotFed0t/portfolio_analyzer_bot/internal/model"
	"github.com/shopspring/decimal"
)

var daysPerMonth = decimal.RequireFromString("30.44")

type Behavior struct {
	// AverageHoldingTime is in days.
	AverageHoldingTime decimal.Decimal
	// WinRate is the percentage of matched trades closed at a profit.
	WinRate decimal.Decimal
	// TradingFrequency is matched trades per month.
	TradingFrequency decimal.Decimal
	TotalTrades      int
	ProfitableTrades int
}

type openBuy struct {
	tx        model.Transaction
	remaining decimal.Decimal
}

// AnalyzeBehavior matches every sell against the buys of the same symbol in
// timestamp order and measures how long positions were held. A matched pair
// counts as a trade only when it was held for at least one whole day, but its
// quantity is consumed either way.
func AnalyzeBehavior(txs []model.Transaction) Behavior {
	if len(txs) == 0 {
		return Behavior{}
	}

	bySymbol := make(map[string][]model.Transaction)
	symbols := make([]string, 0)
	for _, tx := range txs {
		if _, ok := bySymbol[tx.Symbol]; !ok {
			symbols = append(symbols, tx.Symbol)
		}
		bySymbol[tx.Symbol] = append(bySymbol[tx.Symbol], tx)
	}

	totalDays := 0
	totalTrades := 0
	profitableTrades := 0

	for _, symbol := range symbols {
		buys := make([]*openBuy, 0)
		sells := make([]model.Transaction, 0)
		for _, tx := range SortTransactions(bySymbol[symbol]) {
			switch tx.Action {
			case model.ActionBuy:
				buys = append(buys, &openBuy{tx: tx, remaining: tx.Quantity})
			case model.ActionSell:
				sells = append(sells, tx)
			}
		}

		for _, sell := range sells {
			remainingSell := sell.Quantity

			for _, buy := range buys {
				if !remainingSell.IsPositive() {
					break
				}
				if !buy.remaining.IsPositive() {
					continue
				}

				tradeQty := decimal.Min(remainingSell, buy.remaining)
				days := wholeDays(buy.tx.Timestamp, sell.Timestamp)
				if days > 0 {
					totalDays += days
					if sell.Price.Sub(buy.tx.Price).Mul(tradeQty).IsPositive() {
						profitableTrades++
					}
					totalTrades++
				}

				remainingSell = remainingSell.Sub(tradeQty)
				buy.remaining = buy.remaining.Sub(tradeQty)
			}
		}
	}

	res := Behavior{
		TotalTrades:      totalTrades,
		ProfitableTrades: profitableTrades,
	}
	if totalTrades == 0 {
		return res
	}

	trades := decimal.NewFromInt(int64(totalTrades))
	res.AverageHoldingTime = decimal.NewFromInt(int64(totalDays)).Div(trades).RoundBank(1)
	res.WinRate = decimal.NewFromInt(int64(profitableTrades)).Div(trades).Mul(hundred).RoundBank(2)

	first, last := timeSpan(txs)
	monthsSpan := decimal.NewFromInt(int64(wholeDays(first, last))).Div(daysPerMonth)
	if monthsSpan.IsPositive() {
		res.TradingFrequency = trades.Div(monthsSpan).RoundBank(2)
	}

	return res
}

// wholeDays counts complete days from a to b, rounding towards the past.
func wholeDays(a, b time.Time) int {
	d := b.Sub(a)
	days := int(d / (24 * time.Hour))
	if d < 0 && d%(24*time.Hour) != 0 {
		days--
	}
	return days
}

func timeSpan(txs []model.Transaction) (first, last time.Time) {
	times := make([]time.Time, 0, len(txs))
	for _, tx := range txs {
		times = append(times, tx.Timestamp)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	return times[0], times[len(times)-1]
}
