// Package analytics derives holdings, profit and trading statistics from an
// owner's transaction log. Every function here is pure: the same transactions
// and quotes always produce the same result and no state outlives a call.
package analytics

import (
	"sort"

	"github.com/KotFed0t/portfolio_analyzer_bot/internal/model"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Lot is the unconsumed part of a single buy.
type Lot struct {
	Quantity decimal.Decimal
	UnitCost decimal.Decimal
}

type Holding struct {
	Symbol      string
	Quantity    decimal.Decimal
	AvgUnitCost decimal.Decimal
	CostBasis   decimal.Decimal
	OpenLots    []Lot
}

func (h Holding) IsOpen() bool {
	return h.Quantity.IsPositive()
}

type Ledger struct {
	Holdings map[string]Holding
	// Symbols lists every instrument in order of first appearance.
	Symbols        []string
	RealizedProfit decimal.Decimal
}

// OpenHoldings returns holdings with a positive quantity in first-appearance order.
func (l Ledger) OpenHoldings() []Holding {
	res := make([]Holding, 0, len(l.Symbols))
	for _, symbol := range l.Symbols {
		h := l.Holdings[symbol]
		if h.IsOpen() {
			res = append(res, h)
		}
	}
	return res
}

// SortTransactions returns a copy ordered by timestamp. Transactions sharing a
// timestamp keep their input order.
func SortTransactions(txs []model.Transaction) []model.Transaction {
	ordered := make([]model.Transaction, len(txs))
	copy(ordered, txs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})
	return ordered
}

// lotQueue is the running state of one instrument while the ledger is built.
type lotQueue struct {
	quantity  decimal.Decimal
	costBasis decimal.Decimal
	lots      []Lot
}

func (q *lotQueue) buy(quantity, price decimal.Decimal) {
	if !quantity.IsPositive() {
		return
	}
	q.lots = append(q.lots, Lot{Quantity: quantity, UnitCost: price})
	q.quantity = q.quantity.Add(quantity)
	q.costBasis = q.costBasis.Add(quantity.Mul(price))
}

// sell consumes lots from the head of the queue and returns the realized profit.
// Quantity exceeding what the queue holds is dropped without contributing profit.
func (q *lotQueue) sell(quantity, price decimal.Decimal) decimal.Decimal {
	profit := decimal.Zero
	remaining := quantity

	for remaining.IsPositive() && len(q.lots) > 0 {
		head := &q.lots[0]

		if head.Quantity.GreaterThan(remaining) {
			profit = profit.Add(price.Sub(head.UnitCost).Mul(remaining))
			head.Quantity = head.Quantity.Sub(remaining)
			q.quantity = q.quantity.Sub(remaining)
			q.costBasis = q.costBasis.Sub(remaining.Mul(head.UnitCost))
			remaining = decimal.Zero
			continue
		}

		profit = profit.Add(price.Sub(head.UnitCost).Mul(head.Quantity))
		q.quantity = q.quantity.Sub(head.Quantity)
		q.costBasis = q.costBasis.Sub(head.Quantity.Mul(head.UnitCost))
		remaining = remaining.Sub(head.Quantity)
		q.lots = q.lots[1:]
	}

	return profit
}

func (q *lotQueue) holding(symbol string) Holding {
	lots := make([]Lot, len(q.lots))
	copy(lots, q.lots)

	return Holding{
		Symbol:      symbol,
		Quantity:    q.quantity,
		AvgUnitCost: avgUnitCost(q.costBasis, q.quantity),
		CostBasis:   q.costBasis,
		OpenLots:    lots,
	}
}

func avgUnitCost(costBasis, quantity decimal.Decimal) decimal.Decimal {
	if !quantity.IsPositive() {
		return decimal.Zero
	}
	return costBasis.Div(quantity)
}

// BuildLedger matches sells against buys first-in-first-out per instrument.
func BuildLedger(txs []model.Transaction) Ledger {
	queues := make(map[string]*lotQueue)
	symbols := make([]string, 0)
	realized := decimal.Zero

	for _, tx := range SortTransactions(txs) {
		q, ok := queues[tx.Symbol]
		if !ok {
			q = &lotQueue{}
			queues[tx.Symbol] = q
			symbols = append(symbols, tx.Symbol)
		}

		switch tx.Action {
		case model.ActionBuy:
			q.buy(tx.Quantity, tx.Price)
		case model.ActionSell:
			realized = realized.Add(q.sell(tx.Quantity, tx.Price))
		}
	}

	holdings := make(map[string]Holding, len(queues))
	for _, symbol := range symbols {
		holdings[symbol] = queues[symbol].holding(symbol)
	}

	return Ledger{
		Holdings:       holdings,
		Symbols:        symbols,
		RealizedProfit: realized,
	}
}
