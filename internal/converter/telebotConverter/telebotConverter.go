package telebotConverter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/KotFed0t/portfolio_analyzer_bot/internal/analytics"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/model"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/model/tg/tgCallback.go"
	"github.com/shopspring/decimal"
	tele "gopkg.in/telebot.v4"
)

const dateLayout = "2006-01-02"

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func pct(d decimal.Decimal) string {
	return d.StringFixed(2) + "%"
}

func signed(d decimal.Decimal) string {
	if d.IsPositive() {
		return "+" + money(d)
	}
	return money(d)
}

func AnalysisResponse(v analytics.Valuation, ordersCount int) string {
	var sb strings.Builder

	sb.WriteString("📊 Portfolio\n")
	sb.WriteString(fmt.Sprintf("💰 Invested: %s\n", money(v.TotalInvestment)))
	sb.WriteString(fmt.Sprintf("📈 Current value: %s\n", money(v.TotalCurrentValue)))
	sb.WriteString(fmt.Sprintf("   ▸ Unrealized: %s\n", signed(v.TotalUnrealizedProfit)))
	sb.WriteString(fmt.Sprintf("   ▸ Realized: %s\n", signed(v.RealizedProfit)))
	sb.WriteString(fmt.Sprintf("   ▸ Total P&L: %s\n\n", signed(v.TotalProfitLoss)))

	if len(v.Holdings) == 0 {
		sb.WriteString("No open positions.\n")
	}

	for i, h := range v.Holdings {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, h.Symbol))
		sb.WriteString(fmt.Sprintf("   ▸ Qty: %s @ %s\n", h.Quantity.String(), money(h.AvgUnitCost)))
		if h.MarketPrice.Valid {
			sb.WriteString(fmt.Sprintf("   ▸ Price: %s (%s today)\n", money(h.MarketPrice.Decimal), pct(h.DayChangePercent)))
		} else {
			sb.WriteString(fmt.Sprintf("   ▸ Price: N/A (quote %s)\n", h.QuoteStatus))
		}
		sb.WriteString(fmt.Sprintf("   ▸ Value: %s, P&L %s\n", money(h.CurrentValue), signed(h.UnrealizedProfit)))
		sb.WriteString(fmt.Sprintf("   ▸ Allocation: %s\n\n", pct(h.AllocationPercent)))
	}

	sb.WriteString(fmt.Sprintf("🧾 Orders in history: %d (/orders)", ordersCount))

	return sb.String()
}

func CompositionResponse(c analytics.Composition) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("🧩 Composition, total %s\n\n", money(c.TotalPortfolioValue)))

	if len(c.SectorAllocation) == 0 {
		sb.WriteString("Nothing to classify yet.")
		return sb.String()
	}

	sb.WriteString("Sectors:\n")
	sectors := make([]string, 0, len(c.SectorAllocation))
	for sector := range c.SectorAllocation {
		sectors = append(sectors, sector)
	}
	sort.Slice(sectors, func(i, j int) bool {
		return c.SectorAllocation[sectors[i]].Value.GreaterThan(c.SectorAllocation[sectors[j]].Value)
	})
	for _, sector := range sectors {
		b := c.SectorAllocation[sector]
		sb.WriteString(fmt.Sprintf("   ▸ %s: %s (%s)\n", sector, money(b.Value), pct(b.Percentage)))
	}

	sb.WriteString("\nMarket cap:\n")
	for _, tier := range []analytics.CapTier{analytics.LargeCap, analytics.MidCap, analytics.SmallCap, analytics.UnknownCap} {
		b, ok := c.MarketCapAllocation[tier]
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("   ▸ %s: %s (%s)\n", tier, money(b.Value), pct(b.Percentage)))
	}

	return sb.String()
}

func PerformanceResponse(p analytics.Performance) string {
	var sb strings.Builder

	writeStocks := func(title string, stocks []analytics.StockPerformance) {
		sb.WriteString(title + "\n")
		if len(stocks) == 0 {
			sb.WriteString("   none\n")
		}
		for i, s := range stocks {
			sb.WriteString(fmt.Sprintf("%d. %s %s (%s), now %s\n", i+1, s.Symbol, pct(s.ReturnPercentage), signed(s.ProfitLoss), money(s.CurrentPrice)))
		}
	}

	writeStocks("🚀 Top gainers", p.TopGainers)
	sb.WriteString("\n")
	writeStocks("🔻 Top losers", p.TopLosers)

	return sb.String()
}

func BehaviorResponse(b analytics.Behavior) string {
	var sb strings.Builder

	sb.WriteString("🧠 Trading behavior\n")
	sb.WriteString(fmt.Sprintf("   ▸ Avg holding time: %s days\n", b.AverageHoldingTime.StringFixed(1)))
	sb.WriteString(fmt.Sprintf("   ▸ Win rate: %s (%d of %d)\n", pct(b.WinRate), b.ProfitableTrades, b.TotalTrades))
	sb.WriteString(fmt.Sprintf("   ▸ Trades per month: %s\n", b.TradingFrequency.StringFixed(2)))

	return sb.String()
}

func OrderResponse(tx model.Transaction) string {
	return fmt.Sprintf(
		"%s %s %s x %s = %s on %s\nid: %s",
		strings.ToUpper(string(tx.Action)),
		tx.Symbol,
		tx.Quantity.String(),
		money(tx.Price),
		money(tx.Total()),
		tx.Timestamp.Format(dateLayout),
		tx.ID,
	)
}

// OrdersResponse renders a page of orders with delete buttons and pagination.
func OrdersResponse(txs []model.Transaction, page int, hasNext bool) (text string, markup *tele.ReplyMarkup) {
	markup = &tele.ReplyMarkup{}
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("🧾 Orders, page %d\n\n", page))
	if len(txs) == 0 {
		sb.WriteString("No orders.")
	}

	rows := make([]tele.Row, 0, len(txs)+1)
	for i, tx := range txs {
		sb.WriteString(fmt.Sprintf("%d. %s\n\n", i+1, OrderResponse(tx)))
		rows = append(rows, markup.Row(markup.Data(fmt.Sprintf("🗑 %d. %s", i+1, tx.Symbol), tgCallback.DeleteOrder, tx.ID.String())))
	}

	paginationBtns := make([]tele.Btn, 0, 2)
	if page > 1 {
		paginationBtns = append(paginationBtns, markup.Data("« prev", tgCallback.OrdersPage, strconv.Itoa(page-1)))
	}
	if hasNext {
		paginationBtns = append(paginationBtns, markup.Data("next »", tgCallback.OrdersPage, strconv.Itoa(page+1)))
	}
	if len(paginationBtns) > 0 {
		rows = append(rows, markup.Row(paginationBtns...))
	}

	markup.Inline(rows...)

	return sb.String(), markup
}

func DeleteAllConfirmation() (text string, markup *tele.ReplyMarkup) {
	markup = &tele.ReplyMarkup{}
	markup.Inline(markup.Row(
		markup.Data("Yes, delete all", tgCallback.ConfirmDeleteAll),
		markup.Data("Cancel", tgCallback.CancelDeleteAll),
	))
	return "Delete every order? This can't be undone.", markup
}

func ImportResultResponse(res model.ImportResult) string {
	var sb strings.Builder

	sb.WriteString("📥 Import finished\n")
	sb.WriteString(fmt.Sprintf("   ▸ Processed: %d\n", res.Processed))
	sb.WriteString(fmt.Sprintf("   ▸ Imported: %d\n", res.Imported))
	sb.WriteString(fmt.Sprintf("   ▸ Skipped: %d\n", res.Skipped))

	const maxShownErrors = 10
	for i, rowErr := range res.Errors {
		if i == maxShownErrors {
			sb.WriteString(fmt.Sprintf("...and %d more\n", len(res.Errors)-maxShownErrors))
			break
		}
		sb.WriteString(fmt.Sprintf("row %d: %s\n", rowErr.Row, rowErr.Error))
	}

	return sb.String()
}
