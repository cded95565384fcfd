package xslsxGenerator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/KotFed0t/portfolio_analyzer_bot/internal/analytics"
	"github.com/KotFed0t/portfolio_analyzer_bot/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	SheetHoldings    = "Holdings"
	SheetComposition = "Composition"
	SheetPerformance = "Performance"
	SheetBehavior    = "Behavior"
	SheetOrders      = "Orders"

	dateLayout = "2006-01-02 15:04"
)

var ErrEmptyReport = errors.New("empty report")

type XSLSXGenerator struct{}

func New() *XSLSXGenerator {
	return &XSLSXGenerator{}
}

func (g *XSLSXGenerator) Generate(ctx context.Context, report analytics.Report) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XSLSXGenerator.Generate"

	if len(report.Orders) == 0 {
		return nil, "", ErrEmptyReport
	}

	slog.Debug("Generate start", slog.String("rqID", rqID), slog.String("op", op))

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("got error while closing file", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	fillers := []struct {
		sheet string
		fill  func(f *excelize.File, sheet string, report analytics.Report) error
	}{
		{SheetHoldings, fillHoldings},
		{SheetComposition, fillComposition},
		{SheetPerformance, fillPerformance},
		{SheetBehavior, fillBehavior},
		{SheetOrders, fillOrders},
	}

	for _, filler := range fillers {
		if _, err := f.NewSheet(filler.sheet); err != nil {
			slog.Error("got error while creating NewSheet", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
			return nil, "", err
		}
		if err := filler.fill(f, filler.sheet, report); err != nil {
			slog.Error("got error while filling sheet", slog.String("rqID", rqID), slog.String("op", op), slog.String("sheet", filler.sheet), slog.String("err", err.Error()))
			return nil, "", err
		}
	}

	// default sheet
	if err := f.DeleteSheet("Sheet1"); err != nil {
		slog.Error("got error while deleting Sheet1", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		slog.Error("got error while Saving file to bytes buffer", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	slog.Debug("Generate completed", slog.String("rqID", rqID), slog.String("op", op))

	return buf.Bytes(), ".xlsx", nil
}

// writeTitle merges the title over the header width and paints it.
func writeTitle(f *excelize.File, sheet string, row int, title string, columns int, color string) error {
	first := cellName(1, row)
	last := cellName(columns, row)

	if columns > 1 {
		if err := f.MergeCell(sheet, first, last); err != nil {
			return err
		}
	}

	if err := f.SetCellStr(sheet, first, title); err != nil {
		return err
	}

	styleID, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Font: &excelize.Font{
			Bold: true,
			Size: 11,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{color},
		},
	})
	if err != nil {
		return err
	}

	if err := f.SetCellStyle(sheet, first, first, styleID); err != nil {
		return fmt.Errorf("apply style: %w", err)
	}

	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) error {
	return f.SetSheetRow(sheet, cellName(1, row), &values)
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func num(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func nullNum(d decimal.NullDecimal) any {
	if !d.Valid {
		return "N/A"
	}
	return d.Decimal.InexactFloat64()
}

func fillHoldings(f *excelize.File, sheet string, report analytics.Report) error {
	v := report.Valuation
	header := []any{"symbol", "quantity", "avg buy price", "investment", "market price", "current value", "unrealized P&L", "day change %", "allocation %", "quote"}

	if err := writeTitle(f, sheet, 1, "Holdings", len(header), "#cfe2f3"); err != nil {
		return err
	}
	if err := writeRow(f, sheet, 2, header...); err != nil {
		return err
	}

	rowNum := 3
	for _, h := range v.Holdings {
		err := writeRow(f, sheet, rowNum,
			h.Symbol,
			num(h.Quantity),
			num(h.AvgUnitCost),
			num(h.CostBasis),
			nullNum(h.MarketPrice),
			num(h.CurrentValue),
			num(h.UnrealizedProfit),
			num(h.DayChangePercent),
			num(h.AllocationPercent),
			h.QuoteStatus.String(),
		)
		if err != nil {
			return err
		}
		rowNum++
	}

	rowNum += 2
	if err := writeTitle(f, sheet, rowNum, "Totals", 2, "#d9ead3"); err != nil {
		return err
	}

	totals := []struct {
		name  string
		value decimal.Decimal
	}{
		{"total investment", v.TotalInvestment},
		{"total current value", v.TotalCurrentValue},
		{"unrealized profit", v.TotalUnrealizedProfit},
		{"realized profit", v.RealizedProfit},
		{"total profit/loss", v.TotalProfitLoss},
	}
	for _, total := range totals {
		rowNum++
		if err := writeRow(f, sheet, rowNum, total.name, num(total.value)); err != nil {
			return err
		}
	}

	return nil
}

func fillComposition(f *excelize.File, sheet string, report analytics.Report) error {
	c := report.Composition

	if err := writeTitle(f, sheet, 1, "Sectors", 3, "#f9cb9c"); err != nil {
		return err
	}
	if err := writeRow(f, sheet, 2, "sector", "value", "percentage"); err != nil {
		return err
	}

	sectors := make([]string, 0, len(c.SectorAllocation))
	for sector := range c.SectorAllocation {
		sectors = append(sectors, sector)
	}
	sort.Strings(sectors)

	rowNum := 3
	for _, sector := range sectors {
		b := c.SectorAllocation[sector]
		if err := writeRow(f, sheet, rowNum, sector, num(b.Value), num(b.Percentage)); err != nil {
			return err
		}
		rowNum++
	}

	rowNum += 2
	if err := writeTitle(f, sheet, rowNum, "Market cap", 3, "#f4cccc"); err != nil {
		return err
	}
	rowNum++
	if err := writeRow(f, sheet, rowNum, "category", "value", "percentage"); err != nil {
		return err
	}

	for _, tier := range []analytics.CapTier{analytics.LargeCap, analytics.MidCap, analytics.SmallCap, analytics.UnknownCap} {
		b, ok := c.MarketCapAllocation[tier]
		if !ok {
			continue
		}
		rowNum++
		if err := writeRow(f, sheet, rowNum, string(tier), num(b.Value), num(b.Percentage)); err != nil {
			return err
		}
	}

	rowNum += 3
	if err := writeTitle(f, sheet, rowNum, "Holdings", 6, "#cfe2f3"); err != nil {
		return err
	}
	rowNum++
	if err := writeRow(f, sheet, rowNum, "symbol", "quantity", "current value", "sector", "market cap", "category"); err != nil {
		return err
	}
	for _, h := range c.Holdings {
		rowNum++
		err := writeRow(f, sheet, rowNum, h.Symbol, num(h.Quantity), num(h.CurrentValue), h.Sector, nullNum(h.MarketCap), string(h.MarketCapCategory))
		if err != nil {
			return err
		}
	}

	rowNum += 2
	return writeRow(f, sheet, rowNum, "total portfolio value", num(c.TotalPortfolioValue))
}

func fillPerformance(f *excelize.File, sheet string, report analytics.Report) error {
	rowNum := 1
	sections := []struct {
		title  string
		color  string
		stocks []analytics.StockPerformance
	}{
		{"Top gainers", "#d9ead3", report.Performance.TopGainers},
		{"Top losers", "#f4cccc", report.Performance.TopLosers},
	}

	for _, section := range sections {
		if err := writeTitle(f, sheet, rowNum, section.title, 5, section.color); err != nil {
			return err
		}
		rowNum++
		if err := writeRow(f, sheet, rowNum, "symbol", "investment", "profit/loss", "return %", "current price"); err != nil {
			return err
		}
		for _, s := range section.stocks {
			rowNum++
			err := writeRow(f, sheet, rowNum, s.Symbol, num(s.Investment), num(s.ProfitLoss), num(s.ReturnPercentage), num(s.CurrentPrice))
			if err != nil {
				return err
			}
		}
		rowNum += 3
	}

	return nil
}

func fillBehavior(f *excelize.File, sheet string, report analytics.Report) error {
	b := report.Behavior

	if err := writeTitle(f, sheet, 1, "Trading behavior", 2, "#cccccc"); err != nil {
		return err
	}

	rows := [][]any{
		{"average holding time (days)", num(b.AverageHoldingTime)},
		{"win rate %", num(b.WinRate)},
		{"trades per month", num(b.TradingFrequency)},
		{"total trades", b.TotalTrades},
		{"profitable trades", b.ProfitableTrades},
	}
	for i, row := range rows {
		if err := writeRow(f, sheet, i+2, row...); err != nil {
			return err
		}
	}

	return nil
}

func fillOrders(f *excelize.File, sheet string, report analytics.Report) error {
	if err := writeTitle(f, sheet, 1, "Order history", 7, "#cccccc"); err != nil {
		return err
	}
	if err := writeRow(f, sheet, 2, "date", "symbol", "type", "quantity", "price", "total", "id"); err != nil {
		return err
	}

	for i, tx := range report.Orders {
		err := writeRow(f, sheet, i+3,
			tx.Timestamp.Format(dateLayout),
			tx.Symbol,
			string(tx.Action),
			num(tx.Quantity),
			num(tx.Price),
			num(tx.Total()),
			tx.ID.String(),
		)
		if err != nil {
			return err
		}
	}

	return nil
}
