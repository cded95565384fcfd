package importer

import "strings"

type column int

const (
	colSymbol column = iota
	colType
	colQuantity
	colPrice
	colExecutionTime
)

// keyword order matters: a later match overrides an earlier one for the same cell.
var columnKeywords = []struct {
	col      column
	keywords []string
}{
	{colType, []string{"type", "buy/sell", "transaction", "side"}},
	{colQuantity, []string{"quantity", "qty", "shares"}},
	{colPrice, []string{"price", "rate", "buy price", "sell price"}},
	{colExecutionTime, []string{"execution", "trade time", "order time"}},
}

const minHeaderColumns = 3

// header maps a normalized column to its cell index.
type header map[column]int

func (h header) cell(row []string, col column) string {
	idx, ok := h[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// detectHeader scans the first scanRows rows for a header. The symbol column
// must be named exactly "symbol", the rest are matched by keywords.
func detectHeader(rows [][]string, scanRows int) (header, int, bool) {
	for i := 0; i < len(rows) && i < scanRows; i++ {
		if h, ok := parseHeaderRow(rows[i]); ok {
			return h, i, true
		}
	}
	return nil, 0, false
}

func parseHeaderRow(row []string) (header, bool) {
	symbolIdx := -1
	for idx, cell := range row {
		if strings.ToLower(strings.TrimSpace(cell)) == "symbol" {
			symbolIdx = idx
		}
	}
	if symbolIdx < 0 {
		return nil, false
	}

	mapped := map[int]column{symbolIdx: colSymbol}
	for idx, cell := range row {
		if idx == symbolIdx {
			continue
		}
		lower := strings.ToLower(strings.TrimSpace(cell))
		for _, ck := range columnKeywords {
			for _, k := range ck.keywords {
				if strings.Contains(lower, k) {
					mapped[idx] = ck.col
					break
				}
			}
		}
	}

	h := header{}
	for idx := 0; idx < len(row); idx++ {
		col, ok := mapped[idx]
		if !ok {
			continue
		}
		if _, taken := h[col]; !taken {
			h[col] = idx
		}
	}

	if len(mapped) < minHeaderColumns {
		return nil, false
	}
	if _, ok := h[colType]; !ok {
		return nil, false
	}

	return h, true
}
