// Package importer turns broker trade exports into transactions.
package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/KotFed0t/portfolio_analyzer_bot/config"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/model"
	"github.com/KotFed0t/portfolio_analyzer_bot/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// firstDataRow is the row number reported for the first row after the header.
const firstDataRow = 2

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
	"02-01-2006",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"02.01.2006 15:04:05",
	"02.01.2006",
	"02-Jan-2006",
	"02 Jan 2006",
}

type Importer struct {
	cfg *config.Config
	now func() time.Time
}

func New(cfg *config.Config) *Importer {
	return &Importer{cfg: cfg, now: time.Now}
}

// Parse reads a CSV or XLSX export. Rows that fail validation are skipped and
// reported in the result, the rest are returned ready for insertion.
func (im *Importer) Parse(ctx context.Context, filename string, r io.Reader, ownerID int64) ([]model.Transaction, model.ImportResult, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("Importer.Parse start", slog.String("rqID", rqID), slog.String("filename", filename))

	rows, err := im.readRows(filename, r)
	if err != nil {
		return nil, model.ImportResult{}, err
	}

	h, headerIdx, ok := detectHeader(rows, im.cfg.Import.HeaderScanRows)
	if !ok {
		return nil, model.ImportResult{}, ErrHeaderNotFound
	}

	dataRows := rows[headerIdx+1:]
	if im.cfg.Import.MaxRows > 0 && len(dataRows) > im.cfg.Import.MaxRows {
		return nil, model.ImportResult{}, fmt.Errorf("%w: %d > %d", ErrTooManyRows, len(dataRows), im.cfg.Import.MaxRows)
	}

	result := model.ImportResult{Errors: make([]model.RowError, 0)}
	txs := make([]model.Transaction, 0, len(dataRows))

	for i, row := range dataRows {
		if isBlank(row) {
			continue
		}
		result.Processed++

		tx, err := im.parseRow(h, row, ownerID)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, model.RowError{Row: i + firstDataRow, Error: err.Error()})
			continue
		}

		txs = append(txs, tx)
		result.Imported++
	}

	slog.Debug(
		"Importer.Parse finished",
		slog.String("rqID", rqID),
		slog.Int("processed", result.Processed),
		slog.Int("imported", result.Imported),
		slog.Int("skipped", result.Skipped),
	)

	return txs, result, nil
}

func (im *Importer) readRows(filename string, r io.Reader) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return readCSV(r)
	case ".xlsx":
		return readXLSX(r)
	default:
		return nil, ErrUnsupportedFormat
	}
}

func readCSV(r io.Reader) ([][]string, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read xlsx rows: %w", err)
	}
	return rows, nil
}

func (im *Importer) parseRow(h header, row []string, ownerID int64) (model.Transaction, error) {
	symbol := model.NormalizeSymbol(h.cell(row, colSymbol))
	if symbol == "" {
		return model.Transaction{}, errors.New("missing symbol")
	}
	if !strings.HasSuffix(symbol, im.cfg.Import.SymbolSuffix) {
		symbol += im.cfg.Import.SymbolSuffix
	}

	action, err := model.ParseAction(h.cell(row, colType))
	if err != nil {
		return model.Transaction{}, errors.New("invalid or missing type (must be 'buy' or 'sell')")
	}

	quantity, err := parseNumber(h.cell(row, colQuantity))
	if err != nil {
		return model.Transaction{}, errors.New("invalid quantity")
	}

	total, err := parseNumber(h.cell(row, colPrice))
	if err != nil {
		return model.Transaction{}, errors.New("invalid price")
	}

	// exports carry the trade value, the ledger stores unit price
	if quantity.IsZero() {
		return model.Transaction{}, errors.New("division error: price/quantity")
	}
	price := total.Div(quantity)

	rawTime := h.cell(row, colExecutionTime)
	executedAt := im.now()
	if rawTime != "" {
		executedAt, err = parseTime(rawTime)
		if err != nil {
			return model.Transaction{}, fmt.Errorf("invalid execution_time/date format: %s", rawTime)
		}
	}

	tx := model.Transaction{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Symbol:    symbol,
		Action:    action,
		Quantity:  quantity,
		Price:     price,
		Timestamp: executedAt,
	}
	if err = tx.Validate(); err != nil {
		return model.Transaction{}, err
	}

	return tx, nil
}

func parseNumber(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, errors.New("empty number")
	}
	return decimal.NewFromString(s)
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	// unformatted spreadsheet dates come through as serial numbers
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		return excelize.ExcelDateToTime(serial, false)
	}

	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
