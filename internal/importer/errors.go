package importer

import "errors"

var (
	ErrUnsupportedFormat = errors.New("only CSV and XLSX files are supported")
	ErrHeaderNotFound    = errors.New("could not detect header row with required columns (exact 'Symbol' column required)")
	ErrTooManyRows       = errors.New("file has too many rows")
	ErrEmptyWorkbook     = errors.New("workbook has no sheets")
)
