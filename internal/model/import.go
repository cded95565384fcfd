package model

type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

type ImportResult struct {
	Processed int        `json:"processed"`
	Imported  int        `json:"imported"`
	Skipped   int        `json:"skipped"`
	Errors    []RowError `json:"errors"`
}
