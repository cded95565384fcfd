package model

import (
	"github.com/shopspring/decimal"
)

type QuoteStatus int

const (
	QuoteOK QuoteStatus = iota
	QuoteUnavailable
	QuoteFailed
)

func (s QuoteStatus) String() string {
	switch s {
	case QuoteOK:
		return "ok"
	case QuoteUnavailable:
		return "unavailable"
	case QuoteFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Quote is a market data snapshot. Any field may be missing.
type Quote struct {
	Symbol           string              `json:"symbol"`
	LastPrice        decimal.NullDecimal `json:"last_price"`
	OpenPrice        decimal.NullDecimal `json:"open_price"`
	DayChangePercent decimal.NullDecimal `json:"day_change_percent"`
	Sector           string              `json:"sector"`
	MarketCap        decimal.NullDecimal `json:"market_cap"`
}

// QuoteResult keeps the outcome of a quote lookup so that views can decide on
// the fallback instead of the fetching code.
type QuoteResult struct {
	Status QuoteStatus
	Quote  Quote
	Err    error
}

func QuoteFound(q Quote) QuoteResult {
	return QuoteResult{Status: QuoteOK, Quote: q}
}

func QuoteNotFound() QuoteResult {
	return QuoteResult{Status: QuoteUnavailable}
}

func QuoteError(err error) QuoteResult {
	return QuoteResult{Status: QuoteFailed, Err: err}
}

// Price returns the last price when the lookup succeeded and carried one.
func (r QuoteResult) Price() (decimal.Decimal, bool) {
	if r.Status != QuoteOK || !r.Quote.LastPrice.Valid {
		return decimal.Zero, false
	}
	return r.Quote.LastPrice.Decimal, true
}

func (r QuoteResult) Sector() string {
	if r.Status != QuoteOK {
		return ""
	}
	return r.Quote.Sector
}

func (r QuoteResult) MarketCap() (decimal.Decimal, bool) {
	if r.Status != QuoteOK || !r.Quote.MarketCap.Valid {
		return decimal.Zero, false
	}
	return r.Quote.MarketCap.Decimal, true
}
