package analytics

import (
	"github.com/shopspring/decimal"
)

type CapTier string

const (
	LargeCap   CapTier = "Large Cap"
	MidCap     CapTier = "Mid Cap"
	SmallCap   CapTier = "Small Cap"
	UnknownCap CapTier = "Unknown"
)

const OthersSector = "Others"

// CapThresholds buckets market capitalization into size tiers. Market cap is
// divided by Unit before comparison with Large and Mid, values at or above
// SanityBound are treated as bogus provider data.
type CapThresholds struct {
	Large       decimal.Decimal
	Mid         decimal.Decimal
	Unit        decimal.Decimal
	SanityBound decimal.Decimal
}

func (t CapThresholds) Tier(marketCap decimal.NullDecimal) CapTier {
	if !marketCap.Valid || marketCap.Decimal.IsNegative() {
		return UnknownCap
	}
	if t.SanityBound.IsPositive() && marketCap.Decimal.GreaterThanOrEqual(t.SanityBound) {
		return UnknownCap
	}

	scaled := marketCap.Decimal
	if t.Unit.IsPositive() {
		scaled = scaled.Div(t.Unit)
	}

	switch {
	case scaled.GreaterThan(t.Large):
		return LargeCap
	case scaled.GreaterThan(t.Mid):
		return MidCap
	default:
		return SmallCap
	}
}

type Bucket struct {
	Value      decimal.Decimal
	Percentage decimal.Decimal
}

type ClassifiedHolding struct {
	Symbol            string
	Quantity          decimal.Decimal
	AvgUnitCost       decimal.Decimal
	CurrentPrice      decimal.NullDecimal
	CurrentValue      decimal.Decimal
	Sector            string
	MarketCapCategory CapTier
	MarketCap         decimal.NullDecimal
}

type Composition struct {
	SectorAllocation    map[string]Bucket
	MarketCapAllocation map[CapTier]Bucket
	Holdings            []ClassifiedHolding
	TotalPortfolioValue decimal.Decimal
}

// Classify groups the current value of open holdings by sector and size tier.
// Current value follows the same rule as Valuate: no quote means zero value.
func Classify(ledger Ledger, quotes QuoteLookup, thresholds CapThresholds) Composition {
	sectorValues := make(map[string]decimal.Decimal)
	tierValues := make(map[CapTier]decimal.Decimal)

	res := Composition{
		SectorAllocation:    make(map[string]Bucket),
		MarketCapAllocation: make(map[CapTier]Bucket),
		Holdings:            make([]ClassifiedHolding, 0, len(ledger.Symbols)),
	}

	for _, h := range ledger.OpenHoldings() {
		quote := quotes.Lookup(h.Symbol)

		ch := ClassifiedHolding{
			Symbol:      h.Symbol,
			Quantity:    h.Quantity,
			AvgUnitCost: h.AvgUnitCost,
			Sector:      quote.Sector(),
		}
		if ch.Sector == "" {
			ch.Sector = OthersSector
		}
		if price, ok := quote.Price(); ok {
			ch.CurrentPrice = decimal.NewNullDecimal(price)
			ch.CurrentValue = h.Quantity.Mul(price)
		}
		if marketCap, ok := quote.MarketCap(); ok {
			ch.MarketCap = decimal.NewNullDecimal(marketCap)
		}
		ch.MarketCapCategory = thresholds.Tier(ch.MarketCap)

		sectorValues[ch.Sector] = sectorValues[ch.Sector].Add(ch.CurrentValue)
		tierValues[ch.MarketCapCategory] = tierValues[ch.MarketCapCategory].Add(ch.CurrentValue)
		res.TotalPortfolioValue = res.TotalPortfolioValue.Add(ch.CurrentValue)
		res.Holdings = append(res.Holdings, ch)
	}

	if !res.TotalPortfolioValue.IsPositive() {
		return res
	}

	for sector, value := range sectorValues {
		res.SectorAllocation[sector] = Bucket{Value: value, Percentage: percentOf(value, res.TotalPortfolioValue)}
	}
	for tier, value := range tierValues {
		res.MarketCapAllocation[tier] = Bucket{Value: value, Percentage: percentOf(value, res.TotalPortfolioValue)}
	}

	return res
}
