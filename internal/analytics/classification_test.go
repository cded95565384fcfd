package analytics

import (
	"testing"

	"github.com/KotFed0t/portfolio_analyzer_bot/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var inrCrores = CapThresholds{
	Large:       d("67000"),
	Mid:         d("22000"),
	Unit:        d("10000000"),
	SanityBound: d("1e15"),
}

func classified(symbol, price, sector string, marketCap string) model.QuoteResult {
	q := model.Quote{
		Symbol:    symbol,
		LastPrice: decimal.NewNullDecimal(d(price)),
		Sector:    sector,
	}
	if marketCap != "" {
		q.MarketCap = decimal.NewNullDecimal(d(marketCap))
	}
	return model.QuoteFound(q)
}

func TestCapThresholds_Tier(t *testing.T) {
	tests := []struct {
		name      string
		marketCap decimal.NullDecimal
		want      CapTier
	}{
		{"missing", decimal.NullDecimal{}, UnknownCap},
		{"above sanity bound", decimal.NewNullDecimal(d("1e15")), UnknownCap},
		{"negative", decimal.NewNullDecimal(d("-1")), UnknownCap},
		{"large", decimal.NewNullDecimal(d("670010000000")), LargeCap},
		{"exactly large threshold is mid", decimal.NewNullDecimal(d("670000000000")), MidCap},
		{"mid", decimal.NewNullDecimal(d("300000000000")), MidCap},
		{"just above mid threshold", decimal.NewNullDecimal(d("220010000000")), MidCap},
		{"exactly mid threshold is small", decimal.NewNullDecimal(d("220000000000")), SmallCap},
		{"small", decimal.NewNullDecimal(d("5000000000")), SmallCap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inrCrores.Tier(tt.marketCap))
		})
	}
}

func TestClassify_Buckets(t *testing.T) {
	ledger := BuildLedger([]model.Transaction{
		buy("A", "10", "10", 0),
		buy("B", "10", "10", 0),
		buy("C", "20", "10", 0),
	})
	quotes := Quotes{
		"A": classified("A", "10", "Technology", "800000000000000"),
		"B": classified("B", "20", "Technology", "100000000"),
		"C": classified("C", "5", "", ""),
	}

	c := Classify(ledger, quotes, inrCrores)

	assertDecimal(t, "400", c.TotalPortfolioValue)

	require.Len(t, c.SectorAllocation, 2)
	assertDecimal(t, "300", c.SectorAllocation["Technology"].Value)
	assertDecimal(t, "75", c.SectorAllocation["Technology"].Percentage)
	assertDecimal(t, "100", c.SectorAllocation[OthersSector].Value)
	assertDecimal(t, "25", c.SectorAllocation[OthersSector].Percentage)

	require.Len(t, c.MarketCapAllocation, 3)
	assertDecimal(t, "25", c.MarketCapAllocation[LargeCap].Percentage)
	assertDecimal(t, "50", c.MarketCapAllocation[SmallCap].Percentage)
	assertDecimal(t, "25", c.MarketCapAllocation[UnknownCap].Percentage)

	require.Len(t, c.Holdings, 3)
	assert.Equal(t, OthersSector, c.Holdings[2].Sector)
	assert.Equal(t, UnknownCap, c.Holdings[2].MarketCapCategory)
}

func TestClassify_UnavailableQuoteFallsBack(t *testing.T) {
	ledger := BuildLedger([]model.Transaction{
		buy("A", "1", "10", 0),
		buy("B", "1", "10", 0),
	})
	quotes := Quotes{
		"A": classified("A", "10", "Energy", "100"),
		"B": model.QuoteNotFound(),
	}

	c := Classify(ledger, quotes, inrCrores)

	assertDecimal(t, "10", c.TotalPortfolioValue)
	assertDecimal(t, "0", c.SectorAllocation[OthersSector].Value)
	assertDecimal(t, "100", c.SectorAllocation["Energy"].Percentage)
	assert.False(t, c.Holdings[1].CurrentPrice.Valid)
	assert.Equal(t, UnknownCap, c.Holdings[1].MarketCapCategory)
}

func TestClassify_ZeroTotalHasNoBuckets(t *testing.T) {
	ledger := BuildLedger([]model.Transaction{buy("A", "1", "10", 0)})

	c := Classify(ledger, Quotes{}, inrCrores)

	assert.Empty(t, c.SectorAllocation)
	assert.Empty(t, c.MarketCapAllocation)
	assert.NotNil(t, c.SectorAllocation)
	require.Len(t, c.Holdings, 1)
}

func TestClassify_ExcludesClosedHoldings(t *testing.T) {
	ledger := BuildLedger([]model.Transaction{
		buy("A", "1", "10", 0),
		sell("A", "1", "11", 1),
		buy("B", "1", "10", 1),
	})
	quotes := Quotes{
		"A": classified("A", "10", "Energy", "100"),
		"B": classified("B", "10", "Utilities", "100"),
	}

	c := Classify(ledger, quotes, inrCrores)

	require.Len(t, c.Holdings, 1)
	assert.NotContains(t, c.SectorAllocation, "Energy")
}

func TestClassify_Empty(t *testing.T) {
	c := Classify(BuildLedger(nil), Quotes{}, inrCrores)

	assert.Empty(t, c.Holdings)
	assert.Empty(t, c.SectorAllocation)
	assertDecimal(t, "0", c.TotalPortfolioValue)
}
