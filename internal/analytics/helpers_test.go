package analytics

import (
	"testing"
	"time"

	"github.com/KotFed0t/portfolio_analyzer_bot/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var day0 = time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTx(action model.Action, symbol, qty, price string, day int) model.Transaction {
	return model.Transaction{
		ID:        uuid.New(),
		OwnerID:   1,
		Symbol:    symbol,
		Action:    action,
		Quantity:  d(qty),
		Price:     d(price),
		Timestamp: day0.AddDate(0, 0, day),
	}
}

func buy(symbol, qty, price string, day int) model.Transaction {
	return newTx(model.ActionBuy, symbol, qty, price, day)
}

func sell(symbol, qty, price string, day int) model.Transaction {
	return newTx(model.ActionSell, symbol, qty, price, day)
}

func priced(symbol, price string) model.QuoteResult {
	return model.QuoteFound(model.Quote{Symbol: symbol, LastPrice: decimal.NewNullDecimal(d(price))})
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, d(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func assertDecimalNear(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	diff := d(want).Sub(got).Abs()
	assert.True(t, diff.LessThan(d("0.000000001")), "want ~%s, got %s", want, got.String())
}
