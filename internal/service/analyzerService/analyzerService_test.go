package analyzerService

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/KotFed0t/portfolio_analyzer_bot/config"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/analytics"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/importer"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/model"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	chatA int64 = 100
	chatB int64 = 200
)

var day0 = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	svc       *AnalyzerService
	repo      *fakeRepo
	cache     *fakeCache
	provider  *fakeProvider
	importer  *fakeImporter
	generator *fakeGenerator
	storage   *fakeStorage
}

func newTestEnv() *testEnv {
	cfg := &config.Config{
		OrdersPerPage: 2,
		MarketCap: config.MarketCap{
			LargeThreshold: 67000,
			MidThreshold:   22000,
			Unit:           1e7,
			SanityBound:    1e15,
		},
	}
	env := &testEnv{
		repo:      newFakeRepo(),
		cache:     newFakeCache(),
		provider:  newFakeProvider(),
		importer:  &fakeImporter{},
		generator: &fakeGenerator{},
		storage:   &fakeStorage{},
	}
	env.svc = New(cfg, env.repo, env.cache, env.provider, env.importer, env.generator, env.storage)
	return env
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func order(action model.Action, symbol, qty, price string, day int) model.Transaction {
	return model.Transaction{
		Symbol:    symbol,
		Action:    action,
		Quantity:  d(qty),
		Price:     d(price),
		Timestamp: day0.AddDate(0, 0, day),
	}
}

func quote(symbol, price, sector, marketCap string) model.Quote {
	q := model.Quote{Symbol: symbol, LastPrice: decimal.NewNullDecimal(d(price)), Sector: sector}
	if marketCap != "" {
		q.MarketCap = decimal.NewNullDecimal(d(marketCap))
	}
	return q
}

func (e *testEnv) add(t *testing.T, chatID int64, tx model.Transaction) model.Transaction {
	t.Helper()
	saved, err := e.svc.AddTransaction(context.Background(), chatID, tx)
	require.NoError(t, err)
	return saved
}

func TestRegUser_Idempotent(t *testing.T) {
	env := newTestEnv()

	require.NoError(t, env.svc.RegUser(context.Background(), chatA))
	require.NoError(t, env.svc.RegUser(context.Background(), chatA))
	assert.Len(t, env.repo.users, 1)
}

func TestAddTransaction(t *testing.T) {
	env := newTestEnv()

	saved := env.add(t, chatA, order(model.ActionBuy, " tcs.ns ", "10", "100", 0))

	assert.NotEqual(t, uuid.Nil, saved.ID)
	assert.Equal(t, "TCS.NS", saved.Symbol)
	assert.Equal(t, env.repo.users[chatA], saved.OwnerID, "chat is registered on first use")
}

func TestAddTransaction_Invalid(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.AddTransaction(context.Background(), chatA, order(model.ActionBuy, "AAA", "0", "100", 0))

	assert.ErrorIs(t, err, service.ErrInvalidInput)
	var inputErr *model.InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "quantity", inputErr.Field)
	assert.Empty(t, env.repo.txs)
}

func TestListTransactions_Paging(t *testing.T) {
	env := newTestEnv()
	for day := 0; day < 3; day++ {
		env.add(t, chatA, order(model.ActionBuy, "AAA", "1", "10", day))
	}

	page1, hasNext, err := env.svc.ListTransactions(context.Background(), chatA, 1)
	require.NoError(t, err)
	assert.True(t, hasNext)
	require.Len(t, page1, 2)
	assert.Equal(t, day0.AddDate(0, 0, 2), page1[0].Timestamp, "newest first")

	page2, hasNext, err := env.svc.ListTransactions(context.Background(), chatA, 2)
	require.NoError(t, err)
	assert.False(t, hasNext)
	require.Len(t, page2, 1)
	assert.Equal(t, day0, page2[0].Timestamp)
}

func TestUpdateTransaction(t *testing.T) {
	env := newTestEnv()
	saved := env.add(t, chatA, order(model.ActionBuy, "AAA", "1", "10", 0))

	qty := d("5")
	updated, err := env.svc.UpdateTransaction(context.Background(), chatA, saved.ID, model.TransactionPatch{Quantity: &qty})
	require.NoError(t, err)

	assert.True(t, updated.Quantity.Equal(qty))
	stored, err := env.repo.GetTransaction(context.Background(), saved.ID)
	require.NoError(t, err)
	assert.True(t, stored.Quantity.Equal(qty))
}

func TestUpdateTransaction_Errors(t *testing.T) {
	env := newTestEnv()
	saved := env.add(t, chatA, order(model.ActionBuy, "AAA", "1", "10", 0))
	negative := d("-1")

	tests := []struct {
		name    string
		chatID  int64
		id      uuid.UUID
		patch   model.TransactionPatch
		wantErr error
	}{
		{"empty patch", chatA, saved.ID, model.TransactionPatch{}, service.ErrInvalidInput},
		{"unknown id", chatA, uuid.New(), model.TransactionPatch{Price: &negative}, service.ErrNotFound},
		{"other owner", chatB, saved.ID, model.TransactionPatch{Price: &negative}, service.ErrForbidden},
		{"invalid result", chatA, saved.ID, model.TransactionPatch{Price: &negative}, service.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.UpdateTransaction(context.Background(), tt.chatID, tt.id, tt.patch)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	stored, err := env.repo.GetTransaction(context.Background(), saved.ID)
	require.NoError(t, err)
	assert.True(t, stored.Price.Equal(d("10")), "failed updates leave the row untouched")
}

func TestDeleteTransaction(t *testing.T) {
	env := newTestEnv()
	saved := env.add(t, chatA, order(model.ActionBuy, "AAA", "1", "10", 0))

	err := env.svc.DeleteTransaction(context.Background(), chatB, saved.ID)
	assert.ErrorIs(t, err, service.ErrForbidden)

	require.NoError(t, env.svc.DeleteTransaction(context.Background(), chatA, saved.ID))

	err = env.svc.DeleteTransaction(context.Background(), chatA, saved.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDeleteAllTransactions_OnlyOwn(t *testing.T) {
	env := newTestEnv()
	env.add(t, chatA, order(model.ActionBuy, "AAA", "1", "10", 0))
	env.add(t, chatA, order(model.ActionBuy, "BBB", "1", "10", 0))
	env.add(t, chatB, order(model.ActionBuy, "CCC", "1", "10", 0))

	deleted, err := env.svc.DeleteAllTransactions(context.Background(), chatA)
	require.NoError(t, err)

	assert.Equal(t, int64(2), deleted)
	require.Len(t, env.repo.txs, 1)
	assert.Equal(t, "CCC", env.repo.txs[0].tx.Symbol)
}

func TestImportTransactions(t *testing.T) {
	env := newTestEnv()
	env.importer.txs = []model.Transaction{
		{ID: uuid.New(), Symbol: "AAA.NS", Action: model.ActionBuy, Quantity: d("1"), Price: d("10"), Timestamp: day0},
		{ID: uuid.New(), Symbol: "BBB.NS", Action: model.ActionBuy, Quantity: d("2"), Price: d("20"), Timestamp: day0},
	}
	env.importer.result = model.ImportResult{Processed: 3, Imported: 2, Skipped: 1, Errors: []model.RowError{{Row: 3, Error: "invalid quantity"}}}

	result, err := env.svc.ImportTransactions(context.Background(), chatA, "trades.csv", strings.NewReader(""))
	require.NoError(t, err)

	assert.Equal(t, env.importer.result, result)
	require.Len(t, env.repo.txs, 2)
	assert.Equal(t, env.repo.users[chatA], env.repo.txs[0].tx.OwnerID)
}

func TestImportTransactions_ParseError(t *testing.T) {
	env := newTestEnv()
	env.importer.err = importer.ErrHeaderNotFound

	_, err := env.svc.ImportTransactions(context.Background(), chatA, "trades.csv", strings.NewReader(""))

	assert.ErrorIs(t, err, service.ErrInvalidInput)
	assert.ErrorIs(t, err, importer.ErrHeaderNotFound)
}

func TestImportTransactions_InsertFailureStoresNothing(t *testing.T) {
	env := newTestEnv()
	env.importer.txs = []model.Transaction{
		{ID: uuid.New(), Symbol: "AAA.NS", Action: model.ActionBuy, Quantity: d("1"), Price: d("10"), Timestamp: day0},
	}
	env.repo.failOn = "insert"

	_, err := env.svc.ImportTransactions(context.Background(), chatA, "trades.csv", strings.NewReader(""))

	assert.Error(t, err)
	assert.Empty(t, env.repo.txs)
}

func TestGetAnalysis(t *testing.T) {
	env := newTestEnv()
	env.add(t, chatA, order(model.ActionBuy, "AAA", "10", "10", 0))
	env.add(t, chatA, order(model.ActionSell, "AAA", "4", "15", 1))
	env.add(t, chatA, order(model.ActionBuy, "BBB", "1", "50", 2))
	env.add(t, chatA, order(model.ActionBuy, "CCC", "2", "5", 3))
	env.provider.quotes["AAA"] = quote("AAA", "12", "", "")
	env.provider.errs["BBB"] = errors.New("timeout")

	analysis, err := env.svc.GetAnalysis(context.Background(), chatA)
	require.NoError(t, err)

	v := analysis.Valuation
	require.Len(t, v.Holdings, 3)
	assert.Equal(t, model.QuoteOK, v.Holdings[0].QuoteStatus)
	assert.Equal(t, model.QuoteFailed, v.Holdings[1].QuoteStatus)
	assert.Equal(t, model.QuoteUnavailable, v.Holdings[2].QuoteStatus)
	assert.True(t, v.RealizedProfit.Equal(d("20")))
	assert.True(t, v.TotalCurrentValue.Equal(d("72")))
	assert.True(t, v.TotalInvestment.Equal(d("120")))
	assert.True(t, v.TotalProfitLoss.Equal(d("-28")))
	assert.Len(t, analysis.Orders, 4)

	_, cached := env.cache.quotes["AAA"]
	assert.True(t, cached, "fetched quote is cached")
}

func TestGetAnalysis_UsesCache(t *testing.T) {
	env := newTestEnv()
	env.add(t, chatA, order(model.ActionBuy, "AAA", "1", "10", 0))
	env.cache.quotes["AAA"] = quote("AAA", "11", "", "")

	analysis, err := env.svc.GetAnalysis(context.Background(), chatA)
	require.NoError(t, err)

	assert.True(t, analysis.Valuation.TotalCurrentValue.Equal(d("11")))
	assert.Zero(t, env.provider.calls["AAA"])
}

func TestGetAnalysis_ClosedPositionsNotQuoted(t *testing.T) {
	env := newTestEnv()
	env.add(t, chatA, order(model.ActionBuy, "AAA", "1", "10", 0))
	env.add(t, chatA, order(model.ActionSell, "AAA", "1", "12", 1))

	analysis, err := env.svc.GetAnalysis(context.Background(), chatA)
	require.NoError(t, err)

	assert.Empty(t, analysis.Valuation.Holdings)
	assert.True(t, analysis.Valuation.RealizedProfit.Equal(d("2")))
	assert.Zero(t, env.provider.calls["AAA"])
}

func TestGetComposition(t *testing.T) {
	env := newTestEnv()
	env.add(t, chatA, order(model.ActionBuy, "AAA", "1", "10", 0))
	env.add(t, chatA, order(model.ActionBuy, "BBB", "1", "10", 0))
	env.provider.quotes["AAA"] = quote("AAA", "30", "Tech", "800000000000000")
	env.provider.quotes["BBB"] = quote("BBB", "10", "", "1000000000")

	composition, err := env.svc.GetComposition(context.Background(), chatA)
	require.NoError(t, err)

	assert.True(t, composition.TotalPortfolioValue.Equal(d("40")))
	assert.True(t, composition.SectorAllocation["Tech"].Percentage.Equal(d("75")))
	assert.True(t, composition.SectorAllocation["Others"].Percentage.Equal(d("25")))
	assert.Contains(t, composition.MarketCapAllocation, analytics.LargeCap)
}

func TestGetPerformance(t *testing.T) {
	env := newTestEnv()
	env.add(t, chatA, order(model.ActionBuy, "AAA", "1", "10", 0))
	env.add(t, chatA, order(model.ActionBuy, "BBB", "1", "10", 0))
	env.provider.quotes["AAA"] = quote("AAA", "15", "", "")
	env.provider.quotes["BBB"] = quote("BBB", "5", "", "")

	performance, err := env.svc.GetPerformance(context.Background(), chatA)
	require.NoError(t, err)

	require.Len(t, performance.TopGainers, 1)
	assert.Equal(t, "AAA", performance.TopGainers[0].Symbol)
	require.Len(t, performance.TopLosers, 1)
	assert.Equal(t, "BBB", performance.TopLosers[0].Symbol)
}

func TestGetBehavior(t *testing.T) {
	env := newTestEnv()
	env.add(t, chatA, order(model.ActionBuy, "AAA", "1", "10", 0))
	env.add(t, chatA, order(model.ActionSell, "AAA", "1", "12", 10))

	behavior, err := env.svc.GetBehavior(context.Background(), chatA)
	require.NoError(t, err)

	assert.Equal(t, 1, behavior.TotalTrades)
	assert.True(t, behavior.AverageHoldingTime.Equal(d("10")))
	assert.True(t, behavior.WinRate.Equal(d("100")))
}

func TestExportReport(t *testing.T) {
	env := newTestEnv()
	env.add(t, chatA, order(model.ActionBuy, "AAA", "1", "10", 0))
	env.provider.quotes["AAA"] = quote("AAA", "11", "", "")

	link, err := env.svc.ExportReport(context.Background(), chatA)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(env.storage.filename, "portfolio_100_"))
	assert.True(t, strings.HasSuffix(env.storage.filename, ".xlsx"))
	assert.Equal(t, "https://example.com/"+env.storage.filename, link)
	assert.Equal(t, []byte("report"), env.storage.content)
	assert.Len(t, env.generator.report.Orders, 1)
}

func TestExportReport_Empty(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.ExportReport(context.Background(), chatA)
	assert.ErrorIs(t, err, service.ErrEmptyPortfolio)
}

func TestViews_LogStartAndFinish(t *testing.T) {
	buf := &bytes.Buffer{}
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	env := newTestEnv()
	env.add(t, chatA, order(model.ActionBuy, "AAA", "1", "10", 0))
	env.provider.quotes["AAA"] = quote("AAA", "11", "", "")

	_, err := env.svc.GetComposition(context.Background(), chatA)
	require.NoError(t, err)
	_, err = env.svc.GetPerformance(context.Background(), chatA)
	require.NoError(t, err)
	_, err = env.svc.GetBehavior(context.Background(), chatA)
	require.NoError(t, err)

	logs := buf.String()
	for _, op := range []string{"GetComposition", "GetPerformance", "GetBehavior"} {
		assert.Contains(t, logs, op+" start")
		assert.Contains(t, logs, op+" finished")
	}
}

func TestWarmQuoteCache(t *testing.T) {
	env := newTestEnv()
	env.add(t, chatA, order(model.ActionBuy, "AAA", "1", "10", 0))
	env.add(t, chatB, order(model.ActionBuy, "BBB", "1", "10", 0))
	env.add(t, chatB, order(model.ActionBuy, "CCC", "1", "10", 0))
	env.add(t, chatB, order(model.ActionSell, "CCC", "1", "10", 1))
	env.provider.quotes["AAA"] = quote("AAA", "11", "", "")
	env.provider.errs["BBB"] = errors.New("timeout")

	require.NoError(t, env.svc.WarmQuoteCache(context.Background()))

	assert.Contains(t, env.cache.quotes, "AAA")
	assert.NotContains(t, env.cache.quotes, "BBB")
	assert.Zero(t, env.provider.calls["CCC"], "closed positions are not refreshed")
}

func TestWarmQuoteCache_OversoldThenRebought(t *testing.T) {
	env := newTestEnv()
	env.add(t, chatA, order(model.ActionBuy, "AAA", "5", "10", 0))
	env.add(t, chatA, order(model.ActionSell, "AAA", "8", "12", 1))
	env.add(t, chatA, order(model.ActionBuy, "AAA", "3", "11", 2))
	env.provider.quotes["AAA"] = quote("AAA", "11", "", "")

	require.NoError(t, env.svc.WarmQuoteCache(context.Background()))

	assert.Contains(t, env.cache.quotes, "AAA", "excess sell is dropped, so 3 shares are still held")
	assert.Equal(t, 1, env.provider.calls["AAA"])
}

func TestDeleteOldReports(t *testing.T) {
	env := newTestEnv()

	require.NoError(t, env.svc.DeleteOldReports(context.Background()))
	assert.True(t, env.storage.cleaned)
}
