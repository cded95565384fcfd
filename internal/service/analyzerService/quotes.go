package analyzerService

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/KotFed0t/portfolio_analyzer_bot/data/cache"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/analytics"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/externalApi"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/model"
	"github.com/KotFed0t/portfolio_analyzer_bot/utils"
	"golang.org/x/sync/errgroup"
)

const maxParallelQuotes = 8

// fetchQuotes looks every symbol up once. A failure for one symbol is kept in
// its result and never affects the others.
func (s *AnalyzerService) fetchQuotes(ctx context.Context, symbols []string) analytics.Quotes {
	quotes := make(analytics.Quotes, len(symbols))
	mu := sync.Mutex{}

	g := errgroup.Group{}
	g.SetLimit(maxParallelQuotes)

	seen := make(map[string]struct{}, len(symbols))
	for _, symbol := range symbols {
		if _, ok := seen[symbol]; ok {
			continue
		}
		seen[symbol] = struct{}{}

		g.Go(func() error {
			res := s.fetchQuote(ctx, symbol)
			mu.Lock()
			quotes[symbol] = res
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()

	return quotes
}

func (s *AnalyzerService) fetchQuote(ctx context.Context, symbol string) model.QuoteResult {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "AnalyzerService.fetchQuote"

	quote, err := s.cache.GetQuote(ctx, symbol)
	if err == nil {
		return model.QuoteFound(quote)
	}
	if !errors.Is(err, cache.ErrNotFound) {
		slog.Warn("can't get quote from cache", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol), slog.String("err", err.Error()))
	}

	quote, err = s.quoteProvider.GetQuote(ctx, symbol)
	if err != nil {
		if errors.Is(err, externalApi.ErrNotFound) {
			slog.Warn("quote not found", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))
			return model.QuoteNotFound()
		}
		slog.Warn("can't get quote from provider", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol), slog.String("err", err.Error()))
		return model.QuoteError(err)
	}
	quote.Symbol = symbol

	if err = s.cache.SetQuote(ctx, quote); err != nil {
		slog.Warn("can't save quote to cache", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	return model.QuoteFound(quote)
}

// openSymbols returns the symbols that need a quote for the given log.
func openSymbols(txs []model.Transaction) []string {
	ledger := analytics.BuildLedger(txs)
	symbols := make([]string, 0, len(ledger.Symbols))
	for _, h := range ledger.OpenHoldings() {
		symbols = append(symbols, h.Symbol)
	}
	return symbols
}
