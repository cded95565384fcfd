package analyzerService

import (
	"context"
	"log/slog"
	"slices"

	"github.com/KotFed0t/portfolio_analyzer_bot/internal/model"
	"github.com/KotFed0t/portfolio_analyzer_bot/utils"
)

// WarmQuoteCache refreshes cached quotes for every symbol someone still holds.
// Symbols the provider fails on are skipped.
func (s *AnalyzerService) WarmQuoteCache(ctx context.Context) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "AnalyzerService.WarmQuoteCache"

	symbols, err := s.heldSymbols(ctx)
	if err != nil {
		return err
	}

	quotes := make([]model.Quote, 0, len(symbols))
	for _, symbol := range symbols {
		if err = ctx.Err(); err != nil {
			return err
		}

		quote, err := s.quoteProvider.GetQuote(ctx, symbol)
		if err != nil {
			slog.Warn("can't refresh quote", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol), slog.String("err", err.Error()))
			continue
		}
		quote.Symbol = symbol
		quotes = append(quotes, quote)
	}

	if err = s.cache.SetQuotes(ctx, quotes); err != nil {
		return err
	}

	slog.Info("quote cache warmed", slog.String("rqID", rqID), slog.String("op", op), slog.Int("symbols", len(symbols)), slog.Int("refreshed", len(quotes)))

	return nil
}

// heldSymbols runs every owner's log through the ledger, so oversold
// positions count the same way the views count them.
func (s *AnalyzerService) heldSymbols(ctx context.Context) ([]string, error) {
	userIDs, err := s.repo.ListOwnerIDs(ctx)
	if err != nil {
		return nil, err
	}

	held := make(map[string]struct{})
	for _, userID := range userIDs {
		txs, err := s.repo.ListTransactions(ctx, userID)
		if err != nil {
			return nil, err
		}
		for _, symbol := range openSymbols(txs) {
			held[symbol] = struct{}{}
		}
	}

	symbols := make([]string, 0, len(held))
	for symbol := range held {
		symbols = append(symbols, symbol)
	}
	slices.Sort(symbols)

	return symbols, nil
}

func (s *AnalyzerService) DeleteOldReports(ctx context.Context) error {
	return s.cloudStorage.DeleteOldFiles(ctx)
}
