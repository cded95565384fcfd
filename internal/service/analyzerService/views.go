package analyzerService

import (
	"context"
	"log/slog"

	"github.com/KotFed0t/portfolio_analyzer_bot/internal/analytics"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/model"
	"github.com/KotFed0t/portfolio_analyzer_bot/utils"
)

// Analysis is the valuation of current holdings plus the whole order history.
type Analysis struct {
	Valuation analytics.Valuation
	Orders    []model.Transaction
}

func (s *AnalyzerService) GetAnalysis(ctx context.Context, chatID int64) (Analysis, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "AnalyzerService.GetAnalysis"

	slog.Debug("GetAnalysis start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	defer func() {
		slog.Debug("GetAnalysis finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	txs, err := s.transactions(ctx, chatID)
	if err != nil {
		return Analysis{}, err
	}

	ledger := analytics.BuildLedger(txs)
	quotes := s.fetchQuotes(ctx, openSymbols(txs))

	return Analysis{
		Valuation: analytics.Valuate(ledger, quotes),
		Orders:    analytics.SortTransactions(txs),
	}, nil
}

func (s *AnalyzerService) GetComposition(ctx context.Context, chatID int64) (analytics.Composition, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "AnalyzerService.GetComposition"

	slog.Debug("GetComposition start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	defer func() {
		slog.Debug("GetComposition finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	txs, err := s.transactions(ctx, chatID)
	if err != nil {
		return analytics.Composition{}, err
	}

	quotes := s.fetchQuotes(ctx, openSymbols(txs))

	return analytics.Classify(analytics.BuildLedger(txs), quotes, s.thresholds), nil
}

func (s *AnalyzerService) GetPerformance(ctx context.Context, chatID int64) (analytics.Performance, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "AnalyzerService.GetPerformance"

	slog.Debug("GetPerformance start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	defer func() {
		slog.Debug("GetPerformance finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	txs, err := s.transactions(ctx, chatID)
	if err != nil {
		return analytics.Performance{}, err
	}

	quotes := s.fetchQuotes(ctx, openSymbols(txs))

	return analytics.RankPerformance(analytics.BuildLedger(txs), quotes), nil
}

func (s *AnalyzerService) GetBehavior(ctx context.Context, chatID int64) (analytics.Behavior, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "AnalyzerService.GetBehavior"

	slog.Debug("GetBehavior start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	defer func() {
		slog.Debug("GetBehavior finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	txs, err := s.transactions(ctx, chatID)
	if err != nil {
		return analytics.Behavior{}, err
	}

	return analytics.AnalyzeBehavior(txs), nil
}
