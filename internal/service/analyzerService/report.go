package analyzerService

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/KotFed0t/portfolio_analyzer_bot/internal/analytics"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/service"
	"github.com/KotFed0t/portfolio_analyzer_bot/utils"
)

// ExportReport builds the full report, uploads it and returns a download link.
func (s *AnalyzerService) ExportReport(ctx context.Context, chatID int64) (downloadLink string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "AnalyzerService.ExportReport"

	slog.Debug("ExportReport start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	defer func() {
		slog.Debug("ExportReport finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	txs, err := s.transactions(ctx, chatID)
	if err != nil {
		return "", err
	}
	if len(txs) == 0 {
		return "", service.ErrEmptyPortfolio
	}

	report := analytics.BuildReport(txs, s.fetchQuotes(ctx, openSymbols(txs)), s.thresholds)

	fileBytes, ext, err := s.reportGenerator.Generate(ctx, report)
	if err != nil {
		slog.Error("got error from reportGenerator.Generate", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return "", err
	}

	filename := fmt.Sprintf("portfolio_%d_%s%s", chatID, time.Now().UTC().Format("20060102_150405"), ext)

	downloadLink, err = s.cloudStorage.UploadFile(ctx, bytes.NewReader(fileBytes), filename)
	if err != nil {
		slog.Error("got error from cloudStorage.UploadFile", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return "", err
	}

	return downloadLink, nil
}
