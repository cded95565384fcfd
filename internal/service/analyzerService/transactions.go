package analyzerService

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/KotFed0t/portfolio_analyzer_bot/data/repository"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/model"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/service"
	"github.com/KotFed0t/portfolio_analyzer_bot/utils"
	"github.com/google/uuid"
)

func (s *AnalyzerService) AddTransaction(ctx context.Context, chatID int64, tx model.Transaction) (model.Transaction, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "AnalyzerService.AddTransaction"

	slog.Debug("AddTransaction start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	defer func() {
		slog.Debug("AddTransaction finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	}()

	tx.Symbol = model.NormalizeSymbol(tx.Symbol)
	if err := tx.Validate(); err != nil {
		return model.Transaction{}, invalidInput(err)
	}

	userID, err := s.userID(ctx, chatID)
	if err != nil {
		slog.Error("got error while resolving user", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.Transaction{}, err
	}

	tx.ID = uuid.New()
	tx.OwnerID = userID

	if err = s.repo.InsertTransaction(ctx, tx); err != nil {
		slog.Error("got error from repo.InsertTransaction", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.Transaction{}, err
	}

	return tx, nil
}

// ListTransactions returns a page of the log, newest first. Pages start at 1.
func (s *AnalyzerService) ListTransactions(ctx context.Context, chatID int64, page int) (txs []model.Transaction, hasNext bool, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "AnalyzerService.ListTransactions"

	slog.Debug("ListTransactions start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("page", page))

	if page < 1 {
		page = 1
	}

	userID, err := s.userID(ctx, chatID)
	if err != nil {
		return nil, false, err
	}

	limit := s.cfg.OrdersPerPage
	// one extra row tells whether a next page exists
	txs, err = s.repo.ListTransactionsPage(ctx, userID, limit+1, (page-1)*limit)
	if err != nil {
		slog.Error("got error from repo.ListTransactionsPage", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, false, err
	}

	if len(txs) > limit {
		return txs[:limit], true, nil
	}

	return txs, false, nil
}

// ownedTransaction loads a transaction and checks that it belongs to the chat.
func (s *AnalyzerService) ownedTransaction(ctx context.Context, chatID int64, transactionID uuid.UUID) (model.Transaction, error) {
	userID, err := s.userID(ctx, chatID)
	if err != nil {
		return model.Transaction{}, err
	}

	tx, err := s.repo.GetTransaction(ctx, transactionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Transaction{}, service.ErrNotFound
		}
		return model.Transaction{}, err
	}

	if tx.OwnerID != userID {
		return model.Transaction{}, service.ErrForbidden
	}

	return tx, nil
}

func (s *AnalyzerService) UpdateTransaction(ctx context.Context, chatID int64, transactionID uuid.UUID, patch model.TransactionPatch) (model.Transaction, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "AnalyzerService.UpdateTransaction"

	slog.Debug("UpdateTransaction start", slog.String("rqID", rqID), slog.String("op", op), slog.String("transactionID", transactionID.String()))
	defer func() {
		slog.Debug("UpdateTransaction finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	if patch.IsEmpty() {
		return model.Transaction{}, invalidInput(&model.InputError{Field: "patch", Reason: "nothing to update"})
	}

	var updated model.Transaction
	err := s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		tx, err := s.ownedTransaction(ctx, chatID, transactionID)
		if err != nil {
			return err
		}

		updated = patch.Apply(tx)
		if err = updated.Validate(); err != nil {
			return invalidInput(err)
		}

		err = s.repo.UpdateTransaction(ctx, updated)
		if errors.Is(err, repository.ErrNotFound) {
			return service.ErrNotFound
		}
		return err
	})
	if err != nil {
		slog.Warn("UpdateTransaction failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.Transaction{}, err
	}

	return updated, nil
}

func (s *AnalyzerService) DeleteTransaction(ctx context.Context, chatID int64, transactionID uuid.UUID) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "AnalyzerService.DeleteTransaction"

	slog.Debug("DeleteTransaction start", slog.String("rqID", rqID), slog.String("op", op), slog.String("transactionID", transactionID.String()))

	err := s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.ownedTransaction(ctx, chatID, transactionID); err != nil {
			return err
		}

		err := s.repo.DeleteTransaction(ctx, transactionID)
		if errors.Is(err, repository.ErrNotFound) {
			return service.ErrNotFound
		}
		return err
	})
	if err != nil {
		slog.Warn("DeleteTransaction failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	return nil
}

func (s *AnalyzerService) DeleteAllTransactions(ctx context.Context, chatID int64) (int64, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "AnalyzerService.DeleteAllTransactions"

	userID, err := s.userID(ctx, chatID)
	if err != nil {
		return 0, err
	}

	deleted, err := s.repo.DeleteAllTransactions(ctx, userID)
	if err != nil {
		slog.Error("got error from repo.DeleteAllTransactions", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return 0, err
	}

	slog.Info("transactions deleted", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("deleted", deleted))

	return deleted, nil
}

// ImportTransactions parses a broker export and stores all valid rows at once.
func (s *AnalyzerService) ImportTransactions(ctx context.Context, chatID int64, filename string, r io.Reader) (model.ImportResult, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "AnalyzerService.ImportTransactions"

	slog.Debug("ImportTransactions start", slog.String("rqID", rqID), slog.String("op", op), slog.String("filename", filename))

	userID, err := s.userID(ctx, chatID)
	if err != nil {
		return model.ImportResult{}, err
	}

	txs, result, err := s.importer.Parse(ctx, filename, r, userID)
	if err != nil {
		slog.Warn("can't parse import file", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.ImportResult{}, invalidInput(err)
	}

	err = s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.repo.InsertTransactions(ctx, txs)
	})
	if err != nil {
		slog.Error("got error while inserting imported transactions", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.ImportResult{}, err
	}

	slog.Info(
		"import done",
		slog.String("rqID", rqID),
		slog.String("op", op),
		slog.Int("imported", result.Imported),
		slog.Int("skipped", result.Skipped),
	)

	return result, nil
}
