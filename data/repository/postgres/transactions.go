package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/KotFed0t/portfolio_analyzer_bot/data/repository"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/converter/dbConverter"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/model"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/model/dbModel"
	"github.com/KotFed0t/portfolio_analyzer_bot/utils"
	"github.com/google/uuid"
)

const transactionColumns = `transaction_id, user_id, symbol, action, quantity, price, executed_at`

const transactionInsertArgs = 7

func (r *Postgres) InsertTransaction(ctx context.Context, tx model.Transaction) (err error) {
	return r.InsertTransactions(ctx, []model.Transaction{tx})
}

// InsertTransactions writes all rows with a single statement, so their seq
// follows the slice order.
func (r *Postgres) InsertTransactions(ctx context.Context, txs []model.Transaction) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	if len(txs) == 0 {
		return nil
	}

	slog.Debug("InsertTransactions start", slog.String("rqID", rqID), slog.Int("count", len(txs)))
	defer func() {
		if err != nil {
			slog.Error("InsertTransactions failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertTransactions completed", slog.String("rqID", rqID))
		}
	}()

	sb := strings.Builder{}
	args := make([]any, 0, len(txs)*transactionInsertArgs)

	sb.WriteString(`INSERT INTO transactions (` + transactionColumns + `) VALUES `)

	for i, tx := range txs {
		row := dbConverter.ConvertTransactionToDB(tx)
		args = append(args, row.TransactionID, row.UserID, row.Symbol, row.Action, row.Quantity, row.Price, row.ExecutedAt)

		start := i*transactionInsertArgs + 1
		sb.WriteString(fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			start, start+1, start+2, start+3, start+4, start+5, start+6,
		))

		if i < len(txs)-1 {
			sb.WriteString(",")
		}
	}

	_, err = r.txOrDb(ctx).ExecContext(ctx, sb.String(), args...)
	return err
}

func (r *Postgres) GetTransaction(ctx context.Context, transactionID uuid.UUID) (tx model.Transaction, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1`

	slog.Debug("GetTransaction start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			slog.Error("GetTransaction failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetTransaction completed", slog.String("rqID", rqID))
		}
	}()

	row := dbModel.Transaction{}
	err = r.txOrDb(ctx).GetContext(ctx, &row, query, transactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Transaction{}, repository.ErrNotFound
		}
		return model.Transaction{}, err
	}

	return dbConverter.ConvertTransaction(row), nil
}

func (r *Postgres) listTransactions(ctx context.Context, query string, args ...any) (txs []model.Transaction, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	slog.Debug("listTransactions start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("listTransactions failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("listTransactions completed", slog.String("rqID", rqID), slog.Int("count", len(txs)))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs = make([]model.Transaction, 0)
	for rows.Next() {
		var row dbModel.Transaction
		if err = rows.StructScan(&row); err != nil {
			return nil, err
		}
		txs = append(txs, dbConverter.ConvertTransaction(row))
	}

	return txs, rows.Err()
}

// ListTransactions returns the owner's whole log ordered by execution time,
// ties in insertion order.
func (r *Postgres) ListTransactions(ctx context.Context, userID int64) ([]model.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1
		ORDER BY executed_at, seq
		`

	return r.listTransactions(ctx, query, userID)
}

func (r *Postgres) ListTransactionsPage(ctx context.Context, userID int64, limit, offset int) ([]model.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1
		ORDER BY executed_at DESC, seq DESC
		LIMIT $2 OFFSET $3
		`

	return r.listTransactions(ctx, query, userID, limit, offset)
}

func (r *Postgres) UpdateTransaction(ctx context.Context, tx model.Transaction) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `
		UPDATE transactions
		SET
			action = $2,
			quantity = $3,
			price = $4,
			executed_at = $5
		WHERE transaction_id = $1
		`

	slog.Debug("UpdateTransaction start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			slog.Error("UpdateTransaction failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpdateTransaction completed", slog.String("rqID", rqID))
		}
	}()

	row := dbConverter.ConvertTransactionToDB(tx)
	res, err := r.txOrDb(ctx).ExecContext(ctx, query, row.TransactionID, row.Action, row.Quantity, row.Price, row.ExecutedAt)
	if err != nil {
		return err
	}

	return checkAffected(res)
}

func (r *Postgres) DeleteTransaction(ctx context.Context, transactionID uuid.UUID) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `DELETE FROM transactions WHERE transaction_id = $1`

	slog.Debug("DeleteTransaction start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			slog.Error("DeleteTransaction failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("DeleteTransaction completed", slog.String("rqID", rqID))
		}
	}()

	res, err := r.txOrDb(ctx).ExecContext(ctx, query, transactionID)
	if err != nil {
		return err
	}

	return checkAffected(res)
}

func (r *Postgres) DeleteAllTransactions(ctx context.Context, userID int64) (deleted int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `DELETE FROM transactions WHERE user_id = $1`

	slog.Debug("DeleteAllTransactions start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("DeleteAllTransactions failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("DeleteAllTransactions completed", slog.String("rqID", rqID), slog.Int64("deleted", deleted))
		}
	}()

	res, err := r.txOrDb(ctx).ExecContext(ctx, query, userID)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

// ListOwnerIDs returns every user that has at least one transaction.
func (r *Postgres) ListOwnerIDs(ctx context.Context) (userIDs []int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `SELECT DISTINCT user_id FROM transactions ORDER BY user_id`

	slog.Debug("ListOwnerIDs start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("ListOwnerIDs failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("ListOwnerIDs completed", slog.String("rqID", rqID), slog.Int("count", len(userIDs)))
		}
	}()

	userIDs = make([]int64, 0)
	err = r.txOrDb(ctx).SelectContext(ctx, &userIDs, query)
	if err != nil {
		return nil, err
	}

	return userIDs, nil
}

func checkAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
