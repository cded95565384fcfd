package dbConverter

import (
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/model"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/model/dbModel"
)

func ConvertTransaction(dbTx dbModel.Transaction) model.Transaction {
	return model.Transaction{
		ID:        dbTx.TransactionID,
		OwnerID:   dbTx.UserID,
		Symbol:    dbTx.Symbol,
		Action:    model.Action(dbTx.Action),
		Quantity:  dbTx.Quantity,
		Price:     dbTx.Price,
		Timestamp: dbTx.ExecutedAt,
	}
}

func ConvertTransactionToDB(tx model.Transaction) dbModel.Transaction {
	return dbModel.Transaction{
		TransactionID: tx.ID,
		UserID:        tx.OwnerID,
		Symbol:        tx.Symbol,
		Action:        string(tx.Action),
		Quantity:      tx.Quantity,
		Price:         tx.Price,
		ExecutedAt:    tx.Timestamp,
	}
}
