package dbModel

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Transaction struct {
	TransactionID uuid.UUID       `db:"transaction_id"`
	UserID        int64           `db:"user_id"`
	Symbol        string          `db:"symbol"`
	Action        string          `db:"action"`
	Quantity      decimal.Decimal `db:"quantity"`
	Price         decimal.Decimal `db:"price"`
	ExecutedAt    time.Time       `db:"executed_at"`
}
