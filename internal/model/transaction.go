package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

func ParseAction(s string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case ActionBuy:
		return ActionBuy, nil
	case ActionSell:
		return ActionSell, nil
	default:
		return "", &InputError{Field: "action", Reason: fmt.Sprintf("unrecognized action %q, must be 'buy' or 'sell'", s)}
	}
}

// Transaction is a single recorded buy or sell of an instrument. It is never
// mutated by the analytics code.
type Transaction struct {
	ID        uuid.UUID
	OwnerID   int64
	Symbol    string
	Action    Action
	Quantity  decimal.Decimal
	Price     decimal.Decimal
	Timestamp time.Time
}

func (t Transaction) Total() decimal.Decimal {
	return t.Quantity.Mul(t.Price)
}

// Validate reports the first malformed field as an *InputError.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Symbol) == "" {
		return &InputError{Field: "symbol", Reason: "missing symbol"}
	}
	if t.Action != ActionBuy && t.Action != ActionSell {
		return &InputError{Field: "action", Reason: "invalid or missing type (must be 'buy' or 'sell')"}
	}
	if !t.Quantity.IsPositive() {
		return &InputError{Field: "quantity", Reason: "quantity must be positive"}
	}
	if !t.Price.IsPositive() {
		return &InputError{Field: "price", Reason: "price must be positive"}
	}
	if t.Timestamp.IsZero() {
		return &InputError{Field: "timestamp", Reason: "missing execution time"}
	}
	return nil
}

// TransactionPatch holds optional field updates, nil means unchanged.
type TransactionPatch struct {
	Action    *Action
	Quantity  *decimal.Decimal
	Price     *decimal.Decimal
	Timestamp *time.Time
}

func (p TransactionPatch) IsEmpty() bool {
	return p.Action == nil && p.Quantity == nil && p.Price == nil && p.Timestamp == nil
}

func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Action != nil {
		t.Action = *p.Action
	}
	if p.Quantity != nil {
		t.Quantity = *p.Quantity
	}
	if p.Price != nil {
		t.Price = *p.Price
	}
	if p.Timestamp != nil {
		t.Timestamp = *p.Timestamp
	}
	return t
}

func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
