package telebotConverter

import (
	"fmt"
	"strings"
	"time"

	"github.com/KotFed0t/portfolio_analyzer_bot/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const OrderUsage = "BUY|SELL SYMBOL QTY PRICE [YYYY-MM-DD]"

const EditUsage = "/edit_order <id> [type=buy|sell] [qty=N] [price=N] [date=YYYY-MM-DD]"

// ParseOrder reads an order typed by the user. A missing date means now.
func ParseOrder(args []string, now time.Time) (model.Transaction, error) {
	if len(args) < 4 || len(args) > 5 {
		return model.Transaction{}, &model.InputError{Field: "order", Reason: "expected " + OrderUsage}
	}

	action, err := model.ParseAction(args[0])
	if err != nil {
		return model.Transaction{}, err
	}

	quantity, err := parseDecimal("quantity", args[2])
	if err != nil {
		return model.Transaction{}, err
	}

	price, err := parseDecimal("price", args[3])
	if err != nil {
		return model.Transaction{}, err
	}

	executedAt := now
	if len(args) == 5 {
		executedAt, err = parseDate(args[4])
		if err != nil {
			return model.Transaction{}, err
		}
	}

	return model.Transaction{
		Symbol:    model.NormalizeSymbol(args[1]),
		Action:    action,
		Quantity:  quantity,
		Price:     price,
		Timestamp: executedAt,
	}, nil
}

// ParseEdit reads "<id> field=value..." arguments of the edit command.
func ParseEdit(args []string) (uuid.UUID, model.TransactionPatch, error) {
	patch := model.TransactionPatch{}

	if len(args) < 2 {
		return uuid.Nil, patch, &model.InputError{Field: "edit", Reason: "expected " + EditUsage}
	}

	id, err := uuid.Parse(args[0])
	if err != nil {
		return uuid.Nil, patch, &model.InputError{Field: "id", Reason: "not a valid order id"}
	}

	for _, arg := range args[1:] {
		field, value, ok := strings.Cut(arg, "=")
		if !ok {
			return uuid.Nil, patch, &model.InputError{Field: arg, Reason: "expected field=value"}
		}

		switch strings.ToLower(field) {
		case "type", "action":
			action, err := model.ParseAction(value)
			if err != nil {
				return uuid.Nil, patch, err
			}
			patch.Action = &action
		case "qty", "quantity":
			quantity, err := parseDecimal("quantity", value)
			if err != nil {
				return uuid.Nil, patch, err
			}
			patch.Quantity = &quantity
		case "price":
			price, err := parseDecimal("price", value)
			if err != nil {
				return uuid.Nil, patch, err
			}
			patch.Price = &price
		case "date":
			date, err := parseDate(value)
			if err != nil {
				return uuid.Nil, patch, err
			}
			patch.Timestamp = &date
		default:
			return uuid.Nil, patch, &model.InputError{Field: field, Reason: "unknown field"}
		}
	}

	return id, patch, nil
}

func parseDecimal(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return decimal.Zero, &model.InputError{Field: field, Reason: fmt.Sprintf("%q is not a number", s)}
	}
	return d, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, &model.InputError{Field: "date", Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", s)}
	}
	return t, nil
}
