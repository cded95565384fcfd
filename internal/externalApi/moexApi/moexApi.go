package moexApi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/KotFed0t/portfolio_analyzer_bot/config"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/externalApi"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/model"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/model/moexModel"
	"github.com/KotFed0t/portfolio_analyzer_bot/utils"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

const securitiesUrl = "/iss/engines/stock/markets/shares/boards/TQBR/securities.json"

type MoexApi struct {
	client *resty.Client
}

func New(cfg *config.Config) *MoexApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.MoexApi.Url)
	return &MoexApi{client: client}
}

func (a *MoexApi) GetQuote(ctx context.Context, symbol string) (model.Quote, error) {
	rqId := utils.GetRequestIDFromCtx(ctx)
	params := map[string]string{
		"iss.meta":           "off",
		"securities.columns": "SECID,SHORTNAME,SECTORID",
		"marketdata.columns": "SECID,LAST,MARKETPRICE,OPEN,LASTTOPREVPRICE,ISSUECAPITALIZATION",
		"securities":         symbol,
	}

	slog.Debug("start MoexApi.GetQuote request", slog.String("rqID", rqId), slog.String("symbol", symbol))

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParams(params).
		Get(securitiesUrl)

	if err != nil {
		slog.Error("error while dialing MoexApi", slog.String("err", err.Error()), slog.String("rqID", rqId))
		return model.Quote{}, err
	}

	if resp.StatusCode() != http.StatusOK {
		return model.Quote{}, fmt.Errorf("%w: moex returned %d", externalApi.ErrBadStatus, resp.StatusCode())
	}

	raw := moexModel.RawSecurities{}
	err = json.Unmarshal(resp.Body(), &raw)
	if err != nil {
		slog.Error("can't unmarshall response into moexModel.RawSecurities", slog.String("err", err.Error()), slog.String("rqID", rqId))
		return model.Quote{}, fmt.Errorf("%w: %w", externalApi.ErrInvalidPayload, err)
	}

	res, err := parseSingleQuote(raw)
	if err != nil {
		if !errors.Is(err, externalApi.ErrNotFound) {
			slog.Error("can't parse raw data", slog.String("err", err.Error()), slog.String("rqID", rqId))
		}
		return model.Quote{}, err
	}

	slog.Debug("MoexApi.GetQuote request complete", slog.String("rqID", rqId))

	return res, nil
}

func parseSingleQuote(raw moexModel.RawSecurities) (model.Quote, error) {
	if len(raw.Marketdata.Data) != len(raw.Securities.Data) {
		return model.Quote{}, fmt.Errorf("%w: lengths Marketdata != Securities", externalApi.ErrInvalidPayload)
	}

	if len(raw.Marketdata.Data) == 0 {
		return model.Quote{}, externalApi.ErrNotFound
	}

	if len(raw.Marketdata.Data) != 1 {
		return model.Quote{}, fmt.Errorf("%w: expected only 1 row, got %d", externalApi.ErrInvalidPayload, len(raw.Marketdata.Data))
	}

	return parseRow(raw.Marketdata.Columns, raw.Marketdata.Data[0], raw.Securities.Columns, raw.Securities.Data[0])
}

func parseRow(mdColumns []string, mdRow []any, secColumns []string, secRow []any) (model.Quote, error) {
	if len(mdRow) != len(mdColumns) {
		return model.Quote{}, fmt.Errorf("%w: invalid Marketdata", externalApi.ErrInvalidPayload)
	}
	if len(secRow) != len(secColumns) {
		return model.Quote{}, fmt.Errorf("%w: invalid Securities", externalApi.ErrInvalidPayload)
	}

	quote := model.Quote{}
	var last, marketPrice decimal.NullDecimal

	for j, column := range mdColumns {
		ok := true
		switch column {
		case "SECID":
			quote.Symbol, ok = mdRow[j].(string)
		case "LAST":
			last, ok = nullDecimal(mdRow[j])
		case "MARKETPRICE":
			marketPrice, ok = nullDecimal(mdRow[j])
		case "OPEN":
			quote.OpenPrice, ok = nullDecimal(mdRow[j])
		case "LASTTOPREVPRICE":
			quote.DayChangePercent, ok = nullDecimal(mdRow[j])
		case "ISSUECAPITALIZATION":
			quote.MarketCap, ok = nullDecimal(mdRow[j])
		default:
			return model.Quote{}, fmt.Errorf("%w: unknown column %s", externalApi.ErrInvalidPayload, column)
		}

		if !ok {
			return model.Quote{}, fmt.Errorf("%w: invalid type %s = %v", externalApi.ErrInvalidPayload, column, mdRow[j])
		}
	}

	// LAST is empty outside trading hours
	quote.LastPrice = last
	if !quote.LastPrice.Valid {
		quote.LastPrice = marketPrice
	}

	for j, column := range secColumns {
		switch column {
		case "SECID":
			if secRow[j] != quote.Symbol {
				return model.Quote{}, fmt.Errorf("%w: secID in securities and market data is not equal %v and %s", externalApi.ErrInvalidPayload, secRow[j], quote.Symbol)
			}
		case "SHORTNAME":
		case "SECTORID":
			if sector, ok := secRow[j].(string); ok {
				quote.Sector = sector
			}
		default:
			return model.Quote{}, fmt.Errorf("%w: unknown column %s", externalApi.ErrInvalidPayload, column)
		}
	}

	return quote, nil
}

// nullDecimal accepts a JSON number or null.
func nullDecimal(v any) (decimal.NullDecimal, bool) {
	if v == nil {
		return decimal.NullDecimal{}, true
	}
	f, ok := v.(float64)
	if !ok {
		return decimal.NullDecimal{}, false
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(f)), true
}
