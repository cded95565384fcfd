package yahooApi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/KotFed0t/portfolio_analyzer_bot/config"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/externalApi"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/model"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/model/yahooModel"
	"github.com/KotFed0t/portfolio_analyzer_bot/utils"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

const quoteFields = "symbol,regularMarketPrice,regularMarketOpen,regularMarketChangePercent,marketCap,sector"

type YahooApi struct {
	client *resty.Client
}

func New(cfg *config.Config) *YahooApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.YahooApi.Url).
		SetHeader("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	return &YahooApi{client: client}
}

func (a *YahooApi) GetQuote(ctx context.Context, symbol string) (model.Quote, error) {
	rqId := utils.GetRequestIDFromCtx(ctx)

	slog.Debug("start YahooApi.GetQuote request", slog.String("rqID", rqId), slog.String("symbol", symbol))

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParams(map[string]string{
			"symbols": symbol,
			"fields":  quoteFields,
		}).
		Get("/v7/finance/quote")

	if err != nil {
		slog.Error("error while dialing YahooApi", slog.String("err", err.Error()), slog.String("rqID", rqId))
		return model.Quote{}, err
	}

	if resp.StatusCode() == http.StatusNotFound {
		return model.Quote{}, externalApi.ErrNotFound
	}
	if resp.StatusCode() != http.StatusOK {
		return model.Quote{}, fmt.Errorf("%w: yahoo returned %d", externalApi.ErrBadStatus, resp.StatusCode())
	}

	raw := yahooModel.QuoteResponse{}
	err = json.Unmarshal(resp.Body(), &raw)
	if err != nil {
		slog.Error("can't unmarshall response into yahooModel.QuoteResponse", slog.String("err", err.Error()), slog.String("rqID", rqId))
		return model.Quote{}, fmt.Errorf("%w: %w", externalApi.ErrInvalidPayload, err)
	}

	if raw.QuoteResponse.Error != nil {
		return model.Quote{}, fmt.Errorf("%w: %s", externalApi.ErrBadStatus, raw.QuoteResponse.Error.Description)
	}

	for _, q := range raw.QuoteResponse.Result {
		if q.Symbol == symbol {
			slog.Debug("YahooApi.GetQuote request complete", slog.String("rqID", rqId))
			return convertQuote(q), nil
		}
	}

	return model.Quote{}, externalApi.ErrNotFound
}

func convertQuote(q yahooModel.Quote) model.Quote {
	quote := model.Quote{
		Symbol:           q.Symbol,
		LastPrice:        nullDecimal(q.RegularMarketPrice),
		OpenPrice:        nullDecimal(q.RegularMarketOpen),
		DayChangePercent: nullDecimal(q.RegularMarketChangePercent),
		MarketCap:        nullDecimal(q.MarketCap),
	}
	if q.Sector != nil {
		quote.Sector = *q.Sector
	}
	return quote
}

func nullDecimal(f *float64) decimal.NullDecimal {
	if f == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(*f))
}
