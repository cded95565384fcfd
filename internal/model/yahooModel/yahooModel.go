package yahooModel

type QuoteResponse struct {
	QuoteResponse QuoteResult `json:"quoteResponse"`
}

type QuoteResult struct {
	Result []Quote      `json:"result"`
	Error  *QuoteError `json:"error"`
}

type QuoteError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type Quote struct {
	Symbol                     string   `json:"symbol"`
	RegularMarketPrice         *float64 `json:"regularMarketPrice"`
	RegularMarketOpen          *float64 `json:"regularMarketOpen"`
	RegularMarketChangePercent *float64 `json:"regularMarketChangePercent"`
	MarketCap                  *float64 `json:"marketCap"`
	Sector                     *string  `json:"sector"`
}
