package moexModel

type RawSecurities struct {
	Securities Table `json:"securities"`
	Marketdata Table `json:"marketdata"`
}

type Table struct {
	Columns []string `json:"columns"`
	Data    [][]any  `json:"data"`
}
