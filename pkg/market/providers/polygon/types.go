package polygon

import "github.com/shopspring/decimal"

// aggsResponse is the payload of GET /v2/aggs/ticker/{ticker}/prev.
type aggsResponse struct {
	Ticker       string `json:"ticker"`
	Status       string `json:"status"`
	ResultsCount int    `json:"resultsCount"`
	Results      []bar  `json:"results"`
}

// bar is a single previous-session aggregate.
type bar struct {
	Open   decimal.Decimal `json:"o"`
	High   decimal.Decimal `json:"h"`
	Low    decimal.Decimal `json:"l"`
	Close  decimal.Decimal `json:"c"`
	Volume decimal.Decimal `json:"v"`
}

// tickersResponse is the payload of GET /v3/reference/tickers.
type tickersResponse struct {
	Status  string            `json:"status"`
	Results []referenceTicker `json:"results"`
}

type referenceTicker struct {
	Ticker          string `json:"ticker"`
	Name            string `json:"name"`
	Type            string `json:"type"`
	PrimaryExchange string `json:"primary_exchange"`
}
