package types

import "folio-api/pkg/market"

type PriceRequest struct {
	Ticker   string `path:"ticker"`
	Type     string `form:"type,optional"`
	Currency string `form:"currency,optional"`
}

type PriceResponse struct {
	market.Quote
	Status string `json:"status"`
	Stale  bool   `json:"stale"`
}

type SearchTickerRequest struct {
	Query string `form:"q,optional"`
}

type SearchTickerResponse struct {
	Results []market.TickerMatch `json:"results"`
}

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
