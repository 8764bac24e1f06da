package metalsapi

import "github.com/shopspring/decimal"

// latestResponse is the payload of GET /latest. Rates are units of metal per
// one unit of the base currency.
type latestResponse struct {
	Success   bool                       `json:"success"`
	Timestamp int64                      `json:"timestamp"`
	Base      string                     `json:"base"`
	Rates     map[string]decimal.Decimal `json:"rates"`
	Error     *apiError                  `json:"error,omitempty"`
}

type apiError struct {
	Code int    `json:"code"`
	Type string `json:"type"`
	Info string `json:"info"`
}
