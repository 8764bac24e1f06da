package coingecko

import "github.com/shopspring/decimal"

// simplePriceResponse is the payload of GET /simple/price keyed by coin id.
type simplePriceResponse map[string]simplePrice

type simplePrice struct {
	USD          decimal.NullDecimal `json:"usd"`
	USD24hChange decimal.NullDecimal `json:"usd_24h_change"`
}
