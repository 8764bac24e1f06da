package market

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when callers do not name a settlement currency.
const DefaultCurrency = "USD"

// Key identifies one cache entry.
type Key struct {
	Ticker     string
	AssetClass AssetClass
	Currency   string
}

// NewKey normalises ticker and currency casing and applies the default currency.
func NewKey(ticker string, class AssetClass, currency string) Key {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	return Key{
		Ticker:     NormalizeTicker(ticker),
		AssetClass: class,
		Currency:   currency,
	}
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s", k.AssetClass, k.Currency, k.Ticker)
}

// Quote is the canonical unit of market data and the shape of a cache entry.
type Quote struct {
	Ticker        string              `json:"ticker"`
	AssetClass    AssetClass          `json:"assetType"`
	Currency      string              `json:"currency"`
	Price         decimal.Decimal     `json:"price"`
	Change        decimal.NullDecimal `json:"change"`
	ChangePercent decimal.NullDecimal `json:"changePercent"`
	PreviousClose decimal.NullDecimal `json:"previousClose"`
	Provider      string              `json:"provider"`
	FetchedAt     time.Time           `json:"fetchedAt"`
}

// Key returns the composite store key of the quote.
func (q Quote) Key() Key {
	return Key{Ticker: q.Ticker, AssetClass: q.AssetClass, Currency: q.Currency}
}

// Age reports how old the quote is at now.
func (q Quote) Age(now time.Time) time.Duration {
	return now.Sub(q.FetchedAt)
}

// IsStale reports whether the quote is older than ttl at now. A quote exactly
// ttl old is still fresh.
func (q Quote) IsStale(now time.Time, ttl time.Duration) bool {
	return q.Age(now) > ttl
}
