package market

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrUpstreamUnavailable covers transport errors, non-2xx responses and
	// malformed payloads from a provider.
	ErrUpstreamUnavailable = errors.New("market: upstream unavailable")
	// ErrSymbolNotFound indicates the provider answered but had no data for the symbol.
	ErrSymbolNotFound = errors.New("market: symbol not found")
	// ErrUnknownAssetClass is returned when parsing or routing an unsupported class.
	ErrUnknownAssetClass = errors.New("market: unknown asset class")
	// ErrUnroutedClass is a startup configuration error: a class has no adapter.
	ErrUnroutedClass = errors.New("market: asset class has no provider route")
)

// Fragment is whatever a provider could tell us about a symbol.
// Price is always set; the optional fields are invalid when the provider
// cannot supply them.
type Fragment struct {
	Ticker        string
	Price         decimal.Decimal
	Change        decimal.NullDecimal
	ChangePercent decimal.NullDecimal
	PreviousClose decimal.NullDecimal
}

// Adapter translates a normalized symbol into a provider request and maps the
// response back into a Fragment.
type Adapter interface {
	// Name is the provenance identifier recorded on every quote.
	Name() string
	// Fetch returns the latest fragment for symbol or an error wrapping
	// ErrUpstreamUnavailable / ErrSymbolNotFound.
	Fetch(ctx context.Context, symbol string) (*Fragment, error)
}

// BatchAdapter is implemented by adapters able to price many symbols in a
// single upstream round trip. The result is keyed by the upper-cased input
// symbol; symbols the provider did not return are simply absent.
type BatchAdapter interface {
	Adapter
	FetchBatch(ctx context.Context, symbols []string) (map[string]*Fragment, error)
}

// TickerMatch is a single ticker search hit.
type TickerMatch struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Exchange string `json:"exchange,omitempty"`
}

// Searcher is implemented by adapters that expose instrument lookup.
type Searcher interface {
	SearchTickers(ctx context.Context, query string) ([]TickerMatch, error)
}

// NormalizeTicker trims and upper-cases a user supplied symbol.
func NormalizeTicker(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Quote builds the canonical quote for key from a provider fragment.
func (f *Fragment) Quote(key Key, provider string, fetchedAt time.Time) Quote {
	return Quote{
		Ticker:        key.Ticker,
		AssetClass:    key.AssetClass,
		Currency:      key.Currency,
		Price:         f.Price,
		Change:        f.Change,
		ChangePercent: f.ChangePercent,
		PreviousClose: f.PreviousClose,
		Provider:      provider,
		FetchedAt:     fetchedAt,
	}
}
