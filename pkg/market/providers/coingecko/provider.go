package coingecko

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/zeromicro/go-zero/core/logx"

	"folio-api/pkg/market"
)

const (
	defaultBaseURL   = "https://api.coingecko.com/api/v3"
	defaultBatchSize = 100
	// ProviderName is recorded as provenance on every quote.
	ProviderName = "coingecko"

	apiKeyHeader = "x-cg-demo-api-key"
	vsCurrency   = "usd"
)

var hundred = decimal.NewFromInt(100)

// Provider prices crypto assets from CoinGecko's simple price endpoint.
type Provider struct {
	name       string
	baseURL    string
	apiKey     string
	batchSize  int
	coinIDs    map[string]string
	httpClient *http.Client
}

// Option customises the CoinGecko provider.
type Option func(*Provider)

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(p *Provider) {
		if hc != nil {
			p.httpClient = hc
		}
	}
}

// WithBaseURL overrides the API root.
func WithBaseURL(u string) Option {
	return func(p *Provider) {
		if u != "" {
			p.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithAPIKey sends the demo API key header on every request.
func WithAPIKey(key string) Option {
	return func(p *Provider) {
		p.apiKey = key
	}
}

// WithBatchSize caps the number of coin ids per batch request.
func WithBatchSize(n int) Option {
	return func(p *Provider) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithCoinIDs replaces the symbol to coin id table.
func WithCoinIDs(ids map[string]string) Option {
	return func(p *Provider) {
		if ids != nil {
			p.coinIDs = ids
		}
	}
}

// NewProvider constructs a CoinGecko adapter.
func NewProvider(opts ...Option) *Provider {
	p := &Provider{
		name:       ProviderName,
		baseURL:    defaultBaseURL,
		batchSize:  defaultBatchSize,
		coinIDs:    DefaultCoinIDs,
		httpClient: &http.Client{Timeout: market.DefaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func init() {
	market.RegisterProvider(ProviderName, func(cfg *market.ProviderConfig) (market.Adapter, error) {
		opts := []Option{WithBaseURL(cfg.BaseURL), WithAPIKey(cfg.APIKey), WithBatchSize(cfg.BatchSize)}
		if cfg.HTTPTimeout > 0 {
			opts = append(opts, WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}))
		}
		return NewProvider(opts...), nil
	})
}

// Name implements market.Adapter.
func (p *Provider) Name() string { return p.name }

// CoinID maps a trading symbol to its CoinGecko id, falling back to the
// lower-cased symbol when the table has no entry.
func (p *Provider) CoinID(symbol string) string {
	if id, ok := p.coinIDs[market.NormalizeTicker(symbol)]; ok {
		return id
	}
	return strings.ToLower(strings.TrimSpace(symbol))
}

// Fetch implements market.Adapter.
func (p *Provider) Fetch(ctx context.Context, symbol string) (*market.Fragment, error) {
	ticker := market.NormalizeTicker(symbol)
	if ticker == "" {
		return nil, fmt.Errorf("coingecko: %w: empty symbol", market.ErrSymbolNotFound)
	}
	id := p.coinID(ctx, ticker)
	prices, err := p.simplePrice(ctx, []string{id})
	if err != nil {
		logx.WithContext(ctx).Errorf("coingecko: fetch price symbol=%s id=%s err=%v", ticker, id, err)
		return nil, fmt.Errorf("coingecko: fetch %s: %w", ticker, err)
	}
	fragment, ok := toFragment(ticker, prices[id])
	if !ok {
		return nil, fmt.Errorf("coingecko: %w: %s (id %s)", market.ErrSymbolNotFound, ticker, id)
	}
	return fragment, nil
}

// FetchBatch implements market.BatchAdapter. Symbols are de-duplicated and
// sent in chunks of at most batchSize ids. A failed chunk is logged and its
// symbols are left out of the result; an error is returned only when no
// chunk succeeded.
func (p *Provider) FetchBatch(ctx context.Context, symbols []string) (map[string]*market.Fragment, error) {
	result := make(map[string]*market.Fragment, len(symbols))
	symbolsByID := make(map[string][]string, len(symbols))
	ids := make([]string, 0, len(symbols))
	seen := make(map[string]struct{}, len(symbols))
	for _, raw := range symbols {
		ticker := market.NormalizeTicker(raw)
		if ticker == "" {
			continue
		}
		if _, dup := seen[ticker]; dup {
			continue
		}
		seen[ticker] = struct{}{}
		id := p.coinID(ctx, ticker)
		if _, known := symbolsByID[id]; !known {
			ids = append(ids, id)
		}
		symbolsByID[id] = append(symbolsByID[id], ticker)
	}
	if len(ids) == 0 {
		return result, nil
	}

	var errs []error
	for start := 0; start < len(ids); start += p.batchSize {
		end := start + p.batchSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]
		prices, err := p.simplePrice(ctx, chunk)
		if err != nil {
			logx.WithContext(ctx).Errorf("coingecko: fetch batch ids=%d err=%v", len(chunk), err)
			errs = append(errs, err)
			continue
		}
		for _, id := range chunk {
			for _, ticker := range symbolsByID[id] {
				if fragment, ok := toFragment(ticker, prices[id]); ok {
					result[ticker] = fragment
				}
			}
		}
	}
	if len(result) == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("coingecko: fetch batch: %w", errors.Join(errs...))
	}
	return result, nil
}

func (p *Provider) coinID(ctx context.Context, ticker string) string {
	id := p.CoinID(ticker)
	if _, mapped := p.coinIDs[ticker]; !mapped {
		logx.WithContext(ctx).Debugf("coingecko: symbol %s unmapped, using id %q", ticker, id)
	}
	return id
}

func (p *Provider) simplePrice(ctx context.Context, ids []string) (simplePriceResponse, error) {
	req := market.Request{
		URL: p.baseURL + "/simple/price",
		Query: url.Values{
			"ids":                 {strings.Join(ids, ",")},
			"vs_currencies":       {vsCurrency},
			"include_24hr_change": {"true"},
		},
	}
	if p.apiKey != "" {
		req.Header = http.Header{apiKeyHeader: {p.apiKey}}
	}
	var payload simplePriceResponse
	if err := market.GetJSON(ctx, p.httpClient, req, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func toFragment(ticker string, data simplePrice) (*market.Fragment, bool) {
	if !data.USD.Valid {
		return nil, false
	}
	fragment := &market.Fragment{Ticker: ticker, Price: data.USD.Decimal}
	if data.USD24hChange.Valid {
		pct := data.USD24hChange.Decimal
		fragment.ChangePercent = decimal.NewNullDecimal(pct)
		fragment.Change = decimal.NewNullDecimal(data.USD.Decimal.Mul(pct).Div(hundred))
	}
	return fragment, true
}
