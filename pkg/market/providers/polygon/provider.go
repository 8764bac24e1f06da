package polygon

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/zeromicro/go-zero/core/logx"

	"folio-api/pkg/market"
)

const (
	defaultBaseURL = "https://api.polygon.io"
	// ProviderName is recorded as provenance on every quote.
	ProviderName = "polygon"

	searchLimit = 10
)

var hundred = decimal.NewFromInt(100)

// Provider prices equities and ETFs from Polygon's previous-session aggregates.
type Provider struct {
	name       string
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option customises the Polygon provider.
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

// WithAPIKey sets the apiKey query parameter.
func WithAPIKey(key string) Option {
	return func(p *Provider) {
		p.apiKey = key
	}
}

// NewProvider constructs a Polygon adapter.
func NewProvider(opts ...Option) *Provider {
	p := &Provider{
		name:       ProviderName,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: market.DefaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func init() {
	market.RegisterProvider(ProviderName, func(cfg *market.ProviderConfig) (market.Adapter, error) {
		opts := []Option{WithBaseURL(cfg.BaseURL), WithAPIKey(cfg.APIKey)}
		if cfg.HTTPTimeout > 0 {
			opts = append(opts, WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}))
		}
		return NewProvider(opts...), nil
	})
}

// Name implements market.Adapter.
func (p *Provider) Name() string { return p.name }

// Fetch implements market.Adapter using the previous-session aggregate.
//
// Polygon's prev endpoint carries a single bar, so the session open stands in
// for the previous close and change is measured close-to-open. This is a known
// approximation of the true day-over-day change.
func (p *Provider) Fetch(ctx context.Context, symbol string) (*market.Fragment, error) {
	ticker := market.NormalizeTicker(symbol)
	if ticker == "" {
		return nil, fmt.Errorf("polygon: %w: empty ticker", market.ErrSymbolNotFound)
	}

	var payload aggsResponse
	req := market.Request{
		URL:   fmt.Sprintf("%s/v2/aggs/ticker/%s/prev", p.baseURL, url.PathEscape(ticker)),
		Query: p.query(nil),
	}
	if err := market.GetJSON(ctx, p.httpClient, req, &payload); err != nil {
		logx.WithContext(ctx).Errorf("polygon: fetch price ticker=%s err=%v", ticker, err)
		return nil, fmt.Errorf("polygon: fetch %s: %w", ticker, err)
	}
	if len(payload.Results) == 0 {
		logx.WithContext(ctx).Infof("polygon: no aggregate for ticker=%s status=%s", ticker, payload.Status)
		return nil, fmt.Errorf("polygon: %w: %s", market.ErrSymbolNotFound, ticker)
	}

	session := payload.Results[0]
	fragment := &market.Fragment{
		Ticker:        ticker,
		Price:         session.Close,
		PreviousClose: decimal.NewNullDecimal(session.Open),
	}
	fragment.Change = decimal.NewNullDecimal(session.Close.Sub(session.Open))
	if !session.Open.IsZero() {
		pct := session.Close.Sub(session.Open).Div(session.Open).Mul(hundred)
		fragment.ChangePercent = decimal.NewNullDecimal(pct)
	}
	return fragment, nil
}

// SearchTickers looks up active instruments matching query. Failures are
// logged and reported as an empty result.
func (p *Provider) SearchTickers(ctx context.Context, query string) ([]market.TickerMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []market.TickerMatch{}, nil
	}
	var payload tickersResponse
	req := market.Request{
		URL: p.baseURL + "/v3/reference/tickers",
		Query: p.query(url.Values{
			"search": {query},
			"active": {"true"},
			"limit":  {fmt.Sprint(searchLimit)},
		}),
	}
	if err := market.GetJSON(ctx, p.httpClient, req, &payload); err != nil {
		logx.WithContext(ctx).Errorf("polygon: search tickers query=%q err=%v", query, err)
		return []market.TickerMatch{}, nil
	}
	matches := make([]market.TickerMatch, 0, len(payload.Results))
	for _, item := range payload.Results {
		matches = append(matches, market.TickerMatch{
			Symbol:   item.Ticker,
			Name:     item.Name,
			Type:     item.Type,
			Exchange: item.PrimaryExchange,
		})
	}
	return matches, nil
}

func (p *Provider) query(values url.Values) url.Values {
	if values == nil {
		values = url.Values{}
	}
	if p.apiKey != "" {
		values.Set("apiKey", p.apiKey)
	}
	return values
}
