package metalsapi

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
	defaultBaseURL = "https://metals-api.com/api"
	// ProviderName is recorded as provenance on every quote.
	ProviderName = "metalsapi"

	baseCurrency = "USD"
)

var one = decimal.NewFromInt(1)

// Provider prices precious metals from Metals-API.
type Provider struct {
	name       string
	baseURL    string
	apiKey     string
	metalCodes map[string]string
	httpClient *http.Client
}

// Option customises the Metals-API provider.
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

// WithAPIKey sets the access_key query parameter.
func WithAPIKey(key string) Option {
	return func(p *Provider) {
		p.apiKey = key
	}
}

// WithMetalCodes replaces the symbol to metal code table.
func WithMetalCodes(codes map[string]string) Option {
	return func(p *Provider) {
		if codes != nil {
			p.metalCodes = codes
		}
	}
}

// NewProvider constructs a Metals-API adapter.
func NewProvider(opts ...Option) *Provider {
	p := &Provider{
		name:       ProviderName,
		baseURL:    defaultBaseURL,
		metalCodes: DefaultMetalCodes,
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

// MetalCode maps a symbol such as GOLD to its ISO-4217 metal code.
func (p *Provider) MetalCode(symbol string) string {
	ticker := market.NormalizeTicker(symbol)
	if code, ok := p.metalCodes[ticker]; ok {
		return code
	}
	return ticker
}

// Fetch implements market.Adapter.
func (p *Provider) Fetch(ctx context.Context, symbol string) (*market.Fragment, error) {
	ticker := market.NormalizeTicker(symbol)
	if ticker == "" {
		return nil, fmt.Errorf("metalsapi: %w: empty symbol", market.ErrSymbolNotFound)
	}
	code := p.MetalCode(ticker)
	rates, err := p.latest(ctx, []string{code})
	if err != nil {
		logx.WithContext(ctx).Errorf("metalsapi: fetch price symbol=%s code=%s err=%v", ticker, code, err)
		return nil, fmt.Errorf("metalsapi: fetch %s: %w", ticker, err)
	}
	price, ok := usdPerUnit(rates[code])
	if !ok {
		return nil, fmt.Errorf("metalsapi: %w: %s (code %s)", market.ErrSymbolNotFound, ticker, code)
	}
	return &market.Fragment{Ticker: ticker, Price: price}, nil
}

// FetchBatch implements market.BatchAdapter with a single comma-separated
// symbols request.
func (p *Provider) FetchBatch(ctx context.Context, symbols []string) (map[string]*market.Fragment, error) {
	result := make(map[string]*market.Fragment, len(symbols))
	codeByTicker := make(map[string]string, len(symbols))
	codes := make([]string, 0, len(symbols))
	seenCode := make(map[string]struct{}, len(symbols))
	for _, raw := range symbols {
		ticker := market.NormalizeTicker(raw)
		if ticker == "" {
			continue
		}
		code := p.MetalCode(ticker)
		codeByTicker[ticker] = code
		if _, dup := seenCode[code]; dup {
			continue
		}
		seenCode[code] = struct{}{}
		codes = append(codes, code)
	}
	if len(codes) == 0 {
		return result, nil
	}
	rates, err := p.latest(ctx, codes)
	if err != nil {
		logx.WithContext(ctx).Errorf("metalsapi: fetch batch codes=%s err=%v", strings.Join(codes, ","), err)
		return nil, fmt.Errorf("metalsapi: fetch batch: %w", err)
	}
	for ticker, code := range codeByTicker {
		if price, ok := usdPerUnit(rates[code]); ok {
			result[ticker] = &market.Fragment{Ticker: ticker, Price: price}
		}
	}
	return result, nil
}

func (p *Provider) latest(ctx context.Context, codes []string) (map[string]decimal.Decimal, error) {
	query := url.Values{
		"base":    {baseCurrency},
		"symbols": {strings.Join(codes, ",")},
	}
	if p.apiKey != "" {
		query.Set("access_key", p.apiKey)
	}
	var payload latestResponse
	if err := market.GetJSON(ctx, p.httpClient, market.Request{URL: p.baseURL + "/latest", Query: query}, &payload); err != nil {
		return nil, err
	}
	if !payload.Success {
		info := "unknown error"
		if payload.Error != nil {
			info = fmt.Sprintf("%d %s: %s", payload.Error.Code, payload.Error.Type, payload.Error.Info)
		}
		return nil, fmt.Errorf("%w: metals api error: %s", market.ErrUpstreamUnavailable, info)
	}
	return payload.Rates, nil
}

// usdPerUnit inverts a USD-based rate (metal per dollar) into dollars per unit
// of metal. A zero or missing rate has no inverse.
func usdPerUnit(rate decimal.Decimal) (decimal.Decimal, bool) {
	if rate.Sign() <= 0 {
		return decimal.Zero, false
	}
	return one.Div(rate), true
}
