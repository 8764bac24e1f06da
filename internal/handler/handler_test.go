package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/rest/pathvar"

	"folio-api/internal/config"
	"folio-api/internal/svc"
	"folio-api/internal/types"
	"folio-api/pkg/market"
)

func newTestServiceContext(t *testing.T) *svc.ServiceContext {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/aggs/ticker/", func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/MSFT/") {
			fmt.Fprint(w, `{"ticker":"MSFT","status":"OK","resultsCount":1,"results":[{"o":400,"c":420}]}`)
			return
		}
		fmt.Fprint(w, `{"status":"OK","resultsCount":0,"results":[]}`)
	})
	mux.HandleFunc("/v3/reference/tickers", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"OK","results":[{"ticker":"MSFT","name":"Microsoft Corp","type":"CS","primary_exchange":"XNAS"}]}`)
	})
	mux.HandleFunc("/simple/price", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ethereum":{"usd":3200}}`)
	})
	mux.HandleFunc("/latest", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"rates":{"XAG":0.04}}`)
	})
	upstream := httptest.NewServer(mux)
	t.Cleanup(upstream.Close)

	marketCfg, err := market.LoadConfigFromReader(strings.NewReader(fmt.Sprintf(`
providers:
  polygon: {type: polygon, base_url: %[1]s}
  coingecko: {type: coingecko, base_url: %[1]s}
  metals: {type: metalsapi, base_url: %[1]s}
routes: {stock: polygon, etf: polygon, crypto: coingecko, commodity: metals}
`, upstream.URL)))
	require.NoError(t, err)

	cfg := config.Config{
		Env:          "test",
		Currency:     "USD",
		FetchTimeout: 5,
		TTL:          config.PriceTTL{Stock: 900, ETF: 900, Crypto: 300, Commodity: 1800},
		Holdings:     config.HoldingsConf{Source: config.HoldingsStatic},
	}
	cfg.Market.Value = marketCfg
	return svc.NewServiceContext(cfg)
}

func getPrice(t *testing.T, sc *svc.ServiceContext, ticker, query string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/prices/"+ticker+query, nil)
	req = pathvar.WithVars(req, map[string]string{"ticker": ticker})
	rec := httptest.NewRecorder()
	GetPriceHandler(sc)(rec, req)
	return rec
}

func TestGetPriceHandler(t *testing.T) {
	sc := newTestServiceContext(t)

	rec := getPrice(t, sc, "msft", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp types.PriceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "MSFT", resp.Ticker)
	assert.Equal(t, market.Equity, resp.AssetClass)
	assert.Equal(t, "USD", resp.Currency)
	assert.Equal(t, "420", resp.Price.String())
	assert.Equal(t, "fetched", resp.Status)
	assert.False(t, resp.Stale)

	rec = getPrice(t, sc, "silver", "?type=commodity")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "25", resp.Price.String())
	assert.Equal(t, "metalsapi", resp.Provider)
}

func TestGetPriceHandler_Errors(t *testing.T) {
	sc := newTestServiceContext(t)

	rec := getPrice(t, sc, "NOPE", "?type=stock")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = getPrice(t, sc, "AAPL", "?type=bond")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body types.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusBadRequest, body.Code)
	assert.Contains(t, body.Message, "unknown asset class")
}

func TestSearchTickerHandler(t *testing.T) {
	sc := newTestServiceContext(t)

	req := httptest.NewRequest(http.MethodGet, "/search/ticker?q=micro", nil)
	rec := httptest.NewRecorder()
	SearchTickerHandler(sc)(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp types.SearchTickerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "MSFT", resp.Results[0].Symbol)
	assert.Equal(t, "XNAS", resp.Results[0].Exchange)

	req = httptest.NewRequest(http.MethodGet, "/search/ticker", nil)
	rec = httptest.NewRecorder()
	SearchTickerHandler(sc)(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"results":[]}`, rec.Body.String())
}
