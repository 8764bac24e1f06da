package polygon

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio-api/pkg/market"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewProvider(WithBaseURL(srv.URL+"/"), WithAPIKey("pk"), WithHTTPClient(srv.Client()))
}

func TestFetch(t *testing.T) {
	p := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/aggs/ticker/AAPL/prev", r.URL.Path)
		assert.Equal(t, "pk", r.URL.Query().Get("apiKey"))
		fmt.Fprint(w, `{"ticker":"AAPL","status":"OK","resultsCount":1,"results":[{"o":180,"h":190.2,"l":179.5,"c":189,"v":51234567}]}`)
	})

	frag, err := p.Fetch(context.Background(), " aapl")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", frag.Ticker)
	assert.Equal(t, "189", frag.Price.String())
	require.True(t, frag.Change.Valid)
	assert.Equal(t, "9", frag.Change.Decimal.String())
	require.True(t, frag.ChangePercent.Valid)
	assert.Equal(t, "5", frag.ChangePercent.Decimal.String())
	assert.Equal(t, "180", frag.PreviousClose.Decimal.String())
	assert.Equal(t, ProviderName, p.Name())
}

func TestFetch_ZeroOpenLeavesPercentUnset(t *testing.T) {
	p := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"OK","resultsCount":1,"results":[{"o":0,"c":1.5}]}`)
	})
	frag, err := p.Fetch(context.Background(), "NEWCO")
	require.NoError(t, err)
	assert.True(t, frag.Change.Valid)
	assert.False(t, frag.ChangePercent.Valid)
}

func TestFetch_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{name: "no results", status: http.StatusOK, body: `{"status":"OK","resultsCount":0}`, want: market.ErrSymbolNotFound},
		{name: "server error", status: http.StatusBadGateway, body: `bad gateway`, want: market.ErrUpstreamUnavailable},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"status":"ERROR"}`, want: market.ErrUpstreamUnavailable},
		{name: "malformed", status: http.StatusOK, body: `{"results":[`, want: market.ErrUpstreamUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})
			_, err := p.Fetch(context.Background(), "AAPL")
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := NewProvider().Fetch(context.Background(), "  ")
	assert.ErrorIs(t, err, market.ErrSymbolNotFound)
}

func TestSearchTickers(t *testing.T) {
	p := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/reference/tickers", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "apple", q.Get("search"))
		assert.Equal(t, "true", q.Get("active"))
		assert.Equal(t, "10", q.Get("limit"))
		fmt.Fprint(w, `{"status":"OK","results":[
			{"ticker":"AAPL","name":"Apple Inc.","type":"CS","primary_exchange":"XNAS"},
			{"ticker":"APLE","name":"Apple Hospitality REIT","type":"CS","primary_exchange":"XNYS"}]}`)
	})

	matches, err := p.SearchTickers(context.Background(), " apple ")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, market.TickerMatch{Symbol: "AAPL", Name: "Apple Inc.", Type: "CS", Exchange: "XNAS"}, matches[0])

	empty, err := p.SearchTickers(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSearchTickers_FailureIsEmpty(t *testing.T) {
	p := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	matches, err := p.SearchTickers(context.Background(), "apple")
	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}
