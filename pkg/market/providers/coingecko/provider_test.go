package coingecko

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio-api/pkg/market"
)

func TestCoinID(t *testing.T) {
	p := NewProvider()
	assert.Equal(t, "bitcoin", p.CoinID("btc"))
	assert.Equal(t, "ethereum", p.CoinID("ETH"))
	assert.Equal(t, "xyz", p.CoinID("XYZ"), "unmapped symbols fall back to the lower-cased symbol")

	custom := NewProvider(WithCoinIDs(map[string]string{"BTC": "wrapped-bitcoin"}))
	assert.Equal(t, "wrapped-bitcoin", custom.CoinID("BTC"))
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "bitcoin", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		assert.Equal(t, "cg-key", r.Header.Get(apiKeyHeader))
		fmt.Fprint(w, `{"bitcoin":{"usd":65000.5,"usd_24h_change":2}}`)
	}))
	defer srv.Close()

	p := NewProvider(WithBaseURL(srv.URL), WithAPIKey("cg-key"))
	frag, err := p.Fetch(context.Background(), "btc")
	require.NoError(t, err)
	assert.Equal(t, "BTC", frag.Ticker)
	assert.Equal(t, "65000.5", frag.Price.String())
	assert.Equal(t, "2", frag.ChangePercent.Decimal.String())
	assert.Equal(t, "1300.01", frag.Change.Decimal.String())
	assert.False(t, frag.PreviousClose.Valid)
}

func TestFetch_UnknownCoin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "xyz", r.URL.Query().Get("ids"))
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	_, err := NewProvider(WithBaseURL(srv.URL)).Fetch(context.Background(), "XYZ")
	assert.ErrorIs(t, err, market.ErrSymbolNotFound)
}

func TestFetchBatch_Chunks(t *testing.T) {
	var (
		mu       sync.Mutex
		requests [][]string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids := strings.Split(r.URL.Query().Get("ids"), ",")
		mu.Lock()
		requests = append(requests, ids)
		mu.Unlock()
		parts := make([]string, 0, len(ids))
		for _, id := range ids {
			if id == "ghost" {
				continue
			}
			parts = append(parts, fmt.Sprintf(`%q:{"usd":%d}`, id, len(id)))
		}
		fmt.Fprintf(w, "{%s}", strings.Join(parts, ","))
	}))
	defer srv.Close()

	p := NewProvider(WithBaseURL(srv.URL), WithBatchSize(2))
	got, err := p.FetchBatch(context.Background(), []string{"btc", "ETH", "BTC", "sol", "ghost", ""})
	require.NoError(t, err)

	require.Len(t, requests, 2, "4 distinct ids in chunks of 2")
	all := append(append([]string{}, requests[0]...), requests[1]...)
	sort.Strings(all)
	assert.Equal(t, []string{"bitcoin", "ethereum", "ghost", "solana"}, all)

	assert.Len(t, got, 3)
	assert.Equal(t, "7", got["BTC"].Price.String())
	assert.Equal(t, "8", got["ETH"].Price.String())
	assert.NotContains(t, got, "GHOST")
}

func TestFetchBatch_AllChunksFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewProvider(WithBaseURL(srv.URL)).FetchBatch(context.Background(), []string{"BTC", "ETH"})
	assert.ErrorIs(t, err, market.ErrUpstreamUnavailable)

	got, err := NewProvider(WithBaseURL(srv.URL)).FetchBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
