package metalsapi

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

func serve(t *testing.T, body string) (*Provider, *[]string) {
	t.Helper()
	var symbols []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest", r.URL.Path)
		assert.Equal(t, "USD", r.URL.Query().Get("base"))
		assert.Equal(t, "mk", r.URL.Query().Get("access_key"))
		symbols = append(symbols, r.URL.Query().Get("symbols"))
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return NewProvider(WithBaseURL(srv.URL), WithAPIKey("mk")), &symbols
}

func TestFetch_InvertsRate(t *testing.T) {
	p, symbols := serve(t, `{"success":true,"base":"USD","rates":{"XAU":0.00054}}`)

	frag, err := p.Fetch(context.Background(), "gold")
	require.NoError(t, err)
	assert.Equal(t, []string{"XAU"}, *symbols)
	assert.Equal(t, "GOLD", frag.Ticker)
	assert.Equal(t, "1851.85", frag.Price.Round(2).String())
	assert.False(t, frag.Change.Valid)
	assert.False(t, frag.ChangePercent.Valid)
}

func TestFetch_Errors(t *testing.T) {
	p, _ := serve(t, `{"success":false,"error":{"code":101,"type":"invalid_access_key","info":"bad key"}}`)
	_, err := p.Fetch(context.Background(), "XAU")
	assert.ErrorIs(t, err, market.ErrUpstreamUnavailable)
	assert.ErrorContains(t, err, "invalid_access_key")

	p, _ = serve(t, `{"success":true,"rates":{"XAU":0}}`)
	_, err = p.Fetch(context.Background(), "XAU")
	assert.ErrorIs(t, err, market.ErrSymbolNotFound)

	p, _ = serve(t, `{"success":true,"rates":{}}`)
	_, err = p.Fetch(context.Background(), "COPPER")
	assert.ErrorIs(t, err, market.ErrSymbolNotFound)
}

func TestFetchBatch(t *testing.T) {
	p, symbols := serve(t, `{"success":true,"rates":{"XAU":0.0005,"XAG":0.04}}`)

	got, err := p.FetchBatch(context.Background(), []string{"gold", "XAU", "silver", "platinum"})
	require.NoError(t, err)
	assert.Equal(t, []string{"XAU,XAG,XPT"}, *symbols, "one request, codes de-duplicated")
	require.Len(t, got, 3)
	assert.Equal(t, "2000", got["GOLD"].Price.String())
	assert.Equal(t, "2000", got["XAU"].Price.String())
	assert.Equal(t, "25", got["SILVER"].Price.String())
	assert.NotContains(t, got, "PLATINUM")
}

func TestMetalCode(t *testing.T) {
	p := NewProvider()
	assert.Equal(t, "XAU", p.MetalCode(" Gold "))
	assert.Equal(t, "XPD", p.MetalCode("palladium"))
	assert.Equal(t, "COPPER", p.MetalCode("copper"))
	assert.Equal(t, ProviderName, p.Name())
}
