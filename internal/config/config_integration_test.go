package config_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "folio-api/internal/config"
	"folio-api/internal/svc"
	"folio-api/pkg/market"
	"folio-api/pkg/pricing"
)

// TestMustLoadShippedConfig loads etc/folio.yaml as shipped and wires a
// service context from it with every external store left unconfigured.
func TestMustLoadShippedConfig(t *testing.T) {
	for _, key := range []string{
		"FOLIO_ENV", "FOLIO_POSTGRES_DSN", "FOLIO_REDIS_HOST", "FOLIO_JOURNAL_DIR",
		"POLYGON_API_KEY", "COINGECKO_API_KEY", "METALS_API_KEY",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("FOLIO_NO_DOTENV", "1")

	mainPath, err := filepath.Abs(filepath.Join("..", "..", "etc", "folio.yaml"))
	require.NoError(t, err)

	cfg := appconfig.MustLoad(mainPath)
	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, appconfig.HoldingsStatic, cfg.Holdings.Source)
	require.NotNil(t, cfg.Market.Value)
	assert.Equal(t, filepath.Join(filepath.Dir(mainPath), "market.yaml"), cfg.Market.File)

	sc := svc.NewServiceContext(*cfg)
	assert.Len(t, sc.MarketProviders, 3)
	assert.Nil(t, sc.DBConn)
	assert.Nil(t, sc.Redis)
	assert.Nil(t, sc.Journal)
	assert.NotNil(t, sc.Searcher)
	for _, class := range market.AssetClasses {
		adapter, err := sc.Router.Route(class)
		require.NoError(t, err, class)
		assert.NotEmpty(t, adapter.Name())
	}
	assert.Len(t, sc.Scheduler.Tasks(), 3)

	policy := cfg.PricingConfig()
	assert.Equal(t, pricing.DefaultCryptoTTL, policy.TTLFor(market.Crypto))
}
