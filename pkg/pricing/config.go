package pricing

import (
	"fmt"
	"time"

	"folio-api/pkg/market"
)

// Default staleness windows per asset class.
const (
	DefaultEquityTTL    = 15 * time.Minute
	DefaultCryptoTTL    = 5 * time.Minute
	DefaultCommodityTTL = 30 * time.Minute

	DefaultFetchTimeout = 10 * time.Second
)

// Config is the resolver's immutable policy, built once at startup.
type Config struct {
	TTL          map[market.AssetClass]time.Duration
	FetchTimeout time.Duration
}

// DefaultConfig returns the stock policy.
func DefaultConfig() Config {
	return Config{
		TTL: map[market.AssetClass]time.Duration{
			market.Equity:    DefaultEquityTTL,
			market.ETF:       DefaultEquityTTL,
			market.Crypto:    DefaultCryptoTTL,
			market.Commodity: DefaultCommodityTTL,
		},
		FetchTimeout: DefaultFetchTimeout,
	}
}

// Validate checks every class has a positive TTL.
func (c Config) Validate() error {
	for _, class := range market.AssetClasses {
		ttl, ok := c.TTL[class]
		if !ok {
			return fmt.Errorf("pricing: no ttl configured for %s", class)
		}
		if ttl <= 0 {
			return fmt.Errorf("pricing: ttl for %s must be positive, got %s", class, ttl)
		}
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("pricing: fetch timeout must be positive, got %s", c.FetchTimeout)
	}
	return nil
}

// TTLFor returns the staleness window for class.
func (c Config) TTLFor(class market.AssetClass) time.Duration {
	return c.TTL[class]
}
