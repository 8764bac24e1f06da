package config

import (
	"folio-api/pkg/market"
)

// MustLoadMarket loads etc/market.yaml from the project root and panics on error.
// It lets tools that only need the providers skip the main config file.
func MustLoadMarket() *market.Config {
	return market.MustLoad()
}

// MarketConfig returns the hydrated market section, falling back to the
// project default file when the main config does not name one.
func (c *Config) MarketConfig() (*market.Config, string) {
	if c.Market.Value != nil {
		return c.Market.Value, c.Market.File
	}
	return MustLoadMarket(), "etc/market.yaml (default)"
}
