package market

import (
	"fmt"
	"strings"
)

// AssetClass is the closed set of instrument categories the engine prices.
// The string values match the asset_type column written by the portfolio service.
type AssetClass string

const (
	Equity    AssetClass = "stock"
	ETF       AssetClass = "etf"
	Crypto    AssetClass = "crypto"
	Commodity AssetClass = "commodity"
)

// AssetClasses lists every supported class in a stable order.
var AssetClasses = []AssetClass{Equity, ETF, Crypto, Commodity}

// ParseAssetClass accepts the wire value of a class plus the "equity" alias.
func ParseAssetClass(raw string) (AssetClass, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "stock", "equity":
		return Equity, nil
	case "etf":
		return ETF, nil
	case "crypto":
		return Crypto, nil
	case "commodity":
		return Commodity, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAssetClass, raw)
	}
}

// Valid reports whether c is one of the supported classes.
func (c AssetClass) Valid() bool {
	for _, known := range AssetClasses {
		if c == known {
			return true
		}
	}
	return false
}

func (c AssetClass) String() string { return string(c) }
