package cache

import (
	"strings"
	"time"

	"folio-api/pkg/market"
)

// Namespace is the Redis key prefix for the folio application.
const Namespace = "folio"

func formatKey(parts ...string) string {
	values := make([]string, 0, len(parts)+1)
	values = append(values, Namespace)
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		values = append(values, clean)
	}
	return strings.Join(values, ":")
}

// --- Price Keys -------------------------------------------------------------

// PriceKey returns the hot-copy key of one cache entry.
func PriceKey(key market.Key) string {
	return formatKey("price", string(key.AssetClass), key.Currency, key.Ticker)
}

// RefreshLockKey guards a scheduled refresh task across replicas.
func RefreshLockKey(task string) string {
	return formatKey("lock", "refresh", task)
}

// --- TTL Helpers ------------------------------------------------------------

// PriceTTL returns how long a hot copy may live in Redis. Entries outlive
// their staleness window so stale fallback keeps working from Redis, but are
// dropped eventually because Postgres stays authoritative.
func PriceTTL(staleness time.Duration) time.Duration {
	if staleness <= 0 {
		return 0
	}
	return 4 * staleness
}
