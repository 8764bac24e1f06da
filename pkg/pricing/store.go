package pricing

import (
	"context"
	"errors"

	"folio-api/pkg/market"
)

// ErrNotFound is returned by a Store when no entry exists for a key.
var ErrNotFound = errors.New("pricing: cache entry not found")

// Store persists the last known quote per (ticker, asset class, currency).
type Store interface {
	// Get returns the entry for key or ErrNotFound. Any other error means the
	// storage layer is unavailable.
	Get(ctx context.Context, key market.Key) (*market.Quote, error)
	// Upsert atomically inserts or fully replaces the entry for quote.Key()
	// and returns the stored value.
	Upsert(ctx context.Context, quote market.Quote) (*market.Quote, error)
}
