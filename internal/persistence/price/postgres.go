package pricepersist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"folio-api/pkg/market"
	"folio-api/pkg/pricing"
)

const priceColumns = `ticker, asset_type, currency, price, change, change_percent, previous_close, provider, fetched_at`

type priceRow struct {
	Ticker        string              `db:"ticker"`
	AssetType     string              `db:"asset_type"`
	Currency      string              `db:"currency"`
	Price         decimal.Decimal     `db:"price"`
	Change        decimal.NullDecimal `db:"change"`
	ChangePercent decimal.NullDecimal `db:"change_percent"`
	PreviousClose decimal.NullDecimal `db:"previous_close"`
	Provider      string              `db:"provider"`
	FetchedAt     time.Time           `db:"fetched_at"`
}

func (r priceRow) quote() *market.Quote {
	return &market.Quote{
		Ticker:        r.Ticker,
		AssetClass:    market.AssetClass(r.AssetType),
		Currency:      r.Currency,
		Price:         r.Price,
		Change:        r.Change,
		ChangePercent: r.ChangePercent,
		PreviousClose: r.PreviousClose,
		Provider:      r.Provider,
		FetchedAt:     r.FetchedAt.UTC(),
	}
}

// PostgresStore keeps the authoritative cache entries in the prices table.
type PostgresStore struct {
	conn sqlx.SqlConn
}

var _ pricing.Store = (*PostgresStore)(nil)

// NewPostgresStore wires a store over conn.
func NewPostgresStore(conn sqlx.SqlConn) *PostgresStore {
	return &PostgresStore{conn: conn}
}

// Get implements pricing.Store.
func (s *PostgresStore) Get(ctx context.Context, key market.Key) (*market.Quote, error) {
	stmt := `SELECT ` + priceColumns + `
FROM public.prices
WHERE ticker = $1 AND asset_type = $2 AND currency = $3`
	var row priceRow
	err := s.conn.QueryRowCtx(ctx, &row, stmt, key.Ticker, string(key.AssetClass), key.Currency)
	switch {
	case err == nil:
		return row.quote(), nil
	case errors.Is(err, sqlx.ErrNotFound):
		return nil, pricing.ErrNotFound
	default:
		return nil, fmt.Errorf("select price %s: %w", key, err)
	}
}

// Upsert implements pricing.Store. Every column is taken from the new quote,
// so optional fields absent from it are cleared rather than merged.
func (s *PostgresStore) Upsert(ctx context.Context, quote market.Quote) (*market.Quote, error) {
	stmt := `
INSERT INTO public.prices (` + priceColumns + `, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
ON CONFLICT (ticker, asset_type, currency) DO UPDATE SET
    price = EXCLUDED.price,
    change = EXCLUDED.change,
    change_percent = EXCLUDED.change_percent,
    previous_close = EXCLUDED.previous_close,
    provider = EXCLUDED.provider,
    fetched_at = EXCLUDED.fetched_at,
    updated_at = NOW()
RETURNING ` + priceColumns
	var row priceRow
	if err := s.conn.QueryRowCtx(ctx, &row, stmt,
		quote.Ticker,
		string(quote.AssetClass),
		quote.Currency,
		quote.Price,
		quote.Change,
		quote.ChangePercent,
		quote.PreviousClose,
		quote.Provider,
		quote.FetchedAt.UTC(),
	); err != nil {
		return nil, fmt.Errorf("upsert price %s: %w", quote.Key(), err)
	}
	return row.quote(), nil
}
