package holdings

import (
	"context"
	"fmt"
	"sort"

	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"folio-api/pkg/market"
)

// Registry lists the instruments currently held by any portfolio.
type Registry interface {
	ListDistinctTickers(ctx context.Context, class market.AssetClass) ([]string, error)
}

// PostgresRegistry reads holdings from the assets table owned by the
// portfolio service.
type PostgresRegistry struct {
	conn sqlx.SqlConn
}

func NewPostgresRegistry(conn sqlx.SqlConn) *PostgresRegistry {
	return &PostgresRegistry{conn: conn}
}

// ListDistinctTickers implements Registry.
func (r *PostgresRegistry) ListDistinctTickers(ctx context.Context, class market.AssetClass) ([]string, error) {
	const stmt = `
SELECT DISTINCT ticker
FROM public.assets
WHERE ticker IS NOT NULL AND ticker <> '' AND type = $1
ORDER BY ticker`
	var tickers []string
	if err := r.conn.QueryRowsCtx(ctx, &tickers, stmt, string(class)); err != nil {
		return nil, fmt.Errorf("list held tickers for %s: %w", class, err)
	}
	return tickers, nil
}

// StaticRegistry serves a fixed ticker list per class, for deployments
// without a portfolio database.
type StaticRegistry struct {
	tickers map[market.AssetClass][]string
}

// NewStaticRegistry normalises, de-duplicates and sorts the configured tickers.
func NewStaticRegistry(tickers map[market.AssetClass][]string) *StaticRegistry {
	table := make(map[market.AssetClass][]string, len(tickers))
	for class, list := range tickers {
		seen := make(map[string]struct{}, len(list))
		out := make([]string, 0, len(list))
		for _, raw := range list {
			ticker := market.NormalizeTicker(raw)
			if ticker == "" {
				continue
			}
			if _, dup := seen[ticker]; dup {
				continue
			}
			seen[ticker] = struct{}{}
			out = append(out, ticker)
		}
		sort.Strings(out)
		table[class] = out
	}
	return &StaticRegistry{tickers: table}
}

// ListDistinctTickers implements Registry.
func (r *StaticRegistry) ListDistinctTickers(_ context.Context, class market.AssetClass) ([]string, error) {
	list := r.tickers[class]
	out := make([]string, len(list))
	copy(out, list)
	return out, nil
}
