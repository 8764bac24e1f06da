package pricepersist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeromicro/go-zero/core/logx"

	cachekeys "folio-api/internal/cache"
	"folio-api/pkg/market"
	"folio-api/pkg/pricing"
)

// HotCache is the subset of *redis.Redis used for hot copies.
type HotCache interface {
	GetCtx(ctx context.Context, key string) (string, error)
	SetexCtx(ctx context.Context, key, value string, seconds int) error
}

// RedisStore fronts an authoritative Store with msgpack-encoded hot copies in
// Redis. Redis failures are logged and fall through to the backing store.
type RedisStore struct {
	backing pricing.Store
	redis   HotCache
	ttl     func(market.AssetClass) time.Duration
}

var _ pricing.Store = (*RedisStore)(nil)

// NewRedisStore decorates backing. ttl returns the staleness window of a
// class; hot copies live for cachekeys.PriceTTL of it.
func NewRedisStore(backing pricing.Store, rds HotCache, ttl func(market.AssetClass) time.Duration) *RedisStore {
	return &RedisStore{backing: backing, redis: rds, ttl: ttl}
}

// Get implements pricing.Store.
func (s *RedisStore) Get(ctx context.Context, key market.Key) (*market.Quote, error) {
	redisKey := cachekeys.PriceKey(key)
	raw, err := s.redis.GetCtx(ctx, redisKey)
	if err != nil {
		logx.WithContext(ctx).Errorf("price cache get %s: %v", redisKey, err)
	} else if raw != "" {
		quote, err := decodeQuote([]byte(raw))
		if err == nil {
			return quote, nil
		}
		logx.WithContext(ctx).Errorf("price cache decode %s: %v", redisKey, err)
	}

	quote, err := s.backing.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	s.setHot(ctx, *quote)
	return quote, nil
}

// Upsert implements pricing.Store. The backing store is written first so
// Redis never holds a value Postgres rejected.
func (s *RedisStore) Upsert(ctx context.Context, quote market.Quote) (*market.Quote, error) {
	stored, err := s.backing.Upsert(ctx, quote)
	if err != nil {
		return nil, err
	}
	s.setHot(ctx, *stored)
	return stored, nil
}

func (s *RedisStore) setHot(ctx context.Context, quote market.Quote) {
	expire := cachekeys.PriceTTL(s.ttl(quote.AssetClass))
	if expire <= 0 {
		return
	}
	payload, err := encodeQuote(quote)
	if err != nil {
		logx.WithContext(ctx).Errorf("price cache encode %s: %v", quote.Key(), err)
		return
	}
	redisKey := cachekeys.PriceKey(quote.Key())
	if err := s.redis.SetexCtx(ctx, redisKey, string(payload), int(expire/time.Second)); err != nil {
		logx.WithContext(ctx).Errorf("price cache set %s: %v", redisKey, err)
	}
}

// wireQuote keeps decimals as strings so no precision is lost in transit.
type wireQuote struct {
	Ticker        string    `msgpack:"t"`
	AssetClass    string    `msgpack:"a"`
	Currency      string    `msgpack:"c"`
	Price         string    `msgpack:"p"`
	Change        *string   `msgpack:"ch,omitempty"`
	ChangePercent *string   `msgpack:"cp,omitempty"`
	PreviousClose *string   `msgpack:"pc,omitempty"`
	Provider      string    `msgpack:"pv"`
	FetchedAt     time.Time `msgpack:"at"`
}

func encodeQuote(q market.Quote) ([]byte, error) {
	return msgpack.Marshal(wireQuote{
		Ticker:        q.Ticker,
		AssetClass:    string(q.AssetClass),
		Currency:      q.Currency,
		Price:         q.Price.String(),
		Change:        nullToWire(q.Change),
		ChangePercent: nullToWire(q.ChangePercent),
		PreviousClose: nullToWire(q.PreviousClose),
		Provider:      q.Provider,
		FetchedAt:     q.FetchedAt.UTC(),
	})
}

func decodeQuote(data []byte) (*market.Quote, error) {
	var w wireQuote
	if err := msgpack.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	price, err := decimal.NewFromString(w.Price)
	if err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}
	q := &market.Quote{
		Ticker:     w.Ticker,
		AssetClass: market.AssetClass(w.AssetClass),
		Currency:   w.Currency,
		Price:      price,
		Provider:   w.Provider,
		FetchedAt:  w.FetchedAt.UTC(),
	}
	var errs []error
	q.Change, err = wireToNull(w.Change)
	errs = append(errs, err)
	q.ChangePercent, err = wireToNull(w.ChangePercent)
	errs = append(errs, err)
	q.PreviousClose, err = wireToNull(w.PreviousClose)
	errs = append(errs, err)
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return q, nil
}

func nullToWire(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.String()
	return &s
}

func wireToNull(s *string) (decimal.NullDecimal, error) {
	if s == nil {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}
