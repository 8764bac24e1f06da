package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/syncx"

	"folio-api/pkg/market"
)

// ErrNoPrice means there is no cached entry and the upstream fetch failed:
// the instrument is unknown or its provider is fully unreachable.
var ErrNoPrice = errors.New("pricing: no price available")

// storeError marks a failed store write so callers do not mistake it for a
// provider failure.
type storeError struct{ err error }

func (e *storeError) Error() string { return e.err.Error() }
func (e *storeError) Unwrap() error { return e.err }

// Status describes where a resolved quote came from.
type Status string

const (
	// StatusCached is a fresh store entry served without an upstream call.
	StatusCached Status = "cached"
	// StatusFetched is a quote fetched from the provider during this call.
	StatusFetched Status = "fetched"
	// StatusStale is an expired store entry served because the fetch failed.
	StatusStale Status = "stale"
)

// Resolution is a resolved quote together with its provenance status.
type Resolution struct {
	Quote  market.Quote `json:"quote"`
	Status Status       `json:"status"`
}

// Resolver is the single orchestration entry point for prices: cache lookup,
// staleness evaluation, provider fetch, cache update and stale fallback.
type Resolver struct {
	store   Store
	router  *market.Router
	cfg     Config
	flights syncx.SingleFlight
	now     func() time.Time
}

// Option customises a Resolver.
type Option func(*Resolver)

// WithClock overrides the time source used for staleness and fetchedAt.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// NewResolver wires a resolver over store and router.
func NewResolver(store Store, router *market.Router, cfg Config, opts ...Option) (*Resolver, error) {
	if store == nil {
		return nil, errors.New("pricing: store is required")
	}
	if router == nil {
		return nil, errors.New("pricing: router is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Resolver{
		store:   store,
		router:  router,
		cfg:     cfg,
		flights: syncx.NewSingleFlight(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve returns a quote for ticker that is fresh, or stale when the
// provider is failing. ErrNoPrice is returned when neither is available.
func (r *Resolver) Resolve(ctx context.Context, ticker string, class market.AssetClass, currency string) (*market.Quote, error) {
	res, err := r.ResolveDetailed(ctx, market.NewKey(ticker, class, currency))
	if err != nil {
		return nil, err
	}
	return &res.Quote, nil
}

// ResolveDetailed is Resolve with the provenance status of the result.
func (r *Resolver) ResolveDetailed(ctx context.Context, key market.Key) (*Resolution, error) {
	if !key.AssetClass.Valid() {
		return nil, fmt.Errorf("pricing: %w: %q", market.ErrUnknownAssetClass, key.AssetClass)
	}
	if key.Ticker == "" {
		return nil, fmt.Errorf("%w: empty ticker", ErrNoPrice)
	}

	cached, err := r.lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if cached != nil && !r.isStale(cached) {
		return &Resolution{Quote: *cached, Status: StatusCached}, nil
	}

	quote, err := r.refresh(ctx, key)
	if err == nil {
		return &Resolution{Quote: *quote, Status: StatusFetched}, nil
	}
	var storeErr *storeError
	if errors.As(err, &storeErr) {
		return nil, err
	}
	if cached != nil {
		logx.WithContext(ctx).Infof("pricing: serving stale quote key=%s age=%s err=%v",
			key, cached.Age(r.now()).Truncate(time.Second), err)
		return &Resolution{Quote: *cached, Status: StatusStale}, nil
	}
	return nil, fmt.Errorf("%w: %s: %v", ErrNoPrice, key, err)
}

// Warm refreshes the stale or missing tickers of class through the adapter's
// batch endpoint in one upstream round trip and returns how many quotes were
// stored. Adapters without a batch endpoint are left to per-ticker resolves.
func (r *Resolver) Warm(ctx context.Context, class market.AssetClass, currency string, tickers []string) (int, error) {
	adapter, err := r.router.Route(class)
	if err != nil {
		return 0, err
	}
	batcher, ok := adapter.(market.BatchAdapter)
	if !ok {
		return 0, nil
	}

	keys := make(map[string]market.Key, len(tickers))
	symbols := make([]string, 0, len(tickers))
	for _, ticker := range tickers {
		key := market.NewKey(ticker, class, currency)
		if key.Ticker == "" {
			continue
		}
		if _, dup := keys[key.Ticker]; dup {
			continue
		}
		cached, err := r.lookup(ctx, key)
		if err != nil {
			return 0, err
		}
		if cached != nil && !r.isStale(cached) {
			continue
		}
		keys[key.Ticker] = key
		symbols = append(symbols, key.Ticker)
	}
	if len(symbols) == 0 {
		return 0, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, r.cfg.FetchTimeout)
	defer cancel()
	fragments, err := batcher.FetchBatch(fetchCtx, symbols)
	if err != nil {
		return 0, err
	}
	stored := 0
	for _, symbol := range symbols {
		fragment, ok := fragments[symbol]
		if !ok || fragment == nil {
			continue
		}
		if _, err := r.save(fetchCtx, keys[symbol], batcher.Name(), fragment); err != nil {
			continue
		}
		stored++
	}
	return stored, nil
}

type flightResult struct {
	quote   market.Quote
	fetched bool
}

// refresh fetches key from its provider and stores the result. Concurrent
// refreshes of the same key share one flight. The flight is detached from the
// caller's cancellation and bounded by the fetch timeout so that one caller
// giving up does not fail the others.
func (r *Resolver) refresh(ctx context.Context, key market.Key) (*market.Quote, error) {
	adapter, err := r.router.Route(key.AssetClass)
	if err != nil {
		return nil, err
	}
	val, err := r.flights.Do(key.String(), func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.FetchTimeout)
		defer cancel()

		// A flight that finished just before this one may already have stored a fresh quote.
		if current, err := r.lookup(fetchCtx, key); err == nil && current != nil && !r.isStale(current) {
			return flightResult{quote: *current}, nil
		}

		fragment, err := adapter.Fetch(fetchCtx, key.Ticker)
		if err != nil {
			return nil, err
		}
		stored, err := r.save(fetchCtx, key, adapter.Name(), fragment)
		if err != nil {
			return nil, err
		}
		return flightResult{quote: *stored, fetched: true}, nil
	})
	if err != nil {
		return nil, err
	}
	res := val.(flightResult)
	return &res.quote, nil
}

func (r *Resolver) save(ctx context.Context, key market.Key, provider string, fragment *market.Fragment) (*market.Quote, error) {
	// Postgres keeps microsecond precision; truncating here keeps the returned
	// quote identical to what a later read yields.
	fetchedAt := r.now().UTC().Truncate(time.Microsecond)
	quote := fragment.Quote(key, provider, fetchedAt)
	stored, err := r.store.Upsert(ctx, quote)
	if err != nil {
		logx.WithContext(ctx).Errorf("pricing: upsert key=%s err=%v", key, err)
		return nil, &storeError{err: fmt.Errorf("pricing: upsert %s: %w", key, err)}
	}
	return stored, nil
}

func (r *Resolver) lookup(ctx context.Context, key market.Key) (*market.Quote, error) {
	quote, err := r.store.Get(ctx, key)
	switch {
	case err == nil:
		return quote, nil
	case errors.Is(err, ErrNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("pricing: load %s: %w", key, err)
	}
}

func (r *Resolver) isStale(q *market.Quote) bool {
	return q.IsStale(r.now(), r.cfg.TTLFor(q.AssetClass))
}
