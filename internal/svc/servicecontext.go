package svc

import (
	"log"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	cachekeys "folio-api/internal/cache"
	"folio-api/internal/config"
	"folio-api/internal/holdings"
	pricepersist "folio-api/internal/persistence/price"
	"folio-api/pkg/journal"
	marketpkg "folio-api/pkg/market"
	_ "folio-api/pkg/market/providers/coingecko"
	_ "folio-api/pkg/market/providers/metalsapi"
	_ "folio-api/pkg/market/providers/polygon"
	"folio-api/pkg/pricing"
	"folio-api/pkg/refresh"
)

type ServiceContext struct {
	Config config.Config

	MarketConfig    *marketpkg.Config
	MarketProviders map[string]marketpkg.Adapter
	Router          *marketpkg.Router
	// Searcher is the first configured provider able to look up tickers.
	Searcher marketpkg.Searcher

	DBConn   sqlx.SqlConn
	Redis    *redis.Redis
	Store    pricing.Store
	Holdings holdings.Registry
	Resolver *pricing.Resolver
	Journal  *journal.Writer

	// Scheduler is built with every configured task but not started.
	Scheduler *refresh.Scheduler
}

func NewServiceContext(c config.Config) *ServiceContext {
	svc := &ServiceContext{Config: c}

	marketCfg, marketPath := c.MarketConfig()
	router, providers, err := marketCfg.BuildRouter()
	if err != nil {
		log.Fatalf("failed to build market router from %s: %v", marketPath, err)
	}
	svc.MarketConfig = marketCfg
	svc.MarketProviders = providers
	svc.Router = router
	for _, adapter := range router.Adapters() {
		if searcher, ok := adapter.(marketpkg.Searcher); ok {
			svc.Searcher = searcher
			break
		}
	}

	pricingCfg := c.PricingConfig()

	// Postgres is authoritative when configured; otherwise prices live in memory.
	if c.Postgres.DSN != "" {
		conn := sqlx.NewSqlConn("pgx", c.Postgres.DSN)
		if raw, err := conn.RawDB(); err == nil {
			raw.SetMaxOpenConns(c.Postgres.MaxOpen)
			raw.SetMaxIdleConns(c.Postgres.MaxIdle)
		}
		svc.DBConn = conn
		svc.Store = pricepersist.NewPostgresStore(conn)
	} else {
		svc.Store = pricepersist.NewMemoryStore()
	}
	if strings.TrimSpace(c.Redis.Host) != "" {
		rds, err := redis.NewRedis(c.Redis)
		if err != nil {
			log.Fatalf("failed to init redis: %v", err)
		}
		svc.Redis = rds
		svc.Store = pricepersist.NewRedisStore(svc.Store, rds, pricingCfg.TTLFor)
	}

	resolver, err := pricing.NewResolver(svc.Store, router, pricingCfg)
	if err != nil {
		log.Fatalf("failed to build price resolver: %v", err)
	}
	svc.Resolver = resolver

	switch c.Holdings.Source {
	case config.HoldingsPostgres:
		svc.Holdings = holdings.NewPostgresRegistry(svc.DBConn)
	default:
		svc.Holdings = holdings.NewStaticRegistry(c.StaticHoldings())
	}

	opts := []refresh.Option{
		refresh.WithCurrency(c.Currency),
		refresh.WithWorkers(c.Schedule.Workers),
	}
	if c.Journal.Dir != "" {
		svc.Journal = journal.NewWriter(c.Journal.Dir)
		opts = append(opts, refresh.WithJournal(svc.Journal))
	}
	if svc.Redis != nil {
		opts = append(opts, refresh.WithLocker(refresh.NewRedisLocker(svc.Redis, cachekeys.RefreshLockKey, c.Schedule.LockExpire)))
	}
	svc.Scheduler = refresh.NewScheduler(resolver, svc.Holdings, opts...)
	for _, task := range c.Tasks() {
		if err := svc.Scheduler.AddTask(task); err != nil {
			log.Fatalf("failed to register refresh task %s: %v", task.Name, err)
		}
	}
	return svc
}
