package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"fxledger/internal/application"
	"fxledger/internal/config"
	"fxledger/internal/domain"
	infraconfig "fxledger/internal/infrastructure/config"
	"fxledger/internal/infrastructure/logx"
	"fxledger/internal/infrastructure/memory"
	"fxledger/internal/infrastructure/pg"
	"fxledger/internal/infrastructure/provider"
	redisstore "fxledger/internal/infrastructure/redis"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrMissingDBURL = errors.New("DATABASE_URL is required for STORAGE=pg")

// Repos groups the storage ports the services need.
type Repos struct {
	Rates    application.RateStore
	Invoices application.InvoiceRepo
	UoW      application.UnitOfWork
	Ping     func(ctx context.Context) error
}

type Services struct {
	Idem application.IdempotencyStore
	Ping func(ctx context.Context) error
}

// cleanups runs registered close funcs in reverse order.
type cleanups []func()

func (c *cleanups) add(fn func()) { *c = append(*c, fn) }

func (c cleanups) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func ProvideLogger() *zap.Logger { return logx.L() }

func ProvideConfig() config.Config { return config.Load() }

func ProvideDB(ctx context.Context, log *zap.Logger, cfg config.Config) (*pg.DB, func(), error) {
	if cfg.DatabaseURL == "" {
		return nil, func() {}, ErrMissingDBURL
	}
	db, err := pg.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, func() {}, err
	}
	if err := pg.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, func() {}, err
	}
	cleanup := func() {
		log.Info("closing pg")
		db.Close()
	}
	return db, cleanup, nil
}

// ProvideRepos picks the storage backend from STORAGE ("pg" or "memory").
func ProvideRepos(ctx context.Context, log *zap.Logger, cfg config.Config) (Repos, func(), error) {
	switch cfg.Storage {
	case "", "pg":
		db, cleanup, err := ProvideDB(ctx, log, cfg)
		if err != nil {
			return Repos{}, cleanup, err
		}
		return Repos{
			Rates:    pg.NewRateRepo(db),
			Invoices: pg.NewInvoiceRepo(db),
			UoW:      pg.NewUnitOfWork(db),
			Ping:     db.Ping,
		}, cleanup, nil
	case "memory":
		log.Warn("using in-memory storage; data is lost on restart")
		return Repos{
			Rates:    memory.NewRateStore(),
			Invoices: memory.NewInvoiceRepo(),
			UoW:      application.NoopUoW{},
		}, func() {}, nil
	default:
		return Repos{}, func() {}, fmt.Errorf("unsupported STORAGE=%q", cfg.Storage)
	}
}

func ProvideRedisClient(cfg config.Config) (*redis.Client, func(), error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return client, func() { _ = client.Close() }, nil
}

// ProvideIdempotency returns the redis-backed store, or a no-op one when
// IDEMPOTENCY_BACKEND is anything other than "redis".
func ProvideIdempotency(cfg config.Config) (Services, func(), error) {
	if cfg.IdempotencyBackend != "redis" {
		return Services{Idem: application.NoopIdempotency{}}, func() {}, nil
	}
	client, cleanup, err := ProvideRedisClient(cfg)
	if err != nil {
		return Services{}, cleanup, err
	}
	store := redisstore.New(client, cfg.RedisTTL)
	return Services{Idem: store, Ping: store.Ping}, cleanup, nil
}

func ProvideRateSource(cfg config.Config, log *zap.Logger) (application.RateSource, error) {
	switch cfg.Provider {
	case "", "boc":
		hc := &http.Client{Timeout: infraconfig.DefaultHTTPClientTimeout}
		return provider.NewBOC(cfg.RateSourceURL, hc, cfg.Location(), log), nil
	case "static":
		return provider.NewStatic(cfg.Location()), nil
	default:
		return nil, fmt.Errorf("unsupported PROVIDER=%q", cfg.Provider)
	}
}

func ProvideNormalizer(cfg config.Config) (*application.Normalizer, error) {
	pairs, err := domain.ParsePairs(cfg.CrossRatePairs)
	if err != nil {
		return nil, fmt.Errorf("CROSS_RATE_PAIRS: %w", err)
	}
	return application.NewNormalizer(cfg.BaseCurrency, pairs), nil
}

// App is the fully wired service layer shared by the API and worker binaries.
type App struct {
	Config   config.Config
	Log      *zap.Logger
	Rates    *application.RatesService
	Sync     *application.SyncService
	Invoices *application.InvoiceService
	Ready    func(ctx context.Context) error
}

func ProvideApp(ctx context.Context) (*App, func(), error) {
	var cl cleanups
	fail := func(err error) (*App, func(), error) {
		cl.run()
		return nil, func() {}, err
	}

	log := ProvideLogger()
	cfg := ProvideConfig()
	if !domain.ValidCode(cfg.BaseCurrency) {
		return fail(fmt.Errorf("BASE_CURRENCY: %w: %q", domain.ErrInvalidCurrency, cfg.BaseCurrency))
	}

	repos, closeRepos, err := ProvideRepos(ctx, log, cfg)
	cl.add(closeRepos)
	if err != nil {
		return fail(fmt.Errorf("storage: %w", err))
	}
	services, closeIdem, err := ProvideIdempotency(cfg)
	cl.add(closeIdem)
	if err != nil {
		return fail(fmt.Errorf("idempotency: %w", err))
	}
	source, err := ProvideRateSource(cfg, log)
	if err != nil {
		return fail(err)
	}
	normalizer, err := ProvideNormalizer(cfg)
	if err != nil {
		return fail(err)
	}

	opts := []application.Option{
		application.WithLocation(cfg.Location()),
		application.WithLogger(log),
	}
	lookup := application.NewRateLookup(repos.Rates, opts...)
	binder := application.NewBinder(lookup, opts...)

	app := &App{
		Config:   cfg,
		Log:      log,
		Rates:    application.NewRatesService(repos.Rates, lookup, opts...),
		Sync:     application.NewSyncService(source, repos.Rates, normalizer, cfg.FetchTimeout, opts...),
		Invoices: application.NewInvoiceService(repos.Invoices, binder, repos.UoW, services.Idem, cfg.BaseCurrency, opts...),
		Ready:    readyCheck(repos.Ping, services.Ping),
	}
	return app, cl.run, nil
}

func readyCheck(checks ...func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		for _, p := range checks {
			if p == nil {
				continue
			}
			if err := p(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}
