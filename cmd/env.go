package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/lacak-emas/lacak-emas-api/internal/cache"
	"github.com/lacak-emas/lacak-emas-api/internal/config"
	"github.com/lacak-emas/lacak-emas-api/internal/extract"
	"github.com/lacak-emas/lacak-emas-api/internal/fetcher"
	"github.com/lacak-emas/lacak-emas-api/internal/metrics"
	"github.com/lacak-emas/lacak-emas-api/internal/pricing"
	"github.com/lacak-emas/lacak-emas-api/internal/store"
	"github.com/lacak-emas/lacak-emas-api/internal/syncer"
	"github.com/lacak-emas/lacak-emas-api/internal/vendor"
)

// appEnv holds everything a command needs to scrape, persist and serve.
type appEnv struct {
	Catalog *vendor.Catalog
	Prices  *pricing.Service
	Store   store.Store
	Syncer  *syncer.Syncer
	Metrics *metrics.Metrics
}

// Close releases the store.
func (e *appEnv) Close() {
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("close store", zap.Error(err))
		}
	}
}

// initEnv validates c for mode, then builds the scraper, the store and the
// syncer. Callers should defer env.Close().
func initEnv(ctx context.Context, c *config.Config, mode string) (*appEnv, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	catalog, err := vendor.Load(c.Vendors.Path)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	svc := newPriceService(c, catalog, m)

	st, err := initStore(ctx, c)
	if err != nil {
		return nil, err
	}

	return &appEnv{
		Catalog: catalog,
		Prices:  svc,
		Store:   st,
		Syncer: syncer.New(st,
			syncer.WithConcurrency(c.Sync.Concurrency),
			syncer.WithSource(c.Sync.Source),
			syncer.WithRecorder(m),
		),
		Metrics: m,
	}, nil
}

func newPriceService(c *config.Config, catalog *vendor.Catalog, m *metrics.Metrics) *pricing.Service {
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:         c.Source.UserAgent,
		Timeout:           c.Source.Timeout(),
		MaxBodyBytes:      c.Source.MaxBodyBytes,
		RequestsPerSecond: c.Source.RequestsPerSecond,
		Burst:             c.Source.Burst,
	})
	ex := extract.New(catalog.Markers(),
		extract.WithLocation(c.Location()),
		extract.WithTunables(c.Extract.Window, c.Extract.MaxDistance, c.Extract.MinSchemaMatches),
	)
	return pricing.NewService(f, ex, cache.New[pricing.Result](c.Cache.TTL(), c.Cache.Capacity),
		pricing.WithSourceURL(c.Source.URL),
		pricing.WithRecorder(m),
	)
}

// initStore opens the configured store and applies its schema.
func initStore(ctx context.Context, c *config.Config) (store.Store, error) {
	st, err := store.Open(ctx, store.Options{
		Driver:      c.Store.Driver,
		DatabaseURL: c.Store.DatabaseURL,
		SupabaseURL: c.Supabase.URL,
		SupabaseKey: c.Supabase.Key,
		Pool: &store.PoolConfig{
			MaxConns: c.Store.MaxConns,
			MinConns: c.Store.MinConns,
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	if store.IsDisabled(st) {
		zap.L().Info("persistence disabled, history and sync endpoints return 503")
	} else {
		zap.L().Info("store ready", zap.String("driver", c.Store.Driver))
	}
	return st, nil
}
