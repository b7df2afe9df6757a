// Package pricing serves the current gold price list: a read-through cache
// in front of the page fetcher and extraction pipeline.
package pricing

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/lacak-emas/lacak-emas-api/internal/cache"
	"github.com/lacak-emas/lacak-emas-api/internal/extract"
	"github.com/lacak-emas/lacak-emas-api/internal/fetcher"
	"github.com/lacak-emas/lacak-emas-api/internal/model"
)

// CacheKey is the single key under which the scraped list is cached.
const CacheKey = "galeri24_prices"

// DefaultSourceURL is the Galeri24 price page.
const DefaultSourceURL = "https://galeri24.co.id/harga-emas"

// Result is one price list read.
type Result struct {
	Records   []model.PriceRecord
	Cached    bool
	FetchedAt time.Time
	Method    extract.Method
}

// Recorder receives scrape and cache observations. *metrics.Metrics
// satisfies it.
type Recorder interface {
	ObserveScrape(method string, records int, elapsed time.Duration)
	ObserveCache(hit bool)
}

type nopRecorder struct{}

func (nopRecorder) ObserveScrape(string, int, time.Duration) {}
func (nopRecorder) ObserveCache(bool)                        {}

// Service fetches, extracts and caches price lists. Concurrent misses are
// not coalesced: each one fetches the page.
type Service struct {
	fetcher   fetcher.Fetcher
	extractor *extract.Extractor
	cache     *cache.Cache[Result]
	sourceURL string
	recorder  Recorder
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithSourceURL overrides the page URL.
func WithSourceURL(u string) Option {
	return func(s *Service) {
		if u != "" {
			s.sourceURL = u
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires a service. The cache is owned by the caller and may be
// shared.
func NewService(f fetcher.Fetcher, e *extract.Extractor, c *cache.Cache[Result], opts ...Option) *Service {
	s := &Service{
		fetcher:   f,
		extractor: e,
		cache:     c,
		sourceURL: DefaultSourceURL,
		recorder:  nopRecorder{},
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SourceURL returns the page being scraped.
func (s *Service) SourceURL() string { return s.sourceURL }

// Prices returns the current list. With useCache false the cache is not
// read, but a fresh non-empty result still replaces the cached one. Fetch
// failures are returned; extraction problems yield an empty list.
func (s *Service) Prices(ctx context.Context, useCache bool) (Result, error) {
	if useCache {
		if hit, ok := s.cache.Get(CacheKey); ok {
			s.recorder.ObserveCache(true)
			zap.L().Debug("returning cached prices", zap.Int("records", len(hit.Records)))
			hit.Cached = true
			return hit, nil
		}
		s.recorder.ObserveCache(false)
	}

	start := s.now()
	html, err := s.fetcher.Fetch(ctx, s.sourceURL)
	if err != nil {
		s.recorder.ObserveScrape("error", 0, s.now().Sub(start))
		return Result{}, eris.Wrap(err, "pricing: fetch source page")
	}

	report := s.extractor.Extract(html)
	res := Result{
		Records:   report.Records,
		FetchedAt: s.now(),
		Method:    report.Method,
	}
	s.recorder.ObserveScrape(string(report.Method), len(res.Records), res.FetchedAt.Sub(start))

	if len(res.Records) > 0 {
		s.cache.Put(CacheKey, res)
	}
	return res, nil
}

// ClearCache drops the cached list.
func (s *Service) ClearCache() {
	s.cache.Clear()
}

// SetCacheTTL replaces the cache store with one using ttl. The cached list
// is discarded.
func (s *Service) SetCacheTTL(ttl time.Duration) {
	s.cache.Reconfigure(ttl)
}

// CacheTTL returns the current cache lifetime.
func (s *Service) CacheTTL() time.Duration {
	return s.cache.TTL()
}
