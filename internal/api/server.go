// Package api serves gold prices, history and feeds over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/lacak-emas/lacak-emas-api/internal/metrics"
	"github.com/lacak-emas/lacak-emas-api/internal/model"
	"github.com/lacak-emas/lacak-emas-api/internal/pricing"
	"github.com/lacak-emas/lacak-emas-api/internal/store"
	"github.com/lacak-emas/lacak-emas-api/internal/syncer"
	"github.com/lacak-emas/lacak-emas-api/internal/vendor"
)

// Version is reported by /info.
const Version = "2.0.0"

// SourceName is the public name of the scraped site.
const SourceName = "galeri24.co.id"

// Prices is the read path the API serves from. *pricing.Service satisfies it.
type Prices interface {
	Prices(ctx context.Context, useCache bool) (pricing.Result, error)
	ClearCache()
	SourceURL() string
	CacheTTL() time.Duration
}

// Deps are the collaborators of a Server.
type Deps struct {
	Prices  Prices
	Store   store.Store
	Syncer  *syncer.Syncer
	Catalog *vendor.Catalog
	Metrics *metrics.Metrics
	// BaseURL is this API's public URL, used for feed self links.
	BaseURL     string
	CORSOrigins []string
	Location    *time.Location
	Now         func() time.Time
}

// Server holds the HTTP handlers.
type Server struct {
	prices  Prices
	store   store.Store
	syncer  *syncer.Syncer
	catalog *vendor.Catalog
	metrics *metrics.Metrics
	baseURL string
	origins []string
	loc     *time.Location
	now     func() time.Time
}

// New creates a Server. Missing optional deps get working defaults.
func New(d Deps) *Server {
	s := &Server{
		prices:  d.Prices,
		store:   d.Store,
		syncer:  d.Syncer,
		catalog: d.Catalog,
		metrics: d.Metrics,
		baseURL: d.BaseURL,
		origins: d.CORSOrigins,
		loc:     d.Location,
		now:     d.Now,
	}
	if s.store == nil {
		s.store = store.Disabled{}
	}
	if s.syncer == nil {
		s.syncer = syncer.New(s.store)
	}
	if s.catalog == nil {
		s.catalog = vendor.Default()
	}
	if s.loc == nil {
		s.loc = time.FixedZone("WIB", 7*60*60)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if len(s.origins) == 0 {
		s.origins = []string{"*"}
	}
	return s
}

// Handler returns the router with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/", s.handleInfo)
	r.Get("/info", s.handleInfo)
	r.Get("/health", s.handleHealth)
	r.Get("/vendors", s.handleVendors)

	r.Route("/prices", func(r chi.Router) {
		r.Get("/", s.handlePrices)
		r.Get("/changes", s.handleChanges)
		r.Get("/history", s.handleHistory)
		r.Get("/trend", s.handleTrend)
		r.Post("/sync", s.handleSync)
	})
	r.Post("/cache/clear", s.handleCacheClear)

	r.Route("/feed", func(r chi.Router) {
		r.Get("/rss", s.handlePricesRSS)
		r.Get("/atom", s.handlePricesAtom)
		r.Get("/changes", s.handleChangesRSS)
	})

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	return r
}

// logRequests logs each request and records it in metrics under its route
// pattern.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		if s.metrics != nil {
			s.metrics.ObserveHTTP(route, ww.Status(), elapsed)
		}
		zap.L().Debug("api: request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", elapsed),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// today is the current calendar date in the source's timezone.
func (s *Server) today() time.Time {
	return model.DateOf(s.now().In(s.loc))
}

func (s *Server) timestamp() string {
	return s.now().In(s.loc).Format(time.RFC3339)
}
