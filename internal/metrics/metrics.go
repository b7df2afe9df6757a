// Package metrics exposes Prometheus instrumentation for the scraper and
// API. All collectors live on a private registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	registry *prometheus.Registry

	ScrapesTotal     *prometheus.CounterVec // labels: method (schema|proximity|none|error)
	ScrapeDuration   prometheus.Histogram
	RecordsExtracted prometheus.Gauge
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter

	SyncRecordsTotal *prometheus.CounterVec // labels: result (saved|failed)
	ChangesDetected  *prometheus.CounterVec // labels: trend

	HTTPRequests *prometheus.CounterVec // labels: route, status
	HTTPDuration *prometheus.HistogramVec
}

// New registers and returns all metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ScrapesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lacak_emas_scrapes_total",
			Help: "Page scrapes by extraction method",
		}, []string{"method"}),
		ScrapeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lacak_emas_scrape_duration_seconds",
			Help:    "Fetch plus extraction latency",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
		RecordsExtracted: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lacak_emas_records_extracted",
			Help: "Price records produced by the latest scrape",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lacak_emas_cache_hits_total",
			Help: "Price list reads served from cache",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lacak_emas_cache_misses_total",
			Help: "Price list reads that required a scrape",
		}),
		SyncRecordsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lacak_emas_sync_records_total",
			Help: "Records persisted by sync runs",
		}, []string{"result"}),
		ChangesDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lacak_emas_changes_detected_total",
			Help: "Day-over-day price changes by trend",
		}, []string{"trend"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lacak_emas_http_requests_total",
			Help: "API requests by route and status",
		}, []string{"route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lacak_emas_http_request_duration_seconds",
			Help:    "API request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ScrapesTotal,
		m.ScrapeDuration,
		m.RecordsExtracted,
		m.CacheHits,
		m.CacheMisses,
		m.SyncRecordsTotal,
		m.ChangesDetected,
		m.HTTPRequests,
		m.HTTPDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveScrape records one completed or failed scrape.
func (m *Metrics) ObserveScrape(method string, records int, elapsed time.Duration) {
	m.ScrapesTotal.WithLabelValues(method).Inc()
	m.ScrapeDuration.Observe(elapsed.Seconds())
	if method != "error" {
		m.RecordsExtracted.Set(float64(records))
	}
}

// ObserveCache records a cache lookup.
func (m *Metrics) ObserveCache(hit bool) {
	if hit {
		m.CacheHits.Inc()
		return
	}
	m.CacheMisses.Inc()
}

// ObserveSync records one persisted or failed record and, when non-empty,
// the trend of a detected change.
func (m *Metrics) ObserveSync(saved bool, trend string) {
	result := "saved"
	if !saved {
		result = "failed"
	}
	m.SyncRecordsTotal.WithLabelValues(result).Inc()
	if trend != "" {
		m.ChangesDetected.WithLabelValues(trend).Inc()
	}
}

// ObserveHTTP records one API request. route is the matched pattern, not the
// raw path.
func (m *Metrics) ObserveHTTP(route string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
