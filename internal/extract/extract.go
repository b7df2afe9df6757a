package extract

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/lacak-emas/lacak-emas-api/internal/model"
	"github.com/lacak-emas/lacak-emas-api/internal/nuxt"
)

// Method names which extractor produced a report's records.
type Method string

const (
	MethodSchema    Method = "schema"
	MethodProximity Method = "proximity"
	MethodNone      Method = "none"
)

// Report is the outcome of one extraction.
type Report struct {
	Records    []model.PriceRecord
	Method     Method
	Candidates int
	Rejected   map[string]int
}

// Extractor runs the full page-to-records pipeline.
type Extractor struct {
	markers          []string
	location         *time.Location
	now              func() time.Time
	window           int
	maxDistance      int
	minSchemaMatches int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLocation sets the timezone used to compute the fallback date.
func WithLocation(loc *time.Location) Option {
	return func(e *Extractor) {
		if loc != nil {
			e.location = loc
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// WithTunables overrides the heuristic window, pairing distance and schema
// match threshold. Zero keeps the default.
func WithTunables(window, maxDistance, minSchemaMatches int) Option {
	return func(e *Extractor) {
		e.window = window
		e.maxDistance = maxDistance
		e.minSchemaMatches = minSchemaMatches
	}
}

// New builds an Extractor that recognizes vendor names by markers.
func New(markers []string, opts ...Option) *Extractor {
	e := &Extractor{
		markers:  markers,
		location: time.UTC,
		now:      time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Extractor) options() Options {
	return Options{
		Markers:          e.markers,
		Today:            e.now().In(e.location),
		Window:           e.window,
		MaxDistance:      e.maxDistance,
		MinSchemaMatches: e.minSchemaMatches,
	}.withDefaults()
}

// Extract parses an HTML page. Structural problems with the payload are
// logged and yield an empty report; they are never returned as errors.
func (e *Extractor) Extract(html string) Report {
	log := zap.L().With(zap.String("component", "extract"))

	pool, err := nuxt.Locate(html)
	if err != nil {
		reason := "malformed"
		if errors.Is(err, nuxt.ErrNoHydration) {
			reason = "missing"
		}
		log.Error("hydration payload unusable",
			zap.String("reason", reason),
			zap.Int("html_bytes", len(html)),
			zap.Error(err),
		)
		return Report{Method: MethodNone}
	}
	log.Debug("hydration payload decoded", zap.Int("pool_size", pool.Len()))

	return e.FromPool(pool)
}

// FromPool runs extraction over an already decoded pool.
func (e *Extractor) FromPool(pool *nuxt.Pool) Report {
	log := zap.L().With(zap.String("component", "extract"))
	opts := e.options()

	method := MethodSchema
	candidates := ExtractBySchema(pool, opts)
	if len(candidates) == 0 {
		log.Info("no schema objects found, falling back to proximity scan")
		method = MethodProximity
		candidates = ExtractByProximity(pool, opts)
	}
	if len(candidates) == 0 {
		log.Warn("no price candidates found", zap.Int("pool_size", pool.Len()))
		return Report{Method: MethodNone}
	}

	report := Report{Method: method, Candidates: len(candidates)}
	records := make([]model.PriceRecord, 0, len(candidates))
	for _, c := range candidates {
		rec, err := Normalize(c, opts.Today)
		if err != nil {
			var rej *RejectError
			if errors.As(err, &rej) {
				if report.Rejected == nil {
					report.Rejected = make(map[string]int)
				}
				report.Rejected[rej.Reason]++
			}
			log.Debug("candidate rejected", zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	report.Records = Finalize(records)

	log.Info("extraction complete",
		zap.String("method", string(method)),
		zap.Int("candidates", report.Candidates),
		zap.Int("records", len(report.Records)),
		zap.Any("rejected", report.Rejected),
	)
	return report
}
