// Package syncer persists a scrape and records day-over-day price changes.
package syncer

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lacak-emas/lacak-emas-api/internal/change"
	"github.com/lacak-emas/lacak-emas-api/internal/model"
	"github.com/lacak-emas/lacak-emas-api/internal/store"
)

// DefaultConcurrency bounds in-flight store writes.
const DefaultConcurrency = 4

// Recorder receives per-record outcomes.
type Recorder interface {
	ObserveSync(saved bool, trend string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveSync(bool, string) {}

// Summary reports the outcome of one Sync.
type Summary struct {
	RunID    string              `json:"run_id"`
	Saved    int                 `json:"saved"`
	Failed   int                 `json:"failed"`
	Changes  []model.PriceChange `json:"changes"`
	Duration time.Duration       `json:"-"`
}

// Syncer writes records to a Store.
type Syncer struct {
	store       store.Store
	recorder    Recorder
	concurrency int
	source      string
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithConcurrency overrides DefaultConcurrency.
func WithConcurrency(n int) Option {
	return func(s *Syncer) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) Option {
	return func(s *Syncer) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithSource sets the source column written with each price.
func WithSource(source string) Option {
	return func(s *Syncer) {
		s.source = source
	}
}

// New creates a Syncer over st.
func New(st store.Store, opts ...Option) *Syncer {
	s := &Syncer{
		store:       st,
		recorder:    nopRecorder{},
		concurrency: DefaultConcurrency,
		source:      store.DefaultSource,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Sync upserts every record and saves any change against the previous day.
// Records are independent: a failure is logged and counted and never stops
// the others. The only error returned is store.ErrDisabled.
func (s *Syncer) Sync(ctx context.Context, records []model.PriceRecord) (Summary, error) {
	if store.IsDisabled(s.store) {
		return Summary{}, store.ErrDisabled
	}

	start := time.Now()
	sum := Summary{RunID: uuid.NewString(), Changes: []model.PriceChange{}}
	log := zap.L().With(zap.String("run_id", sum.RunID))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, rec := range records {
		g.Go(func() error {
			c, err := s.syncOne(gctx, rec)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				sum.Failed++
				s.recorder.ObserveSync(false, "")
				log.Warn("syncer: record failed",
					zap.String("vendor", rec.Vendor),
					zap.Float64("weight", rec.Weight),
					zap.Error(err),
				)
				return nil
			}
			sum.Saved++
			trend := ""
			if c != nil {
				sum.Changes = append(sum.Changes, *c)
				trend = string(c.Trend)
			}
			s.recorder.ObserveSync(true, trend)
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(sum.Changes, func(i, j int) bool {
		a, b := sum.Changes[i], sum.Changes[j]
		if a.Vendor != b.Vendor {
			return a.Vendor < b.Vendor
		}
		return a.Weight < b.Weight
	})
	sum.Duration = time.Since(start)

	log.Info("syncer: done",
		zap.Int("records", len(records)),
		zap.Int("saved", sum.Saved),
		zap.Int("failed", sum.Failed),
		zap.Int("changes", len(sum.Changes)),
		zap.Duration("elapsed", sum.Duration),
	)
	return sum, nil
}

// syncOne persists rec. A change-detection failure after a successful upsert
// is logged and does not fail the record.
func (s *Syncer) syncOne(ctx context.Context, rec model.PriceRecord) (*model.PriceChange, error) {
	if err := s.store.UpsertPrice(ctx, rec, s.source); err != nil {
		return nil, err
	}

	c, err := change.Detect(ctx, rec.Vendor, rec.Weight, rec.SellingPrice, rec.Date, s.store.SellingPriceOn)
	if err != nil {
		zap.L().Warn("syncer: change detection failed", zap.String("vendor", rec.Vendor), zap.Error(err))
		return nil, nil
	}
	if c == nil {
		return nil, nil
	}
	if err := s.store.SaveChange(ctx, *c); err != nil {
		zap.L().Warn("syncer: save change failed", zap.String("vendor", rec.Vendor), zap.Error(err))
		return nil, nil
	}
	return c, nil
}
