// Package store persists daily price snapshots and detected price changes.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/lacak-emas/lacak-emas-api/internal/model"
)

// DefaultSource tags rows written by the scraper.
const DefaultSource = "galeri24"

// DefaultHistoryLimit caps History when no limit is given.
const DefaultHistoryLimit = 1000

// ErrDisabled is returned by operations on a store that is not configured.
var ErrDisabled = eris.New("store: persistence not configured")

// HistoryFilter selects persisted prices.
type HistoryFilter struct {
	// Vendor matches case-insensitively as a substring.
	Vendor string
	Weight *float64
	// Since is the first calendar date included.
	Since time.Time
	Limit int
}

func (f HistoryFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultHistoryLimit
	}
	return f.Limit
}

// ChangeFilter selects persisted changes for one date.
type ChangeFilter struct {
	Date   time.Time
	Vendor string
	Trend  model.Trend
}

// Store defines the persistence interface for price tracking.
type Store interface {
	// UpsertPrice writes rec for its date, replacing any earlier row for the
	// same vendor, weight and date.
	UpsertPrice(ctx context.Context, rec model.PriceRecord, source string) error
	// SellingPriceOn returns the selling price recorded on day, or nil.
	SellingPriceOn(ctx context.Context, vendor string, weight float64, day time.Time) (*int64, error)
	// SaveChange writes c, replacing any earlier change for the same key.
	SaveChange(ctx context.Context, c model.PriceChange) error

	// History lists prices newest first.
	History(ctx context.Context, f HistoryFilter) ([]model.PriceRecord, error)
	// Changes lists changes for one date, largest percentage first.
	Changes(ctx context.Context, f ChangeFilter) ([]model.PriceChange, error)
	// Trend counts changes per trend from since onwards.
	Trend(ctx context.Context, since time.Time) (model.TrendSummary, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Driver names accepted by Open.
const (
	DriverNone     = ""
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverSupabase = "supabase"
)

func dateString(t time.Time) string {
	return model.DateOf(t).Format(model.DateLayout)
}

func addTrendCount(s *model.TrendSummary, t model.Trend, n int) {
	switch t {
	case model.TrendUp:
		s.Up += n
	case model.TrendDown:
		s.Down += n
	case model.TrendStable:
		s.Stable += n
	default:
		return
	}
	s.Total += n
}
