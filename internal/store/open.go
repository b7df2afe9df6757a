package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/lacak-emas/lacak-emas-api/internal/model"
	"github.com/lacak-emas/lacak-emas-api/pkg/supabase"
)

// Options selects and configures a driver.
type Options struct {
	Driver      string
	DatabaseURL string
	SupabaseURL string
	SupabaseKey string
	Pool        *PoolConfig
}

// Open returns the store for opts.Driver. An empty driver yields a Disabled
// store.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverNone:
		return Disabled{}, nil
	case DriverSQLite:
		dsn := opts.DatabaseURL
		if dsn == "" {
			dsn = "lacak-emas.db"
		}
		return NewSQLite(dsn)
	case DriverPostgres:
		if opts.DatabaseURL == "" {
			return nil, eris.New("store: postgres requires a database url")
		}
		return NewPostgres(ctx, opts.DatabaseURL, opts.Pool)
	case DriverSupabase:
		if opts.SupabaseURL == "" || opts.SupabaseKey == "" {
			return nil, eris.New("store: supabase requires url and key")
		}
		return NewSupabase(supabase.NewClient(opts.SupabaseURL, opts.SupabaseKey)), nil
	default:
		return nil, eris.Errorf("store: unsupported driver %q", opts.Driver)
	}
}

// Disabled is the Store used when persistence is not configured. Every
// operation except Migrate and Close fails with ErrDisabled.
type Disabled struct{}

// IsDisabled reports whether s is a Disabled store.
func IsDisabled(s Store) bool {
	_, ok := s.(Disabled)
	return s == nil || ok
}

func (Disabled) UpsertPrice(context.Context, model.PriceRecord, string) error { return ErrDisabled }

func (Disabled) SellingPriceOn(context.Context, string, float64, time.Time) (*int64, error) {
	return nil, ErrDisabled
}

func (Disabled) SaveChange(context.Context, model.PriceChange) error { return ErrDisabled }

func (Disabled) History(context.Context, HistoryFilter) ([]model.PriceRecord, error) {
	return nil, ErrDisabled
}

func (Disabled) Changes(context.Context, ChangeFilter) ([]model.PriceChange, error) {
	return nil, ErrDisabled
}

func (Disabled) Trend(context.Context, time.Time) (model.TrendSummary, error) {
	return model.TrendSummary{}, ErrDisabled
}

func (Disabled) Migrate(context.Context) error { return nil }

func (Disabled) Close() error { return nil }
