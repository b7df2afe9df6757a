package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lacak-emas/lacak-emas-api/internal/model"
)

func newTestSQLite(t *testing.T) Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func day(s string) time.Time {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func price(vendor string, weight float64, selling int64, date string) model.PriceRecord {
	return model.PriceRecord{
		Vendor:       vendor,
		Weight:       weight,
		SellingPrice: model.Int64(selling),
		BuybackPrice: model.Int64(selling - 100_000),
		Date:         day(date),
	}
}

func storeTestSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("UpsertAndLookup", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.UpsertPrice(ctx, price("ANTAM", 1, 1_850_000, "2025-01-14"), ""))

		got, err := s.SellingPriceOn(ctx, "ANTAM", 1, day("2025-01-14"))
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, int64(1_850_000), *got)

		missing, err := s.SellingPriceOn(ctx, "ANTAM", 1, day("2025-01-13"))
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("UpsertLastWriteWins", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.UpsertPrice(ctx, price("UBS", 0.5, 900_000, "2025-01-14"), ""))
		require.NoError(t, s.UpsertPrice(ctx, price("UBS", 0.5, 910_000, "2025-01-14"), "manual"))

		rows, err := s.History(ctx, HistoryFilter{Since: day("2025-01-01")})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, int64(910_000), *rows[0].SellingPrice)
		assert.Equal(t, int64(810_000), *rows[0].BuybackPrice)
		assert.Nil(t, rows[0].BasePrice)
	})

	t.Run("HistoryFiltersAndOrder", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for _, r := range []model.PriceRecord{
			price("ANTAM", 1, 1_800_000, "2025-01-10"),
			price("ANTAM", 1, 1_850_000, "2025-01-14"),
			price("ANTAM", 0.5, 950_000, "2025-01-14"),
			price("UBS", 1, 1_700_000, "2025-01-14"),
			price("ANTAM", 1, 1_700_000, "2024-12-01"),
		} {
			require.NoError(t, s.UpsertPrice(ctx, r, ""))
		}

		rows, err := s.History(ctx, HistoryFilter{Vendor: "antam", Since: day("2025-01-01")})
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "2025-01-14", rows[0].DateString())
		assert.Equal(t, 0.5, rows[0].Weight)
		assert.Equal(t, 1.0, rows[1].Weight)
		assert.Equal(t, "2025-01-10", rows[2].DateString())

		w := 1.0
		rows, err = s.History(ctx, HistoryFilter{Weight: &w, Since: day("2025-01-01"), Limit: 2})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "ANTAM", rows[0].Vendor)
		assert.Equal(t, "UBS", rows[1].Vendor)
	})

	t.Run("ChangesAndTrend", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		changes := []model.PriceChange{
			{Vendor: "ANTAM", Weight: 1, PreviousPrice: 100, CurrentPrice: 110, ChangeAmount: 10, ChangePercent: 10, Trend: model.TrendUp, Date: day("2025-01-14")},
			{Vendor: "UBS", Weight: 1, PreviousPrice: 100, CurrentPrice: 95, ChangeAmount: -5, ChangePercent: -5, Trend: model.TrendDown, Date: day("2025-01-14")},
			{Vendor: "ANTAM", Weight: 0.5, PreviousPrice: 100, CurrentPrice: 100, Trend: model.TrendStable, Date: day("2025-01-14")},
			{Vendor: "ANTAM", Weight: 1, PreviousPrice: 90, CurrentPrice: 100, ChangeAmount: 10, ChangePercent: 11.11, Trend: model.TrendUp, Date: day("2025-01-13")},
		}
		for _, c := range changes {
			require.NoError(t, s.SaveChange(ctx, c))
		}
		// Replaces the first row.
		upd := changes[0]
		upd.ChangePercent = 12.5
		require.NoError(t, s.SaveChange(ctx, upd))

		got, err := s.Changes(ctx, ChangeFilter{Date: day("2025-01-14")})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, 12.5, got[0].ChangePercent)
		assert.Equal(t, model.TrendStable, got[1].Trend)
		assert.Equal(t, "UBS", got[2].Vendor)
		assert.Equal(t, "2025-01-14", got[2].DateString())

		got, err = s.Changes(ctx, ChangeFilter{Date: day("2025-01-14"), Vendor: "ant", Trend: model.TrendUp})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, 1.0, got[0].Weight)

		sum, err := s.Trend(ctx, day("2025-01-13"))
		require.NoError(t, err)
		assert.Equal(t, model.TrendSummary{Up: 2, Down: 1, Stable: 1, Total: 4}, sum)

		sum, err = s.Trend(ctx, day("2025-01-14"))
		require.NoError(t, err)
		assert.Equal(t, 3, sum.Total)
	})
}

func TestSQLiteStore(t *testing.T) {
	storeTestSuite(t, newTestSQLite)
}

func TestSQLiteStore_MigrateIdempotent(t *testing.T) {
	s := newTestSQLite(t)
	require.NoError(t, s.Migrate(context.Background()))
}

func TestHistoryFilterLimit(t *testing.T) {
	assert.Equal(t, DefaultHistoryLimit, HistoryFilter{}.limit())
	assert.Equal(t, DefaultHistoryLimit, HistoryFilter{Limit: -3}.limit())
	assert.Equal(t, 5, HistoryFilter{Limit: 5}.limit())
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{})
	require.NoError(t, err)
	assert.True(t, IsDisabled(s))
	assert.NoError(t, s.Migrate(ctx))
	_, err = s.History(ctx, HistoryFilter{})
	assert.ErrorIs(t, err, ErrDisabled)
	assert.ErrorIs(t, s.UpsertPrice(ctx, model.PriceRecord{}, ""), ErrDisabled)

	s, err = Open(ctx, Options{Driver: DriverSQLite, DatabaseURL: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	defer s.Close()
	assert.False(t, IsDisabled(s))
	assert.IsType(t, &SQLiteStore{}, s)

	s2, err := Open(ctx, Options{Driver: DriverSupabase, SupabaseURL: "https://x.supabase.co", SupabaseKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &SupabaseStore{}, s2)

	_, err = Open(ctx, Options{Driver: DriverSupabase})
	assert.Error(t, err)
	_, err = Open(ctx, Options{Driver: DriverPostgres})
	assert.Error(t, err)
	_, err = Open(ctx, Options{Driver: "mongo"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}
