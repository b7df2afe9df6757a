package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/lacak-emas/lacak-emas-api/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// Pragmas are per connection and SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS gold_prices (
	id            TEXT PRIMARY KEY,
	vendor        TEXT NOT NULL,
	weight        REAL NOT NULL,
	selling_price INTEGER,
	buyback_price INTEGER,
	price         INTEGER,
	price_date    TEXT NOT NULL,
	source        TEXT NOT NULL DEFAULT 'galeri24',
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (vendor, weight, price_date)
);

CREATE TABLE IF NOT EXISTS price_changes (
	id             TEXT PRIMARY KEY,
	vendor         TEXT NOT NULL,
	weight         REAL NOT NULL,
	price_date     TEXT NOT NULL,
	previous_price INTEGER NOT NULL,
	current_price  INTEGER NOT NULL,
	change_amount  INTEGER NOT NULL,
	change_percent REAL NOT NULL,
	trend          TEXT NOT NULL,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (vendor, weight, price_date)
);

CREATE INDEX IF NOT EXISTS idx_gold_prices_date ON gold_prices(price_date);
CREATE INDEX IF NOT EXISTS idx_price_changes_date ON price_changes(price_date);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertPrice(ctx context.Context, rec model.PriceRecord, source string) error {
	if source == "" {
		source = DefaultSource
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO gold_prices (id, vendor, weight, selling_price, buyback_price, price, price_date, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (vendor, weight, price_date) DO UPDATE SET
			selling_price = excluded.selling_price,
			buyback_price = excluded.buyback_price,
			price         = excluded.price,
			source        = excluded.source`,
		uuid.New().String(), rec.Vendor, rec.Weight,
		nullInt(rec.SellingPrice), nullInt(rec.BuybackPrice), nullInt(rec.BasePrice),
		dateString(rec.Date), source,
	)
	return eris.Wrapf(err, "sqlite: upsert price %s %sg", rec.Vendor, rec.WeightString())
}

func (s *SQLiteStore) SellingPriceOn(ctx context.Context, vendor string, weight float64, day time.Time) (*int64, error) {
	var price sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT selling_price FROM gold_prices WHERE vendor = ? AND weight = ? AND price_date = ? LIMIT 1`,
		vendor, weight, dateString(day),
	).Scan(&price)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: selling price on")
	}
	return fromNullInt(price), nil
}

func (s *SQLiteStore) SaveChange(ctx context.Context, c model.PriceChange) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO price_changes (id, vendor, weight, price_date, previous_price, current_price, change_amount, change_percent, trend)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (vendor, weight, price_date) DO UPDATE SET
			previous_price = excluded.previous_price,
			current_price  = excluded.current_price,
			change_amount  = excluded.change_amount,
			change_percent = excluded.change_percent,
			trend          = excluded.trend`,
		uuid.New().String(), c.Vendor, c.Weight, dateString(c.Date),
		c.PreviousPrice, c.CurrentPrice, c.ChangeAmount, c.ChangePercent, string(c.Trend),
	)
	return eris.Wrapf(err, "sqlite: save change %s %sg", c.Vendor, model.FormatWeight(c.Weight))
}

func (s *SQLiteStore) History(ctx context.Context, f HistoryFilter) ([]model.PriceRecord, error) {
	query := `SELECT vendor, weight, selling_price, buyback_price, price, price_date FROM gold_prices WHERE price_date >= ?`
	args := []any{dateString(f.Since)}

	if f.Vendor != "" {
		query += ` AND vendor LIKE '%' || ? || '%'`
		args = append(args, f.Vendor)
	}
	if f.Weight != nil {
		query += ` AND weight = ?`
		args = append(args, *f.Weight)
	}
	query += ` ORDER BY price_date DESC, vendor, weight LIMIT ?`
	args = append(args, f.limit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: history")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.PriceRecord
	for rows.Next() {
		r, err := scanPrice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: history iterate")
}

func (s *SQLiteStore) Changes(ctx context.Context, f ChangeFilter) ([]model.PriceChange, error) {
	query := `SELECT vendor, weight, price_date, previous_price, current_price, change_amount, change_percent, trend
		FROM price_changes WHERE price_date = ?`
	args := []any{dateString(f.Date)}

	if f.Vendor != "" {
		query += ` AND vendor LIKE '%' || ? || '%'`
		args = append(args, f.Vendor)
	}
	if f.Trend != "" {
		query += ` AND trend = ?`
		args = append(args, string(f.Trend))
	}
	query += ` ORDER BY change_percent DESC, vendor, weight`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: changes")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.PriceChange
	for rows.Next() {
		c, err := scanChange(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: changes iterate")
}

func (s *SQLiteStore) Trend(ctx context.Context, since time.Time) (model.TrendSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT trend, COUNT(*) FROM price_changes WHERE price_date >= ? GROUP BY trend`,
		dateString(since),
	)
	if err != nil {
		return model.TrendSummary{}, eris.Wrap(err, "sqlite: trend")
	}
	defer rows.Close() //nolint:errcheck

	var summary model.TrendSummary
	for rows.Next() {
		var trend string
		var n int
		if err := rows.Scan(&trend, &n); err != nil {
			return model.TrendSummary{}, eris.Wrap(err, "sqlite: scan trend")
		}
		addTrendCount(&summary, model.Trend(trend), n)
	}
	return summary, eris.Wrap(rows.Err(), "sqlite: trend iterate")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanPrice(row scannable) (*model.PriceRecord, error) {
	var r model.PriceRecord
	var selling, buyback, base sql.NullInt64
	var date string

	if err := row.Scan(&r.Vendor, &r.Weight, &selling, &buyback, &base, &date); err != nil {
		return nil, eris.Wrap(err, "scan price")
	}
	d, err := model.ParseDate(date)
	if err != nil {
		return nil, eris.Wrapf(err, "parse price_date %q", date)
	}
	r.Date = d
	r.SellingPrice = fromNullInt(selling)
	r.BuybackPrice = fromNullInt(buyback)
	r.BasePrice = fromNullInt(base)
	return &r, nil
}

func scanChange(row scannable) (*model.PriceChange, error) {
	var c model.PriceChange
	var date, trend string

	err := row.Scan(&c.Vendor, &c.Weight, &date, &c.PreviousPrice, &c.CurrentPrice,
		&c.ChangeAmount, &c.ChangePercent, &trend)
	if err != nil {
		return nil, eris.Wrap(err, "scan change")
	}
	d, err := model.ParseDate(date)
	if err != nil {
		return nil, eris.Wrapf(err, "parse price_date %q", date)
	}
	c.Date = d
	c.Trend = model.Trend(trend)
	return &c, nil
}

func nullInt(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func fromNullInt(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	return model.Int64(n.Int64)
}
