package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/lacak-emas/lacak-emas-api/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock pools satisfy
// it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(5)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS gold_prices (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	vendor        TEXT NOT NULL,
	weight        DOUBLE PRECISION NOT NULL,
	selling_price BIGINT,
	buyback_price BIGINT,
	price         BIGINT,
	price_date    DATE NOT NULL,
	source        TEXT NOT NULL DEFAULT 'galeri24',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (vendor, weight, price_date)
);

CREATE TABLE IF NOT EXISTS price_changes (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	vendor         TEXT NOT NULL,
	weight         DOUBLE PRECISION NOT NULL,
	price_date     DATE NOT NULL,
	previous_price BIGINT NOT NULL,
	current_price  BIGINT NOT NULL,
	change_amount  BIGINT NOT NULL,
	change_percent DOUBLE PRECISION NOT NULL,
	trend          TEXT NOT NULL CHECK (trend IN ('up', 'down', 'stable')),
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (vendor, weight, price_date)
);

CREATE INDEX IF NOT EXISTS idx_gold_prices_date ON gold_prices(price_date DESC);
CREATE INDEX IF NOT EXISTS idx_price_changes_date ON price_changes(price_date);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) UpsertPrice(ctx context.Context, rec model.PriceRecord, source string) error {
	if source == "" {
		source = DefaultSource
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO gold_prices (vendor, weight, selling_price, buyback_price, price, price_date, source)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (vendor, weight, price_date) DO UPDATE SET
			selling_price = EXCLUDED.selling_price,
			buyback_price = EXCLUDED.buyback_price,
			price         = EXCLUDED.price,
			source        = EXCLUDED.source`,
		rec.Vendor, rec.Weight, rec.SellingPrice, rec.BuybackPrice, rec.BasePrice,
		model.DateOf(rec.Date), source,
	)
	return eris.Wrapf(err, "postgres: upsert price %s %sg", rec.Vendor, rec.WeightString())
}

func (s *PostgresStore) SellingPriceOn(ctx context.Context, vendor string, weight float64, day time.Time) (*int64, error) {
	var price *int64
	err := s.pool.QueryRow(ctx,
		`SELECT selling_price FROM gold_prices WHERE vendor = $1 AND weight = $2 AND price_date = $3 LIMIT 1`,
		vendor, weight, model.DateOf(day),
	).Scan(&price)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: selling price on")
	}
	return price, nil
}

func (s *PostgresStore) SaveChange(ctx context.Context, c model.PriceChange) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO price_changes (vendor, weight, price_date, previous_price, current_price, change_amount, change_percent, trend)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (vendor, weight, price_date) DO UPDATE SET
			previous_price = EXCLUDED.previous_price,
			current_price  = EXCLUDED.current_price,
			change_amount  = EXCLUDED.change_amount,
			change_percent = EXCLUDED.change_percent,
			trend          = EXCLUDED.trend`,
		c.Vendor, c.Weight, model.DateOf(c.Date),
		c.PreviousPrice, c.CurrentPrice, c.ChangeAmount, c.ChangePercent, string(c.Trend),
	)
	return eris.Wrapf(err, "postgres: save change %s %sg", c.Vendor, model.FormatWeight(c.Weight))
}

func (s *PostgresStore) History(ctx context.Context, f HistoryFilter) ([]model.PriceRecord, error) {
	query := `SELECT vendor, weight, selling_price, buyback_price, price, price_date FROM gold_prices WHERE price_date >= $1`
	args := []any{model.DateOf(f.Since)}

	if f.Vendor != "" {
		args = append(args, f.Vendor)
		query += fmt.Sprintf(` AND vendor ILIKE '%%' || $%d || '%%'`, len(args))
	}
	if f.Weight != nil {
		args = append(args, *f.Weight)
		query += fmt.Sprintf(` AND weight = $%d`, len(args))
	}
	args = append(args, f.limit())
	query += fmt.Sprintf(` ORDER BY price_date DESC, vendor, weight LIMIT $%d`, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: history")
	}
	defer rows.Close()

	var out []model.PriceRecord
	for rows.Next() {
		var r model.PriceRecord
		var date time.Time
		if err := rows.Scan(&r.Vendor, &r.Weight, &r.SellingPrice, &r.BuybackPrice, &r.BasePrice, &date); err != nil {
			return nil, eris.Wrap(err, "postgres: scan price")
		}
		r.Date = model.DateOf(date)
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: history iterate")
}

func (s *PostgresStore) Changes(ctx context.Context, f ChangeFilter) ([]model.PriceChange, error) {
	query := `SELECT vendor, weight, price_date, previous_price, current_price, change_amount, change_percent, trend
		FROM price_changes WHERE price_date = $1`
	args := []any{model.DateOf(f.Date)}

	if f.Vendor != "" {
		args = append(args, f.Vendor)
		query += fmt.Sprintf(` AND vendor ILIKE '%%' || $%d || '%%'`, len(args))
	}
	if f.Trend != "" {
		args = append(args, string(f.Trend))
		query += fmt.Sprintf(` AND trend = $%d`, len(args))
	}
	query += ` ORDER BY change_percent DESC, vendor, weight`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: changes")
	}
	defer rows.Close()

	var out []model.PriceChange
	for rows.Next() {
		var c model.PriceChange
		var date time.Time
		var trend string
		if err := rows.Scan(&c.Vendor, &c.Weight, &date, &c.PreviousPrice, &c.CurrentPrice,
			&c.ChangeAmount, &c.ChangePercent, &trend); err != nil {
			return nil, eris.Wrap(err, "postgres: scan change")
		}
		c.Date = model.DateOf(date)
		c.Trend = model.Trend(trend)
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: changes iterate")
}

func (s *PostgresStore) Trend(ctx context.Context, since time.Time) (model.TrendSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT trend, COUNT(*) FROM price_changes WHERE price_date >= $1 GROUP BY trend`,
		model.DateOf(since),
	)
	if err != nil {
		return model.TrendSummary{}, eris.Wrap(err, "postgres: trend")
	}
	defer rows.Close()

	var summary model.TrendSummary
	for rows.Next() {
		var trend string
		var n int64
		if err := rows.Scan(&trend, &n); err != nil {
			return model.TrendSummary{}, eris.Wrap(err, "postgres: scan trend")
		}
		addTrendCount(&summary, model.Trend(trend), int(n))
	}
	return summary, eris.Wrap(rows.Err(), "postgres: trend iterate")
}
