package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/lacak-emas/lacak-emas-api/internal/change"
	"github.com/lacak-emas/lacak-emas-api/internal/model"
	"github.com/lacak-emas/lacak-emas-api/pkg/supabase"
)

const (
	pricesTable  = "gold_prices"
	changesTable = "price_changes"
	conflictKey  = "vendor,weight,price_date"
)

// SupabaseStore implements Store over the Supabase REST API. Tables must
// already exist; Migrate only logs.
type SupabaseStore struct {
	client supabase.Client
}

// NewSupabase wraps a PostgREST client.
func NewSupabase(client supabase.Client) *SupabaseStore {
	return &SupabaseStore{client: client}
}

type priceRow struct {
	Vendor       string  `json:"vendor"`
	Weight       float64 `json:"weight"`
	SellingPrice *int64  `json:"selling_price"`
	BuybackPrice *int64  `json:"buyback_price"`
	Price        *int64  `json:"price"`
	PriceDate    string  `json:"price_date"`
	Source       string  `json:"source,omitempty"`
}

func (r priceRow) record() (model.PriceRecord, error) {
	d, err := model.ParseDate(r.PriceDate)
	if err != nil {
		return model.PriceRecord{}, eris.Wrapf(err, "parse price_date %q", r.PriceDate)
	}
	return model.PriceRecord{
		Vendor:       r.Vendor,
		Weight:       r.Weight,
		SellingPrice: r.SellingPrice,
		BuybackPrice: r.BuybackPrice,
		BasePrice:    r.Price,
		Date:         d,
	}, nil
}

type changeRow struct {
	Vendor        string  `json:"vendor"`
	Weight        float64 `json:"weight"`
	PriceDate     string  `json:"price_date"`
	PreviousPrice int64   `json:"previous_price"`
	CurrentPrice  int64   `json:"current_price"`
	ChangeAmount  int64   `json:"change_amount"`
	ChangePercent float64 `json:"change_percent"`
	Trend         string  `json:"trend"`
}

func (r changeRow) change() (model.PriceChange, error) {
	d, err := model.ParseDate(r.PriceDate)
	if err != nil {
		return model.PriceChange{}, eris.Wrapf(err, "parse price_date %q", r.PriceDate)
	}
	return model.PriceChange{
		Vendor:        r.Vendor,
		Weight:        r.Weight,
		PreviousPrice: r.PreviousPrice,
		CurrentPrice:  r.CurrentPrice,
		ChangeAmount:  r.ChangeAmount,
		ChangePercent: r.ChangePercent,
		Trend:         model.Trend(r.Trend),
		Date:          d,
	}, nil
}

func (s *SupabaseStore) Migrate(_ context.Context) error {
	zap.L().Info("supabase: schema is managed in the Supabase dashboard, skipping migration")
	return nil
}

func (s *SupabaseStore) Close() error { return nil }

func (s *SupabaseStore) UpsertPrice(ctx context.Context, rec model.PriceRecord, source string) error {
	if source == "" {
		source = DefaultSource
	}
	row := priceRow{
		Vendor:       rec.Vendor,
		Weight:       rec.Weight,
		SellingPrice: rec.SellingPrice,
		BuybackPrice: rec.BuybackPrice,
		Price:        rec.BasePrice,
		PriceDate:    dateString(rec.Date),
		Source:       source,
	}
	err := s.client.Upsert(ctx, pricesTable, conflictKey, row)
	return eris.Wrapf(err, "supabase: upsert price %s %sg", rec.Vendor, rec.WeightString())
}

func (s *SupabaseStore) SellingPriceOn(ctx context.Context, vendor string, weight float64, day time.Time) (*int64, error) {
	q := supabase.NewQuery().
		Select("selling_price").
		Eq("vendor", vendor).
		Eq("weight", model.FormatWeight(weight)).
		Eq("price_date", dateString(day)).
		Limit(1)

	var rows []struct {
		SellingPrice *int64 `json:"selling_price"`
	}
	if err := s.client.Select(ctx, pricesTable, q, &rows); err != nil {
		return nil, eris.Wrap(err, "supabase: selling price on")
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].SellingPrice, nil
}

func (s *SupabaseStore) SaveChange(ctx context.Context, c model.PriceChange) error {
	row := changeRow{
		Vendor:        c.Vendor,
		Weight:        c.Weight,
		PriceDate:     dateString(c.Date),
		PreviousPrice: c.PreviousPrice,
		CurrentPrice:  c.CurrentPrice,
		ChangeAmount:  c.ChangeAmount,
		ChangePercent: c.ChangePercent,
		Trend:         string(c.Trend),
	}
	err := s.client.Upsert(ctx, changesTable, conflictKey, row)
	return eris.Wrapf(err, "supabase: save change %s %sg", c.Vendor, model.FormatWeight(c.Weight))
}

func (s *SupabaseStore) History(ctx context.Context, f HistoryFilter) ([]model.PriceRecord, error) {
	q := supabase.NewQuery().
		Select("vendor", "weight", "selling_price", "buyback_price", "price", "price_date").
		Gte("price_date", dateString(f.Since)).
		Order("price_date.desc", "vendor.asc", "weight.asc").
		Limit(f.limit())
	if f.Vendor != "" {
		q.ILike("vendor", "*"+f.Vendor+"*")
	}
	if f.Weight != nil {
		q.Eq("weight", model.FormatWeight(*f.Weight))
	}

	var rows []priceRow
	if err := s.client.Select(ctx, pricesTable, q, &rows); err != nil {
		return nil, eris.Wrap(err, "supabase: history")
	}

	out := make([]model.PriceRecord, 0, len(rows))
	for _, r := range rows {
		rec, err := r.record()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *SupabaseStore) Changes(ctx context.Context, f ChangeFilter) ([]model.PriceChange, error) {
	q := supabase.NewQuery().
		Select("*").
		Eq("price_date", dateString(f.Date)).
		Order("change_percent.desc", "vendor.asc", "weight.asc")
	if f.Vendor != "" {
		q.ILike("vendor", "*"+f.Vendor+"*")
	}
	if f.Trend != "" {
		q.Eq("trend", string(f.Trend))
	}

	rows, err := s.changes(ctx, q)
	return rows, eris.Wrap(err, "supabase: changes")
}

// Trend fetches trend columns and counts them client side; PostgREST has no
// GROUP BY without a database function.
func (s *SupabaseStore) Trend(ctx context.Context, since time.Time) (model.TrendSummary, error) {
	q := supabase.NewQuery().
		Select("trend").
		Gte("price_date", dateString(since))

	var rows []struct {
		Trend string `json:"trend"`
	}
	if err := s.client.Select(ctx, changesTable, q, &rows); err != nil {
		return model.TrendSummary{}, eris.Wrap(err, "supabase: trend")
	}

	changes := make([]model.PriceChange, len(rows))
	for i, r := range rows {
		changes[i].Trend = model.Trend(r.Trend)
	}
	return change.Summarize(changes, 0), nil
}

func (s *SupabaseStore) changes(ctx context.Context, q *supabase.Query) ([]model.PriceChange, error) {
	var rows []changeRow
	if err := s.client.Select(ctx, changesTable, q, &rows); err != nil {
		return nil, err
	}
	out := make([]model.PriceChange, 0, len(rows))
	for _, r := range rows {
		c, err := r.change()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

