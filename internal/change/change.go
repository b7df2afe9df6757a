// Package change computes day-over-day price deltas.
package change

import (
	"context"
	"math"
	"time"

	"github.com/rotisserie/eris"

	"github.com/lacak-emas/lacak-emas-api/internal/model"
)

// Lookup returns the persisted selling price for vendor/weight on day, or nil
// when none was recorded.
type Lookup func(ctx context.Context, vendor string, weight float64, day time.Time) (*int64, error)

// Detect compares current against the price recorded on the calendar day
// before date. It returns nil without error when either side is missing.
func Detect(ctx context.Context, vendor string, weight float64, current *int64, date time.Time, lookup Lookup) (*model.PriceChange, error) {
	if current == nil {
		return nil, nil
	}

	day := model.DateOf(date)
	previous, err := lookup(ctx, vendor, weight, day.AddDate(0, 0, -1))
	if err != nil {
		return nil, eris.Wrapf(err, "change: lookup previous price for %s %sg", vendor, model.FormatWeight(weight))
	}
	if previous == nil {
		return nil, nil
	}

	c := Compute(*previous, *current)
	c.Vendor = vendor
	c.Weight = weight
	c.Date = day
	return &c, nil
}

// Compute derives amount, percentage and trend from two prices. The
// percentage is rounded to two decimals and is 0 when previous is 0.
func Compute(previous, current int64) model.PriceChange {
	amount := current - previous

	var pct float64
	if previous != 0 {
		pct = math.Round(float64(amount)/float64(previous)*100*100) / 100
	}

	trend := model.TrendStable
	switch {
	case amount > 0:
		trend = model.TrendUp
	case amount < 0:
		trend = model.TrendDown
	}

	return model.PriceChange{
		PreviousPrice: previous,
		CurrentPrice:  current,
		ChangeAmount:  amount,
		ChangePercent: pct,
		Trend:         trend,
	}
}

// Summarize counts changes per trend.
func Summarize(changes []model.PriceChange, days int) model.TrendSummary {
	s := model.TrendSummary{PeriodDays: days}
	for _, c := range changes {
		s.Add(c.Trend)
	}
	return s
}
