package pricing

import (
	"math"

	"github.com/lacak-emas/lacak-emas-api/internal/model"
	"github.com/lacak-emas/lacak-emas-api/internal/vendor"
)

// WeightTolerance is how far apart two weights may be and still match.
const WeightTolerance = 0.001

// Criteria narrows a price list. Nil fields do not filter.
type Criteria struct {
	Vendor    string
	Weight    *float64
	MinWeight *float64
	MaxWeight *float64
}

// Filter returns the records matching c, preserving order.
func Filter(records []model.PriceRecord, c Criteria, catalog *vendor.Catalog) []model.PriceRecord {
	out := make([]model.PriceRecord, 0, len(records))
	for _, r := range records {
		if c.Vendor != "" && !catalog.Matches(c.Vendor, r.Vendor) {
			continue
		}
		if c.Weight != nil && math.Abs(r.Weight-*c.Weight) >= WeightTolerance {
			continue
		}
		if c.MinWeight != nil && r.Weight < *c.MinWeight {
			continue
		}
		if c.MaxWeight != nil && r.Weight > *c.MaxWeight {
			continue
		}
		out = append(out, r)
	}
	return out
}
