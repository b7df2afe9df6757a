package extract

import (
	"sort"

	"github.com/lacak-emas/lacak-emas-api/internal/model"
)

// Finalize drops later duplicates of the same (vendor, weight) and orders the
// survivors by vendor, then weight. The input slice is not modified.
func Finalize(records []model.PriceRecord) []model.PriceRecord {
	seen := make(map[model.Key]struct{}, len(records))
	out := make([]model.PriceRecord, 0, len(records))
	for _, r := range records {
		if _, dup := seen[r.Key()]; dup {
			continue
		}
		seen[r.Key()] = struct{}{}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Vendor != out[j].Vendor {
			return out[i].Vendor < out[j].Vendor
		}
		return out[i].Weight < out[j].Weight
	})
	return out
}
