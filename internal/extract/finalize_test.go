package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lacak-emas/lacak-emas-api/internal/model"
)

func rec(vendor string, weight float64, price int64) model.PriceRecord {
	return model.PriceRecord{Vendor: vendor, Weight: weight, SellingPrice: model.Int64(price)}
}

func TestFinalize_KeepsFirstOccurrence(t *testing.T) {
	got := Finalize([]model.PriceRecord{
		rec("A", 1, 100),
		rec("B", 2, 200),
		rec("A", 1, 999),
	})

	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Vendor)
	assert.Equal(t, int64(100), *got[0].SellingPrice)
	assert.Equal(t, "B", got[1].Vendor)
}

func TestFinalize_SortsByVendorThenWeight(t *testing.T) {
	got := Finalize([]model.PriceRecord{
		rec("B", 1, 1),
		rec("A", 2, 2),
		rec("A", 1, 3),
	})

	var keys []model.Key
	for _, r := range got {
		keys = append(keys, r.Key())
	}
	assert.Equal(t, []model.Key{{Vendor: "A", Weight: 1}, {Vendor: "A", Weight: 2}, {Vendor: "B", Weight: 1}}, keys)
}

func TestFinalize_DoesNotModifyInput(t *testing.T) {
	in := []model.PriceRecord{rec("B", 1, 1), rec("A", 1, 2)}
	_ = Finalize(in)
	assert.Equal(t, "B", in[0].Vendor)
}

func TestFinalize_Empty(t *testing.T) {
	assert.Empty(t, Finalize(nil))
}
