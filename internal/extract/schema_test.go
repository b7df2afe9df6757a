package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lacak-emas/lacak-emas-api/internal/nuxt"
)

func obj(fields map[string]nuxt.Value) nuxt.Value { return nuxt.Object(fields) }

func TestExtractBySchema_DereferencesFields(t *testing.T) {
	pool := nuxt.NewPool(
		obj(map[string]nuxt.Value{
			"id":           nuxt.Int(1),
			"vendorName":   nuxt.Int(2),
			"denomination": nuxt.Int(3),
			"sellingPrice": nuxt.Int(4),
			"buybackPrice": nuxt.Int(5),
			"date":         nuxt.String("2025-01-15"),
		}),
		nuxt.Int(77),
		nuxt.String("ANTAM"),
		nuxt.String("0.5"),
		nuxt.Int(1_234_000),
		nuxt.Null(),
	)

	got := ExtractBySchema(pool, Options{})
	require.Len(t, got, 1)

	c := got[0]
	name, _ := c.Get(FieldVendorName).Str()
	assert.Equal(t, "ANTAM", name)
	denom, _ := c.Get(FieldDenomination).Str()
	assert.Equal(t, "0.5", denom)
	price, _ := c.Get(FieldSellingPrice).IntVal()
	assert.Equal(t, int64(1_234_000), price)
	assert.True(t, c.Get(FieldBuybackPrice).IsNull())
	id, _ := c.Get(FieldID).IntVal()
	assert.Equal(t, int64(77), id)
	date, _ := c.Get(FieldDate).Str()
	assert.Equal(t, "2025-01-15", date)
}

func TestExtractBySchema_OutOfRangeIntStaysLiteral(t *testing.T) {
	pool := nuxt.NewPool(
		obj(map[string]nuxt.Value{
			"vendorName":   nuxt.Int(1),
			"denomination": nuxt.Int(250),
			"price":        nuxt.Int(9_000_000),
			"status":       nuxt.Bool(true),
		}),
		nuxt.String("UBS"),
	)

	got := ExtractBySchema(pool, Options{})
	require.Len(t, got, 1)
	w, ok := got[0].Get(FieldDenomination).IntVal()
	require.True(t, ok)
	assert.Equal(t, int64(250), w)
	p, _ := got[0].Get(FieldPrice).IntVal()
	assert.Equal(t, int64(9_000_000), p)
}

func TestExtractBySchema_SelfReferenceIsNull(t *testing.T) {
	pool := nuxt.NewPool(
		obj(map[string]nuxt.Value{
			"vendorName":   nuxt.Int(0),
			"denomination": nuxt.Int(1),
			"sellingPrice": nuxt.Int(2),
			"date":         nuxt.Int(3),
		}),
		nuxt.String("1"),
		nuxt.String("1.000.000"),
		nuxt.String("2025-01-15"),
	)

	// vendorName points back at its own object, resolves to null and the
	// candidate is dropped.
	assert.Empty(t, ExtractBySchema(pool, Options{}))
}

func TestExtractBySchema_Skips(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]nuxt.Value
	}{
		{
			name: "too few schema keys",
			fields: map[string]nuxt.Value{
				"vendorName": nuxt.String("ANTAM"),
				"price":      nuxt.String("1000000"),
				"date":       nuxt.String("2025-01-15"),
				"other":      nuxt.String("x"),
			},
		},
		{
			name: "single character vendor",
			fields: map[string]nuxt.Value{
				"vendorName":   nuxt.String("A"),
				"price":        nuxt.String("1000000"),
				"denomination": nuxt.String("1"),
				"date":         nuxt.String("2025-01-15"),
			},
		},
		{
			name: "vendor not a string",
			fields: map[string]nuxt.Value{
				"vendorName":   nuxt.Bool(true),
				"price":        nuxt.String("1000000"),
				"denomination": nuxt.String("1"),
				"date":         nuxt.String("2025-01-15"),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := nuxt.NewPool(obj(tt.fields))
			assert.Empty(t, ExtractBySchema(pool, Options{}))
		})
	}
}

func TestExtractBySchema_MinMatchesTunable(t *testing.T) {
	pool := nuxt.NewPool(obj(map[string]nuxt.Value{
		"vendorName": nuxt.String("ANTAM"),
		"price":      nuxt.String("1000000"),
	}))
	assert.Empty(t, ExtractBySchema(pool, Options{}))
	assert.Len(t, ExtractBySchema(pool, Options{MinSchemaMatches: 2}), 1)
}
