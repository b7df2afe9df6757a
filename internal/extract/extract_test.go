package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func page(payload string) string {
	return `<html><head><title>Harga Emas Hari Ini</title></head><body><div id="__nuxt"></div>` +
		`<script type="application/json" id="__NUXT_DATA__" data-ssr="true">` + payload + `</script></body></html>`
}

const schemaPayload = `[
["ShallowReactive",1],
{"data":2},
{"goldPrice":3},
[4,12,18],
{"id":5,"vendorName":6,"denomination":7,"sellingPrice":8,"buybackPrice":9,"date":10,"status":11},
101,
"UBS",
"1",
"1.234.000",
"1.100.000",
"2025-01-15",
true,
{"id":13,"vendorName":14,"denomination":15,"sellingPrice":16,"buybackPrice":17,"date":10,"status":11},
102,
"ANTAM",
"0.5",
1500000,
null,
{"id":19,"vendorName":20,"denomination":15,"sellingPrice":16,"buybackPrice":17,"date":10,"status":11},
103,
"X"
]`

func newTestExtractor() *Extractor {
	return New(testMarkers,
		WithClock(func() time.Time { return time.Date(2025, 2, 1, 3, 0, 0, 0, time.UTC) }),
		WithLocation(time.FixedZone("WIB", 7*60*60)),
	)
}

func TestExtract_Schema(t *testing.T) {
	r := newTestExtractor().Extract(page(schemaPayload))

	assert.Equal(t, MethodSchema, r.Method)
	// The object with vendor "X" never becomes a candidate.
	assert.Equal(t, 2, r.Candidates)
	require.Len(t, r.Records, 2)

	antam := r.Records[0]
	assert.Equal(t, "ANTAM", antam.Vendor)
	assert.Equal(t, 0.5, antam.Weight)
	assert.Equal(t, int64(1_500_000), *antam.SellingPrice)
	assert.Nil(t, antam.BuybackPrice)
	assert.Equal(t, "2025-01-15", antam.DateString())

	ubs := r.Records[1]
	assert.Equal(t, "UBS", ubs.Vendor)
	assert.Equal(t, 1.0, ubs.Weight)
	assert.Equal(t, int64(1_234_000), *ubs.SellingPrice)
	assert.Equal(t, int64(1_100_000), *ubs.BuybackPrice)
}

func TestExtract_ProximityFallback(t *testing.T) {
	r := newTestExtractor().Extract(page(`["ANTAM","0.5","1.234.000","x","5","8.900.000"]`))

	assert.Equal(t, MethodProximity, r.Method)
	require.Len(t, r.Records, 2)
	assert.Equal(t, 0.5, r.Records[0].Weight)
	assert.Equal(t, int64(1_234_000), *r.Records[0].BasePrice)
	assert.Equal(t, 5.0, r.Records[1].Weight)
	assert.Equal(t, int64(8_900_000), *r.Records[1].SellingPrice)
	// No date token in the pool: today in WIB.
	assert.Equal(t, "2025-02-01", r.Records[0].DateString())
}

func TestExtract_CountsRejections(t *testing.T) {
	payload := `[
{"vendorName":"ANTAM","denomination":"0","sellingPrice":"1000000","date":"2025-01-15"},
{"vendorName":"ANTAM","denomination":"1","sellingPrice":null,"buybackPrice":null,"price":null},
{"vendorName":"ANTAM","denomination":"2","sellingPrice":"2000000","date":"2025-01-15"}
]`
	r := newTestExtractor().Extract(page(payload))

	assert.Equal(t, MethodSchema, r.Method)
	assert.Equal(t, 3, r.Candidates)
	assert.Equal(t, map[string]int{ReasonWeight: 1, ReasonPrice: 1}, r.Rejected)
	require.Len(t, r.Records, 1)
	assert.Equal(t, 2.0, r.Records[0].Weight)
}

func TestExtract_DegradesToEmpty(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{"no payload", `<html><body><p>maintenance</p></body></html>`},
		{"malformed payload", page(`[{"vendorName":`)},
		{"payload not an array", page(`{"vendorName":"ANTAM"}`)},
		{"nothing recognizable", page(`["hello","world",1,2,3]`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestExtractor().Extract(tt.html)
			assert.Equal(t, MethodNone, r.Method)
			assert.Empty(t, r.Records)
		})
	}
}
