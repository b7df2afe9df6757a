package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceRecord_MarshalJSON(t *testing.T) {
	rec := PriceRecord{
		Vendor:       "ANTAM",
		Weight:       1,
		SellingPrice: Int64(1850000),
		BasePrice:    Int64(1800000),
		Date:         time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "ANTAM", got["vendor"])
	assert.Equal(t, 1.0, got["weight"])
	assert.Equal(t, "gram", got["unit"])
	assert.Equal(t, 1850000.0, got["selling_price"])
	assert.Nil(t, got["buyback_price"])
	assert.Equal(t, 1800000.0, got["price"])
	assert.Equal(t, "2026-02-03", got["date"])
}

func TestPriceChange_MarshalJSON(t *testing.T) {
	c := PriceChange{
		Vendor:        "UBS",
		Weight:        0.5,
		PreviousPrice: 100,
		CurrentPrice:  110,
		ChangeAmount:  10,
		ChangePercent: 10,
		Trend:         TrendUp,
		Date:          time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
	}
	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"price_date":"2026-02-03"`)
	assert.Contains(t, string(data), `"trend":"up"`)
}

func TestFormatWeight(t *testing.T) {
	assert.Equal(t, "0.5", FormatWeight(0.5))
	assert.Equal(t, "1", FormatWeight(1))
	assert.Equal(t, "0.001", FormatWeight(0.001))
	assert.Equal(t, "100", FormatWeight(100))
}

func TestParseTrend(t *testing.T) {
	for _, s := range []string{"up", "down", "stable"} {
		tr, ok := ParseTrend(s)
		assert.True(t, ok)
		assert.Equal(t, Trend(s), tr)
	}
	_, ok := ParseTrend("sideways")
	assert.False(t, ok)
}

func TestTrendSummary_Add(t *testing.T) {
	var s TrendSummary
	s.Add(TrendUp)
	s.Add(TrendUp)
	s.Add(TrendDown)
	s.Add(TrendStable)
	s.Add(Trend("bogus"))
	assert.Equal(t, TrendSummary{Up: 2, Down: 1, Stable: 1, Total: 4}, s)
}

func TestDateOf(t *testing.T) {
	wib := time.FixedZone("WIB", 7*3600)
	ts := time.Date(2026, 2, 3, 23, 30, 0, 0, wib)
	assert.Equal(t, time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC), DateOf(ts))
}
