package model

import (
	"encoding/json"
	"strconv"
	"time"
)

// DateLayout is the ISO 8601 calendar date layout used for price dates.
const DateLayout = "2006-01-02"

// UnitGram is the only weight unit the source publishes.
const UnitGram = "gram"

// PriceRecord is one normalized gold price entry. Records are treated as
// immutable once built by the normalizer.
type PriceRecord struct {
	Vendor       string    `json:"vendor"`
	Weight       float64   `json:"weight"`
	SellingPrice *int64    `json:"selling_price"`
	BuybackPrice *int64    `json:"buyback_price"`
	BasePrice    *int64    `json:"price"`
	Date         time.Time `json:"-"`
}

// Key identifies a record for deduplication and persistence.
type Key struct {
	Vendor string
	Weight float64
}

// Key returns the (vendor, weight) identity of the record.
func (p PriceRecord) Key() Key {
	return Key{Vendor: p.Vendor, Weight: p.Weight}
}

// DateString formats the record date as YYYY-MM-DD.
func (p PriceRecord) DateString() string {
	return p.Date.Format(DateLayout)
}

// WeightString renders the weight without trailing zeros ("0.5", "1", "100").
func (p PriceRecord) WeightString() string {
	return FormatWeight(p.Weight)
}

// MarshalJSON adds the unit and the formatted date to the wire format.
func (p PriceRecord) MarshalJSON() ([]byte, error) {
	type alias PriceRecord
	return json.Marshal(struct {
		alias
		Unit string `json:"unit"`
		Date string `json:"date"`
	}{
		alias: alias(p),
		Unit:  UnitGram,
		Date:  p.DateString(),
	})
}

// FormatWeight renders a gram weight in its shortest form.
func FormatWeight(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64)
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 {
	return &v
}

// Trend classifies the direction of a day-over-day price change.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// ParseTrend validates a trend query value.
func ParseTrend(s string) (Trend, bool) {
	switch Trend(s) {
	case TrendUp, TrendDown, TrendStable:
		return Trend(s), true
	}
	return "", false
}

// PriceChange is the delta between a record and the same vendor/weight on the
// previous calendar day.
type PriceChange struct {
	Vendor        string    `json:"vendor"`
	Weight        float64   `json:"weight"`
	PreviousPrice int64     `json:"previous_price"`
	CurrentPrice  int64     `json:"current_price"`
	ChangeAmount  int64     `json:"change_amount"`
	ChangePercent float64   `json:"change_percent"`
	Trend         Trend     `json:"trend"`
	Date          time.Time `json:"-"`
}

// DateString formats the change date as YYYY-MM-DD.
func (c PriceChange) DateString() string {
	return c.Date.Format(DateLayout)
}

// MarshalJSON renders the date as price_date.
func (c PriceChange) MarshalJSON() ([]byte, error) {
	type alias PriceChange
	return json.Marshal(struct {
		alias
		PriceDate string `json:"price_date"`
	}{
		alias:     alias(c),
		PriceDate: c.DateString(),
	})
}

// TrendSummary counts changes per trend over a period.
type TrendSummary struct {
	Up         int `json:"up"`
	Down       int `json:"down"`
	Stable     int `json:"stable"`
	Total      int `json:"total"`
	PeriodDays int `json:"period_days"`
}

// Add counts one change of the given trend.
func (s *TrendSummary) Add(t Trend) {
	switch t {
	case TrendUp:
		s.Up++
	case TrendDown:
		s.Down++
	case TrendStable:
		s.Stable++
	default:
		return
	}
	s.Total++
}

// Vendor is a vendor listed by the API.
type Vendor struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// DateOf truncates t to its calendar date in t's location and returns
// midnight UTC of that date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
