package extract

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/lacak-emas/lacak-emas-api/internal/model"
	"github.com/lacak-emas/lacak-emas-api/internal/nuxt"
)

// Reject reasons reported by Normalize.
const (
	ReasonVendor = "vendor"
	ReasonWeight = "weight"
	ReasonPrice  = "price"
)

// RejectError explains why a candidate was dropped.
type RejectError struct {
	Reason string
	Detail string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("extract: rejected candidate (%s): %s", e.Reason, e.Detail)
}

func reject(reason, format string, args ...any) *RejectError {
	return &RejectError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// Normalize validates a candidate and converts it to a PriceRecord. today is
// used when the candidate carries no parseable date.
func Normalize(c Candidate, today time.Time) (model.PriceRecord, error) {
	vendor, ok := c.Get(FieldVendorName).Str()
	if !ok {
		return model.PriceRecord{}, reject(ReasonVendor, "vendorName is %s", c.Get(FieldVendorName).Kind())
	}
	if utf8.RuneCountInString(vendor) < 2 {
		return model.PriceRecord{}, reject(ReasonVendor, "vendorName %q too short", vendor)
	}

	weight, ok := parseWeight(c.Get(FieldDenomination))
	if !ok {
		return model.PriceRecord{}, reject(ReasonWeight, "denomination %s not a number", c.Get(FieldDenomination).Kind())
	}
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight <= 0 {
		return model.PriceRecord{}, reject(ReasonWeight, "denomination %v out of range", weight)
	}

	rec := model.PriceRecord{
		Vendor:       vendor,
		Weight:       weight,
		SellingPrice: parsePrice(c.Get(FieldSellingPrice)),
		BuybackPrice: parsePrice(c.Get(FieldBuybackPrice)),
		BasePrice:    parsePrice(c.Get(FieldPrice)),
		Date:         parseDate(c.Get(FieldDate), today),
	}
	if rec.SellingPrice == nil && rec.BuybackPrice == nil && rec.BasePrice == nil {
		return model.PriceRecord{}, reject(ReasonPrice, "%s %sg has no price", vendor, model.FormatWeight(weight))
	}
	return rec, nil
}

// CandidateOf renders a record back into the field set Normalize accepts.
// Normalize(CandidateOf(r), t) returns r for any valid record r.
func CandidateOf(r model.PriceRecord) Candidate {
	return Candidate{
		FieldVendorName:   nuxt.String(r.Vendor),
		FieldDenomination: nuxt.Float(r.Weight),
		FieldSellingPrice: priceValue(r.SellingPrice),
		FieldBuybackPrice: priceValue(r.BuybackPrice),
		FieldPrice:        priceValue(r.BasePrice),
		FieldDate:         nuxt.String(r.DateString()),
	}
}

func priceValue(p *int64) nuxt.Value {
	if p == nil {
		return nuxt.Null()
	}
	return nuxt.Int(*p)
}

func parseWeight(v nuxt.Value) (float64, bool) {
	switch v.Kind() {
	case nuxt.KindInt:
		n, _ := v.IntVal()
		return float64(n), true
	case nuxt.KindFloat:
		return v.FloatVal()
	case nuxt.KindString:
		s, _ := v.Str()
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	return 0, false
}

func parsePrice(v nuxt.Value) *int64 {
	switch v.Kind() {
	case nuxt.KindInt:
		n, _ := v.IntVal()
		if n < 0 {
			return nil
		}
		return model.Int64(n)
	case nuxt.KindFloat:
		f, _ := v.FloatVal()
		if math.IsNaN(f) || f < 0 || f >= math.MaxInt64 {
			return nil
		}
		return model.Int64(int64(f))
	case nuxt.KindString:
		s, _ := v.Str()
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, s)
		if digits == "" {
			return nil
		}
		n, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			return nil
		}
		return model.Int64(n)
	}
	return nil
}

func parseDate(v nuxt.Value, today time.Time) time.Time {
	if s, ok := v.Str(); ok {
		s = strings.TrimFunc(s, unicode.IsSpace)
		if len(s) >= len(model.DateLayout) {
			if d, err := model.ParseDate(s[:len(model.DateLayout)]); err == nil {
				return d
			}
		}
	}
	return model.DateOf(today)
}
