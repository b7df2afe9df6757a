package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lacak-emas/lacak-emas-api/internal/model"
	"github.com/lacak-emas/lacak-emas-api/internal/nuxt"
)

const (
	minPriceToken  = 10_000
	maxPriceToken  = 100_000_000
	minWeightToken = 0.001
	maxWeightToken = 1000
)

var (
	dateToken     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	priceToken    = regexp.MustCompile(`^[\d,.]+$`)
	weightToken   = regexp.MustCompile(`^(0?\.\d+|\d+\.?\d*)$`)
	priceStripper = strings.NewReplacer(",", "", ".", "", " ", "")
)

type token[T any] struct {
	pos   int
	value T
}

// tokenIndex classifies every string in the pool once. Positions are in
// ascending order within each slice.
type tokenIndex struct {
	dates   []token[string]
	vendors []token[string]
	prices  []token[int64]
	weights []token[float64]
}

func indexTokens(pool *nuxt.Pool, markers []string) tokenIndex {
	var idx tokenIndex
	for i := 0; i < pool.Len(); i++ {
		s, ok := pool.At(i).Str()
		if !ok {
			continue
		}
		if dateToken.MatchString(s) {
			idx.dates = append(idx.dates, token[string]{i, s})
		}
		if hasMarker(s, markers) {
			idx.vendors = append(idx.vendors, token[string]{i, s})
		}
		if p, ok := parsePriceToken(s); ok {
			idx.prices = append(idx.prices, token[int64]{i, p})
		}
		if w, ok := parseWeightToken(s); ok {
			idx.weights = append(idx.weights, token[float64]{i, w})
		}
	}
	return idx
}

func hasMarker(s string, markers []string) bool {
	upper := strings.ToUpper(s)
	for _, m := range markers {
		if strings.Contains(upper, m) {
			return true
		}
	}
	return false
}

func parsePriceToken(s string) (int64, bool) {
	compact := strings.ReplaceAll(s, " ", "")
	if !priceToken.MatchString(compact) {
		return 0, false
	}
	n, err := strconv.ParseInt(priceStripper.Replace(compact), 10, 64)
	if err != nil || n < minPriceToken || n > maxPriceToken {
		return 0, false
	}
	return n, true
}

func parseWeightToken(s string) (float64, bool) {
	if !weightToken.MatchString(s) {
		return 0, false
	}
	w, err := strconv.ParseFloat(s, 64)
	if err != nil || w < minWeightToken || w > maxWeightToken {
		return 0, false
	}
	return w, true
}

// within returns the tokens whose position lies in [lo, hi].
func within[T any](tokens []token[T], lo, hi int) []token[T] {
	var out []token[T]
	for _, t := range tokens {
		if t.pos > hi {
			break
		}
		if t.pos >= lo {
			out = append(out, t)
		}
	}
	return out
}

// ExtractByProximity pairs loose weight and price strings found near vendor
// names. It is the fallback for pages whose entries are not serialized as
// recognizable objects. A vendor with no usable neighbours yields nothing.
func ExtractByProximity(pool *nuxt.Pool, opts Options) []Candidate {
	opts = opts.withDefaults()
	idx := indexTokens(pool, opts.Markers)

	date := defaultDate(idx, opts.Today)
	last := pool.Len() - 1

	var out []Candidate
	used := make(map[int]struct{}, len(idx.vendors))
	for _, v := range idx.vendors {
		if _, seen := used[v.pos]; seen {
			continue
		}
		used[v.pos] = struct{}{}

		lo, hi := max(0, v.pos-opts.Window), min(last, v.pos+opts.Window)
		prices := within(idx.prices, lo, hi)
		if len(prices) == 0 {
			continue
		}

		for _, w := range within(idx.weights, lo, hi) {
			best, dist := prices[0], absInt(prices[0].pos-w.pos)
			for _, p := range prices[1:] {
				if d := absInt(p.pos - w.pos); d < dist {
					best, dist = p, d
				}
			}
			if dist >= opts.MaxDistance {
				continue
			}
			out = append(out, Candidate{
				FieldVendorName:   nuxt.String(v.value),
				FieldDenomination: nuxt.Float(w.value),
				FieldSellingPrice: nuxt.Int(best.value),
				FieldPrice:        nuxt.Int(best.value),
				FieldBuybackPrice: nuxt.Null(),
				FieldDate:         nuxt.String(date),
			})
		}
	}
	return out
}

func defaultDate(idx tokenIndex, today time.Time) string {
	if len(idx.dates) > 0 {
		return idx.dates[0].value
	}
	return today.Format(model.DateLayout)
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
