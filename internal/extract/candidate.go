// Package extract turns a hydration value pool into normalized price
// records. A schema-directed pass runs first; when it finds nothing, a
// positional heuristic over raw pool strings takes over.
package extract

import (
	"time"

	"github.com/lacak-emas/lacak-emas-api/internal/nuxt"
)

// Field names of a price entry as serialized by the source page.
const (
	FieldID           = "id"
	FieldPrice        = "price"
	FieldSellingPrice = "sellingPrice"
	FieldBuybackPrice = "buybackPrice"
	FieldDenomination = "denomination"
	FieldVendorName   = "vendorName"
	FieldDate         = "date"
	FieldStatus       = "status"
)

var schemaFields = map[string]struct{}{
	FieldID:           {},
	FieldPrice:        {},
	FieldSellingPrice: {},
	FieldBuybackPrice: {},
	FieldDenomination: {},
	FieldVendorName:   {},
	FieldDate:         {},
	FieldStatus:       {},
}

// Tunables for the positional fallback. Neither value has a documented
// derivation upstream; they are kept as observed.
const (
	// DefaultWindow is how many pool positions on each side of a vendor
	// token are scanned for prices and weights.
	DefaultWindow = 30
	// DefaultMaxDistance is the exclusive upper bound on the positional
	// distance between a weight token and its paired price token.
	DefaultMaxDistance = 15
	// DefaultMinSchemaMatches is how many schema field names an object
	// must carry to be considered a price entry.
	DefaultMinSchemaMatches = 4
)

// Candidate is an unvalidated field set believed to describe one price.
type Candidate map[string]nuxt.Value

// Get returns the named field, or Null.
func (c Candidate) Get(name string) nuxt.Value {
	if c == nil {
		return nuxt.Null()
	}
	return c[name]
}

// Options tunes both extractors.
type Options struct {
	// Markers are upper-cased substrings identifying vendor names.
	Markers []string
	// Today is the fallback price date.
	Today time.Time

	Window           int
	MaxDistance      int
	MinSchemaMatches int
}

func (o Options) withDefaults() Options {
	if o.Window <= 0 {
		o.Window = DefaultWindow
	}
	if o.MaxDistance <= 0 {
		o.MaxDistance = DefaultMaxDistance
	}
	if o.MinSchemaMatches <= 0 {
		o.MinSchemaMatches = DefaultMinSchemaMatches
	}
	return o
}
