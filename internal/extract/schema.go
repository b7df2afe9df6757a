package extract

import (
	"unicode/utf8"

	"github.com/lacak-emas/lacak-emas-api/internal/nuxt"
)

// ExtractBySchema scans the pool for objects shaped like price entries and
// dereferences their fields one level. Integer field values that are valid
// indices are treated as references; the object's own index is pre-seeded
// into the visited set so a field pointing back at its owner reads as null.
func ExtractBySchema(pool *nuxt.Pool, opts Options) []Candidate {
	opts = opts.withDefaults()

	var out []Candidate
	for i := 0; i < pool.Len(); i++ {
		fields, ok := pool.At(i).Fields()
		if !ok || schemaMatches(fields) < opts.MinSchemaMatches {
			continue
		}

		c := make(Candidate, len(fields))
		for key, raw := range fields {
			visited := nuxt.Visited{i: {}}
			c[key] = pool.Deref(pool.Interpret(raw, true), visited)
		}

		name, ok := c.Get(FieldVendorName).Str()
		if !ok || utf8.RuneCountInString(name) <= 1 {
			continue
		}
		out = append(out, c)
	}
	return out
}

func schemaMatches(fields map[string]nuxt.Value) int {
	n := 0
	for k := range fields {
		if _, ok := schemaFields[k]; ok {
			n++
		}
	}
	return n
}
