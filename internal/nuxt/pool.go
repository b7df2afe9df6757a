package nuxt

// Pool is the decoded flat array backing a hydration payload. Indices are
// stable for the lifetime of one decode and the pool is never mutated.
type Pool struct {
	values []Value
}

// NewPool wraps values. The slice is owned by the pool from here on.
func NewPool(values ...Value) *Pool {
	return &Pool{values: values}
}

// Len returns the number of entries.
func (p *Pool) Len() int { return len(p.values) }

// At returns the raw entry at i, or Null when i is out of range.
func (p *Pool) At(i int) Value {
	if i < 0 || i >= len(p.values) {
		return Null()
	}
	return p.values[i]
}

// InRange reports whether n is a valid index.
func (p *Pool) InRange(n int64) bool {
	return n >= 0 && n < int64(len(p.values))
}

// Visited records indices already resolved during one resolution chain.
type Visited map[int]struct{}

// Resolve returns the entry at index. Out-of-range indices and indices
// already in visited resolve to Null. Integers come back as literals: whether
// an Int is a number or another index is for the caller to decide.
func (p *Pool) Resolve(index int, visited Visited) Value {
	if index < 0 || index >= len(p.values) {
		return Null()
	}
	if visited != nil {
		if _, seen := visited[index]; seen {
			return Null()
		}
		visited[index] = struct{}{}
	}
	return p.values[index]
}

// Slot is a pool value as interpreted by its consumer: either a literal or
// a reference to another pool index.
type Slot struct {
	lit   Value
	ref   int
	isRef bool
}

// Literal wraps v as a literal slot.
func Literal(v Value) Slot { return Slot{lit: v} }

// Reference wraps a pool index.
func Reference(index int) Slot { return Slot{ref: index, isRef: true} }

// IsReference reports whether the slot points at another index.
func (s Slot) IsReference() bool { return s.isRef }

// Index returns the referenced index.
func (s Slot) Index() int { return s.ref }

// Value returns the literal value (Null for references).
func (s Slot) Value() Value { return s.lit }

// Interpret classifies v. Only an in-range Int in a context the caller knows
// to be reference-typed becomes a Reference; everything else is a Literal.
func (p *Pool) Interpret(v Value, asReference bool) Slot {
	if n, ok := v.IntVal(); ok && asReference && p.InRange(n) {
		return Reference(int(n))
	}
	return Literal(v)
}

// Deref follows a reference slot one level and returns literals unchanged.
func (p *Pool) Deref(s Slot, visited Visited) Value {
	if !s.isRef {
		return s.lit
	}
	return p.Resolve(s.ref, visited)
}
