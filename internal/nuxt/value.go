// Package nuxt decodes the flat, index-addressed value pool that Nuxt embeds
// in server-rendered pages and resolves references into it.
package nuxt

import (
	"encoding/json"
	"sort"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	}
	return "unknown"
}

// Value is one entry of the pool, or one field of a candidate record.
// The zero Value is Null.
type Value struct {
	kind Kind
	str  string
	num  int64
	flt  float64
	bln  bool
	obj  map[string]Value
	arr  []Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// String wraps s.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Int wraps an integer literal (which may also be a pool index).
func Int(n int64) Value { return Value{kind: KindInt, num: n} }

// Float wraps a non-integral number.
func Float(f float64) Value { return Value{kind: KindFloat, flt: f} }

// Bool wraps b.
func Bool(b bool) Value { return Value{kind: KindBool, bln: b} }

// Object wraps a dictionary-shaped entry.
func Object(fields map[string]Value) Value {
	if fields == nil {
		fields = map[string]Value{}
	}
	return Value{kind: KindObject, obj: fields}
}

// Array wraps a list-shaped entry.
func Array(items []Value) Value { return Value{kind: KindArray, arr: items} }

// Kind reports the variant.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string payload.
func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

// IntVal returns the integer payload.
func (v Value) IntVal() (int64, bool) { return v.num, v.kind == KindInt }

// FloatVal returns the float payload.
func (v Value) FloatVal() (float64, bool) { return v.flt, v.kind == KindFloat }

// BoolVal returns the boolean payload.
func (v Value) BoolVal() (bool, bool) { return v.bln, v.kind == KindBool }

// Fields returns the object's fields. The map must not be modified.
func (v Value) Fields() (map[string]Value, bool) { return v.obj, v.kind == KindObject }

// Items returns the array's elements. The slice must not be modified.
func (v Value) Items() ([]Value, bool) { return v.arr, v.kind == KindArray }

// Keys returns the object's keys in sorted order, or nil for non-objects.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	keys := make([]string, 0, len(v.obj))
	for k := range v.obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports deep equality.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == o.str
	case KindInt:
		return v.num == o.num
	case KindFloat:
		return v.flt == o.flt
	case KindBool:
		return v.bln == o.bln
	case KindObject:
		if len(v.obj) != len(o.obj) {
			return false
		}
		for k, x := range v.obj {
			y, ok := o.obj[k]
			if !ok || !x.Equal(y) {
				return false
			}
		}
		return true
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// fromJSON converts a value produced by a json.Decoder with UseNumber set.
func fromJSON(raw any) Value {
	switch x := raw.(type) {
	case nil:
		return Null()
	case string:
		return String(x)
	case bool:
		return Bool(x)
	case json.Number:
		return fromNumber(x)
	case float64:
		return Float(x)
	case map[string]any:
		fields := make(map[string]Value, len(x))
		for k, e := range x {
			fields[k] = fromJSON(e)
		}
		return Object(fields)
	case []any:
		items := make([]Value, len(x))
		for i, e := range x {
			items[i] = fromJSON(e)
		}
		return Array(items)
	}
	return Null()
}

// fromNumber keeps integral literals as Int so they stay usable as indices.
func fromNumber(n json.Number) Value {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := n.Int64(); err == nil {
			return Int(i)
		}
	}
	f, err := n.Float64()
	if err != nil {
		return Null()
	}
	return Float(f)
}
