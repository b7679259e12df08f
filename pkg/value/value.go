package value

import (
	"sort"
	"time"
	"unicode/utf8"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
	KindDate
)

var kindNames = [...]string{"null", "boolean", "number", "string", "array", "object", "date"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is the only runtime value flowing through formulas and action arguments.
// The zero Value is null. Values are immutable: constructors copy their inputs
// and accessors hand out copies.
type Value struct {
	kind   Kind
	b      bool
	n      float64
	s      string
	items  []Value
	fields map[string]Value
	t      time.Time
}

// Null returns the null Value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a float64. NaN and infinities are representable.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// Int is a convenience for Number(float64(i)).
func Int(i int) Value { return Value{kind: KindNumber, n: float64(i)} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Date wraps a time instant at millisecond precision.
func Date(t time.Time) Value { return Value{kind: KindDate, t: t.Truncate(time.Millisecond)} }

// Array builds an ordered sequence.
func Array(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindArray, items: cp}
}

// Object builds a keyed mapping. A nil map yields an empty object.
func Object(fields map[string]Value) Value {
	cp := make(map[string]Value, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return Value{kind: KindObject, fields: cp}
}

// adoptArray wraps items without copying. Callers must not retain items.
func adoptArray(items []Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, items: items}
}

// adoptObject wraps fields without copying. Callers must not retain fields.
func adoptObject(fields map[string]Value) Value {
	if fields == nil {
		fields = map[string]Value{}
	}
	return Value{kind: KindObject, fields: fields}
}

// Kind reports the variant.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == KindNumber }

func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

func (v Value) AsDate() (time.Time, bool) { return v.t, v.kind == KindDate }

// AsArray returns a copy of the elements when v is an array.
func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	cp := make([]Value, len(v.items))
	copy(cp, v.items)
	return cp, true
}

// AsObject returns a copy of the fields when v is an object.
func (v Value) AsObject() (map[string]Value, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	cp := make(map[string]Value, len(v.fields))
	for k, f := range v.fields {
		cp[k] = f
	}
	return cp, true
}

// Len is the element count of an array, the field count of an object or the
// rune count of a string. Other kinds report -1.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.items)
	case KindObject:
		return len(v.fields)
	case KindString:
		return utf8.RuneCountInString(v.s)
	}
	return -1
}

// Index returns the i-th array element, or null when out of range or not an array.
func (v Value) Index(i int) Value {
	if v.kind != KindArray || i < 0 || i >= len(v.items) {
		return Null()
	}
	return v.items[i]
}

// Field returns the named object field, or null.
func (v Value) Field(key string) Value {
	if v.kind != KindObject {
		return Null()
	}
	return v.fields[key]
}

// Lookup is like Field but reports presence.
func (v Value) Lookup(key string) (Value, bool) {
	if v.kind != KindObject {
		return Null(), false
	}
	f, ok := v.fields[key]
	return f, ok
}

// Keys returns the object's keys in sorted order.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	keys := make([]string, 0, len(v.fields))
	for k := range v.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// With returns a copy of the object with key set. Non-objects are treated as empty objects.
func (v Value) With(key string, f Value) Value {
	fields := make(map[string]Value, len(v.fields)+1)
	if v.kind == KindObject {
		for k, x := range v.fields {
			fields[k] = x
		}
	}
	fields[key] = f
	return adoptObject(fields)
}

func (v Value) String() string { return ToString(v) }
