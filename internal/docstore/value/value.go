// Package value implements the tagged value model used by the document store.
//
// A Value is a closed sum over the wire tags the store understands. Consumers
// switch on Kind and use the typed accessors; every accessor reports whether
// the value actually held that kind.
package value

import (
	"fmt"
	"time"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindDouble
	KindString
	KindBytes
	KindTimestamp
	KindArray
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindTimestamp:
		return "timestamp"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is an immutable tagged value. The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	raw  []byte
	t    time.Time
	arr  []Value
	m    *Fields
}

func Null() Value { return Value{} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func Int(i int64) Value { return Value{kind: KindInt, i: i} }

func Double(f float64) Value { return Value{kind: KindDouble, f: f} }

func String(s string) Value { return Value{kind: KindString, s: s} }

// Bytes copies b.
func Bytes(b []byte) Value {
	c := make([]byte, len(b))
	copy(c, b)
	return Value{kind: KindBytes, raw: c}
}

// Timestamp normalizes t to UTC and strips the monotonic reading.
func Timestamp(t time.Time) Value {
	return Value{kind: KindTimestamp, t: t.UTC().Round(0)}
}

// Array copies vs.
func Array(vs ...Value) Value {
	c := make([]Value, len(vs))
	copy(c, vs)
	return Value{kind: KindArray, arr: c}
}

// Map wraps f. A nil f is an empty map.
func Map(f *Fields) Value {
	if f == nil {
		f = NewFields()
	}
	return Value{kind: KindMap, m: f}
}

// Strings is shorthand for an array of string values.
func Strings(ss []string) Value {
	vs := make([]Value, len(ss))
	for i, s := range ss {
		vs[i] = String(s)
	}
	return Value{kind: KindArray, arr: vs}
}

// OptString returns Null for a nil pointer.
func OptString(s *string) Value {
	if s == nil {
		return Null()
	}
	return String(*s)
}

// OptTimestamp returns Null for a nil pointer.
func OptTimestamp(t *time.Time) Value {
	if t == nil {
		return Null()
	}
	return Timestamp(*t)
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

func (v Value) AsDouble() (float64, bool) { return v.f, v.kind == KindDouble }

// AsNumber accepts both Int and Double.
func (v Value) AsNumber() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindDouble:
		return v.f, true
	default:
		return 0, false
	}
}

func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

func (v Value) AsBytes() ([]byte, bool) { return v.raw, v.kind == KindBytes }

func (v Value) AsTimestamp() (time.Time, bool) { return v.t, v.kind == KindTimestamp }

func (v Value) AsArray() ([]Value, bool) { return v.arr, v.kind == KindArray }

func (v Value) AsMap() (*Fields, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.m, true
}

// Equal reports deep equality. Doubles compare by value, so NaN != NaN.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindDouble:
		return v.f == o.f
	case KindString:
		return v.s == o.s
	case KindBytes:
		return string(v.raw) == string(o.raw)
	case KindTimestamp:
		return v.t.Equal(o.t)
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
	case KindMap:
		return v.m.Equal(o.m)
	default:
		return false
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprint(v.b)
	case KindInt:
		return fmt.Sprint(v.i)
	case KindDouble:
		return fmt.Sprint(v.f)
	case KindString:
		return fmt.Sprintf("%q", v.s)
	case KindBytes:
		return fmt.Sprintf("bytes(%d)", len(v.raw))
	case KindTimestamp:
		return v.t.Format(time.RFC3339Nano)
	case KindArray:
		return fmt.Sprint(v.arr)
	case KindMap:
		return v.m.String()
	default:
		return v.kind.String()
	}
}

// Fields is an insertion-ordered map of field name to Value.
type Fields struct {
	names  []string
	values map[string]Value
}

func NewFields() *Fields {
	return &Fields{values: map[string]Value{}}
}

// Set replaces an existing field in place or appends a new one.
func (f *Fields) Set(name string, v Value) *Fields {
	if f.values == nil {
		f.values = map[string]Value{}
	}
	if _, ok := f.values[name]; !ok {
		f.names = append(f.names, name)
	}
	f.values[name] = v
	return f
}

func (f *Fields) Get(name string) (Value, bool) {
	if f == nil {
		return Value{}, false
	}
	v, ok := f.values[name]
	return v, ok
}

func (f *Fields) Delete(name string) {
	if f == nil {
		return
	}
	if _, ok := f.values[name]; !ok {
		return
	}
	delete(f.values, name)
	for i, n := range f.names {
		if n == name {
			f.names = append(f.names[:i], f.names[i+1:]...)
			break
		}
	}
}

// Names returns the field names in insertion order.
func (f *Fields) Names() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.names)
}

// Equal ignores field order.
func (f *Fields) Equal(o *Fields) bool {
	if f.Len() != o.Len() {
		return false
	}
	for _, n := range f.Names() {
		ov, ok := o.Get(n)
		if !ok {
			return false
		}
		v, _ := f.Get(n)
		if !v.Equal(ov) {
			return false
		}
	}
	return true
}

func (f *Fields) String() string {
	s := "{"
	for i, n := range f.Names() {
		if i > 0 {
			s += ", "
		}
		v, _ := f.Get(n)
		s += n + ": " + v.String()
	}
	return s + "}"
}
