// Package codec decodes stored field sets into domain values.
//
// All soft-default decisions live here: an absent field yields the caller's
// default, and a field holding the wrong kind yields the same default and is
// logged at debug. Only Require reports an error.
package codec

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chirino/journal-service/internal/docstore/value"
)

// Record reads typed fields out of a stored field set.
type Record struct {
	// Name identifies the owning document in log output.
	Name   string
	fields *value.Fields
}

// NewRecord wraps f. A nil f behaves like an empty field set.
func NewRecord(name string, f *value.Fields) Record {
	if f == nil {
		f = value.NewFields()
	}
	return Record{Name: name, fields: f}
}

// Fields returns the underlying field set.
func (r Record) Fields() *value.Fields { return r.fields }

// Has reports whether the field is present and not null.
func (r Record) Has(key string) bool {
	v, ok := r.fields.Get(key)
	return ok && !v.IsNull()
}

func (r Record) lookup(key string, want value.Kind) (value.Value, bool) {
	v, ok := r.fields.Get(key)
	if !ok || v.IsNull() {
		return value.Value{}, false
	}
	if v.Kind() != want {
		log.Debug("Field has unexpected type, using default", "doc", r.Name, "field", key, "want", want, "got", v.Kind())
		return value.Value{}, false
	}
	return v, true
}

// String returns the field or "".
func (r Record) String(key string) string {
	return r.StringOr(key, "")
}

func (r Record) StringOr(key, def string) string {
	if v, ok := r.lookup(key, value.KindString); ok {
		s, _ := v.AsString()
		return s
	}
	return def
}

func (r Record) StringPtr(key string) *string {
	if v, ok := r.lookup(key, value.KindString); ok {
		s, _ := v.AsString()
		return &s
	}
	return nil
}

func (r Record) Bool(key string, def bool) bool {
	if p := r.BoolPtr(key); p != nil {
		return *p
	}
	return def
}

func (r Record) BoolPtr(key string) *bool {
	if v, ok := r.lookup(key, value.KindBool); ok {
		b, _ := v.AsBool()
		return &b
	}
	return nil
}

func (r Record) Int(key string, def int64) int64 {
	if p := r.IntPtr(key); p != nil {
		return *p
	}
	return def
}

func (r Record) IntPtr(key string) *int64 {
	if v, ok := r.lookup(key, value.KindInt); ok {
		i, _ := v.AsInt()
		return &i
	}
	return nil
}

// Float accepts both double and integer fields.
func (r Record) Float(key string, def float64) float64 {
	if p := r.FloatPtr(key); p != nil {
		return *p
	}
	return def
}

func (r Record) FloatPtr(key string) *float64 {
	v, ok := r.fields.Get(key)
	if !ok || v.IsNull() {
		return nil
	}
	f, ok := v.AsNumber()
	if !ok {
		log.Debug("Field has unexpected type, using default", "doc", r.Name, "field", key, "want", value.KindDouble, "got", v.Kind())
		return nil
	}
	return &f
}

// Time returns nil when the field is absent or not a timestamp.
func (r Record) Time(key string) *time.Time {
	if v, ok := r.lookup(key, value.KindTimestamp); ok {
		t, _ := v.AsTimestamp()
		return &t
	}
	return nil
}

// TimeOr returns def when the field is absent or not a timestamp.
func (r Record) TimeOr(key string, def time.Time) time.Time {
	if t := r.Time(key); t != nil {
		return *t
	}
	return def
}

// Strings returns the string elements of an array field, skipping others.
func (r Record) Strings(key string) []string {
	v, ok := r.lookup(key, value.KindArray)
	if !ok {
		return nil
	}
	arr, _ := v.AsArray()
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		if s, ok := e.AsString(); ok {
			out = append(out, s)
		}
	}
	return out
}

// Record returns a nested map field; absent yields an empty record.
func (r Record) Record(key string) (Record, bool) {
	v, ok := r.lookup(key, value.KindMap)
	if !ok {
		return NewRecord(r.Name+"."+key, nil), false
	}
	m, _ := v.AsMap()
	return NewRecord(r.Name+"."+key, m), true
}

// Records returns the map elements of an array field, skipping others.
func (r Record) Records(key string) []Record {
	v, ok := r.lookup(key, value.KindArray)
	if !ok {
		return nil
	}
	return mapElements(r.Name+"."+key, v)
}

// Require returns a required string field or an error when it is missing.
func (r Record) Require(key string) (string, error) {
	v, ok := r.fields.Get(key)
	if !ok || v.IsNull() {
		return "", fmt.Errorf("%s: missing required field %q", r.Name, key)
	}
	s, ok := v.AsString()
	if !ok {
		return "", fmt.Errorf("%s: required field %q is %s, not string", r.Name, key, v.Kind())
	}
	return s, nil
}

func mapElements(name string, v value.Value) []Record {
	arr, _ := v.AsArray()
	out := make([]Record, 0, len(arr))
	for i, e := range arr {
		m, ok := e.AsMap()
		if !ok {
			log.Debug("Skipping non-map array element", "doc", name, "index", i, "kind", e.Kind())
			continue
		}
		out = append(out, NewRecord(fmt.Sprintf("%s[%d]", name, i), m))
	}
	return out
}
