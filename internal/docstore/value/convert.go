package value

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// FromJSON converts a plain JSON tree into a Value. Numbers decoded with
// json.Decoder.UseNumber become Int when integral and Double otherwise;
// plain float64 numbers follow the same rule. Object keys are sorted because
// plain JSON maps carry no order.
func FromJSON(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		if i, err := strconv.ParseInt(t.String(), 10, 64); err == nil {
			return Int(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("value: number %q: %w", t, err)
		}
		return Double(f), nil
	case float64:
		if t == float64(int64(t)) && t >= -(1<<53) && t <= 1<<53 {
			return Int(int64(t)), nil
		}
		return Double(t), nil
	case int:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case []any:
		vs := make([]Value, len(t))
		for i, e := range t {
			v, err := FromJSON(e)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			vs[i] = v
		}
		return Value{kind: KindArray, arr: vs}, nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		f := NewFields()
		for _, k := range keys {
			v, err := FromJSON(t[k])
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", k, err)
			}
			f.Set(k, v)
		}
		return Map(f), nil
	default:
		return Value{}, fmt.Errorf("value: unsupported JSON type %T", x)
	}
}

// ToJSON converts v into a plain JSON tree. Timestamps become RFC 3339
// strings and bytes become base64 strings.
func ToJSON(v Value) any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindDouble:
		return v.f
	case KindString:
		return v.s
	case KindBytes:
		return base64.StdEncoding.EncodeToString(v.raw)
	case KindTimestamp:
		return v.t.UTC().Format(time.RFC3339Nano)
	case KindArray:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			out[i] = ToJSON(e)
		}
		return out
	case KindMap:
		return FieldsToJSON(v.m)
	default:
		return nil
	}
}

// FieldsToJSON converts a field set into a plain JSON object.
func FieldsToJSON(f *Fields) map[string]any {
	out := make(map[string]any, f.Len())
	for _, n := range f.Names() {
		v, _ := f.Get(n)
		out[n] = ToJSON(v)
	}
	return out
}
