package value

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// TimeFormat is the wire format for timestamps. Values are always UTC.
const TimeFormat = time.RFC3339Nano

// MarshalJSON encodes v in the store's tagged form, e.g. {"stringValue":"x"}.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) writeJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString(`{"nullValue":null}`)
	case KindBool:
		fmt.Fprintf(buf, `{"booleanValue":%t}`, v.b)
	case KindInt:
		fmt.Fprintf(buf, `{"integerValue":"%d"}`, v.i)
	case KindDouble:
		buf.WriteString(`{"doubleValue":`)
		switch {
		case math.IsNaN(v.f):
			buf.WriteString(`"NaN"`)
		case math.IsInf(v.f, 1):
			buf.WriteString(`"Infinity"`)
		case math.IsInf(v.f, -1):
			buf.WriteString(`"-Infinity"`)
		default:
			buf.WriteString(strconv.FormatFloat(v.f, 'g', -1, 64))
		}
		buf.WriteByte('}')
	case KindString:
		buf.WriteString(`{"stringValue":`)
		if err := writeJSONString(buf, v.s); err != nil {
			return err
		}
		buf.WriteByte('}')
	case KindBytes:
		buf.WriteString(`{"bytesValue":"`)
		buf.WriteString(base64.StdEncoding.EncodeToString(v.raw))
		buf.WriteString(`"}`)
	case KindTimestamp:
		buf.WriteString(`{"timestampValue":"`)
		buf.WriteString(v.t.UTC().Format(TimeFormat))
		buf.WriteString(`"}`)
	case KindArray:
		if len(v.arr) == 0 {
			buf.WriteString(`{"arrayValue":{}}`)
			return nil
		}
		buf.WriteString(`{"arrayValue":{"values":[`)
		for i, e := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := e.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteString(`]}}`)
	case KindMap:
		buf.WriteString(`{"mapValue":{"fields":`)
		if err := v.m.writeJSON(buf); err != nil {
			return err
		}
		buf.WriteString(`}}`)
	default:
		return fmt.Errorf("value: cannot encode %s", v.kind)
	}
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

// UnmarshalJSON decodes a single tagged value.
func (v *Value) UnmarshalJSON(data []byte) error {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("value: %w", err)
	}
	if len(tagged) != 1 {
		return fmt.Errorf("value: expected exactly one type tag, got %d", len(tagged))
	}
	for tag, raw := range tagged {
		out, err := decodeTagged(tag, raw)
		if err != nil {
			return err
		}
		*v = out
	}
	return nil
}

func decodeTagged(tag string, raw json.RawMessage) (Value, error) {
	switch tag {
	case "nullValue":
		return Null(), nil
	case "booleanValue":
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return Value{}, fmt.Errorf("value: booleanValue: %w", err)
		}
		return Bool(b), nil
	case "integerValue":
		i, err := strconv.ParseInt(unquote(raw), 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("value: integerValue: %w", err)
		}
		return Int(i), nil
	case "doubleValue":
		s := unquote(raw)
		switch s {
		case "NaN":
			return Double(math.NaN()), nil
		case "Infinity":
			return Double(math.Inf(1)), nil
		case "-Infinity":
			return Double(math.Inf(-1)), nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, fmt.Errorf("value: doubleValue: %w", err)
		}
		return Double(f), nil
	case "stringValue", "referenceValue":
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Value{}, fmt.Errorf("value: %s: %w", tag, err)
		}
		return String(s), nil
	case "bytesValue":
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Value{}, fmt.Errorf("value: bytesValue: %w", err)
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			if b, err = base64.URLEncoding.DecodeString(s); err != nil {
				return Value{}, fmt.Errorf("value: bytesValue: %w", err)
			}
		}
		return Value{kind: KindBytes, raw: b}, nil
	case "timestampValue":
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Value{}, fmt.Errorf("value: timestampValue: %w", err)
		}
		t, err := time.Parse(TimeFormat, s)
		if err != nil {
			return Value{}, fmt.Errorf("value: timestampValue: %w", err)
		}
		return Timestamp(t), nil
	case "arrayValue":
		var arr struct {
			Values []Value `json:"values"`
		}
		if err := json.Unmarshal(raw, &arr); err != nil {
			return Value{}, fmt.Errorf("value: arrayValue: %w", err)
		}
		if arr.Values == nil {
			arr.Values = []Value{}
		}
		return Value{kind: KindArray, arr: arr.Values}, nil
	case "mapValue":
		var m struct {
			Fields *Fields `json:"fields"`
		}
		if err := json.Unmarshal(raw, &m); err != nil {
			return Value{}, fmt.Errorf("value: mapValue: %w", err)
		}
		return Map(m.Fields), nil
	case "geoPointValue":
		var g struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		}
		if err := json.Unmarshal(raw, &g); err != nil {
			return Value{}, fmt.Errorf("value: geoPointValue: %w", err)
		}
		f := NewFields().Set("latitude", Double(g.Latitude)).Set("longitude", Double(g.Longitude))
		return Map(f), nil
	default:
		return Value{}, fmt.Errorf("value: unsupported type tag %q", tag)
	}
}

// unquote strips surrounding quotes so that numeric tags accept both the
// string form and a bare JSON number.
func unquote(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

// MarshalJSON writes the fields as a JSON object in insertion order.
func (f *Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := f.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (f *Fields) writeJSON(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	for i, n := range f.Names() {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(buf, n); err != nil {
			return err
		}
		buf.WriteByte(':')
		v, _ := f.Get(n)
		if err := v.writeJSON(buf); err != nil {
			return fmt.Errorf("field %q: %w", n, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

// UnmarshalJSON reads a JSON object of tagged values, keeping the wire order.
func (f *Fields) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("fields: %w", err)
	}
	if tok == nil {
		*f = Fields{values: map[string]Value{}}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("fields: expected object, got %v", tok)
	}
	out := Fields{values: map[string]Value{}}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("fields: %w", err)
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("fields: expected field name, got %v", tok)
		}
		var v Value
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		out.Set(name, v)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("fields: %w", err)
	}
	*f = out
	return nil
}
