package value

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWireRoundTrip(t *testing.T) {
	nested := NewFields().
		Set("title", String("Buy milk")).
		Set("tags", Strings([]string{"a", "b"}))

	values := []Value{
		Null(),
		Bool(true),
		Int(math.MaxInt64),
		Int(math.MinInt64),
		Double(0.1),
		Double(math.Inf(-1)),
		String("héllo \"quoted\""),
		Bytes([]byte{0, 1, 2, 255}),
		Timestamp(time.Date(2024, 3, 1, 12, 30, 45, 123456789, time.FixedZone("X", 3600))),
		Array(),
		Array(Int(1), String("two"), Map(nested)),
		Map(nested),
	}
	for _, v := range values {
		t.Run(v.Kind().String(), func(t *testing.T) {
			data, err := json.Marshal(v)
			require.NoError(t, err)
			var got Value
			require.NoError(t, json.Unmarshal(data, &got))
			assert.True(t, v.Equal(got), "round trip of %s gave %s (wire %s)", v, got, data)
		})
	}
}

func TestIntegerEncodesAsDecimalString(t *testing.T) {
	data, err := json.Marshal(Int(42))
	require.NoError(t, err)
	require.JSONEq(t, `{"integerValue":"42"}`, string(data))

	var v Value
	require.NoError(t, json.Unmarshal([]byte(`{"integerValue": 7}`), &v))
	i, ok := v.AsInt()
	require.True(t, ok)
	require.Equal(t, int64(7), i)
}

func TestDoubleSpecialValues(t *testing.T) {
	data, err := json.Marshal(Double(math.NaN()))
	require.NoError(t, err)
	require.JSONEq(t, `{"doubleValue":"NaN"}`, string(data))

	var v Value
	require.NoError(t, json.Unmarshal(data, &v))
	f, ok := v.AsDouble()
	require.True(t, ok)
	require.True(t, math.IsNaN(f))
}

func TestTimestampIsUTC(t *testing.T) {
	local := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("PST", -8*3600))
	data, err := json.Marshal(Timestamp(local))
	require.NoError(t, err)
	require.JSONEq(t, `{"timestampValue":"2024-01-02T11:04:05Z"}`, string(data))
}

func TestEmptyArrayShape(t *testing.T) {
	data, err := json.Marshal(Array())
	require.NoError(t, err)
	require.JSONEq(t, `{"arrayValue":{}}`, string(data))

	var v Value
	require.NoError(t, json.Unmarshal(data, &v))
	arr, ok := v.AsArray()
	require.True(t, ok)
	require.Empty(t, arr)
}

func TestFieldsPreserveOrder(t *testing.T) {
	f := NewFields().Set("z", Int(1)).Set("a", Int(2)).Set("m", Int(3))
	data, err := json.Marshal(f)
	require.NoError(t, err)
	require.True(t, bytes.Index(data, []byte(`"z"`)) < bytes.Index(data, []byte(`"a"`)))

	var back Fields
	require.NoError(t, json.Unmarshal([]byte(`{"b":{"nullValue":null},"a":{"booleanValue":false}}`), &back))
	require.Equal(t, []string{"b", "a"}, back.Names())

	f.Set("z", Int(9))
	require.Equal(t, []string{"z", "a", "m"}, f.Names())
	f.Delete("a")
	require.Equal(t, []string{"z", "m"}, f.Names())
}

func TestUnmarshalRejectsUnknownTag(t *testing.T) {
	var v Value
	err := json.Unmarshal([]byte(`{"pigeonValue":"coo"}`), &v)
	require.ErrorContains(t, err, "pigeonValue")

	err = json.Unmarshal([]byte(`{"stringValue":"a","integerValue":"1"}`), &v)
	require.Error(t, err)
}

func TestReferenceAndGeoPointDecode(t *testing.T) {
	var ref Value
	require.NoError(t, json.Unmarshal([]byte(`{"referenceValue":"projects/p/databases/(default)/documents/users/u1"}`), &ref))
	s, ok := ref.AsString()
	require.True(t, ok)
	require.Contains(t, s, "users/u1")

	var geo Value
	require.NoError(t, json.Unmarshal([]byte(`{"geoPointValue":{"latitude":1.5,"longitude":-2}}`), &geo))
	m, ok := geo.AsMap()
	require.True(t, ok)
	lat, _ := m.Get("latitude")
	require.True(t, lat.Equal(Double(1.5)))
}

func TestFromJSON(t *testing.T) {
	dec := json.NewDecoder(bytes.NewReader([]byte(`{"b":[1,2.5,"x",true,null],"a":{"n":10}}`)))
	dec.UseNumber()
	var raw any
	require.NoError(t, dec.Decode(&raw))

	v, err := FromJSON(raw)
	require.NoError(t, err)
	m, ok := v.AsMap()
	require.True(t, ok)
	require.Equal(t, []string{"a", "b"}, m.Names())

	b, _ := m.Get("b")
	arr, _ := b.AsArray()
	require.Len(t, arr, 5)
	require.Equal(t, KindInt, arr[0].Kind())
	require.Equal(t, KindDouble, arr[1].Kind())
	require.Equal(t, KindNull, arr[4].Kind())

	back := ToJSON(v).(map[string]any)
	require.Equal(t, int64(10), back["a"].(map[string]any)["n"])
}

func TestAsNumber(t *testing.T) {
	f, ok := Int(3).AsNumber()
	require.True(t, ok)
	require.Equal(t, 3.0, f)
	_, ok = String("3").AsNumber()
	require.False(t, ok)
}
