package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/chirino/journal-service/internal/docstore/value"
	"github.com/klauspost/compress/zlib"
)

// maxInflatedSize bounds a decompressed legacy blob.
const maxInflatedSize = 64 << 20

// LegacyRecords decodes a field that older writers stored in one of three
// shapes:
//   - bytes: a zlib-compressed JSON array of objects
//   - string: encrypted content, which is not readable here and yields nothing
//   - array: plain map elements
//
// Unreadable content yields an empty slice, never an error.
func LegacyRecords(name string, v value.Value) []Record {
	switch v.Kind() {
	case value.KindBytes:
		raw, _ := v.AsBytes()
		recs, err := inflateRecords(name, raw)
		if err != nil {
			log.Warn("Failed to decode compressed field", "doc", name, "err", err)
			return []Record{}
		}
		log.Debug("Decompressed legacy field", "doc", name, "records", len(recs))
		return recs
	case value.KindString:
		log.Debug("Field is encrypted, returning empty", "doc", name)
		return []Record{}
	case value.KindArray:
		return mapElements(name, v)
	default:
		return []Record{}
	}
}

// LegacyRecords reads key from r through the legacy decoder.
func (r Record) LegacyRecords(key string) []Record {
	v, ok := r.fields.Get(key)
	if !ok {
		return []Record{}
	}
	return LegacyRecords(r.Name+"."+key, v)
}

func inflateRecords(name string, compressed []byte) ([]Record, error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	defer zr.Close()

	data, err := io.ReadAll(io.LimitReader(zr, maxInflatedSize+1))
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	if len(data) > maxInflatedSize {
		return nil, fmt.Errorf("inflate: content exceeds %d bytes", maxInflatedSize)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var items []any
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	out := make([]Record, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		v, err := value.FromJSON(obj)
		if err != nil {
			log.Debug("Skipping unreadable element", "doc", name, "index", i, "err", err)
			continue
		}
		m, _ := v.AsMap()
		out = append(out, NewRecord(fmt.Sprintf("%s[%d]", name, i), m))
	}
	return out, nil
}

// Deflate compresses records the way legacy writers did. It exists so that
// tests and tooling can produce legacy blobs.
func Deflate(items []map[string]any) ([]byte, error) {
	data, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
