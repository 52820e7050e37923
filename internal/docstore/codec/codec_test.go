package codec

import (
	"testing"
	"time"

	"github.com/chirino/journal-service/internal/docstore/value"
	"github.com/stretchr/testify/require"
)

func TestRecordDefaults(t *testing.T) {
	created := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	f := value.NewFields().
		Set("description", value.String("Buy milk")).
		Set("completed", value.Bool(true)).
		Set("created_at", value.Timestamp(created)).
		Set("count", value.Int(4)).
		Set("rating", value.Int(5)).
		Set("wrong", value.Int(1)).
		Set("gone", value.Null())
	r := NewRecord("users/u/action_items/a", f)

	require.Equal(t, "Buy milk", r.String("description"))
	require.True(t, r.Bool("completed", false))
	require.Equal(t, created, r.TimeOr("created_at", time.Time{}))
	require.Equal(t, int64(4), r.Int("count", 0))
	require.Equal(t, 5.0, r.Float("rating", 0))

	t.Run("missing updated_at is nil, not an error", func(t *testing.T) {
		require.Nil(t, r.Time("updated_at"))
	})
	t.Run("wrong kind falls back", func(t *testing.T) {
		require.Equal(t, "fallback", r.StringOr("wrong", "fallback"))
		require.Nil(t, r.BoolPtr("wrong"))
	})
	t.Run("null is absent", func(t *testing.T) {
		require.False(t, r.Has("gone"))
		require.Nil(t, r.StringPtr("gone"))
	})
	t.Run("require", func(t *testing.T) {
		s, err := r.Require("description")
		require.NoError(t, err)
		require.Equal(t, "Buy milk", s)
		_, err = r.Require("content")
		require.ErrorContains(t, err, "content")
		_, err = r.Require("count")
		require.Error(t, err)
	})
}

func TestNestedRecords(t *testing.T) {
	seg := value.NewFields().Set("text", value.String("hi"))
	f := value.NewFields().
		Set("structured", value.Map(value.NewFields().Set("title", value.String("T")))).
		Set("segments", value.Array(value.Map(seg), value.String("junk"))).
		Set("tags", value.Array(value.String("a"), value.Int(2), value.String("b")))
	r := NewRecord("doc", f)

	s, ok := r.Record("structured")
	require.True(t, ok)
	require.Equal(t, "T", s.String("title"))

	_, ok = r.Record("missing")
	require.False(t, ok)

	recs := r.Records("segments")
	require.Len(t, recs, 1)
	require.Equal(t, "hi", recs[0].String("text"))

	require.Equal(t, []string{"a", "b"}, r.Strings("tags"))
}

func TestLegacyRecords(t *testing.T) {
	t.Run("compressed bytes", func(t *testing.T) {
		blob, err := Deflate([]map[string]any{
			{"text": "hello", "speaker": "SPEAKER_01", "speaker_id": 1, "start": 0.5, "end": 2},
			{"text": "world"},
		})
		require.NoError(t, err)

		recs := LegacyRecords("seg", value.Bytes(blob))
		require.Len(t, recs, 2)
		require.Equal(t, "hello", recs[0].String("text"))
		require.Equal(t, int64(1), recs[0].Int("speaker_id", 0))
		require.Equal(t, 0.5, recs[0].Float("start", 0))
		require.Equal(t, 2.0, recs[0].Float("end", 0))
		require.Equal(t, "SPEAKER_00", recs[1].StringOr("speaker", "SPEAKER_00"))
	})
	t.Run("corrupt bytes yield empty", func(t *testing.T) {
		recs := LegacyRecords("seg", value.Bytes([]byte("not zlib")))
		require.NotNil(t, recs)
		require.Empty(t, recs)
	})
	t.Run("encrypted string yields empty", func(t *testing.T) {
		require.Empty(t, LegacyRecords("seg", value.String("ZW5jcnlwdGVk")))
	})
	t.Run("plain array", func(t *testing.T) {
		v := value.Array(value.Map(value.NewFields().Set("text", value.String("plain"))))
		recs := NewRecord("conv", value.NewFields().Set("segments", v)).LegacyRecords("segments")
		require.Len(t, recs, 1)
		require.Equal(t, "plain", recs[0].String("text"))
	})
	t.Run("absent", func(t *testing.T) {
		require.Empty(t, NewRecord("conv", nil).LegacyRecords("segments"))
	})
}
