package ident

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type rank int

func (r rank) Rank() int { return int(r) }

func TestContentID(t *testing.T) {
	a := ContentID("Buy milk")
	require.Len(t, a, ContentIDLength)
	require.Regexp(t, `^[0-9a-f]{20}$`, a)
	require.Equal(t, a, ContentID("Buy milk"))
	require.NotEqual(t, a, ContentID("Buy bread"))
	// sha256("abc") = ba7816bf8f01cfea414140de5dae2223...
	require.Equal(t, "ba7816bf8f01cfea4141", ContentID("abc"))
}

func TestComputeScoringFormat(t *testing.T) {
	ts := time.Unix(1_700_000_000, 0)
	require.Equal(t, "00_999_1700000000", ComputeScoring(rank(0), ts, false))
	require.Equal(t, "01_998_1700000000", ComputeScoring(rank(1), ts, true))
	require.Equal(t, "00_999_0000000000", ComputeScoring(nil, time.Unix(-5, 0), false))
	require.Equal(t, "00_000_9999999999", ComputeScoring(rank(5000), time.Unix(20_000_000_000, 0), false))
}

func TestComputeScoringMonotonic(t *testing.T) {
	older := time.Unix(1_600_000_000, 0)
	newer := time.Unix(1_700_000_000, 0)

	t.Run("manual beats everything", func(t *testing.T) {
		require.Greater(t, ComputeScoring(rank(1), older, true), ComputeScoring(rank(0), newer, false))
	})
	t.Run("priority beats recency", func(t *testing.T) {
		require.Greater(t, ComputeScoring(rank(0), older, false), ComputeScoring(rank(1), newer, false))
	})
	t.Run("recency breaks ties", func(t *testing.T) {
		require.Greater(t, ComputeScoring(rank(1), newer, false), ComputeScoring(rank(1), older, false))
	})
	t.Run("higher priority with equal time", func(t *testing.T) {
		for boost := range 2 {
			for r := 0; r < 5; r++ {
				a := ComputeScoring(rank(r), newer, boost == 1)
				b := ComputeScoring(rank(r+1), newer, boost == 1)
				require.Greater(t, a, b)
			}
		}
	})
}
