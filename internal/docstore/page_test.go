package docstore

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrimPage(t *testing.T) {
	p := TrimPage([]int{1, 2, 3, 4}, 3)
	require.Equal(t, []int{1, 2, 3}, p.Items)
	require.True(t, p.HasMore)

	p = TrimPage([]int{1, 2, 3}, 3)
	require.Equal(t, []int{1, 2, 3}, p.Items)
	require.False(t, p.HasMore)

	p = TrimPage([]int{1, 2, 3}, 0)
	require.Len(t, p.Items, 3)
	require.False(t, p.HasMore)
}

func TestInMemory(t *testing.T) {
	items := []string{"pear", "apple", "fig", "banana", "kiwi", "plum"}
	keep := func(s string) bool { return !strings.HasPrefix(s, "k") }
	less := func(a, b string) bool { return a < b }

	p := InMemory(items, keep, less, 0, 2)
	require.Equal(t, []string{"apple", "banana"}, p.Items)
	require.True(t, p.HasMore)

	p = InMemory(items, keep, less, 3, 2)
	require.Equal(t, []string{"pear", "plum"}, p.Items)
	require.False(t, p.HasMore)

	p = InMemory(items, keep, less, 10, 2)
	require.Empty(t, p.Items)
	require.False(t, p.HasMore)

	// Input order is kept without a less func.
	p = InMemory(items, nil, nil, 0, 0)
	require.Equal(t, items, p.Items)
}

func TestMapPage(t *testing.T) {
	p := MapPage(Page[int]{Items: []int{1, 2, 3, 4}, HasMore: true}, func(i int) (string, bool) {
		return strings.Repeat("x", i), i%2 == 0
	})
	require.Equal(t, []string{"xx", "xxxx"}, p.Items)
	require.True(t, p.HasMore)
}

func TestPath(t *testing.T) {
	p, err := ParsePath("/users/u1/memories/m1/")
	require.NoError(t, err)
	require.Equal(t, Doc("users", "u1", "memories", "m1"), p)
	require.True(t, p.IsDocument())
	require.Equal(t, "m1", p.ID())
	require.Equal(t, "users/u1/memories", p.Parent().String())
	require.False(t, p.Parent().IsDocument())

	_, err = ParsePath("users//memories")
	require.Error(t, err)

	require.Equal(t, "users/a%20b", Doc("users", "a b").escaped())
}
