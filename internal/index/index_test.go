package index

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutReturnsDisplacedEntry(t *testing.T) {
	idx := New()

	_, existed := idx.Put("key1", CommandIndex{Generation: 1, Start: 0, Len: 30})
	require.False(t, existed)

	old, existed := idx.Put("key1", CommandIndex{Generation: 1, Start: 30, Len: 32})
	require.True(t, existed)
	require.Equal(t, CommandIndex{Generation: 1, Start: 0, Len: 30}, old)

	loc, ok := idx.Lookup("key1")
	require.True(t, ok)
	require.Equal(t, CommandIndex{Generation: 1, Start: 30, Len: 32}, loc)
}

func TestDelete(t *testing.T) {
	idx := New()
	idx.Put("key1", CommandIndex{Generation: 2, Start: 10, Len: 20})

	old, existed := idx.Delete("key1")
	require.True(t, existed)
	require.Equal(t, CommandIndex{Generation: 2, Start: 10, Len: 20}, old)

	_, ok := idx.Lookup("key1")
	require.False(t, ok)

	_, existed = idx.Delete("key1")
	require.False(t, existed)
}

func TestRangeVisitsEveryEntry(t *testing.T) {
	idx := New()
	idx.Put("a", CommandIndex{Generation: 1, Start: 0, Len: 10})
	idx.Put("b", CommandIndex{Generation: 1, Start: 10, Len: 10})
	idx.Put("c", CommandIndex{Generation: 2, Start: 0, Len: 10})
	require.Equal(t, 3, idx.Size())

	seen := make(map[string]CommandIndex)
	idx.Range(func(key string, loc CommandIndex) bool {
		seen[key] = loc
		return true
	})
	require.Len(t, seen, 3)
	require.Equal(t, CommandIndex{Generation: 2, Start: 0, Len: 10}, seen["c"])
}
