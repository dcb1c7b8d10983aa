// Package index provides the in-memory mapping from keys to record
// locations. It embodies the core Bitcask principle: every key lives in
// memory with minimal metadata while values stay on disk.
//
// The map must support many concurrent lock-free readers with mutation
// serialized externally by the writer lock, so lookups never contend with
// the write path or with compaction rewriting entries.
package index

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// Index maps each live key to the location of its latest Set record.
// Remove operations are reflected by absence of the key.
type Index struct {
	entries *xsync.MapOf[string, CommandIndex]
}

// New creates an empty index ready for concurrent use.
func New() *Index {
	return &Index{entries: xsync.NewMapOf[string, CommandIndex]()}
}

// Lookup returns the location of the key's latest Set record.
func (idx *Index) Lookup(key string) (CommandIndex, bool) {
	return idx.entries.Load(key)
}

// Put inserts or replaces the entry for key, returning the displaced entry
// if one existed. The displaced entry's length feeds the dead-byte tally.
func (idx *Index) Put(key string, loc CommandIndex) (CommandIndex, bool) {
	return idx.entries.LoadAndStore(key, loc)
}

// Delete removes the entry for key, returning it if it existed.
func (idx *Index) Delete(key string) (CommandIndex, bool) {
	return idx.entries.LoadAndDelete(key)
}

// Range calls f for every entry until f returns false. Iteration order is
// unspecified; compaction only needs some total order over the live set.
func (idx *Index) Range(f func(key string, loc CommandIndex) bool) {
	idx.entries.Range(f)
}

// Size returns the number of live keys.
func (idx *Index) Size() int {
	return idx.entries.Size()
}
