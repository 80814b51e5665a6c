// Package table implements the bucket table: a power-of-two sized array of
// chain heads with atomic element access. Slot reads are acquire; slot
// writes are release, so a writer publishing a new chain head makes every
// store that built that chain visible to any reader that observes the
// published head afterward.
package table

import (
	"sync/atomic"

	"github.com/dreamware/stripedmap/internal/node"
)

// Table is an array of bucket heads. Its length is always a power of two.
// A Table is never resized in place; rehash builds a new, larger Table and
// the owning partition swaps its reference to it. The old Table is left
// intact so readers who already captured it keep working.
type Table[K comparable, V comparable] struct {
	buckets []atomic.Pointer[node.Node[K, V]]
}

// New allocates a table with the given bucket count, which must already be
// a validated power of two; New does not itself enforce that, callers
// (partition and directory) size it through the shared shape helpers.
func New[K comparable, V comparable](bucketCount int) *Table[K, V] {
	return &Table[K, V]{buckets: make([]atomic.Pointer[node.Node[K, V]], bucketCount)}
}

// Len returns the number of buckets.
func (t *Table[K, V]) Len() int { return len(t.buckets) }

// Mask returns Len()-1, valid because Len() is always a power of two.
func (t *Table[K, V]) Mask() uint32 { return uint32(len(t.buckets) - 1) }

// BucketIndex returns the bucket a spread hash maps to in this table.
func (t *Table[K, V]) BucketIndex(hash uint32) int { return int(hash & t.Mask()) }

// Head performs an acquire-load of the chain head at the given index.
func (t *Table[K, V]) Head(idx int) *node.Node[K, V] { return t.buckets[idx].Load() }

// SetHead publishes a new chain head at the given index with
// release-store semantics.
func (t *Table[K, V]) SetHead(idx int, n *node.Node[K, V]) { t.buckets[idx].Store(n) }
