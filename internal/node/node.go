// Package node implements the entry node used by a striped map's bucket
// chains: an immutable-key, mutable-value, singly-linked chain node whose
// value and successor are published with release-store semantics so that
// lock-free readers can traverse a chain concurrently with an in-progress
// writer.
package node

import "sync/atomic"

// Node is one link in a bucket chain. Hash and Key are fixed for the
// node's lifetime; Value may be overwritten in place and Next may be
// rewritten during removal or rehash. Both Value and Next are stored
// behind atomic pointers so that a writer's release-store publishes every
// field write that preceded it, and a reader's acquire-load observes a
// fully formed value or link rather than a torn one.
type Node[K comparable, V comparable] struct {
	next  atomic.Pointer[Node[K, V]]
	value atomic.Pointer[V]
	hash  uint32
	key   K
}

// New allocates a node with the given hash, key, value and successor.
func New[K comparable, V comparable](hash uint32, key K, value V, next *Node[K, V]) *Node[K, V] {
	n := &Node[K, V]{hash: hash, key: key}
	n.value.Store(&value)
	n.next.Store(next)
	return n
}

// Hash returns the node's immutable spread hash.
func (n *Node[K, V]) Hash() uint32 { return n.hash }

// Key returns the node's immutable key.
func (n *Node[K, V]) Key() K { return n.key }

// Value performs an acquire-load of the current value.
func (n *Node[K, V]) Value() V { return *n.value.Load() }

// SetValue publishes a new value with release-store semantics. It never
// changes Hash, Key, or Next.
func (n *Node[K, V]) SetValue(v V) { n.value.Store(&v) }

// Next performs an acquire-load of the successor link. A nil result
// denotes end-of-chain.
func (n *Node[K, V]) Next() *Node[K, V] { return n.next.Load() }

// SetNext publishes a new successor link with release-store semantics.
// Callers use this to splice a node out of (or into) a chain; the node
// itself is never mutated further once unlinked, so stale readers that
// already hold a reference to it keep walking into whatever successor it
// had at the moment they observed it.
func (n *Node[K, V]) SetNext(next *Node[K, V]) { n.next.Store(next) }

// CloneWithNext returns a new node carrying this node's hash, key and
// current value, linked to a different successor. Rehash uses this to
// relocate a node into a new bucket table without disturbing the node
// that readers of the old table may still be traversing.
func (n *Node[K, V]) CloneWithNext(next *Node[K, V]) *Node[K, V] {
	return New(n.hash, n.key, n.Value(), next)
}
