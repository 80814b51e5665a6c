// Package views implements the map's peripheral, user-facing view
// collections (KeySet, EntrySet and Values) plus ForEach bulk traversal.
// None of these are part of the core's design: each is a thin wrapper over
// the core's public Iterate entry point, consuming nothing internal.
package views

import (
	"github.com/dreamware/stripedmap"
)

// KeySet is a live view over a Map's keys. It holds no snapshot of its own;
// every method re-consults the underlying map.
type KeySet[K comparable, V comparable] struct {
	m *stripedmap.Map[K, V]
}

// NewKeySet returns a KeySet view over m.
func NewKeySet[K comparable, V comparable](m *stripedmap.Map[K, V]) *KeySet[K, V] {
	return &KeySet[K, V]{m: m}
}

// Len returns the number of keys currently in the underlying map.
func (ks *KeySet[K, V]) Len() int { return ks.m.Size() }

// Contains reports whether key is currently present.
func (ks *KeySet[K, V]) Contains(key K) (bool, error) { return ks.m.ContainsKey(key) }

// Each calls fn with every key currently in the map, in the same weakly
// consistent order Map.Iterate produces. It stops early if fn returns false.
func (ks *KeySet[K, V]) Each(fn func(K) bool) {
	c := ks.m.Iterate(stripedmap.IterKeys)
	for c.HasNext() {
		e, ok := c.Next()
		if !ok {
			return
		}
		if !fn(e.Key) {
			return
		}
	}
}

// Values is a live view over a Map's values.
type Values[K comparable, V comparable] struct {
	m *stripedmap.Map[K, V]
}

// NewValues returns a Values view over m.
func NewValues[K comparable, V comparable](m *stripedmap.Map[K, V]) *Values[K, V] {
	return &Values[K, V]{m: m}
}

// Len returns the number of entries currently in the underlying map.
func (vs *Values[K, V]) Len() int { return vs.m.Size() }

// Contains reports whether value is bound to any key.
func (vs *Values[K, V]) Contains(value V) (bool, error) { return vs.m.ContainsValue(value) }

// Each calls fn with every value currently in the map. It stops early if fn
// returns false.
func (vs *Values[K, V]) Each(fn func(V) bool) {
	c := vs.m.Iterate(stripedmap.IterValues)
	for c.HasNext() {
		e, ok := c.Next()
		if !ok {
			return
		}
		if !fn(e.Value) {
			return
		}
	}
}

// Entry is one key/value pair yielded by an EntrySet walk. Unlike
// stripedmap.Entry, SetValue writes through to the backing map.
//
// SetValue is defined to write through unconditionally: it calls
// Map.Replace(key, newValue) regardless of what the map currently holds for
// key, so "the entry now represents this key's current value" even if the
// node backing it was concurrently rehashed, removed, or replaced between
// the entry being yielded and SetValue being called. If key has since been
// removed, SetValue is a no-op (Replace reports no prior value and does not
// reinsert it), so an EntrySet walk never resurrects a deleted key.
type Entry[K comparable, V comparable] struct {
	m   *stripedmap.Map[K, V]
	key K
	val V
}

// Key returns the entry's key.
func (e Entry[K, V]) Key() K { return e.key }

// Value returns the value this entry held when it was yielded. It does not
// reflect concurrent modifications made after the entry was produced; call
// SetValue's counterpart lookup (Map.Get) for a fresh read.
func (e Entry[K, V]) Value() V { return e.val }

// SetValue writes through to the backing map (Map.Replace), unconditionally,
// and reports whether the key was still present to be replaced.
func (e Entry[K, V]) SetValue(newValue V) (bool, error) {
	_, replaced, err := e.m.Replace(e.key, newValue)
	return replaced, err
}

// EntrySet is a live view over a Map's key/value pairs.
type EntrySet[K comparable, V comparable] struct {
	m *stripedmap.Map[K, V]
}

// NewEntrySet returns an EntrySet view over m.
func NewEntrySet[K comparable, V comparable](m *stripedmap.Map[K, V]) *EntrySet[K, V] {
	return &EntrySet[K, V]{m: m}
}

// Len returns the number of entries currently in the underlying map.
func (es *EntrySet[K, V]) Len() int { return es.m.Size() }

// Each calls fn with every entry currently in the map, in the same weakly
// consistent order Map.Iterate produces. It stops early if fn returns false.
func (es *EntrySet[K, V]) Each(fn func(Entry[K, V]) bool) {
	c := es.m.Iterate(stripedmap.IterEntries)
	for c.HasNext() {
		e, ok := c.Next()
		if !ok {
			return
		}
		entry := Entry[K, V]{m: es.m, key: e.Key, val: e.Value}
		if !fn(entry) {
			return
		}
	}
}

// ForEach walks every entry of m and calls fn with its key and value. It
// uses the same weakly consistent cursor as Map.Iterate: fn may or may not
// observe entries inserted concurrently, never observes a structural
// exception, and never sees the same key twice.
func ForEach[K comparable, V comparable](m *stripedmap.Map[K, V], fn func(K, V)) {
	c := m.Iterate(stripedmap.IterEntries)
	for c.HasNext() {
		e, ok := c.Next()
		if !ok {
			return
		}
		fn(e.Key, e.Value)
	}
}
