// Package storage defines the abstract storage interfaces and provides concrete implementations.
// See doc.go for complete package documentation.
package storage

import (
	"errors"

	"github.com/dreamware/stripedmap"
)

// ErrKeyNotFound is returned when a key doesn't exist in the store.
//
// This error is used consistently across all storage implementations to indicate
// that a requested key is not present in the store. Callers should check for this
// specific error to distinguish between missing keys and other storage failures.
//
// Usage pattern:
//
//	value, err := store.Get("key")
//	if err == storage.ErrKeyNotFound {
//	    // Handle missing key case
//	} else if err != nil {
//	    // Handle other errors
//	}
var ErrKeyNotFound = errors.New("key not found")

// Store defines the interface for key-value storage operations, providing a
// consistent API across different storage backends while ensuring thread-safety
// for concurrent access patterns.
//
// All implementations must guarantee:
//   - Thread-safety for all operations
//   - Atomic operations (no partial updates visible)
//   - Consistent error handling (especially ErrKeyNotFound)
//   - No data corruption under concurrent access
//
// The interface is designed to be minimal yet sufficient for building
// distributed storage systems, with operations that map directly to
// common database primitives.
type Store interface {
	// Get retrieves a value by key from the store.
	Get(key string) ([]byte, error)

	// Put stores a value with the given key, creating a new entry or
	// updating an existing one.
	Put(key string, value []byte) error

	// Delete removes a key-value pair from the store. Idempotent.
	Delete(key string) error

	// List returns all keys in the store. Order is not guaranteed.
	List() []string

	// Stats returns storage statistics for monitoring and capacity planning.
	Stats() StoreStats
}

// StoreStats contains statistics about the store, providing visibility into
// resource usage and capacity for monitoring and optimization.
//
// Statistics are point-in-time snapshots that may become stale immediately
// in concurrent environments. They should be used for monitoring trends
// rather than exact accounting.
type StoreStats struct {
	// Keys is the total number of keys in the store.
	Keys int

	// Bytes is the total size of all values in bytes.
	Bytes int
}

// MemoryStore implements the Store interface on top of a segmented,
// lock-striped concurrent map. Rather than one package-level sync.RWMutex
// guarding a plain Go map, MemoryStore partitions its keys across
// stripedmap's independent lock stripes, so puts and deletes to unrelated
// keys no longer serialize against each other the way a single RWMutex
// would force them to.
//
// Values are carried internally as string rather than []byte, since
// stripedmap.Map requires a comparable value type and byte slices are not
// comparable in Go. The string conversions at the Get/Put boundary already
// copy the underlying bytes, which preserves the defensive-copy guarantee
// callers depend on to mutate their own buffers freely after a Put or Get.
//
// Suitable for:
//   - Caching frequently accessed data
//   - Temporary data that can be regenerated
//   - Testing and development
//   - Small datasets that fit in memory
//
// Not suitable for:
//   - Data that must survive restarts
//   - Multi-node replication (no WAL)
type MemoryStore struct {
	m *stripedmap.Map[string, string]
}

// NewMemoryStore creates a new in-memory store ready for immediate use.
//
// The returned store starts empty, is immediately thread-safe, and uses
// stripedmap's default concurrency level and load factor. NewMemoryStore
// panics if stripedmap.New rejects its own defaults, which would indicate a
// bug in this package rather than anything a caller could correct.
func NewMemoryStore() *MemoryStore {
	m, err := stripedmap.New[string, string]()
	if err != nil {
		panic("storage: default stripedmap configuration rejected: " + err.Error())
	}
	return &MemoryStore{m: m}
}

// Get retrieves a value by key from the store.
//
// Thread-safety:
//   - Lock-free; never blocks behind a concurrent writer on the same or a
//     different key.
func (s *MemoryStore) Get(key string) ([]byte, error) {
	value, ok, err := s.m.Get(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrKeyNotFound
	}
	return []byte(value), nil
}

// Put stores a value with the given key in the store, creating a new entry
// or overwriting an existing one.
//
// Thread-safety:
//   - Only concurrent writers whose keys land in the same stripe serialize
//     against each other; writers to distinct stripes proceed in parallel.
func (s *MemoryStore) Put(key string, value []byte) error {
	_, _, err := s.m.Put(key, string(value))
	return err
}

// Delete removes a key-value pair from the store. No error if the key
// doesn't exist.
func (s *MemoryStore) Delete(key string) error {
	_, _, err := s.m.Remove(key)
	return err
}

// List returns all keys in the store as a snapshot, built by draining a
// weakly-consistent key cursor. Order is not guaranteed and a key inserted
// or removed mid-scan may or may not appear, per the cursor's own
// consistency guarantee.
func (s *MemoryStore) List() []string {
	keys := make([]string, 0, s.m.Size())
	c := s.m.Iterate(stripedmap.IterKeys)
	for c.HasNext() {
		e, ok := c.Next()
		if !ok {
			break
		}
		keys = append(keys, e.Key)
	}
	return keys
}

// Stats returns storage statistics for the store, computed by draining an
// entries cursor and summing value lengths. Since stripedmap's aggregate
// size is itself a best-effort estimate under concurrent mutation, Stats
// inherits the same weak consistency.
func (s *MemoryStore) Stats() StoreStats {
	totalBytes := 0
	keys := 0
	c := s.m.Iterate(stripedmap.IterEntries)
	for c.HasNext() {
		e, ok := c.Next()
		if !ok {
			break
		}
		keys++
		totalBytes += len(e.Value)
	}
	return StoreStats{Keys: keys, Bytes: totalBytes}
}
