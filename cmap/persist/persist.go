// Package persist implements the map's serialization façade: a peripheral
// package outside the core's design, built on encoding/gob. The wire
// format is a header recording the partition count and load factor,
// followed by a stream of (key, value) records terminated by a
// continuation flag. Writing does not materialize any partition of the
// source map; the header carries the partition count, not the partitions.
//
// The original design terminates the record stream with a (null, null)
// pair; Map's key and value types are only constrained to be comparable,
// not nilable, so a null sentinel cannot be expressed for every
// instantiation (int and string keys have no null). Write instead encodes
// an explicit bool ahead of each record: true means "a record follows",
// false terminates the stream, which plays the same closing-sentinel role
// without assuming K or V can be nil.
package persist

import (
	"encoding/gob"
	"fmt"
	"io"

	"github.com/dreamware/stripedmap"
)

// header is the fixed-size preamble written before the entry stream.
type header struct {
	PartitionCount int
	LoadFactor     float64
}

// Write encodes the header followed by every entry of m as a
// (continue=true, key, value) record, closing the stream with a single
// continue=false record. It reads entries through m's cursor and leaves
// unmaterialized partitions of m unmaterialized.
func Write[K comparable, V comparable](w io.Writer, m *stripedmap.Map[K, V]) error {
	enc := gob.NewEncoder(w)
	h := header{PartitionCount: m.Partitions(), LoadFactor: m.LoadFactor()}
	if err := enc.Encode(h); err != nil {
		return fmt.Errorf("persist: encode header: %w", err)
	}

	var encodeErr error
	c := m.Iterate(stripedmap.IterEntries)
	for c.HasNext() {
		e, ok := c.Next()
		if !ok {
			break
		}
		if err := enc.Encode(true); err != nil {
			encodeErr = fmt.Errorf("persist: encode continuation flag: %w", err)
			break
		}
		if err := enc.Encode(e.Key); err != nil {
			encodeErr = fmt.Errorf("persist: encode key: %w", err)
			break
		}
		if err := enc.Encode(e.Value); err != nil {
			encodeErr = fmt.Errorf("persist: encode value: %w", err)
			break
		}
	}
	if encodeErr != nil {
		return encodeErr
	}
	if err := enc.Encode(false); err != nil {
		return fmt.Errorf("persist: encode terminator: %w", err)
	}
	return nil
}

// Read decodes a stream written by Write and returns a freshly constructed
// Map holding the same entries. Every partition is rebuilt at
// stripedmap.MinBucketCapacity rather than whatever size it held when
// written, so partitions grow organically from their first post-reload
// insert rather than carrying over write-time sizing. opts may override the
// reconstructed load factor and concurrency level; by default both are
// taken from the stream's header.
//
// Read fails with an error wrapping stripedmap.ErrInvalidConfig, checked
// here before New is called, if the header's partition count is not a
// power of two, is zero, or exceeds stripedmap.MaxPartitions.
func Read[K comparable, V comparable](r io.Reader, opts ...stripedmap.Option) (*stripedmap.Map[K, V], error) {
	dec := gob.NewDecoder(r)

	var h header
	if err := dec.Decode(&h); err != nil {
		return nil, fmt.Errorf("persist: decode header: %w", err)
	}
	if h.PartitionCount <= 0 || h.PartitionCount&(h.PartitionCount-1) != 0 {
		return nil, fmt.Errorf("%w: partition count %d is not a positive power of two", stripedmap.ErrInvalidConfig, h.PartitionCount)
	}
	if h.PartitionCount > stripedmap.MaxPartitions {
		return nil, fmt.Errorf("%w: partition count %d exceeds max partitions %d", stripedmap.ErrInvalidConfig, h.PartitionCount, stripedmap.MaxPartitions)
	}

	cfg := append([]stripedmap.Option{
		stripedmap.WithConcurrencyLevel(h.PartitionCount),
		stripedmap.WithLoadFactor(h.LoadFactor),
		stripedmap.WithInitialCapacity(0),
	}, opts...)
	m, err := stripedmap.New[K, V](cfg...)
	if err != nil {
		return nil, fmt.Errorf("persist: reconstruct map: %w", err)
	}

	for {
		var more bool
		if err := dec.Decode(&more); err != nil {
			return nil, fmt.Errorf("persist: decode continuation flag: %w", err)
		}
		if !more {
			return m, nil
		}
		var key K
		var value V
		if err := dec.Decode(&key); err != nil {
			return nil, fmt.Errorf("persist: decode key: %w", err)
		}
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("persist: decode value: %w", err)
		}
		if _, _, err := m.Put(key, value); err != nil {
			return nil, fmt.Errorf("persist: replay entry: %w", err)
		}
	}
}
