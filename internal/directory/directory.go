// Package directory implements the partition directory:
// a fixed power-of-two array of partitions. Partition 0 is eagerly
// constructed; every other slot starts empty and is materialized lazily on
// first write, using partition 0's shape as a prototype and publishing the
// winner with a compare-and-swap. The directory array itself is never
// resized; only its slots are ever populated.
package directory

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dreamware/stripedmap/cmap/metrics"
	"github.com/dreamware/stripedmap/internal/partition"
)

// Directory is the fixed-length array of partition slots.
type Directory[K comparable, V comparable] struct {
	slots          []atomic.Pointer[partition.Partition[K, V]]
	bucketCapacity int
	loadFactor     float64
	logger         *zap.Logger
	metrics        *metrics.Collector
}

// New builds a directory with partitionCount slots and eagerly constructs
// partition 0. partitionCount, bucketCapacity must already be validated
// powers of two.
func New[K comparable, V comparable](partitionCount, bucketCapacity int, loadFactor float64, logger *zap.Logger, mc *metrics.Collector) *Directory[K, V] {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Directory[K, V]{
		slots:          make([]atomic.Pointer[partition.Partition[K, V]], partitionCount),
		bucketCapacity: bucketCapacity,
		loadFactor:     loadFactor,
		logger:         logger,
		metrics:        mc,
	}
	d.slots[0].Store(partition.New[K, V](bucketCapacity, loadFactor, logger, mc))
	if mc != nil {
		mc.PartitionsMaterialized.Inc()
		mc.PartitionCount.Set(1)
	}
	return d
}

// Len returns the fixed number of partition slots.
func (d *Directory[K, V]) Len() int { return len(d.slots) }

// LoadFactor returns the load factor every partition in this directory
// was (or will be, once materialized) built with.
func (d *Directory[K, V]) LoadFactor() float64 { return d.loadFactor }

// Peek returns the partition at index i, or nil if it has not yet been
// materialized. It never allocates and is safe for the reader path.
func (d *Directory[K, V]) Peek(i int) *partition.Partition[K, V] { return d.slots[i].Load() }

// Ensure returns the partition at index i, materializing it on demand
// from partition 0's prototype shape if the slot is still empty. Losers of
// the materialization race simply re-read the slot and adopt the winner.
func (d *Directory[K, V]) Ensure(i int) *partition.Partition[K, V] {
	if p := d.slots[i].Load(); p != nil {
		return p
	}
	candidate := partition.New[K, V](d.bucketCapacity, d.loadFactor, d.logger, d.metrics)
	if d.slots[i].CompareAndSwap(nil, candidate) {
		if d.metrics != nil {
			d.metrics.PartitionsMaterialized.Inc()
			d.metrics.PartitionCount.Inc()
		}
		d.logger.Debug("materialized partition", zap.Int("index", i))
		return candidate
	}
	return d.slots[i].Load()
}

// Materialized returns every partition that currently exists, without
// forcing materialization of the rest. Used by the aggregate protocol's
// optimistic (non-locking) passes.
func (d *Directory[K, V]) Materialized() []*partition.Partition[K, V] {
	out := make([]*partition.Partition[K, V], 0, len(d.slots))
	for i := range d.slots {
		if p := d.slots[i].Load(); p != nil {
			out = append(out, p)
		}
	}
	return out
}

// EnsureAll forces materialization of every partition and returns them
// all. Used by the aggregate protocol's lock-all fallback, which needs
// every partition to exist.
func (d *Directory[K, V]) EnsureAll() []*partition.Partition[K, V] {
	out := make([]*partition.Partition[K, V], len(d.slots))
	for i := range d.slots {
		out[i] = d.Ensure(i)
	}
	return out
}
