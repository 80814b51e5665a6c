// Package partition implements the partition (stripe): the owner of one
// bucket table, a lock, and the counters that back it. A partition
// implements every mutating per-key operation (put, remove, replace,
// replace-if-equals, clear) and the local rehash that doubles its bucket
// table once it is too full. Readers never take the partition's lock;
// they read the bucket table and walk chains using the acquire/release
// discipline internal/table and internal/node already provide.
package partition

import (
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dreamware/stripedmap/cmap/metrics"
	"github.com/dreamware/stripedmap/internal/node"
	"github.com/dreamware/stripedmap/internal/table"
)

// MaxCapacity is the largest a partition's bucket table may grow to (2^30).
// A partition that would need to double past this is left as-is; its
// chains simply grow longer.
const MaxCapacity = 1 << 30

// maxScanRetriesMP and maxScanRetriesUP bound the scan-and-lock spin on
// multiprocessor and uniprocessor hosts respectively.
const (
	maxScanRetriesMP = 64
	maxScanRetriesUP = 1
)

func maxScanRetries() int {
	if runtime.GOMAXPROCS(0) > 1 {
		return maxScanRetriesMP
	}
	return maxScanRetriesUP
}

// Partition is one lock-striped shard of the map. Readers load tbl with
// acquire semantics and never block; writers take mu (after the
// scan-and-lock warm-up below) and are the only path that replaces tbl,
// splices chain links, or changes count/modStamp.
type Partition[K comparable, V comparable] struct {
	tbl        atomic.Pointer[table.Table[K, V]]
	mu         sync.Mutex
	count      atomic.Int64
	modStamp   atomic.Uint32
	threshold  atomic.Int64
	loadFactor float64
	logger     *zap.Logger
	metrics    *metrics.Collector
}

// New builds a partition with a fresh, empty bucket table of the given
// capacity. logger and mc may be nil; a nil logger means no logging, and a
// nil metrics collector means no metrics are recorded.
func New[K comparable, V comparable](bucketCapacity int, loadFactor float64, logger *zap.Logger, mc *metrics.Collector) *Partition[K, V] {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Partition[K, V]{loadFactor: loadFactor, logger: logger, metrics: mc}
	p.tbl.Store(table.New[K, V](bucketCapacity))
	p.threshold.Store(int64(float64(bucketCapacity) * loadFactor))
	return p
}

// Table returns the currently live bucket table (an acquire-load). Callers
// on the reader path use this directly; callers on the writer path must
// re-read it after acquiring the lock, since a concurrent rehash may have
// swapped it in the meantime.
func (p *Partition[K, V]) Table() *table.Table[K, V] { return p.tbl.Load() }

// Count returns the number of entries this partition currently believes it
// holds (an acquire-load, consistent with a just-completed or in-flight
// mutation).
func (p *Partition[K, V]) Count() int64 { return p.count.Load() }

// ModStamp returns the partition's modification stamp, incremented by
// every mutating operation. It is used by the aggregate (size / is-empty /
// contains-value) protocol to detect whether a partition was quiescent
// across two observations.
func (p *Partition[K, V]) ModStamp() uint32 { return p.modStamp.Load() }

// Lock and Unlock expose the partition's writer lock directly to the
// aggregate protocol's lock-all fallback; ordinary mutators take the lock
// themselves via scanAndLock.
func (p *Partition[K, V]) Lock()   { p.mu.Lock() }
func (p *Partition[K, V]) Unlock() { p.mu.Unlock() }

// Get performs a lock-free read: acquire-load the table, acquire-load the
// bucket head, and walk the chain. It never blocks and never takes p.mu.
func (p *Partition[K, V]) Get(key K, hash uint32) (V, bool) {
	tbl := p.tbl.Load()
	idx := tbl.BucketIndex(hash)
	for e := tbl.Head(idx); e != nil; e = e.Next() {
		if e.Hash() == hash && e.Key() == key {
			return e.Value(), true
		}
	}
	var zero V
	return zero, false
}

// scanAndLock is the non-speculative half of the scan-and-lock protocol,
// used by remove, replace and replace-if-equals. It
// interleaves a non-blocking TryLock with a chain walk so that, by the
// time the lock is actually held, the bucket's cache lines are already
// warm. The walk performed here is only a hint: mutators always
// re-traverse the chain once the lock is held.
func (p *Partition[K, V]) scanAndLock(tbl *table.Table[K, V], idx int, key K) {
	if p.mu.TryLock() {
		return
	}
	retries := -1
	first := tbl.Head(idx)
	e := first
	for {
		if p.mu.TryLock() {
			return
		}
		if retries < 0 {
			if e == nil || e.Key() == key {
				retries = 0
			} else {
				e = e.Next()
			}
			continue
		}
		retries++
		if retries > maxScanRetries() {
			p.mu.Lock()
			return
		}
		if retries&1 == 0 {
			if head := tbl.Head(idx); head != first {
				first = head
				e = first
				retries = -1
			}
		}
	}
}

// scanAndLockForPut is the speculative variant: while waiting for the
// lock, it also opportunistically allocates the node a Put will need if
// the key turns out to be absent, so that allocation latency overlaps
// with the lock wait instead of the critical section.
func (p *Partition[K, V]) scanAndLockForPut(tbl *table.Table[K, V], idx int, key K, hash uint32, value V) *node.Node[K, V] {
	if p.mu.TryLock() {
		return nil
	}
	var speculative *node.Node[K, V]
	retries := -1
	first := tbl.Head(idx)
	e := first
	for {
		if p.mu.TryLock() {
			return speculative
		}
		if retries < 0 {
			if e == nil {
				if speculative == nil {
					speculative = node.New(hash, key, value, nil)
				}
				retries = 0
			} else if e.Key() == key {
				retries = 0
			} else {
				e = e.Next()
			}
			continue
		}
		retries++
		if retries > maxScanRetries() {
			p.mu.Lock()
			return speculative
		}
		if retries&1 == 0 {
			if head := tbl.Head(idx); head != first {
				first = head
				e = first
				retries = -1
				speculative = nil
			}
		}
	}
}

// Put inserts or updates key's entry. If a node with an equal key already
// exists, its value is returned; it is overwritten in place unless
// onlyIfAbsent is set. Otherwise a new node is linked in (triggering a
// rehash if the partition is now over its load-factor threshold) and
// (zero value, false) is returned.
func (p *Partition[K, V]) Put(key K, hash uint32, value V, onlyIfAbsent bool) (old V, hadOld bool) {
	tbl := p.tbl.Load()
	idx := tbl.BucketIndex(hash)
	speculative := p.scanAndLockForPut(tbl, idx, key, hash, value)
	defer p.mu.Unlock()

	// A concurrent rehash may have swapped the table between our initial
	// load and acquiring the lock; re-resolve both before mutating.
	tbl = p.tbl.Load()
	idx = tbl.BucketIndex(hash)
	head := tbl.Head(idx)

	for e := head; e != nil; e = e.Next() {
		if e.Hash() == hash && e.Key() == key {
			old, hadOld = e.Value(), true
			if !onlyIfAbsent {
				e.SetValue(value)
				p.modStamp.Add(1)
				if p.metrics != nil {
					p.metrics.PutsTotal.Inc()
				}
			}
			return old, hadOld
		}
	}

	var fresh *node.Node[K, V]
	if speculative != nil {
		speculative.SetNext(head)
		fresh = speculative
	} else {
		fresh = node.New(hash, key, value, head)
	}

	newCount := p.count.Load() + 1
	if newCount > p.threshold.Load() && int64(tbl.Len()) < MaxCapacity {
		p.rehash(tbl, fresh)
	} else {
		tbl.SetHead(idx, fresh)
	}
	p.count.Store(newCount)
	p.modStamp.Add(1)
	if p.metrics != nil {
		p.metrics.PutsTotal.Inc()
	}
	return old, false
}

// Remove deletes key's entry. matchAny true removes whatever
// value is currently bound to key; matchAny false additionally requires
// the bound value to equal expected.
func (p *Partition[K, V]) Remove(key K, hash uint32, expected V, matchAny bool) (removed V, ok bool) {
	tbl := p.tbl.Load()
	idx := tbl.BucketIndex(hash)
	p.scanAndLock(tbl, idx, key)
	defer p.mu.Unlock()

	tbl = p.tbl.Load()
	idx = tbl.BucketIndex(hash)

	var prev *node.Node[K, V]
	for e := tbl.Head(idx); e != nil; e = e.Next() {
		if e.Hash() == hash && e.Key() == key {
			if !matchAny && e.Value() != expected {
				return removed, false
			}
			removed = e.Value()
			if prev == nil {
				tbl.SetHead(idx, e.Next())
			} else {
				prev.SetNext(e.Next())
			}
			p.count.Add(-1)
			p.modStamp.Add(1)
			if p.metrics != nil {
				p.metrics.RemovesTotal.Inc()
			}
			return removed, true
		}
		prev = e
	}
	return removed, false
}

// ReplaceIfEquals updates key's entry to newVal only if its current value
// equals expectedOld, reporting whether the swap happened.
func (p *Partition[K, V]) ReplaceIfEquals(key K, hash uint32, expectedOld, newVal V) bool {
	tbl := p.tbl.Load()
	idx := tbl.BucketIndex(hash)
	p.scanAndLock(tbl, idx, key)
	defer p.mu.Unlock()

	tbl = p.tbl.Load()
	idx = tbl.BucketIndex(hash)

	for e := tbl.Head(idx); e != nil; e = e.Next() {
		if e.Hash() == hash && e.Key() == key {
			if e.Value() != expectedOld {
				return false
			}
			e.SetValue(newVal)
			p.modStamp.Add(1)
			return true
		}
	}
	return false
}

// Replace updates key's entry to newVal unconditionally if the key
// exists, returning the value it replaced.
func (p *Partition[K, V]) Replace(key K, hash uint32, newVal V) (old V, ok bool) {
	tbl := p.tbl.Load()
	idx := tbl.BucketIndex(hash)
	p.scanAndLock(tbl, idx, key)
	defer p.mu.Unlock()

	tbl = p.tbl.Load()
	idx = tbl.BucketIndex(hash)

	for e := tbl.Head(idx); e != nil; e = e.Next() {
		if e.Hash() == hash && e.Key() == key {
			old = e.Value()
			e.SetValue(newVal)
			p.modStamp.Add(1)
			return old, true
		}
	}
	return old, false
}

// Clear empties the partition: it holds the lock for the whole
// sweep, writes nil to every bucket with release-store semantics, and
// resets count. Readers in flight may still observe nodes they already
// captured before Clear ran.
func (p *Partition[K, V]) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	tbl := p.tbl.Load()
	for i := 0; i < tbl.Len(); i++ {
		tbl.SetHead(i, nil)
	}
	p.count.Store(0)
	p.modStamp.Add(1)
}

// rehash doubles the bucket table. It must be called with p.mu held.
// It exploits the fact that a node's new
// bucket index is either its old index or its old index plus the old
// length: it finds the longest suffix of each old chain that all map to
// the same new bucket (lastRun) and relinks that suffix without
// allocating, cloning only the nodes before it. inserted is spliced into
// its new bucket's head once the rest of the table has been rebuilt.
func (p *Partition[K, V]) rehash(old *table.Table[K, V], inserted *node.Node[K, V]) {
	oldLen := old.Len()
	newLen := oldLen << 1
	bit := uint32(oldLen)

	next := table.New[K, V](newLen)

	for i := 0; i < oldLen; i++ {
		head := old.Head(i)
		if head == nil {
			continue
		}

		lastRunBit := head.Hash() & bit
		lastRun := head
		for e := head.Next(); e != nil; e = e.Next() {
			b := e.Hash() & bit
			if b != lastRunBit {
				lastRunBit = b
				lastRun = e
			}
		}

		var loHead, hiHead *node.Node[K, V]
		if lastRunBit == 0 {
			loHead = lastRun
		} else {
			hiHead = lastRun
		}

		for e := head; e != lastRun; e = e.Next() {
			if e.Hash()&bit == 0 {
				loHead = e.CloneWithNext(loHead)
			} else {
				hiHead = e.CloneWithNext(hiHead)
			}
		}

		next.SetHead(i, loHead)
		next.SetHead(i+oldLen, hiHead)
	}

	idx := next.BucketIndex(inserted.Hash())
	inserted.SetNext(next.Head(idx))
	next.SetHead(idx, inserted)

	p.tbl.Store(next)
	p.threshold.Store(int64(float64(newLen) * p.loadFactor))
	if p.metrics != nil {
		p.metrics.RehashesTotal.Inc()
	}
	p.logger.Debug("partition rehashed", zap.Int("old_buckets", oldLen), zap.Int("new_buckets", newLen))
}
