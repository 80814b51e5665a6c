package stripedmap

import (
	"github.com/dreamware/stripedmap/internal/node"
	"github.com/dreamware/stripedmap/internal/table"
)

// IterKind selects what a Cursor yields.
type IterKind int

const (
	// IterKeys yields only keys; Entry.Value is always the zero value.
	IterKeys IterKind = iota
	// IterValues yields only values; Entry.Key is always the zero value.
	IterValues
	// IterEntries yields both keys and values.
	IterEntries
)

// Entry is one key/value pair yielded by a Cursor.
type Entry[K comparable, V comparable] struct {
	Key   K
	Value V
}

// Cursor is a weakly consistent iterator: it never
// observes a structural exception, is guaranteed to return every entry
// that was present at cursor creation and is still present at the time
// the cursor reaches it, may or may not return entries inserted
// afterward, and never returns the same key twice. It walks partitions in
// reverse index order, buckets within a partition in reverse index order,
// and each bucket's chain head-to-tail, holding a reference to whichever
// bucket table version was live when it first visited that partition.
type Cursor[K comparable, V comparable] struct {
	m          *Map[K, V]
	kind       IterKind
	partIdx    int
	tbl        *table.Table[K, V]
	bucketIdx  int
	pending    *node.Node[K, V]
	lastKey    K
	lastNextOk bool
}

// Iterate returns a cursor over kind (keys, values, or entries).
func (m *Map[K, V]) Iterate(kind IterKind) *Cursor[K, V] {
	c := &Cursor[K, V]{m: m, kind: kind, partIdx: m.dir.Len() - 1}
	c.seekPartition()
	return c
}

// seekPartition walks partitions downward from c.partIdx until it finds
// one with a non-null bucket to start at, capturing that partition's
// currently-live table for the remainder of the partition's traversal.
func (c *Cursor[K, V]) seekPartition() {
	for c.pending == nil && c.partIdx >= 0 {
		p := c.m.dir.Peek(c.partIdx)
		if p == nil {
			c.partIdx--
			continue
		}
		c.tbl = p.Table()
		c.bucketIdx = c.tbl.Len() - 1
		c.seekBucket()
		if c.pending == nil {
			c.partIdx--
		}
	}
}

func (c *Cursor[K, V]) seekBucket() {
	for c.pending == nil && c.bucketIdx >= 0 {
		if head := c.tbl.Head(c.bucketIdx); head != nil {
			c.pending = head
			return
		}
		c.bucketIdx--
	}
}

// HasNext reports whether Next would yield another entry.
func (c *Cursor[K, V]) HasNext() bool { return c.pending != nil }

// Next advances the cursor and returns the next entry, or (zero, false)
// once the cursor is exhausted.
func (c *Cursor[K, V]) Next() (Entry[K, V], bool) {
	if c.pending == nil {
		c.lastNextOk = false
		var zero Entry[K, V]
		return zero, false
	}

	n := c.pending
	var e Entry[K, V]
	switch c.kind {
	case IterKeys:
		e.Key = n.Key()
	case IterValues:
		e.Value = n.Value()
	default:
		e.Key, e.Value = n.Key(), n.Value()
	}
	c.lastKey = n.Key()
	c.lastNextOk = true

	if nxt := n.Next(); nxt != nil {
		c.pending = nxt
	} else {
		c.pending = nil
		c.bucketIdx--
		c.seekBucket()
		if c.pending == nil {
			c.partIdx--
			c.seekPartition()
		}
	}
	return e, true
}

// Remove deletes the key most recently returned by Next, delegating to
// the map's key-addressed Remove. It fails with ErrCursorMisuse if called
// before any successful Next, a second time without an intervening Next, or
// after Next has reported exhaustion.
func (c *Cursor[K, V]) Remove() error {
	if !c.lastNextOk {
		return ErrCursorMisuse
	}
	_, _, err := c.m.Remove(c.lastKey)
	c.lastNextOk = false
	return err
}
