// Package stripedmap implements a segmented, lock-striped concurrent hash
// map: unbounded concurrent readers never block and never exclude writers,
// while writers on distinct partitions proceed in parallel.
//
// # Architecture
//
//	┌──────────────────────────────────────────────┐
//	│                    Map[K, V]                  │
//	├──────────────────────────────────────────────┤
//	│  spread.Spreader   -- key -> 32-bit spread hash │
//	│  directory.Directory                          │
//	│    partition.Partition[0]  (eager)             │
//	│    partition.Partition[1]  (lazy)              │
//	│    ...                                        │
//	│    partition.Partition[P-1] (lazy)            │
//	│      table.Table  -- bucket head array         │
//	│        node.Node → node.Node → nil            │
//	└──────────────────────────────────────────────┘
//
// A single-key operation hashes the key, uses the spread hash's top bits
// to pick a partition, materializes that partition on demand if this is a
// write, and delegates to the partition. Partitions guard their own bucket
// table with their own lock; readers never take any lock at all, relying
// instead on acquire/release publication of bucket heads and chain links.
//
// # Concurrency
//
// Per-key operations (Get, Put, Remove, Replace, ...) are linearizable:
// any completed write to a key is observed by any later read of that key.
// There is no ordering guarantee across different keys in different
// partitions. Size, IsEmpty and ContainsValue are eventually consistent:
// they retry an optimistic pass across partitions until two consecutive
// passes agree, falling back to locking every partition after a bounded
// number of unstable passes.
//
// # Non-goals
//
// Nil keys and nil values are rejected. There is no global snapshot for
// iteration, Iterate returns a weakly consistent cursor instead. The
// partition directory's size is fixed at construction; partitions grow by
// doubling but never shrink.
package stripedmap
