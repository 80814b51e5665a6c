package stripedmap

// Sizing limits shared by the partition table and the serialization
// format's header.
const (
	// MinBucketCapacity is the smallest a partition's bucket table may be.
	MinBucketCapacity = 2

	// MaxCapacity is the largest a partition's bucket table may grow to.
	MaxCapacity = 1 << 30

	// MaxPartitions is the largest the partition directory may be,
	// regardless of the requested concurrency level.
	MaxPartitions = 1 << 16

	// DefaultLoadFactor is used when a caller does not supply one.
	DefaultLoadFactor = 0.75

	// DefaultConcurrencyLevel is used when a caller does not supply one.
	DefaultConcurrencyLevel = 16

	// retriesBeforeLock is the number of unstable optimistic passes the
	// aggregate protocol (Size, IsEmpty, ContainsValue) tolerates before
	// falling back to locking every partition.
	retriesBeforeLock = 2
)
