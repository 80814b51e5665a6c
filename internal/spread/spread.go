// Package spread implements the hash spreader: deterministic bit-mixing
// from a key's base hash to a 32-bit spread hash. An instance-local random
// seed is XORed into the input so that an adversary who can craft keys
// cannot predict which bucket (and, worse, which partition) they will
// collide on across different map instances.
package spread

import (
	"hash/maphash"
	"math/rand/v2"
	"os"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// xxHashStrings gates an alternative string-hashing path: when enabled,
// string keys are hashed with github.com/cespare/xxhash/v2 instead of the
// generic hash/maphash path.
// It is process-wide, matching the source design's static initialization
// flag, and can also be armed at process start via the
// STRIPEDMAP_XXHASH_STRINGS environment variable.
var xxHashStrings atomic.Bool

func init() {
	if os.Getenv("STRIPEDMAP_XXHASH_STRINGS") == "1" {
		xxHashStrings.Store(true)
	}
}

// EnableXXHashStrings turns on the xxhash string-hashing path for all
// Spreaders in this process, present and future.
func EnableXXHashStrings() { xxHashStrings.Store(true) }

// DisableXXHashStrings turns the xxhash string-hashing path back off,
// reverting to the generic hash/maphash path for string keys. Exposed
// primarily so tests can restore process-wide state.
func DisableXXHashStrings() { xxHashStrings.Store(false) }

// XXHashStringsEnabled reports whether the xxhash string path is active.
func XXHashStringsEnabled() bool { return xxHashStrings.Load() }

// Spreader produces 32-bit spread hashes for keys of type K. A Spreader is
// bound to one map instance: its maphash seed and instance seed are both
// chosen once at construction, so collision patterns differ from one map
// instance to the next even for identical keys.
type Spreader[K comparable] struct {
	seed         maphash.Seed
	instanceSeed uint32
}

// New creates a Spreader with a fresh per-instance seed.
func New[K comparable]() *Spreader[K] {
	return &Spreader[K]{
		seed:         maphash.MakeSeed(),
		instanceSeed: rand.Uint32(),
	}
}

// SpreadHash returns the 32-bit spread hash for key. Top bits of the
// result select a partition; low bits (masked by a bucket table's length)
// select a bucket within that partition, so the two selections are driven
// by disjoint bit ranges of the same hash.
func (s *Spreader[K]) SpreadHash(key K) uint32 {
	base := s.baseHash(key)
	h := uint32(base) ^ uint32(base>>32)
	h ^= s.instanceSeed
	return avalanche(h)
}

// baseHash computes the key's native 64-bit hash. String keys take the
// xxhash path when XXHashStringsEnabled; every other key, including
// strings when the flag is off, goes through hash/maphash.Comparable,
// seeded per-instance.
func (s *Spreader[K]) baseHash(key K) uint64 {
	if xxHashStrings.Load() {
		if sk, ok := any(key).(string); ok {
			return xxhash.Sum64String(sk)
		}
	}
	return maphash.Comparable(s.seed, key)
}

// avalanche is Thomas Wang's 32-bit integer mix: a handful of shift/xor/
// multiply rounds that spread the influence of every input bit across the
// whole output word, so that keys differing in only a few low bits still
// land in unrelated buckets.
func avalanche(x uint32) uint32 {
	x = (x ^ 61) ^ (x >> 16)
	x += x << 3
	x ^= x >> 4
	x *= 0x27d4eb2d
	x ^= x >> 15
	return x
}
