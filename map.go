package stripedmap

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dreamware/stripedmap/cmap/metrics"
	"github.com/dreamware/stripedmap/internal/directory"
	"github.com/dreamware/stripedmap/internal/spread"
)

// Map is a segmented, lock-striped concurrent hash map from K to V. The
// zero Map is not usable; construct one with New. A Map must not be
// copied after first use.
type Map[K comparable, V comparable] struct {
	dir            *directory.Directory[K, V]
	spreader       *spread.Spreader[K]
	partitionShift uint
	instanceID     uuid.UUID
	logger         *zap.Logger
	metrics        *metrics.Collector
	keyNilable     bool
	valNilable     bool
}

type options struct {
	initialCapacity  int
	loadFactor       float64
	concurrencyLevel int
	logger           *zap.Logger
	metrics          *metrics.Collector
}

func defaultOptions() *options {
	return &options{
		initialCapacity:  0,
		loadFactor:       DefaultLoadFactor,
		concurrencyLevel: DefaultConcurrencyLevel,
	}
}

// Option configures a Map constructed with New or NewFromMap.
type Option func(*options)

// WithInitialCapacity sets the expected total entry count across every
// partition. Must be >= 0.
func WithInitialCapacity(n int) Option {
	return func(o *options) { o.initialCapacity = n }
}

// WithLoadFactor sets the per-partition resize threshold fraction. Must be
// > 0.
func WithLoadFactor(f float64) Option {
	return func(o *options) { o.loadFactor = f }
}

// WithConcurrencyLevel hints at the number of partitions. Must be > 0; it
// is rounded up to a power of two and clamped to MaxPartitions.
func WithConcurrencyLevel(n int) Option {
	return func(o *options) { o.concurrencyLevel = n }
}

// WithLogger attaches a zap logger. The map only logs on the writer path
// (partition materialization, rehash), never from a reader, which must
// stay allocation- and syscall-free. The default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics attaches a Prometheus collector. The caller owns
// registering it with a registry; the map only increments it.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) { o.metrics = c }
}

// New constructs an empty Map. Construction fails with ErrInvalidArgument
// if loadFactor is non-positive, concurrencyLevel is non-positive, or
// initialCapacity is negative.
func New[K comparable, V comparable](opts ...Option) (*Map[K, V], error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(cfg)
	}
	return newFromOptions[K, V](cfg)
}

func newFromOptions[K comparable, V comparable](cfg *options) (*Map[K, V], error) {
	if cfg.loadFactor <= 0 || math.IsNaN(cfg.loadFactor) {
		return nil, fmt.Errorf("%w: load factor must be positive, got %v", ErrInvalidArgument, cfg.loadFactor)
	}
	if cfg.concurrencyLevel <= 0 {
		return nil, fmt.Errorf("%w: concurrency level must be positive, got %d", ErrInvalidArgument, cfg.concurrencyLevel)
	}
	if cfg.initialCapacity < 0 {
		return nil, fmt.Errorf("%w: initial capacity must not be negative, got %d", ErrInvalidArgument, cfg.initialCapacity)
	}

	partitionCount := nextPow2(cfg.concurrencyLevel, 1, MaxPartitions)
	perPartition := (cfg.initialCapacity + partitionCount - 1) / partitionCount
	bucketCapacity := nextPow2(perPartition, MinBucketCapacity, MaxCapacity)

	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	instanceID := uuid.New()
	logger = logger.With(zap.Stringer("map_instance", instanceID))
	m := &Map[K, V]{
		dir:            directory.New[K, V](partitionCount, bucketCapacity, cfg.loadFactor, logger, cfg.metrics),
		spreader:       spread.New[K](),
		partitionShift: log2(partitionCount),
		instanceID:     instanceID,
		logger:         logger,
		metrics:        cfg.metrics,
		keyNilable:     nilableKind[K](),
		valNilable:     nilableKind[V](),
	}
	return m, nil
}

// isNilKey and isNilVal guard every isNilArg call behind the map's cached
// nilableKind result, so Get and the other per-key operations never pay
// for a reflect.ValueOf when K or V is a concrete, non-nilable type such
// as int or string.
func (m *Map[K, V]) isNilKey(key K) bool   { return m.keyNilable && isNilArg(key) }
func (m *Map[K, V]) isNilVal(value V) bool { return m.valNilable && isNilArg(value) }

// NewFromMap constructs a Map pre-populated with every entry of src,
// equivalent to New(opts...) followed by inserting every entry of src.
func NewFromMap[K comparable, V comparable](src map[K]V, opts ...Option) (*Map[K, V], error) {
	cfg := defaultOptions()
	cfg.initialCapacity = len(src)
	for _, opt := range opts {
		opt(cfg)
	}
	m, err := newFromOptions[K, V](cfg)
	if err != nil {
		return nil, err
	}
	for k, v := range src {
		if _, _, err := m.Put(k, v); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// NewFromStripedMap constructs a Map pre-populated with every entry of
// src. Unless overridden by opts, it preserves src's own concurrency level
// and load factor rather than falling back to the package defaults.
func NewFromStripedMap[K comparable, V comparable](src *Map[K, V], opts ...Option) (*Map[K, V], error) {
	cfg := defaultOptions()
	cfg.initialCapacity = src.Size()
	cfg.concurrencyLevel = src.dir.Len()
	cfg.loadFactor = src.dir.LoadFactor()
	for _, opt := range opts {
		opt(cfg)
	}
	m, err := newFromOptions[K, V](cfg)
	if err != nil {
		return nil, err
	}
	c := src.Iterate(IterEntries)
	for {
		e, ok := c.Next()
		if !ok {
			break
		}
		if _, _, err := m.Put(e.Key, e.Value); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// InstanceID returns this map's random instance identifier, attached to
// every structured log line the map emits so that log output from many
// concurrent map instances in one process is attributable.
func (m *Map[K, V]) InstanceID() uuid.UUID { return m.instanceID }

// Partitions returns the (fixed) number of partitions in the directory.
func (m *Map[K, V]) Partitions() int { return m.dir.Len() }

// LoadFactor returns the load factor every partition was constructed with.
func (m *Map[K, V]) LoadFactor() float64 { return m.dir.LoadFactor() }

func (m *Map[K, V]) partitionIndex(hash uint32) int {
	if m.partitionShift == 0 {
		return 0
	}
	return int(hash >> (32 - m.partitionShift))
}

// Get looks up key, returning its value and true if present.
func (m *Map[K, V]) Get(key K) (V, bool, error) {
	var zero V
	if m.isNilKey(key) {
		return zero, false, ErrNilKey
	}
	hash := m.spreader.SpreadHash(key)
	p := m.dir.Peek(m.partitionIndex(hash))
	if p == nil {
		return zero, false, nil
	}
	v, ok := p.Get(key, hash)
	return v, ok, nil
}

// ContainsKey reports whether key is present.
func (m *Map[K, V]) ContainsKey(key K) (bool, error) {
	_, ok, err := m.Get(key)
	return ok, err
}

// Put inserts or overwrites key with value, returning the previous value
// if any.
func (m *Map[K, V]) Put(key K, value V) (V, bool, error) {
	return m.put(key, value, false)
}

// PutIfAbsent inserts value for key only if key is not already present.
// It returns the existing value (and true) if key was already bound, or
// the zero value (and false) if this call performed the insertion.
func (m *Map[K, V]) PutIfAbsent(key K, value V) (V, bool, error) {
	return m.put(key, value, true)
}

func (m *Map[K, V]) put(key K, value V, onlyIfAbsent bool) (V, bool, error) {
	var zero V
	if m.isNilKey(key) {
		return zero, false, ErrNilKey
	}
	if m.isNilVal(value) {
		return zero, false, ErrNilValue
	}
	hash := m.spreader.SpreadHash(key)
	p := m.dir.Ensure(m.partitionIndex(hash))
	old, hadOld := p.Put(key, hash, value, onlyIfAbsent)
	return old, hadOld, nil
}

// Remove deletes key unconditionally, returning the removed value if any.
func (m *Map[K, V]) Remove(key K) (V, bool, error) {
	var zero V
	if m.isNilKey(key) {
		return zero, false, ErrNilKey
	}
	hash := m.spreader.SpreadHash(key)
	p := m.dir.Peek(m.partitionIndex(hash))
	if p == nil {
		return zero, false, nil
	}
	v, ok := p.Remove(key, hash, zero, true)
	return v, ok, nil
}

// RemoveIfEquals deletes key only if it is currently bound to value,
// returning whether it removed the entry.
func (m *Map[K, V]) RemoveIfEquals(key K, value V) (bool, error) {
	if m.isNilKey(key) {
		return false, ErrNilKey
	}
	if m.isNilVal(value) {
		return false, ErrNilValue
	}
	hash := m.spreader.SpreadHash(key)
	p := m.dir.Peek(m.partitionIndex(hash))
	if p == nil {
		return false, nil
	}
	_, ok := p.Remove(key, hash, value, false)
	return ok, nil
}

// Replace overwrites key's value unconditionally if key is present,
// returning the previous value and whether a replacement occurred.
func (m *Map[K, V]) Replace(key K, value V) (V, bool, error) {
	var zero V
	if m.isNilKey(key) {
		return zero, false, ErrNilKey
	}
	if m.isNilVal(value) {
		return zero, false, ErrNilValue
	}
	hash := m.spreader.SpreadHash(key)
	p := m.dir.Peek(m.partitionIndex(hash))
	if p == nil {
		return zero, false, nil
	}
	old, ok := p.Replace(key, hash, value)
	return old, ok, nil
}

// ReplaceIfEquals overwrites key's value only if it currently equals
// oldVal, returning whether a replacement occurred.
func (m *Map[K, V]) ReplaceIfEquals(key K, oldVal, newVal V) (bool, error) {
	if m.isNilKey(key) {
		return false, ErrNilKey
	}
	if m.isNilVal(oldVal) {
		return false, ErrNilValue
	}
	if m.isNilVal(newVal) {
		return false, ErrNilValue
	}
	hash := m.spreader.SpreadHash(key)
	p := m.dir.Peek(m.partitionIndex(hash))
	if p == nil {
		return false, nil
	}
	return p.ReplaceIfEquals(key, hash, oldVal, newVal), nil
}

// Clear removes every entry from every materialized partition. It does
// not force materialization of partitions that were never written to.
func (m *Map[K, V]) Clear() {
	for _, p := range m.dir.Materialized() {
		p.Clear()
	}
}
