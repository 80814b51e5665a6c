package stripedmap

import "errors"

// Sentinel errors for the map's error kinds: invalid nil arguments,
// invalid constructor arguments, an invalid persisted configuration, and
// cursor misuse. Check against these
// with errors.Is; every wrapping in this module uses fmt.Errorf's %w so
// the sentinel survives additional context.
var (
	// ErrNilKey is returned when an operation that forbids a nil key is
	// called with one. No state changes.
	ErrNilKey = errors.New("stripedmap: key must not be nil")

	// ErrNilValue is returned when an operation that forbids a nil value
	// is called with one. No state changes.
	ErrNilValue = errors.New("stripedmap: value must not be nil")

	// ErrInvalidArgument is returned by New when a constructor option is
	// out of range: non-positive load factor, non-positive concurrency
	// level, or negative initial capacity.
	ErrInvalidArgument = errors.New("stripedmap: invalid argument")

	// ErrInvalidConfig is returned by a serialization reader when the
	// persisted partition shape is not reconstructible: a partition count
	// that is not a power of two, is zero, or exceeds MaxPartitions.
	ErrInvalidConfig = errors.New("stripedmap: invalid configuration")

	// ErrCursorMisuse is returned by Cursor.Remove when called before the
	// cursor's first Next, again after a Remove with no Next in between, or
	// after Next has reported exhaustion. The cursor and the map both remain
	// usable.
	ErrCursorMisuse = errors.New("stripedmap: cursor used before Next or after exhaustion")
)
