package stripedmap

import (
	"sync"
	"testing"
)

func TestNewRejectsInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"non-positive load factor", []Option{WithLoadFactor(0)}},
		{"negative load factor", []Option{WithLoadFactor(-1)}},
		{"non-positive concurrency", []Option{WithConcurrencyLevel(0)}},
		{"negative initial capacity", []Option{WithInitialCapacity(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New[string, int](tt.opts...); err == nil {
				t.Fatal("expected an error, got nil")
			}
		})
	}
}

func TestConcurrencyLevelClampedToMaxPartitions(t *testing.T) {
	m, err := New[string, int](WithConcurrencyLevel(100_000))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := m.Partitions(); got != MaxPartitions {
		t.Fatalf("Partitions() = %d, want %d", got, MaxPartitions)
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	m, err := New[string, int]()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, _, err := m.Put("a", 1); err != nil {
		t.Fatalf("Put: %v", err)
	}
	v, ok, err := m.Get("a")
	if err != nil || !ok || v != 1 {
		t.Fatalf("Get(a) = (%d, %v, %v), want (1, true, nil)", v, ok, err)
	}
}

func TestNilKeyAndValueRejected(t *testing.T) {
	m, err := New[*int, *int]()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	one := 1
	if _, _, err := m.Put(nil, &one); err == nil {
		t.Fatal("expected Put(nil key) to fail")
	}
	if _, _, err := m.Put(&one, nil); err == nil {
		t.Fatal("expected Put(nil value) to fail")
	}
	if _, _, err := m.Get(nil); err == nil {
		t.Fatal("expected Get(nil key) to fail")
	}
}

func TestRemoveThenLookupReturnsAbsent(t *testing.T) {
	m, _ := New[string, int]()
	m.Put("a", 1)
	if _, ok, _ := m.Remove("a"); !ok {
		t.Fatal("expected Remove to report removal")
	}
	if _, ok, _ := m.Get("a"); ok {
		t.Fatal("expected Get after Remove to report absence")
	}
}

func TestClearIsIdempotent(t *testing.T) {
	m, _ := New[string, int]()
	m.Put("a", 1)
	m.Put("b", 2)
	m.Clear()
	m.Clear()
	if m.Size() != 0 {
		t.Fatalf("Size() after Clear;Clear = %d, want 0", m.Size())
	}
}

func TestReplaceCommutesWithSelf(t *testing.T) {
	m, _ := New[string, int]()
	m.Put("a", 1)
	m.Replace("a", 5)
	old, ok, _ := m.Replace("a", 5)
	if !ok || old != 5 {
		t.Fatalf("second Replace(a, 5) = (%d, %v), want (5, true)", old, ok)
	}
}

func TestConcurrentPutIfAbsentHasExactlyOneWinner(t *testing.T) {
	m, _ := New[string, int]()
	const n = 64
	wonBy := make([]bool, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			_, existed, _ := m.PutIfAbsent("x", i)
			wonBy[i] = !existed
		}()
	}
	wg.Wait()

	wins := 0
	for _, w := range wonBy {
		if w {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one PutIfAbsent winner, got %d", wins)
	}

	winnerValue, ok, _ := m.Get("x")
	if !ok {
		t.Fatal("expected x to be present")
	}
	// every goroutine, winner or not, must now observe the winner's value.
	v, _, _ := m.PutIfAbsent("x", -1)
	if v != winnerValue {
		t.Fatalf("PutIfAbsent on existing key returned %d, want winner's value %d", v, winnerValue)
	}
}

func TestSizeReflectsInsertionsIntoFourPartitionMap(t *testing.T) {
	m, err := New[string, int](WithInitialCapacity(16), WithLoadFactor(0.75), WithConcurrencyLevel(4))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	keys := []string{"A", "B", "C", "D", "E"}
	for i, k := range keys {
		m.Put(k, i)
	}
	if got := m.Size(); got != len(keys) {
		t.Fatalf("Size() = %d, want %d", got, len(keys))
	}
}

func TestIsEmpty(t *testing.T) {
	m, _ := New[string, int]()
	if !m.IsEmpty() {
		t.Fatal("expected new map to be empty")
	}
	m.Put("a", 1)
	if m.IsEmpty() {
		t.Fatal("expected non-empty map after Put")
	}
	m.Remove("a")
	if !m.IsEmpty() {
		t.Fatal("expected map to be empty again after removing its only key")
	}
}

func TestContainsValue(t *testing.T) {
	m, _ := New[string, int]()
	m.Put("a", 1)
	m.Put("b", 2)
	if ok, _ := m.ContainsValue(2); !ok {
		t.Fatal("expected ContainsValue(2) to be true")
	}
	if ok, _ := m.ContainsValue(3); ok {
		t.Fatal("expected ContainsValue(3) to be false")
	}
}

func TestReaderNeverObservesFailureDuringSustainedChurn(t *testing.T) {
	m, _ := New[int, int](WithConcurrencyLevel(1))
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		defer close(stop)
		for i := 0; i < 5000; i++ {
			m.Put(i%1000, i)
			m.Remove(i % 1000)
		}
	}()
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			m.Get(500)
		}
	}()
	wg.Wait()
}

func TestBulkCopyConstructorFromGoMap(t *testing.T) {
	src := map[string]int{"a": 1, "b": 2, "c": 3}
	m, err := NewFromMap(src)
	if err != nil {
		t.Fatalf("NewFromMap: %v", err)
	}
	if m.Size() != len(src) {
		t.Fatalf("Size() = %d, want %d", m.Size(), len(src))
	}
	for k, v := range src {
		got, ok, _ := m.Get(k)
		if !ok || got != v {
			t.Errorf("Get(%q) = (%d, %v), want (%d, true)", k, got, ok, v)
		}
	}
}

func TestBulkCopyConstructorFromStripedMapPreservesShape(t *testing.T) {
	src, _ := New[string, int](WithConcurrencyLevel(8), WithLoadFactor(0.5))
	src.Put("a", 1)
	src.Put("b", 2)

	dst, err := NewFromStripedMap(src)
	if err != nil {
		t.Fatalf("NewFromStripedMap: %v", err)
	}
	if dst.Partitions() != src.Partitions() {
		t.Errorf("Partitions() = %d, want %d (inherited from src)", dst.Partitions(), src.Partitions())
	}
	if dst.LoadFactor() != src.LoadFactor() {
		t.Errorf("LoadFactor() = %v, want %v (inherited from src)", dst.LoadFactor(), src.LoadFactor())
	}
	if dst.Size() != src.Size() {
		t.Errorf("Size() = %d, want %d", dst.Size(), src.Size())
	}
}
