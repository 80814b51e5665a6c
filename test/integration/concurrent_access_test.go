// Package integration exercises the striped map and its storage-layer
// consumers end to end from a separate test package: it uses only the
// exported API of stripedmap and of the module's storage package.
package integration

import (
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dreamware/stripedmap"
	"github.com/dreamware/stripedmap/internal/storage"
)

// TestSustainedWriterChurnNeverFailsReader runs one writer thread that
// repeatedly inserts and removes keys 1..1000 (spread across the partitions
// of a 4-partition map by its seeded hash) concurrently with a reader thread
// that calls Get(500) in a tight loop. The reader must never observe an
// error, and every call must return promptly with either the value or
// the absent marker -- never hang waiting on the writer.
func TestSustainedWriterChurnNeverFailsReader(t *testing.T) {
	m, err := stripedmap.New[int, int](stripedmap.WithConcurrencyLevel(4))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			for k := 1; k <= 1000; k++ {
				if _, _, err := m.Put(k, k*2); err != nil {
					t.Errorf("Put(%d): %v", k, err)
					return
				}
				if _, _, err := m.Remove(k); err != nil {
					t.Errorf("Remove(%d): %v", k, err)
					return
				}
			}
		}
	}()

	const readIterations = 200_000
	deadline := time.Now().Add(10 * time.Second)
	for i := 0; i < readIterations; i++ {
		if time.Now().After(deadline) {
			t.Fatalf("only completed %d/%d reads within the deadline; reader blocked behind writer", i, readIterations)
		}
		if _, _, err := m.Get(500); err != nil {
			t.Errorf("Get(500): %v", err)
		}
	}

	close(stop)
	wg.Wait()
}

// TestFourPartitionMapKeepsEveryInsertedEntry builds the map with initial
// capacity 16, load factor 0.75 and concurrency level 4, inserts five keys
// and checks the result only through the public Partitions()/Size()
// surface. Bucket-table doubling is an internal partition detail and is
// checked in internal/partition's own tests, not here.
func TestFourPartitionMapKeepsEveryInsertedEntry(t *testing.T) {
	m, err := stripedmap.New[int, string](
		stripedmap.WithInitialCapacity(16),
		stripedmap.WithLoadFactor(0.75),
		stripedmap.WithConcurrencyLevel(4),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := m.Partitions(); got != 4 {
		t.Fatalf("Partitions() = %d, want 4", got)
	}

	for i, key := range []int{0, 1, 2, 3, 4} {
		if _, _, err := m.Put(key, string(rune('A'+i))); err != nil {
			t.Fatalf("Put(%d): %v", key, err)
		}
	}

	if got := m.Size(); got != 5 {
		t.Fatalf("Size() = %d, want 5", got)
	}
}

// TestMemoryStoreSurvivesConcurrentLoad drives concurrent Put/Get/Delete
// against a single storage.MemoryStore, the way a real service would share
// one store across request-handling goroutines, and checks that no
// operation ever surfaces an error and every live key reads back the value
// its own worker last wrote.
func TestMemoryStoreSurvivesConcurrentLoad(t *testing.T) {
	s := storage.NewMemoryStore()

	const workers = 16
	const opsPerWorker = 500
	var wg sync.WaitGroup
	var errCount atomic.Int64

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < opsPerWorker; i++ {
				key := keyFor(id, i)
				if err := s.Put(key, []byte(key)); err != nil {
					errCount.Add(1)
					continue
				}
				if v, err := s.Get(key); err != nil || string(v) != key {
					errCount.Add(1)
				}
				if i%5 == 0 {
					_ = s.Delete(key)
				}
			}
		}(w)
	}
	wg.Wait()

	if errCount.Load() != 0 {
		t.Fatalf("store reported %d errors under concurrent load", errCount.Load())
	}

	stats := s.Stats()
	if stats.Keys < 0 {
		t.Fatalf("Stats() = %+v, want non-negative Keys", stats)
	}
}

func keyFor(workerID, i int) string {
	return "worker-" + strconv.Itoa(workerID) + "-key-" + strconv.Itoa(i)
}
