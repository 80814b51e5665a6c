package views_test

import (
	"testing"

	"github.com/dreamware/stripedmap"
	"github.com/dreamware/stripedmap/cmap/views"
)

func newFilledMap(t *testing.T) *stripedmap.Map[string, int] {
	t.Helper()
	m, err := stripedmap.New[string, int]()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, kv := range []struct {
		k string
		v int
	}{{"a", 1}, {"b", 2}, {"c", 3}} {
		if _, _, err := m.Put(kv.k, kv.v); err != nil {
			t.Fatalf("Put(%q): %v", kv.k, err)
		}
	}
	return m
}

func TestKeySetEachVisitsEveryKey(t *testing.T) {
	m := newFilledMap(t)
	ks := views.NewKeySet(m)
	if got := ks.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}
	seen := map[string]bool{}
	ks.Each(func(k string) bool {
		seen[k] = true
		return true
	})
	for _, want := range []string{"a", "b", "c"} {
		if !seen[want] {
			t.Errorf("KeySet.Each missed key %q", want)
		}
	}
}

func TestKeySetEachStopsOnFalse(t *testing.T) {
	m := newFilledMap(t)
	ks := views.NewKeySet(m)
	visits := 0
	ks.Each(func(k string) bool {
		visits++
		return false
	})
	if visits != 1 {
		t.Fatalf("expected Each to stop after 1 visit, got %d", visits)
	}
}

func TestKeySetContains(t *testing.T) {
	m := newFilledMap(t)
	ks := views.NewKeySet(m)
	if ok, err := ks.Contains("a"); err != nil || !ok {
		t.Fatalf("Contains(a) = (%v, %v), want (true, nil)", ok, err)
	}
	if ok, err := ks.Contains("z"); err != nil || ok {
		t.Fatalf("Contains(z) = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestValuesEachVisitsEveryValue(t *testing.T) {
	m := newFilledMap(t)
	vs := views.NewValues(m)
	sum := 0
	vs.Each(func(v int) bool {
		sum += v
		return true
	})
	if sum != 6 {
		t.Fatalf("sum of values = %d, want 6", sum)
	}
}

func TestValuesContains(t *testing.T) {
	m := newFilledMap(t)
	vs := views.NewValues(m)
	if ok, _ := vs.Contains(2); !ok {
		t.Fatal("expected Contains(2) to be true")
	}
	if ok, _ := vs.Contains(99); ok {
		t.Fatal("expected Contains(99) to be false")
	}
}

func TestEntrySetEachVisitsEveryPair(t *testing.T) {
	m := newFilledMap(t)
	es := views.NewEntrySet(m)
	got := map[string]int{}
	es.Each(func(e views.Entry[string, int]) bool {
		got[e.Key()] = e.Value()
		return true
	})
	want := map[string]int{"a": 1, "b": 2, "c": 3}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("entry %q = %d, want %d", k, got[k], v)
		}
	}
}

func TestEntrySetValueWriteThroughUpdatesBackingMap(t *testing.T) {
	m := newFilledMap(t)
	es := views.NewEntrySet(m)

	var target views.Entry[string, int]
	es.Each(func(e views.Entry[string, int]) bool {
		if e.Key() == "a" {
			target = e
			return false
		}
		return true
	})

	replaced, err := target.SetValue(100)
	if err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if !replaced {
		t.Fatal("expected SetValue to report a replacement")
	}
	got, ok, _ := m.Get("a")
	if !ok || got != 100 {
		t.Fatalf("Get(a) after SetValue = (%d, %v), want (100, true)", got, ok)
	}
}

func TestEntrySetValueWriteThroughAfterRemovalIsNoop(t *testing.T) {
	m := newFilledMap(t)
	es := views.NewEntrySet(m)

	var target views.Entry[string, int]
	es.Each(func(e views.Entry[string, int]) bool {
		if e.Key() == "b" {
			target = e
			return false
		}
		return true
	})

	m.Remove("b")

	replaced, err := target.SetValue(999)
	if err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if replaced {
		t.Fatal("expected SetValue on a removed key to report no replacement")
	}
	if _, ok, _ := m.Get("b"); ok {
		t.Fatal("expected SetValue to not resurrect a removed key")
	}
}

func TestForEachVisitsEveryEntryExactlyOnce(t *testing.T) {
	m := newFilledMap(t)
	seen := map[string]int{}
	views.ForEach(m, func(k string, v int) {
		seen[k] = v
	})
	if len(seen) != 3 {
		t.Fatalf("ForEach visited %d entries, want 3", len(seen))
	}
}
