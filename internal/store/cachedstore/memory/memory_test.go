package memory

import (
	"testing"

	"github.com/wordmap/wordmap/internal/store/cachedstore/cachestrategy/lru"
)

func TestBackend_GetSet(t *testing.T) {
	strategy, err := lru.New(10)
	if err != nil {
		t.Fatalf("lru.New() error = %v", err)
	}
	b := New(strategy, nil)

	// Initially empty.
	if _, ok := b.Get("archive"); ok {
		t.Error("Get() should return false for missing key")
	}

	// Set and get.
	b.Set("archive", []byte("hello"))
	data, ok := b.Get("archive")
	if !ok {
		t.Error("Get() should return true after Set")
	}
	if string(data) != "hello" {
		t.Errorf("Get() = %q, want %q", data, "hello")
	}
}

func TestBackend_Remove(t *testing.T) {
	strategy, err := lru.New(10)
	if err != nil {
		t.Fatalf("lru.New() error = %v", err)
	}
	b := New(strategy, nil)

	b.Set("a", []byte("1"))
	b.Remove("a")
	b.Remove("never-set")

	if _, ok := b.Get("a"); ok {
		t.Error("Get() should return false after Remove")
	}
	if b.Len() != 0 {
		t.Errorf("Len() = %d, want 0", b.Len())
	}
}

func TestBackend_Stats(t *testing.T) {
	strategy, err := lru.New(10)
	if err != nil {
		t.Fatalf("lru.New() error = %v", err)
	}
	b := New(strategy, nil)

	b.Set("a", []byte("data"))

	// Hit.
	b.Get("a")
	// Miss.
	b.Get("b")

	stats := b.Stats()
	if stats.Hits != 1 {
		t.Errorf("Stats().Hits = %d, want 1", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Stats().Misses = %d, want 1", stats.Misses)
	}
	if stats.Size != 1 {
		t.Errorf("Stats().Size = %d, want 1", stats.Size)
	}
}

func TestBackend_LRUEviction(t *testing.T) {
	strategy, err := lru.New(2) // Capacity of 2.
	if err != nil {
		t.Fatalf("lru.New() error = %v", err)
	}
	b := New(strategy, nil)

	b.Set("one", []byte("1"))
	b.Set("two", []byte("2"))
	b.Set("three", []byte("3")) // Should evict "one".

	if _, ok := b.Get("one"); ok {
		t.Error("Get(one) should return false after eviction")
	}
	if _, ok := b.Get("two"); !ok {
		t.Error("Get(two) should return true")
	}
	if _, ok := b.Get("three"); !ok {
		t.Error("Get(three) should return true")
	}
}

func TestLRU_InvalidCapacity(t *testing.T) {
	_, err := lru.New(0)
	if err == nil {
		t.Error("lru.New(0) should return error")
	}

	_, err = lru.New(-1)
	if err == nil {
		t.Error("lru.New(-1) should return error")
	}
}

// fakeStrategy is a simple strategy for testing injection.
type fakeStrategy struct {
	data map[string][]byte
}

func (s *fakeStrategy) Get(key string) ([]byte, bool) {
	v, ok := s.data[key]
	return v, ok
}

func (s *fakeStrategy) Add(key string, value []byte) bool {
	s.data[key] = value
	return false
}

func (s *fakeStrategy) Remove(key string) bool {
	_, ok := s.data[key]
	delete(s.data, key)
	return ok
}

func (s *fakeStrategy) Len() int {
	return len(s.data)
}

func TestBackend_InjectableStrategy(t *testing.T) {
	strategy := &fakeStrategy{data: make(map[string][]byte)}
	b := New(strategy, nil)

	b.Set("k", []byte("test"))
	data, ok := b.Get("k")
	if !ok || string(data) != "test" {
		t.Error("injectable strategy should work")
	}
}
