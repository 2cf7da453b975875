package cachedstore

import (
	"context"
	"errors"
	"testing"

	"github.com/wordmap/wordmap/internal/store"
)

// fakeBackend is a simple in-memory backend for testing.
type fakeBackend struct {
	data   map[string][]byte
	hits   int64
	misses int64
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{data: make(map[string][]byte)}
}

func (b *fakeBackend) Get(name string) ([]byte, bool) {
	if data, ok := b.data[name]; ok {
		b.hits++
		return data, true
	}
	b.misses++
	return nil, false
}

func (b *fakeBackend) Set(name string, data []byte) {
	b.data[name] = data
}

func (b *fakeBackend) Remove(name string) {
	delete(b.data, name)
}

func (b *fakeBackend) Stats() Stats {
	return Stats{Hits: b.hits, Misses: b.misses, Size: len(b.data)}
}

// fakeStore is a simple store for testing.
type fakeStore struct {
	data     map[string][]byte
	writeErr error
	reads    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string][]byte)}
}

func (s *fakeStore) Read(ctx context.Context, name string) ([]byte, error) {
	s.reads++
	if data, ok := s.data[name]; ok {
		return data, nil
	}
	return nil, store.ErrNotFound
}

func (s *fakeStore) Write(ctx context.Context, name string, data []byte) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.data[name] = data
	return nil
}

func (s *fakeStore) List(ctx context.Context) ([]string, error) {
	var names []string
	for name := range s.data {
		names = append(names, name)
	}
	return names, nil
}

func (s *fakeStore) Close() error {
	return nil
}

func TestStore_CacheHit(t *testing.T) {
	backend := newFakeBackend()
	underlying := newFakeStore()

	// Pre-populate cache.
	backend.Set("archive", []byte("cached data"))

	s := New(underlying, backend)
	ctx := context.Background()

	data, err := s.Read(ctx, "archive")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if string(data) != "cached data" {
		t.Errorf("Read() = %q, want %q", data, "cached data")
	}
	if underlying.reads != 0 {
		t.Errorf("underlying reads = %d, want 0", underlying.reads)
	}

	// Mutating the returned slice must not touch the cache.
	data[0] = 'X'
	again, _ := s.Read(ctx, "archive")
	if string(again) != "cached data" {
		t.Errorf("cached copy changed: %q", again)
	}

	stats := s.Stats()
	if stats.Hits != 2 {
		t.Errorf("Stats().Hits = %d, want 2", stats.Hits)
	}
}

func TestStore_CacheMiss(t *testing.T) {
	backend := newFakeBackend()
	underlying := newFakeStore()

	// Put data in underlying store, not cache.
	underlying.data["archive"] = []byte("underlying data")

	s := New(underlying, backend)
	ctx := context.Background()

	data, err := s.Read(ctx, "archive")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if string(data) != "underlying data" {
		t.Errorf("Read() = %q, want %q", data, "underlying data")
	}

	// Should have cached the data.
	if _, ok := backend.data["archive"]; !ok {
		t.Error("data should be cached after miss")
	}

	stats := s.Stats()
	if stats.Misses != 1 {
		t.Errorf("Stats().Misses = %d, want 1", stats.Misses)
	}
}

func TestStore_NotFound(t *testing.T) {
	s := New(newFakeStore(), newFakeBackend())

	_, err := s.Read(context.Background(), "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Read() error = %v, want ErrNotFound", err)
	}
}

func TestStore_WriteRefreshesCache(t *testing.T) {
	backend := newFakeBackend()
	underlying := newFakeStore()
	s := New(underlying, backend)
	ctx := context.Background()

	backend.Set("out", []byte("stale"))
	if err := s.Write(ctx, "out", []byte("fresh")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if string(underlying.data["out"]) != "fresh" {
		t.Errorf("underlying = %q, want %q", underlying.data["out"], "fresh")
	}
	got, err := s.Read(ctx, "out")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(got) != "fresh" {
		t.Errorf("Read() = %q, want %q", got, "fresh")
	}
}

func TestStore_WriteFailureEvicts(t *testing.T) {
	backend := newFakeBackend()
	underlying := newFakeStore()
	underlying.writeErr = errors.New("disk full")
	s := New(underlying, backend)

	backend.Set("out", []byte("old"))
	if err := s.Write(context.Background(), "out", []byte("new")); err == nil {
		t.Fatal("Write() expected error")
	}
	if _, ok := backend.data["out"]; ok {
		t.Error("failed write should evict the cached copy")
	}
}

func TestStore_InvalidName(t *testing.T) {
	s := New(newFakeStore(), newFakeBackend())
	if _, err := s.Read(context.Background(), "../x"); !errors.Is(err, store.ErrInvalidName) {
		t.Errorf("Read() error = %v, want ErrInvalidName", err)
	}
}

func TestStats_HitRate(t *testing.T) {
	tests := []struct {
		name     string
		hits     int64
		misses   int64
		expected float64
	}{
		{"no requests", 0, 0, 0},
		{"all hits", 10, 0, 100},
		{"all misses", 0, 10, 0},
		{"50% hit rate", 5, 5, 50},
		{"75% hit rate", 3, 1, 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Stats{Hits: tt.hits, Misses: tt.misses}
			if got := s.HitRate(); got != tt.expected {
				t.Errorf("HitRate() = %v, want %v", got, tt.expected)
			}
		})
	}
}
