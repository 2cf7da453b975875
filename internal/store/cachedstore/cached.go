package cachedstore

import (
	"context"

	"github.com/wordmap/wordmap/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store wraps another Store with a read cache. Writes go through to the
// underlying store and then refresh the cached copy.
type Store struct {
	underlying store.Store
	backend    Backend
}

// New creates a new cached store wrapping the given store.
func New(underlying store.Store, backend Backend) *Store {
	return &Store{
		underlying: underlying,
		backend:    backend,
	}
}

// Read returns an object, checking the cache first. Callers get their own
// copy and may modify it.
func (s *Store) Read(ctx context.Context, name string) ([]byte, error) {
	name, err := store.CleanName(name)
	if err != nil {
		return nil, err
	}

	if data, ok := s.backend.Get(name); ok {
		return clone(data), nil
	}

	// Cache miss - read from underlying store.
	data, err := s.underlying.Read(ctx, name)
	if err != nil {
		return nil, err
	}

	s.backend.Set(name, clone(data))
	return data, nil
}

// Write stores data in the underlying store and caches it on success.
func (s *Store) Write(ctx context.Context, name string, data []byte) error {
	name, err := store.CleanName(name)
	if err != nil {
		return err
	}

	if err := s.underlying.Write(ctx, name, data); err != nil {
		// The underlying object may or may not have changed.
		s.backend.Remove(name)
		return err
	}

	s.backend.Set(name, clone(data))
	return nil
}

// List delegates to the underlying store.
func (s *Store) List(ctx context.Context) ([]string, error) {
	return s.underlying.List(ctx)
}

// Close closes the underlying store.
func (s *Store) Close() error {
	return s.underlying.Close()
}

// Stats returns cache statistics.
func (s *Store) Stats() Stats {
	return s.backend.Stats()
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
