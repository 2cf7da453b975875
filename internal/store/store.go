// Package store defines the storage backend interface for archives and
// translation maps.
package store

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	// ErrNotFound is returned when an object does not exist in the store.
	ErrNotFound = errors.New("store: object not found")

	// ErrInvalidName is returned for names that are empty, absolute or
	// escape the store root.
	ErrInvalidName = errors.New("store: invalid object name")
)

// Store defines the interface for storage backends.
// Implementations handle path formats and storage details internally.
// Names are slash-separated and relative to the store root.
type Store interface {
	// Read returns the full content of the named object.
	Read(ctx context.Context, name string) ([]byte, error)

	// Write stores data under name. Readers observe either the previous
	// content or the new content, never a partial write.
	Write(ctx context.Context, name string, data []byte) error

	// List returns the names of all objects, sorted.
	List(ctx context.Context) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}

// CleanName validates an object name and returns it in canonical form.
func CleanName(name string) (string, error) {
	if name == "" || strings.HasPrefix(name, "/") || strings.Contains(name, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	clean := path.Clean(name)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return clean, nil
}

// Location is a parsed remote store URL such as s3://bucket/prefix.
type Location struct {
	Scheme string
	Bucket string
	Prefix string
}

// ParseLocation parses "s3://bucket/prefix" or "gs://bucket/prefix".
// The returned prefix is either empty or ends in a slash.
func ParseLocation(raw string) (Location, error) {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return Location{}, fmt.Errorf("invalid remote %q: missing scheme", raw)
	}
	if scheme != "s3" && scheme != "gs" {
		return Location{}, fmt.Errorf("invalid remote %q: scheme must be s3 or gs", raw)
	}

	bucket, prefix, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return Location{}, fmt.Errorf("invalid remote %q: missing bucket name", raw)
	}

	prefix = strings.TrimSuffix(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}

	return Location{Scheme: scheme, Bucket: bucket, Prefix: prefix}, nil
}
