// Package codec provides compression and decompression for archive block payloads.
package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedType is returned when no codec is registered for a block type tag.
	ErrUnsupportedType = errors.New("codec: unsupported compression type")

	// ErrSizeMismatch is returned when a payload does not expand to its declared size.
	ErrSizeMismatch = errors.New("codec: decompressed size mismatch")
)

// Codec compresses and decompresses a single block payload.
type Codec interface {
	// Type returns the block type tag this codec handles.
	Type() byte
	// Compress returns the compressed form of src.
	Compress(src []byte) ([]byte, error)
	// Decompress decompresses src, which must expand to exactly size bytes.
	Decompress(src []byte, size int) ([]byte, error)
}

// Registry maps block type tags to codecs.
type Registry struct {
	codecs map[byte]Codec
}

// NewRegistry returns a registry holding the given codecs.
// A later codec replaces an earlier one with the same tag.
func NewRegistry(codecs ...Codec) *Registry {
	r := &Registry{codecs: make(map[byte]Codec, len(codecs))}
	for _, c := range codecs {
		r.codecs[c.Type()] = c
	}
	return r
}

// Lookup returns the codec for tag.
func (r *Registry) Lookup(tag byte) (Codec, error) {
	c, ok := r.codecs[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedType, tag)
	}
	return c, nil
}
