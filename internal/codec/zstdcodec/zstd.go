// Package zstdcodec provides the zstd block codec (type tag 4).
package zstdcodec

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/wordmap/wordmap/internal/codec"
)

// Type is the block type tag for zstd payloads.
const Type byte = 0x04

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = (*Codec)(nil)

// Codec implements zstd block compression.
// It is safe for concurrent use.
type Codec struct {
	level    zstd.EncoderLevel
	encoders sync.Pool
	decoders sync.Pool
}

// Option configures a Codec.
type Option func(*Codec)

// WithLevel sets the compression level using the zstd command-line scale (1-22).
// Values outside the scale fall back to the default level.
func WithLevel(level int) Option {
	return func(c *Codec) {
		if level > 0 {
			c.level = zstd.EncoderLevelFromZstd(level)
		}
	}
}

// New returns a new zstd codec.
func New(opts ...Option) *Codec {
	c := &Codec{level: zstd.SpeedDefault}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Type returns 4.
func (c *Codec) Type() byte {
	return Type
}

// Compress compresses src into a single zstd frame.
func (c *Codec) Compress(src []byte) ([]byte, error) {
	enc, err := c.encoder()
	if err != nil {
		return nil, err
	}
	defer c.encoders.Put(enc)

	return enc.EncodeAll(src, make([]byte, 0, len(src)/2+16)), nil
}

// Decompress expands src and checks the result is exactly size bytes long.
func (c *Codec) Decompress(src []byte, size int) ([]byte, error) {
	dec, err := c.decoder()
	if err != nil {
		return nil, err
	}
	defer c.decoders.Put(dec)

	out, err := dec.DecodeAll(src, make([]byte, 0, size))
	if err != nil {
		return nil, fmt.Errorf("zstd decompression failed: %w", err)
	}
	if len(out) != size {
		return nil, fmt.Errorf("%w: declared %d, got %d", codec.ErrSizeMismatch, size, len(out))
	}
	return out, nil
}

func (c *Codec) encoder() (*zstd.Encoder, error) {
	if enc, ok := c.encoders.Get().(*zstd.Encoder); ok {
		return enc, nil
	}
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(c.level),
		zstd.WithEncoderConcurrency(1),
		zstd.WithZeroFrames(true),
	)
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	return enc, nil
}

func (c *Codec) decoder() (*zstd.Decoder, error) {
	if dec, ok := c.decoders.Get().(*zstd.Decoder); ok {
		return dec, nil
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	return dec, nil
}
