package container

import (
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/wordmap/wordmap/internal/codec"
	"github.com/wordmap/wordmap/internal/codec/zstdcodec"
)

// Codec decodes and encodes archives.
// A Codec is safe for concurrent use if its block codecs are.
type Codec struct {
	registry *codec.Registry
	workers  int
}

// Option configures a Codec.
type Option func(*Codec)

// WithRegistry sets the block codecs available for decoding and encoding.
func WithRegistry(r *codec.Registry) Option {
	return func(c *Codec) { c.registry = r }
}

// WithWorkers sets how many blocks are (de)compressed in parallel.
func WithWorkers(n int) Option {
	return func(c *Codec) {
		if n > 0 {
			c.workers = n
		}
	}
}

// New returns a Codec that handles zstd blocks, one at a time.
func New(opts ...Option) *Codec {
	c := &Codec{
		registry: codec.NewRegistry(zstdcodec.New()),
		workers:  1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Decode parses an archive and returns its blocks decompressed, in order.
// Any structural error aborts the decode; no partial result is returned.
func (c *Codec) Decode(data []byte) ([]Block, error) {
	layout, err := Inspect(data)
	if err != nil {
		return nil, err
	}

	blocks := make([]Block, len(layout.Blocks))
	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, info := range layout.Blocks {
		g.Go(func() error {
			bc, err := c.registry.Lookup(info.Header.Type)
			if err != nil {
				return fmt.Errorf("block %d: %w", i, err)
			}
			if info.Header.DecompressedSize > MaxBlockSize {
				return fmt.Errorf("%w: block %d declares %d bytes", ErrTruncated, i, info.Header.DecompressedSize)
			}
			out, err := bc.Decompress(layout.payload(data, i), int(info.Header.DecompressedSize))
			if err != nil {
				return fmt.Errorf("block %d: %w", i, err)
			}
			blocks[i] = Block{Type: info.Header.Type, Data: out}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return blocks, nil
}

// Encode compresses each block independently and writes a complete archive.
// Blocks are written contiguously in order and the offset table is rebuilt
// from their compressed sizes.
func (c *Codec) Encode(blocks []Block) ([]byte, error) {
	n := len(blocks)
	if n == 0 {
		return nil, ErrNoBlocks
	}

	compressed := make([][]byte, n)
	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, b := range blocks {
		g.Go(func() error {
			bc, err := c.registry.Lookup(b.Type)
			if err != nil {
				return fmt.Errorf("block %d: %w", i, err)
			}
			if uint64(len(b.Data)) > math.MaxUint32 {
				return fmt.Errorf("%w: block %d is %d bytes", ErrTooLarge, i, len(b.Data))
			}
			out, err := bc.Compress(b.Data)
			if err != nil {
				return fmt.Errorf("block %d: %w", i, err)
			}
			compressed[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	starts := make([]int, n)
	total := 0
	for i, p := range compressed {
		starts[i] = total
		total += BlockHeaderSize + len(p)
	}
	if uint64(total) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: data region is %d bytes", ErrTooLarge, total)
	}

	dataStart := HeaderSize + 4*n
	out := make([]byte, dataStart+total)

	h := Header{Magic: Magic, Version: Version, CountMinusOne: uint32(n - 1)}
	h.EncodeTo(out)
	for i := 0; i < n-1; i++ {
		binary.LittleEndian.PutUint32(out[HeaderSize+4*i:], uint32(starts[i]))
	}
	binary.LittleEndian.PutUint32(out[HeaderSize+4*(n-1):], uint32(total))

	for i, p := range compressed {
		pos := dataStart + starts[i]
		bh := BlockHeader{
			Type:             blocks[i].Type,
			CompressedSize:   uint32(len(p)),
			DecompressedSize: uint32(len(blocks[i].Data)),
		}
		bh.EncodeTo(out[pos:])
		copy(out[pos+BlockHeaderSize:], p)
	}

	return out, nil
}
