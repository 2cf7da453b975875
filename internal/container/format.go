// Package container reads and writes the outer archive: a magic-tagged file
// holding independently compressed blocks located through an offset table.
package container

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/wordmap/wordmap/internal/codec"
)

// Magic identifies an archive.
var Magic = [4]byte{0xEF, 0xBE, 0xAD, 0xDE}

const (
	// Version is the only format version seen in the wild.
	Version uint32 = 1

	// HeaderSize is the size of magic + version + block count.
	HeaderSize = 12

	// BlockHeaderSize is the size of type + compressed size + decompressed size.
	BlockHeaderSize = 9

	// MaxBlockSize caps the declared decompressed size of one block.
	MaxBlockSize = 1 << 30
)

// Structural errors. Any of them aborts the whole archive operation.
var (
	ErrBadMagic               = errors.New("container: bad magic")
	ErrUnsupportedVersion     = errors.New("container: unsupported version")
	ErrUnsupportedCompression = codec.ErrUnsupportedType
	ErrSizeMismatch           = codec.ErrSizeMismatch
	ErrTruncated              = errors.New("container: truncated archive")
	ErrBadOffset              = errors.New("container: inconsistent offset table")
	ErrNoBlocks               = errors.New("container: archive must hold at least one block")
	ErrTooLarge               = errors.New("container: archive exceeds 32-bit offsets")
)

// Header is the fixed archive preamble.
type Header struct {
	Magic         [4]byte
	Version       uint32
	CountMinusOne uint32
}

// BlockCount returns the number of blocks the header declares.
func (h *Header) BlockCount() int {
	return int(h.CountMinusOne) + 1
}

// Validate checks magic and version.
func (h *Header) Validate() error {
	if h.Magic != Magic {
		return fmt.Errorf("%w: expected % x, got % x", ErrBadMagic, Magic, h.Magic)
	}
	if h.Version != Version {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	return nil
}

// EncodeTo writes the header to buf, which must be at least HeaderSize bytes.
func (h *Header) EncodeTo(buf []byte) {
	copy(buf[0:4], h.Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.CountMinusOne)
}

// DecodeFrom reads the header from buf without validating it.
func (h *Header) DecodeFrom(buf []byte) {
	copy(h.Magic[:], buf[0:4])
	h.Version = binary.LittleEndian.Uint32(buf[4:8])
	h.CountMinusOne = binary.LittleEndian.Uint32(buf[8:12])
}

// BlockHeader precedes every block payload.
type BlockHeader struct {
	Type             byte
	CompressedSize   uint32
	DecompressedSize uint32
}

// EncodeTo writes the block header to buf, which must be at least BlockHeaderSize bytes.
func (h *BlockHeader) EncodeTo(buf []byte) {
	buf[0] = h.Type
	binary.LittleEndian.PutUint32(buf[1:5], h.CompressedSize)
	binary.LittleEndian.PutUint32(buf[5:9], h.DecompressedSize)
}

// DecodeFrom reads the block header from buf.
func (h *BlockHeader) DecodeFrom(buf []byte) {
	h.Type = buf[0]
	h.CompressedSize = binary.LittleEndian.Uint32(buf[1:5])
	h.DecompressedSize = binary.LittleEndian.Uint32(buf[5:9])
}

// Block is one decompressed unit of an archive.
type Block struct {
	Type byte
	Data []byte
}

// BlockInfo locates one block inside an archive.
type BlockInfo struct {
	// Offset is relative to the start of the data region.
	Offset int
	Header BlockHeader
}

// Size returns the block's size in the data region, header included.
func (b BlockInfo) Size() int {
	return BlockHeaderSize + int(b.Header.CompressedSize)
}

// Layout describes an archive's structure without decompressing it.
type Layout struct {
	Header    Header
	Table     []uint32
	DataStart int
	DataSize  int
	Blocks    []BlockInfo
}

// Inspect parses the header, offset table and block headers of an archive.
//
// The table holds one entry per block. Entries 0..N-2 are the start offsets
// of blocks 0..N-2 and the final entry is the size of the data region. The
// last block is not addressed by the table: it starts where block N-2 ends.
// With a single block the table reduces to the data-region length.
func Inspect(data []byte) (*Layout, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrTruncated, len(data))
	}

	l := &Layout{}
	l.Header.DecodeFrom(data)
	if err := l.Header.Validate(); err != nil {
		return nil, err
	}

	n := l.Header.BlockCount()
	tableEnd := HeaderSize + 4*n
	if n <= 0 || tableEnd < HeaderSize || tableEnd > len(data) {
		return nil, fmt.Errorf("%w: offset table for %d blocks does not fit", ErrTruncated, n)
	}

	l.Table = make([]uint32, n)
	for i := range l.Table {
		pos := HeaderSize + 4*i
		l.Table[i] = binary.LittleEndian.Uint32(data[pos : pos+4])
	}
	l.DataStart = tableEnd

	region := data[tableEnd:]
	total := int(l.Table[n-1])
	if total > len(region) {
		return nil, fmt.Errorf("%w: data region declares %d bytes, have %d", ErrTruncated, total, len(region))
	}
	if total < len(region) {
		return nil, fmt.Errorf("%w: %d trailing bytes after data region", ErrBadOffset, len(region)-total)
	}
	l.DataSize = total

	for i, off := range l.Table[:n-1] {
		if int(off) > total {
			return nil, fmt.Errorf("%w: block %d starts at %d past data region end %d", ErrBadOffset, i, off, total)
		}
	}

	l.Blocks = make([]BlockInfo, n)
	prevEnd := 0
	for i := 0; i < n; i++ {
		start := prevEnd
		if i < n-1 {
			start = int(l.Table[i])
		}
		if start < prevEnd {
			return nil, fmt.Errorf("%w: block %d starts at %d inside block %d", ErrBadOffset, i, start, i-1)
		}
		limit := total
		if i < n-2 {
			limit = int(l.Table[i+1])
		}
		if start+BlockHeaderSize > limit {
			return nil, fmt.Errorf("%w: block %d header at %d overruns %d", ErrTruncated, i, start, limit)
		}

		info := BlockInfo{Offset: start}
		info.Header.DecodeFrom(region[start:])
		end := start + info.Size()
		if end > limit {
			return nil, fmt.Errorf("%w: block %d payload ends at %d, limit %d", ErrTruncated, i, end, limit)
		}
		l.Blocks[i] = info
		prevEnd = end
	}
	if prevEnd != total {
		return nil, fmt.Errorf("%w: blocks end at %d, table declares %d", ErrBadOffset, prevEnd, total)
	}

	return l, nil
}

// payload returns the compressed bytes of block i.
func (l *Layout) payload(data []byte, i int) []byte {
	b := l.Blocks[i]
	start := l.DataStart + b.Offset + BlockHeaderSize
	return data[start : start+int(b.Header.CompressedSize)]
}
