// Package strtable parses and rebuilds the string table stored in every
// text-bearing archive block.
//
// A table is a prefix of fixed layout
//
//	count u32 | reserved 4 | reserved 4 | reserved 12 | flags [count]byte | reserved 17
//
// followed by count 16-byte entries (id [8]byte, rel_offset u32, length u32)
// and the UTF-8 text blob. Only count is interpreted; the rest of the prefix
// is carried over verbatim on rebuild.
package strtable

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

const (
	// EntrySize is the size of one entry record.
	EntrySize = 16

	// AnchorOffset is added to an entry's position to get the point its
	// rel_offset is measured from, i.e. the entry's length field.
	AnchorOffset = 12

	prefixFixed    = 4 + 4 + 4 + 12
	prefixTrailing = 17
)

var (
	// ErrShortTable is returned when a block cannot hold the prefix it declares.
	ErrShortTable = errors.New("strtable: block too short for string table")

	// ErrEntryCountMismatch is returned by Rebuild when the entries do not
	// match the count recorded in the prefix.
	ErrEntryCountMismatch = errors.New("strtable: entry count does not match prefix")

	// ErrTruncatedEntryTable reports that parsing stopped before count entries.
	// It is a diagnostic: the entries read so far are still returned.
	ErrTruncatedEntryTable = errors.New("strtable: truncated entry table")

	// ErrInvalidID is returned when an id string is not 16 hex digits.
	ErrInvalidID = errors.New("strtable: invalid entry id")
)

// HeaderEnd returns the size of the prefix for a table of count entries.
func HeaderEnd(count int) int {
	return prefixFixed + count + prefixTrailing
}

// ID is the opaque 8-byte key of an entry.
type ID [8]byte

// String returns the id as lowercase hex.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// ParseID parses a 16-digit hex id.
func ParseID(s string) (ID, error) {
	var id ID
	if len(s) != 2*len(id) {
		return id, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return id, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return id, nil
}

// Entry is one string of a table.
type Entry struct {
	ID     ID
	Offset uint32
	Length uint32
	Text   string
}

// Key returns the hex id used to cross-reference translations.
func (e Entry) Key() string {
	return e.ID.String()
}

// Table is a parsed string table.
type Table struct {
	// Prefix holds the first HeaderEnd(Declared) bytes of the block, unchanged.
	Prefix []byte
	// Declared is the entry count recorded in the prefix.
	Declared int
	// Entries are in table order.
	Entries []Entry
	// Truncated is set when fewer than Declared entries could be read.
	Truncated bool
}

// Err returns a wrapped ErrTruncatedEntryTable when the table is truncated.
func (t *Table) Err() error {
	if !t.Truncated {
		return nil
	}
	return fmt.Errorf("%w: parsed %d of %d entries", ErrTruncatedEntryTable, len(t.Entries), t.Declared)
}

// Parse reads a string table from a decompressed block.
//
// Parsing stops at the first entry whose record or text would run past the
// end of data; the entries read up to that point are returned and the table
// is marked Truncated. Invalid UTF-8 is replaced with U+FFFD.
func Parse(data []byte) (*Table, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortTable, len(data))
	}

	count := int(binary.LittleEndian.Uint32(data[0:4]))
	end := HeaderEnd(count)
	if end > len(data) {
		return nil, fmt.Errorf("%w: prefix for %d entries needs %d bytes, have %d", ErrShortTable, count, end, len(data))
	}

	t := &Table{
		Prefix:   append([]byte(nil), data[:end]...),
		Declared: count,
		Entries:  make([]Entry, 0, min(count, (len(data)-end)/EntrySize)),
	}

	dec := unicode.UTF8.NewDecoder()
	for i := 0; i < count; i++ {
		pos := end + i*EntrySize
		if pos+EntrySize > len(data) {
			t.Truncated = true
			break
		}

		var e Entry
		copy(e.ID[:], data[pos:pos+8])
		e.Offset = binary.LittleEndian.Uint32(data[pos+8 : pos+12])
		e.Length = binary.LittleEndian.Uint32(data[pos+12 : pos+16])

		textPos := pos + AnchorOffset + int(e.Offset)
		textEnd := textPos + int(e.Length)
		if textEnd > len(data) {
			t.Truncated = true
			break
		}

		text, err := decodeText(dec, data[textPos:textEnd])
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		e.Text = text
		t.Entries = append(t.Entries, e)
	}

	return t, nil
}

func decodeText(dec *encoding.Decoder, b []byte) (string, error) {
	if utf8.Valid(b) {
		return string(b), nil
	}
	out, err := dec.Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decoding text: %w", err)
	}
	return string(out), nil
}

// Rebuild returns the table with replacement texts applied.
// It fails with ErrEntryCountMismatch if the table is truncated.
func (t *Table) Rebuild(replacements map[string]string) ([]byte, error) {
	return Rebuild(t.Prefix, t.Entries, replacements)
}

// Rebuild writes a string table from a preserved prefix and its entries.
//
// Each entry keeps its id and position. Its text is replacements[id] when
// present and its original Text otherwise. Texts are laid out in table order
// directly after the entry records, and every offset and length is recomputed.
func Rebuild(prefix []byte, entries []Entry, replacements map[string]string) ([]byte, error) {
	if len(prefix) < 4 {
		return nil, fmt.Errorf("%w: prefix is %d bytes", ErrShortTable, len(prefix))
	}
	count := int(binary.LittleEndian.Uint32(prefix[0:4]))
	if HeaderEnd(count) != len(prefix) {
		return nil, fmt.Errorf("%w: prefix is %d bytes, count %d needs %d", ErrShortTable, len(prefix), count, HeaderEnd(count))
	}
	if len(entries) != count {
		return nil, fmt.Errorf("%w: prefix declares %d, got %d", ErrEntryCountMismatch, count, len(entries))
	}

	texts := make([]string, count)
	blobSize := 0
	for i, e := range entries {
		text := e.Text
		if r, ok := replacements[e.Key()]; ok {
			text = r
		}
		texts[i] = text
		blobSize += len(text)
	}

	tableStart := len(prefix)
	blobStart := tableStart + count*EntrySize
	if uint64(blobStart+blobSize) > math.MaxUint32 {
		return nil, fmt.Errorf("strtable: table of %d bytes exceeds 32-bit offsets", blobStart+blobSize)
	}

	out := make([]byte, blobStart+blobSize)
	copy(out, prefix)

	textPos := blobStart
	for i, e := range entries {
		pos := tableStart + i*EntrySize
		copy(out[pos:pos+8], e.ID[:])
		binary.LittleEndian.PutUint32(out[pos+8:pos+12], uint32(textPos-(pos+AnchorOffset)))
		binary.LittleEndian.PutUint32(out[pos+12:pos+16], uint32(len(texts[i])))
		copy(out[textPos:], texts[i])
		textPos += len(texts[i])
	}

	return out, nil
}

// Replaced returns how many entries have a text in replacements.
func (t *Table) Replaced(replacements map[string]string) int {
	n := 0
	for _, e := range t.Entries {
		if _, ok := replacements[e.Key()]; ok {
			n++
		}
	}
	return n
}
