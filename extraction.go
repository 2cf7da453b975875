package wordmap

import (
	"fmt"

	"github.com/wordmap/wordmap/internal/strtable"
	"github.com/wordmap/wordmap/internal/tsv"
)

// DiagnosticKind classifies a non-fatal problem found during extraction.
type DiagnosticKind int

const (
	// TruncatedEntryTable means a string table declared more entries than
	// its block holds. The entries before the cut are still extracted.
	TruncatedEntryTable DiagnosticKind = iota + 1

	// DuplicateIDAcrossBlocks means an id appeared in more than one block.
	// The first occurrence is the one exposed by Strings and Rows.
	DuplicateIDAcrossBlocks

	// DuplicateIDInTable means an id appeared twice in the same table.
	// The first occurrence wins here too.
	DuplicateIDInTable
)

// String returns the kind's name.
func (k DiagnosticKind) String() string {
	switch k {
	case TruncatedEntryTable:
		return "TruncatedEntryTable"
	case DuplicateIDAcrossBlocks:
		return "DuplicateIdAcrossBlocks"
	case DuplicateIDInTable:
		return "DuplicateIdInTable"
	default:
		return fmt.Sprintf("DiagnosticKind(%d)", int(k))
	}
}

// Diagnostic is a non-fatal problem found during extraction.
type Diagnostic struct {
	Kind DiagnosticKind
	// Block is the archive block the problem was found in.
	Block int
	// ID is set for duplicate ids.
	ID string
	// FirstBlock is the block an id was first seen in, for duplicates.
	FirstBlock int
	// Parsed and Declared are entry counts, for truncated tables.
	Parsed   int
	Declared int
}

// String formats the diagnostic for display.
func (d Diagnostic) String() string {
	switch d.Kind {
	case TruncatedEntryTable:
		return fmt.Sprintf("block %d: truncated entry table, parsed %d of %d entries", d.Block, d.Parsed, d.Declared)
	case DuplicateIDAcrossBlocks:
		return fmt.Sprintf("block %d: id %s already seen in block %d", d.Block, d.ID, d.FirstBlock)
	case DuplicateIDInTable:
		return fmt.Sprintf("block %d: id %s repeated within the table", d.Block, d.ID)
	default:
		return fmt.Sprintf("block %d: %s", d.Block, d.Kind)
	}
}

// Extraction is an archive split into its sentinel asset and string tables.
// Tables[i] is the string table of archive block i+1.
type Extraction struct {
	Sentinel    []byte
	Tables      []*strtable.Table
	Diagnostics []Diagnostic
}

// Strings merges every table into one id to text map.
// The first occurrence of an id wins.
func (e *Extraction) Strings() map[string]string {
	m := make(map[string]string, e.Entries())
	for _, t := range e.Tables {
		for _, entry := range t.Entries {
			key := entry.Key()
			if _, ok := m[key]; !ok {
				m[key] = entry.Text
			}
		}
	}
	return m
}

// Rows returns one row per distinct id, in block and table order.
func (e *Extraction) Rows() []tsv.Row {
	seen := make(map[string]struct{}, e.Entries())
	rows := make([]tsv.Row, 0, e.Entries())
	for _, t := range e.Tables {
		for _, entry := range t.Entries {
			key := entry.Key()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			rows = append(rows, tsv.Row{ID: key, Text: entry.Text})
		}
	}
	return rows
}

// Entries returns the number of parsed entries across all tables.
func (e *Extraction) Entries() int {
	n := 0
	for _, t := range e.Tables {
		n += len(t.Entries)
	}
	return n
}

// Truncated reports whether any table is truncated.
func (e *Extraction) Truncated() bool {
	for _, t := range e.Tables {
		if t.Truncated {
			return true
		}
	}
	return false
}

// RepackReport summarizes a repack.
type RepackReport struct {
	// Blocks is the number of blocks written, sentinel included.
	Blocks int
	// Replaced counts entries whose text came from the translation map.
	Replaced int
	// Unused counts translation ids that matched no entry.
	Unused int
	// Bytes is the size of the written archive.
	Bytes int
}
