//go:build e2e

package wordmap_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/wordmap/wordmap"
	"github.com/wordmap/wordmap/internal/container"
	"github.com/wordmap/wordmap/internal/store/diskstore"
	"github.com/wordmap/wordmap/internal/strtable"
)

// sampleArchive returns the path of a real archive, from WORDMAP_SAMPLE or
// testdata/.
func sampleArchive(t *testing.T) string {
	t.Helper()
	path := os.Getenv("WORDMAP_SAMPLE")
	if path == "" {
		path = filepath.Join("testdata", "translate_words_map_zh")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skipf("Skipping: %s not found", path)
	}
	return path
}

func TestE2E_RealArchive(t *testing.T) {
	path := sampleArchive(t)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Error reading sample: %v", err)
	}

	tmpDir := t.TempDir()
	st, err := diskstore.New(tmpDir)
	if err != nil {
		t.Fatalf("Error opening store: %v", err)
	}
	client, err := wordmap.New(wordmap.WithStore(st), wordmap.WithWorkers(4))
	if err != nil {
		t.Fatalf("Error creating client: %v", err)
	}
	defer client.Close()

	ctx := context.Background()

	// Step 1: Extract
	start := time.Now()
	ex, err := client.Extract(ctx, data)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	t.Logf("Extracted %d entries from %d tables in %v", ex.Entries(), len(ex.Tables), time.Since(start))
	for _, d := range ex.Diagnostics {
		t.Logf("   warning: %s", d)
	}
	if ex.Entries() == 0 {
		t.Fatal("sample archive holds no entries")
	}

	// Step 2: Round trip
	start = time.Now()
	report, err := client.Verify(ctx, data)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	t.Logf("Verified %d blocks, %d entries in %v", report.Blocks, report.Entries, time.Since(start))

	// Step 3: Repack with every text replaced
	translations := make(map[string]string)
	for id, text := range ex.Strings() {
		translations[id] = "[vi] " + text
	}
	if err := st.Write(ctx, "zh", data); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	rep, err := client.RepackArchive(ctx, "zh", "vi", translations)
	if err != nil {
		t.Fatalf("RepackArchive() error = %v", err)
	}
	if rep.Replaced != ex.Entries() {
		t.Errorf("Replaced = %d, want %d", rep.Replaced, ex.Entries())
	}

	again, err := client.ExtractArchive(ctx, "vi")
	if err != nil {
		t.Fatalf("ExtractArchive() error = %v", err)
	}
	got := again.Strings()
	for id, want := range translations {
		if got[id] != want {
			t.Fatalf("entry %s = %q, want %q", id, got[id], want)
		}
	}
}

// TestE2E_TextAnchor checks on a real archive that entry texts are located
// at entry_pos + 12 + rel: the first text starts right after the entry
// table, every text starts where the previous one ends, and all texts are
// valid UTF-8 inside their block.
func TestE2E_TextAnchor(t *testing.T) {
	data, err := os.ReadFile(sampleArchive(t))
	if err != nil {
		t.Fatalf("Error reading sample: %v", err)
	}

	blocks, err := container.New().Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	for bi := 1; bi < len(blocks); bi++ {
		block := blocks[bi].Data
		tbl, err := strtable.Parse(block)
		if err != nil {
			t.Fatalf("block %d: Parse() error = %v", bi, err)
		}
		if tbl.Truncated {
			t.Logf("   block %d: truncated entry table, skipped", bi)
			continue
		}

		entriesStart := strtable.HeaderEnd(tbl.Declared)
		want := entriesStart + tbl.Declared*strtable.EntrySize
		for j, e := range tbl.Entries {
			pos := entriesStart + j*strtable.EntrySize
			start := pos + strtable.AnchorOffset + int(e.Offset)
			if start != want {
				t.Fatalf("block %d entry %d (%s): text at %d, want %d; anchor entry_pos+%d does not match this archive",
					bi, j, e.Key(), start, want, strtable.AnchorOffset)
			}
			end := start + int(e.Length)
			if end > len(block) {
				t.Fatalf("block %d entry %d (%s): text [%d, %d) past block end %d with anchor entry_pos+%d",
					bi, j, e.Key(), start, end, len(block), strtable.AnchorOffset)
			}
			if !utf8.Valid(block[start:end]) || strings.ContainsRune(e.Text, utf8.RuneError) {
				t.Fatalf("block %d entry %d (%s): text is not valid UTF-8 with anchor entry_pos+%d",
					bi, j, e.Key(), strtable.AnchorOffset)
			}
			want = end
		}
	}
}
