package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wordmap/wordmap/internal/container"
	"github.com/wordmap/wordmap/internal/strtable"
)

const testID = "0102030405060708"

// writeArchive writes a two-block archive holding one string table entry.
func writeArchive(t *testing.T, path, text string) {
	t.Helper()

	end := strtable.HeaderEnd(1)
	table := make([]byte, end)
	binary.LittleEndian.PutUint32(table, 1)
	id, err := strtable.ParseID(testID)
	if err != nil {
		t.Fatalf("ParseID() error = %v", err)
	}
	table = append(table, id[:]...)
	table = binary.LittleEndian.AppendUint32(table, uint32(strtable.EntrySize-strtable.AnchorOffset))
	table = binary.LittleEndian.AppendUint32(table, uint32(len(text)))
	table = append(table, text...)

	data, err := container.New().Encode([]container.Block{
		{Type: 4, Data: []byte("sentinel")},
		{Type: 4, Data: table},
	})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, filepath.Join(dir, "zh"), "你好")

	out, err := execute(t, "extract", "zh", "--data-dir", dir, "--out", "zh.tsv")
	if err != nil {
		t.Fatalf("extract error = %v\n%s", err, out)
	}
	got, err := os.ReadFile(filepath.Join(dir, "zh.tsv"))
	if err != nil {
		t.Fatal(err)
	}
	if want := "ID\tOriginalText\n" + testID + "\t你好\n"; string(got) != want {
		t.Errorf("zh.tsv = %q, want %q", got, want)
	}

	tr := "ID\tText\n" + testID + "\tXin chào\n"
	if err := os.WriteFile(filepath.Join(dir, "vi.tsv"), []byte(tr), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err = execute(t, "repack", "zh", "--data-dir", dir, "--translations", "vi.tsv", "--out", "vi")
	if err != nil {
		t.Fatalf("repack error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "Replaced: 1") {
		t.Errorf("repack output = %q", out)
	}

	out, err = execute(t, "extract", "vi", "--data-dir", dir, "--out", "vi_out.tsv")
	if err != nil {
		t.Fatalf("extract error = %v\n%s", err, out)
	}
	got, err = os.ReadFile(filepath.Join(dir, "vi_out.tsv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(got), "Xin chào") {
		t.Errorf("vi_out.tsv = %q", got)
	}

	out, err = execute(t, "verify", "zh", "vi", "--data-dir", dir)
	if err != nil {
		t.Fatalf("verify error = %v\n%s", err, out)
	}

	out, err = execute(t, "stats", "vi", "--data-dir", dir)
	if err != nil {
		t.Fatalf("stats error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "Entries:        1") {
		t.Errorf("stats output = %q", out)
	}

	out, err = execute(t, "unpack", "zh", "--data-dir", dir, "--dir", "work/zh")
	if err != nil {
		t.Fatalf("unpack error = %v\n%s", err, out)
	}
	out, err = execute(t, "pack", "--data-dir", dir, "--dir", "work/zh", "--out", "packed", "--translations", "vi.tsv")
	if err != nil {
		t.Fatalf("pack error = %v\n%s", err, out)
	}

	out, err = execute(t, "ls", "--data-dir", dir)
	if err != nil {
		t.Fatalf("ls error = %v\n%s", err, out)
	}
	for _, name := range []string{"packed", "vi", "work/zh/manifest.json", "zh", "zh.tsv"} {
		if !strings.Contains(out, name+"\n") {
			t.Errorf("ls output missing %s: %q", name, out)
		}
	}
}

func TestVerifyReportsBadArchive(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad"), []byte("not an archive"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "verify", "bad", "--data-dir", dir)
	if err == nil {
		t.Fatal("verify should fail")
	}
	if !strings.Contains(out, "ERROR: bad") {
		t.Errorf("verify output = %q", out)
	}
}

func TestMetricsFile(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, filepath.Join(dir, "zh"), "hi")
	metrics := filepath.Join(t.TempDir(), "wordmap.prom")

	out, err := execute(t, "stats", "zh", "--data-dir", dir, "--metrics-file", metrics)
	if err != nil {
		t.Fatalf("stats error = %v\n%s", err, out)
	}
	got, err := os.ReadFile(metrics)
	if err != nil {
		t.Fatalf("reading metrics file: %v", err)
	}
	if !strings.Contains(string(got), "wordmap_archives_decoded_total 1") {
		t.Errorf("metrics file = %q", got)
	}

	// Reset for other tests.
	metricsFile = ""
}
