package tsv

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"
)

func TestRead(t *testing.T) {
	in := "ID\tOriginalText\n" +
		"0102030405060708\tHello\n" +
		"AABBCCDDEEFF0011\t#Y[0001]你好#E\n" +
		"1111111111111111\t\n"

	rows, err := Read(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, []Row{
		{ID: "0102030405060708", Text: "Hello"},
		{ID: "aabbccddeeff0011", Text: "#Y[0001]你好#E"},
		{ID: "1111111111111111", Text: ""},
	}, rows)
}

func TestRead_Headers(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		wantErr bool
	}{
		{"original text", "ID\tOriginalText", false},
		{"text", "ID\tText", false},
		{"byte order mark", "\ufeffID\tText", false},
		{"unknown column", "ID\tTranslation", true},
		{"one column", "ID", true},
		{"no header", "0102030405060708\tHello", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.header + "\n"))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMissingHeader)
				return
			}
			require.NoError(t, err)
		})
	}

	_, err := Read(strings.NewReader(""))
	require.ErrorIs(t, err, ErrMissingHeader)
}

func TestRead_MalformedRows(t *testing.T) {
	tests := []struct {
		name string
		row  string
		line string
	}{
		{"short id", "0102\tHello", "line 3"},
		{"non hex id", "zz02030405060708\tHello", "line 3"},
		{"missing text column", "0102030405060708", "line 3"},
		{"extra column", "0102030405060708\tHello\textra", "line 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := "ID\tText\n1111111111111111\tok\n" + tt.row + "\n"
			_, err := Read(strings.NewReader(in))
			require.ErrorIs(t, err, ErrMalformedRow)
			require.Contains(t, err.Error(), tt.line)
		})
	}
}

func TestRead_Normalize(t *testing.T) {
	// "chào" with a combining grave accent.
	decomposed := "cha\u0300o"
	in := "ID\tText\n0102030405060708\t" + decomposed + "\n"

	rows, err := Read(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, decomposed, rows[0].Text)

	rows, err = Read(strings.NewReader(in), WithNormalize(norm.NFC))
	require.NoError(t, err)
	require.Equal(t, "ch\u00e0o", rows[0].Text)
}

func TestWriteRead(t *testing.T) {
	rows := []Row{
		{ID: "0102030405060708", Text: "Xin chào"},
		{ID: "0102030405060709", Text: `say "hi"`},
		{ID: "010203040506070a", Text: "two\nlines"},
		{ID: "010203040506070b", Text: "tab\tinside"},
		{ID: "010203040506070c", Text: ""},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, OriginalTextHeader, rows))
	require.True(t, strings.HasPrefix(buf.String(), "ID\tOriginalText\n"))

	got, err := Read(&buf)
	require.NoError(t, err)
	require.Equal(t, rows, got)
}

func TestToMap(t *testing.T) {
	rows := []Row{
		{ID: "0102030405060708", Text: "first"},
		{ID: "1111111111111111", Text: "other"},
		{ID: "0102030405060708", Text: "second"},
	}

	m, dups := ToMap(rows)
	require.Equal(t, map[string]string{
		"0102030405060708": "first",
		"1111111111111111": "other",
	}, m)
	require.Equal(t, []string{"0102030405060708"}, dups)
}
