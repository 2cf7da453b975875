package workdir

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// ManifestVersion is written to every new manifest.
const ManifestVersion = 1

// ManifestFilename is the manifest's name inside a work directory.
const ManifestFilename = "manifest.json"

// Manifest describes the blocks dumped from one archive.
type Manifest struct {
	Version     int         `json:"version"`
	Archive     string      `json:"archive"`
	Compression string      `json:"compression"`
	Blocks      []BlockFile `json:"blocks"`
	BuiltAt     time.Time   `json:"built_at"`
}

// BlockFile is one dumped block.
type BlockFile struct {
	File     string `json:"file"`
	Type     byte   `json:"type"`
	Size     int    `json:"size"`
	Checksum string `json:"xxhash"`
}

// Checksum returns the hex xxhash64 of data.
func Checksum(data []byte) string {
	return strconv.FormatUint(xxhash.Sum64(data), 16)
}

// BlockFilename returns the file name of block i of an archive.
func BlockFilename(archive string, i int) string {
	return fmt.Sprintf("%s_%d.dat", archive, i)
}

func marshalManifest(m *Manifest) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling manifest: %w", err)
	}
	return data, nil
}

func unmarshalManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if m.Version != ManifestVersion {
		return nil, fmt.Errorf("%w: version %d", ErrBadManifest, m.Version)
	}
	if len(m.Blocks) == 0 {
		return nil, fmt.Errorf("%w: no blocks", ErrBadManifest)
	}
	return &m, nil
}
