// Package wordmap extracts the strings of a game's word-map archive for
// translation and repacks the archive with translated strings.
//
// An archive is a container of independently zstd-compressed blocks. The
// first block is an opaque asset carried through unchanged; every other
// block is a string table of id/text entries.
//
// Example usage:
//
//	client, err := wordmap.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	ex, err := client.Extract(ctx, archive)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out, report, err := client.Repack(ctx, ex, map[string]string{
//	    "0102030405060708": "Xin chào",
//	})
package wordmap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/wordmap/wordmap/internal/codec/zstdcodec"
	"github.com/wordmap/wordmap/internal/container"
	"github.com/wordmap/wordmap/internal/stats"
	"github.com/wordmap/wordmap/internal/store"
	"github.com/wordmap/wordmap/internal/strtable"
	"github.com/wordmap/wordmap/internal/tsv"
	"github.com/wordmap/wordmap/internal/workdir"
)

// Sentinel errors for well-defined error conditions.
var (
	// ErrMissingTranslationFile indicates the translation map does not exist.
	ErrMissingTranslationFile = errors.New("wordmap: translation file not found")

	// ErrIncompleteTable indicates a repack of a truncated string table.
	// Rebuilding it would drop the entries that could not be parsed.
	ErrIncompleteTable = errors.New("wordmap: cannot repack truncated string table")

	// ErrNilExtraction indicates Repack was called without an extraction.
	ErrNilExtraction = errors.New("wordmap: nil extraction")

	// ErrClosed indicates the client has been closed.
	ErrClosed = errors.New("wordmap: client closed")

	// ErrNoStore indicates a store-backed operation on a client without one.
	ErrNoStore = errors.New("wordmap: no store provided")
)

// Format errors, re-exported for errors.Is checks.
var (
	ErrBadMagic               = container.ErrBadMagic
	ErrUnsupportedVersion     = container.ErrUnsupportedVersion
	ErrUnsupportedCompression = container.ErrUnsupportedCompression
	ErrSizeMismatch           = container.ErrSizeMismatch
	ErrTruncated              = container.ErrTruncated
	ErrTruncatedEntryTable    = strtable.ErrTruncatedEntryTable
)

// Client extracts and repacks archives.
// A Client is safe for concurrent use by multiple goroutines.
type Client struct {
	store     store.Store
	codec     *container.Codec
	normalize *norm.Form
	stats     stats.Collector
	logger    *zap.Logger
	closed    atomic.Bool
}

// New creates a new Client with the given options.
// If no options are provided, sensible defaults are used.
func New(opts ...Option) (*Client, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	var zopts []zstdcodec.Option
	if cfg.level != 0 {
		zopts = append(zopts, zstdcodec.WithLevel(cfg.level))
	}

	c := &Client{
		store: cfg.store,
		codec: container.New(
			container.WithRegistry(newRegistry(zopts...)),
			container.WithWorkers(cfg.workers),
		),
		normalize: cfg.normalize,
		stats:     cfg.stats,
		logger:    cfg.logger,
	}

	c.logger.Debug("client initialized",
		zap.Int("workers", cfg.workers),
		zap.Int("compressionLevel", cfg.level),
		zap.Bool("hasStore", c.store != nil),
	)

	return c, nil
}

// Extract decodes an archive and parses every string table.
//
// Structural errors abort the extraction. A truncated entry table or an
// id seen in more than one block is recorded as a Diagnostic and logged.
func (c *Client) Extract(ctx context.Context, data []byte) (*Extraction, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	blocks, err := c.codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding archive: %w", err)
	}

	c.stats.IncCounter(stats.MetricArchivesDecoded, 1)
	c.stats.IncCounter(stats.MetricBlocksDecoded, int64(len(blocks)))
	c.stats.ObserveHistogram(stats.MetricArchiveBytes, float64(len(data)))

	return c.extractBlocks(ctx, blocks)
}

// extractBlocks parses blocks[1:] as string tables. An archive holding only
// the sentinel block extracts to no tables.
func (c *Client) extractBlocks(ctx context.Context, blocks []container.Block) (*Extraction, error) {
	if len(blocks) == 0 {
		return nil, container.ErrNoBlocks
	}

	ex := &Extraction{
		Sentinel: blocks[0].Data,
		Tables:   make([]*strtable.Table, 0, len(blocks)-1),
	}

	firstSeen := make(map[string]int)
	for i := 1; i < len(blocks); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		t, err := strtable.Parse(blocks[i].Data)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}

		if t.Truncated {
			ex.Diagnostics = append(ex.Diagnostics, Diagnostic{
				Kind:     TruncatedEntryTable,
				Block:    i,
				Parsed:   len(t.Entries),
				Declared: t.Declared,
			})
			c.stats.IncCounter(stats.MetricTruncatedTables, 1)
			c.logger.Warn("truncated entry table",
				zap.Int("block", i),
				zap.Int("parsed", len(t.Entries)),
				zap.Int("declared", t.Declared),
			)
		}

		for _, e := range t.Entries {
			key := e.Key()
			first, ok := firstSeen[key]
			if !ok {
				firstSeen[key] = i
				continue
			}
			kind := DuplicateIDAcrossBlocks
			if first == i {
				kind = DuplicateIDInTable
			}
			ex.Diagnostics = append(ex.Diagnostics, Diagnostic{
				Kind:       kind,
				Block:      i,
				ID:         key,
				FirstBlock: first,
			})
			c.stats.IncCounter(stats.MetricDuplicateIDs, 1)
			c.logger.Warn("duplicate id",
				zap.Stringer("kind", kind),
				zap.Int("block", i),
				zap.String("id", key),
				zap.Int("firstBlock", first),
			)
		}

		ex.Tables = append(ex.Tables, t)
	}

	c.stats.IncCounter(stats.MetricEntriesExtracted, int64(ex.Entries()))
	c.logger.Debug("archive extracted",
		zap.Int("blocks", len(blocks)),
		zap.Int("entries", ex.Entries()),
		zap.Int("diagnostics", len(ex.Diagnostics)),
	)

	return ex, nil
}

// Repack rebuilds every string table with translations applied and encodes
// a new archive. Ids missing from translations keep their original text.
// The sentinel block is written back unchanged.
func (c *Client) Repack(ctx context.Context, ex *Extraction, translations map[string]string) ([]byte, *RepackReport, error) {
	if c.closed.Load() {
		return nil, nil, ErrClosed
	}
	if ex == nil {
		return nil, nil, ErrNilExtraction
	}

	report := &RepackReport{Blocks: len(ex.Tables) + 1}
	blocks := make([]container.Block, 0, len(ex.Tables)+1)
	blocks = append(blocks, container.Block{Type: zstdcodec.Type, Data: ex.Sentinel})

	matched := make(map[string]struct{}, len(translations))
	for i, t := range ex.Tables {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if t.Truncated {
			return nil, nil, fmt.Errorf("block %d: %w: %w", i+1, ErrIncompleteTable, t.Err())
		}

		data, err := t.Rebuild(translations)
		if err != nil {
			return nil, nil, fmt.Errorf("block %d: %w", i+1, err)
		}
		blocks = append(blocks, container.Block{Type: zstdcodec.Type, Data: data})

		for _, e := range t.Entries {
			if _, ok := translations[e.Key()]; ok {
				matched[e.Key()] = struct{}{}
			}
		}
		report.Replaced += t.Replaced(translations)
	}
	report.Unused = len(translations) - len(matched)

	out, err := c.codec.Encode(blocks)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding archive: %w", err)
	}
	report.Bytes = len(out)

	c.stats.IncCounter(stats.MetricArchivesEncoded, 1)
	c.stats.IncCounter(stats.MetricBlocksEncoded, int64(len(blocks)))
	c.stats.IncCounter(stats.MetricEntriesReplaced, int64(report.Replaced))
	c.stats.ObserveHistogram(stats.MetricArchiveBytes, float64(len(out)))
	c.logger.Debug("archive repacked",
		zap.Int("blocks", report.Blocks),
		zap.Int("replaced", report.Replaced),
		zap.Int("unused", report.Unused),
		zap.Int("bytes", report.Bytes),
	)

	return out, report, nil
}

// ExtractArchive reads the named archive from the store and extracts it.
func (c *Client) ExtractArchive(ctx context.Context, name string) (*Extraction, error) {
	data, err := c.read(ctx, name)
	if err != nil {
		return nil, err
	}
	return c.Extract(ctx, data)
}

// RepackArchive extracts src, applies translations and writes the result
// to dst. Nothing is written unless the whole repack succeeds.
func (c *Client) RepackArchive(ctx context.Context, src, dst string, translations map[string]string) (*RepackReport, error) {
	ex, err := c.ExtractArchive(ctx, src)
	if err != nil {
		return nil, err
	}

	out, report, err := c.Repack(ctx, ex, translations)
	if err != nil {
		return nil, err
	}

	if err := c.store.Write(ctx, dst, out); err != nil {
		return nil, fmt.Errorf("writing %s: %w", dst, err)
	}
	return report, nil
}

// LoadTranslations reads a translation map from the store. A missing file
// is reported as ErrMissingTranslationFile. Duplicate ids keep their first
// text and are logged.
func (c *Client) LoadTranslations(ctx context.Context, name string) (map[string]string, error) {
	data, err := c.read(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrMissingTranslationFile, name)
		}
		return nil, err
	}

	var opts []tsv.ReadOption
	if c.normalize != nil {
		opts = append(opts, tsv.WithNormalize(*c.normalize))
	}
	rows, err := tsv.Read(bytes.NewReader(data), opts...)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}

	m, dups := tsv.ToMap(rows)
	for _, id := range dups {
		c.logger.Warn("duplicate id in translation file",
			zap.String("file", name),
			zap.String("id", id),
		)
	}

	return m, nil
}

// SaveTranslations writes rows as a translation map.
func (c *Client) SaveTranslations(ctx context.Context, name string, rows []tsv.Row) error {
	if c.store == nil {
		return ErrNoStore
	}

	var buf bytes.Buffer
	if err := tsv.Write(&buf, tsv.OriginalTextHeader, rows); err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	if err := c.store.Write(ctx, name, buf.Bytes()); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// Unpack decodes the named archive and dumps its blocks into dir.
func (c *Client) Unpack(ctx context.Context, archive, dir string, progress workdir.ProgressFunc) (*workdir.Manifest, error) {
	data, err := c.read(ctx, archive)
	if err != nil {
		return nil, err
	}

	blocks, err := c.codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding archive: %w", err)
	}
	c.stats.IncCounter(stats.MetricArchivesDecoded, 1)
	c.stats.IncCounter(stats.MetricBlocksDecoded, int64(len(blocks)))

	wd := workdir.New(c.store, dir, workdir.WithProgress(progress), workdir.WithLogger(c.logger))
	return wd.Dump(ctx, path.Base(archive), blocks)
}

// Pack encodes the blocks in dir into a new archive at dst. With a non-nil
// translations map every string table is rebuilt as in Repack; otherwise
// the blocks are packed as they are.
func (c *Client) Pack(ctx context.Context, dir, dst string, translations map[string]string, progress workdir.ProgressFunc) (*RepackReport, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if c.store == nil {
		return nil, ErrNoStore
	}

	wd := workdir.New(c.store, dir, workdir.WithProgress(progress), workdir.WithLogger(c.logger))
	loaded, err := wd.Load(ctx)
	if err != nil {
		return nil, err
	}

	var (
		out    []byte
		report *RepackReport
	)
	if translations != nil {
		ex, err := c.extractBlocks(ctx, loaded.Blocks)
		if err != nil {
			return nil, err
		}
		out, report, err = c.Repack(ctx, ex, translations)
		if err != nil {
			return nil, err
		}
	} else {
		out, err = c.codec.Encode(loaded.Blocks)
		if err != nil {
			return nil, fmt.Errorf("encoding archive: %w", err)
		}
		report = &RepackReport{Blocks: len(loaded.Blocks), Bytes: len(out)}
		c.stats.IncCounter(stats.MetricArchivesEncoded, 1)
		c.stats.IncCounter(stats.MetricBlocksEncoded, int64(len(loaded.Blocks)))
	}

	if err := c.store.Write(ctx, dst, out); err != nil {
		return nil, fmt.Errorf("writing %s: %w", dst, err)
	}
	return report, nil
}

// Close releases all resources associated with the client.
// After Close, the client should not be used.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	if c.store != nil {
		if err := c.store.Close(); err != nil {
			return fmt.Errorf("closing store: %w", err)
		}
	}

	return nil
}

// Store returns the storage backend used by this client, or nil.
func (c *Client) Store() store.Store {
	return c.store
}

// read fetches an object from the store.
func (c *Client) read(ctx context.Context, name string) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if c.store == nil {
		return nil, ErrNoStore
	}
	data, err := c.store.Read(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}
