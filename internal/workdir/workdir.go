// Package workdir dumps the blocks of an archive to individual files and
// packs them back, so blocks can be inspected or edited by hand between
// the two steps.
//
// A work directory holds <archive>_<i>.dat for every block i plus a
// manifest.json recording each block's type, size and checksum.
package workdir

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/wordmap/wordmap/internal/container"
	"github.com/wordmap/wordmap/internal/store"
)

// ErrBadManifest is returned when a manifest cannot be used to pack.
var ErrBadManifest = errors.New("workdir: bad manifest")

// Dir is a work directory inside a store.
type Dir struct {
	store    store.Store
	dir      string
	progress ProgressFunc
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures a Dir.
type Option func(*Dir)

// WithProgress sets the progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(d *Dir) { d.progress = fn }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dir) { d.logger = l }
}

// New returns the work directory dir within st.
func New(st store.Store, dir string, opts ...Option) *Dir {
	d := &Dir{
		store:  st,
		dir:    dir,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Loaded is the result of reading a work directory back.
type Loaded struct {
	Manifest *Manifest
	Blocks   []container.Block
	// Changed lists blocks whose content no longer matches the manifest.
	Changed []int
}

// Dump writes every block and then the manifest. The manifest is written
// last so a partially dumped directory cannot be packed.
func (d *Dir) Dump(ctx context.Context, archive string, blocks []container.Block) (*Manifest, error) {
	start := d.now()
	m := &Manifest{
		Version:     ManifestVersion,
		Archive:     archive,
		Compression: "zstd",
		Blocks:      make([]BlockFile, len(blocks)),
		BuiltAt:     start.UTC(),
	}

	var written int64
	for i, b := range blocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := BlockFilename(path.Base(archive), i)
		if err := d.store.Write(ctx, d.path(name), b.Data); err != nil {
			d.report(Progress{Phase: PhaseError, Error: err})
			return nil, fmt.Errorf("writing block %d: %w", i, err)
		}
		m.Blocks[i] = BlockFile{
			File:     name,
			Type:     b.Type,
			Size:     len(b.Data),
			Checksum: Checksum(b.Data),
		}

		written += int64(len(b.Data))
		d.report(Progress{Phase: PhaseUnpack, Blocks: i + 1, BlocksTotal: len(blocks), Bytes: written, StartTime: start})
	}

	data, err := marshalManifest(m)
	if err != nil {
		return nil, err
	}
	if err := d.store.Write(ctx, d.path(ManifestFilename), data); err != nil {
		return nil, fmt.Errorf("writing manifest: %w", err)
	}

	d.logger.Debug("work directory written",
		zap.String("dir", d.dir),
		zap.Int("blocks", len(blocks)),
		zap.Int64("bytes", written),
	)
	d.report(Progress{Phase: PhaseDone, Blocks: len(blocks), BlocksTotal: len(blocks), Bytes: written, StartTime: start})

	return m, nil
}

// Load reads the manifest and its blocks in manifest order.
func (d *Dir) Load(ctx context.Context) (*Loaded, error) {
	start := d.now()

	data, err := d.store.Read(ctx, d.path(ManifestFilename))
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	m, err := unmarshalManifest(data)
	if err != nil {
		return nil, err
	}

	l := &Loaded{
		Manifest: m,
		Blocks:   make([]container.Block, len(m.Blocks)),
	}

	var read int64
	for i, bf := range m.Blocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if bf.File == "" || path.Base(bf.File) != bf.File {
			return nil, fmt.Errorf("%w: block %d has file %q", ErrBadManifest, i, bf.File)
		}
		data, err := d.store.Read(ctx, d.path(bf.File))
		if err != nil {
			d.report(Progress{Phase: PhaseError, Error: err})
			return nil, fmt.Errorf("reading block %d: %w", i, err)
		}

		l.Blocks[i] = container.Block{Type: bf.Type, Data: data}
		if len(data) != bf.Size || Checksum(data) != bf.Checksum {
			l.Changed = append(l.Changed, i)
			d.logger.Info("block changed since unpack",
				zap.Int("block", i),
				zap.String("file", bf.File),
				zap.Int("size", len(data)),
				zap.Int("manifestSize", bf.Size),
			)
		}

		read += int64(len(data))
		d.report(Progress{Phase: PhasePack, Blocks: i + 1, BlocksTotal: len(m.Blocks), Bytes: read, StartTime: start})
	}

	d.report(Progress{Phase: PhaseDone, Blocks: len(m.Blocks), BlocksTotal: len(m.Blocks), Bytes: read, StartTime: start})
	return l, nil
}

func (d *Dir) path(name string) string {
	if d.dir == "" {
		return name
	}
	return path.Join(d.dir, name)
}

func (d *Dir) report(p Progress) {
	if d.progress != nil {
		d.progress(p)
	}
}
