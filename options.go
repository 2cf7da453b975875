package wordmap

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/wordmap/wordmap/internal/codec"
	"github.com/wordmap/wordmap/internal/codec/zstdcodec"
	"github.com/wordmap/wordmap/internal/stats"
	"github.com/wordmap/wordmap/internal/store"
	"github.com/wordmap/wordmap/internal/store/diskstore"
)

// Option configures a Client.
type Option interface {
	apply(*options)
}

// options holds the client configuration.
type options struct {
	store     store.Store
	workers   int
	level     int
	normalize *norm.Form
	stats     stats.Collector
	logger    *zap.Logger
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		workers: 1,
		stats:   stats.NewNoop(),
		logger:  zap.NewNop(),
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// newRegistry returns the block codecs a client can read and write.
func newRegistry(opts ...zstdcodec.Option) *codec.Registry {
	return codec.NewRegistry(zstdcodec.New(opts...))
}

// WithStore sets the storage backend used by the store-backed operations.
func WithStore(s store.Store) Option {
	return optionFunc(func(o *options) {
		o.store = s
	})
}

// WithWorkers sets how many blocks are compressed or decompressed in
// parallel. Default is 1.
func WithWorkers(n int) Option {
	return optionFunc(func(o *options) {
		if n > 0 {
			o.workers = n
		}
	})
}

// WithCompressionLevel sets the zstd level (1-22) used when encoding.
// If not set, the encoder default is used.
func WithCompressionLevel(level int) Option {
	return optionFunc(func(o *options) {
		o.level = level
	})
}

// WithNormalize applies a Unicode normalization form to translations as
// they are loaded.
func WithNormalize(f norm.Form) Option {
	return optionFunc(func(o *options) {
		o.normalize = &f
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		o.stats = c
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}

// WithDataDir stores archives and translation maps in a local directory.
// The directory must exist.
func WithDataDir(dir string) (Option, error) {
	st, err := diskstore.New(dir)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	return WithStore(st), nil
}
