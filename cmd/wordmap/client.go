package main

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wordmap/wordmap"
	"github.com/wordmap/wordmap/internal/stats"
	"github.com/wordmap/wordmap/internal/stats/logger"
	promstats "github.com/wordmap/wordmap/internal/stats/prometheus"
	"github.com/wordmap/wordmap/internal/store"
	"github.com/wordmap/wordmap/internal/store/cachedstore"
	"github.com/wordmap/wordmap/internal/store/cachedstore/cachestrategy/lru"
	"github.com/wordmap/wordmap/internal/store/cachedstore/memory"
	"github.com/wordmap/wordmap/internal/store/diskstore"
	"github.com/wordmap/wordmap/internal/store/gcsstore"
	"github.com/wordmap/wordmap/internal/store/s3store"
	"github.com/wordmap/wordmap/internal/workdir"
)

// registry collects metrics for --metrics-file. It is nil when the flag is
// not set.
var registry *prometheus.Registry

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.DisableStacktrace = true
	return cfg.Build()
}

func newCollector(log *zap.Logger) stats.Collector {
	if metricsFile == "" {
		return logger.New(log)
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	return promstats.New(registry)
}

// openStore returns the store selected by --remote, or a disk store rooted
// at --data-dir. Reads are cached when --cache-size is positive.
func openStore(ctx context.Context, collector stats.Collector) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	if remote != "" {
		loc, perr := store.ParseLocation(remote)
		if perr != nil {
			return nil, perr
		}
		switch loc.Scheme {
		case "s3":
			st, err = s3store.New(ctx, loc.Bucket, s3store.WithPrefix(loc.Prefix))
		case "gs":
			st, err = gcsstore.New(ctx, loc.Bucket, gcsstore.WithPrefix(loc.Prefix))
		}
	} else {
		st, err = diskstore.New(dataDir)
	}
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	if cacheSize <= 0 {
		return st, nil
	}
	lruStrategy, err := lru.New(cacheSize)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("creating LRU strategy: %w", err)
	}
	return cachedstore.New(st, memory.New(lruStrategy, collector)), nil
}

// newClient builds a store-backed client from the global flags.
func newClient(ctx context.Context) (*wordmap.Client, *zap.Logger, error) {
	log, err := newLogger()
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}
	collector := newCollector(log)

	st, err := openStore(ctx, collector)
	if err != nil {
		return nil, nil, err
	}

	client, err := wordmap.New(
		wordmap.WithStore(st),
		wordmap.WithWorkers(workers),
		wordmap.WithStats(collector),
		wordmap.WithLogger(log),
	)
	if err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("creating client: %w", err)
	}
	return client, log, nil
}

func runWriteMetrics(cmd *cobra.Command, args []string) error {
	if metricsFile == "" || registry == nil {
		return nil
	}
	return promstats.WriteTextfile(metricsFile, registry)
}

func printDiagnostics(w io.Writer, diags []wordmap.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintf(w, "warning: %s\n", d)
	}
}

func formatBytes(n int) string {
	return workdir.FormatBytes(int64(n))
}
