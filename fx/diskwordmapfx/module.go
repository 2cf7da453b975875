// Package diskwordmapfx provides an fx module for a disk-backed wordmap client.
package diskwordmapfx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/wordmap/wordmap"
	"github.com/wordmap/wordmap/internal/stats"
	"github.com/wordmap/wordmap/internal/stats/logger"
	"github.com/wordmap/wordmap/internal/store"
	"github.com/wordmap/wordmap/internal/store/cachedstore"
	"github.com/wordmap/wordmap/internal/store/cachedstore/cachestrategy/lru"
	"github.com/wordmap/wordmap/internal/store/cachedstore/memory"
	"github.com/wordmap/wordmap/internal/store/diskstore"
)

// Config holds configuration for the disk-backed wordmap client.
type Config struct {
	// DataDir is the directory holding archives, translation maps and
	// work directories.
	DataDir string

	// CacheSize is the number of objects to cache in memory.
	// Zero disables the cache.
	CacheSize int

	// Workers is the number of blocks compressed or decompressed in
	// parallel. Default is 1.
	Workers int
}

// Module provides a disk-backed wordmap client.
// Requires a Config and a *zap.Logger to be provided.
var Module = fx.Module("diskwordmap",
	fx.Provide(
		newStatsCollector,
		newClient,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("wordmap"))
}

// Params holds dependencies for creating the client.
type Params struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Collector stats.Collector
	Lifecycle fx.Lifecycle
}

// Result holds the provided client.
type Result struct {
	fx.Out

	Client *wordmap.Client
}

func newClient(p Params) (Result, error) {
	disk, err := diskstore.New(p.Config.DataDir)
	if err != nil {
		return Result{}, err
	}

	var st store.Store = disk
	if p.Config.CacheSize > 0 {
		lruStrategy, err := lru.New(p.Config.CacheSize)
		if err != nil {
			_ = disk.Close()
			return Result{}, err
		}
		st = cachedstore.New(disk, memory.New(lruStrategy, p.Collector))
	}

	workers := p.Config.Workers
	if workers <= 0 {
		workers = 1
	}

	client, err := wordmap.New(
		wordmap.WithStore(st),
		wordmap.WithWorkers(workers),
		wordmap.WithStats(p.Collector),
		wordmap.WithLogger(p.Logger.Named("wordmap")),
	)
	if err != nil {
		_ = st.Close()
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return Result{Client: client}, nil
}
