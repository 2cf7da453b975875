// Package memorywordmapfx provides an fx module for an in-memory wordmap client.
// Useful for testing.
package memorywordmapfx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/wordmap/wordmap"
	"github.com/wordmap/wordmap/internal/stats"
	"github.com/wordmap/wordmap/internal/stats/logger"
	"github.com/wordmap/wordmap/internal/store/memstore"
)

// Module provides an in-memory wordmap client and its store for testing.
// Requires a *zap.Logger to be provided.
var Module = fx.Module("memorywordmap",
	fx.Provide(
		newStatsCollector,
		memstore.New,
		newClient,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("wordmap"))
}

// Params holds dependencies for creating the client.
type Params struct {
	fx.In

	Logger    *zap.Logger
	Collector stats.Collector
	Store     *memstore.Store // seeded by tests through Set
	Lifecycle fx.Lifecycle
}

func newClient(p Params) (*wordmap.Client, error) {
	client, err := wordmap.New(
		wordmap.WithStore(p.Store),
		wordmap.WithStats(p.Collector),
		wordmap.WithLogger(p.Logger.Named("wordmap")),
	)
	if err != nil {
		return nil, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return client, nil
}
