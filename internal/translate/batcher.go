package translate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/wordmap/wordmap/internal/stats"
	"github.com/wordmap/wordmap/internal/tsv"
)

// Batcher runs a translation pass over a translation map.
type Batcher struct {
	translator Translator
	cfg        Config
	backoff    Backoff
	limiter    *rate.Limiter
	stats      stats.Collector
	logger     *zap.Logger
}

// Option configures a Batcher.
type Option func(*Batcher)

// WithBackoff sets the retry policy. The default is three attempts with
// exponential waits from 2s.
func WithBackoff(b Backoff) Option {
	return func(bt *Batcher) { bt.backoff = b }
}

// WithStats sets the stats collector.
func WithStats(c stats.Collector) Option {
	return func(bt *Batcher) { bt.stats = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(bt *Batcher) { bt.logger = l }
}

// NewBatcher returns a Batcher that sends at most one request per
// cfg.Interval.
func NewBatcher(t Translator, cfg Config, opts ...Option) (*Batcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	limit := rate.Inf
	if cfg.Interval > 0 {
		limit = rate.Every(cfg.Interval)
	}

	b := &Batcher{
		translator: t,
		cfg:        cfg,
		backoff:    ExponentialBackoff(3, 2*time.Second, 30*time.Second),
		limiter:    rate.NewLimiter(limit, 1),
		stats:      stats.NewNoop(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.backoff.Attempts < 1 {
		b.backoff.Attempts = 1
	}

	return b, nil
}

// Result is the outcome of a run.
type Result struct {
	// Translations holds the existing translations merged with the new ones.
	Translations map[string]string
	// Succeeded and Failed count rows sent in this run.
	Succeeded int
	Failed    int
	// Remaining counts rows that still need a translation after the run,
	// including rows beyond this run's cap.
	Remaining int
}

// Rows orders the translations: ids from source first, in source order,
// then any other ids sorted.
func (r *Result) Rows(source []tsv.Row) []tsv.Row {
	rows := make([]tsv.Row, 0, len(r.Translations))
	seen := make(map[string]struct{}, len(r.Translations))
	for _, s := range source {
		text, ok := r.Translations[s.ID]
		if !ok {
			continue
		}
		if _, dup := seen[s.ID]; dup {
			continue
		}
		seen[s.ID] = struct{}{}
		rows = append(rows, tsv.Row{ID: s.ID, Text: text})
	}

	var rest []string
	for id := range r.Translations {
		if _, ok := seen[id]; !ok {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	for _, id := range rest {
		rows = append(rows, tsv.Row{ID: id, Text: r.Translations[id]})
	}
	return rows
}

// Run translates source rows that are not in existing and have non-blank
// text, at most BatchSize*MaxBatches of them. A batch that still fails
// after all attempts is skipped; its ids stay untranslated and keep their
// original text on repack.
//
// If ctx is canceled the translations gathered so far are returned along
// with the context error.
func (b *Batcher) Run(ctx context.Context, source []tsv.Row, existing map[string]string) (*Result, error) {
	res := &Result{Translations: make(map[string]string, len(existing)+len(source))}
	for id, text := range existing {
		res.Translations[id] = text
	}

	var pending []tsv.Row
	queued := make(map[string]struct{})
	for _, r := range source {
		if _, ok := existing[r.ID]; ok || strings.TrimSpace(r.Text) == "" {
			continue
		}
		if _, ok := queued[r.ID]; ok {
			continue
		}
		queued[r.ID] = struct{}{}
		pending = append(pending, r)
	}

	if len(pending) == 0 {
		b.logger.Info("all rows already translated", zap.Int("existing", len(existing)))
		return res, nil
	}

	todo := pending
	if limit := b.cfg.BatchSize * b.cfg.MaxBatches; len(todo) > limit {
		b.logger.Info("limiting run to quota",
			zap.Int("pending", len(todo)),
			zap.Int("rows", limit),
			zap.Int("batches", b.cfg.MaxBatches),
		)
		todo = todo[:limit]
	}

	total := (len(todo) + b.cfg.BatchSize - 1) / b.cfg.BatchSize
	for n, start := 1, 0; start < len(todo); n, start = n+1, start+b.cfg.BatchSize {
		batch := todo[start:min(start+b.cfg.BatchSize, len(todo))]
		texts := make([]string, len(batch))
		for i, r := range batch {
			texts[i] = r.Text
		}

		out, err := b.translate(ctx, texts)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				res.Remaining = b.remaining(pending, res)
				return res, ctxErr
			}
			res.Failed += len(batch)
			b.stats.IncCounter(stats.MetricBatchesFailed, 1)
			b.logger.Warn("batch failed, skipping",
				zap.Int("batch", n),
				zap.Int("batches", total),
				zap.Error(err),
			)
			continue
		}

		for i, r := range batch {
			res.Translations[r.ID] = out[i]
		}
		res.Succeeded += len(batch)
		b.stats.IncCounter(stats.MetricBatchesTranslated, 1)
		b.logger.Info("batch translated",
			zap.Int("batch", n),
			zap.Int("batches", total),
			zap.Int("rows", len(batch)),
		)
	}

	res.Remaining = b.remaining(pending, res)
	return res, nil
}

// translate sends one batch, retrying per the backoff policy.
func (b *Batcher) translate(ctx context.Context, texts []string) ([]string, error) {
	var lastErr error
	for attempt := 1; attempt <= b.backoff.Attempts; attempt++ {
		if attempt > 1 && b.backoff.Delay != nil {
			if err := sleep(ctx, b.backoff.Delay(attempt-1)); err != nil {
				return nil, err
			}
		}
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		out, err := b.translator.TranslateBatch(ctx, texts)
		if err == nil && len(out) < len(texts) {
			err = fmt.Errorf("%w: got %d, want %d", ErrShortReply, len(out), len(texts))
		}
		if err == nil {
			return out[:len(texts)], nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}

		lastErr = err
		b.logger.Debug("translation attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("attempts", b.backoff.Attempts),
			zap.Error(err),
		)
	}
	return nil, lastErr
}

func (b *Batcher) remaining(pending []tsv.Row, res *Result) int {
	n := 0
	for _, r := range pending {
		if _, ok := res.Translations[r.ID]; !ok {
			n++
		}
	}
	return n
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
