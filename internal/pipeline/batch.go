package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/locshare/internal/model"
)

// DefaultConcurrency is the number of lookups run at once unless
// WithConcurrency says otherwise.
const DefaultConcurrency = 2

// BatchProcessor looks up several names concurrently.
// It uses errgroup to manage goroutines and respect the concurrency limit.
//
// Each name gets a pipeline of its own from the factory, so lookups never
// share a login session or cookies.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each name.
	pipelineFactory func() *Pipeline

	// newID returns the id of each lookup.
	newID func() string

	// concurrency is the maximum number of concurrent lookups.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent lookups.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithIDGenerator replaces the random UUID lookup ids.
func WithIDGenerator(newID func() string) BatchOption {
	return func(b *BatchProcessor) {
		if newID != nil {
			b.newID = newID
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The pipelineFactory function is called for each name to create a fresh
// pipeline instance.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		newID:           uuid.NewString,
		concurrency:     DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch looks up every name and returns the lookups in input order.
//
// A failed lookup does not stop the others; its error is recorded on the
// lookup. The returned error is only set when ctx was cancelled, in which
// case names that never started are reported as lookups failed with the
// context error.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, names []string) ([]*model.Lookup, error) {
	results := make([]*model.Lookup, len(names))
	err := bp.ProcessBatchWithCallback(ctx, names, func(lookup *model.Lookup, index int) {
		results[index] = lookup
	})
	return results, err
}

// ProcessBatchWithCallback looks up every name and calls callback with each
// finished lookup and the index of its name.
//
// The callback is called from the goroutine that ran the lookup, so it must
// be safe for concurrent use when it touches shared state. Distinct indexes
// never race.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	names []string,
	callback func(lookup *model.Lookup, index int),
) error {
	bp.logger.Debug("starting batch",
		"total", len(names),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, name := range names {
		g.Go(func() error {
			lookup := model.NewLookup(bp.newID(), name)

			select {
			case <-gctx.Done():
				lookup.Fail(gctx.Err())
				lookup.FinishedAt = time.Now()
				callback(lookup, i)
				return gctx.Err()
			default:
			}

			p := bp.pipelineFactory()
			if err := p.Execute(gctx, lookup); err != nil {
				bp.logger.Debug("lookup failed",
					"lookup_id", lookup.ID,
					"index", i+1,
					"total", len(names),
					"error", err,
				)
			}

			callback(lookup, i)

			// Failures stay on the lookup so the other names keep going.
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Debug("batch complete",
		"total", len(names),
		"elapsed", time.Since(startTime),
	)

	if err == nil {
		err = ctx.Err()
	}
	return err
}
