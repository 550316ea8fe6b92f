package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/phishscan/internal/model"
	"golang.org/x/sync/errgroup"
)

// BatchProcessor analyzes many snapshots concurrently.
// Every snapshot gets its own session, numbered as tab 1..n in input order,
// so results never mix even though the sessions share the pipeline.
//
// Design decision: We use a separate BatchProcessor rather than adding batch
// functionality to Pipeline because:
// 1. It keeps the Pipeline focused on single-session execution
// 2. It allows different batch strategies (e.g., rate limiting)
// 3. It provides cleaner separation of concerns
type BatchProcessor struct {
	// pipelineFactory creates the pipeline for each session.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of concurrent sessions.
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

// WithConcurrency sets the maximum number of concurrent sessions.
// Default is 4 if not specified. The classifier rate-limits clients, so a
// large value mostly produces rate-limit failures.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
// The pipelineFactory function is called for each session.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     4,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// newBatchSession opens the session of the snapshot at index i.
func newBatchSession(i int, snapshot model.Snapshot) (*model.Session, error) {
	session := model.NewSession(i+1, fmt.Sprintf("batch-%d", i+1))
	if err := session.Transition(model.StateAwaitingSnapshot); err != nil {
		return nil, err
	}
	session.SetSnapshot(snapshot.Normalize())
	return session, nil
}

// ProcessBatch analyzes the snapshots concurrently and returns their
// sessions in input order.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
//
// Returns every session, including failed ones (their error is recorded in
// the session). The error return is non-nil only when the batch was
// cancelled; sessions that never started are nil.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, snapshots []model.Snapshot) ([]*model.Session, error) {
	bp.logger.Info("starting batch processing",
		"total", len(snapshots),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()
	results := make([]*model.Session, len(snapshots))

	err := bp.run(ctx, snapshots, func(session *model.Session, index int) {
		// Each goroutine writes its own index.
		results[index] = session
	})

	bp.logger.Info("batch processing complete",
		"total", len(snapshots),
		"elapsed", time.Since(startTime),
	)

	return results, err
}

// ProcessBatchWithCallback analyzes the snapshots and calls callback for each
// finished session. The callback is called from the goroutine that finished
// the session, so it must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	snapshots []model.Snapshot,
	callback func(session *model.Session, index int),
) error {
	return bp.run(ctx, snapshots, callback)
}

func (bp *BatchProcessor) run(
	ctx context.Context,
	snapshots []model.Snapshot,
	callback func(session *model.Session, index int),
) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, snapshot := range snapshots {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			session, err := newBatchSession(i, snapshot)
			if err != nil {
				return err
			}

			bp.logger.Debug("analyzing snapshot",
				"url", snapshot.URL,
				"index", i+1,
				"total", len(snapshots),
			)

			if err := bp.pipelineFactory().Execute(ctx, session); err != nil {
				// Recorded in the session; other snapshots go on.
				bp.logger.Warn("analysis failed",
					"url", snapshot.URL,
					"error", err,
				)
			}

			callback(session, i)
			return nil
		})
	}

	return g.Wait()
}
