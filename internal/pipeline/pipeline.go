// Package pipeline runs the request-compute-publish loop of the HSI service.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/shark-hsi-service/internal/domain"
	"github.com/couchcryptid/shark-hsi-service/internal/observability"
)

// Extract and publish failures back off from 200ms, doubling up to 5s.
const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// BatchExtractor reads up to batchSize raw requests from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer turns one raw request into a serialized report.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error)
}

// BatchLoader writes multiple reports to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.OutputEvent) error
}

// Pipeline orchestrates the extract-transform-load loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// Ready reports whether at least one report has been published.
func (p *Pipeline) Ready() bool { return p.ready.Load() }

// CheckReadiness returns nil once the pipeline has published a report,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not published any reports yet")
	}
	return nil
}

// Run executes the batch loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	backoff := initialBackoff
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff) {
			return nil
		}
	}
}

// batchOutcome is the computed form of one extracted batch. Requests that
// could not be computed stay in raws, so their offsets are committed with
// the rest of the batch, but publish nothing.
type batchOutcome struct {
	raws     []domain.RawEvent
	reports  []domain.OutputEvent
	degraded int
	skipped  int
}

// processBatch runs one extract-compute-publish cycle. Returns false if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.RequestsConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = initialBackoff

	batch, ok := p.compute(ctx, rawBatch)
	if !ok {
		return false
	}
	if !p.publish(ctx, batch, backoff) {
		return false
	}
	p.commit(ctx, batch.raws)

	if len(batch.reports) > 0 {
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
		p.ready.Store(true)
	}
	p.logger.Debug("batch settled",
		"requests", len(rawBatch),
		"reports", len(batch.reports),
		"degraded", batch.degraded,
		"skipped", batch.skipped,
	)
	return true
}

// compute builds a report for every request in rawBatch. Requests that fail
// are logged and counted as skipped. Returns false only when ctx is
// done.
func (p *Pipeline) compute(ctx context.Context, rawBatch []domain.RawEvent) (batchOutcome, bool) {
	batch := batchOutcome{
		raws:    rawBatch,
		reports: make([]domain.OutputEvent, 0, len(rawBatch)),
	}
	for _, raw := range rawBatch {
		out, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			if ctx.Err() != nil {
				return batchOutcome{}, false
			}
			p.logger.Warn("request failed, skipping message",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.TransformErrors.Inc()
			batch.skipped++
			continue
		}
		if out.Headers[domain.HeaderDegraded] == "true" {
			batch.degraded++
		}
		batch.reports = append(batch.reports, out)
	}
	return batch, true
}

// publish writes the batch's reports, retrying with backoff until the sink
// accepts them. Report IDs are deterministic, so a retried write that had
// partially landed only produces duplicates downstream can upsert. Returns
// false once ctx is done.
func (p *Pipeline) publish(ctx context.Context, batch batchOutcome, backoff *time.Duration) bool {
	if len(batch.reports) == 0 {
		return true
	}
	for {
		err := p.loader.LoadBatch(ctx, batch.reports)
		if err == nil {
			p.metrics.ReportsProduced.Add(float64(len(batch.reports)))
			*backoff = initialBackoff
			return true
		}
		p.logger.Error("load batch failed", "error", err, "batch_size", len(batch.reports))
		if !p.backoffOrStop(ctx, backoff) {
			return false
		}
	}
}

// commit acknowledges raws in fetch order, skipped requests included. It
// runs only after the reports are published, since committing an offset
// also acknowledges the earlier offsets of its partition.
func (p *Pipeline) commit(ctx context.Context, raws []domain.RawEvent) {
	for _, raw := range raws {
		if raw.Commit == nil {
			continue
		}
		if err := raw.Commit(ctx); err != nil {
			p.logger.Warn("commit offset failed", "error", err,
				"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
		}
	}
}

// backoffOrStop sleeps with the current backoff and advances it. Returns
// false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

func nextBackoff(current, limit time.Duration) time.Duration {
	next := current * 2
	if next > limit {
		return limit
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
