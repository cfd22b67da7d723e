package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/shark-hsi-service/internal/config"
	"github.com/couchcryptid/shark-hsi-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

const defaultFlushInterval = 500 * time.Millisecond

// Reader consumes HSI requests from a Kafka topic as part of a consumer group.
// It implements pipeline.BatchExtractor. Offsets are committed explicitly
// through RawEvent.Commit once a request has been handled.
type Reader struct {
	reader        *kafkago.Reader
	logger        *slog.Logger
	flushInterval time.Duration
}

// NewReader creates a Kafka consumer for the configured source topic.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		GroupID:  cfg.KafkaGroupID,
		Topic:    cfg.KafkaSourceTopic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	flush := cfg.BatchFlushInterval
	if flush <= 0 {
		flush = defaultFlushInterval
	}
	return &Reader{reader: r, logger: logger, flushInterval: flush}
}

// ExtractBatch fetches up to batchSize messages, returning early with what it
// has once the flush interval elapses. An empty batch with a nil error means
// no message arrived in time.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error) {
	batchCtx, cancel := context.WithTimeout(ctx, r.flushInterval)
	defer cancel()

	events := make([]domain.RawEvent, 0, batchSize)
	for len(events) < batchSize {
		msg, err := r.reader.FetchMessage(batchCtx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				break
			}
			if len(events) > 0 {
				r.logger.Warn("fetch message failed, flushing partial batch", "error", err, "batch_size", len(events))
				break
			}
			return nil, fmt.Errorf("fetch message: %w", err)
		}

		raw := mapMessageToRawEvent(msg)
		raw.Commit = func(ctx context.Context) error {
			return r.reader.CommitMessages(ctx, msg)
		}
		events = append(events, raw)
	}
	return events, nil
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

// mapMessageToRawEvent copies a Kafka message into the domain representation.
func mapMessageToRawEvent(msg kafkago.Message) domain.RawEvent {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return domain.RawEvent{
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
	}
}
