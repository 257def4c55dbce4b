package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// maxHandlerRetries is the number of quick attempts for a transiently
// failing handler within one round of processing.
const maxHandlerRetries = 3

// holdPause is how long the consumer waits between rounds of retries while
// holding a transiently failing message, so a briefly unavailable dependency
// is not hammered. Var so tests can shorten it.
var holdPause = 5 * time.Second

// Handler is a function that processes a Kafka event.
type Handler func(ctx context.Context, event *Event) error

// PermanentError marks a handler failure that redelivery cannot fix, such as
// a semantically invalid payload. The consumer routes these to the dead
// letter topic and commits the offset instead of retrying forever.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return "permanent: " + e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err as a PermanentError.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err is (or wraps) a PermanentError.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// ConsumerConfig holds Kafka consumer configuration.
type ConsumerConfig struct {
	Brokers  []string
	GroupID  string
	Topic    string
	MinBytes int
	MaxBytes int
}

// Consumer wraps the kafka-go reader for consuming events with at-least-once
// semantics: an offset is committed only after the handler succeeds or the
// failure is classified as permanent. A transiently failing message is held
// and retried in place rather than skipped: the reader's fetch position
// advances independently of commits, and committing any later offset would
// cover the failed one, so moving on would lose the message for good.
type Consumer struct {
	reader    *kafka.Reader
	logger    *slog.Logger
	handler   Handler
	dlq       *DLQProducer
	closeOnce sync.Once
}

// NewConsumer creates a new Kafka consumer for a specific topic and group.
// dlq may be nil, in which case permanent failures are logged and committed
// without a dead letter copy.
func NewConsumer(cfg ConsumerConfig, handler Handler, dlq *DLQProducer, logger *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
	})

	return &Consumer{
		reader:  r,
		logger:  logger,
		handler: handler,
		dlq:     dlq,
	}
}

// Start begins consuming messages. It blocks until the context is canceled.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started",
		slog.String("topic", c.reader.Config().Topic),
		slog.String("group", c.reader.Config().GroupID),
	)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("consumer stopping", slog.String("topic", c.reader.Config().Topic))
			return c.Close()
		default:
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				c.logger.Error("failed to fetch message", slog.String("error", err.Error()))
				continue
			}

			event, err := UnmarshalEvent(msg.Value)
			if err != nil {
				// Malformed envelope: retrying cannot help.
				c.discard(ctx, msg, err)
				continue
			}

			if err := c.processUntilResolved(ctx, event, msg); err != nil {
				if IsPermanent(err) {
					c.discard(ctx, msg, err)
					continue
				}
				// Only a canceled context gets here; shut down without
				// committing so the message is redelivered on restart.
				return c.Close()
			}

			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				c.logger.Error("failed to commit message", slog.String("error", err.Error()))
			}
		}
	}
}

// processUntilResolved runs rounds of handler retries until the event
// succeeds, fails permanently, or the context is canceled. Between rounds it
// pauses with the message held; it never returns a transient failure, because
// fetching the next message would advance past this one and a later commit
// would silently cover its offset.
func (c *Consumer) processUntilResolved(ctx context.Context, event *Event, msg kafka.Message) error {
	for {
		err := c.process(ctx, event)
		if err == nil || IsPermanent(err) {
			return err
		}

		c.logger.Warn("handler failing transiently, holding message",
			slog.String("event_type", event.EventType),
			slog.String("aggregate_id", event.AggregateID),
			slog.String("topic", msg.Topic),
			slog.Int("partition", msg.Partition),
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(holdPause):
		}
	}
}

// process runs the handler with bounded in-process retries for transient errors.
func (c *Consumer) process(ctx context.Context, event *Event) error {
	var lastErr error
	for attempt := 1; attempt <= maxHandlerRetries; attempt++ {
		lastErr = c.handler(ctx, event)
		if lastErr == nil || IsPermanent(lastErr) {
			return lastErr
		}

		c.logger.Warn("handler failed, will retry",
			slog.String("event_type", event.EventType),
			slog.String("aggregate_id", event.AggregateID),
			slog.Int("attempt", attempt),
			slog.Int("max_retries", maxHandlerRetries),
			slog.String("error", lastErr.Error()),
		)

		if attempt < maxHandlerRetries {
			backoff := time.Duration(attempt) * 100 * time.Millisecond
			select {
			case <-ctx.Done():
				return lastErr
			case <-time.After(backoff):
			}
		}
	}
	return lastErr
}

// discard routes an unprocessable message to the dead letter topic (when
// configured) and commits its offset so it is not redelivered forever.
func (c *Consumer) discard(ctx context.Context, msg kafka.Message, cause error) {
	c.logger.Error("discarding unprocessable message",
		slog.String("topic", msg.Topic),
		slog.Int("partition", msg.Partition),
		slog.Int64("offset", msg.Offset),
		slog.String("error", cause.Error()),
	)

	if c.dlq != nil {
		if err := c.dlq.Publish(ctx, msg, cause, c.reader.Config().GroupID); err != nil {
			c.logger.Error("failed to publish discarded message to DLQ",
				slog.String("error", err.Error()),
			)
		}
	}

	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("failed to commit discarded message", slog.String("error", err.Error()))
	}
}

// Close closes the reader and the dead letter producer (the consumer owns
// the one it was given). It is safe to call multiple times.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.reader.Close()
		if c.dlq != nil {
			err = errors.Join(err, c.dlq.Close())
		}
	})
	return err
}
