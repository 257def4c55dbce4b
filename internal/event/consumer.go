package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/playforge/gamestore/pkg/kafka"
	"github.com/playforge/gamestore/pkg/logger"
)

// PaymentApprovedData is the payload of a payment.approved event produced by
// the payments side.
type PaymentApprovedData struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
	GameID  string `json:"game_id"`
}

// LibraryGranter is the fulfillment operation the payment consumer drives.
type LibraryGranter interface {
	GrantLibraryEntry(ctx context.Context, userID, gameID string) (bool, error)
}

// dedupeTTL bounds the in-memory seen-event cache. The library table's
// uniqueness constraint remains the durable idempotency guarantee; this only
// short-circuits redeliveries within a process lifetime.
const dedupeTTL = 24 * time.Hour

// NewPaymentApprovedHandler returns the handler for payment.approved events.
// A payload that cannot identify a (user, game) pair is a permanent failure;
// a store error is transient, so the consumer holds the message and keeps
// retrying until the grant lands.
func NewPaymentApprovedHandler(fulfillment LibraryGranter, log *slog.Logger) kafka.Handler {
	return func(ctx context.Context, evt *kafka.Event) error {
		if evt.CorrelationID != "" {
			ctx = logger.WithCorrelationID(ctx, evt.CorrelationID)
		}

		var data PaymentApprovedData
		if err := evt.UnmarshalData(&data); err != nil {
			return kafka.Permanent(fmt.Errorf("decode payment.approved payload: %w", err))
		}
		if data.UserID == "" || data.GameID == "" {
			return kafka.Permanent(fmt.Errorf("payment.approved %s missing user or game id", evt.EventID))
		}

		created, err := fulfillment.GrantLibraryEntry(ctx, data.UserID, data.GameID)
		if err != nil {
			return fmt.Errorf("grant for order %s: %w", data.OrderID, err)
		}

		log.InfoContext(ctx, "payment approved processed",
			slog.String("order_id", data.OrderID),
			slog.String("user_id", data.UserID),
			slog.String("game_id", data.GameID),
			slog.Bool("granted", created),
		)
		return nil
	}
}

// NewPaymentConsumer assembles the payment.approved consumer: event-ID dedupe
// in front of the grant handler, dead letter topic for discards.
func NewPaymentConsumer(brokers []string, groupID string, fulfillment LibraryGranter, log *slog.Logger) *kafka.Consumer {
	handler := kafka.IdempotentHandler(
		kafka.NewMemoryIdempotencyStore(dedupeTTL),
		NewPaymentApprovedHandler(fulfillment, log),
		log,
	)
	dlq := kafka.NewDLQProducer(brokers, log)

	return kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   TopicPaymentApproved,
	}, handler, dlq, log)
}
