package event

import (
	"context"
	"log/slog"

	"github.com/playforge/gamestore/internal/service"
	apperrors "github.com/playforge/gamestore/pkg/errors"
	"github.com/playforge/gamestore/pkg/kafka"
	"github.com/playforge/gamestore/pkg/logger"
)

// Topics this service produces to and consumes from.
var (
	TopicOrderPlaced     = kafka.Topic("order", "placed")
	TopicPaymentApproved = kafka.Topic("payment", "approved")
)

const eventSource = "gamestore"

// publisher is the subset of kafka.Producer the order producer needs.
type publisher interface {
	Publish(ctx context.Context, topic string, event *kafka.Event) error
}

// OrderProducer publishes order lifecycle events. It implements
// service.OrderPublisher.
type OrderProducer struct {
	producer publisher
	logger   *slog.Logger
}

func NewOrderProducer(producer *kafka.Producer, log *slog.Logger) *OrderProducer {
	return &OrderProducer{producer: producer, logger: log}
}

// PublishOrderPlaced wraps the order payload in the standard event envelope
// and hands it to the broker synchronously.
func (p *OrderProducer) PublishOrderPlaced(ctx context.Context, order service.OrderPlaced) error {
	evt, err := kafka.NewEvent("order.placed", order.OrderID, "order", eventSource, order)
	if err != nil {
		return apperrors.PublishFailure(err)
	}
	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		evt.WithCorrelationID(cid)
	}

	if err := p.producer.Publish(ctx, TopicOrderPlaced, evt); err != nil {
		return apperrors.PublishFailure(err)
	}
	return nil
}
