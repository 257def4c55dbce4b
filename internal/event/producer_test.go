package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playforge/gamestore/internal/service"
	apperrors "github.com/playforge/gamestore/pkg/errors"
	"github.com/playforge/gamestore/pkg/kafka"
)

type capturingPublisher struct {
	topic string
	event *kafka.Event
	err   error
}

func (p *capturingPublisher) Publish(_ context.Context, topic string, event *kafka.Event) error {
	if p.err != nil {
		return p.err
	}
	p.topic = topic
	p.event = event
	return nil
}

func TestPublishOrderPlacedEnvelope(t *testing.T) {
	pub := &capturingPublisher{}
	producer := &OrderProducer{producer: pub, logger: testLogger()}

	order := service.OrderPlaced{
		OrderID:  "order-1",
		UserID:   "user-1",
		GameID:   "game-1",
		Price:    59.99,
		PlacedAt: time.Now().UTC(),
	}
	require.NoError(t, producer.PublishOrderPlaced(context.Background(), order))

	assert.Equal(t, "gamestore.order.placed", pub.topic)
	require.NotNil(t, pub.event)
	assert.Equal(t, "order.placed", pub.event.EventType)
	assert.Equal(t, "order-1", pub.event.AggregateID)
	assert.NotEmpty(t, pub.event.EventID)

	var data service.OrderPlaced
	require.NoError(t, pub.event.UnmarshalData(&data))
	assert.Equal(t, order, data)
}

func TestPublishOrderPlacedBrokerFailure(t *testing.T) {
	pub := &capturingPublisher{err: errors.New("broker unreachable")}
	producer := &OrderProducer{producer: pub, logger: testLogger()}

	err := producer.PublishOrderPlaced(context.Background(), service.OrderPlaced{OrderID: "order-1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPublishFailure)
}
