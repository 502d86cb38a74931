package broker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/laflotawines-debug/presupuestadorpro/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

func message(t *testing.T, event interface{}) kafka.Message {
	t.Helper()
	data, err := json.Marshal(event)
	assert.NoError(t, err)
	return kafka.Message{Value: data}
}

func TestHandleCatalogReplaced(t *testing.T) {
	eh := NewEventHandler()

	var got *models.CatalogReplacedEvent
	eh.OnCatalogReplaced(func(ctx context.Context, event *models.CatalogReplacedEvent) error {
		got = event
		return nil
	})

	msg := message(t, &models.CatalogReplacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   "e1",
			EventType: models.EventTypeCatalogReplaced,
			Timestamp: time.Now(),
		},
		Mode:  "replace",
		Count: 2500,
	})

	assert.NoError(t, eh.HandleMessage(context.Background(), msg))
	assert.NotNil(t, got)
	assert.Equal(t, "replace", got.Mode)
	assert.Equal(t, 2500, got.Count)
}

func TestHandleProductUpdated(t *testing.T) {
	eh := NewEventHandler()

	var got *models.ProductUpdatedEvent
	eh.OnProductUpdated(func(ctx context.Context, event *models.ProductUpdatedEvent) error {
		got = event
		return nil
	})

	msg := message(t, &models.ProductUpdatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   "e2",
			EventType: models.EventTypeProductUpdated,
			Timestamp: time.Now(),
		},
		ProductID: "A1",
	})

	assert.NoError(t, eh.HandleMessage(context.Background(), msg))
	assert.NotNil(t, got)
	assert.Equal(t, "A1", got.ProductID)
}

func TestHandleUnknownEventType(t *testing.T) {
	eh := NewEventHandler()

	msg := message(t, &models.BaseEvent{
		EventID:   "e3",
		EventType: "something.else",
		Timestamp: time.Now(),
	})

	assert.NoError(t, eh.HandleMessage(context.Background(), msg))
}

func TestHandleMalformedMessage(t *testing.T) {
	eh := NewEventHandler()

	err := eh.HandleMessage(context.Background(), kafka.Message{Value: []byte("{broken")})
	assert.Error(t, err)
}

func TestKafkaIntegration(t *testing.T) {
	// This test requires a real Kafka broker
	// In a production environment, you would use testcontainers
	t.Skip("Skipping Kafka integration test - requires Kafka broker")
}
