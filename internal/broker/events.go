package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/laflotawines-debug/presupuestadorpro/internal/models"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing catalog domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishCatalogReplaced publishes CatalogReplaced after an import finished.
func (ep *EventPublisher) PublishCatalogReplaced(ctx context.Context, mode string, count int) error {
	event := &models.CatalogReplacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeCatalogReplaced,
			Timestamp: time.Now(),
		},
		Mode:  mode,
		Count: count,
	}
	return ep.producer.PublishEvent(ctx, "catalog", event)
}

// PublishProductUpdated publishes ProductUpdated after a single-record
// admin update.
func (ep *EventPublisher) PublishProductUpdated(ctx context.Context, productID string) error {
	event := &models.ProductUpdatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeProductUpdated,
			Timestamp: time.Now(),
		},
		ProductID: productID,
	}
	return ep.producer.PublishEvent(ctx, fmt.Sprintf("product-%s", productID), event)
}

// EventHandler routes incoming catalog events
type EventHandler struct {
	onCatalogReplaced func(context.Context, *models.CatalogReplacedEvent) error
	onProductUpdated  func(context.Context, *models.ProductUpdatedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnCatalogReplaced registers a handler for CatalogReplaced events
func (eh *EventHandler) OnCatalogReplaced(handler func(context.Context, *models.CatalogReplacedEvent) error) {
	eh.onCatalogReplaced = handler
}

// OnProductUpdated registers a handler for ProductUpdated events
func (eh *EventHandler) OnProductUpdated(handler func(context.Context, *models.ProductUpdatedEvent) error) {
	eh.onProductUpdated = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	log.Printf("Handling event: type=%s, id=%s", baseEvent.EventType, baseEvent.EventID)

	switch baseEvent.EventType {
	case models.EventTypeCatalogReplaced:
		if eh.onCatalogReplaced != nil {
			var event models.CatalogReplacedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal CatalogReplaced event: %w", err)
			}
			return eh.onCatalogReplaced(ctx, &event)
		}

	case models.EventTypeProductUpdated:
		if eh.onProductUpdated != nil {
			var event models.ProductUpdatedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ProductUpdated event: %w", err)
			}
			return eh.onProductUpdated(ctx, &event)
		}
	}

	return nil
}
