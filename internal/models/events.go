package models

import "time"

// Event types
const (
	EventTypeCatalogReplaced = "catalog.replaced"
	EventTypeProductUpdated  = "product.updated"
)

// BaseEvent contains common event fields
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// CatalogReplacedEvent is published after an import replaced or upserted the
// product set. Consumers re-fetch their catalog snapshot.
type CatalogReplacedEvent struct {
	BaseEvent
	Mode  string `json:"mode"`
	Count int    `json:"count"`
}

// ProductUpdatedEvent is published after a single-record admin update.
type ProductUpdatedEvent struct {
	BaseEvent
	ProductID string `json:"product_id"`
}
