package worker

import (
	"context"
	"log"

	"github.com/laflotawines-debug/presupuestadorpro/internal/broker"
	"github.com/laflotawines-debug/presupuestadorpro/internal/catalog"
	"github.com/laflotawines-debug/presupuestadorpro/internal/models"
)

// CatalogWorker keeps the in-memory catalog snapshot fresh by re-fetching it
// whenever another replica replaced the product set or updated a record. A
// failed refresh just waits for the next event.
type CatalogWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	catalog      *catalog.Catalog
}

// NewCatalogWorker creates a new catalog refresh worker
func NewCatalogWorker(consumer *broker.Consumer, cat *catalog.Catalog) *CatalogWorker {
	eventHandler := broker.NewEventHandler()

	eventHandler.OnCatalogReplaced(func(ctx context.Context, event *models.CatalogReplacedEvent) error {
		log.Printf("Catalog replaced (%s, %d rows), refreshing", event.Mode, event.Count)
		cat.Refresh(ctx)
		return nil
	})
	eventHandler.OnProductUpdated(func(ctx context.Context, event *models.ProductUpdatedEvent) error {
		log.Printf("Product updated: %s, refreshing", event.ProductID)
		cat.Refresh(ctx)
		return nil
	})

	return &CatalogWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		catalog:      cat,
	}
}

// Start starts the worker
func (w *CatalogWorker) Start(ctx context.Context) error {
	log.Println("Starting catalog worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *CatalogWorker) Stop() error {
	log.Println("Stopping catalog worker...")
	return w.consumer.Close()
}
