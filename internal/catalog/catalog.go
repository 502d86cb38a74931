package catalog

import (
	"context"
	"sync"

	"github.com/laflotawines-debug/presupuestadorpro/internal/models"
	"github.com/laflotawines-debug/presupuestadorpro/internal/store"
	"github.com/laflotawines-debug/presupuestadorpro/internal/util"

	"go.uber.org/zap"
)

// DefaultPageSize is how many rows one List call asks the store for.
const DefaultPageSize = 1000

// Catalog is the in-memory read path over the product store. It pages the
// full remote set into memory and serves lookups to the cart and the API.
type Catalog struct {
	store    store.ProductStore
	pageSize int
	logger   *zap.Logger

	mu       sync.RWMutex
	products []models.Product
	loading  bool
}

// New creates a catalog over the given store. A non-positive page size falls
// back to DefaultPageSize.
func New(st store.ProductStore, pageSize int) *Catalog {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Catalog{
		store:    st,
		pageSize: pageSize,
		logger:   util.GetLogger(),
	}
}

// Refresh re-fetches the full product set and replaces the in-memory state.
// Pages are fetched strictly sequentially; a page error ends the pagination
// and keeps whatever was accumulated so far. Read failures degrade, they do
// not propagate.
func (c *Catalog) Refresh(ctx context.Context) {
	ctx, span := util.StartSpan(ctx, "Catalog.Refresh")
	defer span.End()

	c.setLoading(true)
	defer c.setLoading(false)

	fetched := c.fetchAll(ctx)

	c.mu.Lock()
	c.products = fetched
	c.mu.Unlock()

	c.logger.Info("Catalog refreshed", zap.Int("count", len(fetched)))
}

func (c *Catalog) fetchAll(ctx context.Context) []models.Product {
	var all []models.Product

	for offset := 0; ; offset += c.pageSize {
		page, err := c.store.List(ctx, offset, c.pageSize)
		if err != nil {
			util.CatalogFetchErrors.Inc()
			c.logger.Error("Catalog page fetch failed, keeping partial result",
				zap.Int("offset", offset),
				zap.Error(err))
			break
		}
		util.CatalogFetchPages.Inc()

		all = append(all, page...)
		if len(page) < c.pageSize {
			break
		}
	}

	return all
}

// Products returns a copy of the current snapshot.
func (c *Catalog) Products() []models.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Product, len(c.products))
	copy(out, c.products)
	return out
}

// Get looks a product up by id in the current snapshot.
func (c *Catalog) Get(id string) (models.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, p := range c.products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

// IsLoading reports whether a refresh is in flight. UI hint only.
func (c *Catalog) IsLoading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

func (c *Catalog) setLoading(v bool) {
	c.mu.Lock()
	c.loading = v
	c.mu.Unlock()
}

// UpdateProduct applies an optimistic in-memory replace-by-id, then persists
// the single record. On a persistence failure the full snapshot is
// re-fetched to reconcile; there is no finer-grained rollback.
func (c *Catalog) UpdateProduct(ctx context.Context, p models.Product) error {
	ctx, span := util.StartSpan(ctx, "Catalog.UpdateProduct")
	defer span.End()

	p = store.NormalizeProduct(p)

	c.mu.Lock()
	for i := range c.products {
		if c.products[i].ID == p.ID {
			c.products[i] = p
			break
		}
	}
	c.mu.Unlock()

	if err := c.store.Update(ctx, p); err != nil {
		c.logger.Warn("Product update failed, re-fetching catalog",
			zap.String("product_id", p.ID),
			zap.Error(err))
		c.Refresh(ctx)
		return err
	}

	return nil
}
