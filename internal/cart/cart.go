package cart

import (
	"context"
	"sync"

	"github.com/laflotawines-debug/presupuestadorpro/internal/models"
	"github.com/laflotawines-debug/presupuestadorpro/internal/util"

	"go.uber.org/zap"
)

// ClearScope selects which partition of the cart a clear targets. The two
// quote views (general lists 1-3, restricted list 4) share one cart slot but
// clear independently, so the scope is defined by list-4 membership.
type ClearScope int

const (
	// ClearAll empties the whole cart.
	ClearAll ClearScope = iota
	// ClearGeneral removes lines quoted under lists 1-3.
	ClearGeneral
	// ClearSpecial removes lines quoted under list 4.
	ClearSpecial
)

// StockLookup resolves the current authoritative product state for a code.
// The catalog satisfies it.
type StockLookup interface {
	Get(id string) (models.Product, bool)
}

// Engine is the per-session mutable quote draft. Every mutation is followed
// by a write-through save to the session's durable slot; a failed save is
// logged and the in-memory state stands, so at worst a reload loses the most
// recent change.
type Engine struct {
	mu        sync.Mutex
	sessionID string
	lines     []models.CartLine
	lookup    StockLookup
	store     Store
	logger    *zap.Logger
}

// NewEngine creates an engine for one session, starting from the previously
// persisted lines (nil when the slot is empty).
func NewEngine(sessionID string, lines []models.CartLine, lookup StockLookup, store Store) *Engine {
	return &Engine{
		sessionID: sessionID,
		lines:     lines,
		lookup:    lookup,
		store:     store,
		logger:    util.GetLogger(),
	}
}

// Add puts qty units of the product on the draft under the given list. An
// existing line for the product grows by qty, clamped to the product's stock,
// and is reassigned to the requested list and its price; a product never
// holds two lines at once. A fresh add beyond stock silently truncates, and
// an add against zero stock is a no-op.
func (e *Engine) Add(ctx context.Context, p models.Product, qty int, list models.PriceList) {
	e.mu.Lock()
	defer e.mu.Unlock()

	price := p.PriceFor(list)

	if i, ok := e.find(p.ID); ok {
		newQty := clamp(e.lines[i].Quantity+qty, p.Stock)
		if newQty == 0 {
			e.lines = append(e.lines[:i], e.lines[i+1:]...)
		} else {
			e.lines[i].Quantity = newQty
			e.lines[i].SelectedPrice = price
			e.lines[i].SelectedList = list
		}
	} else {
		safeQty := clamp(qty, p.Stock)
		if safeQty <= 0 {
			return
		}
		e.lines = append(e.lines, models.CartLine{
			Product:       p,
			Quantity:      safeQty,
			SelectedPrice: price,
			SelectedList:  list,
		})
	}

	util.CartMutationsTotal.WithLabelValues("add").Inc()
	e.persist(ctx)
}

// Remove drops the line for the given product id unconditionally.
func (e *Engine) Remove(ctx context.Context, id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if i, ok := e.find(id); ok {
		e.lines = append(e.lines[:i], e.lines[i+1:]...)
		util.CartMutationsTotal.WithLabelValues("remove").Inc()
		e.persist(ctx)
	}
}

// UpdateQuantity re-clamps the requested quantity against the current
// catalog stock, falling back to the line's own snapshot when the product
// left the catalog. Quantity 0 removes the line.
func (e *Engine) UpdateQuantity(ctx context.Context, id string, qty int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i, ok := e.find(id)
	if !ok {
		return
	}

	maxStock := e.lines[i].Stock
	if p, found := e.lookup.Get(id); found {
		maxStock = p.Stock
	}

	newQty := clamp(qty, maxStock)
	if newQty == 0 {
		e.lines = append(e.lines[:i], e.lines[i+1:]...)
	} else {
		e.lines[i].Quantity = newQty
	}

	util.CartMutationsTotal.WithLabelValues("update_quantity").Inc()
	e.persist(ctx)
}

// UpdatePrices re-quotes every line under the given list using current
// catalog prices, so existing selections follow a list switch instead of
// going stale. Lines whose product is gone from the catalog are left as-is.
func (e *Engine) UpdatePrices(ctx context.Context, list models.PriceList) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.lines {
		p, ok := e.lookup.Get(e.lines[i].ID)
		if !ok {
			continue
		}
		e.lines[i].Product = p
		e.lines[i].SelectedPrice = p.PriceFor(list)
		e.lines[i].SelectedList = list
	}

	util.CartMutationsTotal.WithLabelValues("update_prices").Inc()
	e.persist(ctx)
}

// Clear empties the selected partition of the draft.
func (e *Engine) Clear(ctx context.Context, scope ClearScope) {
	e.mu.Lock()
	defer e.mu.Unlock()

	kept := e.lines[:0]
	for _, line := range e.lines {
		switch scope {
		case ClearGeneral:
			if line.SelectedList.Special() {
				kept = append(kept, line)
			}
		case ClearSpecial:
			if !line.SelectedList.Special() {
				kept = append(kept, line)
			}
		}
	}
	e.lines = kept

	util.CartMutationsTotal.WithLabelValues("clear").Inc()
	e.persist(ctx)
}

// Lines returns a copy of the current draft.
func (e *Engine) Lines() []models.CartLine {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]models.CartLine, len(e.lines))
	copy(out, e.lines)
	return out
}

// LinesFor returns the partition of the draft belonging to one quote view.
func (e *Engine) LinesFor(special bool) []models.CartLine {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []models.CartLine
	for _, line := range e.lines {
		if line.SelectedList.Special() == special {
			out = append(out, line)
		}
	}
	return out
}

// Total is always recomputed from the current lines, both partitions
// combined. Never cached.
func (e *Engine) Total() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	var total float64
	for _, line := range e.lines {
		total += line.Subtotal()
	}
	return total
}

func (e *Engine) find(id string) (int, bool) {
	for i := range e.lines {
		if e.lines[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

func (e *Engine) persist(ctx context.Context) {
	if err := e.store.Save(ctx, e.sessionID, e.lines); err != nil {
		e.logger.Warn("Failed to persist cart",
			zap.String("session_id", e.sessionID),
			zap.Error(err))
	}
}

func clamp(qty, stock int) int {
	if stock < 0 {
		stock = 0
	}
	if qty > stock {
		qty = stock
	}
	if qty < 0 {
		qty = 0
	}
	return qty
}
