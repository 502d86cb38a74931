package store

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/laflotawines-debug/presupuestadorpro/internal/models"
	"github.com/laflotawines-debug/presupuestadorpro/internal/util"

	"go.uber.org/zap"
)

// DefaultBatchSize is how many records go into one upsert call.
const DefaultBatchSize = 500

// RawProduct is a not-yet-normalized record as admin payloads deliver it:
// strings untrimmed, stock possibly fractional.
type RawProduct struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Family       string  `json:"family"`
	Subfamily    string  `json:"subfamily"`
	Price1       float64 `json:"price_1"`
	Price2       float64 `json:"price_2"`
	Price3       float64 `json:"price_3"`
	Price4       float64 `json:"price_4"`
	Stock        float64 `json:"stock"`
	Supplier     string  `json:"supplier"`
	IsDollar     bool    `json:"is_dollar"`
	ExchangeRate float64 `json:"exchange_rate"`
}

// NormalizeRaw turns a raw record into a canonical product: strings trimmed,
// numeric fields with a 0 fallback, stock rounded to a non-negative integer.
// Blank optional fields stay empty in memory and become SQL NULL at write
// time via the store's nullIfEmpty mapping.
func NormalizeRaw(r RawProduct) models.Product {
	return NormalizeProduct(models.Product{
		ID:           r.ID,
		Name:         r.Name,
		Family:       r.Family,
		Subfamily:    r.Subfamily,
		Price1:       r.Price1,
		Price2:       r.Price2,
		Price3:       r.Price3,
		Price4:       r.Price4,
		Stock:        roundStock(r.Stock),
		Supplier:     r.Supplier,
		IsDollar:     r.IsDollar,
		ExchangeRate: r.ExchangeRate,
	})
}

// NormalizeProduct applies the shared write-side normalization rules to an
// already-typed product.
func NormalizeProduct(p models.Product) models.Product {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	p.Family = strings.TrimSpace(p.Family)
	p.Subfamily = strings.TrimSpace(p.Subfamily)
	p.Supplier = strings.TrimSpace(p.Supplier)
	p.Price1 = coerce(p.Price1)
	p.Price2 = coerce(p.Price2)
	p.Price3 = coerce(p.Price3)
	p.Price4 = coerce(p.Price4)
	p.ExchangeRate = coerce(p.ExchangeRate)
	if p.Stock < 0 {
		p.Stock = 0
	}
	return p
}

func roundStock(v float64) int {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return int(math.Round(v))
}

func coerce(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// BulkWriter writes the consolidated product set to a ProductStore in bounded
// batches, either replacing the full set or upserting into it.
type BulkWriter struct {
	store     ProductStore
	batchSize int
	logger    *zap.Logger
}

// NewBulkWriter creates a bulk writer over the given store. A non-positive
// batch size falls back to DefaultBatchSize.
func NewBulkWriter(store ProductStore, batchSize int) *BulkWriter {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &BulkWriter{
		store:     store,
		batchSize: batchSize,
		logger:    util.GetLogger(),
	}
}

// Replace deletes the existing product set and writes the new one. If the
// delete fails nothing is upserted; a stale+fresh mixture is worse than a
// failed import the admin can retry.
func (b *BulkWriter) Replace(ctx context.Context, products []models.Product) error {
	ctx, span := util.StartSpan(ctx, "BulkWriter.Replace")
	defer span.End()

	if err := b.store.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clearing product set: %w", err)
	}
	return b.Upsert(ctx, products)
}

// Upsert normalizes and writes products in batches keyed by id. Batches are
// written sequentially; a failure reports the offending batch's starting
// offset and leaves earlier batches committed.
func (b *BulkWriter) Upsert(ctx context.Context, products []models.Product) error {
	ctx, span := util.StartSpan(ctx, "BulkWriter.Upsert")
	defer span.End()

	cleaned := make([]models.Product, 0, len(products))
	for _, p := range products {
		cleaned = append(cleaned, NormalizeProduct(p))
	}

	for i := 0; i < len(cleaned); i += b.batchSize {
		end := i + b.batchSize
		if end > len(cleaned) {
			end = len(cleaned)
		}

		if err := b.store.UpsertBatch(ctx, cleaned[i:end]); err != nil {
			util.BulkBatchFailures.Inc()
			return fmt.Errorf("upserting batch at offset %d: %w", i, err)
		}
		util.BulkBatchesTotal.Inc()

		b.logger.Debug("Batch written",
			zap.Int("offset", i),
			zap.Int("size", end-i))
	}

	return nil
}
