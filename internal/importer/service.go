package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/laflotawines-debug/presupuestadorpro/internal/broker"
	"github.com/laflotawines-debug/presupuestadorpro/internal/catalog"
	"github.com/laflotawines-debug/presupuestadorpro/internal/models"
	"github.com/laflotawines-debug/presupuestadorpro/internal/store"
	"github.com/laflotawines-debug/presupuestadorpro/internal/util"

	"go.uber.org/zap"
)

// Import modes.
const (
	ModeReplace = "replace"
	ModeUpsert  = "upsert"
)

// ErrParse marks a malformed spreadsheet. Fatal to the import attempt, no
// partial result is retained; the caller surfaces it to the user.
var ErrParse = errors.New("spreadsheet parse failure")

// ErrNoArticles marks an article workbook that produced no usable rows.
var ErrNoArticles = errors.New("article workbook has no usable rows")

// Service runs the import pipeline: parse both workbooks, consolidate by
// product code, bulk-write, refresh the catalog and announce the change.
type Service struct {
	bulk      *store.BulkWriter
	catalog   *catalog.Catalog
	publisher *broker.EventPublisher
	logger    *zap.Logger
}

// NewService creates a new import service
func NewService(bulk *store.BulkWriter, cat *catalog.Catalog, publisher *broker.EventPublisher) *Service {
	return &Service{
		bulk:      bulk,
		catalog:   cat,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// Result describes a finished import.
type Result struct {
	Mode  string `json:"mode"`
	Count int    `json:"count"`
}

// Run executes one import. The stock reader is optional; without it every
// product lands with stock 0. Nothing here retries: a failed import is
// re-run by the admin re-uploading.
func (s *Service) Run(ctx context.Context, articles, stock io.Reader, mode string) (*Result, error) {
	ctx, span := util.StartSpan(ctx, "ImportService.Run")
	defer span.End()

	start := time.Now()
	defer func() {
		util.ImportDuration.Observe(time.Since(start).Seconds())
	}()

	if mode != ModeReplace && mode != ModeUpsert {
		mode = ModeReplace
	}

	parsedArticles, err := ParseArticles(articles)
	if err != nil {
		util.ImportsFailedTotal.WithLabelValues("parse_articles").Inc()
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(parsedArticles) == 0 {
		util.ImportsFailedTotal.WithLabelValues("empty_articles").Inc()
		return nil, ErrNoArticles
	}

	var stocks []models.StockRecord
	if stock != nil {
		stocks, err = ParseStock(stock)
		if err != nil {
			util.ImportsFailedTotal.WithLabelValues("parse_stock").Inc()
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
	}

	merged := Consolidate(parsedArticles, stocks)

	s.logger.Info("Import consolidated",
		zap.Int("articles", len(parsedArticles)),
		zap.Int("stock_records", len(stocks)),
		zap.Int("merged", len(merged)),
		zap.String("mode", mode))

	if mode == ModeReplace {
		err = s.bulk.Replace(ctx, merged)
	} else {
		err = s.bulk.Upsert(ctx, merged)
	}
	if err != nil {
		util.ImportsFailedTotal.WithLabelValues("write").Inc()
		return nil, err
	}

	util.ImportsTotal.WithLabelValues(mode).Inc()
	util.ImportRowsTotal.Add(float64(len(merged)))

	s.catalog.Refresh(ctx)

	if s.publisher != nil {
		if err := s.publisher.PublishCatalogReplaced(ctx, mode, len(merged)); err != nil {
			s.logger.Error("Failed to publish CatalogReplaced event", zap.Error(err))
		}
	}

	return &Result{Mode: mode, Count: len(merged)}, nil
}
