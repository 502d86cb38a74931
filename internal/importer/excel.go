package importer

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/laflotawines-debug/presupuestadorpro/internal/models"

	"github.com/xuri/excelize/v2"
)

// The stock workbook carries a seven-row banner before its header row.
const stockHeaderRow = 7

// Fallbacks used when the article sheet leaves a cell blank.
const (
	defaultName   = "Sin Nombre"
	defaultFamily = "General"
)

// ParseArticles decodes the article/price workbook: first sheet, first row as
// header, columns codart/desart/familia/subfamilia/pventa_1..pventa_4. Rows
// whose code is blank after trimming are dropped. Stock is always 0 here; it
// is merged in later from the stock workbook.
func ParseArticles(r io.Reader) ([]models.Product, error) {
	rows, err := firstSheetRows(r)
	if err != nil {
		return nil, fmt.Errorf("reading articles workbook: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	cols := headerIndex(rows[0])
	products := make([]models.Product, 0, len(rows)-1)

	for _, row := range rows[1:] {
		id := strings.TrimSpace(pick(row, cols, "codart"))
		if id == "" {
			continue
		}

		products = append(products, models.Product{
			ID:        id,
			Name:      orDefault(pick(row, cols, "desart"), defaultName),
			Family:    orDefault(pick(row, cols, "familia"), defaultFamily),
			Subfamily: strings.TrimSpace(pick(row, cols, "subfamilia")),
			Price1:    parseAmount(pick(row, cols, "pventa_1")),
			Price2:    parseAmount(pick(row, cols, "pventa_2")),
			Price3:    parseAmount(pick(row, cols, "pventa_3")),
			Price4:    parseAmount(pick(row, cols, "pventa_4")),
			Stock:     0,
		})
	}

	return products, nil
}

// ParseStock decodes the stock workbook: first sheet, data beginning after the
// seven banner rows, columns Código/Stock. Stock cells arrive either as
// numbers or as locale strings with comma decimals and are always rounded to
// a non-negative integer count.
func ParseStock(r io.Reader) ([]models.StockRecord, error) {
	rows, err := firstSheetRows(r)
	if err != nil {
		return nil, fmt.Errorf("reading stock workbook: %w", err)
	}
	if len(rows) <= stockHeaderRow+1 {
		return nil, nil
	}

	cols := headerIndex(rows[stockHeaderRow])
	records := make([]models.StockRecord, 0, len(rows)-stockHeaderRow-1)

	for _, row := range rows[stockHeaderRow+1:] {
		id := strings.TrimSpace(pickAny(row, cols, "código", "codigo"))
		if id == "" {
			continue
		}
		records = append(records, models.StockRecord{
			ID:    id,
			Stock: ParseStockCount(pick(row, cols, "stock")),
		})
	}

	return records, nil
}

// ParseStockCount normalizes a raw stock cell into an integer count: comma
// decimal separators become dots, the value is rounded to the nearest
// integer, and anything unparseable or negative becomes 0.
func ParseStockCount(raw string) int {
	v := parseAmount(raw)
	n := int(math.Round(v))
	if n < 0 {
		return 0
	}
	return n
}

// firstSheetRows opens a workbook and returns every row of its first sheet.
// A structurally broken workbook fails the whole read; there is no
// partial-row recovery.
func firstSheetRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	return f.GetRows(sheets[0])
}

// headerIndex maps lowercased, trimmed header names to column positions.
func headerIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			cols[name] = i
		}
	}
	return cols
}

func pick(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func pickAny(row []string, cols map[string]int, names ...string) string {
	for _, name := range names {
		if _, ok := cols[name]; ok {
			return pick(row, cols, name)
		}
	}
	return ""
}

func orDefault(s, fallback string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	return s
}

// parseAmount parses a numeric cell, tolerating comma decimal separators.
// Missing or garbage values become 0.
func parseAmount(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0
	}
	return v
}
