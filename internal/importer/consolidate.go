package importer

import (
	"strings"

	"github.com/laflotawines-debug/presupuestadorpro/internal/models"
)

// Consolidate merges article metadata with stock quantities by product code.
// Articles are keyed by trimmed id, last write wins on duplicates. Stock
// records whose id is unknown are dropped, never inserted as new products.
// Output preserves the article list's insertion order. Pure function.
func Consolidate(articles []models.Product, stocks []models.StockRecord) []models.Product {
	byID := make(map[string]int, len(articles))
	merged := make([]models.Product, 0, len(articles))

	for _, art := range articles {
		id := strings.TrimSpace(art.ID)
		if id == "" {
			continue
		}
		art.ID = id
		if i, ok := byID[id]; ok {
			merged[i] = art
			continue
		}
		byID[id] = len(merged)
		merged = append(merged, art)
	}

	for _, stk := range stocks {
		if i, ok := byID[strings.TrimSpace(stk.ID)]; ok {
			merged[i].Stock = stk.Stock
		}
	}

	return merged
}
