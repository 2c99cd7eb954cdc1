package search

import (
	"context"
	"fmt"

	"github.com/joshu-sajeev/researchindex/internal/models"
)

const warmPageSize = 500

// PageSource pages through every research item in id order.
type PageSource interface {
	ListPage(ctx context.Context, afterID uint, limit int) ([]models.Research, error)
}

// Warm loads every stored item, with the search_text the processor last
// wrote, into idx. It returns the number of documents indexed.
func Warm(ctx context.Context, idx *BleveIndex, src PageSource) (int, error) {
	var (
		after uint
		total int
	)
	for {
		page, err := src.ListPage(ctx, after, warmPageSize)
		if err != nil {
			return total, fmt.Errorf("warm index: %w", err)
		}
		if len(page) == 0 {
			return total, nil
		}

		if err := idx.IndexAll(ctx, page); err != nil {
			return total, fmt.Errorf("warm index: %w", err)
		}

		total += len(page)
		after = page[len(page)-1].ID
		if len(page) < warmPageSize {
			return total, nil
		}
	}
}
