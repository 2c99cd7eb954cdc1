package search

import (
	"context"

	"github.com/joshu-sajeev/researchindex/internal/models"
)

// Query is a validated search request as handed to a Backend. Text is
// trimmed and Limit already clamped.
type Query struct {
	Text       string
	Strict     bool
	Limit      int
	Visibility Visibility
}

// Hit is one ranked match.
type Hit struct {
	ResearchID uint
	Score      float64
}

// Backend ranks research items for a query. Hits come back in relevance
// order, most recent first on equal scores, filtered by the query's visibility.
type Backend interface {
	Search(ctx context.Context, q Query) ([]Hit, error)
}

// ResearchReader hydrates ranked ids into full records.
type ResearchReader interface {
	FindByIDs(ctx context.Context, ids []uint) ([]models.Research, error)
}
