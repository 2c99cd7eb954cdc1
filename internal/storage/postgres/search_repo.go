package postgres

import (
	"context"
	"fmt"

	"github.com/joshu-sajeev/researchindex/internal/search"
	"gorm.io/gorm"
)

// Vector expressions match the GIN indexes in the migrations.
const (
	strictVector = `to_tsvector('simple', coalesce(r.title, '') || ' ' || coalesce(r.author, ''))`
	broadVector  = `to_tsvector('simple',
		coalesce(d.search_text, '') || ' ' ||
		coalesce(d.publisher, '') || ' ' ||
		coalesce(d.isbn_issn, '') || ' ' ||
		coalesce(d.subjects, '') || ' ' ||
		coalesce(d.physical_description, ''))`

	// Any-term query: plainto_tsquery ANDs the lexemes, rewrite to OR.
	anyTermQuery = `replace(plainto_tsquery('simple', @q)::text, '&', '|')::tsquery`
)

// SearchRepository is the PostgreSQL full-text search backend.
type SearchRepository struct {
	db *gorm.DB
}

func NewSearchRepository(db *gorm.DB) *SearchRepository {
	return &SearchRepository{db: db}
}

var _ search.Backend = (*SearchRepository)(nil)

// Search ranks items with ts_rank. Strict mode matches the phrase against
// title and author; broad mode matches any term against title, author and
// the catalog fields.
func (r *SearchRepository) Search(ctx context.Context, q search.Query) ([]search.Hit, error) {
	var rows []struct {
		ID    uint
		Score float64
	}

	tx := r.db.WithContext(ctx).Table("researches AS r")
	if q.Strict {
		tsq := `phraseto_tsquery('simple', @q)`
		tx = tx.Select(fmt.Sprintf("r.id AS id, ts_rank(%s, %s) AS score", strictVector, tsq), map[string]any{"q": q.Text}).
			Where(fmt.Sprintf("%s @@ %s", strictVector, tsq), map[string]any{"q": q.Text})
	} else {
		combined := fmt.Sprintf("(%s || %s)", strictVector, broadVector)
		tx = tx.Joins("LEFT JOIN research_details AS d ON d.research_id = r.id").
			Select(fmt.Sprintf("r.id AS id, ts_rank(%s, %s) AS score", combined, anyTermQuery), map[string]any{"q": q.Text}).
			Where(fmt.Sprintf("(%s @@ %s OR %s @@ %s)", strictVector, anyTermQuery, broadVector, anyTermQuery), map[string]any{"q": q.Text})
	}

	if vals := q.Visibility.StatusValues(); len(vals) > 0 {
		tx = tx.Where("r.status IN ?", vals)
	}
	if vals := q.Visibility.AccessValues(); len(vals) > 0 {
		tx = tx.Where("r.access_level IN ?", vals)
	}

	if err := tx.Order("score DESC, r.created_at DESC").Limit(q.Limit).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("full-text search: %w", err)
	}

	hits := make([]search.Hit, len(rows))
	for i, row := range rows {
		hits[i] = search.Hit{ResearchID: row.ID, Score: row.Score}
	}
	return hits, nil
}
