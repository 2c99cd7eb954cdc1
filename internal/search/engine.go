// Package search ranks research items for free-text queries in a strict
// (title and author) or broad (all catalog fields) mode.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joshu-sajeev/researchindex/common"
	"github.com/joshu-sajeev/researchindex/internal/config"
	"github.com/joshu-sajeev/researchindex/internal/dto"
	"github.com/joshu-sajeev/researchindex/internal/logging"
	"github.com/joshu-sajeev/researchindex/internal/models"
)

type Engine struct {
	backend      Backend
	reader       ResearchReader
	defaultLimit int
	maxLimit     int
	log          *slog.Logger
}

type Option func(*Engine)

// WithLimits overrides the default and maximum result counts.
func WithLimits(defaultLimit, maxLimit int) Option {
	return func(e *Engine) {
		if maxLimit > 0 {
			e.maxLimit = maxLimit
		}
		if defaultLimit > 0 {
			e.defaultLimit = min(defaultLimit, e.maxLimit)
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func NewEngine(backend Backend, reader ResearchReader, opts ...Option) *Engine {
	e := &Engine{
		backend:      backend,
		reader:       reader,
		defaultLimit: config.DefaultSearchLimit,
		maxLimit:     config.MaxSearchLimit,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With("component", logging.CompSearch)
	return e
}

// Search returns up to limit visible items ranked by relevance, newest first
// on ties. No match is an empty slice, not an error.
func (e *Engine) Search(ctx context.Context, q Query) ([]dto.SearchResultDTO, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, fmt.Errorf("empty query: %w", common.ErrInvalidQuery)
	}
	if utf8.RuneCountInString(text) > config.MaxQueryLength {
		return nil, fmt.Errorf("query longer than %d characters: %w", config.MaxQueryLength, common.ErrInvalidQuery)
	}

	q.Text = text
	q.Limit = e.clamp(q.Limit)

	hits, err := e.backend.Search(ctx, q)
	if err != nil {
		return nil, e.unavailable(ctx, "backend search", err)
	}
	if len(hits) == 0 {
		return []dto.SearchResultDTO{}, nil
	}

	ids := make([]uint, len(hits))
	scores := make(map[uint]float64, len(hits))
	for i, h := range hits {
		ids[i] = h.ResearchID
		scores[h.ResearchID] = h.Score
	}

	rows, err := e.reader.FindByIDs(ctx, ids)
	if err != nil {
		return nil, e.unavailable(ctx, "hydrate results", err)
	}

	results := make([]dto.SearchResultDTO, 0, len(rows))
	for i := range rows {
		// The relevance index can lag behind a status change.
		if !q.Visibility.Allows(&rows[i]) {
			continue
		}
		results = append(results, toResult(&rows[i], scores[rows[i].ID]))
	}
	return results, nil
}

func (e *Engine) clamp(limit int) int {
	switch {
	case limit <= 0:
		return e.defaultLimit
	case limit > e.maxLimit:
		return e.maxLimit
	default:
		return limit
	}
}

func (e *Engine) unavailable(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return err
	}
	e.log.Error(op+" failed", "error", err)
	return fmt.Errorf("%s: %w: %w", op, common.ErrIndexUnavailable, err)
}

func toResult(r *models.Research, score float64) dto.SearchResultDTO {
	res := dto.SearchResultDTO{
		ID:          r.ID,
		Title:       r.Title,
		Author:      r.Author,
		Status:      string(r.Status),
		AccessLevel: string(r.AccessLevel),
		Score:       score,
		CreatedAt:   r.CreatedAt,
	}
	if pd := time.Time(r.PublicationDate); !pd.IsZero() {
		res.PublicationDate = pd.Format("2006-01-02")
	}
	if d := r.Detail; d != nil {
		res.KnowledgeType = d.KnowledgeType
		res.Publisher = d.Publisher
		res.ISBNISSN = d.ISBNISSN
		res.Subjects = d.Subjects
		res.PhysicalDescription = d.PhysicalDescription
		res.Link = d.Link
	}
	return res
}
