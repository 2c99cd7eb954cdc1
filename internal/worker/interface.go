package worker

import (
	"context"
	"time"

	"github.com/joshu-sajeev/researchindex/internal/models"
)

// JobStore is the slice of the index job repository the processor drives.
type JobStore interface {
	ListDue(ctx context.Context, now time.Time, limit int) ([]models.IndexJob, error)
	Claim(ctx context.Context, id uint, now time.Time) (*models.IndexJob, error)
	Complete(ctx context.Context, id uint, now time.Time) error
	RecordFailure(ctx context.Context, id uint, outcome models.FailureOutcome) error
	ListStale(ctx context.Context, startedBefore time.Time, limit int) ([]models.IndexJob, error)
	ReleaseStale(ctx context.Context, id uint, startedBefore time.Time, outcome models.FailureOutcome) error
}

// ResearchStore loads research items and persists their derived search text.
type ResearchStore interface {
	GetWithDetail(ctx context.Context, id uint) (*models.Research, error)
	SaveSearchText(ctx context.Context, researchID uint, text string) error
}

// DocumentIndex is an external relevance index kept in step with search_text.
type DocumentIndex interface {
	Index(ctx context.Context, r *models.Research) error
	Delete(ctx context.Context, researchID uint) error
}
