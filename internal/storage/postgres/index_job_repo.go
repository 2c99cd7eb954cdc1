package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joshu-sajeev/researchindex/common"
	"github.com/joshu-sajeev/researchindex/internal/config"
	"github.com/joshu-sajeev/researchindex/internal/indexjob"
	"github.com/joshu-sajeev/researchindex/internal/models"
	"github.com/joshu-sajeev/researchindex/internal/worker"
	"gorm.io/gorm"
)

type IndexJobRepository struct {
	db *gorm.DB
}

func NewIndexJobRepository(db *gorm.DB) *IndexJobRepository {
	return &IndexJobRepository{db: db}
}

var (
	_ indexjob.Repository = (*IndexJobRepository)(nil)
	_ worker.JobStore     = (*IndexJobRepository)(nil)
)

// Create inserts a new job record. Callers that must enqueue atomically with
// another write pass a repository built on their transaction.
func (r *IndexJobRepository) Create(ctx context.Context, job *models.IndexJob) error {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("create index job: %w", err)
	}
	return nil
}

// EnqueueAll inserts one pending job for every research item and returns the
// number of jobs created.
func (r *IndexJobRepository) EnqueueAll(ctx context.Context, reason string, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		INSERT INTO research_index_jobs
			(research_id, status, reason, attempt_count, max_attempts, priority, created_at, updated_at)
		SELECT id, ?, ?, 0, ?, ?, ?, ?
		FROM researches
		ORDER BY id`,
		string(config.JobStatusPending), reason,
		config.DefaultJobMaxAttempts, config.DefaultJobPriority,
		now, now,
	)
	if res.Error != nil {
		return 0, fmt.Errorf("enqueue all: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Get retrieves a single job by its ID.
func (r *IndexJobRepository) Get(ctx context.Context, id uint) (*models.IndexJob, error) {
	var job models.IndexJob
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("get index job %d: %w", id, common.ErrJobNotFound)
		}
		return nil, fmt.Errorf("get index job: %w", err)
	}
	return &job, nil
}

// List returns the newest jobs, optionally filtered by status.
func (r *IndexJobRepository) List(ctx context.Context, status config.JobStatus, limit int) ([]models.IndexJob, error) {
	var jobs []models.IndexJob
	q := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("list index jobs: %w", err)
	}
	return jobs, nil
}

// CountByStatus returns the number of jobs in every status.
func (r *IndexJobRepository) CountByStatus(ctx context.Context) (map[config.JobStatus]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := r.db.WithContext(ctx).Model(&models.IndexJob{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count index jobs: %w", err)
	}

	counts := make(map[config.JobStatus]int64, len(config.AllowedJobStatuses))
	for _, s := range config.AllowedJobStatuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[config.JobStatus(row.Status)] = row.Count
	}
	return counts, nil
}

// ListDue returns up to limit pending jobs whose retry gate has passed,
// most urgent priority first and oldest first within a priority.
func (r *IndexJobRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]models.IndexJob, error) {
	var jobs []models.IndexJob
	if err := r.db.WithContext(ctx).
		Where("status = ?", config.JobStatusPending).
		Where("next_retry_at IS NULL OR next_retry_at <= ?", now).
		Order("priority ASC, created_at ASC, id ASC").
		Limit(limit).
		Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("list due index jobs: %w", err)
	}
	return jobs, nil
}

// ListCompletedAfter returns jobs completed after the (completedAt, id)
// cursor, oldest completion first.
func (r *IndexJobRepository) ListCompletedAfter(ctx context.Context, completedAt time.Time, id uint, limit int) ([]models.IndexJob, error) {
	var jobs []models.IndexJob
	if err := r.db.WithContext(ctx).
		Where("status = ?", config.JobStatusCompleted).
		Where("completed_at > ? OR (completed_at = ? AND id > ?)", completedAt, completedAt, id).
		Order("completed_at ASC, id ASC").
		Limit(limit).
		Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("list completed index jobs: %w", err)
	}
	return jobs, nil
}

// Claim moves a due pending job to processing with a single conditional
// update. When another processor got there first no row matches and
// common.ErrJobClaimConflict is returned.
func (r *IndexJobRepository) Claim(ctx context.Context, id uint, now time.Time) (*models.IndexJob, error) {
	res := r.db.WithContext(ctx).Model(&models.IndexJob{}).
		Where("id = ? AND status = ?", id, config.JobStatusPending).
		Where("next_retry_at IS NULL OR next_retry_at <= ?", now).
		Updates(map[string]any{
			"status":     config.JobStatusProcessing,
			"started_at": now,
			"updated_at": now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("claim index job %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("claim index job %d: %w", id, common.ErrJobClaimConflict)
	}

	return r.Get(ctx, id)
}

// Complete marks a processing job completed.
func (r *IndexJobRepository) Complete(ctx context.Context, id uint, now time.Time) error {
	return r.transition(ctx, id, config.JobStatusCompleted, func(q *gorm.DB) *gorm.DB { return q },
		map[string]any{
			"status":        config.JobStatusCompleted,
			"completed_at":  now,
			"next_retry_at": nil,
			"updated_at":    now,
		})
}

// RecordFailure applies a failed attempt to a processing job: either back to
// pending with a retry gate, or failed once attempts are exhausted.
func (r *IndexJobRepository) RecordFailure(ctx context.Context, id uint, outcome models.FailureOutcome) error {
	return r.transition(ctx, id, outcome.Status, func(q *gorm.DB) *gorm.DB { return q },
		failureUpdates(outcome))
}

// ListStale returns processing jobs claimed before startedBefore.
func (r *IndexJobRepository) ListStale(ctx context.Context, startedBefore time.Time, limit int) ([]models.IndexJob, error) {
	var jobs []models.IndexJob
	if err := r.db.WithContext(ctx).
		Where("status = ? AND started_at <= ?", config.JobStatusProcessing, startedBefore).
		Order("started_at ASC, id ASC").
		Limit(limit).
		Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("list stale index jobs: %w", err)
	}
	return jobs, nil
}

// ReleaseStale applies outcome to a job that is still processing and still
// older than startedBefore.
func (r *IndexJobRepository) ReleaseStale(ctx context.Context, id uint, startedBefore time.Time, outcome models.FailureOutcome) error {
	return r.transition(ctx, id, outcome.Status,
		func(q *gorm.DB) *gorm.DB { return q.Where("started_at <= ?", startedBefore) },
		failureUpdates(outcome))
}

// transition updates a job that is currently processing. Zero matched rows
// means the job changed hands and is reported as a claim conflict.
func (r *IndexJobRepository) transition(
	ctx context.Context,
	id uint,
	next config.JobStatus,
	scope func(*gorm.DB) *gorm.DB,
	updates map[string]any,
) error {
	if !config.JobStatusProcessing.CanTransitionTo(next) {
		return fmt.Errorf("index job %d processing -> %s: %w", id, next, common.ErrInvalidTransition)
	}

	q := r.db.WithContext(ctx).Model(&models.IndexJob{}).
		Where("id = ? AND status = ?", id, config.JobStatusProcessing)
	res := scope(q).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update index job %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update index job %d: %w", id, common.ErrJobClaimConflict)
	}
	return nil
}

func failureUpdates(outcome models.FailureOutcome) map[string]any {
	updates := map[string]any{
		"status":        outcome.Status,
		"attempt_count": outcome.AttemptCount,
		"last_error":    outcome.LastError,
		"next_retry_at": outcome.NextRetryAt,
	}
	if outcome.Status == config.JobStatusFailed {
		updates["next_retry_at"] = nil
	}
	return updates
}
