package models

import (
	"time"

	"github.com/joshu-sajeev/researchindex/internal/config"
)

// IndexJob records that the search index of one research item must be rebuilt.
// ResearchID is a weak reference: the item may be gone by the time the job runs.
type IndexJob struct {
	ID           uint             `gorm:"primaryKey;autoIncrement"`
	ResearchID   uint             `gorm:"not null;index"`
	Status       config.JobStatus `gorm:"type:varchar(20);not null"`
	Reason       string           `gorm:"type:varchar(100);not null"`
	AttemptCount int              `gorm:"not null"`
	MaxAttempts  int              `gorm:"not null"`
	Priority     int              `gorm:"not null"`
	LastError    *string          `gorm:"type:text"`
	NextRetryAt  *time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (IndexJob) TableName() string { return "research_index_jobs" }

// NewIndexJob returns a pending job with the default priority and attempt budget.
func NewIndexJob(researchID uint, reason string) *IndexJob {
	return &IndexJob{
		ResearchID:  researchID,
		Status:      config.JobStatusPending,
		Reason:      reason,
		MaxAttempts: config.DefaultJobMaxAttempts,
		Priority:    config.DefaultJobPriority,
	}
}

// FailureOutcome is the state a processing job moves to after a failed attempt.
type FailureOutcome struct {
	Status       config.JobStatus
	AttemptCount int
	LastError    string
	NextRetryAt  *time.Time
}

// Failure applies one failed attempt to j. While attempts remain the job goes
// back to pending, gated by backoff(attempt); once attempt_count reaches
// max_attempts it is failed for good. attempt_count never exceeds max_attempts.
func (j *IndexJob) Failure(cause string, now time.Time, backoff func(attempt int) time.Duration) FailureOutcome {
	maxAttempts := max(j.MaxAttempts, 1)
	attempts := min(j.AttemptCount+1, maxAttempts)

	if attempts >= maxAttempts {
		return FailureOutcome{
			Status:       config.JobStatusFailed,
			AttemptCount: attempts,
			LastError:    cause,
		}
	}

	next := now.Add(backoff(attempts))
	return FailureOutcome{
		Status:       config.JobStatusPending,
		AttemptCount: attempts,
		LastError:    cause,
		NextRetryAt:  &next,
	}
}

// Due reports whether a pending job may be picked up at now.
func (j *IndexJob) Due(now time.Time) bool {
	return j.Status == config.JobStatusPending &&
		(j.NextRetryAt == nil || !j.NextRetryAt.After(now))
}
