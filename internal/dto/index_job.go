package dto

import "time"

type IndexJobCreateDTO struct {
	ResearchID  uint   `json:"research_id" validate:"required,gt=0"`
	Reason      string `json:"reason" validate:"omitempty,max=100"`
	Priority    *int   `json:"priority,omitempty" validate:"omitempty,gte=0,lte=1000"`
	MaxAttempts *int   `json:"max_attempts,omitempty" validate:"omitempty,gte=1,lte=20"`
}

type IndexJobResponseDTO struct {
	ID           uint       `json:"id"`
	ResearchID   uint       `json:"research_id"`
	Status       string     `json:"status"`
	Reason       string     `json:"reason"`
	AttemptCount int        `json:"attempt_count"`
	MaxAttempts  int        `json:"max_attempts"`
	Priority     int        `json:"priority"`
	LastError    string     `json:"last_error,omitempty"`
	NextRetryAt  *time.Time `json:"next_retry_at,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ProcessResultDTO reports the outcome of one processing batch.
type ProcessResultDTO struct {
	Processed int `json:"processed"`
	Completed int `json:"completed"`
	Requeued  int `json:"requeued"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

type IndexJobStatsDTO struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
}
