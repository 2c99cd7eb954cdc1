package config

import (
	"database/sql/driver"
	"fmt"
	"slices"
)

// JobStatus is the lifecycle state of a research index job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

var AllowedJobStatuses = []JobStatus{
	JobStatusPending,
	JobStatusProcessing,
	JobStatusCompleted,
	JobStatusFailed,
}

// Queue defaults and bounds.
const (
	DefaultJobPriority    = 100
	DefaultJobMaxAttempts = 3
	MaxJobMaxAttempts     = 20

	DefaultBatchLimit = 20
	MinBatchLimit     = 1
	MaxBatchLimit     = 200

	DefaultSearchLimit = 20
	MaxSearchLimit     = 50
	MaxQueryLength     = 500
)

// Common enqueue reasons.
const (
	ReasonCreated       = "created"
	ReasonUpdated       = "updated"
	ReasonStatusChanged = "status_changed"
	ReasonManual        = "manual"
	ReasonReindex       = "reindex"
)

func (s JobStatus) Valid() bool {
	return slices.Contains(AllowedJobStatuses, s)
}

// Terminal reports whether no automatic transition leaves s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransitionTo reports whether the queue state machine permits s -> next.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case JobStatusPending:
		return next == JobStatusProcessing
	case JobStatusProcessing:
		return next == JobStatusCompleted ||
			next == JobStatusPending ||
			next == JobStatusFailed
	case JobStatusCompleted, JobStatusFailed:
		return false
	default:
		return false
	}
}

func (s JobStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid job status %q", string(s))
	}
	return string(s), nil
}

func (s *JobStatus) Scan(src any) error {
	v, err := scanString(src)
	if err != nil {
		return fmt.Errorf("scan job status: %w", err)
	}
	*s = JobStatus(v)
	return nil
}

// ResearchStatus is the moderation state of a research item.
type ResearchStatus string

const (
	ResearchStatusPending  ResearchStatus = "pending"
	ResearchStatusApproved ResearchStatus = "approved"
	ResearchStatusRejected ResearchStatus = "rejected"
	ResearchStatusArchived ResearchStatus = "archived"
)

var AllowedResearchStatuses = []ResearchStatus{
	ResearchStatusPending,
	ResearchStatusApproved,
	ResearchStatusRejected,
	ResearchStatusArchived,
}

func (s ResearchStatus) Valid() bool {
	return slices.Contains(AllowedResearchStatuses, s)
}

// CanTransitionTo reports whether an admin may move a research item from s to next.
func (s ResearchStatus) CanTransitionTo(next ResearchStatus) bool {
	switch s {
	case ResearchStatusPending:
		return next == ResearchStatusApproved || next == ResearchStatusRejected
	case ResearchStatusApproved:
		return next == ResearchStatusArchived
	case ResearchStatusRejected:
		return next == ResearchStatusPending
	case ResearchStatusArchived:
		return next == ResearchStatusApproved
	default:
		return false
	}
}

func (s ResearchStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid research status %q", string(s))
	}
	return string(s), nil
}

func (s *ResearchStatus) Scan(src any) error {
	v, err := scanString(src)
	if err != nil {
		return fmt.Errorf("scan research status: %w", err)
	}
	*s = ResearchStatus(v)
	return nil
}

// AccessLevel controls who may open a research item's files.
type AccessLevel string

const (
	AccessLevelPublic  AccessLevel = "public"
	AccessLevelPrivate AccessLevel = "private"
)

var AllowedAccessLevels = []AccessLevel{AccessLevelPublic, AccessLevelPrivate}

func (a AccessLevel) Valid() bool {
	return slices.Contains(AllowedAccessLevels, a)
}

func (a AccessLevel) Value() (driver.Value, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("invalid access level %q", string(a))
	}
	return string(a), nil
}

func (a *AccessLevel) Scan(src any) error {
	v, err := scanString(src)
	if err != nil {
		return fmt.Errorf("scan access level: %w", err)
	}
	*a = AccessLevel(v)
	return nil
}

func scanString(src any) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("unsupported type %T", src)
	}
}
