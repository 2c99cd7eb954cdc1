package mocks

import (
	"context"
	"time"

	"github.com/joshu-sajeev/researchindex/internal/config"
	"github.com/joshu-sajeev/researchindex/internal/models"
	"github.com/stretchr/testify/mock"
)

type IndexJobRepoMock struct {
	mock.Mock
}

func (m *IndexJobRepoMock) Create(ctx context.Context, job *models.IndexJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *IndexJobRepoMock) EnqueueAll(ctx context.Context, reason string, now time.Time) (int64, error) {
	args := m.Called(ctx, reason, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *IndexJobRepoMock) Get(ctx context.Context, id uint) (*models.IndexJob, error) {
	args := m.Called(ctx, id)

	job, _ := args.Get(0).(*models.IndexJob)
	return job, args.Error(1)
}

func (m *IndexJobRepoMock) List(ctx context.Context, status config.JobStatus, limit int) ([]models.IndexJob, error) {
	args := m.Called(ctx, status, limit)

	jobs, _ := args.Get(0).([]models.IndexJob)
	return jobs, args.Error(1)
}

func (m *IndexJobRepoMock) CountByStatus(ctx context.Context) (map[config.JobStatus]int64, error) {
	args := m.Called(ctx)

	counts, _ := args.Get(0).(map[config.JobStatus]int64)
	return counts, args.Error(1)
}

// JobStoreMock stands in for the processor's view of the queue.
type JobStoreMock struct {
	mock.Mock
}

func (m *JobStoreMock) ListDue(ctx context.Context, now time.Time, limit int) ([]models.IndexJob, error) {
	args := m.Called(ctx, now, limit)

	jobs, _ := args.Get(0).([]models.IndexJob)
	return jobs, args.Error(1)
}

func (m *JobStoreMock) Claim(ctx context.Context, id uint, now time.Time) (*models.IndexJob, error) {
	args := m.Called(ctx, id, now)

	job, _ := args.Get(0).(*models.IndexJob)
	return job, args.Error(1)
}

func (m *JobStoreMock) Complete(ctx context.Context, id uint, now time.Time) error {
	args := m.Called(ctx, id, now)
	return args.Error(0)
}

func (m *JobStoreMock) RecordFailure(ctx context.Context, id uint, outcome models.FailureOutcome) error {
	args := m.Called(ctx, id, outcome)
	return args.Error(0)
}

func (m *JobStoreMock) ListStale(ctx context.Context, startedBefore time.Time, limit int) ([]models.IndexJob, error) {
	args := m.Called(ctx, startedBefore, limit)

	jobs, _ := args.Get(0).([]models.IndexJob)
	return jobs, args.Error(1)
}

func (m *JobStoreMock) ReleaseStale(ctx context.Context, id uint, startedBefore time.Time, outcome models.FailureOutcome) error {
	args := m.Called(ctx, id, startedBefore, outcome)
	return args.Error(0)
}
