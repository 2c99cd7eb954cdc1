package mocks

import (
	"context"
	"time"

	"github.com/joshu-sajeev/researchindex/internal/dto"
	"github.com/joshu-sajeev/researchindex/internal/worker"
	"github.com/stretchr/testify/mock"
)

type IndexJobServiceMock struct {
	mock.Mock
}

func (m *IndexJobServiceMock) Enqueue(ctx context.Context, req *dto.IndexJobCreateDTO) (*dto.IndexJobResponseDTO, error) {
	args := m.Called(ctx, req)

	resp, _ := args.Get(0).(*dto.IndexJobResponseDTO)
	return resp, args.Error(1)
}

func (m *IndexJobServiceMock) EnqueueAll(ctx context.Context, reason string) (int64, error) {
	args := m.Called(ctx, reason)
	return args.Get(0).(int64), args.Error(1)
}

func (m *IndexJobServiceMock) GetJobByID(ctx context.Context, id uint) (*dto.IndexJobResponseDTO, error) {
	args := m.Called(ctx, id)

	resp, _ := args.Get(0).(*dto.IndexJobResponseDTO)
	return resp, args.Error(1)
}

func (m *IndexJobServiceMock) ListJobs(ctx context.Context, status string, limit int) ([]dto.IndexJobResponseDTO, error) {
	args := m.Called(ctx, status, limit)

	jobs, _ := args.Get(0).([]dto.IndexJobResponseDTO)
	return jobs, args.Error(1)
}

func (m *IndexJobServiceMock) Stats(ctx context.Context) (*dto.IndexJobStatsDTO, error) {
	args := m.Called(ctx)

	stats, _ := args.Get(0).(*dto.IndexJobStatsDTO)
	return stats, args.Error(1)
}

func (m *IndexJobServiceMock) Process(ctx context.Context, limit int) (*dto.ProcessResultDTO, error) {
	args := m.Called(ctx, limit)

	res, _ := args.Get(0).(*dto.ProcessResultDTO)
	return res, args.Error(1)
}

// RunnerMock drives processing batches in service and scheduler tests.
type RunnerMock struct {
	mock.Mock
}

func (m *RunnerMock) ProcessPending(ctx context.Context, limit int) (worker.Stats, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).(worker.Stats), args.Error(1)
}

func (m *RunnerMock) RecoverStale(ctx context.Context, staleAfter time.Duration) (int, error) {
	args := m.Called(ctx, staleAfter)
	return args.Int(0), args.Error(1)
}
