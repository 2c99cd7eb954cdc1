package mocks

import (
	"context"
	"time"

	"github.com/joshu-sajeev/researchindex/internal/config"
	"github.com/joshu-sajeev/researchindex/internal/dto"
	"github.com/joshu-sajeev/researchindex/internal/models"
	"github.com/stretchr/testify/mock"
)

type ResearchRepoMock struct {
	mock.Mock
}

func (m *ResearchRepoMock) Create(ctx context.Context, item *models.Research, reason string) (*models.IndexJob, error) {
	args := m.Called(ctx, item, reason)

	job, _ := args.Get(0).(*models.IndexJob)
	return job, args.Error(1)
}

func (m *ResearchRepoMock) Update(ctx context.Context, item *models.Research, reason string) (*models.IndexJob, error) {
	args := m.Called(ctx, item, reason)

	job, _ := args.Get(0).(*models.IndexJob)
	return job, args.Error(1)
}

func (m *ResearchRepoMock) SetStatus(ctx context.Context, id uint, status config.ResearchStatus, now time.Time) (*models.IndexJob, error) {
	args := m.Called(ctx, id, status, now)

	job, _ := args.Get(0).(*models.IndexJob)
	return job, args.Error(1)
}

func (m *ResearchRepoMock) GetWithDetail(ctx context.Context, id uint) (*models.Research, error) {
	args := m.Called(ctx, id)

	item, _ := args.Get(0).(*models.Research)
	return item, args.Error(1)
}

func (m *ResearchRepoMock) SaveSearchText(ctx context.Context, researchID uint, text string) error {
	args := m.Called(ctx, researchID, text)
	return args.Error(0)
}

func (m *ResearchRepoMock) FindByIDs(ctx context.Context, ids []uint) ([]models.Research, error) {
	args := m.Called(ctx, ids)

	rows, _ := args.Get(0).([]models.Research)
	return rows, args.Error(1)
}

type ResearchServiceMock struct {
	mock.Mock
}

func (m *ResearchServiceMock) Create(ctx context.Context, req *dto.ResearchCreateDTO) (*dto.ResearchResponseDTO, error) {
	args := m.Called(ctx, req)

	resp, _ := args.Get(0).(*dto.ResearchResponseDTO)
	return resp, args.Error(1)
}

func (m *ResearchServiceMock) Update(ctx context.Context, id uint, req *dto.ResearchUpdateDTO) (*dto.ResearchResponseDTO, error) {
	args := m.Called(ctx, id, req)

	resp, _ := args.Get(0).(*dto.ResearchResponseDTO)
	return resp, args.Error(1)
}

func (m *ResearchServiceMock) SetStatus(ctx context.Context, id uint, status string) (*dto.ResearchResponseDTO, error) {
	args := m.Called(ctx, id, status)

	resp, _ := args.Get(0).(*dto.ResearchResponseDTO)
	return resp, args.Error(1)
}

func (m *ResearchServiceMock) Get(ctx context.Context, id uint) (*dto.ResearchResponseDTO, error) {
	args := m.Called(ctx, id)

	resp, _ := args.Get(0).(*dto.ResearchResponseDTO)
	return resp, args.Error(1)
}
