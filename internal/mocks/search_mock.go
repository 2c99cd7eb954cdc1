package mocks

import (
	"context"

	"github.com/joshu-sajeev/researchindex/internal/dto"
	"github.com/joshu-sajeev/researchindex/internal/models"
	"github.com/joshu-sajeev/researchindex/internal/search"
	"github.com/stretchr/testify/mock"
)

type BackendMock struct {
	mock.Mock
}

func (m *BackendMock) Search(ctx context.Context, q search.Query) ([]search.Hit, error) {
	args := m.Called(ctx, q)

	hits, _ := args.Get(0).([]search.Hit)
	return hits, args.Error(1)
}

type SearcherMock struct {
	mock.Mock
}

func (m *SearcherMock) Search(ctx context.Context, q search.Query) ([]dto.SearchResultDTO, error) {
	args := m.Called(ctx, q)

	results, _ := args.Get(0).([]dto.SearchResultDTO)
	return results, args.Error(1)
}

// DocumentIndexMock records what the processor pushes to the relevance index.
type DocumentIndexMock struct {
	mock.Mock
}

func (m *DocumentIndexMock) Index(ctx context.Context, r *models.Research) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *DocumentIndexMock) Delete(ctx context.Context, researchID uint) error {
	args := m.Called(ctx, researchID)
	return args.Error(0)
}
