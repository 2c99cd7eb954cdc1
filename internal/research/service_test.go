package research

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/joshu-sajeev/researchindex/common"
	"github.com/joshu-sajeev/researchindex/internal/config"
	"github.com/joshu-sajeev/researchindex/internal/dateparse"
	"github.com/joshu-sajeev/researchindex/internal/dto"
	"github.com/joshu-sajeev/researchindex/internal/mocks"
	"github.com/joshu-sajeev/researchindex/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

var fixedNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func newTestService(repo Repository) *Service {
	s := NewService(repo)
	s.now = func() time.Time { return fixedNow }
	s.dates = dateparse.Parser{Now: s.now}
	return s
}

func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	var apiErr common.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, status, apiErr.Status)
}

func day(y int, m time.Month, d int) datatypes.Date {
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func sameDay(a, b datatypes.Date) bool {
	return time.Time(a).Equal(time.Time(b))
}

func TestResearchService_Create(t *testing.T) {
	tests := []struct {
		name       string
		req        *dto.ResearchCreateDTO
		setupMock  func(*mocks.ResearchRepoMock)
		wantStatus int
		wantDate   string
	}{
		{
			name: "month range date",
			req: &dto.ResearchCreateDTO{
				UserID: 3, Title: "  Cassava survey ", Author: "M. Okello",
				PublicationDate: "January-June 2006",
				Detail:          dto.ResearchDetailDTO{Publisher: " Makerere University "},
			},
			setupMock: func(m *mocks.ResearchRepoMock) {
				m.On("Create", mock.Anything, mock.MatchedBy(func(r *models.Research) bool {
					return r.Title == "Cassava survey" &&
						r.UserID == 3 &&
						r.Status == config.ResearchStatusPending &&
						r.AccessLevel == config.AccessLevelPublic &&
						sameDay(r.PublicationDate, day(2006, time.January, 1)) &&
						r.Detail.Publisher == "Makerere University"
				}), config.ReasonCreated).Return(&models.IndexJob{ID: 77}, nil)
			},
			wantDate: "2006-01-01",
		},
		{
			name: "blank date is today",
			req:  &dto.ResearchCreateDTO{UserID: 1, Title: "T", Author: "A", AccessLevel: "PRIVATE"},
			setupMock: func(m *mocks.ResearchRepoMock) {
				m.On("Create", mock.Anything, mock.MatchedBy(func(r *models.Research) bool {
					return r.AccessLevel == config.AccessLevelPrivate &&
						sameDay(r.PublicationDate, day(2024, time.June, 1))
				}), config.ReasonCreated).Return(&models.IndexJob{ID: 78}, nil)
			},
			wantDate: "2024-06-01",
		},
		{
			name:       "unparseable date",
			req:        &dto.ResearchCreateDTO{UserID: 1, Title: "T", Author: "A", PublicationDate: "sometime soon"},
			setupMock:  func(*mocks.ResearchRepoMock) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "year zero",
			req:        &dto.ResearchCreateDTO{UserID: 1, Title: "T", Author: "A", PublicationDate: "0000"},
			setupMock:  func(*mocks.ResearchRepoMock) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "blank title after trimming",
			req:        &dto.ResearchCreateDTO{UserID: 1, Title: "   ", Author: "A"},
			setupMock:  func(*mocks.ResearchRepoMock) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown access level",
			req:        &dto.ResearchCreateDTO{UserID: 1, Title: "T", Author: "A", AccessLevel: "secret"},
			setupMock:  func(*mocks.ResearchRepoMock) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "repository failure",
			req:  &dto.ResearchCreateDTO{UserID: 1, Title: "T", Author: "A", PublicationDate: "2020"},
			setupMock: func(m *mocks.ResearchRepoMock) {
				m.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("disk full"))
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.ResearchRepoMock)
			tt.setupMock(repo)

			resp, err := newTestService(repo).Create(context.Background(), tt.req)

			if tt.wantStatus != 0 {
				assertStatus(t, err, tt.wantStatus)
				assert.Nil(t, resp)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "pending", resp.Status)
				assert.Equal(t, tt.wantDate, resp.PublicationDate)
				assert.NotZero(t, resp.IndexJobID)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestResearchService_Update(t *testing.T) {
	repo := new(mocks.ResearchRepoMock)
	stored := &models.Research{
		ID: 5, Title: "New", Author: "A", Status: config.ResearchStatusApproved,
		AccessLevel: config.AccessLevelPublic, PublicationDate: day(2015, time.March, 1),
		Detail: &models.ResearchDetail{Subjects: "soil"},
	}

	repo.On("Update", mock.Anything, mock.MatchedBy(func(r *models.Research) bool {
		return r.ID == 5 && r.Title == "New" && r.Detail.Subjects == "soil"
	}), config.ReasonUpdated).Return(&models.IndexJob{ID: 9}, nil)
	repo.On("GetWithDetail", mock.Anything, uint(5)).Return(stored, nil)

	resp, err := newTestService(repo).Update(context.Background(), 5, &dto.ResearchUpdateDTO{
		Title: "New", Author: "A", PublicationDate: "March - June 2015",
		Detail: dto.ResearchDetailDTO{Subjects: "soil"},
	})

	require.NoError(t, err)
	assert.Equal(t, "approved", resp.Status)
	assert.Equal(t, "2015-03-01", resp.PublicationDate)
	assert.Equal(t, "soil", resp.Detail.Subjects)
	assert.Equal(t, uint(9), resp.IndexJobID)
}

func TestResearchService_UpdateMissing(t *testing.T) {
	repo := new(mocks.ResearchRepoMock)
	repo.On("Update", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("update research 5: %w", common.ErrResearchNotFound))

	_, err := newTestService(repo).Update(context.Background(), 5, &dto.ResearchUpdateDTO{Title: "T", Author: "A"})

	assertStatus(t, err, http.StatusNotFound)
}

func TestResearchService_SetStatus(t *testing.T) {
	tests := []struct {
		name       string
		status     string
		setupMock  func(*mocks.ResearchRepoMock)
		wantStatus int
	}{
		{
			name:   "approve",
			status: " Approved ",
			setupMock: func(m *mocks.ResearchRepoMock) {
				m.On("SetStatus", mock.Anything, uint(2), config.ResearchStatusApproved, fixedNow).
					Return(&models.IndexJob{ID: 11}, nil)
				m.On("GetWithDetail", mock.Anything, uint(2)).
					Return(&models.Research{ID: 2, Status: config.ResearchStatusApproved, ApprovedAt: &fixedNow}, nil)
			},
		},
		{
			name:       "unknown status",
			status:     "published",
			setupMock:  func(*mocks.ResearchRepoMock) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "transition not allowed",
			status: "rejected",
			setupMock: func(m *mocks.ResearchRepoMock) {
				m.On("SetStatus", mock.Anything, uint(2), config.ResearchStatusRejected, fixedNow).
					Return(nil, fmt.Errorf("research 2 approved -> rejected: %w", common.ErrInvalidTransition))
			},
			wantStatus: http.StatusConflict,
		},
		{
			name:   "item missing",
			status: "approved",
			setupMock: func(m *mocks.ResearchRepoMock) {
				m.On("SetStatus", mock.Anything, uint(2), config.ResearchStatusApproved, fixedNow).
					Return(nil, common.ErrResearchNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.ResearchRepoMock)
			tt.setupMock(repo)

			resp, err := newTestService(repo).SetStatus(context.Background(), 2, tt.status)

			if tt.wantStatus != 0 {
				assertStatus(t, err, tt.wantStatus)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "approved", resp.Status)
				assert.Equal(t, uint(11), resp.IndexJobID)
				require.NotNil(t, resp.ApprovedAt)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestResearchService_GetCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestService(new(mocks.ResearchRepoMock)).Get(ctx, 1)

	assertStatus(t, err, http.StatusRequestTimeout)
}
