package indexjob

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshu-sajeev/researchindex/common"
	"github.com/joshu-sajeev/researchindex/internal/config"
	"github.com/joshu-sajeev/researchindex/internal/dto"
	"github.com/joshu-sajeev/researchindex/internal/mocks"
	"github.com/joshu-sajeev/researchindex/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newRouter(svc ServiceInterface) *gin.Engine {
	gin.SetMode(gin.TestMode)

	h := NewHandler(svc)
	r := gin.New()
	r.Use(middleware.TimeoutMiddleware(5*time.Second), middleware.ErrorHandler())
	r.POST("/index-jobs", h.Create)
	r.GET("/index-jobs", h.List)
	r.GET("/index-jobs/stats", h.Stats)
	r.GET("/index-jobs/:id", h.Get)
	r.POST("/index-jobs/process", h.Process)
	return r
}

func TestIndexJobHandler_Create(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*mocks.IndexJobServiceMock)
		expectedStatus int
	}{
		{
			name: "job enqueued",
			body: `{"research_id":12,"reason":"manual","priority":10}`,
			setupMock: func(m *mocks.IndexJobServiceMock) {
				m.On("Enqueue", mock.Anything, mock.MatchedBy(func(req *dto.IndexJobCreateDTO) bool {
					return req.ResearchID == 12 && req.Priority != nil && *req.Priority == 10
				})).Return(&dto.IndexJobResponseDTO{ID: 1, ResearchID: 12, Status: "pending"}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "invalid JSON",
			body:           "{invalid json}",
			setupMock:      func(*mocks.IndexJobServiceMock) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing research id fails validation",
			body:           `{"reason":"manual"}`,
			setupMock:      func(*mocks.IndexJobServiceMock) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "max attempts above bound fails validation",
			body:           `{"research_id":1,"max_attempts":50}`,
			setupMock:      func(*mocks.IndexJobServiceMock) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "service error",
			body: `{"research_id":1}`,
			setupMock: func(m *mocks.IndexJobServiceMock) {
				m.On("Enqueue", mock.Anything, mock.Anything).
					Return(nil, common.Errf(http.StatusInternalServerError, "failed to enqueue index job"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.IndexJobServiceMock)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/index-jobs", bytes.NewReader([]byte(tt.body)))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			newRouter(svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code, "Status code mismatch for test: %s", tt.name)
			svc.AssertExpectations(t)
		})
	}
}

func TestIndexJobHandler_Get(t *testing.T) {
	tests := []struct {
		name           string
		jobID          string
		setupMock      func(*mocks.IndexJobServiceMock)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:  "successful fetch",
			jobID: "1",
			setupMock: func(m *mocks.IndexJobServiceMock) {
				m.On("GetJobByID", mock.Anything, uint(1)).Return(&dto.IndexJobResponseDTO{
					ID: 1, ResearchID: 3, Status: "pending", Reason: "created", MaxAttempts: 3, Priority: 100,
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"id":1,"research_id":3,"status":"pending","reason":"created","attempt_count":0,"max_attempts":3,"priority":100,"created_at":"0001-01-01T00:00:00Z","updated_at":"0001-01-01T00:00:00Z"}`,
		},
		{
			name:           "invalid id",
			jobID:          "abc",
			setupMock:      func(*mocks.IndexJobServiceMock) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"invalid ID"}`,
		},
		{
			name:           "zero id",
			jobID:          "0",
			setupMock:      func(*mocks.IndexJobServiceMock) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"invalid ID"}`,
		},
		{
			name:  "not found",
			jobID: "99",
			setupMock: func(m *mocks.IndexJobServiceMock) {
				m.On("GetJobByID", mock.Anything, uint(99)).
					Return(nil, common.Errf(http.StatusNotFound, "index job not found"))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error":"index job not found"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.IndexJobServiceMock)
			tt.setupMock(svc)

			w := httptest.NewRecorder()
			newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/index-jobs/"+tt.jobID, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			svc.AssertExpectations(t)
		})
	}
}

func TestIndexJobHandler_List(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		setupMock      func(*mocks.IndexJobServiceMock)
		expectedStatus int
	}{
		{
			name:  "filtered by status",
			query: "?status=failed&limit=10",
			setupMock: func(m *mocks.IndexJobServiceMock) {
				m.On("ListJobs", mock.Anything, "failed", 10).Return([]dto.IndexJobResponseDTO{{ID: 1}}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:  "no filters",
			query: "",
			setupMock: func(m *mocks.IndexJobServiceMock) {
				m.On("ListJobs", mock.Anything, "", 0).Return([]dto.IndexJobResponseDTO{}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "non-numeric limit",
			query:          "?limit=ten",
			setupMock:      func(*mocks.IndexJobServiceMock) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.IndexJobServiceMock)
			tt.setupMock(svc)

			w := httptest.NewRecorder()
			newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/index-jobs"+tt.query, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestIndexJobHandler_Stats(t *testing.T) {
	svc := new(mocks.IndexJobServiceMock)
	svc.On("Stats", mock.Anything).Return(&dto.IndexJobStatsDTO{Pending: 2, Completed: 5}, nil)

	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/index-jobs/stats", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"pending":2,"processing":0,"completed":5,"failed":0}`, w.Body.String())
}

func TestIndexJobHandler_Process(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		setupMock      func(*mocks.IndexJobServiceMock)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:  "default limit",
			query: "",
			setupMock: func(m *mocks.IndexJobServiceMock) {
				m.On("Process", mock.Anything, config.DefaultBatchLimit).
					Return(&dto.ProcessResultDTO{Processed: 2, Completed: 2}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"processed":2,"completed":2,"requeued":0,"failed":0,"skipped":0}`,
		},
		{
			name:  "limit out of range",
			query: "?limit=0",
			setupMock: func(m *mocks.IndexJobServiceMock) {
				m.On("Process", mock.Anything, 0).
					Return(nil, common.NewAPIError(http.StatusBadRequest, "invalid limit", map[string]any{"provided": 0}))
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"invalid limit","fields":{"provided":0}}`,
		},
		{
			name:           "non-numeric limit",
			query:          "?limit=all",
			setupMock:      func(*mocks.IndexJobServiceMock) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"limit must be a number","fields":{"provided":"all"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.IndexJobServiceMock)
			tt.setupMock(svc)

			w := httptest.NewRecorder()
			newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/index-jobs/process"+tt.query, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
