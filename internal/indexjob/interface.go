package indexjob

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshu-sajeev/researchindex/internal/config"
	"github.com/joshu-sajeev/researchindex/internal/dto"
	"github.com/joshu-sajeev/researchindex/internal/models"
	"github.com/joshu-sajeev/researchindex/internal/worker"
)

// Repository defines the contract for index job persistence used by the service.
type Repository interface {
	Create(ctx context.Context, job *models.IndexJob) error
	EnqueueAll(ctx context.Context, reason string, now time.Time) (int64, error)
	Get(ctx context.Context, id uint) (*models.IndexJob, error)
	List(ctx context.Context, status config.JobStatus, limit int) ([]models.IndexJob, error)
	CountByStatus(ctx context.Context) (map[config.JobStatus]int64, error)
}

// Runner executes one bounded processing batch.
type Runner interface {
	ProcessPending(ctx context.Context, limit int) (worker.Stats, error)
}

// ServiceInterface defines the contract for index job business logic.
type ServiceInterface interface {
	Enqueue(ctx context.Context, req *dto.IndexJobCreateDTO) (*dto.IndexJobResponseDTO, error)
	EnqueueAll(ctx context.Context, reason string) (int64, error)
	GetJobByID(ctx context.Context, id uint) (*dto.IndexJobResponseDTO, error)
	ListJobs(ctx context.Context, status string, limit int) ([]dto.IndexJobResponseDTO, error)
	Stats(ctx context.Context) (*dto.IndexJobStatsDTO, error)
	Process(ctx context.Context, limit int) (*dto.ProcessResultDTO, error)
}

// HandlerInterface defines the contract for HTTP request handlers.
type HandlerInterface interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	List(c *gin.Context)
	Stats(c *gin.Context)
	Process(c *gin.Context)
}
