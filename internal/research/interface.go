package research

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshu-sajeev/researchindex/internal/config"
	"github.com/joshu-sajeev/researchindex/internal/dto"
	"github.com/joshu-sajeev/researchindex/internal/models"
)

// Repository persists research items. Every write also enqueues an index job
// in the same transaction and returns it.
type Repository interface {
	Create(ctx context.Context, item *models.Research, reason string) (*models.IndexJob, error)
	Update(ctx context.Context, item *models.Research, reason string) (*models.IndexJob, error)
	SetStatus(ctx context.Context, id uint, status config.ResearchStatus, now time.Time) (*models.IndexJob, error)
	GetWithDetail(ctx context.Context, id uint) (*models.Research, error)
}

type ServiceInterface interface {
	Create(ctx context.Context, req *dto.ResearchCreateDTO) (*dto.ResearchResponseDTO, error)
	Update(ctx context.Context, id uint, req *dto.ResearchUpdateDTO) (*dto.ResearchResponseDTO, error)
	SetStatus(ctx context.Context, id uint, status string) (*dto.ResearchResponseDTO, error)
	Get(ctx context.Context, id uint) (*dto.ResearchResponseDTO, error)
}

type HandlerInterface interface {
	Create(c *gin.Context)
	Update(c *gin.Context)
	SetStatus(c *gin.Context)
	Get(c *gin.Context)
}
