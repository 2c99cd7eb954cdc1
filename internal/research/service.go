package research

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/joshu-sajeev/researchindex/common"
	"github.com/joshu-sajeev/researchindex/internal/config"
	"github.com/joshu-sajeev/researchindex/internal/dateparse"
	"github.com/joshu-sajeev/researchindex/internal/dto"
	"github.com/joshu-sajeev/researchindex/internal/models"
	"gorm.io/datatypes"
)

type Service struct {
	repo  Repository
	dates dateparse.Parser
	now   func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

var _ ServiceInterface = (*Service)(nil)

// Create validates a new research item, parses its publication date and
// stores it as pending. The index job is enqueued with the write.
func (s *Service) Create(ctx context.Context, req *dto.ResearchCreateDTO) (*dto.ResearchResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request canceled or timed out")
	}

	item, err := s.buildItem(req.Title, req.Author, req.AccessLevel, req.PublicationDate, req.Detail)
	if err != nil {
		return nil, err
	}
	item.UserID = req.UserID
	item.Status = config.ResearchStatusPending

	job, err := s.repo.Create(ctx, item, config.ReasonCreated)
	if err != nil {
		return nil, mapRepoError(err, "failed to create research")
	}

	resp := toResponse(item)
	resp.IndexJobID = job.ID
	return &resp, nil
}

// Update replaces the editable fields of an item and re-enqueues it.
func (s *Service) Update(ctx context.Context, id uint, req *dto.ResearchUpdateDTO) (*dto.ResearchResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request canceled or timed out")
	}

	item, err := s.buildItem(req.Title, req.Author, req.AccessLevel, req.PublicationDate, req.Detail)
	if err != nil {
		return nil, err
	}
	item.ID = id

	job, err := s.repo.Update(ctx, item, config.ReasonUpdated)
	if err != nil {
		return nil, mapRepoError(err, "failed to update research")
	}

	return s.reload(ctx, id, job)
}

// SetStatus moves an item through the moderation workflow.
func (s *Service) SetStatus(ctx context.Context, id uint, status string) (*dto.ResearchResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request canceled or timed out")
	}

	next := config.ResearchStatus(strings.ToLower(strings.TrimSpace(status)))
	if !next.Valid() {
		return nil, common.NewAPIError(http.StatusBadRequest, "invalid status",
			map[string]any{"provided": status, "allowed": config.AllowedResearchStatuses})
	}

	job, err := s.repo.SetStatus(ctx, id, next, s.now())
	if err != nil {
		return nil, mapRepoError(err, "failed to change research status")
	}

	return s.reload(ctx, id, job)
}

func (s *Service) Get(ctx context.Context, id uint) (*dto.ResearchResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request canceled or timed out")
	}
	return s.reload(ctx, id, nil)
}

func (s *Service) reload(ctx context.Context, id uint, job *models.IndexJob) (*dto.ResearchResponseDTO, error) {
	item, err := s.repo.GetWithDetail(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "failed to load research")
	}

	resp := toResponse(item)
	if job != nil {
		resp.IndexJobID = job.ID
	}
	return &resp, nil
}

func (s *Service) buildItem(title, author, access, published string, d dto.ResearchDetailDTO) (*models.Research, error) {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)
	if title == "" || author == "" {
		return nil, common.Errf(http.StatusBadRequest, "title and author are required")
	}

	level := config.AccessLevel(strings.ToLower(strings.TrimSpace(access)))
	if level == "" {
		level = config.AccessLevelPublic
	}
	if !level.Valid() {
		return nil, common.NewAPIError(http.StatusBadRequest, "invalid access level",
			map[string]any{"provided": access, "allowed": config.AllowedAccessLevels})
	}

	date, err := s.dates.Parse(published)
	if err != nil {
		return nil, common.NewAPIError(http.StatusBadRequest, "invalid publication date",
			map[string]any{"publication_date": published})
	}

	return &models.Research{
		Title:           title,
		Author:          author,
		AccessLevel:     level,
		PublicationDate: datatypes.Date(date),
		Detail: &models.ResearchDetail{
			KnowledgeType:       strings.TrimSpace(d.KnowledgeType),
			Publisher:           strings.TrimSpace(d.Publisher),
			ISBNISSN:            strings.TrimSpace(d.ISBNISSN),
			Subjects:            strings.TrimSpace(d.Subjects),
			PhysicalDescription: strings.TrimSpace(d.PhysicalDescription),
			Link:                strings.TrimSpace(d.Link),
		},
	}, nil
}

func mapRepoError(err error, fallback string) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return common.Errf(http.StatusRequestTimeout, "request timed out")
	case errors.Is(err, common.ErrResearchNotFound):
		return common.Errf(http.StatusNotFound, "research not found")
	case errors.Is(err, common.ErrInvalidTransition):
		return common.Errf(http.StatusConflict, "%s", err.Error())
	default:
		return common.Errf(http.StatusInternalServerError, "%s", fallback)
	}
}

func toResponse(r *models.Research) dto.ResearchResponseDTO {
	resp := dto.ResearchResponseDTO{
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		Author:      r.Author,
		Status:      string(r.Status),
		AccessLevel: string(r.AccessLevel),
		ApprovedAt:  r.ApprovedAt,
		RejectedAt:  r.RejectedAt,
		ArchivedAt:  r.ArchivedAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if pd := time.Time(r.PublicationDate); !pd.IsZero() {
		resp.PublicationDate = pd.Format("2006-01-02")
	}
	if d := r.Detail; d != nil {
		resp.Detail = dto.ResearchDetailDTO{
			KnowledgeType:       d.KnowledgeType,
			Publisher:           d.Publisher,
			ISBNISSN:            d.ISBNISSN,
			Subjects:            d.Subjects,
			PhysicalDescription: d.PhysicalDescription,
			Link:                d.Link,
		}
	}
	return resp
}
