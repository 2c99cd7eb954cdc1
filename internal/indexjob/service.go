package indexjob

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/joshu-sajeev/researchindex/common"
	"github.com/joshu-sajeev/researchindex/internal/config"
	"github.com/joshu-sajeev/researchindex/internal/dto"
	"github.com/joshu-sajeev/researchindex/internal/models"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type Service struct {
	repo   Repository
	runner Runner
	now    func() time.Time
}

func NewService(repo Repository, runner Runner) *Service {
	return &Service{repo: repo, runner: runner, now: func() time.Time { return time.Now().UTC() }}
}

var _ ServiceInterface = (*Service)(nil)

// Enqueue validates a manual enqueue request, applies the queue defaults and
// persists a new pending job. This is also how a terminally failed item is
// reworked: a fresh job, never a resurrected one.
func (s *Service) Enqueue(ctx context.Context, req *dto.IndexJobCreateDTO) (*dto.IndexJobResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request canceled or timed out")
	}

	if req.ResearchID == 0 {
		return nil, common.Errf(http.StatusBadRequest, "research_id is required")
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = config.ReasonManual
	}

	job := models.NewIndexJob(req.ResearchID, reason)

	if req.Priority != nil {
		if *req.Priority < 0 {
			return nil, common.NewAPIError(http.StatusBadRequest, "invalid priority",
				map[string]any{"provided": *req.Priority})
		}
		job.Priority = *req.Priority
	}

	if req.MaxAttempts != nil {
		if *req.MaxAttempts < 1 || *req.MaxAttempts > config.MaxJobMaxAttempts {
			return nil, common.NewAPIError(http.StatusBadRequest, "invalid max_attempts",
				map[string]any{"provided": *req.MaxAttempts, "min": 1, "max": config.MaxJobMaxAttempts})
		}
		job.MaxAttempts = *req.MaxAttempts
	}

	if err := s.repo.Create(ctx, job); err != nil {
		if timedOut(err) {
			return nil, common.Errf(http.StatusRequestTimeout, "request timeout")
		}
		return nil, common.Errf(http.StatusInternalServerError, "failed to enqueue index job")
	}

	resp := toResponse(job)
	return &resp, nil
}

// EnqueueAll schedules a rebuild of every research item.
func (s *Service) EnqueueAll(ctx context.Context, reason string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, common.Errf(http.StatusRequestTimeout, "request canceled or timed out")
	}

	if strings.TrimSpace(reason) == "" {
		reason = config.ReasonReindex
	}

	n, err := s.repo.EnqueueAll(ctx, reason, s.now())
	if err != nil {
		if timedOut(err) {
			return 0, common.Errf(http.StatusRequestTimeout, "request timeout")
		}
		return 0, common.Errf(http.StatusInternalServerError, "failed to enqueue index jobs")
	}
	return n, nil
}

// GetJobByID retrieves a job by its ID and maps repository errors to API errors.
func (s *Service) GetJobByID(ctx context.Context, id uint) (*dto.IndexJobResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request timed out")
	}

	job, err := s.repo.Get(ctx, id)
	if err != nil {
		switch {
		case timedOut(err):
			return nil, common.Errf(http.StatusRequestTimeout, "request timed out")
		case errors.Is(err, common.ErrJobNotFound):
			return nil, common.Errf(http.StatusNotFound, "index job not found")
		default:
			return nil, common.Errf(http.StatusInternalServerError, "failed to get index job")
		}
	}

	resp := toResponse(job)
	return &resp, nil
}

// ListJobs returns the newest jobs, optionally restricted to one status.
func (s *Service) ListJobs(ctx context.Context, status string, limit int) ([]dto.IndexJobResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request timed out")
	}

	st := config.JobStatus(strings.ToLower(strings.TrimSpace(status)))
	if st != "" && !st.Valid() {
		return nil, common.NewAPIError(http.StatusBadRequest, "invalid status",
			map[string]any{"provided": status, "allowed": config.AllowedJobStatuses})
	}

	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}

	jobs, err := s.repo.List(ctx, st, limit)
	if err != nil {
		if timedOut(err) {
			return nil, common.Errf(http.StatusRequestTimeout, "request timed out")
		}
		return nil, common.Errf(http.StatusInternalServerError, "failed to list index jobs")
	}

	dtos := make([]dto.IndexJobResponseDTO, len(jobs))
	for i := range jobs {
		dtos[i] = toResponse(&jobs[i])
	}
	return dtos, nil
}

// Stats reports how many jobs sit in each status.
func (s *Service) Stats(ctx context.Context) (*dto.IndexJobStatsDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request timed out")
	}

	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		if timedOut(err) {
			return nil, common.Errf(http.StatusRequestTimeout, "request timed out")
		}
		return nil, common.Errf(http.StatusInternalServerError, "failed to count index jobs")
	}

	return &dto.IndexJobStatsDTO{
		Pending:    counts[config.JobStatusPending],
		Processing: counts[config.JobStatusProcessing],
		Completed:  counts[config.JobStatusCompleted],
		Failed:     counts[config.JobStatusFailed],
	}, nil
}

// Process runs one processing batch. A limit outside the allowed range is a
// usage error and no job is touched.
func (s *Service) Process(ctx context.Context, limit int) (*dto.ProcessResultDTO, error) {
	if limit < config.MinBatchLimit || limit > config.MaxBatchLimit {
		return nil, common.NewAPIError(http.StatusBadRequest, "invalid limit",
			map[string]any{"provided": limit, "min": config.MinBatchLimit, "max": config.MaxBatchLimit})
	}

	stats, err := s.runner.ProcessPending(ctx, limit)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidLimit):
			return nil, common.Errf(http.StatusBadRequest, "invalid limit")
		case timedOut(err):
			return nil, common.Errf(http.StatusRequestTimeout, "request timed out")
		default:
			return nil, common.Errf(http.StatusInternalServerError, "failed to process index jobs")
		}
	}

	return &dto.ProcessResultDTO{
		Processed: stats.Processed,
		Completed: stats.Completed,
		Requeued:  stats.Requeued,
		Failed:    stats.Failed,
		Skipped:   stats.Skipped,
	}, nil
}

func timedOut(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

func toResponse(job *models.IndexJob) dto.IndexJobResponseDTO {
	resp := dto.IndexJobResponseDTO{
		ID:           job.ID,
		ResearchID:   job.ResearchID,
		Status:       string(job.Status),
		Reason:       job.Reason,
		AttemptCount: job.AttemptCount,
		MaxAttempts:  job.MaxAttempts,
		Priority:     job.Priority,
		NextRetryAt:  job.NextRetryAt,
		StartedAt:    job.StartedAt,
		CompletedAt:  job.CompletedAt,
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
	}
	if job.LastError != nil {
		resp.LastError = *job.LastError
	}
	return resp
}
