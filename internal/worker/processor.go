package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joshu-sajeev/researchindex/common"
	"github.com/joshu-sajeev/researchindex/internal/config"
	"github.com/joshu-sajeev/researchindex/internal/logging"
	"github.com/joshu-sajeev/researchindex/internal/models"
	"github.com/joshu-sajeev/researchindex/internal/searchtext"
)

const staleTimeoutMessage = "processing timed out"

// Stats counts the outcomes of one processing batch. Processed is the number
// of jobs this processor claimed; Skipped counts jobs lost to a concurrent claim.
type Stats struct {
	Processed int
	Completed int
	Requeued  int
	Failed    int
	Skipped   int
}

func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("processed", s.Processed),
		slog.Int("completed", s.Completed),
		slog.Int("requeued", s.Requeued),
		slog.Int("failed", s.Failed),
		slog.Int("skipped", s.Skipped),
	)
}

type Processor struct {
	jobs     JobStore
	research ResearchStore
	index    DocumentIndex
	backoff  Backoff
	now      func() time.Time
	log      *slog.Logger
}

type Option func(*Processor)

// WithIndex mirrors every rebuilt item into an external relevance index.
func WithIndex(idx DocumentIndex) Option {
	return func(p *Processor) { p.index = idx }
}

func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) { p.log = l }
}

func NewProcessor(jobs JobStore, research ResearchStore, backoff Backoff, opts ...Option) *Processor {
	p := &Processor{
		jobs:     jobs,
		research: research,
		backoff:  backoff,
		now:      func() time.Time { return time.Now().UTC() },
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With("component", logging.CompWorker)
	return p
}

// ProcessPending claims up to limit due jobs in priority order and rebuilds
// the search text of each. One job failing never aborts the batch; only a
// failure to read the queue itself is returned.
func (p *Processor) ProcessPending(ctx context.Context, limit int) (Stats, error) {
	var stats Stats

	if limit < config.MinBatchLimit || limit > config.MaxBatchLimit {
		return stats, fmt.Errorf("limit %d outside %d..%d: %w",
			limit, config.MinBatchLimit, config.MaxBatchLimit, common.ErrInvalidLimit)
	}

	jobs, err := p.jobs.ListDue(ctx, p.now(), limit)
	if err != nil {
		return stats, fmt.Errorf("list due jobs: %w", err)
	}

	for i := range jobs {
		if err := ctx.Err(); err != nil {
			p.log.Warn("batch interrupted", "remaining", len(jobs)-i, "stats", stats)
			return stats, err
		}
		p.processOne(ctx, jobs[i].ID, &stats)
	}

	if stats.Processed > 0 || stats.Skipped > 0 {
		p.log.Info("batch finished", "stats", stats)
	}
	return stats, nil
}

func (p *Processor) processOne(ctx context.Context, id uint, stats *Stats) {
	job, err := p.jobs.Claim(ctx, id, p.now())
	if err != nil {
		if errors.Is(err, common.ErrJobClaimConflict) {
			stats.Skipped++
			p.log.Debug("job claimed elsewhere", "job_id", id)
			return
		}
		// Not claimed, so nothing to record against the job.
		stats.Skipped++
		p.log.Warn("claim failed", "job_id", id, "error", err)
		return
	}
	stats.Processed++

	if err := p.rebuild(ctx, job); err != nil {
		p.fail(ctx, job, err, stats)
		return
	}

	if err := p.jobs.Complete(ctx, job.ID, p.now()); err != nil {
		if errors.Is(err, common.ErrJobClaimConflict) {
			p.log.Warn("job reclaimed before completion", "job_id", job.ID)
			return
		}
		p.fail(ctx, job, fmt.Errorf("complete job: %w", err), stats)
		return
	}
	stats.Completed++
}

// rebuild refreshes search_text for the job's research item. An item that no
// longer exists is not an error: there is nothing left to index.
func (p *Processor) rebuild(ctx context.Context, job *models.IndexJob) error {
	r, err := p.research.GetWithDetail(ctx, job.ResearchID)
	if err != nil {
		if errors.Is(err, common.ErrResearchNotFound) {
			p.log.Info("research gone, nothing to index", "job_id", job.ID, "research_id", job.ResearchID)
			if p.index != nil {
				if err := p.index.Delete(ctx, job.ResearchID); err != nil {
					return fmt.Errorf("drop from index: %w", err)
				}
			}
			return nil
		}
		return fmt.Errorf("load research %d: %w", job.ResearchID, err)
	}

	text := searchtext.Build(r.Detail)
	if err := p.research.SaveSearchText(ctx, r.ID, text); err != nil {
		return fmt.Errorf("save search text: %w", err)
	}

	if p.index != nil {
		if r.Detail == nil {
			r.Detail = &models.ResearchDetail{ResearchID: r.ID}
		}
		r.Detail.SearchText = text
		if err := p.index.Index(ctx, r); err != nil {
			return fmt.Errorf("index research %d: %w", r.ID, err)
		}
	}
	return nil
}

func (p *Processor) fail(ctx context.Context, job *models.IndexJob, cause error, stats *Stats) {
	outcome := job.Failure(cause.Error(), p.now(), p.backoff.Delay)

	if err := p.jobs.RecordFailure(ctx, job.ID, outcome); err != nil {
		p.log.Error("record failure", "job_id", job.ID, "cause", cause, "error", err)
		return
	}

	if outcome.Status == config.JobStatusFailed {
		stats.Failed++
		p.log.Error("job failed permanently",
			"job_id", job.ID, "research_id", job.ResearchID,
			"attempts", outcome.AttemptCount, "error", cause)
		return
	}

	stats.Requeued++
	p.log.Warn("job requeued",
		"job_id", job.ID, "research_id", job.ResearchID,
		"attempts", outcome.AttemptCount, "next_retry_at", outcome.NextRetryAt, "error", cause)
}

// RecoverStale reclaims jobs left in processing longer than staleAfter by a
// crashed processor. Each reclaim counts as a failed attempt, so a job that
// keeps crashing its processor still ends up failed.
func (p *Processor) RecoverStale(ctx context.Context, staleAfter time.Duration) (int, error) {
	if staleAfter <= 0 {
		return 0, nil
	}

	now := p.now()
	cutoff := now.Add(-staleAfter)

	jobs, err := p.jobs.ListStale(ctx, cutoff, config.MaxBatchLimit)
	if err != nil {
		return 0, fmt.Errorf("list stale jobs: %w", err)
	}

	released := 0
	for i := range jobs {
		job := &jobs[i]
		outcome := job.Failure(staleTimeoutMessage, now, p.backoff.Delay)

		if err := p.jobs.ReleaseStale(ctx, job.ID, cutoff, outcome); err != nil {
			if errors.Is(err, common.ErrJobClaimConflict) {
				continue
			}
			return released, fmt.Errorf("release stale job %d: %w", job.ID, err)
		}

		released++
		p.log.Warn("recovered stale job", "job_id", job.ID, "status", outcome.Status, "attempts", outcome.AttemptCount)
	}
	return released, nil
}
