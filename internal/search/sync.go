package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joshu-sajeev/researchindex/internal/logging"
	"github.com/joshu-sajeev/researchindex/internal/models"
)

const syncPageSize = 500

// CompletedSource lists finished index jobs by completion time.
type CompletedSource interface {
	ListCompletedAfter(ctx context.Context, completedAt time.Time, id uint, limit int) ([]models.IndexJob, error)
}

// Syncer keeps a BleveIndex in step with jobs completed by processors that
// do not write to it, such as the worker CLI. Each pass re-indexes the items
// of jobs completed since the previous pass.
type Syncer struct {
	idx      *BleveIndex
	jobs     CompletedSource
	reader   ResearchReader
	lookback time.Duration
	log      *slog.Logger

	since time.Time
}

// NewSyncer starts the cursor at since, normally the moment warm-up began.
// lookback widens every pass to catch completions stamped by a processor
// whose clock runs behind.
func NewSyncer(idx *BleveIndex, jobs CompletedSource, reader ResearchReader, since time.Time, lookback time.Duration, log *slog.Logger) *Syncer {
	if log == nil {
		log = slog.Default()
	}
	return &Syncer{
		idx:      idx,
		jobs:     jobs,
		reader:   reader,
		lookback: lookback,
		since:    since.UTC(),
		log:      log.With("component", logging.CompSearch),
	}
}

// Sync runs one pass and returns the number of items refreshed.
func (s *Syncer) Sync(ctx context.Context) (int, error) {
	at, lastID := s.since.Add(-s.lookback), uint(0)
	latest := s.since
	total := 0

	for {
		jobs, err := s.jobs.ListCompletedAfter(ctx, at, lastID, syncPageSize)
		if err != nil {
			return total, fmt.Errorf("sync index: %w", err)
		}
		if len(jobs) == 0 {
			break
		}

		n, err := s.refresh(ctx, jobs)
		total += n
		if err != nil {
			return total, err
		}

		last := jobs[len(jobs)-1]
		at, lastID = *last.CompletedAt, last.ID
		if at.After(latest) {
			latest = at
		}
		if len(jobs) < syncPageSize {
			break
		}
	}

	s.since = latest
	if total > 0 {
		s.log.Info("search index synced", "items", total)
	}
	return total, nil
}

func (s *Syncer) refresh(ctx context.Context, jobs []models.IndexJob) (int, error) {
	seen := make(map[uint]bool, len(jobs))
	ids := make([]uint, 0, len(jobs))
	for _, j := range jobs {
		if !seen[j.ResearchID] {
			seen[j.ResearchID] = true
			ids = append(ids, j.ResearchID)
		}
	}

	rows, err := s.reader.FindByIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("sync index: %w", err)
	}
	if err := s.idx.IndexAll(ctx, rows); err != nil {
		return 0, fmt.Errorf("sync index: %w", err)
	}

	found := make(map[uint]bool, len(rows))
	for i := range rows {
		found[rows[i].ID] = true
	}
	for _, id := range ids {
		if found[id] {
			continue
		}
		if err := s.idx.Delete(ctx, id); err != nil {
			return len(rows), fmt.Errorf("sync index: %w", err)
		}
	}
	return len(ids), nil
}

// Run syncs every interval until ctx is done.
func (s *Syncer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sync(ctx); err != nil && ctx.Err() == nil {
				s.log.Error("search index sync failed", "error", err)
			}
		}
	}
}
