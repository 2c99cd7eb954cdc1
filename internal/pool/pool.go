package pool

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/joshu-sajeev/researchindex/internal/logging"
	"github.com/joshu-sajeev/researchindex/internal/worker"
)

// Batcher is the processor surface the scheduler drives.
type Batcher interface {
	ProcessPending(ctx context.Context, limit int) (worker.Stats, error)
	RecoverStale(ctx context.Context, staleAfter time.Duration) (int, error)
}

type Config struct {
	Interval   time.Duration
	BatchLimit int
	// StaleAfter enables the janitor when positive.
	StaleAfter time.Duration
}

// Scheduler runs a processing batch every interval and, when configured, a
// janitor that reclaims jobs orphaned by a crashed processor.
type Scheduler struct {
	proc   Batcher
	cfg    Config
	log    *slog.Logger
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(proc Batcher, cfg Config, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		proc:   proc,
		cfg:    cfg,
		log:    log.With("component", logging.CompPool),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.loop()

	if s.cfg.StaleAfter > 0 {
		s.wg.Add(1)
		go s.janitor()
	}
	s.log.Info("scheduler started", "interval", s.cfg.Interval, "limit", s.cfg.BatchLimit, "stale_after", s.cfg.StaleAfter)
}

func (s *Scheduler) loop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		s.runBatch()

		select {
		case <-ticker.C:
		case <-s.ctx.Done():
			return
		}
	}
}

// runBatch keeps draining while full batches come back.
func (s *Scheduler) runBatch() {
	for s.ctx.Err() == nil {
		stats, err := s.proc.ProcessPending(s.ctx, s.cfg.BatchLimit)
		if err != nil {
			if s.ctx.Err() == nil {
				s.log.Error("batch failed", "error", err)
			}
			return
		}
		if stats.Processed+stats.Skipped < s.cfg.BatchLimit {
			return
		}
	}
}

func (s *Scheduler) janitor() {
	defer s.wg.Done()
	ticker := time.NewTicker(max(s.cfg.StaleAfter/2, time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := s.proc.RecoverStale(s.ctx, s.cfg.StaleAfter)
			if err != nil {
				if s.ctx.Err() == nil {
					s.log.Error("stale recovery failed", "error", err)
				}
				continue
			}
			if n > 0 {
				s.log.Warn("recovered stale jobs", "count", n)
			}
		case <-s.ctx.Done():
			return
		}
	}
}

// Stop cancels the loops and waits for the in-flight batch to return.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	s.log.Info("scheduler stopped")
}
