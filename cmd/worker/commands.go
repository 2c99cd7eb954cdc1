package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/joshu-sajeev/researchindex/internal/config"
	"github.com/joshu-sajeev/researchindex/internal/logging"
	"github.com/joshu-sajeev/researchindex/internal/models"
	"github.com/joshu-sajeev/researchindex/internal/pool"
	"github.com/joshu-sajeev/researchindex/internal/search"
	"github.com/joshu-sajeev/researchindex/internal/storage/postgres"
	"github.com/joshu-sajeev/researchindex/internal/worker"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// env is what every subcommand shares once the root pre-run has finished.
type env struct {
	app    *config.App
	log    *slog.Logger
	closer io.Closer
	db     *gorm.DB
}

func newRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:          "worker",
		Short:        "Research search index worker",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.init(cmd.Context())
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return e.close()
		},
	}

	root.AddCommand(
		newProcessCmd(e),
		newSweepCmd(e),
		newWatchCmd(e),
		newReindexCmd(e),
		newMigrateCmd(e),
	)
	return root
}

func (e *env) init(ctx context.Context) error {
	app, err := config.LoadAppFromEnv(ctx)
	if err != nil {
		return fmt.Errorf("load app config: %w", err)
	}
	e.app = app
	e.log, e.closer = logging.Setup(logging.Config{Level: app.LogLevel, Format: app.LogFormat, File: app.LogFile})

	dbCfg, err := postgres.LoadConfigFromEnv(ctx)
	if err != nil {
		return fmt.Errorf("load db config: %w", err)
	}

	e.db, err = postgres.ConnectDB(ctx, dbCfg)
	return err
}

func (e *env) close() error {
	if e.db != nil {
		if sqlDB, err := e.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	if e.closer != nil {
		return e.closer.Close()
	}
	return nil
}

// processor wires the queue processor. A bleve index is fed only when an
// on-disk path is configured and no API process holds it; opening a held
// index fails after search.DefaultOpenTimeout. An API serving from bleve
// picks up the completed jobs through its syncer either way.
func (e *env) processor() (*worker.Processor, func()) {
	opts := []worker.Option{worker.WithLogger(e.log)}
	cleanup := func() {}

	if e.app.SearchBackend == config.SearchBackendBleve && e.app.SearchIndexPath != "" {
		idx, err := search.OpenBleve(e.app.SearchIndexPath)
		if err != nil {
			e.log.Warn("search index not writable, leaving it to the api syncer",
				"path", e.app.SearchIndexPath, "error", err)
		} else {
			opts = append(opts, worker.WithIndex(idx))
			cleanup = func() { idx.Close() }
		}
	}

	p := worker.NewProcessor(
		postgres.NewIndexJobRepository(e.db),
		postgres.NewResearchRepository(e.db),
		worker.Backoff{Base: e.app.RetryBase},
		opts...,
	)
	return p, cleanup
}

func newProcessCmd(e *env) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Process one batch of due index jobs and print the counters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < config.MinBatchLimit || limit > config.MaxBatchLimit {
				return fmt.Errorf("--limit must be between %d and %d", config.MinBatchLimit, config.MaxBatchLimit)
			}

			p, cleanup := e.processor()
			defer cleanup()

			stats, err := p.ProcessPending(cmd.Context(), limit)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			return enc.Encode(map[string]int{
				"processed": stats.Processed,
				"completed": stats.Completed,
				"requeued":  stats.Requeued,
				"failed":    stats.Failed,
				"skipped":   stats.Skipped,
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", config.DefaultBatchLimit, "maximum number of jobs to process (1-200)")
	return cmd
}

func newSweepCmd(e *env) *cobra.Command {
	var staleAfter time.Duration

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Reclaim jobs stuck in processing longer than --stale-after",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if staleAfter <= 0 {
				staleAfter = e.app.StaleAfter
			}
			if staleAfter <= 0 {
				return fmt.Errorf("--stale-after or INDEX_STALE_AFTER must be positive")
			}

			p, cleanup := e.processor()
			defer cleanup()

			n, err := p.RecoverStale(cmd.Context(), staleAfter)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recovered %d stale jobs\n", n)
			return nil
		},
	}

	cmd.Flags().DurationVar(&staleAfter, "stale-after", 0, "processing age after which a job is reclaimed")
	return cmd
}

func newWatchCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Process due jobs every INDEX_POLL_INTERVAL until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, cleanup := e.processor()
			defer cleanup()

			s := pool.NewScheduler(p, pool.Config{
				Interval:   e.app.PollInterval,
				BatchLimit: e.app.BatchLimit,
				StaleAfter: e.app.StaleAfter,
			}, e.log)
			s.Start()

			<-cmd.Context().Done()
			s.Stop()
			return nil
		},
	}
}

func newReindexCmd(e *env) *cobra.Command {
	var (
		reason     string
		researchID uint
	)

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Enqueue an index job for one research item, or for every item",
		RunE: func(cmd *cobra.Command, _ []string) error {
			jobs := postgres.NewIndexJobRepository(e.db)

			if researchID > 0 {
				job := models.NewIndexJob(researchID, reason)
				if err := jobs.Create(cmd.Context(), job); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "enqueued index job %d for research %d\n", job.ID, researchID)
				return nil
			}

			n, err := jobs.EnqueueAll(cmd.Context(), reason, time.Now().UTC())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %d index jobs\n", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", config.ReasonReindex, "reason recorded on the jobs")
	cmd.Flags().UintVar(&researchID, "research-id", 0, "enqueue only this research item")
	return cmd
}

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return postgres.Migrate(cmd.Context(), e.db)
		},
	}
}
