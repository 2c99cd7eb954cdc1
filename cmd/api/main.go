package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshu-sajeev/researchindex/internal/config"
	"github.com/joshu-sajeev/researchindex/internal/indexjob"
	"github.com/joshu-sajeev/researchindex/internal/logging"
	"github.com/joshu-sajeev/researchindex/internal/pool"
	"github.com/joshu-sajeev/researchindex/internal/research"
	"github.com/joshu-sajeev/researchindex/internal/search"
	"github.com/joshu-sajeev/researchindex/internal/storage/postgres"
	"github.com/joshu-sajeev/researchindex/internal/worker"
	"github.com/joshu-sajeev/researchindex/middleware"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := config.LoadAppFromEnv(ctx)
	if err != nil {
		return fmt.Errorf("load app config: %w", err)
	}

	log, closer := logging.Setup(logging.Config{Level: app.LogLevel, Format: app.LogFormat, File: app.LogFile})
	defer closer.Close()

	dbCfg, err := postgres.LoadConfigFromEnv(ctx)
	if err != nil {
		return fmt.Errorf("load db config: %w", err)
	}

	db, err := postgres.ConnectDB(ctx, dbCfg)
	if err != nil {
		return err
	}

	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}

	jobRepo := postgres.NewIndexJobRepository(db)
	researchRepo := postgres.NewResearchRepository(db)

	opts := []worker.Option{worker.WithLogger(log)}

	var (
		backend search.Backend
		syncer  *search.Syncer
	)
	switch app.SearchBackend {
	case config.SearchBackendBleve:
		idx, err := search.OpenBleve(app.SearchIndexPath)
		if err != nil {
			return err
		}
		defer idx.Close()

		// Jobs finished by external workers after this point reach the index
		// through the syncer.
		warmStart := time.Now().UTC()
		n, err := search.Warm(ctx, idx, researchRepo)
		if err != nil {
			return err
		}
		log.Info("search index warmed", "documents", n, "path", app.SearchIndexPath)

		backend = idx
		syncer = search.NewSyncer(idx, jobRepo, researchRepo, warmStart, app.PollInterval, log)
		opts = append(opts, worker.WithIndex(idx))
	default:
		backend = postgres.NewSearchRepository(db)
	}

	processor := worker.NewProcessor(jobRepo, researchRepo, worker.Backoff{Base: app.RetryBase}, opts...)
	engine := search.NewEngine(backend, researchRepo,
		search.WithLimits(app.SearchDefaultLimit, app.SearchMaxLimit),
		search.WithLogger(log))

	jobHandler := indexjob.NewHandler(indexjob.NewService(jobRepo, processor))
	researchHandler := research.NewHandler(research.NewService(researchRepo))
	searchHandler := search.NewHandler(engine)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(),
		middleware.RequestLogger(log),
		middleware.TimeoutMiddleware(app.RequestTimeout),
		middleware.ErrorHandler())

	r.GET("/research/search", searchHandler.Public)
	r.GET("/admin/research/search", searchHandler.Admin)

	r.POST("/research", researchHandler.Create)
	r.GET("/research/:id", researchHandler.Get)
	r.PUT("/research/:id", researchHandler.Update)
	r.PATCH("/research/:id/status", researchHandler.SetStatus)

	r.POST("/index-jobs", jobHandler.Create)
	r.GET("/index-jobs", jobHandler.List)
	r.GET("/index-jobs/stats", jobHandler.Stats)
	r.GET("/index-jobs/:id", jobHandler.Get)
	r.POST("/index-jobs/process", jobHandler.Process)

	srv := &http.Server{
		Addr:              app.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server listening", "addr", app.HTTPAddr, "search_backend", app.SearchBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if syncer != nil {
		g.Go(func() error {
			syncer.Run(gctx, app.PollInterval)
			return nil
		})
	}

	if app.Watch {
		scheduler := pool.NewScheduler(processor, pool.Config{
			Interval:   app.PollInterval,
			BatchLimit: app.BatchLimit,
			StaleAfter: app.StaleAfter,
		}, log)
		scheduler.Start()

		g.Go(func() error {
			<-gctx.Done()
			scheduler.Stop()
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
