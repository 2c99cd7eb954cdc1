package config

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Search backends understood by the API and worker.
const (
	SearchBackendBleve    = "bleve"
	SearchBackendPostgres = "postgres"
)

// App holds the service settings that are not database connection details.
type App struct {
	HTTPAddr       string        `env:"HTTP_ADDR,default=:8080"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT,default=10s"`

	BatchLimit   int           `env:"INDEX_BATCH_LIMIT,default=20"`
	RetryBase    time.Duration `env:"INDEX_RETRY_BASE,default=1m"`
	PollInterval time.Duration `env:"INDEX_POLL_INTERVAL,default=1m"`
	// StaleAfter is how long a job may sit in processing before the sweeper
	// reclaims it. Zero disables the sweeper.
	StaleAfter time.Duration `env:"INDEX_STALE_AFTER,default=0s"`
	Watch      bool          `env:"INDEX_WATCH,default=false"`

	// SearchBackend defaults to the relational full-text index, which every
	// processor writes to. bleve lives inside the API process.
	SearchBackend      string `env:"SEARCH_BACKEND,default=postgres"`
	SearchIndexPath    string `env:"SEARCH_INDEX_PATH"`
	SearchDefaultLimit int    `env:"SEARCH_DEFAULT_LIMIT,default=20"`
	SearchMaxLimit     int    `env:"SEARCH_MAX_LIMIT,default=50"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=json"`
	LogFile   string `env:"LOG_FILE"`
}

// to help with testing
var envProcess = envconfig.Process

func LoadAppFromEnv(ctx context.Context) (*App, error) {
	var cfg App
	if err := envProcess(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}

	if err := validateApp(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func validateApp(cfg *App) error {
	var errors []string

	if strings.TrimSpace(cfg.HTTPAddr) == "" {
		errors = append(errors, "HTTP_ADDR is required")
	}

	if cfg.RequestTimeout <= 0 {
		errors = append(errors, "REQUEST_TIMEOUT must be positive")
	}

	if cfg.BatchLimit < MinBatchLimit || cfg.BatchLimit > MaxBatchLimit {
		errors = append(errors, fmt.Sprintf("INDEX_BATCH_LIMIT must be between %d and %d", MinBatchLimit, MaxBatchLimit))
	}

	if cfg.RetryBase <= 0 {
		errors = append(errors, "INDEX_RETRY_BASE must be positive")
	}

	if cfg.PollInterval <= 0 {
		errors = append(errors, "INDEX_POLL_INTERVAL must be positive")
	}

	if cfg.StaleAfter < 0 {
		errors = append(errors, "INDEX_STALE_AFTER must not be negative")
	}

	if !slices.Contains([]string{SearchBackendBleve, SearchBackendPostgres}, cfg.SearchBackend) {
		errors = append(errors, "SEARCH_BACKEND must be bleve or postgres")
	}

	if cfg.SearchMaxLimit < 1 || cfg.SearchMaxLimit > MaxSearchLimit {
		errors = append(errors, fmt.Sprintf("SEARCH_MAX_LIMIT must be between 1 and %d", MaxSearchLimit))
	}

	if cfg.SearchDefaultLimit < 1 || cfg.SearchDefaultLimit > cfg.SearchMaxLimit {
		errors = append(errors, "SEARCH_DEFAULT_LIMIT must be between 1 and SEARCH_MAX_LIMIT")
	}

	if !slices.Contains([]string{"json", "text"}, strings.ToLower(cfg.LogFormat)) {
		errors = append(errors, "LOG_FORMAT must be json or text")
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}

	return nil
}
