package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestLoadConfigFromEnv(t *testing.T) {
	tests := []struct {
		name          string
		setupEnv      func(context.Context, *Config) error
		expectError   bool
		errorContains string
		validate      func(*testing.T, *Config)
	}{
		{
			name: "valid configuration with defaults",
			setupEnv: func(ctx context.Context, cfg *Config) error {
				cfg.User = "testuser"
				cfg.Password = "testpass"
				cfg.Host = "localhost"
				cfg.Port = "5432"
				cfg.Database = "testdb"
				cfg.MaxRetries = 10
				cfg.RetryDelay = 2 * time.Second
				cfg.ConnectTimeout = 5
				cfg.LogLevelString = "warn"
				return nil
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "testuser", cfg.User)
				assert.Equal(t, 10, cfg.MaxRetries)
				assert.Equal(t, 2*time.Second, cfg.RetryDelay)
				assert.Equal(t, logger.Warn, cfg.LogLevel)
			},
		},
		{
			name: "missing required POSTGRES_USER",
			setupEnv: func(ctx context.Context, cfg *Config) error {
				return errors.New("env: POSTGRES_USER is required but not set")
			},
			expectError:   true,
			errorContains: "failed to process env config",
		},
		{
			name: "custom values override defaults",
			setupEnv: func(ctx context.Context, cfg *Config) error {
				cfg.User = "customuser"
				cfg.Password = "custompass"
				cfg.Host = "db.example.com"
				cfg.Port = "6432"
				cfg.Database = "customdb"
				cfg.MaxRetries = 5
				cfg.RetryDelay = 5 * time.Second
				cfg.ConnectTimeout = 10
				cfg.LogLevelString = "info"
				return nil
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 5, cfg.MaxRetries)
				assert.Equal(t, 5*time.Second, cfg.RetryDelay)
				assert.Equal(t, logger.Info, cfg.LogLevel)
			},
		},
		{
			name: "validation error after successful env processing",
			setupEnv: func(ctx context.Context, cfg *Config) error {
				cfg.User = ""
				cfg.Password = "testpass"
				cfg.Host = "localhost"
				cfg.Port = "5432"
				cfg.Database = "testdb"
				cfg.MaxRetries = 10
				cfg.RetryDelay = 2 * time.Second
				return nil
			},
			expectError:   true,
			errorContains: "config validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			originalEnvProcess := envProcess
			defer func() { envProcess = originalEnvProcess }()

			envProcess = func(ctx context.Context, v any, mus ...envconfig.Mutator) error {
				return tt.setupEnv(ctx, v.(*Config))
			}

			cfg, err := LoadConfigFromEnv(context.Background())

			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}

			require.NoError(t, err)
			if tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			User:       "user",
			Password:   "pass",
			Host:       "localhost",
			Port:       "5432",
			Database:   "db",
			MaxRetries: 10,
			RetryDelay: 2 * time.Second,
		}
	}

	tests := []struct {
		name          string
		mutate        func(*Config)
		errorContains []string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:          "empty user",
			mutate:        func(c *Config) { c.User = "" },
			errorContains: []string{"POSTGRES_USER is required"},
		},
		{
			name:          "non numeric port",
			mutate:        func(c *Config) { c.Port = "abc" },
			errorContains: []string{"POSTGRES_PORT must be a valid number"},
		},
		{
			name: "multiple problems are joined",
			mutate: func(c *Config) {
				c.Port = "70000"
				c.RetryDelay = 0
				c.MaxRetries = -1
			},
			errorContains: []string{
				"POSTGRES_PORT must be between 1 and 65535",
				"DB_MAX_RETRIES must be non-negative",
				"DB_RETRY_DELAY must be positive",
			},
		},
		{
			name:          "retry delay too large",
			mutate:        func(c *Config) { c.RetryDelay = time.Hour },
			errorContains: []string{"DB_RETRY_DELAY must not exceed 10 minutes"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := validateConfig(cfg)
			if len(tt.errorContains) == 0 {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			for _, substr := range tt.errorContains {
				assert.Contains(t, err.Error(), substr)
			}
		})
	}
}

func TestSimplifyDBError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"password authentication failed", errors.New("pq: password authentication failed for user"), "invalid database credentials"},
		{"i/o timeout", errors.New("dial tcp: i/o timeout"), "database connection timed out"},
		{"connection refused", errors.New("connect: connection refused"), "cannot reach database server"},
		{"SASL authentication error", errors.New("SASL authentication failed"), "authentication error"},
		{"empty error message", errors.New(""), "database error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, simplifyDBError(tt.err))
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected logger.LogLevel
	}{
		{"silent", logger.Silent},
		{"ERROR", logger.Error},
		{"warn", logger.Warn},
		{"info", logger.Info},
		{"verbose", logger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLogLevel(tt.input))
		})
	}
}

func TestConnectDB_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := &Config{
		User:           "testuser",
		Password:       "testpass",
		Host:           "localhost",
		Port:           "5432",
		Database:       "testdb",
		MaxRetries:     3,
		RetryDelay:     100 * time.Millisecond,
		ConnectTimeout: 1,
		LogLevel:       logger.Silent,
	}

	_, err := ConnectDB(ctx, cfg)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfig_DSN(t *testing.T) {
	cfg := &Config{
		User:           "myuser",
		Password:       "mypassword",
		Host:           "db.example.com",
		Port:           "5432",
		Database:       "mydb",
		ConnectTimeout: 5,
	}

	assert.Equal(t,
		"host=db.example.com user=myuser password=mypassword dbname=mydb port=5432 sslmode=disable TimeZone=UTC connect_timeout=5",
		cfg.DSN())

	cfg.ConnectTimeout = 0
	assert.NotContains(t, cfg.DSN(), "connect_timeout")
}
