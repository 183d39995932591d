// Package config loads server settings from the environment, with an optional YAML file underneath.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"casequery-backend/fallback"
	"casequery-backend/storage"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the query server.
// Environment variables override values read from CONFIG_FILE.
// Secrets only come from the environment.
type Config struct {
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`

	// Timezone resolves "hoje", "ontem" and week boundaries.
	Timezone string `yaml:"timezone" env:"TIMEZONE" env-default:"America/Sao_Paulo"`

	// DatasetPath is a spreadsheet loaded at startup. Empty means wait for an upload.
	DatasetPath string `yaml:"dataset_path" env:"DATASET_PATH" env-default:""`

	// DatasetFromDB serves the processos table instead of a file.
	DatasetFromDB bool `yaml:"dataset_from_db" env:"DATASET_FROM_DB" env-default:"false"`

	// MaxUploadBytes bounds dataset uploads.
	MaxUploadBytes int64 `yaml:"max_upload_bytes" env:"MAX_UPLOAD_BYTES" env-default:"20971520"`

	// AdminTokenHash is the bcrypt hash of the token allowed to replace the dataset.
	AdminTokenHash string `yaml:"-" env:"ADMIN_TOKEN_HASH"`

	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Redis    RedisConfig    `yaml:"redis"`
	Gemini   GeminiConfig   `yaml:"gemini"`
	Fallback FallbackConfig `yaml:"fallback"`
}

// DatabaseConfig holds the optional PostgreSQL connection.
type DatabaseConfig struct {
	URL string `yaml:"-" env:"DATABASE_URL" env-default:""`
}

// StorageConfig selects where uploaded spreadsheets are kept.
type StorageConfig struct {
	Type      string `yaml:"type" env:"STORAGE_TYPE" env-default:"local"`
	LocalPath string `yaml:"local_path" env:"STORAGE_LOCAL_PATH" env-default:"./storage/datasets"`
	S3Bucket  string `yaml:"s3_bucket" env:"S3_BUCKET" env-default:""`
	S3Region  string `yaml:"s3_region" env:"AWS_REGION" env-default:"us-east-1"`
	AccessKey string `yaml:"-" env:"AWS_ACCESS_KEY_ID"`
	SecretKey string `yaml:"-" env:"AWS_SECRET_ACCESS_KEY"`
}

// RedisConfig holds the optional shared answer cache. An empty Addr keeps answers in memory.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:""`
	Password string `yaml:"-" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	Prefix   string `yaml:"prefix" env:"REDIS_PREFIX" env-default:"casequery:"`
}

// GeminiConfig holds the generative model settings.
type GeminiConfig struct {
	APIKey string `yaml:"-" env:"GEMINI_API_KEY"`
	Model  string `yaml:"model" env:"GEMINI_MODEL" env-default:"gemini-1.5-pro"`
}

// FallbackConfig bounds calls to the generative model.
type FallbackConfig struct {
	RatePerMinute   int           `yaml:"rate_per_minute" env:"RATE_PER_MINUTE" env-default:"2"`
	RatePerDay      int           `yaml:"rate_per_day" env:"RATE_PER_DAY" env-default:"50"`
	MaxRetries      int           `yaml:"max_retries" env:"MAX_RETRIES" env-default:"3"`
	CacheTTL        time.Duration `yaml:"cache_ttl" env:"CACHE_TTL" env-default:"300s"`
	CacheMaxEntries int           `yaml:"cache_max_entries" env:"CACHE_MAX_ENTRIES" env-default:"10000"`
	Wait            time.Duration `yaml:"wait" env:"FALLBACK_WAIT" env-default:"20s"`
	Timeout         time.Duration `yaml:"generation_timeout" env:"GENERATION_TIMEOUT" env-default:"90s"`
	MaxPromptChars  int           `yaml:"max_prompt_chars" env:"MAX_PROMPT_CHARS" env-default:"30000"`
	QueueSize       int           `yaml:"queue_size" env:"FALLBACK_QUEUE_SIZE" env-default:"64"`
}

// Load reads .env (if any), then CONFIG_FILE (if set), then the environment.
func Load() (*Config, error) {
	// .env is optional; try the working directory first, then the project root from cmd/*
	if err := godotenv.Load(); err != nil {
		_ = godotenv.Load("../../.env")
	}

	cfg := &Config{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks values cleanenv cannot.
func (c *Config) Validate() error {
	var errs []error
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err))
	}
	switch storage.Type(c.Storage.Type) {
	case storage.TypeLocal:
	case storage.TypeS3:
		if c.Storage.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required when STORAGE_TYPE=s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_TYPE %q is not local or s3", c.Storage.Type))
	}
	if c.Fallback.RatePerMinute < 0 || c.Fallback.RatePerDay < 0 {
		errs = append(errs, errors.New("RATE_PER_MINUTE and RATE_PER_DAY must not be negative"))
	}
	if c.Fallback.MaxRetries < 1 {
		errs = append(errs, errors.New("MAX_RETRIES must be at least 1"))
	}
	if c.Fallback.Timeout <= 0 {
		errs = append(errs, errors.New("GENERATION_TIMEOUT must be positive"))
	}
	if c.DatasetFromDB && c.Database.URL == "" {
		errs = append(errs, errors.New("DATASET_FROM_DB requires DATABASE_URL"))
	}
	return errors.Join(errs...)
}

// Location returns the configured time zone. Validate has already checked it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// IsProduction reports whether ENVIRONMENT is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// StorageSettings converts to the storage package's config.
func (c *Config) StorageSettings() storage.Config {
	return storage.Config{
		Type:         storage.Type(c.Storage.Type),
		LocalPath:    c.Storage.LocalPath,
		S3Bucket:     c.Storage.S3Bucket,
		S3Region:     c.Storage.S3Region,
		AWSAccessKey: c.Storage.AccessKey,
		AWSSecretKey: c.Storage.SecretKey,
	}
}

// RateWindows returns the limiter windows. A zero quota disables that window.
func (c *Config) RateWindows() []fallback.Window {
	return []fallback.Window{
		fallback.PerMinute(c.Fallback.RatePerMinute),
		fallback.PerDay(c.Fallback.RatePerDay),
	}
}

// RetryConfig returns the retry policy for model calls.
func (c *Config) RetryConfig() fallback.RetryConfig {
	rc := fallback.DefaultRetryConfig()
	rc.MaxAttempts = c.Fallback.MaxRetries
	return rc
}
