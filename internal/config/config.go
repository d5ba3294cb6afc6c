package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"fotoboek/internal/logging"
	"fotoboek/internal/workers"

	"github.com/joho/godotenv"
)

const (
	defaultLockTimeout     = time.Hour
	defaultIdleInterval    = 60 * time.Second
	defaultMetricsInterval = 30 * time.Second
	maxDefaultWorkers      = 8
	maxDefaultTranscode    = 16
)

// Config holds all application configuration
type Config struct {
	MediaSourcePath  string
	FileStoragePath  string
	DatabasePath     string
	NumWorkerThreads int
	TaskLockTimeout  time.Duration
	TranscodeThreads int
	IdleInterval     time.Duration
	MetricsInterval  time.Duration
	Port             string
	FFmpegPath       string

	S3 S3Config
}

// S3Config configures the optional object storage mirror. The mirror is
// disabled when Endpoint is empty.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// Enabled reports whether the mirror is configured.
func (c S3Config) Enabled() bool {
	return c.Endpoint != ""
}

// Load reads configuration from the environment, after merging a .env file
// from the working directory when one exists. Variables already set in the
// environment take precedence over .env values.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	return FromEnv()
}

// FromEnv builds and validates a Config from environment variables only.
func FromEnv() (*Config, error) {
	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	storage := getEnv("FILE_STORAGE_PATH", "/storage")

	cfg := &Config{
		MediaSourcePath:  getEnv("MEDIA_SOURCE_PATH", "/media"),
		FileStoragePath:  storage,
		DatabasePath:     getEnv("DATABASE_PATH", filepath.Join(storage, "fotoboek.db")),
		NumWorkerThreads: getEnvInt("NUM_WORKER_THREADS", workers.QueueWorkers(maxDefaultWorkers)),
		TaskLockTimeout:  time.Duration(getEnvInt("TASK_LOCK_TIMEOUT_SEC", int(defaultLockTimeout/time.Second))) * time.Second,
		TranscodeThreads: getEnvInt("TRANSCODE_THREADS", workers.EncoderThreads(maxDefaultTranscode)),
		IdleInterval:     getEnvDuration("IDLE_INTERVAL", defaultIdleInterval),
		MetricsInterval:  getEnvDuration("METRICS_INTERVAL", defaultMetricsInterval),
		Port:             getEnv("PORT", "8080"),
		FFmpegPath:       getEnv("FFMPEG_PATH", "ffmpeg"),
		S3: S3Config{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			Bucket:    getEnv("S3_BUCKET", "fotoboek"),
			Region:    os.Getenv("S3_REGION"),
			UseSSL:    getEnvBool("S3_USE_SSL", true),
		},
	}

	logging.Info("  MEDIA_SOURCE_PATH:     %s", cfg.MediaSourcePath)
	logging.Info("  FILE_STORAGE_PATH:     %s", cfg.FileStoragePath)
	logging.Info("  DATABASE_PATH:         %s", cfg.DatabasePath)
	logging.Info("  NUM_WORKER_THREADS:    %d", cfg.NumWorkerThreads)
	logging.Info("  TASK_LOCK_TIMEOUT_SEC: %d", int(cfg.TaskLockTimeout/time.Second))
	logging.Info("  TRANSCODE_THREADS:     %d", cfg.TranscodeThreads)
	logging.Info("  IDLE_INTERVAL:         %v", cfg.IdleInterval)
	logging.Info("  PORT:                  %s", cfg.Port)
	logging.Info("  FFMPEG_PATH:           %s", cfg.FFmpegPath)
	logging.Info("  LOG_LEVEL:             %s", logging.GetLevel())
	if cfg.S3.Enabled() {
		logging.Info("  S3 mirror:             %s/%s", cfg.S3.Endpoint, cfg.S3.Bucket)
	} else {
		logging.Info("  S3 mirror:             DISABLED")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.NumWorkerThreads < 1 {
		return fmt.Errorf("NUM_WORKER_THREADS must be at least 1, got %d", c.NumWorkerThreads)
	}
	if c.TaskLockTimeout <= 0 {
		return fmt.Errorf("TASK_LOCK_TIMEOUT_SEC must be positive")
	}
	if c.TranscodeThreads < 1 {
		return fmt.Errorf("TRANSCODE_THREADS must be at least 1, got %d", c.TranscodeThreads)
	}
	if c.IdleInterval <= 0 {
		return fmt.Errorf("IDLE_INTERVAL must be positive")
	}
	if c.S3.Enabled() && (c.S3.AccessKey == "" || c.S3.SecretKey == "") {
		return fmt.Errorf("S3_ACCESS_KEY and S3_SECRET_KEY are required when S3_ENDPOINT is set")
	}
	return nil
}

// PrepareDirectories resolves the configured paths to absolute form, checks
// the media source and makes sure the storage and database directories exist
// and are writable.
func (c *Config) PrepareDirectories() error {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	var err error
	for _, p := range []*string{&c.MediaSourcePath, &c.FileStoragePath, &c.DatabasePath} {
		if *p, err = filepath.Abs(*p); err != nil {
			return fmt.Errorf("failed to resolve path %s: %w", *p, err)
		}
	}

	info, err := os.Stat(c.MediaSourcePath)
	if err != nil {
		return fmt.Errorf("media source directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("media source %s is not a directory", c.MediaSourcePath)
	}
	logging.Info("  [OK] Media source: %s", c.MediaSourcePath)

	for _, dir := range []struct{ path, name string }{
		{c.FileStoragePath, "storage"},
		{filepath.Dir(c.DatabasePath), "database"},
	} {
		if err := ensureWritableDir(dir.path); err != nil {
			return fmt.Errorf("%s directory: %w", dir.name, err)
		}
		logging.Info("  [OK] %s directory is writable: %s", dir.name, dir.path)
	}

	return nil
}

func ensureWritableDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	testFile := filepath.Join(path, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return fmt.Errorf("not writable: %w", err)
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

// getEnvDuration accepts Go duration strings ("90s", "2m") and bare integers,
// which are read as seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		logging.Warn("Invalid duration value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
