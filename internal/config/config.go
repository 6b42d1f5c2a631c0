package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage driver names accepted by Load.
const (
	StorageDriverS3     = "s3"
	StorageDriverMemory = "memory"
)

// Config holds runtime configuration values for the exam API service.
type Config struct {
	AppName            string
	AppEnv             string
	AppPort            string
	StorageDriver      string
	S3Bucket           string
	S3Region           string
	S3Endpoint         string
	PublicBaseURL      string
	GradingSecret      string
	GradingWorkers     int
	GradingItemTimeout time.Duration
	AnswerKeyPath      string
	MaxUploadBytes     int64
	MaxArchiveBytes    int64
	SubmitRateLimit    int
	SubmitRateWindow   time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("EXAM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Exam API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("storage.driver", StorageDriverS3)
	v.SetDefault("s3.region", "eu-central-1")
	v.SetDefault("grading.workers", 4)
	v.SetDefault("grading.item_timeout", "30s")
	v.SetDefault("upload.max_mb", 10)
	v.SetDefault("archive.max_uncompressed_mb", 200)
	v.SetDefault("submit.rate_limit", 10)
	v.SetDefault("submit.rate_window", "1m")

	itemTimeout, err := time.ParseDuration(v.GetString("grading.item_timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid grading item timeout: %w", err)
	}

	rateWindow, err := time.ParseDuration(v.GetString("submit.rate_window"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid submit rate window: %w", err)
	}

	cfg := Config{
		AppName:            v.GetString("app.name"),
		AppEnv:             v.GetString("app.env"),
		AppPort:            v.GetString("app.port"),
		StorageDriver:      strings.ToLower(v.GetString("storage.driver")),
		S3Bucket:           v.GetString("s3.bucket"),
		S3Region:           v.GetString("s3.region"),
		S3Endpoint:         v.GetString("s3.endpoint"),
		PublicBaseURL:      v.GetString("storage.public_base_url"),
		GradingSecret:      v.GetString("grading.secret"),
		GradingWorkers:     v.GetInt("grading.workers"),
		GradingItemTimeout: itemTimeout,
		AnswerKeyPath:      v.GetString("answer_key.path"),
		MaxUploadBytes:     int64(v.GetInt("upload.max_mb")) * 1024 * 1024,
		MaxArchiveBytes:    int64(v.GetInt("archive.max_uncompressed_mb")) * 1024 * 1024,
		SubmitRateLimit:    v.GetInt("submit.rate_limit"),
		SubmitRateWindow:   rateWindow,
	}

	if cfg.GradingSecret == "" {
		return Config{}, fmt.Errorf("grading secret must be provided")
	}

	switch cfg.StorageDriver {
	case StorageDriverS3:
		if cfg.S3Bucket == "" {
			return Config{}, fmt.Errorf("s3 bucket must be provided for the s3 storage driver")
		}
	case StorageDriverMemory:
	default:
		return Config{}, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	if cfg.GradingWorkers <= 0 {
		cfg.GradingWorkers = 4
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 * 1024 * 1024
	}

	if cfg.MaxArchiveBytes <= 0 {
		cfg.MaxArchiveBytes = cfg.MaxUploadBytes * 20
	}

	return cfg, nil
}
