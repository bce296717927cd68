package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/SAP-F-2025/assessment-review/internal/utils"
)

type Config struct {
	Environment string
	LogLevel    string
	LogFormat   string
	MaxDepth    int
	TaskFile    string
	Viewer      ViewerConfig
}

// LoadConfig reads .env when present, then the environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	environment := getEnv("ENVIRONMENT", "development")
	defaultFormat := "json"
	if environment == "development" {
		defaultFormat = "text"
	}

	maxDepth, err := getEnvInt("BUS_MAX_DEPTH", 0)
	if err != nil {
		return nil, err
	}
	buffer, err := getEnvInt("VIEWER_BUFFER", 64)
	if err != nil {
		return nil, err
	}
	if maxDepth < 0 || buffer < 0 {
		return nil, fmt.Errorf("BUS_MAX_DEPTH and VIEWER_BUFFER must not be negative")
	}

	return &Config{
		Environment: environment,
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", defaultFormat),
		MaxDepth:    maxDepth,
		TaskFile:    getEnv("TASK_FILE", ""),
		Viewer: ViewerConfig{
			Transport:   getEnv("VIEWER_TRANSPORT", TransportGoChannel),
			TopicPrefix: getEnv("VIEWER_TOPIC_PREFIX", "viewer."),
			Buffer:      int64(buffer),
		},
	}, nil
}

// NewLogger builds the application logger on stdout.
func (c *Config) NewLogger() utils.Logger {
	return utils.NewLogger(os.Stdout, c.LogLevel, c.LogFormat).With("environment", c.Environment)
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
