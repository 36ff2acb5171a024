package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// LoadEnv loads variables from the given files (".env" when none are given).
// Variables already set in the process environment win.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	return godotenv.Load(files...)
}

func GetEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func GetEnvOrDefault(key, fallback string) string {
	if value := GetEnv(key); value != "" {
		return value
	}
	Logger.Warn("Environment variable not set, using default", zap.String("key", key), zap.String("default", fallback))
	return fallback
}

func GetEnvInt(key string, fallback int) int {
	raw := GetEnv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		Logger.Error("Invalid integer environment variable, using default",
			zap.String("key", key), zap.String("value", raw), zap.Error(err))
		return fallback
	}
	return value
}

// GetEnvDuration parses values such as "24h" or "90m".
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := GetEnv(key)
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		Logger.Error("Invalid duration environment variable, using default",
			zap.String("key", key), zap.String("value", raw), zap.Error(err))
		return fallback
	}
	return value
}
