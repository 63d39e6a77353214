package config

import (
	"os"
	"strconv"
	"time"
)

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv(cfg *Config) {
	if level := os.Getenv("HARBORWATCH_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if format := os.Getenv("HARBORWATCH_LOG_FORMAT"); format != "" {
		cfg.Log.Format = format
	}

	// Database settings
	if driver := os.Getenv("HARBORWATCH_DB_DRIVER"); driver != "" {
		cfg.Database.Driver = driver
	}
	cfg.Database.Host = GetEnvOrDefault("HARBORWATCH_DB_HOST", cfg.Database.Host)
	if port := os.Getenv("HARBORWATCH_DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Database.Port = p
		}
	}
	cfg.Database.Database = GetEnvOrDefault("HARBORWATCH_DB_NAME", cfg.Database.Database)
	cfg.Database.User = GetEnvOrDefault("HARBORWATCH_DB_USER", cfg.Database.User)
	cfg.Database.Password = GetEnvOrDefault("HARBORWATCH_DB_PASSWORD", cfg.Database.Password)
	cfg.Database.SSLMode = GetEnvOrDefault("HARBORWATCH_DB_SSLMODE", cfg.Database.SSLMode)

	// Load settings
	if rate := os.Getenv("HARBORWATCH_STORAGE_OPS_PER_SECOND"); rate != "" {
		if r, err := strconv.ParseFloat(rate, 64); err == nil {
			cfg.Load.StorageOpsPerSecond = r
		}
	}
	if workers := os.Getenv("HARBORWATCH_STRESS_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil {
			cfg.Load.StressWorkers = w
		}
	}

	if interval := os.Getenv("HARBORWATCH_SNAPSHOT_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			cfg.Snapshot.Interval = d
		}
	}
}

// GetEnvOrDefault returns environment variable or default value
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
