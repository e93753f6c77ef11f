// Package config contains everything related to configuration
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/j-veylop/relaywatch-tui/internal/logger"
)

// Config holds the application configuration.
type Config struct {
	DataDir                string
	DatabasePath           string
	StationsPath           string
	LogFile                string
	DefaultProxyURL        string
	EnvFile                string
	BalanceRefreshInterval time.Duration
	LowBalanceThreshold    float64
	LogLevel               slog.Level
}

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// First .env found wins; real environment variables are never overridden.
	var envFile string
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", path, err)
			}
			envFile = path
			break
		}
	}

	dataDir := getEnvString(EnvDataDir, getDefaultDataDir())

	cfg := &Config{
		DataDir:                dataDir,
		DatabasePath:           getEnvString(EnvDatabasePath, filepath.Join(dataDir, defaultDatabaseFile)),
		StationsPath:           getEnvString(EnvStationsPath, filepath.Join(dataDir, defaultStationsFile)),
		LogFile:                getEnvString(EnvLogFile, filepath.Join(dataDir, defaultLogFile)),
		DefaultProxyURL:        getEnvString(EnvProxyURL, ""),
		EnvFile:                envFile,
		BalanceRefreshInterval: normalizeInterval(getEnvDuration(EnvBalanceRefreshInterval, 0)),
		LowBalanceThreshold:    getEnvFloat(EnvLowBalanceThreshold, defaultLowBalanceThreshold),
		LogLevel:               logger.ParseLevel(getEnvString(EnvLogLevel, "info")),
	}

	for _, p := range []string{cfg.DatabasePath, cfg.StationsPath, cfg.LogFile} {
		if err := ensureDir(filepath.Dir(p)); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", p, err)
		}
	}

	return cfg, nil
}

// normalizeInterval keeps zero (polling off) and raises anything else to
// the minimum refresh interval.
func normalizeInterval(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	if d < MinBalanceRefreshInterval {
		return MinBalanceRefreshInterval
	}
	return d
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", appDirName, ".env"),
			filepath.Join(home, "."+appDirName, ".env"),
		)
	}

	return paths
}

// getDefaultDataDir returns the directory holding the database, stations
// file and log.
func getDefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return appDirName
	}
	return filepath.Join(home, ".config", appDirName)
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns the default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil && f >= 0 {
			return f
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
