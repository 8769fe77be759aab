// Package config contains everything related to configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store backend names accepted in STORE_BACKEND.
const (
	BackendFirestore = "firestore"
	BackendSQLite    = "sqlite"
)

// Config holds the application configuration.
type Config struct {
	// StoreBackend selects where usage records and user profiles live:
	// "firestore" (the hosted document store) or "sqlite" (a local export).
	StoreBackend string

	// Firestore / Firebase Auth settings.
	FirebaseAPIKey    string
	FirebaseProjectID string

	// DatabasePath is the SQLite file used by the sqlite backend.
	DatabasePath string

	// LogPath is where slog output goes while the TUI owns the terminal.
	LogPath string

	// RefreshInterval is how often the dashboard re-fetches on its own.
	RefreshInterval time.Duration
}

const defaultRefreshInterval = 60 * time.Second

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		StoreBackend:      getEnvString("STORE_BACKEND", BackendFirestore),
		FirebaseAPIKey:    getEnvString("FIREBASE_API_KEY", ""),
		FirebaseProjectID: getEnvString("FIREBASE_PROJECT_ID", ""),
		DatabasePath:      getEnvString("DATABASE_PATH", defaultPath("usage.db")),
		LogPath:           getEnvString("LOG_PATH", defaultPath("udt.log")),
		RefreshInterval:   getEnvDuration("REFRESH_INTERVAL", defaultRefreshInterval),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case BackendFirestore:
		if c.FirebaseAPIKey == "" || c.FirebaseProjectID == "" {
			return fmt.Errorf("FIREBASE_API_KEY and FIREBASE_PROJECT_ID are required for the firestore backend")
		}
	case BackendSQLite:
		if c.DatabasePath == "" {
			return fmt.Errorf("DATABASE_PATH is required for the sqlite backend")
		}
		if err := ensureDir(filepath.Dir(c.DatabasePath)); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q (want %q or %q)", c.StoreBackend, BackendFirestore, BackendSQLite)
	}

	// Sign-in always goes through Firebase Auth, even when the data comes
	// from a local export.
	if c.FirebaseAPIKey == "" {
		return fmt.Errorf("FIREBASE_API_KEY is required for admin sign-in")
	}

	if c.RefreshInterval < time.Second {
		c.RefreshInterval = defaultRefreshInterval
	}

	return nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "usagedeck", ".env"),
			filepath.Join(home, ".usagedeck", ".env"),
		)
	}

	return paths
}

// defaultPath returns a file path under the app's config directory.
func defaultPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".config", "usagedeck", name)
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the
// default. Accepts values like "30s", "1m", or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
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
