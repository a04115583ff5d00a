package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

type Config struct {
	Port        int
	DataDir     string
	WebDir      string
	JWTSecret   string
	JWTExpiry   time.Duration
	StoreDriver string
	DatabaseURL string
	MaxBackups  int
	SweepSpec   string
	SweepGrace  time.Duration
}

func Load() *Config {
	// Best-effort: a missing .env just means plain env vars.
	godotenv.Load()

	return &Config{
		Port:        envInt("PORT", 8080),
		DataDir:     env("DATA_DIR", "data"),
		WebDir:      env("WEB_DIR", "web"),
		JWTSecret:   env("JWT_SECRET", "change-me-in-production"),
		JWTExpiry:   envDuration("JWT_EXPIRY", 24*time.Hour),
		StoreDriver: env("STORE_DRIVER", "json"),
		DatabaseURL: env("DATABASE_URL", "postgres://kinotek:kinotek@db:5432/kinotek?sslmode=disable"),
		MaxBackups:  envInt("MAX_BACKUPS", 10),
		SweepSpec:   env("SWEEP_SCHEDULE", "@hourly"),
		SweepGrace:  envDuration("SWEEP_GRACE", time.Hour),
	}
}

// CatalogPath is the JSON catalog file location.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.DataDir, "movies.json")
}

// BackupDir holds the timestamped catalog snapshots.
func (c *Config) BackupDir() string {
	return filepath.Join(c.DataDir, "backups")
}

// UploadDir is the root for uploaded media and posters.
func (c *Config) UploadDir() string {
	return filepath.Join(c.DataDir, "uploads")
}

// UsersPath is the JSON user store location.
func (c *Config) UsersPath() string {
	return filepath.Join(c.DataDir, "users.json")
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := cast.ToIntE(v); err == nil {
			return i
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := cast.ToDurationE(v); err == nil {
			return d
		}
	}
	return fallback
}
