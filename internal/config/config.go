/**
 * @description
 * Configuration loader for the SteamWatch backend.
 * Responsible for reading environment variables, setting defaults, and performing strict validation.
 *
 * @dependencies
 * - github.com/joho/godotenv: For loading .env files
 * - standard "os": For reading env vars
 *
 * @notes
 * - Fails fast if critical variables (Database URL) are missing.
 * - Uses a Singleton-like pattern where Load() returns a Config struct.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server Server
	DB     DB
	Redis  Redis
	Steam  Steam
	Worker Worker
	Notify Notify
	Limits Limits
	Auth   Auth
}

// Server holds HTTP server settings
type Server struct {
	Port string
	Env  string // "development" or "production"
}

// DB holds PostgreSQL settings
type DB struct {
	URL string
}

// Redis holds Redis settings
type Redis struct {
	URL string
}

// Steam holds Steam API endpoints and defaults
type Steam struct {
	StoreURL      string
	PlayerAPIURL  string
	APIKey        string
	DefaultRegion string
}

// Worker holds background task cadences
type Worker struct {
	PollInterval      time.Duration
	PollStaleness     time.Duration
	NotifyInterval    time.Duration
	SweepInterval     time.Duration
	LeaseDuration     time.Duration
	HeartbeatInterval time.Duration
	CleanupSpec       string // cron spec for the daily history cleanup
	HistoryRetention  int    // days of zero-discount history to keep
	ShutdownGrace     time.Duration
}

// Notify holds notification delivery settings
type Notify struct {
	WebhookURL       string
	DefaultThreshold int
	Cooldown         time.Duration
}

// Limits holds fixed-window rate limit settings
type Limits struct {
	SteamRequests int
	SteamWindow   time.Duration
	NotifyPerUser int
	NotifyWindow  time.Duration
}

// Auth holds JWT validation settings for the API
type Auth struct {
	JWKSURL string
}

// Load reads .env file and populates the Config struct
func Load() (*Config, error) {
	// Attempt to load .env, but don't crash if it fails (k8s/prod might inject env vars directly)
	_ = godotenv.Load()

	cfg := &Config{
		Server: Server{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("GO_ENV", "development"),
		},
		DB: DB{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: Redis{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Steam: Steam{
			StoreURL:      getEnv("STEAM_STORE_URL", "https://store.steampowered.com"),
			PlayerAPIURL:  getEnv("STEAM_PLAYER_API_URL", "https://api.steampowered.com"),
			APIKey:        getEnv("STEAM_API_KEY", ""),
			DefaultRegion: getEnv("STEAM_DEFAULT_REGION", "us"),
		},
		Worker: Worker{
			PollInterval:      getEnvAsDuration("PRICE_CHECK_INTERVAL", 10*time.Minute),
			PollStaleness:     getEnvAsDuration("PRICE_STALENESS", 12*time.Hour),
			NotifyInterval:    getEnvAsDuration("NOTIFY_CHECK_INTERVAL", 6*time.Hour),
			SweepInterval:     getEnvAsDuration("SWEEP_INTERVAL", 5*time.Minute),
			LeaseDuration:     getEnvAsDuration("LEADER_LEASE_DURATION", 30*time.Second),
			HeartbeatInterval: getEnvAsDuration("LEADER_HEARTBEAT_INTERVAL", 10*time.Second),
			CleanupSpec:       getEnv("HISTORY_CLEANUP_CRON", "0 3 * * *"),
			HistoryRetention:  getEnvAsInt("HISTORY_RETENTION_DAYS", 730),
			ShutdownGrace:     getEnvAsDuration("SHUTDOWN_GRACE", 10*time.Second),
		},
		Notify: Notify{
			WebhookURL:       getEnv("NOTIFY_WEBHOOK_URL", ""),
			DefaultThreshold: getEnvAsInt("DEFAULT_NOTIFY_THRESHOLD", 50),
			Cooldown:         getEnvAsDuration("NOTIFY_COOLDOWN", 24*time.Hour),
		},
		Limits: Limits{
			SteamRequests: getEnvAsInt("STEAM_RATE_LIMIT_REQUESTS", 100),
			SteamWindow:   getEnvAsDuration("STEAM_RATE_LIMIT_WINDOW", 5*time.Minute),
			NotifyPerUser: getEnvAsInt("NOTIFY_RATE_LIMIT_REQUESTS", 10),
			NotifyWindow:  getEnvAsDuration("NOTIFY_RATE_LIMIT_WINDOW", time.Hour),
		},
		Auth: Auth{
			JWKSURL: getEnv("BOT_JWKS_URL", ""),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks for required variables
func validate(cfg *Config) error {
	if cfg.DB.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Notify.DefaultThreshold < 0 || cfg.Notify.DefaultThreshold > 100 {
		return fmt.Errorf("DEFAULT_NOTIFY_THRESHOLD must be within [0,100]")
	}
	if cfg.Auth.JWKSURL == "" && cfg.Server.Env != "test" {
		fmt.Println("Warning: BOT_JWKS_URL is missing. Auth middleware will fail.")
	}
	return nil
}

// Helper to get env var with default
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// Helper to get env var as int
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

// Helper to get env var as duration; accepts Go duration strings ("10m") or bare seconds
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
