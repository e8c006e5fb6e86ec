package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Server defaults
const (
	DefaultPort         = "5100"
	DefaultDataDir      = "./data"
	DefaultStartDate    = "2024-06-03"
	DefaultSyncInterval = 15 * time.Minute
	DefaultLogLevel     = "info"
)

// Analytics constants
const (
	SessionGap          = 10 * time.Minute
	SessionFloorSeconds = 10
	MovingAverageWindow = 30 // business days
	AdjustedWindowDays  = 30 // reoccurrence staleness cutoff
	TopN                = 40
	DailyReportWindow   = 24 * time.Hour
)

// Outbound request timeouts
const (
	EmailRequestTimeout  = 30 * time.Second
	HeartbeatPushTimeout = 10 * time.Second
)

// Config holds runtime configuration, loaded from the environment.
type Config struct {
	Port             string
	DataDir          string
	DatabaseURL      string
	SecretToken      string
	EmailServiceURL  string
	EmailSecretKey   string
	HeartbeatPushURL string
	StartDate        time.Time
	SyncInterval     time.Duration
	RebuildOnStart   bool
	LogLevel         string
}

// Load reads configuration from the environment. A .env file in the
// working directory is merged in if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	startDate, err := time.Parse("2006-01-02", getEnv("FPP_START_DATE", DefaultStartDate))
	if err != nil {
		return nil, fmt.Errorf("invalid FPP_START_DATE: %w", err)
	}

	syncInterval := DefaultSyncInterval
	if raw := os.Getenv("FPP_SYNC_INTERVAL"); raw != "" {
		syncInterval, err = time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid FPP_SYNC_INTERVAL: %w", err)
		}
	}

	cfg := &Config{
		Port:             getEnv("PORT", DefaultPort),
		DataDir:          getEnv("DATA_DIR", DefaultDataDir),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		SecretToken:      os.Getenv("ANALYTICS_SECRET_TOKEN"),
		EmailServiceURL:  os.Getenv("EMAIL_SERVICE_URL"),
		EmailSecretKey:   os.Getenv("EMAIL_SECRET_KEY"),
		HeartbeatPushURL: os.Getenv("HEARTBEAT_PUSH_URL"),
		StartDate:        startDate,
		SyncInterval:     syncInterval,
		RebuildOnStart:   getEnvBool("FPP_REBUILD_ON_START", false),
		LogLevel:         getEnv("FPP_LOG_LEVEL", DefaultLogLevel),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
