package config

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port   string
	AppEnv string

	LogLevel slog.Level

	// DatabaseURL selects the Postgres store; empty means the in-memory
	// store seeded with reference data.
	DatabaseURL string

	// Weather feed endpoint and schedule.
	FeedURL  string
	FeedCron string

	// TargetStations is the allow-list of feed station names to ingest.
	TargetStations []string

	// FeedTimeout bounds one ingestion run.
	FeedTimeout time.Duration

	// HTTPTimeout applies to the outbound feed HTTP client.
	HTTPTimeout time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.AppEnv = getenvDefault("APP_ENV", "dev")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	cfg.FeedURL = getenvDefault("WEATHER_FEED_URL",
		"https://www.ilmateenistus.ee/ilma_andmed/xml/observations.php")

	// Default: 15 minutes past every hour.
	cfg.FeedCron = getenvDefault("WEATHER_CRON", "15 * * * *")

	stations := getenvDefault("TARGET_STATIONS", "Tallinn-Harku,Tartu-Tõravere,Pärnu")
	for _, name := range strings.Split(stations, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			cfg.TargetStations = append(cfg.TargetStations, name)
		}
	}
	if len(cfg.TargetStations) == 0 {
		return nil, fmt.Errorf("TARGET_STATIONS must name at least one station")
	}

	feedTimeoutStr := getenvDefault("FEED_TIMEOUT", "30s")
	feedTimeout, err := time.ParseDuration(feedTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid FEED_TIMEOUT: %w", err)
	}
	cfg.FeedTimeout = feedTimeout

	httpTimeoutStr := getenvDefault("HTTP_TIMEOUT", "10s")
	httpTimeout, err := time.ParseDuration(httpTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = httpTimeout

	cfg.LogLevel = parseLogLevel(getenvDefault("LOG_LEVEL", "info"))

	return cfg, nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
