package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	OpenWeatherAPIKey string
	GoogleAPIKey      string

	// Upstream endpoints; overridable for tests and proxies.
	GeoBaseURL     string
	WeatherBaseURL string

	// Outbound HTTP client timeout.
	HTTPTimeout time.Duration

	// Geocoding result limit (clamped to the API's 1-5 range downstream).
	GeoResultLimit int

	// Weather cache retention.
	CacheMaxEntries int
	CacheTTL        time.Duration

	// Search session expiry and janitor sweep cadence.
	SessionTTL      time.Duration
	JanitorInterval time.Duration

	Port     string
	AppEnv   string
	LogLevel slog.Level
}

// Load reads configuration from environment with sensible defaults. A
// missing OpenWeather API key is not an error here: the clients degrade to
// empty results instead of refusing to start.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded", "error", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.GoogleAPIKey = os.Getenv("GOOGLE_API_KEY")

	cfg.GeoBaseURL = os.Getenv("GEO_BASE_URL")
	cfg.WeatherBaseURL = os.Getenv("WEATHER_BASE_URL")

	timeout, err := getenvDuration("HTTP_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	cfg.HTTPTimeout = timeout

	cfg.GeoResultLimit = getenvInt("GEO_RESULT_LIMIT", 5)
	cfg.CacheMaxEntries = getenvInt("CACHE_MAX_ENTRIES", 256)

	cfg.CacheTTL, err = getenvDuration("CACHE_TTL", "10m")
	if err != nil {
		return nil, err
	}
	cfg.SessionTTL, err = getenvDuration("SESSION_TTL", "30m")
	if err != nil {
		return nil, err
	}
	cfg.JanitorInterval, err = getenvDuration("JANITOR_INTERVAL", "5m")
	if err != nil {
		return nil, err
	}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.AppEnv = getenvDefault("APP_ENV", "dev")
	cfg.LogLevel = parseLogLevel(getenvDefault("LOG_LEVEL", "info"))

	return cfg, nil
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	v := getenvDefault(key, def)
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
