package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel        slog.Level
	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	AirportsCSVURL          string
	AirportsCacheTTL        time.Duration
	AirportsCacheDir        string
	AirportsDownloadTimeout time.Duration

	RoutingEnabled bool
	OSRMURL        string
	RoutingTimeout time.Duration

	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CountdownInterval  time.Duration
	CORSAllowedOrigins []string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present; real environment
// variables win over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		LogLevel:        getLogLevelEnv("LOG_LEVEL", slog.LevelInfo),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		ReadTimeout:     getDurationEnv("READ_TIMEOUT", 10*time.Second),
		WriteTimeout:    getDurationEnv("WRITE_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),

		AirportsCSVURL:          getEnv("AIRPORTS_CSV_URL", "https://davidmegginson.github.io/ourairports-data/airports.csv"),
		AirportsCacheTTL:        getDurationEnv("AIRPORTS_CACHE_TTL", 24*time.Hour),
		AirportsCacheDir:        getEnv("AIRPORTS_CACHE_DIR", ""),
		AirportsDownloadTimeout: getDurationEnv("AIRPORTS_DOWNLOAD_TIMEOUT", 60*time.Second),

		RoutingEnabled: getBoolEnv("ROUTING_ENABLED", true),
		OSRMURL:        getEnv("OSRM_URL", "https://router.project-osrm.org"),
		RoutingTimeout: getDurationEnv("ROUTING_TIMEOUT", 5*time.Second),

		RedisEnabled:  getBoolEnv("REDIS_ENABLED", false),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		CountdownInterval:  getDurationEnv("COUNTDOWN_INTERVAL", 30*time.Second),
		CORSAllowedOrigins: getCSVEnv("CORS_ALLOWED_ORIGINS"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	durations := map[string]time.Duration{
		"READ_TIMEOUT":              c.ReadTimeout,
		"WRITE_TIMEOUT":             c.WriteTimeout,
		"SHUTDOWN_TIMEOUT":          c.ShutdownTimeout,
		"AIRPORTS_CACHE_TTL":        c.AirportsCacheTTL,
		"AIRPORTS_DOWNLOAD_TIMEOUT": c.AirportsDownloadTimeout,
		"ROUTING_TIMEOUT":           c.RoutingTimeout,
		"COUNTDOWN_INTERVAL":        c.CountdownInterval,
	}
	for key, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", key, d)
		}
	}

	if c.AirportsCSVURL == "" {
		return fmt.Errorf("AIRPORTS_CSV_URL must not be empty")
	}
	if c.RoutingEnabled && c.OSRMURL == "" {
		return fmt.Errorf("OSRM_URL is required when ROUTING_ENABLED is true")
	}
	if c.RedisEnabled && c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required when REDIS_ENABLED is true")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func getLogLevelEnv(key string, defaultVal slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}

	switch strings.ToLower(v) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return defaultVal
	}
}

func getCSVEnv(key string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}

	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			result = append(result, t)
		}
	}
	return result
}
