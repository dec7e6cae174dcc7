package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 24*time.Hour, cfg.AirportsCacheTTL)
	assert.Equal(t, "https://davidmegginson.github.io/ourairports-data/airports.csv", cfg.AirportsCSVURL)
	assert.True(t, cfg.RoutingEnabled)
	assert.Equal(t, "https://router.project-osrm.org", cfg.OSRMURL)
	assert.False(t, cfg.RedisEnabled)
	assert.Equal(t, 30*time.Second, cfg.CountdownInterval)
	assert.Nil(t, cfg.CORSAllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("AIRPORTS_CACHE_TTL", "6h")
	t.Setenv("ROUTING_ENABLED", "false")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("COUNTDOWN_INTERVAL", "5s")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com, ,https://b.example.com ")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 6*time.Hour, cfg.AirportsCacheTTL)
	assert.False(t, cfg.RoutingEnabled)
	assert.True(t, cfg.RedisEnabled)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 5*time.Second, cfg.CountdownInterval)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
}

func TestLoad_UnparseableValuesUseDefaults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "loud")
	t.Setenv("ROUTING_TIMEOUT", "soon")
	t.Setenv("REDIS_DB", "one")
	t.Setenv("REDIS_ENABLED", "maybe")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.RoutingTimeout)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.False(t, cfg.RedisEnabled)
}

func TestLoad_RejectsNonPositiveDuration(t *testing.T) {
	t.Setenv("COUNTDOWN_INTERVAL", "-5s")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COUNTDOWN_INTERVAL")
}

func TestLoad_DotEnv(t *testing.T) {
	const key = "AIRPORTS_CACHE_DIR"
	if _, ok := os.LookupEnv(key); ok {
		t.Skipf("%s already set", key)
	}

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(key+"=/var/cache/airportmath\n"), 0o644))
	t.Chdir(dir)
	t.Cleanup(func() { os.Unsetenv(key) })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/var/cache/airportmath", cfg.AirportsCacheDir)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ReadTimeout:             time.Second,
			WriteTimeout:            time.Second,
			ShutdownTimeout:         time.Second,
			AirportsCSVURL:          "https://example.com/airports.csv",
			AirportsCacheTTL:        time.Hour,
			AirportsDownloadTimeout: time.Second,
			RoutingEnabled:          true,
			OSRMURL:                 "https://osrm.example.com",
			RoutingTimeout:          time.Second,
			RedisAddr:               "localhost:6379",
			CountdownInterval:       time.Second,
		}
	}

	require.NoError(t, valid().validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"empty csv url", func(c *Config) { c.AirportsCSVURL = "" }, "AIRPORTS_CSV_URL"},
		{"routing without url", func(c *Config) { c.OSRMURL = "" }, "OSRM_URL"},
		{"redis without addr", func(c *Config) { c.RedisEnabled = true; c.RedisAddr = "" }, "REDIS_ADDR"},
		{"zero ttl", func(c *Config) { c.AirportsCacheTTL = 0 }, "AIRPORTS_CACHE_TTL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	c := valid()
	c.RoutingEnabled = false
	c.OSRMURL = ""
	assert.NoError(t, c.validate(), "url only needed when routing is enabled")
}
