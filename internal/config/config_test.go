package config

import (
	"testing"
	"time"

	"github.com/couchcryptid/hazard-hotspot-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMapboxToken = "pk.test-token"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "./data/hazards.db", cfg.SQLitePath)
	assert.True(t, cfg.HotspotCacheEnabled)
	assert.Equal(t, domain.DefaultCalculationConfig(), cfg.Calculation)
	assert.Equal(t, 30*time.Minute, cfg.Interval)
	assert.Equal(t, 2*time.Minute, cfg.CycleTimeout)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "hazard-hotspots", cfg.KafkaHotspotTopic)
	assert.False(t, cfg.MapboxEnabled)
	assert.Empty(t, cfg.MapboxToken)
	assert.Equal(t, 5*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 1000, cfg.MapboxCacheSize)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://hazards:secret@db:5432/hazards")
	t.Setenv("HOTSPOT_CACHE_ENABLED", "false")
	t.Setenv("MIN_REPORTS", "5")
	t.Setenv("MAX_RADIUS_METERS", "2500.5")
	t.Setenv("SEVERITY_WEIGHT_LOW", "0.5")
	t.Setenv("SEVERITY_WEIGHT_MEDIUM", "1.5")
	t.Setenv("SEVERITY_WEIGHT_HIGH", "3")
	t.Setenv("SEVERITY_WEIGHT_CRITICAL", "9")
	t.Setenv("TIME_WINDOW_HOURS", "6")
	t.Setenv("INTERVAL_MINUTES", "5")
	t.Setenv("CYCLE_TIMEOUT", "45s")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_HOTSPOT_TOPIC", "custom-hotspots")
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_TIMEOUT", "10s")
	t.Setenv("MAPBOX_CACHE_SIZE", "500")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "postgres://hazards:secret@db:5432/hazards", cfg.DatabaseURL)
	assert.False(t, cfg.HotspotCacheEnabled)
	assert.Equal(t, domain.CalculationConfig{
		MinReports:      5,
		MaxRadiusMeters: 2500.5,
		Weights:         domain.SeverityWeights{Low: 0.5, Medium: 1.5, High: 3, Critical: 9},
		TimeWindowHours: 6,
	}, cfg.Calculation)
	assert.Equal(t, 5*time.Minute, cfg.Interval)
	assert.Equal(t, 45*time.Second, cfg.CycleTimeout)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-hotspots", cfg.KafkaHotspotTopic)
	assert.True(t, cfg.MapboxEnabled)
	assert.Equal(t, testMapboxToken, cfg.MapboxToken)
	assert.Equal(t, 10*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 500, cfg.MapboxCacheSize)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidMinReports(t *testing.T) {
	t.Setenv("MIN_REPORTS", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MIN_REPORTS")
}

func TestLoad_InvalidMaxRadius(t *testing.T) {
	t.Setenv("MAX_RADIUS_METERS", "-10")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_RADIUS_METERS")
}

func TestLoad_InvalidSeverityWeight(t *testing.T) {
	t.Setenv("SEVERITY_WEIGHT_HIGH", "heavy")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SEVERITY_WEIGHT_HIGH")
}

func TestLoad_InfiniteSeverityWeight(t *testing.T) {
	t.Setenv("SEVERITY_WEIGHT_CRITICAL", "Inf")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SEVERITY_WEIGHT_CRITICAL")
}

func TestLoad_InfiniteMaxRadius(t *testing.T) {
	t.Setenv("MAX_RADIUS_METERS", "+Inf")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_RADIUS_METERS")
}

func TestLoad_DecreasingSeverityWeights(t *testing.T) {
	t.Setenv("SEVERITY_WEIGHT_MEDIUM", "10")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-decreasing")
}

func TestLoad_InvalidTimeWindow(t *testing.T) {
	t.Setenv("TIME_WINDOW_HOURS", "1.5")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TIME_WINDOW_HOURS")
}

func TestLoad_InvalidInterval(t *testing.T) {
	t.Setenv("INTERVAL_MINUTES", "-1")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INTERVAL_MINUTES")
}

func TestLoad_InvalidCycleTimeout(t *testing.T) {
	t.Setenv("CYCLE_TIMEOUT", "0s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CYCLE_TIMEOUT")
}

func TestLoad_UnknownDBDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DRIVER")
}

func TestLoad_PostgresWithoutURL(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_InvalidMapboxTimeout(t *testing.T) {
	t.Setenv("MAPBOX_TIMEOUT", "bad")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAPBOX_TIMEOUT")
}

func TestLoad_MapboxEnabledWithoutToken(t *testing.T) {
	t.Setenv("MAPBOX_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAPBOX_TOKEN")
}

func TestLoad_MapboxExplicitlyDisabled(t *testing.T) {
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.MapboxEnabled)
}
