package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/hazard-hotspot-service/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Supported DB_DRIVER values.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Storage.
	DBDriver            string // "sqlite" or "postgres"
	DatabaseURL         string
	SQLitePath          string
	HotspotCacheEnabled bool

	// Hotspot calculation and scheduling.
	Calculation  domain.CalculationConfig
	Interval     time.Duration
	CycleTimeout time.Duration

	// Hotspot snapshot publication.
	KafkaEnabled      bool
	KafkaBrokers      []string
	KafkaHotspotTopic string

	// Mapbox reverse geocoding of hotspot centers.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	calc, err := parseCalculation()
	if err != nil {
		return nil, err
	}

	intervalMinutes, err := parsePositiveInt("INTERVAL_MINUTES", 30)
	if err != nil {
		return nil, err
	}

	cycleTimeout, err := parsePositiveDuration("CYCLE_TIMEOUT", "2m")
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DBDriver:            sharedcfg.EnvOrDefault("DB_DRIVER", DriverSQLite),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		SQLitePath:          sharedcfg.EnvOrDefault("SQLITE_PATH", "./data/hazards.db"),
		HotspotCacheEnabled: sharedcfg.EnvOrDefault("HOTSPOT_CACHE_ENABLED", "true") == "true",

		Calculation:  calc,
		Interval:     time.Duration(intervalMinutes) * time.Minute,
		CycleTimeout: cycleTimeout,

		KafkaEnabled:      os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:      sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaHotspotTopic: sharedcfg.EnvOrDefault("KAFKA_HOTSPOT_TOPIC", "hazard-hotspots"),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
	}

	switch cfg.DBDriver {
	case DriverSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLITE_PATH is required when DB_DRIVER is sqlite")
		}
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required when DB_DRIVER is postgres")
		}
	default:
		return nil, fmt.Errorf("invalid DB_DRIVER %q: must be sqlite or postgres", cfg.DBDriver)
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaHotspotTopic == "" {
			return nil, errors.New("KAFKA_HOTSPOT_TOPIC is required when KAFKA_ENABLED is true")
		}
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

func parseCalculation() (domain.CalculationConfig, error) {
	calc := domain.DefaultCalculationConfig()

	var err error
	if calc.MinReports, err = parsePositiveInt("MIN_REPORTS", calc.MinReports); err != nil {
		return calc, err
	}
	if calc.TimeWindowHours, err = parsePositiveInt("TIME_WINDOW_HOURS", calc.TimeWindowHours); err != nil {
		return calc, err
	}
	if calc.MaxRadiusMeters, err = parsePositiveFloat("MAX_RADIUS_METERS", calc.MaxRadiusMeters); err != nil {
		return calc, err
	}

	weights := []struct {
		key string
		dst *float64
	}{
		{"SEVERITY_WEIGHT_LOW", &calc.Weights.Low},
		{"SEVERITY_WEIGHT_MEDIUM", &calc.Weights.Medium},
		{"SEVERITY_WEIGHT_HIGH", &calc.Weights.High},
		{"SEVERITY_WEIGHT_CRITICAL", &calc.Weights.Critical},
	}
	for _, w := range weights {
		if *w.dst, err = parsePositiveFloat(w.key, *w.dst); err != nil {
			return calc, err
		}
	}

	if err := calc.Validate(); err != nil {
		return calc, fmt.Errorf("invalid hotspot calculation settings: %w", err)
	}
	return calc, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

func parsePositiveFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !(v > 0) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s: must be a positive finite number", key)
	}
	return v, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
