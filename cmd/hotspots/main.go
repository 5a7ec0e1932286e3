package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/hazard-hotspot-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/hazard-hotspot-service/internal/adapter/kafka"
	"github.com/couchcryptid/hazard-hotspot-service/internal/adapter/mapbox"
	"github.com/couchcryptid/hazard-hotspot-service/internal/adapter/memory"
	"github.com/couchcryptid/hazard-hotspot-service/internal/adapter/postgres"
	"github.com/couchcryptid/hazard-hotspot-service/internal/adapter/sqlite"
	"github.com/couchcryptid/hazard-hotspot-service/internal/config"
	"github.com/couchcryptid/hazard-hotspot-service/internal/engine"
	"github.com/couchcryptid/hazard-hotspot-service/internal/observability"
	"github.com/couchcryptid/hazard-hotspot-service/internal/query"
	"github.com/couchcryptid/hazard-hotspot-service/internal/reports"
	"github.com/joho/godotenv"
)

// database is the storage surface shared by the SQLite and Postgres stores.
type database interface {
	reports.Lister
	memory.Backing
	Migrate(ctx context.Context) error
}

// hotspotStore is what the engine writes to and the query service reads from.
type hotspotStore interface {
	engine.HotspotWriter
	query.HotspotReader
}

func main() {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, closeDB, err := openDatabase(ctx, cfg)
	if err != nil {
		logger.Error("failed to open database", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	defer closeDB()

	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}
	logger.Info("database ready", "driver", cfg.DBDriver)

	var store hotspotStore = db
	if cfg.HotspotCacheEnabled {
		snapshot := memory.NewSnapshotStore(db)
		if err := snapshot.Warm(ctx); err != nil {
			// Reads fall through to the database until the first cycle succeeds.
			logger.Warn("hotspot snapshot warm-up failed", "error", err)
		}
		store = snapshot
	}

	opts := []engine.Option{}

	// Reverse geocoding (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder, err := mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		if err != nil {
			logger.Error("failed to create geocoder", "error", err)
			os.Exit(1)
		}
		opts = append(opts, engine.WithGeocoder(geocoder))
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, logger)
		opts = append(opts, engine.WithPublisher(publisher))
		logger.Info("kafka snapshot publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaHotspotTopic)
	}

	eng, err := engine.New(reports.NewAdapter(db, nil), store, cfg.Calculation, logger, metrics, opts...)
	if err != nil {
		logger.Error("failed to create engine", "error", err)
		os.Exit(1)
	}

	scheduler := engine.NewScheduler(eng, cfg.Interval, cfg.CycleTimeout, logger, metrics, nil)
	svc := query.NewService(store, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, scheduler, eng, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start recalculation scheduler.
	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		if err := scheduler.Run(ctx); err != nil {
			logger.Error("scheduler error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-schedulerDone:
	case <-shutdownCtx.Done():
		logger.Warn("scheduler did not stop before shutdown timeout")
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

func openDatabase(ctx context.Context, cfg *config.Config) (database, func(), error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		store, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}
