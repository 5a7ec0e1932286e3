// Command replay runs one offline recalculation cycle over a JSON file of
// hazard reports and prints the resulting hotspots. It drives the same
// storage, engine, and scoring code as the service so tuning changes can be
// checked against real report dumps.
//
// Usage:
//
//	go run ./cmd/replay \
//	  -reports data/sample_reports.json \
//	  -now 2026-06-01T12:00:00Z \
//	  -min-reports 3 -max-radius 10000 -window-hours 24
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/hazard-hotspot-service/internal/adapter/memory"
	"github.com/couchcryptid/hazard-hotspot-service/internal/adapter/sqlite"
	"github.com/couchcryptid/hazard-hotspot-service/internal/domain"
	"github.com/couchcryptid/hazard-hotspot-service/internal/engine"
	"github.com/couchcryptid/hazard-hotspot-service/internal/observability"
	"github.com/couchcryptid/hazard-hotspot-service/internal/reports"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	defaults := domain.DefaultCalculationConfig()

	reportsPath := flag.String("reports", "", "path to a JSON array of hazard reports")
	nowFlag := flag.String("now", "", "cycle time in RFC 3339 (default: current time)")
	dbPath := flag.String("db", ":memory:", "SQLite database to load the reports into")
	outPath := flag.String("out", "", "write hotspots to this file instead of stdout")
	minReports := flag.Int("min-reports", defaults.MinReports, "minimum reports per hotspot")
	maxRadius := flag.Float64("max-radius", defaults.MaxRadiusMeters, "clustering radius in meters")
	windowHours := flag.Int("window-hours", defaults.TimeWindowHours, "look-back window in hours")
	flag.Parse()

	if *reportsPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -reports")
	}

	now := time.Now().UTC()
	if *nowFlag != "" {
		t, err := time.Parse(time.RFC3339, *nowFlag)
		if err != nil {
			return fmt.Errorf("parse -now: %w", err)
		}
		now = t.UTC()
	}

	input, err := readReports(*reportsPath)
	if err != nil {
		return err
	}

	cfg := defaults
	cfg.MinReports = *minReports
	cfg.MaxRadiusMeters = *maxRadius
	cfg.TimeWindowHours = *windowHours

	ctx := context.Background()
	db, err := sqlite.Open(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	if err := db.Migrate(ctx); err != nil {
		return err
	}
	if err := db.InsertReports(ctx, input); err != nil {
		return err
	}

	clock := clockwork.NewFakeClockAt(now)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	store := memory.NewSnapshotStore(nil)

	eng, err := engine.New(reports.NewAdapter(db, clock), store, cfg, logger, observability.NewMetricsForTesting(), engine.WithClock(clock))
	if err != nil {
		return err
	}
	res, err := eng.RunCycle(ctx)
	if err != nil {
		return fmt.Errorf("run cycle: %w", err)
	}
	log.Printf("reports: %d eligible, %d rejected; hotspots: %d", res.ReportsFetched, res.ReportsRejected, res.Hotspots)

	hotspots, err := store.All(ctx)
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", *outPath, err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(hotspots)
}

func readReports(path string) ([]domain.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reports: %w", err)
	}
	var out []domain.Report
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode reports: %w", err)
	}
	return out, nil
}
