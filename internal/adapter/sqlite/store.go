// Package sqlite stores hazard reports and hotspots in an embedded SQLite
// database for local and single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/hazard-hotspot-service/internal/domain"
	_ "modernc.org/sqlite"
)

// Timestamps are stored as fixed-width UTC text so string order matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const memoryPath = ":memory:"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS hazard_reports (
		id          TEXT PRIMARY KEY,
		lat         REAL NOT NULL,
		lng         REAL NOT NULL,
		severity    TEXT NOT NULL,
		hazard_type TEXT NOT NULL,
		status      TEXT NOT NULL DEFAULT 'unverified',
		is_public   INTEGER NOT NULL DEFAULT 1,
		created_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_hazard_reports_public_created
		ON hazard_reports (is_public, created_at)`,
	`CREATE TABLE IF NOT EXISTS hotspots (
		id               TEXT PRIMARY KEY,
		position         INTEGER NOT NULL,
		center_lat       REAL NOT NULL,
		center_lng       REAL NOT NULL,
		radius_meters    REAL NOT NULL,
		report_count     INTEGER NOT NULL,
		severity_level   TEXT NOT NULL,
		confidence_score REAL NOT NULL,
		hazard_types     TEXT NOT NULL,
		place_name       TEXT NOT NULL DEFAULT '',
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL
	)`,
}

// Store is a SQLite-backed report source and hotspot store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path. Use ":memory:" for a
// throwaway database.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != memoryPath {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("sqlite: create data dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}

	// Each connection to ":memory:" is its own database.
	if path == memoryPath {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
	}

	pragmas := []string{"PRAGMA busy_timeout=5000"}
	if path != memoryPath {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", p, err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the hazard_reports and hotspots tables.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: migrate: %w", err)
		}
	}
	return nil
}

// InsertReports adds reports to hazard_reports.
func (s *Store) InsertReports(ctx context.Context, reports []domain.Report) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO hazard_reports (id, lat, lng, severity, hazard_type, status, is_public, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("sqlite: prepare report insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, r := range reports {
			status := r.Status
			if status == "" {
				status = domain.StatusUnverified
			}
			_, err := stmt.ExecContext(ctx,
				r.ID, r.Location.Lat, r.Location.Lng, string(r.Severity), r.HazardType,
				string(status), r.IsPublic, formatTime(r.CreatedAt),
			)
			if err != nil {
				return fmt.Errorf("sqlite: insert report %s: %w", r.ID, err)
			}
		}
		return nil
	})
}

// ListPublicReportsSince returns public reports created at or after since,
// oldest first with ties broken by id.
func (s *Store) ListPublicReportsSince(ctx context.Context, since time.Time) ([]domain.Report, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, lat, lng, severity, hazard_type, status, is_public, created_at
		FROM hazard_reports
		WHERE is_public = 1 AND created_at >= ?
		ORDER BY created_at, id`, formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("sqlite: query reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Report
	for rows.Next() {
		var (
			r         domain.Report
			severity  string
			status    string
			createdAt string
		)
		if err := rows.Scan(&r.ID, &r.Location.Lat, &r.Location.Lng, &severity, &r.HazardType, &status, &r.IsPublic, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan report: %w", err)
		}
		r.Severity = domain.Severity(severity)
		r.Status = domain.ReportStatus(status)
		if r.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: report %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate reports: %w", err)
	}
	return out, nil
}

// ReplaceAll swaps the hotspot table contents in a single transaction. Any
// failure rolls back and leaves the previous set in place.
func (s *Store) ReplaceAll(ctx context.Context, hotspots []domain.Hotspot) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM hotspots`); err != nil {
			return fmt.Errorf("sqlite: clear hotspots: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO hotspots (
				id, position, center_lat, center_lng, radius_meters, report_count,
				severity_level, confidence_score, hazard_types, place_name, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("sqlite: prepare hotspot insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for i, h := range hotspots {
			types, err := json.Marshal(nonNil(h.HazardTypes))
			if err != nil {
				return fmt.Errorf("sqlite: encode hazard types: %w", err)
			}
			_, err = stmt.ExecContext(ctx,
				h.ID, i, h.Center.Lat, h.Center.Lng, h.RadiusMeters, h.ReportCount,
				string(h.SeverityLevel), h.ConfidenceScore, string(types), h.PlaceName,
				formatTime(h.CreatedAt), formatTime(h.UpdatedAt),
			)
			if err != nil {
				return fmt.Errorf("sqlite: insert hotspot %s: %w", h.ID, err)
			}
		}
		return nil
	})
}

// All returns the current hotspot set in the order it was written.
func (s *Store) All(ctx context.Context) ([]domain.Hotspot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, center_lat, center_lng, radius_meters, report_count, severity_level,
		       confidence_score, hazard_types, place_name, created_at, updated_at
		FROM hotspots
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query hotspots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []domain.Hotspot{}
	for rows.Next() {
		var (
			h                    domain.Hotspot
			severity             string
			types                string
			createdAt, updatedAt string
		)
		err := rows.Scan(&h.ID, &h.Center.Lat, &h.Center.Lng, &h.RadiusMeters, &h.ReportCount, &severity,
			&h.ConfidenceScore, &types, &h.PlaceName, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan hotspot: %w", err)
		}
		h.SeverityLevel = domain.Severity(severity)
		if err := json.Unmarshal([]byte(types), &h.HazardTypes); err != nil {
			return nil, fmt.Errorf("sqlite: hotspot %s hazard types: %w", h.ID, err)
		}
		if h.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: hotspot %s: %w", h.ID, err)
		}
		if h.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: hotspot %s: %w", h.ID, err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate hotspots: %w", err)
	}
	return out, nil
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
