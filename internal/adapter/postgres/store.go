// Package postgres implements the report source and hotspot store on
// PostgreSQL via pgx.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/hazard-hotspot-service/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS hazard_reports (
		id          TEXT PRIMARY KEY,
		lat         DOUBLE PRECISION NOT NULL,
		lng         DOUBLE PRECISION NOT NULL,
		severity    TEXT NOT NULL,
		hazard_type TEXT NOT NULL,
		status      TEXT NOT NULL DEFAULT 'unverified',
		is_public   BOOLEAN NOT NULL DEFAULT TRUE,
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_hazard_reports_public_created
		ON hazard_reports (is_public, created_at)`,
	`CREATE TABLE IF NOT EXISTS hotspots (
		id               TEXT PRIMARY KEY,
		position         INTEGER NOT NULL,
		center_lat       DOUBLE PRECISION NOT NULL,
		center_lng       DOUBLE PRECISION NOT NULL,
		radius_meters    DOUBLE PRECISION NOT NULL,
		report_count     INTEGER NOT NULL,
		severity_level   TEXT NOT NULL,
		confidence_score DOUBLE PRECISION NOT NULL,
		hazard_types     TEXT[] NOT NULL,
		place_name       TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL
	)`,
}

var hotspotColumns = []string{
	"id", "position", "center_lat", "center_lng", "radius_meters", "report_count",
	"severity_level", "confidence_score", "hazard_types", "place_name", "created_at", "updated_at",
}

// Store is a PostgreSQL-backed report source and hotspot store.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps an existing pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Connect opens a pool for databaseURL and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: failed to ping: %w", err)
	}
	return NewStore(pool), nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Migrate creates the hazard_reports and hotspots tables.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: failed to migrate: %w", err)
		}
	}
	return nil
}

// InsertReports adds reports to hazard_reports.
func (s *Store) InsertReports(ctx context.Context, reports []domain.Report) error {
	batch := &pgx.Batch{}
	for _, r := range reports {
		status := r.Status
		if status == "" {
			status = domain.StatusUnverified
		}
		batch.Queue(`
			INSERT INTO hazard_reports (id, lat, lng, severity, hazard_type, status, is_public, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			r.ID, r.Location.Lat, r.Location.Lng, string(r.Severity), r.HazardType, string(status), r.IsPublic, r.CreatedAt,
		)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("postgres: failed to insert reports: %w", err)
	}
	return nil
}

// ListPublicReportsSince returns public reports created at or after since,
// oldest first with ties broken by id.
func (s *Store) ListPublicReportsSince(ctx context.Context, since time.Time) ([]domain.Report, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, lat, lng, severity, hazard_type, status, is_public, created_at
		FROM hazard_reports
		WHERE is_public AND created_at >= $1
		ORDER BY created_at, id`, since)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query reports: %w", err)
	}
	defer rows.Close()

	var out []domain.Report
	for rows.Next() {
		var (
			r        domain.Report
			severity string
			status   string
		)
		if err := rows.Scan(&r.ID, &r.Location.Lat, &r.Location.Lng, &severity, &r.HazardType, &status, &r.IsPublic, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan report row: %w", err)
		}
		r.Severity = domain.Severity(severity)
		r.Status = domain.ReportStatus(status)
		r.CreatedAt = r.CreatedAt.UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to read reports: %w", err)
	}
	return out, nil
}

// ReplaceAll deletes the current hotspots and copies in the new set within one
// transaction. Any failure rolls back and leaves the previous set in place.
func (s *Store) ReplaceAll(ctx context.Context, hotspots []domain.Hotspot) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM hotspots`); err != nil {
		return fmt.Errorf("postgres: failed to clear hotspots: %w", err)
	}

	rows := make([][]any, len(hotspots))
	for i, h := range hotspots {
		types := h.HazardTypes
		if types == nil {
			types = []string{}
		}
		rows[i] = []any{
			h.ID, i, h.Center.Lat, h.Center.Lng, h.RadiusMeters, h.ReportCount,
			string(h.SeverityLevel), h.ConfidenceScore, types, h.PlaceName, h.CreatedAt, h.UpdatedAt,
		}
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"hotspots"}, hotspotColumns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("postgres: failed to copy hotspots: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: failed to commit hotspots: %w", err)
	}
	return nil
}

// All returns the current hotspot set in the order it was written.
func (s *Store) All(ctx context.Context) ([]domain.Hotspot, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, center_lat, center_lng, radius_meters, report_count, severity_level,
		       confidence_score, hazard_types, place_name, created_at, updated_at
		FROM hotspots
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query hotspots: %w", err)
	}
	defer rows.Close()

	out := []domain.Hotspot{}
	for rows.Next() {
		var (
			h        domain.Hotspot
			severity string
		)
		err := rows.Scan(&h.ID, &h.Center.Lat, &h.Center.Lng, &h.RadiusMeters, &h.ReportCount, &severity,
			&h.ConfidenceScore, &h.HazardTypes, &h.PlaceName, &h.CreatedAt, &h.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan hotspot row: %w", err)
		}
		h.SeverityLevel = domain.Severity(severity)
		h.CreatedAt = h.CreatedAt.UTC()
		h.UpdatedAt = h.UpdatedAt.UTC()
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to read hotspots: %w", err)
	}
	return out, nil
}
