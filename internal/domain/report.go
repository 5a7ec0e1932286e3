package domain

import (
	"fmt"
	"math"
	"time"
)

// Severity is the four-level hazard severity shared by reports and hotspots.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Valid reports whether s is one of the four known levels.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

// ReportStatus is the moderation state of a report.
type ReportStatus string

const (
	StatusUnverified ReportStatus = "unverified"
	StatusVerified   ReportStatus = "verified"
)

// Location is a WGS-84 latitude/longitude pair in decimal degrees.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinates are finite and in range.
func (l Location) Valid() bool {
	if math.IsNaN(l.Lat) || math.IsNaN(l.Lng) || math.IsInf(l.Lat, 0) || math.IsInf(l.Lng, 0) {
		return false
	}
	return l.Lat >= -90 && l.Lat <= 90 && l.Lng >= -180 && l.Lng <= 180
}

// Report is a single hazard observation as supplied by the Report Store.
type Report struct {
	ID         string       `json:"id"`
	Location   Location     `json:"location"`
	Severity   Severity     `json:"severity"`
	HazardType string       `json:"hazard_type"`
	Status     ReportStatus `json:"status"`
	IsPublic   bool         `json:"is_public"`
	CreatedAt  time.Time    `json:"created_at"`
}

// Validate returns an error describing why r cannot take part in clustering.
func (r Report) Validate() error {
	if !r.Location.Valid() {
		return fmt.Errorf("report %s: invalid location (%v, %v)", r.ID, r.Location.Lat, r.Location.Lng)
	}
	if !r.Severity.Valid() {
		return fmt.Errorf("report %s: unknown severity %q", r.ID, r.Severity)
	}
	return nil
}

// Eligible reports whether r is public and was created at or after cutoff.
func (r Report) Eligible(cutoff time.Time) bool {
	return r.IsPublic && !r.CreatedAt.Before(cutoff)
}

// RejectedReport pairs a report with the reason it was excluded.
type RejectedReport struct {
	Report Report
	Err    error
}

// PartitionValid splits reports into those usable for clustering and those
// with malformed coordinates or severity. Input order is preserved.
func PartitionValid(reports []Report) ([]Report, []RejectedReport) {
	valid := make([]Report, 0, len(reports))
	var rejected []RejectedReport
	for _, r := range reports {
		if err := r.Validate(); err != nil {
			rejected = append(rejected, RejectedReport{Report: r, Err: err})
			continue
		}
		valid = append(valid, r)
	}
	return valid, rejected
}
