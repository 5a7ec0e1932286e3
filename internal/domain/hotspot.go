package domain

import "time"

// Hotspot is a scored cluster of nearby reports. Hotspots are regenerated
// wholesale every recalculation cycle; IDs are not stable across cycles.
type Hotspot struct {
	ID              string    `json:"id"`
	Center          Location  `json:"center_location"`
	RadiusMeters    float64   `json:"radius_meters"`
	ReportCount     int       `json:"report_count"`
	SeverityLevel   Severity  `json:"severity_level"`
	ConfidenceScore float64   `json:"confidence_score"`
	HazardTypes     []string  `json:"hazard_types"`
	PlaceName       string    `json:"place_name,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NearbyHotspot is a hotspot annotated with its distance to a query point.
type NearbyHotspot struct {
	Hotspot
	DistanceMeters float64 `json:"distance_meters"`
}

// Snapshot is the complete hotspot set produced by one recalculation cycle.
type Snapshot struct {
	CycleID     string    `json:"cycle_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Hotspots    []Hotspot `json:"hotspots"`
}
