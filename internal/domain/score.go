package domain

import (
	"math"
	"slices"
	"time"
)

// Score holds the derived geometry and scores of a cluster.
type Score struct {
	Center          Location
	RadiusMeters    float64
	WeightedScore   float64
	SeverityLevel   Severity
	ConfidenceScore float64
	HazardTypes     []string
}

// ScoreCluster computes center, radius, severity level, confidence and
// hazard types for c. It panics on an empty cluster, which BuildClusters
// never produces.
func ScoreCluster(c Cluster, cfg CalculationConfig) Score {
	n := float64(len(c.Members))

	var sumLat, sumLng, sumWeight float64
	verified := 0
	for _, m := range c.Members {
		sumLat += m.Location.Lat
		sumLng += m.Location.Lng
		sumWeight += cfg.Weights.Weight(m.Severity)
		if m.Status == StatusVerified {
			verified++
		}
	}
	center := Location{Lat: sumLat / n, Lng: sumLng / n}

	var radius float64
	for _, m := range c.Members {
		radius = math.Max(radius, Distance(m.Location, center))
	}
	radius = math.Min(radius, cfg.MaxRadiusMeters)

	weighted := sumWeight / n
	level := SeverityFromWeightedScore(weighted)

	return Score{
		Center:          center,
		RadiusMeters:    radius,
		WeightedScore:   weighted,
		SeverityLevel:   level,
		ConfidenceScore: confidence(len(c.Members), verified, level, cfg.Weights),
		HazardTypes:     hazardTypes(c.Members),
	}
}

// SeverityFromWeightedScore maps a mean severity weight onto a level.
func SeverityFromWeightedScore(score float64) Severity {
	switch {
	case score >= 6:
		return SeverityCritical
	case score >= 3:
		return SeverityHigh
	case score >= 1.5:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func confidence(count, verified int, level Severity, w SeverityWeights) float64 {
	sizeFactor := math.Min(float64(count)/10, 1.0)
	severityFactor := 0.0
	if w.Critical > 0 {
		severityFactor = w.Weight(level) / w.Critical
	}
	verifiedBonus := float64(verified) / float64(count) * 0.2

	score := sizeFactor*0.6 + severityFactor*0.4 + verifiedBonus
	return math.Max(0, math.Min(1, score))
}

// hazardTypes lists the distinct non-blank hazard types in members, sorted.
// Reports with no hazard type still count toward the score.
func hazardTypes(members []Report) []string {
	out := make([]string, 0, len(members))
	for _, m := range members {
		if m.HazardType == "" || slices.Contains(out, m.HazardType) {
			continue
		}
		out = append(out, m.HazardType)
	}
	slices.Sort(out)
	return out
}

// BuildHotspot scores c and stamps it with id and the cycle time.
func BuildHotspot(c Cluster, cfg CalculationConfig, id string, now time.Time) Hotspot {
	s := ScoreCluster(c, cfg)
	return Hotspot{
		ID:              id,
		Center:          s.Center,
		RadiusMeters:    s.RadiusMeters,
		ReportCount:     len(c.Members),
		SeverityLevel:   s.SeverityLevel,
		ConfidenceScore: s.ConfidenceScore,
		HazardTypes:     s.HazardTypes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
