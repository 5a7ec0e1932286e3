package domain

import (
	"errors"
	"fmt"
	"math"
)

// SeverityWeights maps each severity level to its contribution to the
// weighted cluster score.
type SeverityWeights struct {
	Low      float64 `json:"low"`
	Medium   float64 `json:"medium"`
	High     float64 `json:"high"`
	Critical float64 `json:"critical"`
}

// DefaultSeverityWeights returns {low:1, medium:2, high:4, critical:8}.
func DefaultSeverityWeights() SeverityWeights {
	return SeverityWeights{Low: 1, Medium: 2, High: 4, Critical: 8}
}

// Weight returns the weight for s, or 0 for an unknown level.
func (w SeverityWeights) Weight(s Severity) float64 {
	switch s {
	case SeverityLow:
		return w.Low
	case SeverityMedium:
		return w.Medium
	case SeverityHigh:
		return w.High
	case SeverityCritical:
		return w.Critical
	default:
		return 0
	}
}

// CalculationConfig holds the tunables of one recalculation cycle.
type CalculationConfig struct {
	MinReports      int             `json:"min_reports"`
	MaxRadiusMeters float64         `json:"max_radius_meters"`
	Weights         SeverityWeights `json:"severity_weights"`
	TimeWindowHours int             `json:"time_window_hours"`
}

// DefaultCalculationConfig returns min_reports=3, max_radius=10km,
// default weights and a 24 hour window.
func DefaultCalculationConfig() CalculationConfig {
	return CalculationConfig{
		MinReports:      3,
		MaxRadiusMeters: 10000,
		Weights:         DefaultSeverityWeights(),
		TimeWindowHours: 24,
	}
}

// Validate rejects configurations that would break the scoring invariants.
func (c CalculationConfig) Validate() error {
	if c.MinReports < 1 {
		return fmt.Errorf("min_reports must be >= 1, got %d", c.MinReports)
	}
	if !positiveFinite(c.MaxRadiusMeters) {
		return fmt.Errorf("max_radius_meters must be a finite value > 0, got %v", c.MaxRadiusMeters)
	}
	if c.TimeWindowHours < 1 {
		return fmt.Errorf("time_window_hours must be >= 1, got %d", c.TimeWindowHours)
	}
	w := c.Weights
	if !positiveFinite(w.Low) || !positiveFinite(w.Medium) || !positiveFinite(w.High) || !positiveFinite(w.Critical) {
		return errors.New("severity weights must all be finite and > 0")
	}
	if w.Low > w.Medium || w.Medium > w.High || w.High > w.Critical {
		return errors.New("severity weights must be non-decreasing from low to critical")
	}
	return nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
