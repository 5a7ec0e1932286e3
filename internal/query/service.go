// Package query serves hotspot reads to callers that must never see a
// storage error.
package query

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/hazard-hotspot-service/internal/domain"
	"github.com/couchcryptid/hazard-hotspot-service/internal/observability"
)

// HotspotReader returns the persisted hotspot set.
type HotspotReader interface {
	All(ctx context.Context) ([]domain.Hotspot, error)
}

// Service reads hotspots with a fail-open policy: a store failure is logged,
// counted, and reported to the caller as an empty list.
type Service struct {
	store   HotspotReader
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewService creates a Service.
func NewService(store HotspotReader, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{store: store, logger: logger, metrics: metrics}
}

// All returns every current hotspot.
func (s *Service) All(ctx context.Context) []domain.Hotspot {
	return s.read(ctx, "all")
}

// Nearby returns hotspots whose center is within radiusKm of (lat, lng),
// nearest first. Inputs are assumed to be validated by the caller.
func (s *Service) Nearby(ctx context.Context, lat, lng, radiusKm float64) []domain.NearbyHotspot {
	hotspots := s.read(ctx, "nearby")
	return domain.FilterNearby(hotspots, domain.Location{Lat: lat, Lng: lng}, radiusKm)
}

func (s *Service) read(ctx context.Context, op string) []domain.Hotspot {
	hotspots, err := s.store.All(ctx)
	if err != nil {
		s.logger.Error("read hotspots failed, returning empty list", "op", op, "error", err)
		s.metrics.ReadFailures.WithLabelValues(op).Inc()
		return []domain.Hotspot{}
	}
	if hotspots == nil {
		return []domain.Hotspot{}
	}
	return hotspots
}
