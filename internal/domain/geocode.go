package domain

import (
	"context"
	"log/slog"
)

// EnrichWithPlaceName labels each hotspot with the reverse-geocoded place
// of its center. A nil geocoder is a no-op; lookup failures leave the
// hotspot unlabeled.
func EnrichWithPlaceName(ctx context.Context, hotspots []Hotspot, geocoder ReverseGeocoder, logger *slog.Logger) []Hotspot {
	if geocoder == nil {
		return hotspots
	}
	for i := range hotspots {
		h := &hotspots[i]
		result, err := geocoder.ReverseGeocode(ctx, h.Center.Lat, h.Center.Lng)
		if err != nil {
			logger.Warn("reverse geocoding failed",
				"hotspot_id", h.ID,
				"lat", h.Center.Lat,
				"lng", h.Center.Lng,
				"error", err,
			)
			continue
		}
		if result.FormattedAddress != "" {
			h.PlaceName = result.FormattedAddress
		} else if result.PlaceName != "" {
			h.PlaceName = result.PlaceName
		}
	}
	return hotspots
}
