package domain

import (
	"cmp"
	"slices"

	"github.com/golang/geo/s2"
)

// EarthRadiusMeters is the mean Earth radius used for all distances.
const EarthRadiusMeters = 6371000.0

// Distance returns the haversine great-circle distance between a and b in
// meters. NaN inputs propagate to the result.
func Distance(a, b Location) float64 {
	// Canonical argument order keeps the result bit-for-bit symmetric.
	if b.Lat < a.Lat || (b.Lat == a.Lat && b.Lng < a.Lng) {
		a, b = b, a
	}
	p1 := s2.LatLngFromDegrees(a.Lat, a.Lng)
	p2 := s2.LatLngFromDegrees(b.Lat, b.Lng)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// DistanceMeters is the scalar form of Distance.
func DistanceMeters(latA, lngA, latB, lngB float64) float64 {
	return Distance(Location{Lat: latA, Lng: lngA}, Location{Lat: latB, Lng: lngB})
}

// FilterNearby returns the hotspots whose center lies within radiusKm of
// point, closest first.
func FilterNearby(hotspots []Hotspot, point Location, radiusKm float64) []NearbyHotspot {
	limit := radiusKm * 1000
	out := make([]NearbyHotspot, 0)
	for _, h := range hotspots {
		d := Distance(h.Center, point)
		if d <= limit {
			out = append(out, NearbyHotspot{Hotspot: h, DistanceMeters: d})
		}
	}
	slices.SortStableFunc(out, func(a, b NearbyHotspot) int {
		return cmp.Compare(a.DistanceMeters, b.DistanceMeters)
	})
	return out
}
