// Package http serves the hotspot read API, the manual recalculation trigger,
// and the operational endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/hazard-hotspot-service/internal/domain"
	"github.com/couchcryptid/hazard-hotspot-service/internal/engine"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HotspotQuerier answers hotspot reads. It never fails; storage errors
// surface as empty lists.
type HotspotQuerier interface {
	All(ctx context.Context) []domain.Hotspot
	Nearby(ctx context.Context, lat, lng, radiusKm float64) []domain.NearbyHotspot
}

// Recalculator runs an on-demand recalculation cycle.
type Recalculator interface {
	TriggerNow(ctx context.Context) (engine.CycleResult, error)
}

// Server exposes the hotspot API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	query      HotspotQuerier
	recalc     Recalculator
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the hotspot routes and /healthz,
// /readyz, and /metrics.
func NewServer(addr string, query HotspotQuerier, recalc Recalculator, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		query:  query,
		recalc: recalc,
		logger: logger,
	}

	mux.HandleFunc("GET /hotspots", s.handleAll)
	mux.HandleFunc("GET /hotspots/nearby", s.handleNearby)
	mux.HandleFunc("POST /hotspots/recalculate", s.handleRecalculate)

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.query.All(r.Context()))
}

func (s *Server) handleNearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, err := parseCoordinate(q.Get("lat"), "lat", 90)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	lng, err := parseCoordinate(q.Get("lng"), "lng", 180)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	radiusKm, err := parseRadius(q.Get("radius_km"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusOK, s.query.Nearby(r.Context(), lat, lng, radiusKm))
}

func (s *Server) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	// The cycle is bounded by its own timeout, which may exceed WriteTimeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	res, err := s.recalc.TriggerNow(r.Context())
	switch {
	case errors.Is(err, engine.ErrCycleInProgress):
		writeError(w, http.StatusConflict, err)
	case err != nil:
		s.logger.Error("manual recalculation failed", "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("recalculation failed"))
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

func parseCoordinate(raw, name string, limit float64) (float64, error) {
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || v < -limit || v > limit {
		return 0, fmt.Errorf("%s must be a number between %g and %g", name, -limit, limit)
	}
	return v, nil
}

func parseRadius(raw string) (float64, error) {
	if raw == "" {
		return 0, errors.New("radius_km is required")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, errors.New("radius_km must be a positive number")
	}
	return v, nil
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}
