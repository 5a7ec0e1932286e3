// Package engine runs hotspot recalculation cycles and schedules them.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/hazard-hotspot-service/internal/domain"
	"github.com/couchcryptid/hazard-hotspot-service/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// ReportSource supplies the reports eligible for a cycle.
type ReportSource interface {
	FetchEligibleReports(ctx context.Context, timeWindowHours int) ([]domain.Report, error)
}

// HotspotWriter replaces the persisted hotspot set. Implementations must
// leave the previous set intact when they return an error.
type HotspotWriter interface {
	ReplaceAll(ctx context.Context, hotspots []domain.Hotspot) error
}

// SnapshotPublisher announces a freshly persisted hotspot set downstream.
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, snapshot domain.Snapshot) error
}

// CycleResult summarizes one recalculation cycle.
type CycleResult struct {
	CycleID         string        `json:"cycle_id"`
	StartedAt       time.Time     `json:"started_at"`
	ReportsFetched  int           `json:"reports_fetched"`
	ReportsRejected int           `json:"reports_rejected"`
	Hotspots        int           `json:"hotspots"`
	Duration        time.Duration `json:"-"`
	DurationMS      int64         `json:"duration_ms"`
}

// Engine runs the fetch → cluster → score → replace cycle.
type Engine struct {
	source    ReportSource
	store     HotspotWriter
	publisher SnapshotPublisher
	geocoder  domain.ReverseGeocoder
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
	newID     func() string

	cfg   atomic.Pointer[domain.CalculationConfig]
	ready atomic.Bool
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock sets the time source used for cutoffs and cycle timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithPublisher publishes every successfully persisted snapshot.
func WithPublisher(p SnapshotPublisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithGeocoder labels hotspots with the place name of their center.
func WithGeocoder(g domain.ReverseGeocoder) Option {
	return func(e *Engine) { e.geocoder = g }
}

// WithIDGenerator replaces the UUID generator for hotspot and cycle IDs.
func WithIDGenerator(f func() string) Option {
	return func(e *Engine) { e.newID = f }
}

// New creates an Engine. cfg must be valid.
func New(source ReportSource, store HotspotWriter, cfg domain.CalculationConfig, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) (*Engine, error) {
	e := &Engine{
		source:  source,
		store:   store,
		logger:  logger,
		metrics: metrics,
		clock:   clockwork.NewRealClock(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.SetConfig(cfg); err != nil {
		return nil, err
	}
	return e, nil
}

// Config returns the calculation config the next cycle will use.
func (e *Engine) Config() domain.CalculationConfig {
	return *e.cfg.Load()
}

// SetConfig validates cfg and applies it from the next cycle on. A cycle
// already running keeps the config it started with.
func (e *Engine) SetConfig(cfg domain.CalculationConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid calculation config: %w", err)
	}
	e.cfg.Store(&cfg)
	return nil
}

// CheckReadiness returns nil once a cycle has persisted hotspots.
func (e *Engine) CheckReadiness(_ context.Context) error {
	if !e.ready.Load() {
		return errors.New("no recalculation cycle has completed yet")
	}
	return nil
}

// RunCycle performs one recalculation. A fetch failure aborts before the
// hotspot store is touched; a persistence failure leaves the previous set
// in place. Publication failures are logged and do not fail the cycle.
func (e *Engine) RunCycle(ctx context.Context) (CycleResult, error) {
	cfg := e.Config()
	start := e.clock.Now()
	res := CycleResult{CycleID: e.newID(), StartedAt: start}
	defer func() {
		e.metrics.CycleDuration.Observe(e.clock.Since(start).Seconds())
	}()

	reports, err := e.source.FetchEligibleReports(ctx, cfg.TimeWindowHours)
	if err != nil {
		e.recordFailure(ctx, err, observability.OutcomeFetchError)
		return res, err
	}
	res.ReportsFetched = len(reports)
	e.metrics.ReportsFetched.Set(float64(len(reports)))

	valid, rejected := domain.PartitionValid(reports)
	res.ReportsRejected = len(rejected)
	for _, r := range rejected {
		e.logger.Warn("excluding malformed report", "report_id", r.Report.ID, "error", r.Err)
	}
	e.metrics.ReportsRejected.Add(float64(len(rejected)))

	clusters := domain.BuildClusters(valid, cfg)
	hotspots := make([]domain.Hotspot, 0, len(clusters))
	for _, c := range clusters {
		hotspots = append(hotspots, domain.BuildHotspot(c, cfg, e.newID(), start))
	}
	hotspots = domain.EnrichWithPlaceName(ctx, hotspots, e.geocoder, e.logger)

	if err := e.store.ReplaceAll(ctx, hotspots); err != nil {
		e.recordFailure(ctx, err, observability.OutcomePersistError)
		return res, fmt.Errorf("replace hotspots: %w", err)
	}
	res.Hotspots = len(hotspots)
	res.Duration = e.clock.Since(start)
	res.DurationMS = res.Duration.Milliseconds()

	e.ready.Store(true)
	e.metrics.HotspotsCurrent.Set(float64(len(hotspots)))
	e.metrics.CyclesTotal.WithLabelValues(observability.OutcomeSuccess).Inc()

	e.publish(ctx, domain.Snapshot{CycleID: res.CycleID, GeneratedAt: start, Hotspots: hotspots})

	e.logger.Info("recalculation cycle complete",
		"cycle_id", res.CycleID,
		"reports", res.ReportsFetched,
		"rejected", res.ReportsRejected,
		"clusters", len(clusters),
		"hotspots", res.Hotspots,
	)
	return res, nil
}

func (e *Engine) recordFailure(ctx context.Context, err error, outcome string) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		outcome = observability.OutcomeTimeout
	}
	e.metrics.CyclesTotal.WithLabelValues(outcome).Inc()
}

func (e *Engine) publish(ctx context.Context, snapshot domain.Snapshot) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.PublishSnapshot(ctx, snapshot); err != nil {
		e.metrics.PublishErrors.Inc()
		e.logger.Warn("publish hotspot snapshot failed", "cycle_id", snapshot.CycleID, "error", err)
	}
}
