package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/hazard-hotspot-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// ErrCycleInProgress is returned by TriggerNow while another cycle runs.
var ErrCycleInProgress = errors.New("recalculation cycle already in progress")

// Cycler runs a single recalculation cycle.
type Cycler interface {
	RunCycle(ctx context.Context) (CycleResult, error)
}

// Scheduler runs cycles once at startup and then on a fixed interval. At most
// one cycle executes at a time: interval ticks that land on a running cycle
// are dropped and manual triggers are rejected.
type Scheduler struct {
	cycler   Cycler
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock

	running atomic.Bool
	wg      sync.WaitGroup
}

// NewScheduler creates a Scheduler. Each cycle is bounded by timeout.
func NewScheduler(c Cycler, interval, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		cycler:   c,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
		metrics:  metrics,
		clock:    clock,
	}
}

// Run schedules cycles until ctx is cancelled, then waits for any in-flight
// cycle to return.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval, "cycle_timeout", s.timeout)
	s.metrics.SchedulerRunning.Set(1)
	defer s.metrics.SchedulerRunning.Set(0)
	defer s.wg.Wait()

	s.startAsync(ctx, "startup")

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			s.startAsync(ctx, "interval")
		}
	}
}

// TriggerNow runs a cycle synchronously, or returns ErrCycleInProgress if
// one is already running.
func (s *Scheduler) TriggerNow(ctx context.Context) (CycleResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.metrics.CyclesSkipped.Inc()
		return CycleResult{}, ErrCycleInProgress
	}
	defer s.running.Store(false)
	return s.execute(ctx, "manual")
}

func (s *Scheduler) startAsync(ctx context.Context, trigger string) {
	if !s.running.CompareAndSwap(false, true) {
		s.metrics.CyclesSkipped.Inc()
		s.logger.Warn("previous cycle still running, skipping", "trigger", trigger)
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		_, _ = s.execute(ctx, trigger)
	}()
}

func (s *Scheduler) execute(ctx context.Context, trigger string) (CycleResult, error) {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.cycler.RunCycle(cctx)
	if err != nil {
		if errors.Is(cctx.Err(), context.DeadlineExceeded) {
			s.logger.Error("recalculation cycle timed out", "trigger", trigger, "cycle_id", res.CycleID, "timeout", s.timeout, "error", err)
		} else {
			s.logger.Error("recalculation cycle failed", "trigger", trigger, "cycle_id", res.CycleID, "error", err)
		}
		return res, err
	}
	s.logger.Debug("recalculation cycle finished", "trigger", trigger, "cycle_id", res.CycleID, "hotspots", res.Hotspots)
	return res, nil
}
