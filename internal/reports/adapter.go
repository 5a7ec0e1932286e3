// Package reports adapts the external Report Store into the engine's source
// of eligible reports.
package reports

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/couchcryptid/hazard-hotspot-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

// Lister is the Report Store capability the adapter consumes: public reports
// created at or after since.
type Lister interface {
	ListPublicReportsSince(ctx context.Context, since time.Time) ([]domain.Report, error)
}

// Adapter fetches the reports eligible for a recalculation cycle.
type Adapter struct {
	store Lister
	clock clockwork.Clock
}

// NewAdapter wraps store. A nil clock uses real time.
func NewAdapter(store Lister, clock clockwork.Clock) *Adapter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Adapter{store: store, clock: clock}
}

// FetchEligibleReports returns public reports created within the last
// timeWindowHours, ordered by created_at then id. Store failures are
// returned to the caller, never converted into an empty result.
func (a *Adapter) FetchEligibleReports(ctx context.Context, timeWindowHours int) ([]domain.Report, error) {
	cutoff := a.clock.Now().Add(-time.Duration(timeWindowHours) * time.Hour)

	listed, err := a.store.ListPublicReportsSince(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("fetch eligible reports: %w", err)
	}

	eligible := make([]domain.Report, 0, len(listed))
	for _, r := range listed {
		if r.Eligible(cutoff) {
			eligible = append(eligible, r)
		}
	}

	// Clustering is order dependent, so the order is pinned here rather than
	// trusted to the store.
	slices.SortStableFunc(eligible, func(x, y domain.Report) int {
		if c := x.CreatedAt.Compare(y.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(x.ID, y.ID)
	})
	return eligible, nil
}
