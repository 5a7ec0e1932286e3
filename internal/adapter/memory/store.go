// Package memory provides an in-process hotspot snapshot that serves reads
// without touching the database.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/couchcryptid/hazard-hotspot-service/internal/domain"
)

// Backing is the durable hotspot table behind the snapshot.
type Backing interface {
	ReplaceAll(ctx context.Context, hotspots []domain.Hotspot) error
	All(ctx context.Context) ([]domain.Hotspot, error)
}

// SnapshotStore holds the current hotspot set behind an atomic pointer.
// Writes go to the backing store first and the snapshot is swapped only when
// that succeeds, so readers see either the old set or the new one.
type SnapshotStore struct {
	backing Backing
	snap    atomic.Pointer[[]domain.Hotspot]
}

// NewSnapshotStore creates a SnapshotStore. backing may be nil, in which case
// hotspots live only in memory.
func NewSnapshotStore(backing Backing) *SnapshotStore {
	return &SnapshotStore{backing: backing}
}

// Warm loads the persisted set so reads are served from memory right after
// startup.
func (s *SnapshotStore) Warm(ctx context.Context) error {
	if s.backing == nil {
		return nil
	}
	hotspots, err := s.backing.All(ctx)
	if err != nil {
		return fmt.Errorf("warm hotspot snapshot: %w", err)
	}
	s.snap.Store(&hotspots)
	return nil
}

// ReplaceAll persists hotspots and then publishes them to readers.
func (s *SnapshotStore) ReplaceAll(ctx context.Context, hotspots []domain.Hotspot) error {
	next := slices.Clone(hotspots)
	if next == nil {
		next = []domain.Hotspot{}
	}
	if s.backing != nil {
		if err := s.backing.ReplaceAll(ctx, next); err != nil {
			return err
		}
	}
	s.snap.Store(&next)
	return nil
}

// All returns a copy of the current set. Before the first write or Warm it
// reads through to the backing store.
func (s *SnapshotStore) All(ctx context.Context) ([]domain.Hotspot, error) {
	if p := s.snap.Load(); p != nil {
		return slices.Clone(*p), nil
	}
	if s.backing != nil {
		return s.backing.All(ctx)
	}
	return []domain.Hotspot{}, nil
}
