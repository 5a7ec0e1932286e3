package kafka

import (
	"testing"
	"time"

	"github.com/couchcryptid/hazard-hotspot-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeSnapshot(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	snapshot := domain.Snapshot{
		CycleID:     "cycle-1",
		GeneratedAt: now,
		Hotspots: []domain.Hotspot{{
			ID:            "h-1",
			Center:        domain.Location{Lat: 13.05, Lng: 80.28},
			ReportCount:   5,
			SeverityLevel: domain.SeverityHigh,
			HazardTypes:   []string{"storm_surge"},
		}},
	}

	msg, err := serializeSnapshot(snapshot)
	require.NoError(t, err)

	assert.Equal(t, []byte("hotspots"), msg.Key)
	assert.Contains(t, string(msg.Value), `"cycle_id":"cycle-1"`)
	assert.Contains(t, string(msg.Value), `"severity_level":"high"`)
	assert.Contains(t, string(msg.Value), `"center_location":{"lat":13.05,"lng":80.28}`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "cycle_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("cycle-1"), msg.Headers[0].Value)
	assert.Equal(t, "hotspot_count", msg.Headers[1].Key)
	assert.Equal(t, []byte("1"), msg.Headers[1].Value)
	assert.Equal(t, "generated_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[2].Value)
}

func TestSerializeSnapshot_EmptySetIsArray(t *testing.T) {
	msg, err := serializeSnapshot(domain.Snapshot{CycleID: "cycle-2"})
	require.NoError(t, err)

	assert.Contains(t, string(msg.Value), `"hotspots":[]`)
	assert.Equal(t, []byte("0"), msg.Headers[1].Value)
}

func TestSerializeSnapshot_KeyStableAcrossCycles(t *testing.T) {
	first, err := serializeSnapshot(domain.Snapshot{CycleID: "3f1c9a2e-cycle-a"})
	require.NoError(t, err)
	second, err := serializeSnapshot(domain.Snapshot{CycleID: "8d04b7c1-cycle-b"})
	require.NoError(t, err)

	assert.Equal(t, first.Key, second.Key)
	assert.Equal(t, []byte("8d04b7c1-cycle-b"), second.Headers[0].Value)
}
