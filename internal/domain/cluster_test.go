package domain

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, time.March, 11, 5, 46, 0, 0, time.UTC)

const metersPerDegree = EarthRadiusMeters * math.Pi / 180

// offset moves l by the given kilometers north and east (small-distance approximation).
func offset(l Location, northKm, eastKm float64) Location {
	lat := l.Lat + northKm*1000/metersPerDegree
	lng := l.Lng + eastKm*1000/(metersPerDegree*math.Cos(l.Lat*math.Pi/180))
	return Location{Lat: lat, Lng: lng}
}

func report(id string, loc Location, sev Severity, status ReportStatus, hazard string) Report {
	return Report{
		ID:         id,
		Location:   loc,
		Severity:   sev,
		HazardType: hazard,
		Status:     status,
		IsPublic:   true,
		CreatedAt:  baseTime,
	}
}

func memberIDs(c Cluster) []string {
	ids := make([]string, len(c.Members))
	for i, m := range c.Members {
		ids[i] = m.ID
	}
	return ids
}

func TestBuildClusters_FiveNearbyReports(t *testing.T) {
	origin := Location{Lat: 13.05, Lng: 80.28}
	var reports []Report
	for i, d := range []float64{0, 0.4, 0.8, 1.2, 1.6} {
		reports = append(reports, report(string(rune('a'+i)), offset(origin, d, d/2), SeverityHigh, StatusVerified, "storm_surge"))
	}

	clusters := BuildClusters(reports, DefaultCalculationConfig())

	require.Len(t, clusters, 1)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, memberIDs(clusters[0]))
	assert.Equal(t, "a", clusters[0].Seed().ID)
}

func TestBuildClusters_TwoDistantReports(t *testing.T) {
	origin := Location{Lat: 13.05, Lng: 80.28}
	reports := []Report{
		report("a", origin, SeverityHigh, StatusVerified, "tsunami"),
		report("b", offset(origin, 50, 0), SeverityHigh, StatusVerified, "tsunami"),
	}

	assert.Empty(t, BuildClusters(reports, DefaultCalculationConfig()))
}

func TestBuildClusters_EveryClusterMeetsMinimum(t *testing.T) {
	origin := Location{Lat: -8.5, Lng: 115.2}
	var reports []Report
	for i := 0; i < 40; i++ {
		// Spread across a 60km x 60km box.
		loc := offset(origin, float64(i%8)*7.5, float64(i/8)*12)
		reports = append(reports, report(string(rune('A'+i)), loc, SeverityMedium, StatusUnverified, "flooding"))
	}
	cfg := DefaultCalculationConfig()
	cfg.MinReports = 4

	clusters := BuildClusters(reports, cfg)

	seen := map[string]bool{}
	for _, c := range clusters {
		assert.GreaterOrEqual(t, len(c.Members), cfg.MinReports)
		for _, m := range c.Members {
			assert.LessOrEqual(t, Distance(c.Seed().Location, m.Location), cfg.MaxRadiusMeters)
			assert.False(t, seen[m.ID], "report %s assigned twice", m.ID)
			seen[m.ID] = true
		}
	}
}

func TestBuildClusters_Deterministic(t *testing.T) {
	origin := Location{Lat: 35.0, Lng: 139.8}
	var reports []Report
	for i := 0; i < 25; i++ {
		loc := offset(origin, float64(i%5)*4, float64(i/5)*4)
		reports = append(reports, report(string(rune('a'+i)), loc, SeverityLow, StatusUnverified, "high_waves"))
	}
	cfg := DefaultCalculationConfig()

	first := BuildClusters(reports, cfg)
	second := BuildClusters(reports, cfg)

	require.NotEmpty(t, first)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("cluster membership changed between runs (-first +second):\n%s", diff)
	}
}

func TestBuildClusters_OrderDependentBinding(t *testing.T) {
	origin := Location{Lat: 0, Lng: 0}
	a := report("a", origin, SeverityLow, StatusUnverified, "rip_current")
	b := report("b", offset(origin, 0, 8), SeverityLow, StatusUnverified, "rip_current")
	c := report("c", offset(origin, 0, 16), SeverityLow, StatusUnverified, "rip_current")
	cfg := DefaultCalculationConfig()
	cfg.MinReports = 2

	fromA := BuildClusters([]Report{a, b, c}, cfg)
	require.Len(t, fromA, 1)
	assert.Equal(t, []string{"a", "b"}, memberIDs(fromA[0]))

	fromB := BuildClusters([]Report{b, a, c}, cfg)
	require.Len(t, fromB, 1)
	assert.Equal(t, []string{"b", "a", "c"}, memberIDs(fromB[0]))
}

func TestBuildClusters_DiscardedMembersStayProcessed(t *testing.T) {
	origin := Location{Lat: 0, Lng: 0}
	reports := []Report{
		report("a", origin, SeverityHigh, StatusVerified, "tsunami"),
		report("b", offset(origin, 0, 5.5), SeverityHigh, StatusVerified, "tsunami"),
		report("x", offset(origin, 0, 13.3), SeverityHigh, StatusVerified, "tsunami"),
		report("y", offset(origin, 0, 14.5), SeverityHigh, StatusVerified, "tsunami"),
	}

	// a absorbs b (too small), x then only reaches y because b is consumed.
	assert.Empty(t, BuildClusters(reports, DefaultCalculationConfig()))
}

func TestPartitionValid(t *testing.T) {
	good := report("ok", Location{Lat: 10, Lng: 10}, SeverityLow, StatusUnverified, "flooding")
	nanLat := report("nan", Location{Lat: math.NaN(), Lng: 10}, SeverityLow, StatusUnverified, "flooding")
	outOfRange := report("range", Location{Lat: 10, Lng: 181}, SeverityLow, StatusUnverified, "flooding")
	infLng := report("inf", Location{Lat: 10, Lng: math.Inf(-1)}, SeverityLow, StatusUnverified, "flooding")
	badSeverity := report("sev", Location{Lat: 10, Lng: 10}, Severity("extreme"), StatusUnverified, "flooding")

	valid, rejected := PartitionValid([]Report{nanLat, good, outOfRange, infLng, badSeverity})

	require.Len(t, valid, 1)
	assert.Equal(t, "ok", valid[0].ID)
	require.Len(t, rejected, 4)
	assert.Equal(t, "nan", rejected[0].Report.ID)
	assert.Contains(t, rejected[0].Err.Error(), "invalid location")
	assert.Contains(t, rejected[3].Err.Error(), "unknown severity")
}

func TestReport_Eligible(t *testing.T) {
	cutoff := baseTime.Add(-24 * time.Hour)
	r := report("r", Location{}, SeverityLow, StatusUnverified, "flooding")

	assert.True(t, r.Eligible(cutoff))

	r.CreatedAt = cutoff
	assert.True(t, r.Eligible(cutoff), "cutoff is inclusive")

	r.CreatedAt = cutoff.Add(-time.Second)
	assert.False(t, r.Eligible(cutoff))

	r.CreatedAt = baseTime
	r.IsPublic = false
	assert.False(t, r.Eligible(cutoff))
}
