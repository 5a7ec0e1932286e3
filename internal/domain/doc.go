// Package domain models ocean-hazard reports and the hotspots derived from them.
//
// # Reports
//
// Reports are created by field observers and citizen reporters and live in an
// external Report Store. Only public reports inside a trailing time window are
// eligible for hotspot detection. A report carries a WGS-84 position, a
// four-level severity, a free-form hazard type ("tsunami", "flooding",
// "rip_current", ...) and a verification status.
//
// Reports with coordinates outside [-90, 90] x [-180, 180], non-finite
// coordinates or an unknown severity are rejected before clustering by
// [PartitionValid] so that a single bad row cannot move a hotspot centroid.
//
// # Clustering
//
// [BuildClusters] is a greedy seed-and-absorb pass, not a density-based
// algorithm:
//
//	for each unprocessed report r, in input order:
//	    cluster = {r} + every unprocessed report within MaxRadiusMeters of r
//	    mark all of them processed
//	    keep cluster only if len(cluster) >= MinReports
//
// Members are within MaxRadiusMeters of the seed, not necessarily of each
// other, and a report between two would-be seeds joins whichever seed comes
// first. The result depends on input order; callers pin it to created_at
// ascending, then id ascending.
//
// # Scoring
//
// [ScoreCluster] derives the hotspot geometry and scores:
//
//	center         mean latitude, mean longitude of members
//	radius         min(MaxRadiusMeters, max distance member -> center)
//	weighted score sum(weight(member.severity)) / n
//	                 >= 6 critical | >= 3 high | >= 1.5 medium | else low
//	confidence     min(n/10, 1)*0.6
//	               + weight(level)/weight(critical)*0.4
//	               + verified/n*0.2            clamped to [0, 1]
//
// With the default weights (1, 2, 4, 8) weight(critical) is 8.
//
// # Distances
//
// [Distance] is the haversine great-circle distance on a sphere of radius
// 6,371,000 m, computed with the S2 geometry library.
package domain
