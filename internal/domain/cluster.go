package domain

// Cluster is an unscored group of reports formed around a seed. Members[0]
// is always the seed.
type Cluster struct {
	Members []Report
}

// Seed returns the report the cluster was grown from.
func (c Cluster) Seed() Report {
	return c.Members[0]
}

// BuildClusters partitions reports with the greedy seed-and-absorb pass
// described in the package documentation. Only clusters with at least
// cfg.MinReports members are returned. The output is deterministic for a
// given input order.
func BuildClusters(reports []Report, cfg CalculationConfig) []Cluster {
	processed := make([]bool, len(reports))
	var clusters []Cluster

	for i, seed := range reports {
		if processed[i] {
			continue
		}
		members := []Report{seed}
		for j := range reports {
			if j == i || processed[j] {
				continue
			}
			if Distance(seed.Location, reports[j].Location) <= cfg.MaxRadiusMeters {
				members = append(members, reports[j])
				processed[j] = true
			}
		}
		processed[i] = true

		// Undersized groups are dropped; their members stay processed.
		if len(members) >= cfg.MinReports {
			clusters = append(clusters, Cluster{Members: members})
		}
	}
	return clusters
}
