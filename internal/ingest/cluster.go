package ingest

import (
	"time"

	"github.com/google/uuid"

	"github.com/strands/strands/internal/domain"
)

// ClusterWindow is the truncation step spec.md section 4.3's
// clustering rule names: 5 minutes.
const ClusterWindow = 5 * time.Minute

// Clusterer groups NormalisedAlerts by (service, truncated_time_window)
// within one ingestion cycle. Clusters are finalised at end-of-cycle:
// callers construct one Clusterer per cycle and call Finalize once all
// alerts for that cycle have been added.
type Clusterer struct {
	buckets map[clusterKey]*domain.AlertCluster
	order   []clusterKey
}

type clusterKey struct {
	service string
	window  int64
}

// NewClusterer starts a fresh, empty clustering pass.
func NewClusterer() *Clusterer {
	return &Clusterer{buckets: make(map[clusterKey]*domain.AlertCluster)}
}

// Add places a NormalisedAlert into its (service, window) bucket,
// creating the bucket on first use. Rejected alerts are still clustered
// so they remain visible for diagnostics; downstream components decide
// whether to act on them.
func (c *Clusterer) Add(alert domain.NormalisedAlert) {
	key := clusterKey{
		service: alert.Service,
		window:  truncateToWindow(alert.ArrivedAt, ClusterWindow),
	}

	cluster, exists := c.buckets[key]
	if !exists {
		cluster = &domain.AlertCluster{
			ID:               uuid.NewString(),
			CanonicalService: alert.Service,
			ClusterType:      "service-window",
		}
		c.buckets[key] = cluster
		c.order = append(c.order, key)
	}
	cluster.AddMember(alert)
}

// Finalize returns the clusters formed this cycle in deterministic
// creation order (spec.md section 4.9's "deterministic order by
// cluster id" requirement is satisfied by the controller sorting this
// slice by ID before dispatch; Finalize itself preserves arrival
// order for callers that want cycle-local ordering instead).
func (c *Clusterer) Finalize() []*domain.AlertCluster {
	clusters := make([]*domain.AlertCluster, 0, len(c.order))
	for _, key := range c.order {
		clusters = append(clusters, c.buckets[key])
	}
	return clusters
}

func truncateToWindow(t time.Time, window time.Duration) int64 {
	return t.Unix() / int64(window.Seconds())
}
