// Package adapters implements C2: uniform, narrow contracts to the
// metrics source, cluster introspection, graph store, vector store and
// text generator, each call wrapped by internal/resilience (C1). Every
// adapter call is the only suspension point in the core; everything
// else downstream is CPU-bound and synchronous (spec.md section 4.2).
package adapters

import (
	"context"
	"time"
)

// MetricPoint is one (timestamp, value) sample; a NaN value is the
// sentinel the correlation analyzer recognises as a gap.
type MetricPoint struct {
	Timestamp time.Time
	Value     float64
}

// MetricsSource is the C2 metrics contract.
type MetricsSource interface {
	QueryInstant(ctx context.Context, expr string, at time.Time) (MetricPoint, error)
	QueryRange(ctx context.Context, expr string, start, end time.Time, step time.Duration) ([]MetricPoint, error)
	ListActiveAlerts(ctx context.Context) ([]RawAlert, error)
}

// RawAlert is a provider-native alert record as returned by the metrics
// source's list_active_alerts / an alert provider's list_active.
type RawAlert struct {
	Provider    string
	Fingerprint string
	Service     string
	Severity    string
	Description string
	Labels      map[string]string
	Annotations map[string]string
	Status      string
	StartsAt    time.Time
	EndsAt      time.Time
}

// Pod is a cluster-introspection pod summary.
type Pod struct {
	Name         string
	Namespace    string
	Labels       map[string]string
	RestartCount int
	Status       string
}

// ClusterEvent is a Kubernetes event record.
type ClusterEvent struct {
	Timestamp      time.Time
	Reason         string
	InvolvedObject string
	Message        string
}

// ClusterIntrospection is the C2 cluster contract.
type ClusterIntrospection interface {
	ListPods(ctx context.Context, selector string) ([]Pod, error)
	FetchLogs(ctx context.Context, pod string, since time.Time, lines int) (string, error)
	FetchEvents(ctx context.Context, namespace string, since time.Time) ([]ClusterEvent, error)
}

// ServiceGraphEdge is a dependency edge between two services.
type ServiceGraphEdge struct {
	Source    string
	Target    string
	CallRate  float64
	ErrorRate float64
}

// GraphStore is the C2 graph-store contract: transactional key-value +
// relations with compare-and-set on node properties. Writes to playbook
// statistics must occur within one transaction (spec.md sections 4.2,
// 4.8).
type GraphStore interface {
	UpsertNode(ctx context.Context, label string, props map[string]any) error
	UpsertRelation(ctx context.Context, fromID, relType, toID string, props map[string]any) error
	Query(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)
	ServiceGraph(ctx context.Context, tenantID string) ([]ServiceGraphEdge, error)
	Close(ctx context.Context) error
}

// VectorMatch is one vector-search hit.
type VectorMatch struct {
	ID      string
	Score   float64
	Payload map[string]any
}

// VectorStore is the C2 vector-store contract.
type VectorStore interface {
	Upsert(ctx context.Context, id string, vector []float32, payload map[string]any) error
	Search(ctx context.Context, vector []float32, topK int, minScore float64) ([]VectorMatch, error)
}

// GenerateOptions are the recognised text-generator options from
// spec.md section 6.
type GenerateOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
	Stop        []string
}

// TextGenerator is the C2 text-generator contract. Both methods may
// fail with errs.UpstreamUnavailable.
type TextGenerator interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}
