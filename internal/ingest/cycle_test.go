package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/strands/strands/internal/adapters"
)

type fakeMetricsSource struct {
	alerts []adapters.RawAlert
	err    error
}

func (f *fakeMetricsSource) QueryInstant(ctx context.Context, expr string, at time.Time) (adapters.MetricPoint, error) {
	return adapters.MetricPoint{}, nil
}

func (f *fakeMetricsSource) QueryRange(ctx context.Context, expr string, start, end time.Time, step time.Duration) ([]adapters.MetricPoint, error) {
	return nil, nil
}

func (f *fakeMetricsSource) ListActiveAlerts(ctx context.Context) ([]adapters.RawAlert, error) {
	return f.alerts, f.err
}

func severityMap() map[string]SeverityMap {
	return map[string]SeverityMap{
		"alertmanager": {
			"critical": 3,
			"warning":  1,
		},
	}
}

func TestCollectorFallsThroughOnProviderFailure(t *testing.T) {
	primary := Provider{Name: "primary", Priority: 100, Source: &fakeMetricsSource{err: errUnavailable{}}}
	secondary := Provider{Name: "secondary", Priority: 50, Source: &fakeMetricsSource{alerts: []adapters.RawAlert{{Provider: "alertmanager", Fingerprint: "fp1"}}}}

	collector := NewCollector([]Provider{secondary, primary})
	alerts, name, err := collector.Collect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "secondary" {
		t.Fatalf("provider = %q, want secondary", name)
	}
	if len(alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(alerts))
	}
}

func TestCollectorNoProviderAvailable(t *testing.T) {
	collector := NewCollector([]Provider{{Name: "only", Priority: 1, Source: &fakeMetricsSource{err: errUnavailable{}}}})
	_, _, err := collector.Collect(context.Background())
	if err == nil {
		t.Fatalf("expected NO_PROVIDER_AVAILABLE error")
	}
}

func TestPipelineDedupAndCluster(t *testing.T) {
	now := time.Now()
	raw := []adapters.RawAlert{
		{Provider: "alertmanager", Fingerprint: "fp1", Service: "checkout", Severity: "critical", StartsAt: now, Labels: map[string]string{"service": "checkout"}},
		{Provider: "alertmanager", Fingerprint: "fp1", Service: "checkout", Severity: "critical", StartsAt: now.Add(5 * time.Second), Labels: map[string]string{"service": "checkout"}},
		{Provider: "alertmanager", Fingerprint: "fp2", Service: "checkout", Severity: "warning", StartsAt: now.Add(10 * time.Second), Labels: map[string]string{"service": "checkout"}},
	}

	collector := NewCollector([]Provider{{Name: "am", Priority: 100, Source: &fakeMetricsSource{alerts: raw}}})
	normaliser := NewNormaliser(severityMap(), nil)
	dedup := NewDeduplicator(DefaultDedupWindow)
	pipeline := NewPipeline(collector, normaliser, dedup)

	result, err := pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Admitted != 2 {
		t.Fatalf("admitted = %d, want 2", result.Admitted)
	}
	if result.Dropped != 1 {
		t.Fatalf("dropped = %d, want 1", result.Dropped)
	}
	if len(result.Clusters) != 1 {
		t.Fatalf("clusters = %d, want 1", len(result.Clusters))
	}
	if len(result.Clusters[0].Members) != 2 {
		t.Fatalf("cluster members = %d, want 2", len(result.Clusters[0].Members))
	}
}

func TestPipelineRejectsUnmappedSeverity(t *testing.T) {
	now := time.Now()
	raw := []adapters.RawAlert{
		{Provider: "alertmanager", Fingerprint: "fp1", Service: "checkout", Severity: "unknown-level", StartsAt: now},
	}
	collector := NewCollector([]Provider{{Name: "am", Priority: 100, Source: &fakeMetricsSource{alerts: raw}}})
	pipeline := NewPipeline(collector, NewNormaliser(severityMap(), nil), NewDeduplicator(DefaultDedupWindow))

	result, err := pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Rejected) != 1 {
		t.Fatalf("rejected = %d, want 1", len(result.Rejected))
	}
	if result.Admitted != 0 {
		t.Fatalf("admitted = %d, want 0", result.Admitted)
	}
}

type errUnavailable struct{}

func (errUnavailable) Error() string { return "unavailable" }
