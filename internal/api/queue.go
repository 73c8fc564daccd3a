// Package api implements the HTTP/JSON surface around the controller:
// an Alertmanager-style webhook receiver, C9 review approve/reject
// endpoints, playbook CRUD, and a health probe, grounded directly in
// kube-rca-backend's gin handler package.
package api

import (
	"context"
	"sync"
	"time"

	"github.com/strands/strands/internal/adapters"
	"github.com/strands/strands/internal/errs"
)

// WebhookQueue buffers alerts pushed by a webhook call until the next
// tick's Collector.Collect drains them, turning the push-style
// Alertmanager webhook into the pull-style MetricsSource.ListActiveAlerts
// contract C3 already consumes. Alerts are held until drained rather
// than for a fixed TTL: a slow tick still sees every alert posted since
// its last run.
//
// Wired at the highest Collector priority, ListActiveAlerts reports
// itself unavailable whenever nothing has been pushed since the last
// drain, so an idle webhook queue falls through to the next configured
// provider instead of masking it with an empty success every cycle
// (Collect takes the first provider that returns successfully, even
// with zero alerts).
type WebhookQueue struct {
	mu     sync.Mutex
	alerts []adapters.RawAlert
}

// NewWebhookQueue builds an empty queue.
func NewWebhookQueue() *WebhookQueue {
	return &WebhookQueue{}
}

var _ adapters.MetricsSource = (*WebhookQueue)(nil)

// Push appends alerts received from a webhook call.
func (q *WebhookQueue) Push(alerts []adapters.RawAlert) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.alerts = append(q.alerts, alerts...)
}

// ListActiveAlerts drains and returns everything queued since the last
// call, satisfying adapters.MetricsSource so the queue can be wired in
// as an ingest.Provider. An empty queue is reported as unavailable
// rather than an empty success, so the collector falls through to the
// next provider instead of treating "nothing posted this cycle" as
// "zero alerts exist".
func (q *WebhookQueue) ListActiveAlerts(ctx context.Context) ([]adapters.RawAlert, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.alerts) == 0 {
		return nil, errs.New("webhookqueue.ListActiveAlerts", errs.UpstreamUnavailable, "no alerts queued this cycle", nil)
	}
	drained := q.alerts
	q.alerts = nil
	return drained, nil
}

// QueryInstant and QueryRange are not meaningful for a webhook-fed
// queue; specialists needing metric time series use the configured
// METRICS_URL source directly, not this queue.
func (q *WebhookQueue) QueryInstant(ctx context.Context, expr string, at time.Time) (adapters.MetricPoint, error) {
	return adapters.MetricPoint{}, nil
}

func (q *WebhookQueue) QueryRange(ctx context.Context, expr string, start, end time.Time, step time.Duration) ([]adapters.MetricPoint, error) {
	return nil, nil
}
