// Package ingest implements C3: priority-ordered provider polling,
// normalisation, fingerprint-based deduplication and time-window
// clustering of raw alerts into AlertClusters, generalising the
// teacher's single-source mirador-core polling onto a priority list of
// providers following kube-rca-backend's AlertmanagerWebhook shape for
// the provider-native alert record.
package ingest

import (
	"context"
	"sort"

	"github.com/strands/strands/internal/adapters"
	"github.com/strands/strands/internal/errs"
)

// Provider is one alert source, ranked by Priority (higher tried
// first). ListActiveAlerts is expected to go through a C1 executor
// internally (HTTPMetricsSource already does).
type Provider struct {
	Name     string
	Priority int
	Source   adapters.MetricsSource
}

// Collector polls providers highest-priority-first within one cycle,
// stopping at the first that returns successfully (spec.md section
// 4.3's "first success, any non-empty result or explicit empty-OK").
type Collector struct {
	providers []Provider
}

// NewCollector sorts providers by descending priority once at
// construction so Collect need not re-sort every cycle.
func NewCollector(providers []Provider) *Collector {
	sorted := make([]Provider, len(providers))
	copy(sorted, providers)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority > sorted[j].Priority })
	return &Collector{providers: sorted}
}

// Collect tries each provider in priority order. A provider call that
// errors (including CIRCUIT_OPEN from its own C1 guard) counts as
// unavailable and the collector falls through to the next. If every
// provider is unavailable, Collect returns NO_PROVIDER_AVAILABLE.
func (c *Collector) Collect(ctx context.Context) ([]adapters.RawAlert, string, error) {
	for _, p := range c.providers {
		alerts, err := p.Source.ListActiveAlerts(ctx)
		if err != nil {
			continue
		}
		return alerts, p.Name, nil
	}
	return nil, "", errs.New("ingest.Collect", errs.NoProviderAvailable, "all configured providers unavailable this cycle", nil)
}
