package correlate

import (
	"context"
	"fmt"
	"time"

	"github.com/strands/strands/internal/cache"
	"github.com/strands/strands/internal/domain"
)

// AnalyzeCached wraps Analyze in the same cache-aside pattern
// internal/cache's keys.go was built for: a CorrelationPattern for a
// given cluster/series pair rarely changes within a tick's lookback
// window, so repeat calls (a retried tick, or a replay run re-scoring
// the same window) skip recomputation and hit the cache instead.
// provider may be cache.NoopProvider{} to disable caching entirely.
func AnalyzeCached(ctx context.Context, provider cache.Provider, clusterID string, corrType domain.CorrelationType, seriesAName, seriesBName string, a, b []Sample, opts Options, ttl time.Duration) domain.CorrelationPattern {
	key := cache.PatternsKey(fmt.Sprintf("%s:%s:%s:%s", clusterID, corrType, seriesAName, seriesBName))

	var cached domain.CorrelationPattern
	if err := cache.GetJSON(ctx, provider, key, &cached); err == nil {
		return cached
	}

	pattern := Analyze(corrType, seriesAName, seriesBName, a, b, opts)
	cache.SetJSON(ctx, provider, key, pattern, ttl)
	return pattern
}
