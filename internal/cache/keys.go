package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Key namespaces for the lookups C7/C4 perform through the cache-aside
// pattern original_source/src/core used for weaviate_repo.go style
// reads: check cache, fall through to the adapter on a miss, and write
// the adapter's answer back with a TTL.
const (
	namespaceSimilarIncidents = "similar-incidents"
	namespaceServiceGraph     = "service-graph"
	namespacePatterns         = "patterns"
	namespacePlaybookLookup   = "playbook-lookup"
)

// SimilarIncidentsKey builds the cache key for a fingerprint's nearest
// historical neighbours.
func SimilarIncidentsKey(fingerprint string) string {
	return fmt.Sprintf("%s:%s", namespaceSimilarIncidents, fingerprint)
}

// ServiceGraphKey builds the cache key for a tenant's service
// dependency graph snapshot.
func ServiceGraphKey(tenantID string) string {
	return fmt.Sprintf("%s:%s", namespaceServiceGraph, tenantID)
}

// PatternsKey builds the cache key for the correlation patterns
// associated with a cluster ID.
func PatternsKey(clusterID string) string {
	return fmt.Sprintf("%s:%s", namespacePatterns, clusterID)
}

// PlaybookLookupKey builds the cache key for the active-playbook
// lookup by pattern key.
func PlaybookLookupKey(patternKey string) string {
	return fmt.Sprintf("%s:%s", namespacePlaybookLookup, patternKey)
}

// GetJSON reads and unmarshals a cached value, reporting ErrCacheMiss
// on a miss so the caller can fall through to its adapter.
func GetJSON(ctx context.Context, p Provider, key string, out any) error {
	raw, err := p.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// SetJSON marshals and writes a value with the given TTL. Marshal
// failures are swallowed to a no-op: a cache write must never fail the
// caller's read path.
func SetJSON(ctx context.Context, p Provider, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = p.Set(ctx, key, raw, ttl)
}
