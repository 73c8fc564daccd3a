package adapters

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/strands/strands/internal/errs"
	"github.com/strands/strands/internal/resilience"
)

// Neo4jGraphStore implements GraphStore against a Neo4j cluster,
// generalising original_source/src/core/neo4j_playbook_store.py's
// MERGE/MATCH Cypher shape and driver lifecycle (connect once, run
// queries through a session per call) onto the wider node/relation set
// spec.md section 6 names: Playbook, PlaybookExecution, AlertCluster,
// DecisionCandidate, ReviewRecord, and the EXECUTED_BY/DECIDED_FROM/
// REVIEWED_BY/PREVIOUS_VERSION_OF/TARGETS relations.
type Neo4jGraphStore struct {
	driver   neo4j.DriverWithContext
	database string
	exec     *resilience.Executor
}

// NewNeo4jGraphStore dials uri with basic auth and verifies connectivity.
func NewNeo4jGraphStore(ctx context.Context, uri, username, password, database string) (*Neo4jGraphStore, error) {
	driver, err := neo4j.NewDriverWithContext(
		uri,
		neo4j.BasicAuth(username, password, ""),
		func(c *neo4j.Config) {
			c.MaxConnectionLifetime = 5 * time.Minute
			c.MaxConnectionPoolSize = 50
			c.ConnectionAcquisitionTimeout = 10 * time.Second
		},
	)
	if err != nil {
		return nil, errs.New("graph.Connect", errs.UpstreamUnavailable, "dial neo4j", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, errs.New("graph.Connect", errs.UpstreamUnavailable, "verify connectivity", err)
	}
	if database == "" {
		database = "neo4j"
	}
	return &Neo4jGraphStore{driver: driver, database: database, exec: resilience.NewExecutor("graph-store")}, nil
}

func (g *Neo4jGraphStore) session(ctx context.Context) neo4j.SessionWithContext {
	return g.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: g.database})
}

// UpsertNode runs a MERGE...SET against a single node labelled label,
// keyed by props["id"].
func (g *Neo4jGraphStore) UpsertNode(ctx context.Context, label string, props map[string]any) error {
	return g.exec.Execute(ctx, func(ctx context.Context) error {
		session := g.session(ctx)
		defer session.Close(ctx)

		query := "MERGE (n:" + label + " {id: $id}) SET n += $props"
		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			return tx.Run(ctx, query, map[string]any{"id": props["id"], "props": props})
		})
		if err != nil {
			return errs.New("graph.UpsertNode", errs.UpstreamUnavailable, "upsert node", err)
		}
		return nil
	})
}

// UpsertRelation creates (or merges) a typed relation between two nodes
// identified by id.
func (g *Neo4jGraphStore) UpsertRelation(ctx context.Context, fromID, relType, toID string, props map[string]any) error {
	return g.exec.Execute(ctx, func(ctx context.Context) error {
		session := g.session(ctx)
		defer session.Close(ctx)

		query := "MATCH (a {id: $from}), (b {id: $to}) MERGE (a)-[r:" + relType + "]->(b) SET r += $props"
		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			return tx.Run(ctx, query, map[string]any{"from": fromID, "to": toID, "props": props})
		})
		if err != nil {
			return errs.New("graph.UpsertRelation", errs.UpstreamUnavailable, "upsert relation", err)
		}
		return nil
	})
}

// Query runs an arbitrary Cypher-like read query and returns each row as
// a plain map.
func (g *Neo4jGraphStore) Query(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	var rows []map[string]any
	err := g.exec.Execute(ctx, func(ctx context.Context) error {
		session := g.session(ctx)
		defer session.Close(ctx)

		result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			res, err := tx.Run(ctx, cypher, params)
			if err != nil {
				return nil, err
			}
			records, err := res.Collect(ctx)
			if err != nil {
				return nil, err
			}
			out := make([]map[string]any, 0, len(records))
			for _, rec := range records {
				out = append(out, rec.AsMap())
			}
			return out, nil
		})
		if err != nil {
			return errs.New("graph.Query", errs.UpstreamUnavailable, "query failed", err)
		}
		rows = result.([]map[string]any)
		return nil
	})
	return rows, err
}

// ServiceGraph reads the CALLS relation weights between a tenant's
// Service nodes: its currently-known service dependency graph.
func (g *Neo4jGraphStore) ServiceGraph(ctx context.Context, tenantID string) ([]ServiceGraphEdge, error) {
	rows, err := g.Query(ctx, `
		MATCH (a:Service {tenant_id: $tenant})-[r:CALLS]->(b:Service {tenant_id: $tenant})
		RETURN a.name AS source, b.name AS target, r.call_rate AS call_rate, r.error_rate AS error_rate
	`, map[string]any{"tenant": tenantID})
	if err != nil {
		return nil, err
	}
	edges := make([]ServiceGraphEdge, 0, len(rows))
	for _, row := range rows {
		edges = append(edges, ServiceGraphEdge{
			Source:    toString(row["source"]),
			Target:    toString(row["target"]),
			CallRate:  toFloat(row["call_rate"]),
			ErrorRate: toFloat(row["error_rate"]),
		})
	}
	return edges, nil
}

// Close releases the underlying driver.
func (g *Neo4jGraphStore) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	default:
		return 0
	}
}
