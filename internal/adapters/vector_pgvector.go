package adapters

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/strands/strands/internal/errs"
	"github.com/strands/strands/internal/resilience"
)

// PgVectorStore implements VectorStore against Postgres+pgvector,
// generalising kube-rca-backend/internal/db/postgres.go's pool
// construction and embedding.go's pgvector.NewVector insert shape onto
// the upsert/search contract spec.md section 6 names (similar-incident
// recall and pattern recall by embedding).
type PgVectorStore struct {
	pool  *pgxpool.Pool
	table string
	exec  *resilience.Executor
}

// NewPgVectorStore parses dsn, builds a pool, and verifies connectivity
// against a table holding (id text primary key, embedding vector(n),
// payload jsonb).
func NewPgVectorStore(ctx context.Context, dsn, table string) (*PgVectorStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errs.New("vector.Connect", errs.ValidationFailed, "parse dsn", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errs.New("vector.Connect", errs.UpstreamUnavailable, "create pool", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errs.New("vector.Connect", errs.UpstreamUnavailable, "ping", err)
	}
	return &PgVectorStore{pool: pool, table: table, exec: resilience.NewExecutor("vector-store")}, nil
}

// Upsert writes a single (id, vector, payload) row.
func (v *PgVectorStore) Upsert(ctx context.Context, id string, vector []float32, payload map[string]any) error {
	return v.exec.Execute(ctx, func(ctx context.Context) error {
		query := fmt.Sprintf(`
			INSERT INTO %s (id, embedding, payload)
			VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET embedding = EXCLUDED.embedding, payload = EXCLUDED.payload
		`, v.table)
		_, err := v.pool.Exec(ctx, query, id, pgvector.NewVector(vector), payload)
		if err != nil {
			return errs.New("vector.Upsert", errs.UpstreamUnavailable, "insert row", err)
		}
		return nil
	})
}

// Search returns the topK nearest neighbours by cosine distance whose
// resulting similarity score is at least minScore.
func (v *PgVectorStore) Search(ctx context.Context, vector []float32, topK int, minScore float64) ([]VectorMatch, error) {
	var matches []VectorMatch
	err := v.exec.Execute(ctx, func(ctx context.Context) error {
		query := fmt.Sprintf(`
			SELECT id, payload, 1 - (embedding <=> $1) AS score
			FROM %s
			WHERE 1 - (embedding <=> $1) >= $2
			ORDER BY embedding <=> $1
			LIMIT $3
		`, v.table)
		rows, err := v.pool.Query(ctx, query, pgvector.NewVector(vector), minScore, topK)
		if err != nil {
			return errs.New("vector.Search", errs.UpstreamUnavailable, "query failed", err)
		}
		defer rows.Close()

		matches = make([]VectorMatch, 0, topK)
		for rows.Next() {
			var m VectorMatch
			if err := rows.Scan(&m.ID, &m.Payload, &m.Score); err != nil {
				return errs.New("vector.Search", errs.UpstreamUnavailable, "scan row", err)
			}
			matches = append(matches, m)
		}
		if err := rows.Err(); err != nil {
			return errs.New("vector.Search", errs.UpstreamUnavailable, "iterate rows", err)
		}
		return nil
	})
	return matches, err
}

// Close releases the pool.
func (v *PgVectorStore) Close() {
	v.pool.Close()
}
