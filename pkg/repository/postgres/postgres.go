package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/secmon-lab/lectern/pkg/domain/model"
	"github.com/secmon-lab/lectern/pkg/domain/types"
)

// Store is a PostgreSQL + pgvector backed vector store. Tenant isolation
// is enforced by the collection column; similarity search uses the cosine
// distance operator.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL and registers pgvector types on every
// connection in the pool.
func New(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse postgres DSN")
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create postgres pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, goerr.Wrap(err, "failed to ping postgres")
	}

	return &Store{pool: pool}, nil
}

// Migrate creates the pgvector extension and the chunk tables
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		`CREATE TABLE IF NOT EXISTS collections (
			name       TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunks (
			id         UUID PRIMARY KEY,
			collection TEXT NOT NULL REFERENCES collections(name),
			text       TEXT NOT NULL,
			source     TEXT NOT NULL,
			embedding  vector(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, model.EmbeddingDimension),
		"CREATE INDEX IF NOT EXISTS idx_chunks_collection ON chunks(collection)",
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return goerr.Wrap(err, "failed to run migration", goerr.V("stmt", stmt))
		}
	}
	return nil
}

// Close releases the connection pool
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// GetOrCreate registers the collection. ON CONFLICT DO NOTHING makes
// concurrent first-writers converge on a single row.
func (s *Store) GetOrCreate(ctx context.Context, key types.CollectionKey) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO collections (name) VALUES ($1) ON CONFLICT (name) DO NOTHING",
		key.String())
	if err != nil {
		return goerr.Wrap(err, "failed to get or create collection", goerr.V("collection", key))
	}
	return nil
}

// Insert writes all chunks in one transaction
func (s *Store) Insert(ctx context.Context, key types.CollectionKey, chunks []*model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx,
		"INSERT INTO collections (name) VALUES ($1) ON CONFLICT (name) DO NOTHING",
		key.String()); err != nil {
		return goerr.Wrap(err, "failed to ensure collection", goerr.V("collection", key))
	}

	now := time.Now().UTC()
	for _, c := range chunks {
		if c.Text == "" {
			return goerr.New("chunk text must not be empty", goerr.V("collection", key))
		}
		if len(c.Embedding) != model.EmbeddingDimension {
			return goerr.New("unexpected embedding dimension",
				goerr.V("collection", key), goerr.V("dimension", len(c.Embedding)))
		}

		id := c.ID
		if id == "" {
			id = model.NewChunkID()
		}
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}

		if _, err := tx.Exec(ctx,
			"INSERT INTO chunks (id, collection, text, source, embedding, created_at) VALUES ($1, $2, $3, $4, $5, $6)",
			string(id), key.String(), c.Text, c.Source, pgvector.NewVector(c.Embedding), createdAt); err != nil {
			return goerr.Wrap(err, "failed to insert chunk",
				goerr.V("collection", key), goerr.V("chunk_id", id))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return goerr.Wrap(err, "failed to commit insert", goerr.V("collection", key))
	}
	return nil
}

// Search returns the k nearest chunks by the cosine distance operator
func (s *Store) Search(ctx context.Context, key types.CollectionKey, vector []float32, k int) ([]*model.ScoredChunk, error) {
	if k <= 0 {
		return nil, goerr.New("k must be positive", goerr.V("k", k))
	}
	if len(vector) != model.EmbeddingDimension {
		return nil, goerr.New("unexpected query embedding dimension",
			goerr.V("dimension", len(vector)))
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, text, source, embedding, created_at, embedding <=> $2 AS distance
		 FROM chunks WHERE collection = $1
		 ORDER BY embedding <=> $2, created_at DESC
		 LIMIT $3`,
		key.String(), pgvector.NewVector(vector), k)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search chunks", goerr.V("collection", key))
	}
	defer rows.Close()

	scored := []*model.ScoredChunk{}
	for rows.Next() {
		var (
			id        string
			text      string
			source    string
			embedding pgvector.Vector
			createdAt time.Time
			distance  float64
		)
		if err := rows.Scan(&id, &text, &source, &embedding, &createdAt, &distance); err != nil {
			return nil, goerr.Wrap(err, "failed to scan chunk row")
		}
		scored = append(scored, &model.ScoredChunk{
			Chunk: model.Chunk{
				ID:        model.ChunkID(id),
				Text:      text,
				Source:    source,
				Embedding: embedding.Slice(),
				CreatedAt: createdAt,
			},
			Distance: float32(distance),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate chunk rows")
	}

	return scored, nil
}
