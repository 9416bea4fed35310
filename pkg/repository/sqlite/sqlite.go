package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/m-mizutani/goerr/v2"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/secmon-lab/lectern/pkg/domain/model"
	"github.com/secmon-lab/lectern/pkg/domain/types"
	"github.com/secmon-lab/lectern/pkg/utils/safe"
)

const schema = `
CREATE TABLE IF NOT EXISTS collections (
	name       TEXT PRIMARY KEY,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS chunks (
	id         TEXT PRIMARY KEY,
	collection TEXT NOT NULL REFERENCES collections(name),
	text       TEXT NOT NULL,
	source     TEXT NOT NULL,
	embedding  BLOB NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_collection ON chunks(collection);
`

// Store is a SQLite-backed vector store. Collections live in one database
// file under the configured data directory; embeddings are stored as
// little-endian float32 blobs and nearest-neighbor search runs in process.
type Store struct {
	db   *sql.DB
	path string
}

// New opens (or creates) the vector database under dataDir
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, goerr.Wrap(err, "failed to create data directory", goerr.V("dir", dataDir))
	}

	dbPath := filepath.Join(dataDir, "vectors.db")

	// WAL mode for concurrent readers during ingestion
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open vector database", goerr.V("path", dbPath))
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to enable foreign keys")
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to create schema")
	}

	return &Store{db: db, path: dbPath}, nil
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetOrCreate registers the collection if it does not exist yet.
// INSERT OR IGNORE keeps concurrent first-writers from racing.
func (s *Store) GetOrCreate(ctx context.Context, key types.CollectionKey) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO collections (name, created_at) VALUES (?, ?)",
		key.String(), time.Now().UTC())
	if err != nil {
		return goerr.Wrap(err, "failed to get or create collection", goerr.V("collection", key))
	}
	return nil
}

// Insert writes all chunks in one transaction so a failed or cancelled
// upload never leaves a half-inserted batch behind.
func (s *Store) Insert(ctx context.Context, key types.CollectionKey, chunks []*model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO collections (name, created_at) VALUES (?, ?)",
		key.String(), time.Now().UTC()); err != nil {
		return goerr.Wrap(err, "failed to ensure collection", goerr.V("collection", key))
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO chunks (id, collection, text, source, embedding, created_at) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return goerr.Wrap(err, "failed to prepare insert")
	}
	defer safe.Close(ctx, stmt)

	now := time.Now().UTC()
	for _, c := range chunks {
		if c.Text == "" {
			return goerr.New("chunk text must not be empty", goerr.V("collection", key))
		}
		if len(c.Embedding) == 0 {
			return goerr.New("chunk embedding is required", goerr.V("collection", key))
		}

		id := c.ID
		if id == "" {
			id = model.NewChunkID()
		}
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}

		if _, err := stmt.ExecContext(ctx,
			string(id), key.String(), c.Text, c.Source, encodeVector(c.Embedding), createdAt); err != nil {
			return goerr.Wrap(err, "failed to insert chunk",
				goerr.V("collection", key), goerr.V("chunk_id", id))
		}
	}

	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit insert", goerr.V("collection", key))
	}
	return nil
}

// Search scans the collection and returns the k nearest chunks by cosine
// distance. An unknown collection yields an empty result.
func (s *Store) Search(ctx context.Context, key types.CollectionKey, vector []float32, k int) ([]*model.ScoredChunk, error) {
	if k <= 0 {
		return nil, goerr.New("k must be positive", goerr.V("k", k))
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, text, source, embedding, created_at FROM chunks WHERE collection = ?",
		key.String())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query chunks", goerr.V("collection", key))
	}
	defer safe.Close(ctx, rows)

	var scored []*model.ScoredChunk
	for rows.Next() {
		var (
			id        string
			text      string
			source    string
			blob      []byte
			createdAt time.Time
		)
		if err := rows.Scan(&id, &text, &source, &blob, &createdAt); err != nil {
			return nil, goerr.Wrap(err, "failed to scan chunk row")
		}

		embedding, err := decodeVector(blob)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to decode embedding", goerr.V("chunk_id", id))
		}
		if len(embedding) != len(vector) {
			return nil, goerr.New("embedding dimension mismatch",
				goerr.V("collection", key),
				goerr.V("stored", len(embedding)),
				goerr.V("query", len(vector)))
		}

		var dot float32
		for i, v := range embedding {
			dot += v * vector[i]
		}
		scored = append(scored, &model.ScoredChunk{
			Chunk: model.Chunk{
				ID:        model.ChunkID(id),
				Text:      text,
				Source:    source,
				Embedding: embedding,
				CreatedAt: createdAt,
			},
			Distance: 1 - dot,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate chunk rows")
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Distance < scored[j].Distance
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	if scored == nil {
		scored = []*model.ScoredChunk{}
	}
	return scored, nil
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, goerr.New("invalid embedding blob length", goerr.V("bytes", len(b)))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}
