// Package vectordb persists document chunks and their embeddings in SQLite
// and answers nearest-neighbour queries by cosine similarity.
package vectordb

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Chunk is one embedded piece of an ingested document.
type Chunk struct {
	Source     string
	Page       int
	ChunkIndex int
	IsScanned  bool
	Content    string
	Embedding  []float32
}

// Result is a chunk paired with its similarity to the query.
type Result struct {
	Chunk
	Score float64
}

// Store is a SQLite-backed vector index. A read-only Store rejects writes.
type Store struct {
	db       *sql.DB
	readOnly bool
}

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	source      TEXT NOT NULL,
	page        INTEGER NOT NULL,
	chunk_index INTEGER NOT NULL,
	is_scanned  INTEGER NOT NULL DEFAULT 0,
	content     TEXT NOT NULL,
	embedding   BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source);
`

// Open opens (and for writers, creates) the index at path.
func Open(path string, readOnly bool) (*Store, error) {
	var dsn string
	if readOnly {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("vector index not found at %s: %w", path, err)
		}
		dsn = "file:" + path + "?mode=ro"
	} else {
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating index directory: %w", err)
			}
		}
		dsn = "file:" + path + "?_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening index: %w", err)
	}

	if !readOnly {
		if _, err := db.Exec(schema); err != nil {
			db.Close()
			return nil, fmt.Errorf("initializing schema: %w", err)
		}
	}
	return &Store{db: db, readOnly: readOnly}, nil
}

// Replace clears the index and writes chunks in a single transaction.
func (s *Store) Replace(ctx context.Context, chunks []Chunk) error {
	if s.readOnly {
		return fmt.Errorf("index is read-only")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
		return fmt.Errorf("clearing index: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (source, page, chunk_index, is_scanned, content, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, c := range chunks {
		if len(c.Embedding) == 0 {
			return fmt.Errorf("chunk %d has no embedding", i)
		}
		if _, err := stmt.ExecContext(ctx, c.Source, c.Page, c.ChunkIndex, c.IsScanned, c.Content, encodeVector(c.Embedding)); err != nil {
			return fmt.Errorf("inserting chunk %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// Search returns the k chunks most similar to query, highest score first.
// Ties keep insertion order.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]Result, error) {
	if k <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT source, page, chunk_index, is_scanned, content, embedding
		FROM chunks ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var blob []byte
		if err := rows.Scan(&r.Source, &r.Page, &r.ChunkIndex, &r.IsScanned, &r.Content, &blob); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		r.Embedding = decodeVector(blob)
		r.Score = cosineSimilarity(query, r.Embedding)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Count returns the number of stored chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n)
	return n, err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// encodeVector packs a vector as little-endian float32s.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
