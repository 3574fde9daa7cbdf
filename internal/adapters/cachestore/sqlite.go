package cachestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/mohdmuqsith/muq-bot-rag/internal/domain/ports"
)

// SQLiteStore implements ports.CacheStore with one row per fingerprint.
type SQLiteStore struct {
	db      *sql.DB
	decoder ports.IndexDecoder
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string, decoder ports.IndexDecoder) (*SQLiteStore, error) {
	if path == "" {
		path = filepath.Join("cache", "knowledge_bases.db")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store := &SQLiteStore{db: db, decoder: decoder}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS knowledge_bases (
		fingerprint TEXT PRIMARY KEY,
		embedder TEXT NOT NULL,
		chunk_count INTEGER NOT NULL,
		payload BLOB NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load reads and decodes the entry for fp.
func (s *SQLiteStore) Load(ctx context.Context, fp string) (ports.Index, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM knowledge_bases WHERE fingerprint = ?", fp,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("querying knowledge base: %w", err)
	}

	idx, err := s.decoder.Decode(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decoding cache entry %s: %w", fp, err)
	}
	return idx, true, nil
}

// Save upserts the entry for fp.
func (s *SQLiteStore) Save(ctx context.Context, fp string, idx ports.Index) error {
	payload, err := idx.MarshalBinary()
	if err != nil {
		return fmt.Errorf("serializing index: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO knowledge_bases (fingerprint, embedder, chunk_count, payload, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, fp, idx.Embedder(), idx.Len(), payload)
	if err != nil {
		return fmt.Errorf("saving knowledge base: %w", err)
	}
	return nil
}

// Count returns the number of stored knowledge bases.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM knowledge_bases").Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
