package embedder

import (
	"bytes"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS embeddings (
	hash   TEXT NOT NULL,
	model  TEXT NOT NULL,
	dim    INTEGER NOT NULL,
	vector BLOB NOT NULL,
	PRIMARY KEY (hash, model)
);
`

// SQLiteStore persists embeddings across runs, keyed by content hash and
// model name.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the persistent cache at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	// WAL for concurrent readers; single writer suits SQLite
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(cacheSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(hash, model string) ([]float32, bool, error) {
	var dim int
	var blob []byte
	err := s.db.QueryRow(
		"SELECT dim, vector FROM embeddings WHERE hash = ? AND model = ?",
		hash, model,
	).Scan(&dim, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query cache: %w", err)
	}

	vector, err := deserializeVector(blob)
	if err != nil {
		return nil, false, err
	}
	if len(vector) != dim {
		return nil, false, fmt.Errorf("cache entry dimension mismatch: %d != %d", len(vector), dim)
	}
	return vector, true, nil
}

func (s *SQLiteStore) Put(hash, model string, vector []float32) error {
	blob, err := serializeVector(vector)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO embeddings (hash, model, dim, vector) VALUES (?, ?, ?, ?)",
		hash, model, len(vector), blob,
	)
	if err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	return nil
}

// Count returns the number of persisted embeddings.
func (s *SQLiteStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM embeddings").Scan(&n); err != nil {
		return 0, fmt.Errorf("count cache: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// serializeVector encodes a vector as little-endian float32 bytes.
func serializeVector(vector []float32) ([]byte, error) {
	buf := new(bytes.Buffer)
	for _, v := range vector {
		if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
			return nil, fmt.Errorf("serialize vector: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// deserializeVector decodes little-endian float32 bytes.
func deserializeVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("invalid vector blob length %d", len(blob))
	}
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vector[i] = math.Float32frombits(bits)
	}
	return vector, nil
}
