// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists conversion results keyed by content hash, so
// re-uploading an unchanged document skips the converter. The cache is
// advisory: the orchestrator works without one, and every cache failure
// degrades to a normal conversion.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/doc-analyzer/pkg/types"
)

const dbFile = "results.db"

// DefaultDir is where the cache database lives when no directory is
// configured.
const DefaultDir = ".cache"

// Key returns the cache key for document content: hex-encoded SHA-256.
func Key(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Store is a SQLite-backed conversion result cache. Safe for concurrent use;
// database/sql serializes access to the single connection pool.
type Store struct {
	db  *sql.DB
	dir string
}

// Open opens or creates the cache database under cfg.Dir, creating the
// schema if it does not exist.
func Open(cfg types.CacheConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	s := &Store{db: db, dir: dir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS results (
		hash TEXT NOT NULL,
		enhanced INTEGER NOT NULL,
		filename TEXT,
		content TEXT NOT NULL,
		page_count INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		PRIMARY KEY (hash, enhanced)
	)`)
	return err
}

// Get returns the cached Markdown and page count for (hash, enhanced), and
// whether the entry was present.
func (s *Store) Get(hash string, enhanced bool) (string, int, bool, error) {
	var content string
	var pageCount int
	err := s.db.QueryRow(
		`SELECT content, page_count FROM results WHERE hash = ? AND enhanced = ?`,
		hash, boolInt(enhanced),
	).Scan(&content, &pageCount)
	if err == sql.ErrNoRows {
		return "", 0, false, nil
	}
	if err != nil {
		return "", 0, false, fmt.Errorf("querying cache: %w", err)
	}
	return content, pageCount, true, nil
}

// Put stores the Markdown for (hash, enhanced), replacing any previous entry.
// pageCount is 0 for unpaginated formats.
func (s *Store) Put(hash string, enhanced bool, filename, content string, pageCount int) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO results (hash, enhanced, filename, content, page_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		hash, boolInt(enhanced), filename, content, pageCount, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("storing cache entry: %w", err)
	}
	return nil
}

// Clear removes every cached result. Clearing an empty cache is not an error.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM results`); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}

// Len returns the number of cached results.
func (s *Store) Len() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM results`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	return n, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
