package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists the fingerprint -> entry index in a local
// SQLite database. One row per document; the entry payload is stored
// as a JSON document.
type SQLiteStore struct {
	db  *sql.DB
	log *slog.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS doc_cache (
	doc_id      TEXT PRIMARY KEY,
	fingerprint TEXT NOT NULL,
	chunks      TEXT NOT NULL,
	updated_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);
CREATE INDEX IF NOT EXISTS idx_doc_cache_fingerprint ON doc_cache(fingerprint);
`

// OpenSQLite opens (creating if needed) the cache database at path.
func OpenSQLite(path string, log *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	// WAL for read-mostly access; SQLite wants a single writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply cache schema: %w", err)
	}
	return &SQLiteStore{db: db, log: log}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get implements Store. Unreadable rows and malformed payloads degrade
// to a miss, never a failure.
func (s *SQLiteStore) Get(docID, fingerprint string) (*Entry, error) {
	var gotFingerprint, payload string
	err := s.db.QueryRow(
		"SELECT fingerprint, chunks FROM doc_cache WHERE doc_id = ?", docID,
	).Scan(&gotFingerprint, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMiss
	}
	if err != nil {
		s.log.Warn("cache read failed, treating as miss", "doc_id", docID, "error", err)
		return nil, ErrMiss
	}
	if gotFingerprint != fingerprint {
		return nil, ErrMiss
	}

	var entry Entry
	if err := json.Unmarshal([]byte(payload), &entry); err != nil {
		s.log.Warn("cache entry corrupted, treating as miss", "doc_id", docID, "error", err)
		return nil, ErrMiss
	}
	return &entry, nil
}

// Put implements Store.
func (s *SQLiteStore) Put(docID, fingerprint string, entry *Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO doc_cache (doc_id, fingerprint, chunks) VALUES (?, ?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			chunks      = excluded.chunks,
			updated_at  = strftime('%Y-%m-%dT%H:%M:%fZ','now')`,
		docID, fingerprint, string(payload))
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}
