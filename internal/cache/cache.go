// Package cache persists per-document chunk output keyed by a content
// fingerprint, so unchanged documents are skipped on reruns.
package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/dgallion1/ragchunk/internal/chunk"
)

// ErrMiss is returned when no usable entry exists for a fingerprint.
var ErrMiss = errors.New("cache miss")

// Entry is one cached document outcome: the chunk payload plus the
// document-level fields a rerun needs to reproduce its reports without
// reprocessing. Meta stays opaque JSON so the store does not depend on
// pipeline types.
type Entry struct {
	SourceMode string          `json:"source_mode,omitempty"`
	Meta       json.RawMessage `json:"meta,omitempty"`
	Chunks     []chunk.Chunk   `json:"chunks"`
}

// Store is the narrow persistence interface the pipeline depends on.
// Any corruption inside an implementation must surface as ErrMiss,
// never as a hard failure.
type Store interface {
	// Get returns the entry recorded for docID under exactly this
	// fingerprint, or ErrMiss.
	Get(docID, fingerprint string) (*Entry, error)
	// Put records the entry computed for docID under fingerprint,
	// replacing any prior entry for the document.
	Put(docID, fingerprint string, entry *Entry) error
	Close() error
}

// FolderFingerprint hashes a document folder's raw inputs: the sorted
// (relative path, content) pairs of every regular file, plus the
// active source mode and the processing signature. Any change to
// inputs or to chunking-relevant configuration yields a new value.
func FolderFingerprint(folder string, sourceMode string, signature string) (string, error) {
	var files []string
	err := filepath.WalkDir(folder, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walk %s: %w", folder, err)
	}
	sort.Strings(files)

	h := sha1.New()
	for _, path := range files {
		rel, err := filepath.Rel(folder, path)
		if err != nil {
			return "", err
		}
		h.Write([]byte(filepath.ToSlash(rel)))
		h.Write([]byte{0})
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("open %s: %w", path, err)
		}
		if _, err := io.Copy(h, f); err != nil {
			f.Close()
			return "", fmt.Errorf("hash %s: %w", path, err)
		}
		f.Close()
	}
	h.Write([]byte{0})
	h.Write([]byte(sourceMode))
	h.Write([]byte{0})
	h.Write([]byte(signature))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// schemaVersion invalidates all prior entries when the cached payload
// shape changes. v2: the payload became a full Entry carrying document
// metadata and source mode alongside the chunks.
const schemaVersion = 2

// Signature hashes the configuration fields that affect chunk output.
// Runs with different budgets never reuse each other's entries.
func Signature(fields ...any) string {
	h := sha1.New()
	fmt.Fprintf(h, "v%d", schemaVersion)
	for _, f := range fields {
		fmt.Fprintf(h, "|%v", f)
	}
	return hex.EncodeToString(h.Sum(nil))
}
