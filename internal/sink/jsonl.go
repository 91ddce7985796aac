// Package sink persists run artifacts: chunk and document records as
// JSON-Lines files plus a small run summary.
package sink

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgallion1/ragchunk/internal/chunk"
	"github.com/dgallion1/ragchunk/internal/pipeline"
)

// Writer emits the run's artifact files under a single output dir.
type Writer struct {
	dir string
}

func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// WriteChunks writes chunks.jsonl, one record per chunk, in corpus
// document order.
func (w *Writer) WriteChunks(chunks []chunk.Chunk) error {
	return writeJSONL(filepath.Join(w.dir, "chunks.jsonl"), len(chunks), func(i int) any {
		return chunks[i]
	})
}

// WriteDocuments writes documents.jsonl with per-document metadata and
// stats, including failed documents so reruns can spot them.
func (w *Writer) WriteDocuments(docs []*pipeline.DocResult) error {
	return writeJSONL(filepath.Join(w.dir, "documents.jsonl"), len(docs), func(i int) any {
		return docs[i]
	})
}

// WriteSummary writes summary.json plus a human-readable markdown
// scorecard next to it.
func (w *Writer) WriteSummary(summary pipeline.Summary) error {
	payload, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.dir, "summary.json"), append(payload, '\n'), 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return os.WriteFile(filepath.Join(w.dir, "summary.md"), []byte(renderScorecard(summary)), 0o644)
}

func writeJSONL(path string, n int, record func(int) any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	enc := json.NewEncoder(bw)
	for i := 0; i < n; i++ {
		if err := enc.Encode(record(i)); err != nil {
			return fmt.Errorf("encode %s record %d: %w", filepath.Base(path), i, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}
