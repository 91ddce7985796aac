package sink

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/ragchunk/internal/chunk"
	"github.com/dgallion1/ragchunk/internal/pipeline"
)

func TestWriteChunks_OneRecordPerLine(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)

	chunks := []chunk.Chunk{
		{ID: "c0", DocumentID: "doc", Index: 0, Text: "first", TokenCount: 1, Fingerprint: "f0"},
		{ID: "c1", DocumentID: "doc", Index: 1, Text: "second", TokenCount: 1, Fingerprint: "f1"},
	}
	require.NoError(t, w.WriteChunks(chunks))

	f, err := os.Open(filepath.Join(dir, "chunks.jsonl"))
	require.NoError(t, err)
	defer f.Close()

	var got []chunk.Chunk
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var c chunk.Chunk
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &c))
		got = append(got, c)
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, chunks, got)
}

func TestWriteDocuments_IncludesFailures(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)

	docs := []*pipeline.DocResult{
		{DocID: "good", Status: pipeline.StatusCompleted},
		{DocID: "bad", Status: pipeline.StatusFailed, Error: "load blocks: no loadable inputs"},
	}
	require.NoError(t, w.WriteDocuments(docs))

	raw, err := os.ReadFile(filepath.Join(dir, "documents.jsonl"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], `"status":"failed"`)
	assert.Contains(t, lines[1], "no loadable inputs")
}

func TestWriteSummary_EmitsJSONAndScorecard(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)

	summary := pipeline.Summary{
		RunID:      "run-1",
		Documents:  3,
		Completed:  2,
		Cached:     1,
		Chunks:     42,
		Duplicates: 2,
		Elapsed:    1500 * time.Millisecond,
		ElapsedMS:  1500,
	}
	require.NoError(t, w.WriteSummary(summary))

	raw, err := os.ReadFile(filepath.Join(dir, "summary.json"))
	require.NoError(t, err)
	var decoded pipeline.Summary
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, 42, decoded.Chunks)
	assert.Equal(t, int64(1500), decoded.ElapsedMS)

	md, err := os.ReadFile(filepath.Join(dir, "summary.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "run-1")
	assert.Contains(t, string(md), "| Chunks emitted | 42 |")
}

func TestNewWriter_CreatesNestedOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	_, err := NewWriter(dir)
	require.NoError(t, err)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
