package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/ragchunk/internal/block"
	"github.com/dgallion1/ragchunk/internal/cache"
	"github.com/dgallion1/ragchunk/internal/chunk"
	"github.com/dgallion1/ragchunk/internal/config"
	"github.com/dgallion1/ragchunk/internal/loader"
	"github.com/dgallion1/ragchunk/internal/token"
)

// Summary holds the per-run counters consumed by the reporting layer.
type Summary struct {
	RunID        string        `json:"run_id"`
	Documents    int           `json:"documents"`
	Completed    int           `json:"completed"`
	Cached       int           `json:"cached"`
	Failed       int           `json:"failed"`
	Chunks       int           `json:"chunks"`
	TinyChunks   int           `json:"tiny_chunks"`
	MixedArticle int           `json:"mixed_article"`
	Oversize     int           `json:"oversize"`
	Duplicates   int           `json:"duplicates"`
	Elapsed      time.Duration `json:"-"`
	ElapsedMS    int64         `json:"elapsed_ms"`
}

// RunResult is the full output of a corpus run: resolved chunk list in
// document order, per-document records, and the summary counters.
type RunResult struct {
	Summary   Summary
	Documents []*DocResult
	Chunks    []chunk.Chunk
}

// Runner drives the whole corpus: per-document pipelines on a bounded
// worker pool, a join barrier, then the corpus-wide dedupe pass. The
// cache index is read before any write, so a document is never
// recomputed in the same run after a hit.
type Runner struct {
	cfg     config.Config
	store   cache.Store
	counter token.Counter
	log     *slog.Logger
}

func NewRunner(cfg config.Config, store cache.Store, counter token.Counter, log *slog.Logger) *Runner {
	return &Runner{cfg: cfg, store: store, counter: counter, log: log}
}

// Run processes every document folder under the input directory. One
// bad document never aborts the corpus; its failure is recorded and
// the run continues.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	started := time.Now()
	runID := uuid.NewString()
	log := r.log.With("run_id", runID)

	folders, err := r.discover()
	if err != nil {
		return nil, err
	}
	log.Info("run started", "documents", len(folders), "workers", r.cfg.Workers)

	signature := cache.Signature(
		r.cfg.SourcePriority,
		r.cfg.TargetTokens,
		r.cfg.MaxTokens,
		r.cfg.OverlapTokens,
		r.cfg.MaxOverlapChars,
		r.cfg.DropTOC,
		r.cfg.StubTokens,
		r.cfg.MinViableChunkTokens,
	)

	results := make([]*DocResult, len(folders))
	var mu sync.Mutex

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, folder := range folders {
		g.Go(func() error {
			res := r.processOne(folder, signature)
			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}
	// Join barrier: dedupe operates corpus-wide and must see every
	// document, cached or fresh.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []chunk.Chunk
	summary := Summary{RunID: runID, Documents: len(results)}
	for _, res := range results {
		switch res.Status {
		case StatusFailed:
			summary.Failed++
			continue
		case StatusCached:
			summary.Cached++
		default:
			summary.Completed++
		}
		summary.TinyChunks += res.Stats.TinyChunks
		summary.MixedArticle += res.Stats.MixedArticle
		summary.Oversize += res.Stats.Oversize
		all = append(all, res.Chunks...)
	}

	if r.cfg.DedupeChunks {
		policy := chunk.DedupeDrop
		if r.cfg.DedupeAudit {
			policy = chunk.DedupeTag
		}
		var duplicates int
		all, duplicates = chunk.Dedupe(all, policy)
		summary.Duplicates = duplicates
		if duplicates > 0 {
			log.Info("duplicate chunk payloads resolved", "duplicates", duplicates, "policy", policy)
		}
		refreshDocStats(results, all)
	}
	summary.Chunks = len(all)
	summary.Elapsed = time.Since(started)
	summary.ElapsedMS = summary.Elapsed.Milliseconds()

	log.Info("run finished",
		"completed", summary.Completed,
		"cached", summary.Cached,
		"failed", summary.Failed,
		"chunks", summary.Chunks,
		"duplicates", summary.Duplicates,
		"elapsed", summary.Elapsed)

	return &RunResult{Summary: summary, Documents: results, Chunks: all}, nil
}

// processOne runs the cache-wrapped pipeline for a single folder.
// Every outcome, including failure, yields a DocResult.
func (r *Runner) processOne(folder, signature string) *DocResult {
	docID := docIDForFolder(folder)

	fingerprint, err := cache.FolderFingerprint(folder, r.cfg.SourcePriority, signature)
	if err != nil {
		r.log.Error("fingerprint failed", "doc_id", docID, "error", err)
		return &DocResult{DocID: docID, Folder: folder, Status: StatusFailed, Error: err.Error()}
	}

	if r.cfg.Incremental && r.store != nil {
		entry, err := r.store.Get(docID, fingerprint)
		if err == nil {
			res := &DocResult{
				DocID:      docID,
				Folder:     folder,
				SourceMode: block.SourceMode(entry.SourceMode),
				Status:     StatusCached,
				Chunks:     entry.Chunks,
			}
			if len(entry.Meta) > 0 {
				if err := json.Unmarshal(entry.Meta, &res.Meta); err != nil {
					r.log.Warn("cached metadata unreadable", "doc_id", docID, "error", err)
				}
			}
			res.Stats = cachedStats(entry.Chunks, r.cfg.MinViableChunkTokens)
			r.log.Info("cache hit, reusing chunks", "doc_id", docID, "chunks", len(entry.Chunks))
			return res
		}
		if !errors.Is(err, cache.ErrMiss) {
			r.log.Warn("cache lookup degraded to miss", "doc_id", docID, "error", err)
		}
	}

	res, err := NewDocPipeline(r.cfg, r.counter, r.log).Process(folder)
	if err != nil {
		r.log.Error("document pipeline failed", "doc_id", docID, "error", err)
		return &DocResult{DocID: docID, Folder: folder, Status: StatusFailed, Error: err.Error()}
	}

	if r.cfg.Incremental && r.store != nil {
		entry := &cache.Entry{SourceMode: string(res.SourceMode), Chunks: res.Chunks}
		if raw, err := json.Marshal(res.Meta); err == nil {
			entry.Meta = raw
		}
		if err := r.store.Put(docID, fingerprint, entry); err != nil {
			// Cache write problems never fail the document.
			r.log.Warn("cache write failed", "doc_id", docID, "error", err)
		}
	}
	return res
}

// discover lists document folders: each subdirectory of the input dir,
// or the input dir itself when it directly holds inputs.
func (r *Runner) discover() ([]string, error) {
	entries, err := os.ReadDir(r.cfg.InputDir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}

	var folders []string
	hasFiles := false
	for _, e := range entries {
		if e.IsDir() {
			folders = append(folders, filepath.Join(r.cfg.InputDir, e.Name()))
		} else if e.Type().IsRegular() {
			hasFiles = true
		}
	}
	if len(folders) == 0 && hasFiles {
		folders = append(folders, r.cfg.InputDir)
	}
	if len(folders) == 0 {
		return nil, fmt.Errorf("no document folders under %s", r.cfg.InputDir)
	}
	sort.Strings(folders)
	return folders, nil
}

// cachedStats rebuilds quality counters from cached chunks so summary
// numbers stay comparable between cached and fresh documents.
func cachedStats(chunks []chunk.Chunk, minViableTokens int) DocStats {
	stats := DocStats{Chunks: len(chunks)}
	seenPages := make(map[int]bool)
	for i := range chunks {
		c := &chunks[i]
		stats.Tokens += c.TokenCount
		if c.TokenCount < minViableTokens {
			stats.TinyChunks++
		}
		if c.MixedArticle {
			stats.MixedArticle++
		}
		if c.Oversize {
			stats.Oversize++
		}
		for _, page := range c.Pages {
			seenPages[page] = true
		}
	}
	stats.Pages = len(seenPages)
	return stats
}

// refreshDocStats recounts per-document chunk totals after dedupe
// removed or tagged chunks.
func refreshDocStats(results []*DocResult, surviving []chunk.Chunk) {
	byDoc := make(map[string][]chunk.Chunk)
	for _, c := range surviving {
		byDoc[c.DocumentID] = append(byDoc[c.DocumentID], c)
	}
	for _, res := range results {
		if res.Status == StatusFailed {
			continue
		}
		docChunks := byDoc[res.DocID]
		res.Chunks = docChunks
		res.Stats.Chunks = len(docChunks)
		tokens := 0
		pages := make(map[int]bool)
		for i := range docChunks {
			tokens += docChunks[i].TokenCount
			for _, p := range docChunks[i].Pages {
				pages[p] = true
			}
		}
		res.Stats.Tokens = tokens
		res.Stats.Pages = len(pages)
	}
}

func docIDForFolder(folder string) string {
	return loader.DocumentID(folder)
}
