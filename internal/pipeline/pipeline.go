package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/dgallion1/ragchunk/internal/block"
	"github.com/dgallion1/ragchunk/internal/chunk"
	"github.com/dgallion1/ragchunk/internal/config"
	"github.com/dgallion1/ragchunk/internal/loader"
	"github.com/dgallion1/ragchunk/internal/segment"
	"github.com/dgallion1/ragchunk/internal/structure"
	"github.com/dgallion1/ragchunk/internal/token"
)

// DocStatus is the terminal state of one document's pipeline.
type DocStatus string

const (
	StatusCompleted DocStatus = "completed"
	StatusCached    DocStatus = "cached"
	StatusFailed    DocStatus = "failed"
)

// DocStats are the per-document quality counters surfaced to the
// reporting layer. Policy edge cases land here, never in errors.
type DocStats struct {
	Blocks       int `json:"blocks"`
	Segments     int `json:"segments"`
	Chunks       int `json:"chunks"`
	Tokens       int `json:"tokens"`
	Pages        int `json:"pages"`
	TinyChunks   int `json:"tiny_chunks"`
	MixedArticle int `json:"mixed_article"`
	Oversize     int `json:"oversize"`
}

// DocResult is everything one document's pipeline run produces.
type DocResult struct {
	DocID      string           `json:"doc_id"`
	Folder     string           `json:"source_folder"`
	SourceMode block.SourceMode `json:"source_mode"`
	Status     DocStatus        `json:"status"`
	Error      string           `json:"error,omitempty"`
	Meta       DocumentMeta     `json:"meta"`
	Stats      DocStats         `json:"stats"`
	Chunks     []chunk.Chunk    `json:"-"`
}

// DocPipeline runs the per-document stages in order: load, resolve,
// merge, assemble, sweep. It holds no cross-document state, so
// distinct documents can run on separate workers.
type DocPipeline struct {
	cfg     config.Config
	counter token.Counter
	log     *slog.Logger
}

func NewDocPipeline(cfg config.Config, counter token.Counter, log *slog.Logger) *DocPipeline {
	return &DocPipeline{cfg: cfg, counter: counter, log: log}
}

// Process converts one document folder into swept, fingerprinted
// chunks. A failure here fails only this document.
func (p *DocPipeline) Process(folder string) (*DocResult, error) {
	docID := loader.DocumentID(folder)
	log := p.log.With("doc_id", docID)

	blocks, choice, err := loader.Load(folder, loader.SourcePriority(p.cfg.SourcePriority), p.counter)
	if err != nil {
		return nil, fmt.Errorf("load blocks: %w", err)
	}
	if choice.FallbackReason != "" {
		log.Info("preferred source mode unavailable", "mode", choice.Mode, "reason", choice.FallbackReason)
	}

	resolver := structure.NewResolver()
	annotated := resolver.Resolve(blocks)

	segments := segment.Build(annotated, p.counter)
	segments = segment.Apply(segments, segment.Policy{
		DropTOC:    p.cfg.DropTOC,
		StubTokens: p.cfg.StubTokens,
		MaxTokens:  p.cfg.MaxTokens,
	}, p.counter)

	assembler := chunk.NewAssembler(chunk.AssemblerConfig{
		TargetTokens:    p.cfg.TargetTokens,
		MaxTokens:       p.cfg.MaxTokens,
		OverlapTokens:   p.cfg.OverlapTokens,
		MaxOverlapChars: p.cfg.MaxOverlapChars,
	}, p.counter, log)
	chunks := assembler.Assemble(docID, segments)

	sweeper := &chunk.Sweeper{
		MinViableTokens: p.cfg.MinViableChunkTokens,
		MaxTokens:       p.cfg.MaxTokens,
		Counter:         p.counter,
	}
	chunks, tiny := sweeper.Sweep(chunks)

	meta := ExtractMeta(blocks, docID)
	augmentChunks(chunks, meta)

	result := &DocResult{
		DocID:      docID,
		Folder:     folder,
		SourceMode: choice.Mode,
		Status:     StatusCompleted,
		Meta:       meta,
		Chunks:     chunks,
	}
	result.Stats = docStats(blocks, segments, chunks, tiny)

	log.Info("document chunked",
		"mode", choice.Mode,
		"blocks", result.Stats.Blocks,
		"segments", result.Stats.Segments,
		"chunks", result.Stats.Chunks,
		"tiny_chunks", result.Stats.TinyChunks)
	return result, nil
}

func docStats(blocks []*block.Block, segments []segment.Segment, chunks []chunk.Chunk, tiny int) DocStats {
	stats := DocStats{
		Blocks:     len(blocks),
		Segments:   len(segments),
		Chunks:     len(chunks),
		TinyChunks: tiny,
	}
	seenPages := make(map[int]bool)
	for i := range chunks {
		c := &chunks[i]
		stats.Tokens += c.TokenCount
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
