package chunk

import (
	"log/slog"
	"strings"

	"github.com/dgallion1/ragchunk/internal/block"
	"github.com/dgallion1/ragchunk/internal/segment"
	"github.com/dgallion1/ragchunk/internal/token"
)

// AssemblerConfig carries the token budgets for packing.
type AssemblerConfig struct {
	TargetTokens    int
	MaxTokens       int
	OverlapTokens   int
	MaxOverlapChars int
}

// Assembler packs a document's segment stream into chunks by greedy
// forward packing. It never splits inside a segment: a segment larger
// than the hard maximum is emitted alone and flagged oversize.
type Assembler struct {
	cfg     AssemblerConfig
	counter token.Counter
	log     *slog.Logger
}

func NewAssembler(cfg AssemblerConfig, counter token.Counter, log *slog.Logger) *Assembler {
	return &Assembler{cfg: cfg, counter: counter, log: log}
}

// buffer holds the chunk under construction. text and tokens always
// describe the exact payload that flush would emit: admission recounts
// the joined text, so token sub-additivity of the counter can never
// push an unflagged multi-segment chunk past the hard maximum.
type buffer struct {
	text    string
	tokens  int
	count   int // segments packed so far
	refs    []block.PageRef
	path    block.StructuralPath
	mixed   bool
	overlap string // verbatim prefix seeded from the previous chunk
}

// Assemble produces the ordered chunk list for one document. The
// chunk's structural path is that of its first contributing segment;
// a later segment under a different resolved article flags the chunk
// mixed-article rather than rejecting it.
func (a *Assembler) Assemble(docID string, segments []segment.Segment) []Chunk {
	var chunks []Chunk
	var buf buffer
	pendingOverlap := ""

	flush := func() {
		if buf.count == 0 {
			return
		}
		prefixChars := 0
		if buf.overlap != "" {
			prefixChars = len(buf.overlap) + 2
		}
		c := Chunk{
			DocumentID:   docID,
			Index:        len(chunks),
			Text:         buf.text,
			TokenCount:   buf.tokens,
			PageRefs:     block.DedupePageRefs(buf.refs),
			Path:         buf.path,
			MixedArticle: buf.mixed,
			OverlapChars: prefixChars,
		}
		c.finalize()
		chunks = append(chunks, c)
		pendingOverlap = a.overlapTail(buf.text)
		buf = buffer{}
	}

	// seed opens a fresh buffer with a segment, attaching the pending
	// overlap prefix unless the joined result would break the hard
	// budget.
	seed := func(seg *segment.Segment) {
		text, tokens, overlap := seg.Text, seg.TokenCount, pendingOverlap
		if overlap != "" {
			joined := overlap + "\n\n" + text
			if n := a.counter.Count(joined); n <= a.cfg.MaxTokens {
				text, tokens = joined, n
			} else {
				overlap = ""
			}
		}
		buf = buffer{
			text:    text,
			tokens:  tokens,
			count:   1,
			refs:    append([]block.PageRef(nil), seg.PageRefs...),
			path:    seg.Path,
			overlap: overlap,
		}
		pendingOverlap = ""
	}

	for i := range segments {
		seg := &segments[i]

		// Atomic oversize: the hard cap is soft for single segments.
		if seg.TokenCount > a.cfg.MaxTokens {
			flush()
			c := Chunk{
				DocumentID: docID,
				Index:      len(chunks),
				Text:       seg.Text,
				TokenCount: seg.TokenCount,
				PageRefs:   block.DedupePageRefs(seg.PageRefs),
				Path:       seg.Path,
				Oversize:   true,
			}
			c.finalize()
			chunks = append(chunks, c)
			a.log.Warn("atomic segment exceeds max tokens, emitted unsplit",
				"doc_id", docID, "chunk_index", c.Index, "tokens", seg.TokenCount, "max_tokens", a.cfg.MaxTokens)
			pendingOverlap = a.overlapTail(seg.Text)
			continue
		}

		if buf.count == 0 {
			seed(seg)
		} else {
			joined := buf.text + "\n\n" + seg.Text
			if n := a.counter.Count(joined); n > a.cfg.MaxTokens {
				flush()
				seed(seg)
			} else {
				if seg.Path.Article != "" && buf.path.Article != "" && seg.Path.Article != buf.path.Article {
					buf.mixed = true
				}
				buf.text = joined
				buf.tokens = n
				buf.refs = append(buf.refs, seg.PageRefs...)
				buf.count++
			}
		}

		// Favor the target budget: once reached, force a break rather
		// than drifting toward the hard maximum.
		if buf.tokens >= a.cfg.TargetTokens {
			flush()
		}
	}
	flush()

	return chunks
}

// overlapTail extracts the trailing overlap budget worth of text from
// a just-closed chunk, bounded by MaxOverlapChars. Returns "" when the
// source is too small for an overlap to add context.
func (a *Assembler) overlapTail(text string) string {
	if a.cfg.OverlapTokens <= 0 {
		return ""
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	start := len(words)
	var tail string
	for start > 0 {
		candidate := strings.Join(words[start-1:], " ")
		if a.cfg.MaxOverlapChars > 0 && len(candidate) > a.cfg.MaxOverlapChars {
			break
		}
		if a.counter.Count(candidate) > a.cfg.OverlapTokens {
			break
		}
		tail = candidate
		start--
	}
	if start == 0 {
		// The whole chunk fits inside the overlap budget; repeating it
		// verbatim adds no context.
		return ""
	}
	return tail
}
