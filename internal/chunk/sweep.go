package chunk

import (
	"strings"

	"github.com/dgallion1/ragchunk/internal/block"
	"github.com/dgallion1/ragchunk/internal/token"
)

// Sweeper absorbs residual undersized chunks into adjacent chunks
// after assembly. The pass is idempotent: chunks it cannot place
// within budget stay standalone and are surfaced via counters.
type Sweeper struct {
	MinViableTokens int
	MaxTokens       int
	Counter         token.Counter
}

// Sweep merges each chunk below the minimum viable token count into an
// adjacent chunk sharing its structural path, preferring the following
// chunk, provided the merge stays within the hard maximum. Returns the
// revised list and the count of residual tiny chunks left standalone.
func (s *Sweeper) Sweep(chunks []Chunk) ([]Chunk, int) {
	if len(chunks) <= 1 {
		return chunks, s.countTiny(chunks)
	}

	working := append([]Chunk(nil), chunks...)
	idx := 0
	for idx < len(working) {
		c := &working[idx]
		if c.TokenCount >= s.MinViableTokens || c.Oversize {
			idx++
			continue
		}

		if idx+1 < len(working) && s.absorb(&working[idx+1], c, false) {
			working = append(working[:idx], working[idx+1:]...)
			continue
		}
		if idx > 0 && s.absorb(&working[idx-1], c, true) {
			working = append(working[:idx], working[idx+1:]...)
			continue
		}
		// Accepted residual.
		idx++
	}

	Renumber(working)
	for i := range working {
		working[i].Pages = pages(working[i].PageRefs)
		working[i].Fingerprint = Fingerprint(working[i].Text)
	}
	return working, s.countTiny(working)
}

// absorb merges tiny into host when their structural paths are
// compatible and the result stays within budget. With after set, tiny
// follows host in document order; otherwise it precedes it.
func (s *Sweeper) absorb(host, tiny *Chunk, after bool) bool {
	if !s.compatible(host, tiny) {
		return false
	}
	// Merge only the tiny chunk's own content: its overlap prefix
	// duplicates text that already lives in the preceding chunk.
	tinyText := tiny.Text
	if tiny.OverlapChars > 0 && tiny.OverlapChars <= len(tinyText) {
		tinyText = tinyText[tiny.OverlapChars:]
	}
	var text string
	switch {
	case strings.TrimSpace(tinyText) == "":
		text = host.Text
	case after:
		text = strings.TrimRight(host.Text, "\n ") + "\n\n" + strings.TrimLeft(tinyText, "\n ")
	default:
		text = strings.TrimRight(tinyText, "\n ") + "\n\n" + strings.TrimLeft(host.Text, "\n ")
	}
	merged := s.Counter.Count(text)
	if merged > s.MaxTokens {
		return false
	}

	if !after && text != host.Text {
		// tiny's text lands before the host's overlap-free content, so
		// the host's overlap prefix no longer opens the chunk.
		host.OverlapChars = 0
	}
	host.Text = text
	host.TokenCount = merged
	host.PageRefs = block.DedupePageRefs(append(append([]block.PageRef(nil), host.PageRefs...), tiny.PageRefs...))
	host.MixedArticle = host.MixedArticle || tiny.MixedArticle ||
		(host.Path.Article != tiny.Path.Article && host.Path.Article != "" && tiny.Path.Article != "")
	return true
}

// compatible prefers merges that preserve the structural path: an
// exact path match, or a shared article when deeper levels drift.
func (s *Sweeper) compatible(a, b *Chunk) bool {
	if a.Oversize {
		return false
	}
	if a.Path.Equal(b.Path) {
		return true
	}
	if a.Path.Article != "" && a.Path.Article == b.Path.Article {
		return true
	}
	// Unresolved paths on both sides cannot conflict.
	return a.Path.Empty() && b.Path.Empty()
}

func (s *Sweeper) countTiny(chunks []Chunk) int {
	n := 0
	for i := range chunks {
		if chunks[i].TokenCount < s.MinViableTokens {
			n++
		}
	}
	return n
}
