package structure

import (
	"strings"

	"github.com/dgallion1/ragchunk/internal/block"
)

// Annotated pairs a block with its resolved structural path.
type Annotated struct {
	Block *block.Block
	Path  block.StructuralPath
	// Boundary marks blocks that open a new structural unit; the
	// segment builder breaks runs here.
	Boundary bool
	// HeadingPath is the raw heading trail down to this block,
	// outermost first.
	HeadingPath []string
}

// Resolver threads a three-level structural stack through one
// document's block sequence. It is a per-document value, never shared,
// so documents can resolve concurrently.
type Resolver struct {
	path        block.StructuralPath
	headingPath []string
}

// NewResolver returns a resolver with all levels unresolved.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve annotates blocks in order. It never rejects input: a
// document with no recognizable headings yields empty paths throughout.
func (r *Resolver) Resolve(blocks []*block.Block) []Annotated {
	out := make([]Annotated, 0, len(blocks))
	for _, b := range blocks {
		boundary := r.advance(b)
		out = append(out, Annotated{
			Block:       b,
			Path:        r.path,
			Boundary:    boundary,
			HeadingPath: append([]string(nil), r.headingPath...),
		})
	}
	return out
}

// advance mutates the stack for one block and reports whether the
// block opens a new structural unit.
func (r *Resolver) advance(b *block.Block) bool {
	if b.IsHeading() {
		r.pushHeading(*b.HeadingLevel, headingLabel(b.Text))
	}

	m := Classify(b)
	switch m.Level {
	case LevelArticle:
		// A new article clears everything beneath it.
		changed := m.Article != r.path.Article || m.Subarticle != r.path.Subarticle
		r.path.Article = m.Article
		r.path.Section = ""
		r.path.Subarticle = m.Subarticle
		return changed || b.IsHeading()
	case LevelSection:
		changed := m.Section != r.path.Section
		r.path.Section = m.Section
		if changed {
			r.path.Subarticle = ""
		}
		return changed || b.IsHeading()
	case LevelSubarticle:
		// Dotted numbers only bind under their own article.
		if r.path.Article != "" && strings.HasPrefix(m.Subarticle, r.path.Article+".") {
			changed := m.Subarticle != r.path.Subarticle
			r.path.Subarticle = m.Subarticle
			return changed
		}
		return b.IsHeading()
	default:
		// Non-heading blocks inherit the current stack unchanged.
		return b.IsHeading()
	}
}

// pushHeading maintains the raw heading trail: a heading at level n
// pops everything at depth >= n.
func (r *Resolver) pushHeading(level int, label string) {
	if level < 1 {
		level = 1
	}
	for len(r.headingPath) >= level {
		r.headingPath = r.headingPath[:len(r.headingPath)-1]
	}
	r.headingPath = append(r.headingPath, label)
}

func headingLabel(text string) string {
	return strings.TrimSpace(strings.TrimLeft(firstLine(text), "# "))
}
