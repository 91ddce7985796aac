package segment

import (
	"strings"

	"github.com/dgallion1/ragchunk/internal/block"
	"github.com/dgallion1/ragchunk/internal/structure"
	"github.com/dgallion1/ragchunk/internal/token"
)

// Segment is a contiguous run of blocks sharing a structural unit,
// prior to token-bounded packing. Segments are addressed by slice
// index; "adjacent" always means index±1.
type Segment struct {
	Text        string
	TokenCount  int
	PageRefs    []block.PageRef
	Path        block.StructuralPath
	HeadingPath []string
	IsTable     bool
}

// Build groups annotated blocks into segments, breaking on structural
// boundaries. Empty blocks are skipped.
func Build(annotated []structure.Annotated, counter token.Counter) []Segment {
	var segments []Segment

	var (
		parts       []string
		refs        []block.PageRef
		path        block.StructuralPath
		headingPath []string
		isTable     bool
	)

	flush := func() {
		if len(parts) == 0 {
			return
		}
		text := strings.TrimSpace(strings.Join(parts, "\n\n"))
		if text != "" {
			segments = append(segments, Segment{
				Text:        text,
				TokenCount:  counter.Count(text),
				PageRefs:    block.DedupePageRefs(refs),
				Path:        path,
				HeadingPath: headingPath,
				IsTable:     isTable,
			})
		}
		parts = nil
		refs = nil
		isTable = false
	}

	for _, a := range annotated {
		text := strings.TrimSpace(a.Block.Text)
		if text == "" {
			continue
		}
		if len(parts) > 0 && a.Boundary {
			flush()
		}
		if len(parts) == 0 {
			path = a.Path
			headingPath = a.HeadingPath
			isTable = a.Block.BlockType == block.TypeTable
		}
		parts = append(parts, text)
		refs = append(refs, blockRefs(a.Block)...)
	}
	flush()

	return segments
}

func blockRefs(b *block.Block) []block.PageRef {
	if len(b.PageRefs) > 0 {
		return b.PageRefs
	}
	if b.PageStart == 0 && b.PageEnd == 0 {
		return nil
	}
	refs := []block.PageRef{{Page: b.PageStart, BlockID: b.ID}}
	if b.PageEnd > b.PageStart {
		refs = append(refs, block.PageRef{Page: b.PageEnd, BlockID: b.ID})
	}
	return refs
}
