package chunk

import (
	"sort"

	"github.com/dgallion1/ragchunk/internal/block"
)

// Chunk is the final token-bounded, structurally annotated unit of
// text emitted for retrieval use.
type Chunk struct {
	ID         string `json:"chunk_id"`
	DocumentID string `json:"doc_id"`
	Index      int    `json:"chunk_index"`
	Text       string `json:"text"`
	// AugmentedText is Text prefixed with a document/structure header
	// for embedding; fingerprinting and IDs use Text alone.
	AugmentedText string               `json:"augmented_text,omitempty"`
	TokenCount    int                  `json:"token_count"`
	PageRefs      []block.PageRef      `json:"page_refs,omitempty"`
	Pages         []int                `json:"pages,omitempty"`
	Path          block.StructuralPath `json:"structural_path"`
	MixedArticle  bool                 `json:"mixed_article,omitempty"`
	// Oversize marks a chunk built from a single atomic segment whose
	// token count exceeds the hard maximum. Never an error.
	Oversize bool `json:"oversize,omitempty"`
	// OverlapChars is the length of the verbatim prefix copied from
	// the previous chunk for context continuity.
	OverlapChars int `json:"overlap_prefix_chars,omitempty"`
	// Fingerprint is the content hash used for dedupe and cache
	// comparison.
	Fingerprint string `json:"content_fingerprint"`
	// DuplicateOf names the surviving chunk when dedupe runs in audit
	// mode; empty otherwise.
	DuplicateOf string `json:"duplicate_of,omitempty"`
}

// pages returns the union of ref pages in increasing order.
func pages(refs []block.PageRef) []int {
	if len(refs) == 0 {
		return nil
	}
	seen := make(map[int]bool, len(refs))
	var out []int
	for _, ref := range refs {
		if !seen[ref.Page] {
			seen[ref.Page] = true
			out = append(out, ref.Page)
		}
	}
	sort.Ints(out)
	return out
}

// finalize recomputes the derived fields that depend on text, refs,
// and position.
func (c *Chunk) finalize() {
	c.Pages = pages(c.PageRefs)
	c.Fingerprint = Fingerprint(c.Text)
	c.ID = ChunkID(c.DocumentID, c.Index, c.Text)
}

// Renumber reassigns chunk indices and IDs after a pass that removed
// or merged chunks.
func Renumber(chunks []Chunk) {
	for i := range chunks {
		chunks[i].Index = i
		chunks[i].ID = ChunkID(chunks[i].DocumentID, i, chunks[i].Text)
	}
}
