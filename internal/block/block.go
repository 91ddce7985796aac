package block

// SourceMode identifies which extraction representation a block came from.
type SourceMode string

const (
	ModeBlockList   SourceMode = "block_list"
	ModeContentList SourceMode = "content_list"
	ModeMarkdown    SourceMode = "md"
	ModePDF         SourceMode = "pdf"
	ModeDOCX        SourceMode = "docx"
	ModeHTML        SourceMode = "html"
	ModeNone        SourceMode = "none"
)

// Type classifies the content of a block.
type Type string

const (
	TypeTitle    Type = "title"
	TypeText     Type = "text"
	TypeList     Type = "list"
	TypeTable    Type = "table"
	TypeEquation Type = "equation"
)

// PageRef locates a block on a source page.
type PageRef struct {
	Page    int    `json:"page_idx"`
	BlockID string `json:"block_id,omitempty"`
}

// Block is one normalized unit of extracted document content.
// Blocks are immutable once loaded; OrderIndex is the sole ground
// truth for document sequence.
type Block struct {
	ID           string     `json:"id"`
	DocumentID   string     `json:"doc_id"`
	OrderIndex   int        `json:"order_index"`
	Text         string     `json:"text"`
	TokenCount   int        `json:"token_count"`
	PageStart    int        `json:"page_start"`
	PageEnd      int        `json:"page_end"`
	PageRefs     []PageRef  `json:"page_refs,omitempty"`
	HeadingLevel *int       `json:"heading_level,omitempty"`
	BlockType    Type       `json:"block_type"`
	SourceMode   SourceMode `json:"source_mode"`
}

// IsHeading reports whether the block carries a raw heading hint.
func (b *Block) IsHeading() bool {
	return b.HeadingLevel != nil && *b.HeadingLevel > 0
}

// StructuralPath is the (article, section, subarticle) hierarchy label
// attached to content. Any level may be empty when extraction lacks
// heading cues; that is an accepted state, not an error.
type StructuralPath struct {
	Article    string `json:"article,omitempty"`
	Section    string `json:"section,omitempty"`
	Subarticle string `json:"subarticle,omitempty"`
}

// Equal reports whether two paths match at every level.
func (p StructuralPath) Equal(other StructuralPath) bool {
	return p.Article == other.Article &&
		p.Section == other.Section &&
		p.Subarticle == other.Subarticle
}

// Empty reports whether every level is unresolved.
func (p StructuralPath) Empty() bool {
	return p.Article == "" && p.Section == "" && p.Subarticle == ""
}

// DedupePageRefs removes repeated (page, block id) pairs while keeping
// first-seen order.
func DedupePageRefs(refs []PageRef) []PageRef {
	type key struct {
		page int
		id   string
	}
	seen := make(map[key]bool, len(refs))
	var out []PageRef
	for _, ref := range refs {
		k := key{ref.Page, ref.BlockID}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, ref)
	}
	return out
}

// PageSpan returns the lowest and highest page among refs, or (0, 0)
// when refs is empty.
func PageSpan(refs []PageRef) (start, end int) {
	if len(refs) == 0 {
		return 0, 0
	}
	start, end = refs[0].Page, refs[0].Page
	for _, ref := range refs[1:] {
		if ref.Page < start {
			start = ref.Page
		}
		if ref.Page > end {
			end = ref.Page
		}
	}
	return start, end
}
