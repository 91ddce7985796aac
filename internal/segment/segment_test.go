package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/ragchunk/internal/block"
	"github.com/dgallion1/ragchunk/internal/structure"
)

func TestBuild_BreaksOnBoundaries(t *testing.T) {
	lvl := 1
	artOne := block.StructuralPath{Article: "1"}
	artTwo := block.StructuralPath{Article: "2"}
	annotated := []structure.Annotated{
		{
			Block:    &block.Block{ID: "d:0", Text: "Art. 1 - Scope", BlockType: block.TypeTitle, HeadingLevel: &lvl, PageStart: 1, PageEnd: 1},
			Path:     artOne,
			Boundary: true,
		},
		{
			Block: &block.Block{ID: "d:1", Text: "These rules govern admission.", BlockType: block.TypeText, PageStart: 1, PageEnd: 2},
			Path:  artOne,
		},
		{
			Block:    &block.Block{ID: "d:2", Text: "Art. 2 - Fees", BlockType: block.TypeTitle, HeadingLevel: &lvl, PageStart: 2, PageEnd: 2},
			Path:     artTwo,
			Boundary: true,
		},
		{
			Block: &block.Block{ID: "d:3", Text: "Fees are set yearly.", BlockType: block.TypeText, PageStart: 2, PageEnd: 2},
			Path:  artTwo,
		},
	}

	segs := Build(annotated, wordCounter{})
	require.Len(t, segs, 2)

	assert.Equal(t, "Art. 1 - Scope\n\nThese rules govern admission.", segs[0].Text)
	assert.Equal(t, artOne, segs[0].Path)
	start, end := block.PageSpan(segs[0].PageRefs)
	assert.Equal(t, 1, start)
	assert.Equal(t, 2, end)

	assert.Equal(t, "Art. 2 - Fees\n\nFees are set yearly.", segs[1].Text)
	assert.Equal(t, artTwo, segs[1].Path)
	assert.Equal(t, wordCounter{}.Count(segs[1].Text), segs[1].TokenCount)
}

func TestBuild_SkipsEmptyBlocks(t *testing.T) {
	annotated := []structure.Annotated{
		{Block: &block.Block{Text: "   "}},
		{Block: &block.Block{Text: "Only real content survives."}},
		{Block: &block.Block{Text: "\n\t"}},
	}
	segs := Build(annotated, wordCounter{})
	require.Len(t, segs, 1)
	assert.Equal(t, "Only real content survives.", segs[0].Text)
}

func TestBuild_LeadingBoundaryDoesNotEmitEmptySegment(t *testing.T) {
	annotated := []structure.Annotated{
		{Block: &block.Block{Text: "Opening paragraph."}, Boundary: true},
		{Block: &block.Block{Text: "Second paragraph."}},
	}
	segs := Build(annotated, wordCounter{})
	require.Len(t, segs, 1)
	assert.Equal(t, "Opening paragraph.\n\nSecond paragraph.", segs[0].Text)
}

func TestBuild_TableFlagFromLeadBlock(t *testing.T) {
	annotated := []structure.Annotated{
		{Block: &block.Block{Text: "Code | Credits\nMAT101 | 6", BlockType: block.TypeTable}, Boundary: true},
	}
	segs := Build(annotated, wordCounter{})
	require.Len(t, segs, 1)
	assert.True(t, segs[0].IsTable)
}
