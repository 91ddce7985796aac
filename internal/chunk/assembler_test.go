package chunk

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/ragchunk/internal/block"
	"github.com/dgallion1/ragchunk/internal/segment"
	"github.com/dgallion1/ragchunk/internal/token"
)

// wordCounter makes token budgets exact in tests: one token per word.
type wordCounter struct{}

func (wordCounter) Count(text string) int { return len(strings.Fields(text)) }

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "w"
	}
	return strings.Join(parts, " ")
}

func seg(tokens int, path block.StructuralPath) segment.Segment {
	text := words(tokens)
	return segment.Segment{Text: text, TokenCount: tokens, Path: path}
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestAssemble_GreedyPackingWithAtomicOverflow(t *testing.T) {
	// 200 + 600 + 100 token segments against target 450 / max 520 /
	// overlap 50.
	a := NewAssembler(AssemblerConfig{
		TargetTokens:  450,
		MaxTokens:     520,
		OverlapTokens: 50,
	}, wordCounter{}, discard())

	segments := []segment.Segment{
		seg(200, block.StructuralPath{Article: "1"}),
		seg(600, block.StructuralPath{Article: "2"}),
		seg(100, block.StructuralPath{Article: "3"}),
	}
	chunks := a.Assemble("doc", segments)
	require.Len(t, chunks, 3)

	// First segment closes alone: adding the next would exceed max.
	assert.Equal(t, 200, chunks[0].TokenCount)
	assert.False(t, chunks[0].Oversize)

	// The 600-token segment is atomic: emitted unsplit and flagged.
	assert.Equal(t, 600, chunks[1].TokenCount)
	assert.True(t, chunks[1].Oversize)
	assert.Zero(t, chunks[1].OverlapChars)

	// Final chunk: 50 tokens of overlap from the oversize chunk's tail
	// plus the 100-token segment.
	assert.Equal(t, 150, chunks[2].TokenCount)
	assert.Greater(t, chunks[2].OverlapChars, 0)

	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, "doc", c.DocumentID)
		assert.NotEmpty(t, c.Fingerprint)
		assert.NotEmpty(t, c.ID)
	}
}

func TestAssemble_MaxTokensHardInvariant(t *testing.T) {
	a := NewAssembler(AssemblerConfig{
		TargetTokens:  100,
		MaxTokens:     120,
		OverlapTokens: 10,
	}, wordCounter{}, discard())

	var segments []segment.Segment
	for _, n := range []int{40, 70, 30, 90, 55, 10, 10, 119, 60} {
		segments = append(segments, seg(n, block.StructuralPath{}))
	}
	chunks := a.Assemble("doc", segments)
	require.NotEmpty(t, chunks)

	for _, c := range chunks {
		if c.Oversize {
			continue
		}
		assert.LessOrEqual(t, c.TokenCount, 120, "chunk %d over budget", c.Index)
	}
}

func TestAssemble_RoundTripAfterStrippingOverlap(t *testing.T) {
	a := NewAssembler(AssemblerConfig{
		TargetTokens:  50,
		MaxTokens:     60,
		OverlapTokens: 8,
	}, wordCounter{}, discard())

	texts := []string{
		"alpha beta gamma delta epsilon zeta eta theta iota kappa",
		strings.Repeat("lorem ipsum dolor sit amet ", 10),
		"short tail segment",
		strings.Repeat("consectetur adipiscing elit sed do ", 12),
		"final words here",
	}
	var segments []segment.Segment
	for _, text := range texts {
		text = strings.TrimSpace(text)
		segments = append(segments, segment.Segment{
			Text:       text,
			TokenCount: wordCounter{}.Count(text),
		})
	}

	chunks := a.Assemble("doc", segments)
	require.NotEmpty(t, chunks)

	var got []string
	for _, c := range chunks {
		got = append(got, c.Text[c.OverlapChars:])
	}
	want := make([]string, len(segments))
	for i, s := range segments {
		want[i] = s.Text
	}
	assert.Equal(t, strings.Join(want, "\n\n"), strings.Join(got, "\n\n"))
}

func TestAssemble_MixedArticleFlag(t *testing.T) {
	a := NewAssembler(AssemblerConfig{
		TargetTokens: 100,
		MaxTokens:    120,
	}, wordCounter{}, discard())

	chunks := a.Assemble("doc", []segment.Segment{
		seg(30, block.StructuralPath{Article: "1"}),
		seg(30, block.StructuralPath{Article: "2"}),
	})
	require.Len(t, chunks, 1)
	assert.True(t, chunks[0].MixedArticle)
	// Path stays that of the first contributing segment.
	assert.Equal(t, "1", chunks[0].Path.Article)
}

func TestAssemble_OverlapSeedDroppedWhenOverBudget(t *testing.T) {
	a := NewAssembler(AssemblerConfig{
		TargetTokens:  100,
		MaxTokens:     110,
		OverlapTokens: 30,
	}, wordCounter{}, discard())

	chunks := a.Assemble("doc", []segment.Segment{
		seg(100, block.StructuralPath{}),
		seg(95, block.StructuralPath{}),
	})
	require.Len(t, chunks, 2)
	// 30-token seed + 95 tokens would breach the hard cap, so the
	// second chunk starts clean.
	assert.Zero(t, chunks[1].OverlapChars)
	assert.Equal(t, 95, chunks[1].TokenCount)
}

func TestAssemble_RecountedJoinRespectsMax(t *testing.T) {
	// The heuristic counter is not additive: counting two segments
	// separately can undershoot the count of their joined text. The
	// assembler must admit segments against the recounted join, not
	// the sum, or small chunks slip past the cap unflagged.
	counter := token.Heuristic()
	text := "alpha beta"
	n := counter.Count(text)
	require.Equal(t, 2, n)

	a := NewAssembler(AssemblerConfig{TargetTokens: 4, MaxTokens: 4}, counter, discard())
	chunks := a.Assemble("doc", []segment.Segment{
		{Text: text, TokenCount: n},
		{Text: text, TokenCount: n},
	})
	require.Len(t, chunks, 2)
	for _, c := range chunks {
		assert.False(t, c.Oversize)
		assert.LessOrEqual(t, c.TokenCount, 4, "chunk %d over budget", c.Index)
		assert.Equal(t, c.TokenCount, counter.Count(c.Text))
	}
}

func TestAssemble_UnresolvedArticleDoesNotFlagMixed(t *testing.T) {
	a := NewAssembler(AssemblerConfig{
		TargetTokens: 100,
		MaxTokens:    120,
	}, wordCounter{}, discard())

	// Front matter before the first article heading has no resolved
	// article; packing it with article text is not a mixed chunk.
	chunks := a.Assemble("doc", []segment.Segment{
		seg(30, block.StructuralPath{}),
		seg(30, block.StructuralPath{Article: "5"}),
	})
	require.Len(t, chunks, 1)
	assert.False(t, chunks[0].MixedArticle)
	assert.Equal(t, "", chunks[0].Path.Article)
}

func TestAssemble_EmptyInput(t *testing.T) {
	a := NewAssembler(AssemblerConfig{TargetTokens: 10, MaxTokens: 20}, wordCounter{}, discard())
	assert.Empty(t, a.Assemble("doc", nil))
}
