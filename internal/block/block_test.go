package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupePageRefs(t *testing.T) {
	refs := []PageRef{
		{Page: 1, BlockID: "a"},
		{Page: 1, BlockID: "a"},
		{Page: 1, BlockID: "b"},
		{Page: 2, BlockID: "a"},
	}
	got := DedupePageRefs(refs)
	assert.Equal(t, []PageRef{
		{Page: 1, BlockID: "a"},
		{Page: 1, BlockID: "b"},
		{Page: 2, BlockID: "a"},
	}, got)
}

func TestPageSpan(t *testing.T) {
	start, end := PageSpan([]PageRef{{Page: 4}, {Page: 2}, {Page: 9}})
	assert.Equal(t, 2, start)
	assert.Equal(t, 9, end)

	start, end = PageSpan(nil)
	assert.Zero(t, start)
	assert.Zero(t, end)
}

func TestIsHeading(t *testing.T) {
	lvl := 2
	assert.True(t, (&Block{HeadingLevel: &lvl}).IsHeading())
	zero := 0
	assert.False(t, (&Block{HeadingLevel: &zero}).IsHeading())
	assert.False(t, (&Block{}).IsHeading())
}

func TestStructuralPath(t *testing.T) {
	a := StructuralPath{Article: "1", Section: "s"}
	assert.True(t, a.Equal(StructuralPath{Article: "1", Section: "s"}))
	assert.False(t, a.Equal(StructuralPath{Article: "1"}))
	assert.False(t, a.Empty())
	assert.True(t, StructuralPath{}.Empty())
}
