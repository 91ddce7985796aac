package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeuristicCount(t *testing.T) {
	c := Heuristic()

	assert.Zero(t, c.Count(""))
	assert.Zero(t, c.Count("   \n\t"))

	// Four words and a period, inflated by the safety factor: 5 * 1.2.
	assert.Equal(t, 6, c.Count("the quick brown fox."))

	// Never rounds a non-empty text down to zero.
	assert.GreaterOrEqual(t, c.Count("a"), 1)
}

func TestHeuristicCount_Monotonic(t *testing.T) {
	c := Heuristic()
	short := c.Count("one two three")
	long := c.Count("one two three four five six seven eight")
	assert.Greater(t, long, short)
}

func TestDefaultIsStable(t *testing.T) {
	assert.Equal(t, Default(), Default())
}
