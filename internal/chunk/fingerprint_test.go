package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint_CollapsesWhitespaceOnly(t *testing.T) {
	base := Fingerprint("Section 4.2 Termination Clause.")
	assert.Equal(t, base, Fingerprint("  Section\t4.2\n Termination   Clause. "))
	assert.NotEqual(t, base, Fingerprint("section 4.2 termination clause."))
	assert.NotEqual(t, base, Fingerprint("Section 4.2 Termination Clause"))
}

func TestChunkID_StablePerDocIndexAndPrefix(t *testing.T) {
	id := ChunkID("doc", 3, "some chunk text")
	assert.Len(t, id, 20)
	assert.Equal(t, id, ChunkID("doc", 3, "some chunk text"))
	assert.NotEqual(t, id, ChunkID("doc", 4, "some chunk text"))
	assert.NotEqual(t, id, ChunkID("other", 3, "some chunk text"))
}
