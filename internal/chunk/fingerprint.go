package chunk

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

var whitespaceRE = regexp.MustCompile(`\s+`)

// Fingerprint hashes normalized chunk text: whitespace collapsed to
// single spaces, case preserved. Identical payloads always produce
// identical fingerprints across documents and runs.
func Fingerprint(text string) string {
	normalized := strings.TrimSpace(whitespaceRE.ReplaceAllString(text, " "))
	sum := sha1.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// ChunkID derives a deterministic chunk identifier from the owning
// document, the chunk's position, and a text prefix. Reprocessing an
// unchanged document yields the same IDs.
func ChunkID(docID string, index int, text string) string {
	prefix := text
	if len(prefix) > 80 {
		prefix = prefix[:80]
	}
	sum := sha1.Sum([]byte(fmt.Sprintf("%s:%d:%s", docID, index, prefix)))
	return hex.EncodeToString(sum[:])[:20]
}
