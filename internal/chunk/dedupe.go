package chunk

// DedupePolicy selects what happens to duplicate payloads.
type DedupePolicy string

const (
	// DedupeDrop removes all but the first occurrence (default).
	DedupeDrop DedupePolicy = "drop"
	// DedupeTag keeps duplicates but marks them with the surviving
	// chunk's ID (audit mode).
	DedupeTag DedupePolicy = "tag"
)

// Dedupe resolves exact-duplicate chunk payloads corpus-wide by
// content fingerprint. Input order is document order; the first
// occurrence always survives. Returns the resolved list and the number
// of duplicates found.
func Dedupe(chunks []Chunk, policy DedupePolicy) ([]Chunk, int) {
	firstByFingerprint := make(map[string]string, len(chunks))
	out := make([]Chunk, 0, len(chunks))
	duplicates := 0

	for i := range chunks {
		c := chunks[i]
		if survivor, seen := firstByFingerprint[c.Fingerprint]; seen {
			duplicates++
			if policy == DedupeTag {
				c.DuplicateOf = survivor
				out = append(out, c)
			}
			continue
		}
		firstByFingerprint[c.Fingerprint] = c.ID
		out = append(out, c)
	}
	return out, duplicates
}
