package segment

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/dgallion1/ragchunk/internal/block"
	"github.com/dgallion1/ragchunk/internal/token"
)

// Policy controls how low-information segments are folded away.
type Policy struct {
	DropTOC bool
	// StubTokens is the ceiling below which a segment can qualify as a
	// droppable structural stub.
	StubTokens int
	// MaxTokens bounds fold results so the assembler never receives a
	// segment it must overflow just because of a fold.
	MaxTokens int
}

var (
	// "Introduction .......... 4" style dotted-leader entries.
	tocLeaderRE = regexp.MustCompile(`^.{0,120}?\.{3,}\s*\d{1,4}\s*$`)
	// "3.2 Eligibility 14" style entries with a trailing page number.
	tocNumberedRE = regexp.MustCompile(`^\s*\d+(?:\.\d+)*[.)]?\s+\S.*\s\d{1,4}\s*$`)
	pageOnlyRE    = regexp.MustCompile(`(?i)^\s*(?:page\s+)?\d{1,4}\s*(?:of\s+\d{1,4})?\s*$`)
	pageTailRE    = regexp.MustCompile(`\s\d{1,4}\s*$`)
	wordOnlyRE    = regexp.MustCompile(`[\p{L}']+`)
)

// Droppable reports whether a segment is pure structural noise: a
// table-of-contents fragment, a page-number line, or a stray heading
// stub with no substantive content.
func Droppable(s *Segment, stubTokens int) bool {
	if s.IsTable {
		return false
	}
	if s.TokenCount > stubTokens {
		return false
	}
	lines := nonEmptyLines(s.Text)
	if len(lines) == 0 {
		return true
	}

	leaderHits := 0
	numberedHits := 0
	tailHits := 0
	for _, line := range lines {
		if strings.Contains(line, "|") {
			return false
		}
		if tocLeaderRE.MatchString(line) {
			leaderHits++
		}
		if tocNumberedRE.MatchString(line) {
			numberedHits++
		}
		if pageTailRE.MatchString(line) || pageOnlyRE.MatchString(line) {
			tailHits++
		}
	}
	if leaderHits == len(lines) || numberedHits == len(lines) {
		return true
	}
	if tailHits == len(lines) && (leaderHits > 0 || numberedHits > 0) {
		return true
	}

	if allHeadings(lines) {
		return true
	}

	joined := strings.Join(lines, " ")
	if pageOnlyRE.MatchString(joined) {
		return true
	}
	if s.TokenCount <= 12 {
		if joined == strings.ToUpper(joined) && hasLetter(joined) {
			return true
		}
		if looksLikeTitleCaseLabel(joined) {
			return true
		}
	}
	return false
}

// Apply folds droppable segments per the drop/merge policy: isolated
// droppables are removed, others are folded into the nearest
// substantive neighbor (following preferred) without changing that
// neighbor's structural path. A fold that would push the neighbor past
// pol.MaxTokens is not taken; a stub no neighbor can absorb within
// budget is dropped, since its content is noise either way. The
// returned list never contains a segment made solely of
// non-informative content.
func Apply(segments []Segment, pol Policy, counter token.Counter) []Segment {
	if len(segments) == 0 {
		return segments
	}
	if !pol.DropTOC {
		return segments
	}

	droppable := make([]bool, len(segments))
	for i := range segments {
		droppable[i] = Droppable(&segments[i], pol.StubTokens)
	}

	out := make([]Segment, 0, len(segments))
	for i := range segments {
		if !droppable[i] {
			out = append(out, segments[i])
			continue
		}
		// Isolated: both neighbors (or edges) are droppable too.
		prevSubstantive := i > 0 && !droppable[i-1]
		nextSubstantive := i+1 < len(segments) && !droppable[i+1]
		if !prevSubstantive && !nextSubstantive {
			continue
		}
		if nextSubstantive {
			if folded := prepend(segments[i], segments[i+1], counter); withinBudget(folded, pol) {
				segments[i+1] = folded
				continue
			}
		}
		if prevSubstantive {
			if folded := appendTo(out[len(out)-1], segments[i], counter); withinBudget(folded, pol) {
				out[len(out)-1] = folded
				continue
			}
		}
		// Neither neighbor can take the stub without breaching the
		// budget; drop it outright.
	}
	return out
}

func withinBudget(s Segment, pol Policy) bool {
	return pol.MaxTokens <= 0 || s.TokenCount <= pol.MaxTokens
}

// prepend folds a stub in front of its following neighbor, keeping the
// neighbor's structural identity.
func prepend(stub, next Segment, counter token.Counter) Segment {
	text := strings.TrimRight(stub.Text, "\n ") + "\n\n" + strings.TrimLeft(next.Text, "\n ")
	return Segment{
		Text:        text,
		TokenCount:  counter.Count(text),
		PageRefs:    block.DedupePageRefs(append(append([]block.PageRef(nil), stub.PageRefs...), next.PageRefs...)),
		Path:        next.Path,
		HeadingPath: next.HeadingPath,
		IsTable:     next.IsTable,
	}
}

// appendTo folds a stub after its preceding neighbor.
func appendTo(prev, stub Segment, counter token.Counter) Segment {
	text := strings.TrimRight(prev.Text, "\n ") + "\n\n" + strings.TrimLeft(stub.Text, "\n ")
	return Segment{
		Text:        text,
		TokenCount:  counter.Count(text),
		PageRefs:    block.DedupePageRefs(append(append([]block.PageRef(nil), prev.PageRefs...), stub.PageRefs...)),
		Path:        prev.Path,
		HeadingPath: prev.HeadingPath,
		IsTable:     prev.IsTable,
	}
}

func nonEmptyLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func allHeadings(lines []string) bool {
	for _, line := range lines {
		if !strings.HasPrefix(line, "#") {
			return false
		}
	}
	return true
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// looksLikeTitleCaseLabel matches short runs of capitalized words,
// the shape of running headers and footers.
func looksLikeTitleCaseLabel(s string) bool {
	words := wordOnlyRE.FindAllString(s, -1)
	if len(words) < 2 || len(words) > 10 {
		return false
	}
	for _, w := range words {
		r := []rune(w)[0]
		if unicode.IsLetter(r) && !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}
