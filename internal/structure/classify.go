package structure

import (
	"regexp"
	"strings"

	"github.com/dgallion1/ragchunk/internal/block"
)

// Level is the structural depth a heading introduces.
type Level int

const (
	LevelNone Level = iota
	LevelArticle
	LevelSection
	LevelSubarticle
)

func (l Level) String() string {
	switch l {
	case LevelArticle:
		return "article"
	case LevelSection:
		return "section"
	case LevelSubarticle:
		return "subarticle"
	default:
		return "none"
	}
}

var (
	articleRE = regexp.MustCompile(`(?i)^\s*(?:#\s*)?(?:art\.?|article|articolo)\s*[-.:]?\s*(\d+(?:\.\d+)*)\b(.*)$`)
	sectionRE = regexp.MustCompile(`(?i)^\s*(?:#\s*)?(?:section|sezione|part|chapter|capo|titolo)\s+[IVXLC0-9]+\b`)
	// Dotted numeric headings like "3.2 Eligibility" act as section labels.
	numericSectionRE = regexp.MustCompile(`^\s*(\d+(?:\.\d+)*)[.)]?\s+\S`)
	subarticleRE     = regexp.MustCompile(`^\s*(\d+\.\d+)\b`)
	inlineSubRE      = regexp.MustCompile(`\((\d+(?:\.\d+)?)\)`)
	articleTokenRE   = regexp.MustCompile(`(?i)\b(?:art\.?|article|articolo)\b`)
)

// Match is the outcome of classifying one block.
type Match struct {
	Level      Level
	Article    string // root article number, e.g. "4" for "Art. 4.2"
	Subarticle string // dotted form when present, e.g. "4.2"
	Section    string // section label text
}

// Classify decides what structural level, if any, a block introduces.
// It is a pure function: the resolver owns all state. Ambiguous
// headings resolve to the shallower level, so an "Art. 3" line that
// also looks like a numbered section is an article.
func Classify(b *block.Block) Match {
	line := firstLine(b.Text)
	if line == "" {
		return Match{Level: LevelNone}
	}

	if m := articleRE.FindStringSubmatch(line); m != nil {
		if !looksLikeArticleTitle(line, b.IsHeading()) {
			return Match{Level: LevelNone}
		}
		full := m[1]
		match := Match{
			Level:   LevelArticle,
			Article: strings.SplitN(full, ".", 2)[0],
		}
		if strings.Contains(full, ".") {
			match.Subarticle = full
		}
		if b.IsHeading() {
			if sub := inlineSubRE.FindStringSubmatch(m[2]); sub != nil {
				match.Subarticle = sub[1]
			}
		}
		return match
	}

	if sectionRE.MatchString(line) {
		return Match{Level: LevelSection, Section: strings.TrimSpace(strings.TrimLeft(line, "# "))}
	}

	if b.IsHeading() {
		if m := numericSectionRE.FindStringSubmatch(line); m != nil {
			return Match{Level: LevelSection, Section: strings.TrimSpace(strings.TrimLeft(line, "# "))}
		}
		// Any other heading acts as a section label so non-legal
		// documents still resolve a coarse hierarchy.
		label := strings.TrimSpace(strings.TrimLeft(line, "# "))
		if label != "" {
			return Match{Level: LevelSection, Section: label}
		}
		return Match{Level: LevelNone}
	}

	if m := subarticleRE.FindStringSubmatch(line); m != nil {
		return Match{Level: LevelSubarticle, Subarticle: m[1]}
	}

	return Match{Level: LevelNone}
}

// looksLikeArticleTitle filters out body sentences that merely mention
// an article number.
func looksLikeArticleTitle(line string, isHeading bool) bool {
	if isHeading {
		return true
	}
	mentions := len(articleTokenRE.FindAllString(line, -1))
	if mentions > 1 {
		return false
	}
	return len(line) <= 140 || line == strings.ToUpper(line)
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}
