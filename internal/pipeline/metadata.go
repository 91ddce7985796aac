package pipeline

import (
	"regexp"
	"strings"

	"github.com/dgallion1/ragchunk/internal/block"
	"github.com/dgallion1/ragchunk/internal/chunk"
)

// DocumentMeta is descriptive metadata recovered from a document's
// leading blocks, persisted alongside its chunk records.
type DocumentMeta struct {
	Name        string `json:"name"`
	Year        string `json:"year,omitempty"`
	Description string `json:"brief_description,omitempty"`
	Language    string `json:"language_hint,omitempty"`
}

var (
	academicYearRE = regexp.MustCompile(`(?i)\bA\.?\s*Y\.?\s*(20\d{2})\s*[/_\-]\s*(\d{2,4})\b`)
	yearRangeRE    = regexp.MustCompile(`\b(20\d{2})\s*[/_\-]\s*(\d{2,4})\b`)
	singleYearRE   = regexp.MustCompile(`\b(20\d{2})\b`)
	metaWordRE     = regexp.MustCompile(`[\p{L}0-9']+`)
)

// genericTitleWords penalize boilerplate titles like "Call" or
// "Regulation" so a more specific candidate wins.
var genericTitleWords = map[string]bool{
	"call": true, "bando": true, "notice": true, "avviso": true,
	"announcement": true, "regulation": true, "regolamento": true,
	"policy": true, "guidelines": true,
}

// ExtractMeta derives a display name, a year label, and a brief
// description from the first blocks of a document.
func ExtractMeta(blocks []*block.Block, fallbackName string) DocumentMeta {
	meta := DocumentMeta{Name: extractName(blocks, fallbackName)}

	sample := meta.Name
	for i := 0; i < len(blocks) && i < 20; i++ {
		sample += "\n" + blocks[i].Text
	}
	meta.Year = extractYear(sample)
	meta.Description = extractDescription(blocks, meta.Name)
	meta.Language = detectLanguage(blocks)
	return meta
}

// Stopword tallies are a coarse but reliable signal for the two
// languages this corpus actually contains.
var (
	italianHintWords = map[string]bool{
		"il": true, "lo": true, "la": true, "gli": true, "delle": true,
		"della": true, "degli": true, "che": true, "per": true, "con": true,
		"una": true, "sono": true, "articolo": true, "presente": true,
		"nel": true, "dal": true, "ai": true, "nonché": true,
	}
	englishHintWords = map[string]bool{
		"the": true, "of": true, "and": true, "to": true, "is": true,
		"are": true, "for": true, "with": true, "that": true, "shall": true,
		"must": true, "this": true, "by": true, "within": true,
	}
)

// detectLanguage returns a best-effort two-letter hint, or "" when the
// leading blocks give no clear majority.
func detectLanguage(blocks []*block.Block) string {
	it, en := 0, 0
	for i, b := range blocks {
		if i >= 40 {
			break
		}
		for _, w := range strings.Fields(strings.ToLower(b.Text)) {
			w = strings.Trim(w, ".,;:()[]\"'")
			if italianHintWords[w] {
				it++
			}
			if englishHintWords[w] {
				en++
			}
		}
	}
	switch {
	case it > en:
		return "it"
	case en > it:
		return "en"
	default:
		return ""
	}
}

// augmentChunks prefixes each chunk's text with a compact metadata
// header so embedding models see document and structural context even
// when the body alone is ambiguous. The raw text, fingerprint, and ID
// stay untouched.
func augmentChunks(chunks []chunk.Chunk, meta DocumentMeta) {
	for i := range chunks {
		chunks[i].AugmentedText = augmentedText(&chunks[i], meta)
	}
}

func augmentedText(c *chunk.Chunk, meta DocumentMeta) string {
	parts := []string{"doc=" + meta.Name}
	if meta.Year != "" {
		parts = append(parts, "year="+meta.Year)
	}
	if c.Path.Article != "" {
		parts = append(parts, "article="+c.Path.Article)
	}
	if c.Path.Subarticle != "" {
		parts = append(parts, "subarticle="+c.Path.Subarticle)
	}
	if c.Path.Section != "" {
		parts = append(parts, "section="+c.Path.Section)
	}
	return "meta: " + strings.Join(parts, " | ") + "\n\n" + c.Text
}

func extractName(blocks []*block.Block, fallback string) string {
	var candidates []string
	for i, b := range blocks {
		if i >= 60 {
			break
		}
		if b.BlockType != block.TypeTitle {
			continue
		}
		text := strings.TrimSpace(strings.TrimLeft(b.Text, "# "))
		if len(text) >= 4 {
			candidates = append(candidates, text)
		}
	}

	best := ""
	bestScore := -1
	for _, c := range candidates {
		if s := scoreTitle(c); s > bestScore {
			best, bestScore = c, s
		}
	}
	if bestScore >= 20 {
		return best
	}

	for _, b := range blocks {
		text := strings.TrimSpace(strings.TrimLeft(b.Text, "# "))
		if len(text) >= 8 {
			return text
		}
	}
	return fallback
}

func scoreTitle(value string) int {
	words := metaWordRE.FindAllString(strings.ToLower(value), -1)
	if len(words) == 0 {
		return -1
	}
	genericHits := 0
	for _, w := range words {
		if genericTitleWords[w] {
			genericHits++
		}
	}
	lengthScore := min(len(value), 120)
	wordScore := min(len(words), 16) * 5
	return lengthScore + wordScore - genericHits*20
}

func extractYear(text string) string {
	if m := academicYearRE.FindStringSubmatch(text); m != nil {
		return normalizeYearRange(m[1], m[2])
	}
	if m := yearRangeRE.FindStringSubmatch(text); m != nil {
		return normalizeYearRange(m[1], m[2])
	}
	if m := singleYearRE.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// normalizeYearRange expands "2024/25" to "2024-2025".
func normalizeYearRange(start, endRaw string) string {
	if len(endRaw) == 2 {
		return start + "-" + start[:2] + endRaw
	}
	return start + "-" + endRaw
}

func extractDescription(blocks []*block.Block, title string) string {
	var candidates []string
	for _, b := range blocks {
		if b.BlockType == block.TypeTitle || b.BlockType == block.TypeTable {
			continue
		}
		text := strings.TrimSpace(b.Text)
		if len(text) < 60 {
			continue
		}
		candidates = append(candidates, text)
		if len(candidates) >= 3 {
			break
		}
	}
	if len(candidates) == 0 {
		return title
	}
	merged := strings.Join(candidates, " ")
	merged = strings.Join(strings.Fields(merged), " ")
	if len(merged) <= 320 {
		return merged
	}
	return strings.TrimRight(merged[:317], " ") + "..."
}
