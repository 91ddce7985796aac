// Package loader adapts heterogeneous PDF-extraction output into the
// canonical block model. The preferred representations are the
// extractor's block_list / content_list JSON files; markdown, pdf,
// docx, and html inputs serve as fallbacks when no extraction JSON
// exists or the preferred mode yields nothing.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dgallion1/ragchunk/internal/block"
	"github.com/dgallion1/ragchunk/internal/token"
)

// SourcePriority selects the tie-break when several representations
// exist for one document.
type SourcePriority string

const (
	// BlockFirst prefers block_list JSON, then content_list, then the
	// flat-file fallbacks.
	BlockFirst SourcePriority = "block_first"
	// ContentFirst prefers content_list JSON.
	ContentFirst SourcePriority = "content_first"
)

// Choice names the representation selected for a document folder.
type Choice struct {
	Mode block.SourceMode
	Path string
	// FallbackReason is set when the preferred mode was unavailable or
	// produced no blocks.
	FallbackReason string
}

var uuidSuffixRE = regexp.MustCompile(`(?i)-[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// DocumentID derives a stable document identifier from a folder name,
// stripping extractor-appended UUID suffixes and file extensions.
func DocumentID(folder string) string {
	name := filepath.Base(filepath.Clean(folder))
	name = uuidSuffixRE.ReplaceAllString(name, "")
	name = strings.TrimSuffix(name, ".pdf")
	name = strings.ReplaceAll(name, " ", "_")
	return name
}

// Load selects a representation for the folder per priority and
// returns the canonical block sequence. When the preferred mode is
// partially unavailable (file missing or zero usable blocks) it falls
// through to the next mode rather than failing.
func Load(folder string, priority SourcePriority, counter token.Counter) ([]*block.Block, Choice, error) {
	docID := DocumentID(folder)
	choices := candidates(folder, priority)
	if len(choices) == 0 {
		return nil, Choice{Mode: block.ModeNone}, fmt.Errorf("no loadable inputs in %s", folder)
	}

	var firstErr error
	var fallbackReason string
	for i, c := range choices {
		blocks, err := loadOne(c)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			fallbackReason = fmt.Sprintf("%s: %v", c.Mode, err)
			continue
		}
		if len(blocks) == 0 {
			fallbackReason = fmt.Sprintf("%s: no usable blocks", c.Mode)
			continue
		}
		if i > 0 {
			c.FallbackReason = fallbackReason
		}
		finalize(blocks, docID, c.Mode, counter)
		return blocks, c, nil
	}

	if firstErr != nil {
		return nil, Choice{Mode: block.ModeNone}, fmt.Errorf("load %s: %w", folder, firstErr)
	}
	return nil, Choice{Mode: block.ModeNone}, fmt.Errorf("load %s: no representation produced blocks", folder)
}

// candidates lists existing input files in preference order.
func candidates(folder string, priority SourcePriority) []Choice {
	jsonModes := []block.SourceMode{block.ModeBlockList, block.ModeContentList}
	if priority == ContentFirst {
		jsonModes = []block.SourceMode{block.ModeContentList, block.ModeBlockList}
	}

	var out []Choice
	for _, mode := range jsonModes {
		if path := findSuffix(folder, "_"+string(mode)+".json"); path != "" {
			out = append(out, Choice{Mode: mode, Path: path})
		}
	}
	for _, fb := range []struct {
		mode block.SourceMode
		ext  string
	}{
		{block.ModeMarkdown, ".md"},
		{block.ModePDF, ".pdf"},
		{block.ModeDOCX, ".docx"},
		{block.ModeHTML, ".html"},
	} {
		if path := findSuffix(folder, fb.ext); path != "" {
			out = append(out, Choice{Mode: fb.mode, Path: path})
		}
	}
	return out
}

func loadOne(c Choice) ([]*block.Block, error) {
	switch c.Mode {
	case block.ModeBlockList:
		return loadBlockList(c.Path)
	case block.ModeContentList:
		return loadContentList(c.Path)
	case block.ModeMarkdown:
		return loadMarkdown(c.Path)
	case block.ModePDF:
		return loadPDF(c.Path)
	case block.ModeDOCX:
		return loadDOCX(c.Path)
	case block.ModeHTML:
		return loadHTML(c.Path)
	default:
		return nil, fmt.Errorf("unknown source mode %q", c.Mode)
	}
}

// finalize stamps ordering, identity, and token counts onto freshly
// loaded blocks. OrderIndex is the sole ground truth for sequence.
func finalize(blocks []*block.Block, docID string, mode block.SourceMode, counter token.Counter) {
	for i, b := range blocks {
		b.DocumentID = docID
		b.OrderIndex = i
		b.SourceMode = mode
		b.TokenCount = counter.Count(b.Text)
		if b.ID == "" {
			b.ID = fmt.Sprintf("%s:%d", docID, i)
		}
		if len(b.PageRefs) > 0 {
			b.PageStart, b.PageEnd = block.PageSpan(b.PageRefs)
		}
	}
}

func findSuffix(folder, suffix string) string {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(strings.ToLower(e.Name()), suffix) {
			return filepath.Join(folder, e.Name())
		}
	}
	return ""
}
