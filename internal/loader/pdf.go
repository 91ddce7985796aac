package loader

import (
	"fmt"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/ragchunk/internal/block"
)

// loadPDF is the last-resort source mode: plain text per page with no
// heading hints. Structure resolution then depends entirely on text
// patterns.
func loadPDF(path string) ([]*block.Block, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var blocks []*block.Block
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		// Paragraph-ish splits keep single pages from becoming one
		// giant atomic segment.
		for _, para := range splitParagraphs(text) {
			blocks = append(blocks, &block.Block{
				Text:      para,
				BlockType: block.TypeText,
				PageRefs:  []block.PageRef{{Page: i}},
			})
		}
	}
	return blocks, nil
}

func splitParagraphs(text string) []string {
	var out []string
	for _, part := range strings.Split(text, "\n\n") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
