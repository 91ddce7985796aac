package loader

import (
	"fmt"
	"os"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/ragchunk/internal/block"
)

// loadDOCX emits one block per paragraph; heading styles carry over as
// heading levels. DOCX has no page geometry, so blocks carry no page
// refs.
func loadDOCX(path string) ([]*block.Block, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat docx: %w", err)
	}

	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var blocks []*block.Block
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		if text == "" {
			continue
		}
		b := &block.Block{Text: text, BlockType: block.TypeText}
		if level := docxHeadingLevel(para); level > 0 {
			b.BlockType = block.TypeTitle
			b.HeadingLevel = &level
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := para.Properties.Style.Val
	for level := 1; level <= 6; level++ {
		if strings.EqualFold(style, fmt.Sprintf("Heading%d", level)) ||
			strings.EqualFold(style, fmt.Sprintf("heading %d", level)) {
			return level
		}
	}
	return 0
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
