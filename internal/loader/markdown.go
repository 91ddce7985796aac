package loader

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	"github.com/dgallion1/ragchunk/internal/block"
)

var imageLineRE = regexp.MustCompile(`^\s*!\[[^\]]*\]\([^)]*\)\s*$`)

// loadMarkdown converts a markdown extraction dump into flat blocks
// using the goldmark AST: headings become title blocks with their
// level, everything else becomes text blocks in document order.
func loadMarkdown(path string) ([]*block.Block, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}

	md := goldmark.New()
	doc := md.Parser().Parse(gmtext.NewReader(src))

	var blocks []*block.Block
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			title := strings.TrimSpace(string(node.Text(src)))
			if title == "" {
				continue
			}
			level := node.Level
			blocks = append(blocks, &block.Block{
				Text:         title,
				BlockType:    block.TypeTitle,
				HeadingLevel: &level,
			})
		default:
			text := strings.TrimSpace(nodeText(n, src))
			if text == "" || imageLineRE.MatchString(text) {
				continue
			}
			blockType := block.TypeText
			if _, isList := n.(*ast.List); isList {
				blockType = block.TypeList
			}
			if strings.Contains(text, "|") && strings.Count(text, "|") >= 4 {
				blockType = block.TypeTable
			}
			blocks = append(blocks, &block.Block{
				Text:      text,
				BlockType: blockType,
			})
		}
	}
	return blocks, nil
}

// nodeText gets the raw text content of a goldmark AST node, including
// nested inlines.
func nodeText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
			continue
		}
		part := nodeText(c, src)
		if part != "" {
			if buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString(part)
		}
	}
	return strings.TrimSpace(buf.String())
}
