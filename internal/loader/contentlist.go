package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dgallion1/ragchunk/internal/block"
)

// content_list JSON is a flat array of typed items in reading order.
type contentItem struct {
	Type          string   `json:"type"`
	Text          string   `json:"text"`
	TextLevel     *int     `json:"text_level"`
	PageIdx       *int     `json:"page_idx"`
	TableBody     string   `json:"table_body"`
	TableCaption  []string `json:"table_caption"`
	TableFootnote []string `json:"table_footnote"`
}

var contentListAllowedTypes = map[string]bool{
	"text":     true,
	"list":     true,
	"table":    true,
	"equation": true,
}

func loadContentList(path string) ([]*block.Block, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content list: %w", err)
	}
	var items []contentItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode content list: %w", err)
	}

	var blocks []*block.Block
	for _, item := range items {
		if !contentListAllowedTypes[strings.TrimSpace(item.Type)] {
			continue
		}

		b := &block.Block{}
		if item.PageIdx != nil {
			b.PageRefs = []block.PageRef{{Page: *item.PageIdx}}
		}

		switch item.Type {
		case "table":
			var parts []string
			if item.TableBody != "" {
				parts = append(parts, item.TableBody)
			}
			if len(item.TableCaption) > 0 {
				parts = append(parts, strings.Join(item.TableCaption, " "))
			}
			if len(item.TableFootnote) > 0 {
				parts = append(parts, strings.Join(item.TableFootnote, " "))
			}
			b.Text = strings.Join(parts, "\n")
			b.BlockType = block.TypeTable
		case "list":
			b.Text = item.Text
			b.BlockType = block.TypeList
		case "equation":
			b.Text = item.Text
			b.BlockType = block.TypeEquation
		default:
			b.Text = item.Text
			b.BlockType = block.TypeText
			// text_level > 0 marks a heading in content lists.
			if item.TextLevel != nil && *item.TextLevel > 0 {
				level := *item.TextLevel
				b.HeadingLevel = &level
				b.BlockType = block.TypeTitle
			}
		}

		if strings.TrimSpace(b.Text) == "" {
			continue
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}
