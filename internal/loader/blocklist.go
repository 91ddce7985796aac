package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dgallion1/ragchunk/internal/block"
)

// block_list JSON carries per-page block arrays plus merge connections
// recorded by the layout extractor.
type blockListPayload struct {
	PDFData          [][]rawBlock         `json:"pdfData"`
	MergeConnections []rawMergeConnection `json:"mergeConnections"`
}

type rawBlock struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	Text          string `json:"text"`
	Content       string `json:"content"`
	TableBody     string `json:"table_body"`
	PageIdx       *int   `json:"page_idx"`
	Level         *int   `json:"level"`
	BlockPosition string `json:"block_position"`
	IsDiscarded   bool   `json:"is_discarded"`
}

type rawMergeConnection struct {
	Type   string   `json:"type"`
	Blocks []string `json:"blocks"`
}

// blockListAllowedTypes filters layout noise (figures, discarded
// regions) out of the canonical stream.
var blockListAllowedTypes = map[string]block.Type{
	"title":          block.TypeTitle,
	"text":           block.TypeText,
	"list":           block.TypeList,
	"table_body":     block.TypeTable,
	"table_caption":  block.TypeTable,
	"table_footnote": block.TypeTable,
	"equation":       block.TypeEquation,
}

func loadBlockList(path string) ([]*block.Block, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read block list: %w", err)
	}
	var payload blockListPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode block list: %w", err)
	}

	var blocks []*block.Block
	positionToIdx := make(map[string]int)

	for _, page := range payload.PDFData {
		for _, item := range page {
			if item.IsDiscarded {
				continue
			}
			blockType, ok := blockListAllowedTypes[strings.TrimSpace(item.Type)]
			if !ok {
				continue
			}

			text := item.Text
			if item.Type == "table_body" && item.TableBody != "" {
				text = item.TableBody
			}
			if text == "" {
				text = item.Content
			}

			b := &block.Block{
				ID:        item.ID,
				Text:      text,
				BlockType: blockType,
			}
			if item.PageIdx != nil {
				b.PageRefs = []block.PageRef{{Page: *item.PageIdx, BlockID: item.ID}}
			}
			if blockType == block.TypeTitle && item.Level != nil && *item.Level > 0 {
				level := *item.Level
				b.HeadingLevel = &level
			} else if blockType == block.TypeTitle {
				level := 1
				b.HeadingLevel = &level
			}

			blocks = append(blocks, b)
			if item.BlockPosition != "" {
				positionToIdx[item.BlockPosition] = len(blocks) - 1
			}
		}
	}

	return applyMergeConnections(blocks, payload.MergeConnections, positionToIdx), nil
}

// applyMergeConnections collapses extractor-flagged cross-page
// continuations into the earliest member block.
func applyMergeConnections(blocks []*block.Block, connections []rawMergeConnection, positionToIdx map[string]int) []*block.Block {
	if len(connections) == 0 {
		return blocks
	}

	skip := make(map[int]bool)
	for _, conn := range connections {
		if conn.Type != "merge" {
			continue
		}
		var indices []int
		seen := make(map[int]bool)
		for _, pos := range conn.Blocks {
			if idx, ok := positionToIdx[pos]; ok && !seen[idx] {
				seen[idx] = true
				indices = append(indices, idx)
			}
		}
		if len(indices) < 2 {
			continue
		}
		base := indices[0]
		for _, idx := range indices {
			if idx < base {
				base = idx
			}
		}

		var texts []string
		var refs []block.PageRef
		for _, idx := range indices {
			t := strings.TrimSpace(blocks[idx].Text)
			if t != "" && (len(texts) == 0 || texts[len(texts)-1] != t) {
				texts = append(texts, t)
			}
			refs = append(refs, blocks[idx].PageRefs...)
			if idx != base {
				skip[idx] = true
			}
		}
		if len(texts) == 0 {
			continue
		}
		blocks[base].Text = strings.Join(texts, "\n")
		blocks[base].PageRefs = block.DedupePageRefs(refs)
	}

	out := make([]*block.Block, 0, len(blocks))
	for i, b := range blocks {
		if skip[i] {
			continue
		}
		if strings.TrimSpace(b.Text) == "" {
			continue
		}
		out = append(out, b)
	}
	return out
}
