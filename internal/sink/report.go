package sink

import (
	"fmt"
	"strings"

	"github.com/dgallion1/ragchunk/internal/pipeline"
)

// renderScorecard produces the markdown run summary. The counters are
// the contract with the quality-gate layer; thresholds live there, not
// here.
func renderScorecard(s pipeline.Summary) string {
	var b strings.Builder
	b.WriteString("# Chunking run summary\n\n")
	fmt.Fprintf(&b, "Run `%s` finished in %s.\n\n", s.RunID, s.Elapsed.Round(1e6))

	b.WriteString("| Metric | Value |\n|---|---|\n")
	rows := []struct {
		name  string
		value int
	}{
		{"Documents", s.Documents},
		{"Processed", s.Completed},
		{"Cache hits", s.Cached},
		{"Failed", s.Failed},
		{"Chunks emitted", s.Chunks},
		{"Tiny chunks (residual)", s.TinyChunks},
		{"Mixed-article chunks", s.MixedArticle},
		{"Oversize atomic chunks", s.Oversize},
		{"Duplicates resolved", s.Duplicates},
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "| %s | %d |\n", row.name, row.value)
	}
	return b.String()
}
