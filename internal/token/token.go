package token

import (
	"regexp"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Counter reports how many tokens a piece of text occupies in the
// embedding model's vocabulary.
type Counter interface {
	Count(text string) int
}

// wordRE approximates one token per word or punctuation mark.
var wordRE = regexp.MustCompile(`\w+|[^\w\s]`)

// fallbackSafetyFactor inflates the regex estimate so budgets stay
// conservative when exact tokenization is unavailable.
const fallbackSafetyFactor = 1.2

// tiktokenCounter counts with the cl100k_base BPE encoding.
type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

func (c *tiktokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(c.enc.Encode(text, nil, nil))
}

// heuristicCounter is the fallback when the BPE encoding cannot be
// loaded (e.g. offline without a cached vocabulary).
type heuristicCounter struct{}

func (heuristicCounter) Count(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	n := int(float64(len(wordRE.FindAllString(text, -1)))*fallbackSafetyFactor + 0.5)
	if n < 1 {
		n = 1
	}
	return n
}

var (
	defaultOnce    sync.Once
	defaultCounter Counter
)

// NewCounter returns the cl100k_base counter, or the regex heuristic
// if the encoding is unavailable.
func NewCounter() Counter {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil || enc == nil {
		return heuristicCounter{}
	}
	return &tiktokenCounter{enc: enc}
}

// Default returns a process-wide shared counter. Loading the encoding
// is expensive, so it happens once.
func Default() Counter {
	defaultOnce.Do(func() {
		defaultCounter = NewCounter()
	})
	return defaultCounter
}

// Heuristic returns the regex fallback counter. Exposed so tests can
// use a deterministic counter that does not depend on vocabulary files.
func Heuristic() Counter {
	return heuristicCounter{}
}
